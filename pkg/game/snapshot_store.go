package game

import (
	"errors"
	"fmt"
	"log"
	"regexp"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"github.com/decker502/particlesim/pkg/systems"
)

// ErrSnapshotNotFound is returned by Load when no snapshot is stored under the name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// 存储路径常量
const snapshotObject = "snapshots"

var snapshotNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// SnapshotStore 发射器快照存储
// 使用 gdata 持久化 YAML 编码的 systems.Snapshot
type SnapshotStore struct {
	gdataManager *gdata.Manager // 可为 nil（降级模式，所有快照只保存在内存中）
	memory       map[string][]byte
}

// NewSnapshotStore creates a store backed by gdataManager.
//
// Parameters:
//   - gdataManager: gdata 存储管理器，可为 nil（降级模式）
func NewSnapshotStore(gdataManager *gdata.Manager) *SnapshotStore {
	if gdataManager == nil {
		log.Printf("[SnapshotStore] Warning: no gdata manager, snapshots are kept in memory only")
	}
	return &SnapshotStore{
		gdataManager: gdataManager,
		memory:       make(map[string][]byte),
	}
}

func validateSnapshotName(name string) error {
	if !snapshotNamePattern.MatchString(name) {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	return nil
}

// Save pulls the emitter state and stores it under name.
func (s *SnapshotStore) Save(name string, e *systems.Emitter) error {
	if err := validateSnapshotName(name); err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("failed to save snapshot %q: nil emitter", name)
	}

	snap, err := e.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to snapshot emitter: %w", err)
	}
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if s.gdataManager == nil {
		s.memory[name] = data
		return nil
	}
	if err := s.gdataManager.SaveObjectProp(snapshotObject, name, data); err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", name, err)
	}

	log.Printf("[SnapshotStore] Saved snapshot %q (%d particles)", name, len(snap.Particles))
	return nil
}

// Exists reports whether a snapshot is stored under name.
func (s *SnapshotStore) Exists(name string) bool {
	if validateSnapshotName(name) != nil {
		return false
	}
	if s.gdataManager == nil {
		_, ok := s.memory[name]
		return ok
	}
	return s.gdataManager.ObjectPropExists(snapshotObject, name)
}

// Load reads the snapshot stored under name.
//
// Returns:
//   - systems.Snapshot: the decoded snapshot
//   - error: ErrSnapshotNotFound if nothing is stored, or a decode error
func (s *SnapshotStore) Load(name string) (systems.Snapshot, error) {
	if err := validateSnapshotName(name); err != nil {
		return systems.Snapshot{}, err
	}
	if !s.Exists(name) {
		return systems.Snapshot{}, fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
	}

	var data []byte
	if s.gdataManager == nil {
		data = s.memory[name]
	} else {
		var err error
		data, err = s.gdataManager.LoadObjectProp(snapshotObject, name)
		if err != nil {
			return systems.Snapshot{}, fmt.Errorf("failed to load snapshot %q: %w", name, err)
		}
	}

	var snap systems.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return systems.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot %q: %w", name, err)
	}
	return snap, nil
}

// RestoreEmitter loads the snapshot stored under name into e.
func (s *SnapshotStore) RestoreEmitter(name string, e *systems.Emitter) error {
	if e == nil {
		return fmt.Errorf("failed to restore snapshot %q: nil emitter", name)
	}
	snap, err := s.Load(name)
	if err != nil {
		return err
	}
	if err := e.Restore(snap); err != nil {
		return fmt.Errorf("failed to restore snapshot %q: %w", name, err)
	}
	log.Printf("[SnapshotStore] Restored snapshot %q", name)
	return nil
}
