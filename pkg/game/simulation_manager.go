package game

import (
	"log"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/particlesim/pkg/policy"
	"github.com/decker502/particlesim/pkg/systems"
)

// SimulationID is an opaque handle to an emitter registered in a
// SimulationManager. The zero value never refers to an emitter.
type SimulationID uint64

// SimulationManager 粒子模拟注册表
// 持有所有发射器，按注册顺序统一更新，并广播播放状态切换
//
// All methods are safe for concurrent use. Emitters returned by GetEmitter
// are not, and must only be touched from the goroutine driving
// UpdateAllSimulations.
type SimulationManager struct {
	mu           sync.Mutex
	nextID       SimulationID
	emitters     map[SimulationID]*systems.Emitter
	order        []SimulationID // 注册顺序，保证更新顺序稳定
	boundingMode systems.BoundingMode
}

// NewSimulationManager creates an empty registry using BoundingGeneral.
func NewSimulationManager() *SimulationManager {
	return &SimulationManager{
		emitters:     make(map[SimulationID]*systems.Emitter),
		boundingMode: systems.BoundingGeneral,
	}
}

// Allocate registers an emitter and returns its fresh ID.
// The emitter adopts the manager's bounding mode.
//
// Returns:
//   - SimulationID: the new handle, or 0 when e is nil
func (m *SimulationManager) Allocate(e *systems.Emitter) SimulationID {
	if e == nil {
		log.Printf("[SimulationManager] Warning: Allocate called with nil emitter")
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	e.SetBoundingMode(m.boundingMode)
	m.emitters[id] = e
	m.order = append(m.order, id)
	return id
}

// Deallocate removes an emitter and releases its particle pool.
// It returns false for unknown IDs.
func (m *SimulationManager) Deallocate(id SimulationID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.emitters[id]
	if !ok {
		return false
	}
	e.Reset()
	delete(m.emitters, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// UpdateAllSimulations advances every emitter by dt in registration order.
func (m *SimulationManager) UpdateAllSimulations(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		m.emitters[id].Update(dt)
	}
}

// OnPlay starts every emitter. When wasPaused is true paused emitters
// resume where they were, otherwise every emitter restarts from scratch.
func (m *SimulationManager) OnPlay(wasPaused bool) {
	m.each(func(e *systems.Emitter) {
		if wasPaused {
			e.Resume()
			e.Play()
		} else {
			e.Restart()
		}
	})
}

// OnPause pauses every playing emitter.
func (m *SimulationManager) OnPause() {
	m.each((*systems.Emitter).Pause)
}

// OnStop requests a stop on every emitter.
func (m *SimulationManager) OnStop() {
	m.each((*systems.Emitter).Stop)
}

func (m *SimulationManager) each(fn func(*systems.Emitter)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		fn(m.emitters[id])
	}
}

// GetEmitter returns the emitter registered under id, or nil.
func (m *SimulationManager) GetEmitter(id SimulationID) *systems.Emitter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emitters[id]
}

// EmitterHasBlend reports whether the emitter uses a blend mode.
// Unknown IDs report false.
func (m *SimulationManager) EmitterHasBlend(id SimulationID) bool {
	e := m.GetEmitter(id)
	return e != nil && e.Policies().Blend != policy.BlendNone
}

// EmitterHasLight reports whether the emitter's particles carry light.
// Unknown IDs report false.
func (m *SimulationManager) EmitterHasLight(id SimulationID) bool {
	e := m.GetEmitter(id)
	return e != nil && e.Policies().Light.Enabled
}

// SetBoundingMode switches the bounding mode of every registered emitter
// and of emitters allocated later.
func (m *SimulationManager) SetBoundingMode(mode systems.BoundingMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.boundingMode != mode {
		log.Printf("[SimulationManager] Bounding mode: %v -> %v", m.boundingMode, mode)
	}
	m.boundingMode = mode
	for _, e := range m.emitters {
		e.SetBoundingMode(mode)
	}
}

// BoundingMode returns the global bounding mode.
func (m *SimulationManager) BoundingMode() systems.BoundingMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boundingMode
}

// SetParent forwards the parent transform to one emitter.
// It returns false for unknown IDs.
func (m *SimulationManager) SetParent(id SimulationID, position, velocity mgl64.Vec3) bool {
	e := m.GetEmitter(id)
	if e == nil {
		return false
	}
	e.SetParent(position, velocity)
	return true
}

// Len returns the number of registered emitters.
func (m *SimulationManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// IDs returns the registered IDs in update order.
func (m *SimulationManager) IDs() []SimulationID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SimulationID(nil), m.order...)
}

// TotalParticles returns the live particle count summed over all emitters.
func (m *SimulationManager) TotalParticles() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, e := range m.emitters {
		total += e.ParticleCount()
	}
	return total
}
