package systems

import (
	"encoding/base64"
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/particlesim/pkg/components"
)

// Snapshot is everything needed to resume an emitter exactly where it was:
// policies with their sub-states, clocks, statistics, the live pool and the
// random generator state.
type Snapshot struct {
	Policies       Policies              `yaml:"policies"`
	State          State                 `yaml:"state"`
	BoundingMode   BoundingMode          `yaml:"boundingMode"`
	ParentPosition mgl64.Vec3            `yaml:"parentPosition"`
	ParentVelocity mgl64.Vec3            `yaml:"parentVelocity"`
	TotalTime      float64               `yaml:"totalTime"`
	LocalDT        float64               `yaml:"localDT"`
	MaxDistSq      float64               `yaml:"maxDistSq"`
	MaxSpeedSq     float64               `yaml:"maxSpeedSq"`
	BoundingBox    components.AABB       `yaml:"boundingBox"`
	Capacity       int                   `yaml:"capacity"`
	Particles      []components.Particle `yaml:"particles"`
	RNG            string                `yaml:"rng"` // base64 PCG state
}

// Snapshot pulls the complete emitter state.
func (e *Emitter) Snapshot() (Snapshot, error) {
	state, err := e.src.MarshalBinary()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to marshal rng state: %w", err)
	}
	return Snapshot{
		Policies:       e.policies.Clone(),
		State:          e.state,
		BoundingMode:   e.boundingMode,
		ParentPosition: e.parentPos,
		ParentVelocity: e.parentVel,
		TotalTime:      e.totalTime,
		LocalDT:        e.localDT,
		MaxDistSq:      e.maxDistSq,
		MaxSpeedSq:     e.maxSpeedSq,
		BoundingBox:    e.boundingBox,
		Capacity:       cap(e.particles),
		Particles:      append([]components.Particle(nil), e.particles...),
		RNG:            base64.StdEncoding.EncodeToString(state),
	}, nil
}

// Restore pushes a snapshot into the emitter, replacing its whole state.
// The emitter is left unchanged when the snapshot is malformed.
func (e *Emitter) Restore(s Snapshot) error {
	if s.State > StateStopping {
		return fmt.Errorf("failed to restore emitter: invalid state %d", uint8(s.State))
	}
	if s.BoundingMode > BoundingPerParticle {
		return fmt.Errorf("failed to restore emitter: invalid bounding mode %d", uint8(s.BoundingMode))
	}
	raw, err := base64.StdEncoding.DecodeString(s.RNG)
	if err != nil {
		return fmt.Errorf("failed to decode rng state: %w", err)
	}
	src := &rand.PCG{}
	if err := src.UnmarshalBinary(raw); err != nil {
		return fmt.Errorf("failed to unmarshal rng state: %w", err)
	}

	e.SetPolicies(s.Policies)
	e.state = s.State
	e.boundingMode = s.BoundingMode
	e.parentPos = s.ParentPosition
	e.parentVel = s.ParentVelocity
	e.totalTime = s.TotalTime
	e.localDT = s.LocalDT
	e.maxDistSq = s.MaxDistSq
	e.maxSpeedSq = s.MaxSpeedSq
	e.boundingBox = s.BoundingBox

	e.particles = nil
	if capacity := max(len(s.Particles), min(s.Capacity, MaxParticlesCap)); capacity > 0 {
		e.particles = make([]components.Particle, len(s.Particles), capacity)
		copy(e.particles, s.Particles)
	}

	e.src = src
	e.rng = rand.New(src)
	return nil
}
