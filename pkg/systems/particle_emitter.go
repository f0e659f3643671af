package systems

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/particlesim/pkg/components"
)

// State is the playback state of an emitter.
type State uint8

const (
	StateStop     State = iota // initial and terminal
	StatePlay                  // simulating
	StatePause                 // frozen, keeps its particles
	StateRestart               // resolved to StatePlay by the next Update after a Reset
	StateStopping              // resolved to StateStop by the next Update after a Reset
)

func (s State) String() string {
	switch s {
	case StateStop:
		return "STOP"
	case StatePlay:
		return "PLAY"
	case StatePause:
		return "PAUSE"
	case StateRestart:
		return "RESTART"
	case StateStopping:
		return "STOPING"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// BoundingMode selects how the emitter bounding box is computed.
type BoundingMode uint8

const (
	// BoundingGeneral derives the box analytically from the boundary or the
	// farthest particle distance.
	BoundingGeneral BoundingMode = iota
	// BoundingPerParticle grows the box to include every particle position.
	BoundingPerParticle
)

func (m BoundingMode) String() string {
	switch m {
	case BoundingGeneral:
		return "general"
	case BoundingPerParticle:
		return "per_particle"
	default:
		return fmt.Sprintf("BoundingMode(%d)", uint8(m))
	}
}

// Stats is the read-only summary of an emitter for editor and inspection code.
type Stats struct {
	State         State
	ParticleCount int
	TotalTime     float64
	MaxDistSq     float64
	MaxSpeedSq    float64
	BoundingBox   components.AABB
}

// Emitter is a stateful particle simulation owning its particle pool and
// emission policies.
//
// An Emitter is not safe for concurrent use. SimulationManager serializes
// access to the emitters it owns.
type Emitter struct {
	policies     Policies
	state        State
	boundingMode BoundingMode

	parentPos mgl64.Vec3
	parentVel mgl64.Vec3

	particles []components.Particle

	totalTime   float64
	localDT     float64
	maxDistSq   float64
	maxSpeedSq  float64
	boundingBox components.AABB

	src *rand.PCG
	rng *rand.Rand
}

// NewEmitter creates a stopped emitter. seed makes the random streams of
// every generator reproducible.
//
// Parameters:
//   - p: emission policies, copied into the emitter
//   - seed: PCG seed
//
// Returns:
//   - *Emitter: a new emitter in StateStop
func NewEmitter(p Policies, seed uint64) *Emitter {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	e := &Emitter{
		state: StateStop,
		src:   src,
		rng:   rand.New(src),
	}
	e.SetPolicies(p)
	return e
}

// Play starts a stopped emitter or resumes a paused one.
func (e *Emitter) Play() {
	if e.state == StateStop || e.state == StatePause {
		e.state = StatePlay
	}
}

// Pause freezes a playing emitter.
func (e *Emitter) Pause() {
	if e.state == StatePlay {
		e.state = StatePause
	}
}

// Resume continues a paused emitter.
func (e *Emitter) Resume() {
	if e.state == StatePause {
		e.state = StatePlay
	}
}

// Stop requests a stop. The pool is cleared by the next Update.
func (e *Emitter) Stop() {
	e.state = StateStopping
}

// Restart requests a reset followed by playback on the next Update.
func (e *Emitter) Restart() {
	e.state = StateRestart
}

// State returns the current playback state.
func (e *Emitter) State() State { return e.state }

// SetParent updates the world transform supplied by the owning scene node.
func (e *Emitter) SetParent(position, velocity mgl64.Vec3) {
	e.parentPos = position
	e.parentVel = velocity
}

// ParentPosition returns the last parent position set.
func (e *Emitter) ParentPosition() mgl64.Vec3 { return e.parentPos }

// SetBoundingMode selects how the bounding box is maintained.
func (e *Emitter) SetBoundingMode(mode BoundingMode) { e.boundingMode = mode }

// BoundingMode returns the current bounding mode.
func (e *Emitter) BoundingMode() BoundingMode { return e.boundingMode }

// Policies returns a deep copy of the emission policies.
func (e *Emitter) Policies() Policies { return e.policies.Clone() }

// SetPolicies replaces the policies. MaxParticles is clamped to
// [0, MaxParticlesCap]; live particles above the new limit are kept until
// they die.
func (e *Emitter) SetPolicies(p Policies) {
	p = p.Clone()
	p.MaxParticles = clampMaxParticles(p.MaxParticles)
	e.policies = p
}

// Particles returns the live particle pool. The slice is owned by the
// emitter and only valid until the next Update.
func (e *Emitter) Particles() []components.Particle { return e.particles }

// ParticleCount returns the number of live particles.
func (e *Emitter) ParticleCount() int { return len(e.particles) }

// Capacity returns the reserved pool capacity.
func (e *Emitter) Capacity() int { return cap(e.particles) }

// TotalTime returns the accumulated local time including the start delay.
func (e *Emitter) TotalTime() float64 { return e.totalTime }

// BoundingBox returns the box computed by the last Update.
func (e *Emitter) BoundingBox() components.AABB { return e.boundingBox }

// Stats returns a summary of the emitter.
func (e *Emitter) Stats() Stats {
	return Stats{
		State:         e.state,
		ParticleCount: len(e.particles),
		TotalTime:     e.totalTime,
		MaxDistSq:     e.maxDistSq,
		MaxSpeedSq:    e.maxSpeedSq,
		BoundingBox:   e.boundingBox,
	}
}

// Update advances the emitter by dt engine seconds and returns the live
// particle count.
func (e *Emitter) Update(dt float64) int {
	switch e.state {
	case StateStopping:
		e.Reset()
		e.state = StateStop
	case StateRestart:
		e.Reset()
		e.state = StatePlay
	case StatePlay:
		if e.IsTimeValid(dt) {
			e.UpdateParticles()
			e.UpdateSpawn()
		}
	}
	return len(e.particles)
}

// Reset clears the pool, releases its memory and rewinds every clock.
// The playback state is left untouched.
func (e *Emitter) Reset() {
	e.particles = nil
	e.totalTime = 0
	e.localDT = 0
	e.maxDistSq = 0
	e.maxSpeedSq = 0
	e.boundingBox = components.AABB{}
	e.policies.Interval.Reset()
	e.policies.Mode.Reset()
}
