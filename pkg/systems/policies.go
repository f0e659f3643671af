package systems

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/particlesim/pkg/policy"
)

// MaxParticlesCap is the hard upper bound applied to Policies.MaxParticles.
const MaxParticlesCap = 500000

// Timing controls the playback clock of an emitter.
type Timing struct {
	StartDelay     float64 `yaml:"startDelay"`     // seconds before the first simulated tick
	MaxTime        float64 `yaml:"maxTime"`        // cycle length, <= 0 means unbounded
	Loop           bool    `yaml:"loop"`           // wrap the cycle instead of stopping
	TimeMultiplier float64 `yaml:"timeMultiplier"` // scales the engine dt
}

// Policies is the complete emission configuration of an emitter.
//
// Interval and Mode carry their own sub-state (time offsets, carry,
// timers), so a copied Policies value fully describes where the emitter
// is in its spawn schedule.
type Policies struct {
	MaxParticles int                `yaml:"maxParticles"`
	Lifetime     policy.SingleValue `yaml:"lifetime"`
	Position     policy.Shape       `yaml:"position"`
	Speed        policy.Vector      `yaml:"speed"`
	Acceleration policy.Vector      `yaml:"acceleration"`
	Interval     policy.Interval    `yaml:"interval"`
	Mode         policy.SpawnMode   `yaml:"mode"`
	Boundary     policy.Boundary    `yaml:"boundary"`
	Collider     policy.Collider    `yaml:"collider"`
	Light        policy.Light       `yaml:"light"`
	Blend        policy.BlendMode   `yaml:"blend"`
	LocalSpace   bool               `yaml:"localSpace"`
	InheritSpeed bool               `yaml:"inheritSpeed"`
	Timing       Timing             `yaml:"timing"`
}

// DefaultPolicies returns a looping point emitter flowing 10 particles per
// second with a one second lifetime.
func DefaultPolicies() Policies {
	return Policies{
		MaxParticles: 100,
		Lifetime:     policy.Fixed(1),
		Position:     policy.PointShape(mgl64.Vec3{}),
		Speed:        policy.ZeroVector(),
		Acceleration: policy.ZeroVector(),
		Interval:     policy.AlwaysInterval(),
		Mode:         policy.FlowMode(policy.Fixed(10)),
		Boundary:     policy.NoBoundary(),
		Collider:     policy.NoCollider(),
		Blend:        policy.BlendNone,
		Timing: Timing{
			Loop:           true,
			TimeMultiplier: 1,
		},
	}
}

// Clone returns a deep copy, curves included.
func (p Policies) Clone() Policies {
	p.Lifetime = p.Lifetime.Clone()
	p.Speed = p.Speed.Clone()
	p.Acceleration = p.Acceleration.Clone()
	p.Mode = p.Mode.Clone()
	p.Collider = p.Collider.Clone()
	p.Light = p.Light.Clone()
	return p
}

func clampMaxParticles(n int) int {
	return max(0, min(n, MaxParticlesCap))
}
