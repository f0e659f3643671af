package components

import "github.com/go-gl/mathgl/mgl64"

// Particle represents a single particle instance in an emitter pool.
// It stores all the runtime state for an individual particle: kinematics,
// lifecycle and the attributes sampled once at spawn.
//
// Particles are created and owned by systems.Emitter, which updates them each
// tick and removes them when their lifetime expires or a boundary rejects them.
//
// This is a pure data component - it contains no methods.
type Particle struct {
	Position mgl64.Vec3 `yaml:"position"` // World or emitter-local coordinates
	Velocity mgl64.Vec3 `yaml:"velocity"` // Units per second

	// Lifecycle (生命周期, 秒)
	Age         float64 `yaml:"age"`         // Time this particle has been alive
	MaxLifetime float64 `yaml:"maxLifetime"` // Lifetime sampled at spawn

	// Collision properties
	Mass        float64 `yaml:"mass"`
	Radius      float64 `yaml:"radius"`
	Restitution float64 `yaml:"restitution"`

	// Light is consumed only by the renderer.
	Light ParticleLight `yaml:"light"`
}

// ParticleLight holds per-particle light attributes sampled at spawn.
type ParticleLight struct {
	Color     mgl64.Vec3 `yaml:"color"`     // Linear RGB
	Intensity float64    `yaml:"intensity"` // Brightness multiplier
	Specular  float64    `yaml:"specular"`  // Specular contribution
}
