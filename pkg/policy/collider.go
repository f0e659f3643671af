package policy

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/particlesim/pkg/components"
)

// ColliderKind selects how particles interact with the boundary and each other.
type ColliderKind uint8

const (
	ColliderNone   ColliderKind = iota // no collision handling
	ColliderPoint                      // particles are points
	ColliderSphere                     // particles are spheres of their radius
)

func (k ColliderKind) String() string {
	switch k {
	case ColliderNone:
		return "none"
	case ColliderPoint:
		return "point"
	case ColliderSphere:
		return "sphere"
	default:
		return fmt.Sprintf("ColliderKind(%d)", uint8(k))
	}
}

// Collider holds the per-particle collision generators.
type Collider struct {
	Kind        ColliderKind `yaml:"kind"`
	Mass        SingleValue  `yaml:"mass"`
	Radius      SingleValue  `yaml:"radius"`
	Restitution SingleValue  `yaml:"restitution"`
	// InterCollisions enables O(n²) pairwise resolution each tick.
	InterCollisions bool `yaml:"interCollisions,omitempty"`
}

// NoCollider returns a disabled collider.
func NoCollider() Collider {
	return Collider{Kind: ColliderNone}
}

// Active reports whether collisions are processed at all.
func (c Collider) Active() bool {
	return c.Kind == ColliderPoint || c.Kind == ColliderSphere
}

// CombinedRadius returns the pairwise contact threshold for two particles.
func (c Collider) CombinedRadius(p1, p2 *components.Particle) float64 {
	if c.Kind != ColliderSphere {
		return 0
	}
	return math.Abs(finiteOr(p1.Radius, 0)) + math.Abs(finiteOr(p2.Radius, 0))
}

// Clone returns a deep copy of the collider.
func (c Collider) Clone() Collider {
	c.Mass = c.Mass.Clone()
	c.Radius = c.Radius.Clone()
	c.Restitution = c.Restitution.Clone()
	return c
}

// InverseMass returns 1/m, or 0 for zero, negative or non-finite masses,
// which then behave as immovable.
func InverseMass(m float64) float64 {
	if !(m > 0) || math.IsInf(m, 0) {
		return 0
	}
	return 1 / m
}

// ImpulseCollision separates two overlapping particles and applies a
// restitution impulse when they are closing. Restitution coefficients are
// summed. It reports whether the particles were in contact.
func ImpulseCollision(p1, p2 *components.Particle, combinedRadius float64) bool {
	d := p1.Position.Sub(p2.Position)
	distSq := d.Dot(d)
	if distSq > combinedRadius*combinedRadius {
		return false
	}

	invM1 := InverseMass(p1.Mass)
	invM2 := InverseMass(p2.Mass)
	invSum := invM1 + invM2
	if invSum == 0 {
		return true
	}

	dist := math.Sqrt(distSq)
	var n mgl64.Vec3
	if dist > 0 {
		n = d.Mul(1 / dist)
	} else {
		// 完全重合时沿相对速度方向分离，否则沿 X 轴
		n = normalizeOr(p1.Velocity.Sub(p2.Velocity), mgl64.Vec3{1, 0, 0})
	}

	// minimum translation vector
	mtd := n.Mul(combinedRadius - dist)
	p1.Position = p1.Position.Add(mtd.Mul(invM1 / invSum))
	p2.Position = p2.Position.Sub(mtd.Mul(invM2 / invSum))

	closingSpeed := p1.Velocity.Sub(p2.Velocity).Dot(n)
	if closingSpeed >= 0 {
		return true
	}

	e := finiteOr(p1.Restitution, 0) + finiteOr(p2.Restitution, 0)
	impulse := n.Mul(-e * closingSpeed / invSum)
	p1.Velocity = p1.Velocity.Add(impulse.Mul(invM1))
	p2.Velocity = p2.Velocity.Sub(impulse.Mul(invM2))
	return true
}
