package policy

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/particlesim/pkg/components"
)

// BoundaryKind selects the volume a Boundary confines particles to.
type BoundaryKind uint8

const (
	BoundaryNone   BoundaryKind = iota // always passes
	BoundaryPlane                      // half space on the Normal side of Point
	BoundaryAABB                       // box between Min and Max
	BoundarySphere                     // ball of Radius around Point
)

func (k BoundaryKind) String() string {
	switch k {
	case BoundaryNone:
		return "none"
	case BoundaryPlane:
		return "plane"
	case BoundaryAABB:
		return "aabb"
	case BoundarySphere:
		return "sphere"
	default:
		return fmt.Sprintf("BoundaryKind(%d)", uint8(k))
	}
}

// BoundaryResponse decides what happens to a particle leaving the volume.
type BoundaryResponse uint8

const (
	// ResponseKill reports the exit so the emitter removes the particle.
	ResponseKill BoundaryResponse = iota
	// ResponseBounce clamps the particle back inside and reflects its normal
	// velocity scaled by the particle restitution.
	ResponseBounce
)

// Boundary confines particles to a volume expressed relative to the emission origin.
type Boundary struct {
	Kind     BoundaryKind     `yaml:"kind"`
	Response BoundaryResponse `yaml:"response,omitempty"`
	Point    mgl64.Vec3       `yaml:"point,omitempty"`  // plane point / sphere center
	Normal   mgl64.Vec3       `yaml:"normal,omitempty"` // plane normal, points inside
	Min      mgl64.Vec3       `yaml:"min,omitempty"`
	Max      mgl64.Vec3       `yaml:"max,omitempty"`
	Radius   float64          `yaml:"radius,omitempty"`
}

// NoBoundary returns a boundary that never rejects a particle.
func NoBoundary() Boundary {
	return Boundary{Kind: BoundaryNone}
}

// PlaneBoundary keeps particles on the normal side of the plane through point.
func PlaneBoundary(point, normal mgl64.Vec3, response BoundaryResponse) Boundary {
	return Boundary{Kind: BoundaryPlane, Point: point, Normal: normal, Response: response}
}

// AABBBoundary keeps particles inside the box spanned by a and b.
func AABBBoundary(a, b mgl64.Vec3, response BoundaryResponse) Boundary {
	return Boundary{Kind: BoundaryAABB, Min: a, Max: b, Response: response}
}

// SphereBoundary keeps particles inside the ball around center.
func SphereBoundary(center mgl64.Vec3, radius float64, response BoundaryResponse) Boundary {
	return Boundary{Kind: BoundarySphere, Point: center, Radius: radius, Response: response}
}

// PointCollision tests the particle center against the volume. It returns
// false when the particle left the volume and must be removed.
func (b Boundary) PointCollision(p *components.Particle, origin mgl64.Vec3) bool {
	return b.collide(p, origin, 0)
}

// SphereCollision tests the particle as a sphere of its collision radius.
func (b Boundary) SphereCollision(p *components.Particle, origin mgl64.Vec3) bool {
	return b.collide(p, origin, math.Abs(finiteOr(p.Radius, 0)))
}

func (b Boundary) collide(p *components.Particle, origin mgl64.Vec3, radius float64) bool {
	switch b.Kind {
	case BoundaryPlane:
		return b.collidePlane(p, origin, radius)
	case BoundaryAABB:
		return b.collideAABB(p, origin, radius)
	case BoundarySphere:
		return b.collideSphere(p, origin, radius)
	default:
		return true
	}
}

func (b Boundary) collidePlane(p *components.Particle, origin mgl64.Vec3, radius float64) bool {
	n := normalizeOr(b.Normal, mgl64.Vec3{})
	if n == (mgl64.Vec3{}) {
		// 法线为零的平面视为无边界
		return true
	}
	dist := p.Position.Sub(origin.Add(b.Point)).Dot(n)
	if dist >= radius {
		return true
	}
	if b.Response != ResponseBounce {
		return false
	}
	p.Position = p.Position.Add(n.Mul(radius - dist))
	reflect(p, n)
	return true
}

func (b Boundary) collideAABB(p *components.Particle, origin mgl64.Vec3, radius float64) bool {
	box := components.NewAABB(b.Min, b.Max).Offset(origin)
	inside := true
	for i := 0; i < 3; i++ {
		lo, hi := box.Min[i]+radius, box.Max[i]-radius
		if lo > hi {
			// 盒子比粒子还小，收缩到中心
			lo = (box.Min[i] + box.Max[i]) / 2
			hi = lo
		}
		if p.Position[i] >= lo && p.Position[i] <= hi {
			continue
		}
		inside = false
		if b.Response != ResponseBounce {
			continue
		}
		var n mgl64.Vec3
		if p.Position[i] < lo {
			p.Position[i] = lo
			n[i] = 1
		} else {
			p.Position[i] = hi
			n[i] = -1
		}
		reflect(p, n)
	}
	return inside || b.Response == ResponseBounce
}

func (b Boundary) collideSphere(p *components.Particle, origin mgl64.Vec3, radius float64) bool {
	center := origin.Add(b.Point)
	limit := math.Abs(finiteOr(b.Radius, 0)) - radius
	if limit < 0 {
		limit = 0
	}
	d := p.Position.Sub(center)
	distSq := d.Dot(d)
	if distSq <= limit*limit {
		return true
	}
	if b.Response != ResponseBounce {
		return false
	}
	dist := math.Sqrt(distSq)
	outward := d.Mul(1 / dist)
	p.Position = center.Add(outward.Mul(limit))
	reflect(p, outward.Mul(-1))
	return true
}

// reflect removes the velocity component moving against inward normal n and
// replaces it by its reflection scaled by the particle restitution.
func reflect(p *components.Particle, n mgl64.Vec3) {
	vn := p.Velocity.Dot(n)
	if vn >= 0 {
		return
	}
	e := math.Max(0, finiteOr(p.Restitution, 0))
	p.Velocity = p.Velocity.Sub(n.Mul((1 + e) * vn))
}

// Bounds returns the analytic bounding box of the volume translated by
// origin. ok is false for unbounded kinds.
func (b Boundary) Bounds(origin mgl64.Vec3) (box components.AABB, ok bool) {
	switch b.Kind {
	case BoundaryAABB:
		return components.NewAABB(b.Min, b.Max).Offset(origin), true
	case BoundarySphere:
		return components.SphereAABB(origin.Add(b.Point), finiteOr(b.Radius, 0)), true
	default:
		return components.AABB{}, false
	}
}
