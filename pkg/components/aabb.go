package components

import "github.com/go-gl/mathgl/mgl64"

// AABB is an axis aligned bounding box.
type AABB struct {
	Min mgl64.Vec3 `yaml:"min"`
	Max mgl64.Vec3 `yaml:"max"`
}

// PointAABB returns a zero-size box located at p.
func PointAABB(p mgl64.Vec3) AABB {
	return AABB{Min: p, Max: p}
}

// SphereAABB returns the box enclosing a sphere. Negative radii are treated as positive.
func SphereAABB(center mgl64.Vec3, radius float64) AABB {
	if radius < 0 {
		radius = -radius
	}
	r := mgl64.Vec3{radius, radius, radius}
	return AABB{Min: center.Sub(r), Max: center.Add(r)}
}

// NewAABB returns a box spanning a and b regardless of component order.
func NewAABB(a, b mgl64.Vec3) AABB {
	var box AABB
	for i := 0; i < 3; i++ {
		box.Min[i] = min(a[i], b[i])
		box.Max[i] = max(a[i], b[i])
	}
	return box
}

// Extend grows the box to include p.
func (b *AABB) Extend(p mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Contains reports whether p lies inside the box (inclusive).
func (b AABB) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extents along each axis.
func (b AABB) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Offset returns the box translated by d.
func (b AABB) Offset(d mgl64.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}
