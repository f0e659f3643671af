package policy

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind selects the spawn volume of a Shape.
type ShapeKind uint8

const (
	ShapePoint  ShapeKind = iota // always Offset
	ShapeLine                    // segment from Offset-Extents to Offset+Extents
	ShapeCircle                  // disc of Radius in the XZ plane
	ShapeSphere                  // ball of Radius
	ShapeBox                     // box of half size Extents
)

func (k ShapeKind) String() string {
	switch k {
	case ShapePoint:
		return "point"
	case ShapeLine:
		return "line"
	case ShapeCircle:
		return "circle"
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	default:
		return fmt.Sprintf("ShapeKind(%d)", uint8(k))
	}
}

// Shape generates spawn positions relative to the emission origin.
type Shape struct {
	Kind    ShapeKind  `yaml:"kind"`
	Offset  mgl64.Vec3 `yaml:"offset,omitempty"`
	Radius  float64    `yaml:"radius,omitempty"`
	Extents mgl64.Vec3 `yaml:"extents,omitempty"`
	// Surface restricts circle/sphere/box sampling to the edge or shell.
	Surface bool `yaml:"surface,omitempty"`
}

// PointShape returns a shape that always yields offset.
func PointShape(offset mgl64.Vec3) Shape {
	return Shape{Kind: ShapePoint, Offset: offset}
}

// CircleShape returns a disc (or ring when surface is set) in the XZ plane.
func CircleShape(radius float64, surface bool) Shape {
	return Shape{Kind: ShapeCircle, Radius: radius, Surface: surface}
}

// SphereShape returns a ball (or shell when surface is set).
func SphereShape(radius float64, surface bool) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius, Surface: surface}
}

// BoxShape returns a box of half size extents.
func BoxShape(extents mgl64.Vec3, surface bool) Shape {
	return Shape{Kind: ShapeBox, Extents: extents, Surface: surface}
}

// Sample returns one position.
func (s Shape) Sample(r *rand.Rand) mgl64.Vec3 {
	radius := math.Abs(finiteOr(s.Radius, 0))
	ext := absVec(s.Extents)

	switch s.Kind {
	case ShapeLine:
		return s.Offset.Add(ext.Mul(2*r.Float64() - 1))
	case ShapeCircle:
		phi := 2 * math.Pi * r.Float64()
		d := radius
		if !s.Surface {
			// sqrt 保证圆盘面积上均匀分布
			d = radius * math.Sqrt(r.Float64())
		}
		return s.Offset.Add(mgl64.Vec3{d * math.Cos(phi), 0, d * math.Sin(phi)})
	case ShapeSphere:
		d := radius
		if !s.Surface {
			d = radius * math.Cbrt(r.Float64())
		}
		return s.Offset.Add(randomUnit(r).Mul(d))
	case ShapeBox:
		p := mgl64.Vec3{
			ext[0] * (2*r.Float64() - 1),
			ext[1] * (2*r.Float64() - 1),
			ext[2] * (2*r.Float64() - 1),
		}
		if s.Surface {
			p = projectToBoxFace(r, p, ext)
		}
		return s.Offset.Add(p)
	default:
		return s.Offset
	}
}

// projectToBoxFace moves p onto a face of the box picked with probability
// proportional to the face area.
func projectToBoxFace(r *rand.Rand, p, ext mgl64.Vec3) mgl64.Vec3 {
	areas := [3]float64{ext[1] * ext[2], ext[0] * ext[2], ext[0] * ext[1]}
	total := areas[0] + areas[1] + areas[2]
	if total == 0 {
		return p
	}
	pick := r.Float64() * total
	axis := 2
	for i := 0; i < 2; i++ {
		if pick < areas[i] {
			axis = i
			break
		}
		pick -= areas[i]
	}
	if r.Float64() < 0.5 {
		p[axis] = -ext[axis]
	} else {
		p[axis] = ext[axis]
	}
	return p
}

func absVec(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Abs(finiteOr(v[0], 0)),
		math.Abs(finiteOr(v[1], 0)),
		math.Abs(finiteOr(v[2], 0)),
	}
}
