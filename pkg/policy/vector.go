package policy

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

// VectorKind selects the generation strategy of a Vector.
type VectorKind uint8

const (
	VectorNone  VectorKind = iota // zero vector
	VectorFixed                   // constant Value
	VectorRange                   // per-axis uniform random in [Min, Max]
	VectorCone                    // random direction in a cone, scaled by Speed
	VectorCurve                   // one keyframe curve per axis
)

func (k VectorKind) String() string {
	switch k {
	case VectorNone:
		return "none"
	case VectorFixed:
		return "value"
	case VectorRange:
		return "range"
	case VectorCone:
		return "cone"
	case VectorCurve:
		return "curve"
	default:
		return fmt.Sprintf("VectorKind(%d)", uint8(k))
	}
}

// Vector generates one 3D vector per spawn call.
type Vector struct {
	Kind  VectorKind `yaml:"kind"`
	Value mgl64.Vec3 `yaml:"value,omitempty"`
	Min   mgl64.Vec3 `yaml:"min,omitempty"`
	Max   mgl64.Vec3 `yaml:"max,omitempty"`

	// Cone parameters
	Direction mgl64.Vec3  `yaml:"direction,omitempty"`
	Angle     float64     `yaml:"angle,omitempty"` // half angle in radians
	Speed     SingleValue `yaml:"speed,omitempty"`

	// Curve parameters
	X Curve `yaml:"x,omitempty"`
	Y Curve `yaml:"y,omitempty"`
	Z Curve `yaml:"z,omitempty"`
}

// ZeroVector returns a generator that always yields the zero vector.
func ZeroVector() Vector {
	return Vector{Kind: VectorNone}
}

// FixedVector returns a generator that always yields v.
func FixedVector(v mgl64.Vec3) Vector {
	return Vector{Kind: VectorFixed, Value: v}
}

// RangeVector returns a generator yielding per-axis uniform values.
func RangeVector(min, max mgl64.Vec3) Vector {
	return Vector{Kind: VectorRange, Min: min, Max: max}
}

// ConeVector returns a generator yielding directions within angle radians of
// direction, scaled by a sampled speed.
func ConeVector(direction mgl64.Vec3, angle float64, speed SingleValue) Vector {
	return Vector{Kind: VectorCone, Direction: direction, Angle: angle, Speed: speed}
}

// CurveVector returns a generator evaluating one curve per axis.
func CurveVector(x, y, z Curve) Vector {
	return Vector{Kind: VectorCurve, X: x, Y: y, Z: z}
}

// Sample returns one vector. t is the emitter cycle time in seconds.
func (v Vector) Sample(r *rand.Rand, t float64) mgl64.Vec3 {
	switch v.Kind {
	case VectorFixed:
		return v.Value
	case VectorRange:
		return mgl64.Vec3{
			randomInRange(r, v.Min[0], v.Max[0]),
			randomInRange(r, v.Min[1], v.Max[1]),
			randomInRange(r, v.Min[2], v.Max[2]),
		}
	case VectorCone:
		return sampleCone(r, v.Direction, v.Angle).Mul(v.Speed.Sample(r, t))
	case VectorCurve:
		return mgl64.Vec3{v.X.Evaluate(t), v.Y.Evaluate(t), v.Z.Evaluate(t)}
	default:
		return mgl64.Vec3{}
	}
}

// IsNone reports whether the generator is the NONE variant.
func (v Vector) IsNone() bool {
	return v.Kind == VectorNone
}

// Clone returns a deep copy of the generator.
func (v Vector) Clone() Vector {
	v.Speed = v.Speed.Clone()
	v.X = v.X.Clone()
	v.Y = v.Y.Clone()
	v.Z = v.Z.Clone()
	return v
}

// sampleCone returns a unit vector uniformly distributed over the spherical
// cap of half angle around axis. A zero axis defaults to +Y.
func sampleCone(r *rand.Rand, axis mgl64.Vec3, angle float64) mgl64.Vec3 {
	axis = normalizeOr(axis, mgl64.Vec3{0, 1, 0})
	angle = math.Abs(finiteOr(angle, 0))
	if angle > math.Pi {
		angle = math.Pi
	}

	cosTheta := 1 - r.Float64()*(1-math.Cos(angle))
	sinTheta := math.Sqrt(max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * r.Float64()

	u, w := orthonormalBasis(axis)
	return axis.Mul(cosTheta).
		Add(u.Mul(sinTheta * math.Cos(phi))).
		Add(w.Mul(sinTheta * math.Sin(phi)))
}

// orthonormalBasis returns two unit vectors perpendicular to n and each other.
func orthonormalBasis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	helper := mgl64.Vec3{1, 0, 0}
	if math.Abs(n[0]) > 0.9 {
		helper = mgl64.Vec3{0, 1, 0}
	}
	u := n.Cross(helper).Normalize()
	return u, n.Cross(u)
}

// normalizeOr returns v normalized, or fallback when v has no usable length.
func normalizeOr(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1 / l)
}

// randomUnit returns a uniformly distributed unit vector.
func randomUnit(r *rand.Rand) mgl64.Vec3 {
	z := 2*r.Float64() - 1
	phi := 2 * math.Pi * r.Float64()
	s := math.Sqrt(max(0, 1-z*z))
	return mgl64.Vec3{s * math.Cos(phi), s * math.Sin(phi), z}
}
