package policy

import (
	"fmt"
	"math/rand/v2"
)

// SingleValueKind selects the generation strategy of a SingleValue.
type SingleValueKind uint8

const (
	SingleNone  SingleValueKind = iota // always 0
	SingleFixed                        // constant Value
	SingleRange                        // uniform random in [Min, Max]
	SingleCurve                        // keyframe curve over emitter time
)

func (k SingleValueKind) String() string {
	switch k {
	case SingleNone:
		return "none"
	case SingleFixed:
		return "value"
	case SingleRange:
		return "range"
	case SingleCurve:
		return "curve"
	default:
		return fmt.Sprintf("SingleValueKind(%d)", uint8(k))
	}
}

// SingleValue generates one scalar per spawn call.
type SingleValue struct {
	Kind  SingleValueKind `yaml:"kind"`
	Value float64         `yaml:"value,omitempty"`
	Min   float64         `yaml:"min,omitempty"`
	Max   float64         `yaml:"max,omitempty"`
	Curve Curve           `yaml:"curve,omitempty"`
}

// NoValue returns a generator that always yields 0.
func NoValue() SingleValue {
	return SingleValue{Kind: SingleNone}
}

// Fixed returns a generator that always yields v.
func Fixed(v float64) SingleValue {
	return SingleValue{Kind: SingleFixed, Value: v}
}

// Range returns a generator yielding uniform values between min and max.
func Range(min, max float64) SingleValue {
	return SingleValue{Kind: SingleRange, Min: min, Max: max}
}

// CurveValue returns a generator that evaluates c at the sampling time.
func CurveValue(c Curve) SingleValue {
	return SingleValue{Kind: SingleCurve, Curve: c}
}

// Sample returns one value. t is the emitter cycle time in seconds and is
// only consulted by curve generators.
func (s SingleValue) Sample(r *rand.Rand, t float64) float64 {
	switch s.Kind {
	case SingleFixed:
		return s.Value
	case SingleRange:
		return randomInRange(r, s.Min, s.Max)
	case SingleCurve:
		return s.Curve.Evaluate(t)
	default:
		return 0
	}
}

// IsNone reports whether the generator is the NONE variant.
func (s SingleValue) IsNone() bool {
	return s.Kind == SingleNone
}

// Clone returns a deep copy of the generator.
func (s SingleValue) Clone() SingleValue {
	s.Curve = s.Curve.Clone()
	return s
}
