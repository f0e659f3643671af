// Package policy defines the emission policies that parameterize an emitter:
// value generators (SingleValue, Vector, Shape), the Boundary and Collider
// tests, and the Interval / SpawnMode spawning rules.
//
// Every policy is a small value type tagged with a Kind. Behavior is selected
// with a switch over the closed set of kinds. Degenerate configuration
// (reversed ranges, negative radii, non-finite numbers) is normalized at
// sampling time and never reported as an error.
package policy

import (
	"slices"
	"sort"

	"github.com/decker502/particlesim/internal/particle"
)

// Curve is a keyframe curve evaluated against emitter time.
type Curve struct {
	Keys   []particle.Keyframe    `yaml:"keys,omitempty"`
	Interp particle.Interpolation `yaml:"interp,omitempty"`
}

// NewCurve returns a curve over a sorted copy of keys.
func NewCurve(interp particle.Interpolation, keys ...particle.Keyframe) Curve {
	sorted := slices.Clone(keys)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})
	return Curve{Keys: sorted, Interp: interp}
}

// Evaluate returns the curve value at time t.
func (c Curve) Evaluate(t float64) float64 {
	return particle.EvaluateKeyframes(c.Keys, t, c.Interp)
}

// Clone returns a deep copy of the curve.
func (c Curve) Clone() Curve {
	return Curve{Keys: slices.Clone(c.Keys), Interp: c.Interp}
}
