// Package particle provides the keyframe curve primitives and the authoring
// string grammar used by emitter presets.
//
// Preset files describe scalar values as short strings, which may contain:
//   - Fixed values: "1500"
//   - Ranges: "[0.7 0.9]" (random value between min and max)
//   - Keyframes: "0,2 1,2 4,21" (time,value pairs)
//   - Interpolation keywords: "Linear", "FastInOutWeak", etc.
//
// The policy package turns parsed values into generators.
package particle

import "github.com/tanema/gween/ease"

// Keyframe represents a single keyframe in an animation curve.
type Keyframe struct {
	Time  float64 `yaml:"time"`  // Normalized time (0-1) or absolute time in seconds
	Value float64 `yaml:"value"` // Value at this keyframe
}

// Interpolation selects the easing applied between two keyframes.
type Interpolation string

const (
	InterpLinear        Interpolation = "Linear"
	InterpEaseIn        Interpolation = "EaseIn"
	InterpEaseOut       Interpolation = "EaseOut"
	InterpEaseInOut     Interpolation = "EaseInOut"
	InterpFastInOutWeak Interpolation = "FastInOutWeak"
	InterpBounce        Interpolation = "Bounce"
)

// interpolationKeywords lists every keyword recognized by ParseValue.
var interpolationKeywords = []Interpolation{
	InterpLinear,
	InterpEaseIn,
	InterpEaseOut,
	InterpEaseInOut,
	InterpFastInOutWeak,
	InterpBounce,
}

// tween returns the gween easing function for the interpolation mode.
// Unknown modes fall back to linear.
func (i Interpolation) tween() ease.TweenFunc {
	switch i {
	case InterpEaseIn:
		return ease.InQuad
	case InterpEaseOut:
		return ease.OutQuad
	case InterpEaseInOut:
		return ease.InOutCubic
	case InterpFastInOutWeak:
		return ease.InOutSine
	case InterpBounce:
		return ease.OutBounce
	default:
		return ease.Linear
	}
}

// Ease maps a segment ratio in [0, 1] through the interpolation curve.
func (i Interpolation) Ease(ratio float64) float64 {
	if i == InterpLinear || i == "" {
		return ratio
	}
	// gween 的缓动函数签名为 (t, b, c, d)，这里固定 b=0, c=1, d=1
	return float64(i.tween()(float32(ratio), 0, 1, 1))
}
