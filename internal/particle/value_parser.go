package particle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsedValue is the result of parsing an authoring value string.
//
// Exactly one shape is meaningful:
//   - Keyframes non-empty: curve value
//   - Min != Max: ranged value
//   - otherwise: fixed value (Min == Max)
type ParsedValue struct {
	Min           float64
	Max           float64
	Keyframes     []Keyframe
	Interpolation Interpolation
	Empty         bool // true when the source string was blank
}

// IsCurve reports whether the value is keyframe-driven.
func (v ParsedValue) IsCurve() bool {
	return len(v.Keyframes) > 0
}

// IsRange reports whether the value is a random range.
func (v ParsedValue) IsRange() bool {
	return !v.IsCurve() && v.Min != v.Max
}

// ParseValue parses a value string from an emitter preset.
// Supports multiple formats:
//   - Fixed value: "1500" → min=1500, max=1500, keyframes=nil
//   - Range: "[0.7 0.9]" → min=0.7, max=0.9, keyframes=nil
//   - Single bracket value: "[5]" → min=5, max=5
//   - Keyframes: "0,2 1,2 4,21" → keyframes=[{0,2}, {1,2}, {4,21}]
//   - Interpolation: ".4 Linear 10,9.999999" → leading value becomes the keyframe at time 0
//
// A range whose bounds are reversed ("[3 1]") is kept as written; samplers
// normalize it. Keyframes are returned sorted by time.
//
// Returns an error when a token cannot be parsed as a number.
func ParseValue(s string) (ParsedValue, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ParsedValue{Empty: true}, nil
	}

	// Check for range format: "[min max]" or "[value]"
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return ParsedValue{}, fmt.Errorf("unterminated range %q", s)
		}
		parts := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
		switch len(parts) {
		case 1:
			val, err := strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return ParsedValue{}, fmt.Errorf("invalid range value %q: %w", s, err)
			}
			return ParsedValue{Min: val, Max: val}, nil
		case 2:
			min, err := strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return ParsedValue{}, fmt.Errorf("invalid range min %q: %w", s, err)
			}
			max, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return ParsedValue{}, fmt.Errorf("invalid range max %q: %w", s, err)
			}
			return ParsedValue{Min: min, Max: max}, nil
		default:
			return ParsedValue{}, fmt.Errorf("range %q must have one or two values", s)
		}
	}

	// Check for interpolation keywords
	var interpolation Interpolation
	for _, keyword := range interpolationKeywords {
		if hasToken(s, string(keyword)) {
			interpolation = keyword
			s = dropToken(s, string(keyword))
			break
		}
	}

	// Keyframes format: contains comma or has interpolation keyword
	if strings.Contains(s, ",") || interpolation != "" {
		parts := strings.Fields(s)
		keyframes := make([]Keyframe, 0, len(parts))
		for i, part := range parts {
			if !strings.Contains(part, ",") {
				// 只有第一个独立数值被视为 t=0 的初始值
				val, err := strconv.ParseFloat(part, 64)
				if err != nil {
					return ParsedValue{}, fmt.Errorf("invalid keyframe value %q: %w", part, err)
				}
				if i != 0 {
					return ParsedValue{}, fmt.Errorf("bare value %q must lead the keyframe list", part)
				}
				keyframes = append(keyframes, Keyframe{Time: 0, Value: val})
				continue
			}

			pair := strings.Split(part, ",")
			if len(pair) != 2 {
				return ParsedValue{}, fmt.Errorf("invalid keyframe %q", part)
			}
			tm, err := strconv.ParseFloat(pair[0], 64)
			if err != nil {
				return ParsedValue{}, fmt.Errorf("invalid keyframe time %q: %w", part, err)
			}
			val, err := strconv.ParseFloat(pair[1], 64)
			if err != nil {
				return ParsedValue{}, fmt.Errorf("invalid keyframe value %q: %w", part, err)
			}
			keyframes = append(keyframes, Keyframe{Time: tm, Value: val})
		}

		if len(keyframes) == 0 {
			return ParsedValue{}, fmt.Errorf("interpolation %q without keyframes", interpolation)
		}
		sort.SliceStable(keyframes, func(i, j int) bool {
			return keyframes[i].Time < keyframes[j].Time
		})
		return ParsedValue{Keyframes: keyframes, Interpolation: interpolation}, nil
	}

	// Fixed value format
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return ParsedValue{Min: value, Max: value}, nil
}

// hasToken reports whether keyword appears as a whitespace separated token.
func hasToken(s, keyword string) bool {
	for _, f := range strings.Fields(s) {
		if f == keyword {
			return true
		}
	}
	return false
}

// dropToken removes every whitespace separated occurrence of keyword.
func dropToken(s, keyword string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if f != keyword {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// EvaluateKeyframes calculates the interpolated value at time t
// using the provided keyframes and interpolation mode.
//
// Parameters:
//   - keyframes: Array of keyframes (must be sorted by Time)
//   - t: Time in the same unit as the keyframe times
//   - interpolation: Interpolation mode ("Linear", "EaseIn", etc.)
//
// Before the first keyframe the first value is held; past the last keyframe
// the last value is held.
func EvaluateKeyframes(keyframes []Keyframe, t float64, interpolation Interpolation) float64 {
	if len(keyframes) == 0 {
		return 0
	}
	if len(keyframes) == 1 || t <= keyframes[0].Time {
		return keyframes[0].Value
	}

	// Find the keyframe interval containing t
	for i := 0; i < len(keyframes)-1; i++ {
		k0 := keyframes[i]
		k1 := keyframes[i+1]

		if t >= k0.Time && t <= k1.Time {
			duration := k1.Time - k0.Time
			if duration <= 0 {
				return k1.Value
			}
			ratio := interpolation.Ease((t - k0.Time) / duration)
			return k0.Value + ratio*(k1.Value-k0.Value)
		}
	}

	return keyframes[len(keyframes)-1].Value
}
