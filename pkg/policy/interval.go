package policy

import (
	"fmt"
	"math"
)

// IntervalKind selects when spawning is allowed.
type IntervalKind uint8

const (
	IntervalNone     IntervalKind = iota // always active
	IntervalPeriodic                     // Active seconds on, Sleep seconds off, repeating
	IntervalOnce                         // a single window of Active seconds after Offset
)

func (k IntervalKind) String() string {
	switch k {
	case IntervalNone:
		return "none"
	case IntervalPeriodic:
		return "periodic"
	case IntervalOnce:
		return "once"
	default:
		return fmt.Sprintf("IntervalKind(%d)", uint8(k))
	}
}

// Interval answers "is spawning allowed this tick". It owns its own time
// offset, advanced by every IsActive call and cleared by Reset.
type Interval struct {
	Kind   IntervalKind `yaml:"kind"`
	Active float64      `yaml:"active,omitempty"` // seconds the window stays open
	Sleep  float64      `yaml:"sleep,omitempty"`  // seconds closed between periodic windows
	Offset float64      `yaml:"offset,omitempty"` // delay before the once window opens

	// Sub-state
	Elapsed float64 `yaml:"elapsed,omitempty"`
	Fired   bool    `yaml:"fired,omitempty"`
}

// AlwaysInterval returns an interval that never blocks spawning.
func AlwaysInterval() Interval {
	return Interval{Kind: IntervalNone}
}

// PeriodicInterval returns an on/off duty cycle starting in the on phase.
func PeriodicInterval(active, sleep float64) Interval {
	return Interval{Kind: IntervalPeriodic, Active: active, Sleep: sleep}
}

// OnceInterval returns a single window opening after offset seconds.
// A non-positive active duration opens the window for exactly one tick.
func OnceInterval(offset, active float64) Interval {
	return Interval{Kind: IntervalOnce, Offset: offset, Active: active}
}

// IsActive advances the interval by dt and reports whether spawning is
// allowed for the tick that started at the previous offset.
func (iv *Interval) IsActive(dt float64) bool {
	t := iv.Elapsed
	iv.Elapsed += finiteOr(dt, 0)

	switch iv.Kind {
	case IntervalPeriodic:
		on := math.Max(0, finiteOr(iv.Active, 0))
		off := math.Max(0, finiteOr(iv.Sleep, 0))
		if on == 0 {
			return false
		}
		if off == 0 {
			return true
		}
		return math.Mod(t, on+off) < on
	case IntervalOnce:
		offset := math.Max(0, finiteOr(iv.Offset, 0))
		if t < offset {
			return false
		}
		active := finiteOr(iv.Active, 0)
		if active <= 0 {
			if iv.Fired {
				return false
			}
			iv.Fired = true
			return true
		}
		return t < offset+active
	default:
		return true
	}
}

// Reset clears the time offset.
func (iv *Interval) Reset() {
	iv.Elapsed = 0
	iv.Fired = false
}
