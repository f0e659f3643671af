package policy

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// SpawnModeKind selects how many particles an eligible tick creates.
type SpawnModeKind uint8

const (
	ModeNone     SpawnModeKind = iota // never spawns
	ModeFlow                          // Rate particles per second with fractional carry
	ModeBurst                         // Count particles every Period seconds (once when Period <= 0)
	ModeMaintain                      // tops the pool up to Count live particles
)

func (k SpawnModeKind) String() string {
	switch k {
	case ModeNone:
		return "none"
	case ModeFlow:
		return "flow"
	case ModeBurst:
		return "burst"
	case ModeMaintain:
		return "maintain"
	default:
		return fmt.Sprintf("SpawnModeKind(%d)", uint8(k))
	}
}

// SpawnMode answers "how many particles to create this eligible tick".
type SpawnMode struct {
	Kind   SpawnModeKind `yaml:"kind"`
	Rate   SingleValue   `yaml:"rate,omitempty"`   // flow: particles per second
	Count  SingleValue   `yaml:"count,omitempty"`  // burst size / maintained population
	Period float64       `yaml:"period,omitempty"` // burst: seconds between bursts

	// Sub-state
	Carry float64 `yaml:"carry,omitempty"`
	Timer float64 `yaml:"timer,omitempty"`
	Fired bool    `yaml:"fired,omitempty"`
}

// NoSpawn returns a mode that never spawns.
func NoSpawn() SpawnMode {
	return SpawnMode{Kind: ModeNone}
}

// FlowMode spawns rate particles per second.
func FlowMode(rate SingleValue) SpawnMode {
	return SpawnMode{Kind: ModeFlow, Rate: rate}
}

// BurstMode spawns count particles every period seconds. A non-positive
// period produces a single burst.
func BurstMode(count SingleValue, period float64) SpawnMode {
	return SpawnMode{Kind: ModeBurst, Count: count, Period: period}
}

// MaintainMode keeps count particles alive.
func MaintainMode(count SingleValue) SpawnMode {
	return SpawnMode{Kind: ModeMaintain, Count: count}
}

// CountNewParticles returns the number of particles to spawn for a tick of
// dt seconds. t is the emitter cycle time and alive the current pool size.
// The result is never negative.
func (m *SpawnMode) CountNewParticles(r *rand.Rand, dt, t float64, alive int) int {
	dt = math.Max(0, finiteOr(dt, 0))

	switch m.Kind {
	case ModeFlow:
		rate := finiteOr(m.Rate.Sample(r, t), 0)
		if rate <= 0 {
			return 0
		}
		m.Carry += rate * dt
		n := countFloor(m.Carry)
		m.Carry = math.Max(0, m.Carry-float64(n))
		return n
	case ModeBurst:
		period := finiteOr(m.Period, 0)
		if period <= 0 {
			if m.Fired {
				return 0
			}
			m.Fired = true
			return countFloor(m.Count.Sample(r, t))
		}
		if m.Timer > 0 {
			m.Timer -= dt
			if m.Timer > 0 {
				return 0
			}
		}
		// 每个 tick 最多触发一次爆发
		m.Timer = math.Mod(m.Timer, period) + period
		return countFloor(m.Count.Sample(r, t))
	case ModeMaintain:
		return max(0, countFloor(m.Count.Sample(r, t))-alive)
	default:
		return 0
	}
}

// Reset clears the accumulated carry and burst timers.
func (m *SpawnMode) Reset() {
	m.Carry = 0
	m.Timer = 0
	m.Fired = false
}

// Clone returns a deep copy of the mode.
func (m SpawnMode) Clone() SpawnMode {
	m.Rate = m.Rate.Clone()
	m.Count = m.Count.Clone()
	return m
}
