package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/particlesim/pkg/components"
	"github.com/decker502/particlesim/pkg/policy"
)

// IsTimeValid advances the emitter clock by dt engine seconds and reports
// whether the tick has usable simulation time.
//
// The start delay is consumed first. On the tick that crosses it only the
// overshoot is simulated. A non-looping emitter whose cycle exceeds MaxTime
// is switched to StateStopping.
func (e *Emitter) IsTimeValid(dt float64) bool {
	tm := e.policies.Timing
	localDT := finite(dt, 0) * finite(tm.TimeMultiplier, 0)
	if localDT < 0 {
		localDT = 0
	}

	delay := math.Max(0, finite(tm.StartDelay, 0))
	if e.totalTime < delay {
		e.totalTime += localDT
		if e.totalTime < delay {
			e.localDT = 0
			return false
		}
		localDT = e.totalTime - delay
	} else {
		e.totalTime += localDT
	}
	e.localDT = localDT

	if !tm.Loop && tm.MaxTime > 0 && e.totalTime > tm.MaxTime {
		e.state = StateStopping
		return false
	}
	return localDT > 0
}

// cycleTime returns the time since the start delay, wrapped by MaxTime for
// looping emitters. Curves are evaluated at this time.
func (e *Emitter) cycleTime() float64 {
	tm := e.policies.Timing
	t := math.Max(0, e.totalTime-math.Max(0, finite(tm.StartDelay, 0)))
	if tm.Loop && tm.MaxTime > 0 {
		t = math.Mod(t, tm.MaxTime)
	}
	return t
}

// origin is the emission origin in simulation coordinates.
func (e *Emitter) origin() mgl64.Vec3 {
	if e.policies.LocalSpace {
		return mgl64.Vec3{}
	}
	return e.parentPos
}

// UpdateParticles ages, collides and integrates every live particle over
// the usable time of the current tick, removing the dead ones.
func (e *Emitter) UpdateParticles() {
	pol := &e.policies
	dt := e.localDT
	origin := e.origin()

	e.maxDistSq = 0
	e.maxSpeedSq = 0
	e.boundingBox = components.PointAABB(origin)

	accel := pol.Acceleration.Sample(e.rng, e.cycleTime())
	collide := pol.Collider.Active()

	alive := e.particles[:0]
	for i := range e.particles {
		p := &e.particles[i]
		p.Age += dt
		if !e.isAlive(p) {
			continue
		}

		if collide {
			if pol.Collider.InterCollisions {
				for j := i + 1; j < len(e.particles); j++ {
					other := &e.particles[j]
					policy.ImpulseCollision(p, other, pol.Collider.CombinedRadius(p, other))
				}
			}
			var inside bool
			if pol.Collider.Kind == policy.ColliderSphere {
				inside = pol.Boundary.SphereCollision(p, origin)
			} else {
				inside = pol.Boundary.PointCollision(p, origin)
			}
			if !inside {
				continue
			}
		}

		p.Velocity = p.Velocity.Add(accel.Mul(dt))
		p.Position = p.Position.Add(p.Velocity.Mul(dt))

		d := p.Position.Sub(origin)
		e.maxDistSq = math.Max(e.maxDistSq, d.Dot(d))
		e.maxSpeedSq = math.Max(e.maxSpeedSq, p.Velocity.Dot(p.Velocity))
		if e.boundingMode == BoundingPerParticle {
			e.boundingBox.Extend(p.Position)
		}

		alive = append(alive, *p)
	}
	// 清掉尾部残留，避免旧粒子数据被误读
	clear(e.particles[len(alive):])
	e.particles = alive

	if e.boundingMode == BoundingGeneral {
		if box, ok := pol.Boundary.Bounds(origin); ok {
			e.boundingBox = box
		} else {
			e.boundingBox = components.SphereAABB(origin, math.Sqrt(e.maxDistSq))
		}
	}
}

func (e *Emitter) isAlive(p *components.Particle) bool {
	lt := e.policies.Lifetime
	switch lt.Kind {
	case policy.SingleNone:
		return true
	case policy.SingleFixed:
		return p.Age < lt.Value
	default:
		return p.Age < p.MaxLifetime
	}
}

// UpdateSpawn creates the particles authorized by the interval and spawn
// mode for the current tick, never exceeding MaxParticles.
func (e *Emitter) UpdateSpawn() {
	pol := &e.policies
	if !pol.Interval.IsActive(e.localDT) {
		return
	}

	t := e.cycleTime()
	n := pol.Mode.CountNewParticles(e.rng, e.localDT, t, len(e.particles))
	toAdd := min(n, pol.MaxParticles-len(e.particles))
	if toAdd <= 0 {
		return
	}

	e.reserve(len(e.particles) + toAdd)
	for i := 0; i < toAdd; i++ {
		e.particles = append(e.particles, e.spawnParticle(t))
	}
}

// reserve grows the pool capacity in steps of a tenth of MaxParticles,
// never past MaxParticles once needed is covered.
func (e *Emitter) reserve(needed int) {
	if needed <= cap(e.particles) {
		return
	}
	step := max(e.policies.MaxParticles/10, 1)
	newCap := cap(e.particles)
	for newCap < needed {
		newCap += step
	}
	newCap = max(needed, min(newCap, e.policies.MaxParticles))
	grown := make([]components.Particle, len(e.particles), newCap)
	copy(grown, e.particles)
	e.particles = grown
}

func (e *Emitter) spawnParticle(t float64) components.Particle {
	pol := &e.policies
	r := e.rng

	var p components.Particle
	switch pol.Lifetime.Kind {
	case policy.SingleNone:
	case policy.SingleFixed:
		p.MaxLifetime = pol.Lifetime.Value
	default:
		p.MaxLifetime = pol.Lifetime.Sample(r, t)
	}

	p.Position = pol.Position.Sample(r)
	if !pol.LocalSpace {
		p.Position = p.Position.Add(e.parentPos)
	}
	p.Velocity = pol.Speed.Sample(r, t)
	if pol.InheritSpeed {
		p.Velocity = p.Velocity.Add(e.parentVel)
	}

	p.Mass = 1
	if !pol.Collider.Mass.IsNone() {
		p.Mass = pol.Collider.Mass.Sample(r, t)
	}
	p.Radius = math.Abs(finite(pol.Collider.Radius.Sample(r, t), 0))
	p.Restitution = pol.Collider.Restitution.Sample(r, t)
	p.Light = pol.Light.Sample(r, t)
	return p
}

func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
