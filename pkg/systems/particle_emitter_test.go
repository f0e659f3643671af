package systems

import (
	"math"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/particlesim/pkg/components"
	"github.com/decker502/particlesim/pkg/policy"
)

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %f, want %f", name, got, want)
	}
}

// quietPolicies returns policies that spawn nothing and never expire particles,
// for tests that seed the pool by hand.
func quietPolicies() Policies {
	p := DefaultPolicies()
	p.Lifetime = policy.NoValue()
	p.Mode = policy.NoSpawn()
	return p
}

func TestEmitterStateMachine(t *testing.T) {
	e := NewEmitter(DefaultPolicies(), 1)
	if e.State() != StateStop {
		t.Fatalf("new emitter state = %v, want STOP", e.State())
	}

	e.Pause()
	e.Resume()
	if e.State() != StateStop {
		t.Errorf("Pause/Resume on a stopped emitter changed state to %v", e.State())
	}

	e.Play()
	e.Update(0.5)
	if e.State() != StatePlay || e.ParticleCount() == 0 {
		t.Fatalf("after Play+Update: state=%v count=%d", e.State(), e.ParticleCount())
	}

	e.Pause()
	count := e.ParticleCount()
	total := e.TotalTime()
	if got := e.Update(0.5); got != count || e.TotalTime() != total {
		t.Errorf("paused Update changed count %d->%d or time %f->%f", count, got, total, e.TotalTime())
	}

	e.Resume()
	if e.State() != StatePlay {
		t.Errorf("Resume state = %v, want PLAY", e.State())
	}

	e.Restart()
	if got := e.Update(0.5); got != 0 {
		t.Errorf("Update after Restart = %d, want 0", got)
	}
	if e.State() != StatePlay || e.TotalTime() != 0 {
		t.Errorf("after restart state=%v total=%f", e.State(), e.TotalTime())
	}

	e.Update(0.5)
	e.Stop()
	if e.State() != StateStopping {
		t.Fatalf("Stop state = %v, want STOPING", e.State())
	}
	if got := e.Update(0.5); got != 0 {
		t.Errorf("Update after Stop = %d, want 0", got)
	}
	if e.State() != StateStop {
		t.Errorf("state after stopping Update = %v, want STOP", e.State())
	}
}

func TestEmitterFlowStopsAfterMaxTime(t *testing.T) {
	p := DefaultPolicies()
	p.MaxParticles = 10
	p.Lifetime = policy.Fixed(100)
	p.Mode = policy.FlowMode(policy.Fixed(5))
	p.Timing = Timing{MaxTime: 1, Loop: false, TimeMultiplier: 1}

	e := NewEmitter(p, 1)
	e.Play()

	// spawns at t=0.2, 0.4, 0.6, 0.8, 1.0
	for i := 1; i <= 5; i++ {
		if got := e.Update(0.2); got != i {
			t.Fatalf("tick %d: count = %d, want %d", i, got, i)
		}
	}

	if got := e.Update(0.2); got != 5 {
		t.Errorf("tick past max time: count = %d, want 5", got)
	}
	if e.State() != StateStopping {
		t.Fatalf("state past max time = %v, want STOPING", e.State())
	}

	if got := e.Update(0.2); got != 0 {
		t.Errorf("count after stop = %d, want 0", got)
	}
	if e.State() != StateStop {
		t.Errorf("final state = %v, want STOP", e.State())
	}
}

func TestEmitterStartDelayUsesOvershoot(t *testing.T) {
	p := DefaultPolicies()
	p.Lifetime = policy.Fixed(10)
	p.Mode = policy.FlowMode(policy.Fixed(10))
	p.Timing.StartDelay = 1

	e := NewEmitter(p, 1)
	e.Play()

	for i := 1; i <= 3; i++ {
		if got := e.Update(0.3); got != 0 {
			t.Fatalf("tick %d before delay: count = %d, want 0", i, got)
		}
		if e.localDT != 0 {
			t.Errorf("tick %d before delay: localDT = %f, want 0", i, e.localDT)
		}
	}

	// total reaches 1.2, only 0.2s is usable: 10/s * 0.2s = 2 particles
	if got := e.Update(0.3); got != 2 {
		t.Errorf("crossing tick count = %d, want 2", got)
	}
	assertNear(t, "localDT", e.localDT, 0.2)
	assertNear(t, "cycleTime", e.cycleTime(), 0.2)

	if got := e.Update(0.3); got != 5 {
		t.Errorf("count after full tick = %d, want 5", got)
	}
}

func TestEmitterStopIncludesStartDelay(t *testing.T) {
	p := DefaultPolicies()
	p.Lifetime = policy.Fixed(10)
	p.Mode = policy.FlowMode(policy.Fixed(10))
	p.Timing = Timing{StartDelay: 1, MaxTime: 1, Loop: false, TimeMultiplier: 1}

	e := NewEmitter(p, 1)
	e.Play()

	// total reaches 1.0 on tick 4: the delay is consumed with no usable time
	for i := 1; i <= 4; i++ {
		if got := e.Update(0.25); got != 0 {
			t.Fatalf("tick %d: count = %d, want 0", i, got)
		}
		if e.State() != StatePlay {
			t.Fatalf("tick %d: state = %v, want PLAY", i, e.State())
		}
	}

	if got := e.Update(0.25); got != 0 {
		t.Errorf("tick past max time: count = %d, want 0", got)
	}
	if e.State() != StateStopping {
		t.Fatalf("state at total=1.25 = %v, want STOPING", e.State())
	}

	e.Update(0.25)
	if e.State() != StateStop {
		t.Errorf("final state = %v, want STOP", e.State())
	}
}

func TestEmitterInterCollisionsSeparate(t *testing.T) {
	const radius = 0.5
	p := quietPolicies()
	p.Collider = policy.Collider{
		Kind:            policy.ColliderSphere,
		Mass:            policy.Fixed(1),
		Radius:          policy.Fixed(radius),
		Restitution:     policy.Fixed(0.5),
		InterCollisions: true,
	}
	e := NewEmitter(p, 1)
	e.particles = []components.Particle{
		{Velocity: mgl64.Vec3{1, 0, 0}, Mass: 1, Radius: radius, Restitution: 0.5},
		{Velocity: mgl64.Vec3{-1, 0, 0}, Mass: 1, Radius: radius, Restitution: 0.5},
	}
	e.Play()

	prev := 0.0
	for i := 0; i < 20; i++ {
		if got := e.Update(0.1); got != 2 {
			t.Fatalf("tick %d: count = %d, want 2", i, got)
		}
		a, b := e.particles[0], e.particles[1]
		sep := a.Position.Sub(b.Position).Len()
		if sep < 2*radius-1e-9 {
			t.Fatalf("tick %d: separation %f < %f", i, sep, 2*radius)
		}
		if sep < prev-1e-9 {
			t.Fatalf("tick %d: separation decreased %f -> %f", i, prev, sep)
		}
		prev = sep
	}
}

func TestEmitterBoundaryKillsOutsideParticles(t *testing.T) {
	p := quietPolicies()
	p.Collider = policy.Collider{Kind: policy.ColliderPoint}
	p.Boundary = policy.AABBBoundary(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}, policy.ResponseKill)

	e := NewEmitter(p, 1)
	e.particles = []components.Particle{
		{Position: mgl64.Vec3{5, 0, 0}},
		{Position: mgl64.Vec3{0.95, 0, 0}, Velocity: mgl64.Vec3{1, 0, 0}},
		{Position: mgl64.Vec3{0, 0, 0}},
	}
	e.Play()

	if got := e.Update(0.1); got != 2 {
		t.Fatalf("first tick count = %d, want 2", got)
	}
	if got := e.Update(0.1); got != 1 {
		t.Fatalf("second tick count = %d, want 1", got)
	}
	if e.particles[0].Position != (mgl64.Vec3{}) {
		t.Errorf("surviving particle = %v, want origin", e.particles[0].Position)
	}
}

func TestEmitterBoundaryIgnoredWithoutCollider(t *testing.T) {
	p := quietPolicies()
	p.Boundary = policy.AABBBoundary(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}, policy.ResponseKill)

	e := NewEmitter(p, 1)
	e.particles = []components.Particle{{Position: mgl64.Vec3{5, 0, 0}}}
	e.Play()
	if got := e.Update(0.1); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
}

func TestEmitterLifetime(t *testing.T) {
	tests := []struct {
		name     string
		lifetime policy.SingleValue
		want     []int
	}{
		{"fixed", policy.Fixed(0.25), []int{1, 1, 1, 0}},
		{"range", policy.Range(0.25, 0.25), []int{1, 1, 1, 0}},
		{"none", policy.NoValue(), []int{1, 1, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicies()
			p.Lifetime = tt.lifetime
			p.Mode = policy.BurstMode(policy.Fixed(1), 0)
			e := NewEmitter(p, 1)
			e.Play()
			for i, want := range tt.want {
				if got := e.Update(0.1); got != want {
					t.Errorf("tick %d: count = %d, want %d", i, got, want)
				}
			}
		})
	}
}

func TestEmitterCountNeverExceedsMax(t *testing.T) {
	p := DefaultPolicies()
	p.MaxParticles = 7
	p.Lifetime = policy.Fixed(100)
	p.Mode = policy.FlowMode(policy.Fixed(1000))

	e := NewEmitter(p, 1)
	e.Play()
	for i := 0; i < 10; i++ {
		got := e.Update(0.1)
		if got < 0 || got > 7 {
			t.Fatalf("tick %d: count = %d, want within [0, 7]", i, got)
		}
	}
	if e.ParticleCount() != 7 {
		t.Errorf("count = %d, want 7", e.ParticleCount())
	}
}

func TestEmitterMaxParticlesClamp(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{1000, 1000},
		{1_000_000, MaxParticlesCap},
	}
	for _, tt := range tests {
		p := DefaultPolicies()
		p.MaxParticles = tt.in
		e := NewEmitter(p, 1)
		if got := e.Policies().MaxParticles; got != tt.want {
			t.Errorf("MaxParticles(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}

	p := DefaultPolicies()
	p.MaxParticles = 0
	p.Mode = policy.FlowMode(policy.Fixed(1000))
	e := NewEmitter(p, 1)
	e.Play()
	for i := 0; i < 5; i++ {
		if got := e.Update(0.1); got != 0 {
			t.Fatalf("max_particles=0 spawned %d particles", got)
		}
	}
}

func TestEmitterPoolGrowsInSteps(t *testing.T) {
	p := DefaultPolicies()
	p.MaxParticles = 100
	p.Lifetime = policy.Fixed(100)
	p.Mode = policy.FlowMode(policy.Fixed(15))

	e := NewEmitter(p, 1)
	e.Play()

	wantCaps := []int{20, 30, 50, 60}
	for i, want := range wantCaps {
		e.Update(1)
		if e.Capacity() != want {
			t.Errorf("tick %d: capacity = %d, want %d (count %d)", i, e.Capacity(), want, e.ParticleCount())
		}
	}

	e.Reset()
	if e.Capacity() != 0 {
		t.Errorf("capacity after Reset = %d, want 0", e.Capacity())
	}
}

func TestEmitterPoolCapacityCappedAtMax(t *testing.T) {
	p := DefaultPolicies()
	p.MaxParticles = 25
	p.Lifetime = policy.Fixed(100)
	p.Mode = policy.BurstMode(policy.Fixed(25), 1)

	e := NewEmitter(p, 1)
	e.Play()

	if got := e.Update(0.1); got != 25 {
		t.Fatalf("count = %d, want 25", got)
	}
	if e.Capacity() != 25 {
		t.Errorf("capacity = %d, want 25", e.Capacity())
	}
}

func TestEmitterResetIdempotence(t *testing.T) {
	p := DefaultPolicies()
	p.Timing.StartDelay = 0.5
	e := NewEmitter(p, 1)
	e.Play()
	for i := 0; i < 10; i++ {
		e.Update(0.2)
	}

	e.Reset()
	if got := e.Update(0); got != 0 {
		t.Errorf("count after Reset+Update(0) = %d, want 0", got)
	}
	if e.TotalTime() != 0 {
		t.Errorf("total time after Reset+Update(0) = %f, want 0", e.TotalTime())
	}
	if st := e.Stats(); st.MaxDistSq != 0 || st.MaxSpeedSq != 0 || st.BoundingBox != (components.AABB{}) {
		t.Errorf("stats after Reset = %+v", st)
	}
}

func TestEmitterParentTransform(t *testing.T) {
	tests := []struct {
		name      string
		local     bool
		inherit   bool
		wantPos   mgl64.Vec3
		wantSpeed mgl64.Vec3
	}{
		{"world space", false, false, mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 0, 1}},
		{"world inherit", false, true, mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 2, 1}},
		{"local space", true, false, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicies()
			p.Mode = policy.BurstMode(policy.Fixed(1), 0)
			p.Speed = policy.FixedVector(mgl64.Vec3{0, 0, 1})
			p.LocalSpace = tt.local
			p.InheritSpeed = tt.inherit

			e := NewEmitter(p, 1)
			e.SetParent(mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 2, 0})
			e.Play()
			e.Update(0.1)

			got := e.Particles()
			if len(got) != 1 {
				t.Fatalf("count = %d, want 1", len(got))
			}
			if got[0].Position != tt.wantPos {
				t.Errorf("position = %v, want %v", got[0].Position, tt.wantPos)
			}
			if got[0].Velocity != tt.wantSpeed {
				t.Errorf("velocity = %v, want %v", got[0].Velocity, tt.wantSpeed)
			}
		})
	}
}

func TestEmitterBoundingBox(t *testing.T) {
	seed := []components.Particle{
		{Position: mgl64.Vec3{2, 0, 0}},
		{Position: mgl64.Vec3{0, -1, 0}},
	}

	t.Run("general from distance", func(t *testing.T) {
		e := NewEmitter(quietPolicies(), 1)
		e.particles = append([]components.Particle(nil), seed...)
		e.Play()
		e.Update(0.1)
		box := e.BoundingBox()
		if box.Min != (mgl64.Vec3{-2, -2, -2}) || box.Max != (mgl64.Vec3{2, 2, 2}) {
			t.Errorf("bounding box = %+v", box)
		}
		assertNear(t, "maxDistSq", e.Stats().MaxDistSq, 4)
	})

	t.Run("general from boundary", func(t *testing.T) {
		p := quietPolicies()
		p.Boundary = policy.SphereBoundary(mgl64.Vec3{}, 3, policy.ResponseKill)
		e := NewEmitter(p, 1)
		e.particles = append([]components.Particle(nil), seed...)
		e.Play()
		e.Update(0.1)
		box := e.BoundingBox()
		if box.Min != (mgl64.Vec3{-3, -3, -3}) || box.Max != (mgl64.Vec3{3, 3, 3}) {
			t.Errorf("bounding box = %+v", box)
		}
	})

	t.Run("per particle", func(t *testing.T) {
		e := NewEmitter(quietPolicies(), 1)
		e.SetBoundingMode(BoundingPerParticle)
		e.particles = append([]components.Particle(nil), seed...)
		e.Play()
		e.Update(0.1)
		box := e.BoundingBox()
		if box.Min != (mgl64.Vec3{0, -1, 0}) || box.Max != (mgl64.Vec3{2, 0, 0}) {
			t.Errorf("bounding box = %+v", box)
		}
	})
}

func TestEmitterLoopingCycleTime(t *testing.T) {
	p := DefaultPolicies()
	p.Timing = Timing{MaxTime: 1, Loop: true, TimeMultiplier: 2}
	e := NewEmitter(p, 1)
	e.Play()
	e.Update(0.75)

	if e.State() != StatePlay {
		t.Fatalf("looping emitter state = %v, want PLAY", e.State())
	}
	assertNear(t, "totalTime", e.TotalTime(), 1.5)
	assertNear(t, "cycleTime", e.cycleTime(), 0.5)
}

func TestEmitterSnapshotRoundTrip(t *testing.T) {
	p := DefaultPolicies()
	p.MaxParticles = 200
	p.Lifetime = policy.Range(0.5, 2)
	p.Position = policy.SphereShape(1, false)
	p.Speed = policy.ConeVector(mgl64.Vec3{0, 1, 0}, 0.5, policy.Range(1, 3))
	p.Acceleration = policy.FixedVector(mgl64.Vec3{0, -9.8, 0})
	p.Interval = policy.PeriodicInterval(0.3, 0.1)
	p.Mode = policy.FlowMode(policy.Range(20, 40))
	p.Collider = policy.Collider{
		Kind:            policy.ColliderSphere,
		Mass:            policy.Range(1, 2),
		Radius:          policy.Fixed(0.05),
		Restitution:     policy.Fixed(0.3),
		InterCollisions: true,
	}
	p.Boundary = policy.PlaneBoundary(mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 1, 0}, policy.ResponseBounce)

	original := NewEmitter(p, 42)
	original.SetParent(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{})
	original.Play()
	for i := 0; i < 15; i++ {
		original.Update(1.0 / 30)
	}

	snap, err := original.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	restored := NewEmitter(DefaultPolicies(), 7)
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if !reflect.DeepEqual(restored.Policies(), original.Policies()) {
		t.Fatal("restored policies differ from original")
	}
	if restored.Stats() != original.Stats() {
		t.Fatalf("restored stats = %+v, want %+v", restored.Stats(), original.Stats())
	}

	for i := 0; i < 30; i++ {
		a := original.Update(1.0 / 30)
		b := restored.Update(1.0 / 30)
		if a != b {
			t.Fatalf("tick %d: counts diverged %d vs %d", i, a, b)
		}
		if !reflect.DeepEqual(original.Particles(), restored.Particles()) {
			t.Fatalf("tick %d: particle pools diverged", i)
		}
	}
}

func TestEmitterRestoreRejectsBadRNG(t *testing.T) {
	e := NewEmitter(DefaultPolicies(), 1)
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	snap.RNG = "not base64!"
	if err := e.Restore(snap); err == nil {
		t.Error("Restore() with corrupt rng state should fail")
	}
}

func TestEmitterRestoreRejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"state", func(s *Snapshot) { s.State = State(9) }},
		{"bounding mode", func(s *Snapshot) { s.BoundingMode = BoundingMode(7) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewEmitter(DefaultPolicies(), 1)
			src.Play()
			src.Update(0.5)
			snap, err := src.Snapshot()
			if err != nil {
				t.Fatalf("Snapshot() error = %v", err)
			}
			tt.mutate(&snap)

			dst := NewEmitter(DefaultPolicies(), 2)
			if err := dst.Restore(snap); err == nil {
				t.Fatal("Restore() should fail")
			}
			if dst.State() != StateStop || dst.TotalTime() != 0 {
				t.Errorf("emitter changed after failed Restore: state=%v total=%f", dst.State(), dst.TotalTime())
			}
		})
	}
}
