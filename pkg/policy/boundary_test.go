package policy

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/decker502/particlesim/pkg/components"
)

func TestBoundaryPointCollisionKill(t *testing.T) {
	origin := mgl64.Vec3{100, 0, 0}
	tests := []struct {
		name     string
		boundary Boundary
		pos      mgl64.Vec3
		want     bool
	}{
		{"none passes anything", NoBoundary(), mgl64.Vec3{1e9, 0, 0}, true},
		{"aabb inside", AABBBoundary(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}, ResponseKill), mgl64.Vec3{100.5, 0, 0}, true},
		{"aabb outside", AABBBoundary(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}, ResponseKill), mgl64.Vec3{0, 0, 0}, false},
		{"aabb reversed corners", AABBBoundary(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{-1, -1, -1}, ResponseKill), mgl64.Vec3{100, 0.5, 0}, true},
		{"sphere inside", SphereBoundary(mgl64.Vec3{}, 5, ResponseKill), mgl64.Vec3{103, 0, 0}, true},
		{"sphere outside", SphereBoundary(mgl64.Vec3{}, 5, ResponseKill), mgl64.Vec3{106, 0, 0}, false},
		{"plane above", PlaneBoundary(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, ResponseKill), mgl64.Vec3{0, 2, 0}, true},
		{"plane below", PlaneBoundary(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, ResponseKill), mgl64.Vec3{0, -2, 0}, false},
		{"plane zero normal", PlaneBoundary(mgl64.Vec3{}, mgl64.Vec3{}, ResponseKill), mgl64.Vec3{0, -2, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := components.Particle{Position: tt.pos}
			if got := tt.boundary.PointCollision(&p, origin); got != tt.want {
				t.Errorf("PointCollision(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestBoundarySphereCollisionUsesRadius(t *testing.T) {
	b := AABBBoundary(mgl64.Vec3{-10, -10, -10}, mgl64.Vec3{10, 10, 10}, ResponseKill)
	p := components.Particle{Position: mgl64.Vec3{9.5, 0, 0}, Radius: 1}
	if !b.PointCollision(&p, mgl64.Vec3{}) {
		t.Error("point test should pass for a center inside the box")
	}
	if b.SphereCollision(&p, mgl64.Vec3{}) {
		t.Error("sphere test should fail when the sphere crosses the wall")
	}
}

func TestBoundaryBounceReflects(t *testing.T) {
	t.Run("plane", func(t *testing.T) {
		b := PlaneBoundary(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, ResponseBounce)
		p := components.Particle{Position: mgl64.Vec3{0, -1, 0}, Velocity: mgl64.Vec3{1, -4, 0}, Restitution: 0.5}
		if !b.PointCollision(&p, mgl64.Vec3{}) {
			t.Fatal("bounce response must keep the particle alive")
		}
		assertNear(t, "pos.y", p.Position[1], 0)
		assertNear(t, "vel.y", p.Velocity[1], 2)
		assertNear(t, "vel.x", p.Velocity[0], 1)
	})

	t.Run("aabb", func(t *testing.T) {
		b := AABBBoundary(mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}, ResponseBounce)
		p := components.Particle{Position: mgl64.Vec3{3, 0, 0}, Velocity: mgl64.Vec3{2, 0, 0}, Restitution: 1}
		if !b.PointCollision(&p, mgl64.Vec3{}) {
			t.Fatal("bounce response must keep the particle alive")
		}
		assertNear(t, "pos.x", p.Position[0], 1)
		assertNear(t, "vel.x", p.Velocity[0], -2)
	})

	t.Run("sphere", func(t *testing.T) {
		b := SphereBoundary(mgl64.Vec3{}, 2, ResponseBounce)
		p := components.Particle{Position: mgl64.Vec3{0, 0, 4}, Velocity: mgl64.Vec3{0, 0, 1}}
		if !b.SphereCollision(&p, mgl64.Vec3{}) {
			t.Fatal("bounce response must keep the particle alive")
		}
		assertNear(t, "pos.z", p.Position[2], 2)
		assertNear(t, "vel.z", p.Velocity[2], 0)
	})
}

func TestBoundaryBounds(t *testing.T) {
	origin := mgl64.Vec3{1, 1, 1}

	box, ok := AABBBoundary(mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 2, 3}, ResponseKill).Bounds(origin)
	if !ok || box.Min != (mgl64.Vec3{0, 1, 1}) || box.Max != (mgl64.Vec3{2, 3, 4}) {
		t.Errorf("AABB bounds = %v, %v", box, ok)
	}

	box, ok = SphereBoundary(mgl64.Vec3{1, 0, 0}, 2, ResponseKill).Bounds(origin)
	if !ok || box.Min != (mgl64.Vec3{0, -1, -1}) || box.Max != (mgl64.Vec3{4, 3, 3}) {
		t.Errorf("sphere bounds = %v, %v", box, ok)
	}

	if _, ok := PlaneBoundary(mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, ResponseKill).Bounds(origin); ok {
		t.Error("plane boundary should have no analytic bounds")
	}
}
