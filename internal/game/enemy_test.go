package game

import (
	"math"
	"testing"

	"retro-platformer/internal/config"
)

// patrolFixture builds a level holding exactly the given platforms,
// bypassing generation.
func patrolFixture(platforms ...Platform) *Level {
	return &Level{Platforms: platforms}
}

// TestNewEnemyOnPlatformTop verifies spawn placement and direction
func TestNewEnemyOnPlatformTop(t *testing.T) {
	ecfg := config.DefaultEnemy()
	p := Platform{ID: 7, Rect: Rect{X: 100, Y: 300, W: 200, H: 18}}

	e := NewEnemy(p, 150, ecfg, -1)

	if e.X != 150 {
		t.Errorf("Expected X 150, got %v", e.X)
	}
	if e.Y != 300 {
		t.Errorf("Expected feet on the platform top (300), got %v", e.Y)
	}
	if e.VX != -ecfg.Speed {
		t.Errorf("Expected VX %v, got %v", -ecfg.Speed, e.VX)
	}
	if e.W != ecfg.Width || e.H != ecfg.Height {
		t.Errorf("Expected footprint %dx%d, got %dx%d", ecfg.Width, ecfg.Height, e.W, e.H)
	}
	if e.Platform != 7 {
		t.Errorf("Expected platform id 7, got %d", e.Platform)
	}
	if !e.Alive {
		t.Error("New enemy should be alive")
	}
}

// TestNewPatrolPolicySelection verifies config-driven policy choice
func TestNewPatrolPolicySelection(t *testing.T) {
	phys := config.DefaultPhysics()

	ecfg := config.DefaultEnemy()
	if _, ok := NewPatrolPolicy(ecfg, phys).(*BoundedPatrol); !ok {
		t.Errorf("Expected bounded policy for %q", ecfg.Policy)
	}

	ecfg.Policy = config.PatrolPhysics
	ecfg.Speed = 120
	pp, ok := NewPatrolPolicy(ecfg, phys).(*PhysicsPatrol)
	if !ok {
		t.Fatalf("Expected physics policy for %q", ecfg.Policy)
	}
	if pp.Speed != 120 {
		t.Errorf("Expected physics patrol speed 120, got %v", pp.Speed)
	}
	if pp.Gravity != phys.Gravity {
		t.Errorf("Expected gravity %v, got %v", phys.Gravity, pp.Gravity)
	}
	if pp.EdgeMargin != ecfg.EdgeMargin {
		t.Errorf("Expected edge margin %d, got %d", ecfg.EdgeMargin, pp.EdgeMargin)
	}
}

// TestBoundedPatrolWalks verifies plain movement away from the bounds
func TestBoundedPatrolWalks(t *testing.T) {
	ecfg := config.DefaultEnemy()
	p := Platform{ID: 1, Rect: Rect{X: 100, Y: 300, W: 200, H: 18}}
	l := patrolFixture(p)
	e := NewEnemy(p, 200, ecfg, 1)

	(&BoundedPatrol{}).Step(e, l, 0.1)

	if math.Abs(e.X-206) > 1e-9 {
		t.Errorf("Expected X 206, got %v", e.X)
	}
	if e.VX != ecfg.Speed {
		t.Errorf("Direction should not flip mid-platform, got VX %v", e.VX)
	}
	if e.Y != 300 {
		t.Errorf("Feet should stay pinned at 300, got %v", e.Y)
	}
}

// TestBoundedPatrolFlipsAtRightEdge verifies the clamp-and-flip at the
// platform's right bound
func TestBoundedPatrolFlipsAtRightEdge(t *testing.T) {
	ecfg := config.DefaultEnemy()
	p := Platform{ID: 1, Rect: Rect{X: 100, Y: 300, W: 200, H: 18}}
	l := patrolFixture(p)
	e := NewEnemy(p, 280, ecfg, 1)

	(&BoundedPatrol{}).Step(e, l, 0.2)

	// Right bound is 300 - 28/2 = 286.
	if e.X != 286 {
		t.Errorf("Expected clamp at 286, got %v", e.X)
	}
	if e.VX != -ecfg.Speed {
		t.Errorf("Expected flipped VX %v, got %v", -ecfg.Speed, e.VX)
	}
}

// TestBoundedPatrolFlipsAtLeftEdge verifies the left bound
func TestBoundedPatrolFlipsAtLeftEdge(t *testing.T) {
	ecfg := config.DefaultEnemy()
	p := Platform{ID: 1, Rect: Rect{X: 100, Y: 300, W: 200, H: 18}}
	l := patrolFixture(p)
	e := NewEnemy(p, 120, ecfg, -1)

	(&BoundedPatrol{}).Step(e, l, 0.2)

	if e.X != 114 {
		t.Errorf("Expected clamp at 114, got %v", e.X)
	}
	if e.VX != ecfg.Speed {
		t.Errorf("Expected flipped VX %v, got %v", ecfg.Speed, e.VX)
	}
}

// TestBoundedPatrolOrphanFreezes verifies an enemy whose platform is
// gone stops moving instead of wandering
func TestBoundedPatrolOrphanFreezes(t *testing.T) {
	ecfg := config.DefaultEnemy()
	p := Platform{ID: 1, Rect: Rect{X: 100, Y: 300, W: 200, H: 18}}
	l := patrolFixture() // platform already despawned
	e := NewEnemy(p, 200, ecfg, 1)

	(&BoundedPatrol{}).Step(e, l, 0.2)

	if e.X != 200 {
		t.Errorf("Orphaned enemy should not move, got X %v", e.X)
	}
}

// TestPhysicsPatrolStaysOnPlatform runs a long patrol and verifies the
// enemy never leaves its home span and keeps constant speed
func TestPhysicsPatrolStaysOnPlatform(t *testing.T) {
	p := Platform{ID: 1, Rect: Rect{X: 100, Y: 300, W: 200, H: 18}}
	l := patrolFixture(p)

	ecfg := config.EnemyConfig{Width: 40, Height: 28, Speed: 120, EdgeMargin: 8}
	e := NewEnemy(p, 200, ecfg, 1)
	pp := &PhysicsPatrol{Speed: 120, Gravity: 2200, MaxFall: 1600, EdgeMargin: 8}

	flips := 0
	prevDir := 1.0
	for i := 0; i < 600; i++ {
		pp.Step(e, l, testDT)

		if e.X < 100 || e.X > 300 {
			t.Fatalf("Step %d: enemy left the platform span, X %v", i, e.X)
		}
		if e.Y != 300 {
			t.Fatalf("Step %d: feet left the platform top, Y %v", i, e.Y)
		}
		if math.Abs(e.VX) != 120 {
			t.Fatalf("Step %d: speed magnitude changed, VX %v", i, e.VX)
		}

		dir := 1.0
		if e.VX < 0 {
			dir = -1.0
		}
		if dir != prevDir {
			flips++
			prevDir = dir
		}
	}

	if flips < 2 {
		t.Errorf("Expected at least 2 direction flips over 10s, got %d", flips)
	}
}

// TestPhysicsPatrolFlipsAtWall verifies an obstructed step turns the
// enemy around
func TestPhysicsPatrolFlipsAtWall(t *testing.T) {
	ground := Platform{ID: 1, Rect: Rect{X: 0, Y: 396, W: 1000, H: 144}, Ground: true}
	wall := Platform{ID: 2, Rect: Rect{X: 300, Y: 348, W: 48, H: 48}}
	l := patrolFixture(ground, wall)

	ecfg := config.EnemyConfig{Width: 28, Height: 36, Speed: 120, EdgeMargin: 8}
	e := NewEnemy(ground, 250, ecfg, 1)
	pp := &PhysicsPatrol{Speed: 120, Gravity: 2200, MaxFall: 1600, EdgeMargin: 8}

	flipped := false
	for i := 0; i < 50; i++ {
		pp.Step(e, l, testDT)
		if e.X > 286 {
			t.Fatalf("Step %d: enemy passed the wall face, X %v", i, e.X)
		}
		if e.VX < 0 {
			flipped = true
			break
		}
	}

	if !flipped {
		t.Error("Expected the wall to flip the patrol direction")
	}
}

// TestPhysicsPatrolOrphanFreezes verifies the missing-platform guard
func TestPhysicsPatrolOrphanFreezes(t *testing.T) {
	p := Platform{ID: 1, Rect: Rect{X: 100, Y: 300, W: 200, H: 18}}
	l := patrolFixture()
	ecfg := config.EnemyConfig{Width: 40, Height: 28, Speed: 120, EdgeMargin: 8}
	e := NewEnemy(p, 200, ecfg, 1)
	pp := &PhysicsPatrol{Speed: 120, Gravity: 2200, MaxFall: 1600, EdgeMargin: 8}

	pp.Step(e, l, testDT)

	if e.X != 200 || e.Y != 300 {
		t.Errorf("Orphaned enemy should not move, got (%v, %v)", e.X, e.Y)
	}
}
