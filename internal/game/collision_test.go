package game

import (
	"testing"
)

// TestRectOverlaps verifies strict overlap: touching edges don't count
func TestRectOverlaps(t *testing.T) {
	base := Rect{X: 0, Y: 0, W: 10, H: 10}

	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"identical", Rect{0, 0, 10, 10}, true},
		{"partial overlap", Rect{5, 5, 10, 10}, true},
		{"contained", Rect{2, 2, 4, 4}, true},
		{"touching right edge", Rect{10, 0, 10, 10}, false},
		{"touching bottom edge", Rect{0, 10, 10, 10}, false},
		{"touching corner", Rect{10, 10, 10, 10}, false},
		{"disjoint", Rect{20, 20, 5, 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps(%v) = %v, want %v", tt.other, got, tt.want)
			}
			if got := tt.other.Overlaps(base); got != tt.want {
				t.Errorf("Overlaps is not symmetric for %v", tt.other)
			}
		})
	}
}

// TestRectEdges verifies the derived edge accessors
func TestRectEdges(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}

	if r.Right() != 40 {
		t.Errorf("Expected Right 40, got %d", r.Right())
	}
	if r.Bottom() != 60 {
		t.Errorf("Expected Bottom 60, got %d", r.Bottom())
	}
	if r.CenterX() != 25 {
		t.Errorf("Expected CenterX 25, got %d", r.CenterX())
	}
}

// TestBodyRect verifies the feet-anchor to rectangle derivation
func TestBodyRect(t *testing.T) {
	b := Body{X: 100, Y: 396, W: 26, H: 53}

	r := b.Rect()
	want := Rect{X: 87, Y: 343, W: 26, H: 53}
	if r != want {
		t.Errorf("Expected rect %v, got %v", want, r)
	}
}

// TestResolveMoveLands verifies a falling body clamps onto a platform top
func TestResolveMoveLands(t *testing.T) {
	platforms := []Platform{
		{ID: 1, Rect: Rect{X: 0, Y: 396, W: 3000, H: 144}, Ground: true},
	}
	b := Body{X: 100, Y: 390, W: 26, H: 53, VY: 600}

	ResolveMove(&b, platforms, 0, 10)

	if b.Y != 396 {
		t.Errorf("Expected feet at 396, got %v", b.Y)
	}
	if b.VY != 0 {
		t.Errorf("Expected VY zeroed on landing, got %v", b.VY)
	}
	if !b.OnGround {
		t.Error("Body should be on ground after landing")
	}
	if b.X != 100 {
		t.Errorf("Horizontal position should be untouched, got %v", b.X)
	}
}

// TestResolveMoveCeiling verifies a rising body clamps under a platform
func TestResolveMoveCeiling(t *testing.T) {
	platforms := []Platform{
		{ID: 1, Rect: Rect{X: 80, Y: 200, W: 100, H: 18}},
	}
	b := Body{X: 100, Y: 280, W: 26, H: 53, VY: -300}

	ResolveMove(&b, platforms, 0, -15)

	// Head stops at the platform's bottom edge (218), feet at 218+53.
	if b.Y != 271 {
		t.Errorf("Expected feet at 271, got %v", b.Y)
	}
	if b.VY != 0 {
		t.Errorf("Expected VY zeroed on ceiling hit, got %v", b.VY)
	}
	if b.OnGround {
		t.Error("Ceiling hit must not set OnGround")
	}
}

// TestResolveMoveWallRight verifies a rightward move clamps against a wall
func TestResolveMoveWallRight(t *testing.T) {
	platforms := []Platform{
		{ID: 1, Rect: Rect{X: 200, Y: 300, W: 48, H: 96}},
	}
	b := Body{X: 180, Y: 390, W: 26, H: 53, VX: 260}

	ResolveMove(&b, platforms, 30, 0)

	// Right edge against the wall face: center = 200 - 26/2.
	if b.X != 187 {
		t.Errorf("Expected center at 187, got %v", b.X)
	}
	if b.VX != 0 {
		t.Errorf("Expected VX zeroed on wall hit, got %v", b.VX)
	}
	if b.Y != 390 {
		t.Errorf("Vertical position should be untouched, got %v", b.Y)
	}
}

// TestResolveMoveWallLeft verifies a leftward move clamps against a wall
func TestResolveMoveWallLeft(t *testing.T) {
	platforms := []Platform{
		{ID: 1, Rect: Rect{X: 100, Y: 300, W: 48, H: 96}},
	}
	b := Body{X: 180, Y: 390, W: 26, H: 53, VX: -260}

	ResolveMove(&b, platforms, -30, 0)

	// Left edge against the wall's right face (148): center = 148 + 13.
	if b.X != 161 {
		t.Errorf("Expected center at 161, got %v", b.X)
	}
	if b.VX != 0 {
		t.Errorf("Expected VX zeroed on wall hit, got %v", b.VX)
	}
}

// TestResolveMoveGravityRegrounds verifies a standing body re-lands
// every step once gravity pulls it a unit into the floor
func TestResolveMoveGravityRegrounds(t *testing.T) {
	platforms := []Platform{
		{ID: 1, Rect: Rect{X: 0, Y: 396, W: 3000, H: 144}, Ground: true},
	}
	b := Body{X: 100, Y: 396, W: 26, H: 53, VY: 36.7}

	ResolveMove(&b, platforms, 0, 0.61)

	if b.Y != 396 {
		t.Errorf("Expected feet back at 396, got %v", b.Y)
	}
	if !b.OnGround {
		t.Error("Body should be grounded again")
	}
	if b.VY != 0 {
		t.Errorf("Expected VY zeroed, got %v", b.VY)
	}
}

// TestResolveMoveRounding verifies displacements round half away from zero
func TestResolveMoveRounding(t *testing.T) {
	tests := []struct {
		name  string
		dx    float64
		wantX float64
	}{
		{"under half stays", 0.49, 100},
		{"half rounds up", 0.5, 101},
		{"negative half rounds away", -0.5, 99},
		{"one and a bit", 1.2, 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Body{X: 100, Y: 396, W: 26, H: 53}
			ResolveMove(&b, nil, tt.dx, 0)
			if b.X != tt.wantX {
				t.Errorf("dx %v: expected X %v, got %v", tt.dx, tt.wantX, b.X)
			}
		})
	}
}

// TestResolveMoveEmbeddedKillsVX verifies the stationary-overlap rule:
// a body already inside a platform is not pushed out, but any overlap
// in the horizontal pass still kills horizontal velocity
func TestResolveMoveEmbeddedKillsVX(t *testing.T) {
	platforms := []Platform{
		{ID: 1, Rect: Rect{X: 0, Y: 396, W: 3000, H: 144}, Ground: true},
	}
	b := Body{X: 100, Y: 420, W: 26, H: 53, VX: 100}

	ResolveMove(&b, platforms, 0, 0)

	if b.X != 100 || b.Y != 420 {
		t.Errorf("Embedded body should not move, got (%v, %v)", b.X, b.Y)
	}
	if b.VX != 0 {
		t.Errorf("Expected VX zeroed by the overlap, got %v", b.VX)
	}
	if b.OnGround {
		t.Error("Zero-displacement overlap must not set OnGround")
	}
}

// TestApproach verifies movement toward a target never overshoots
func TestApproach(t *testing.T) {
	tests := []struct {
		name                      string
		current, target, maxDelta float64
		want                      float64
	}{
		{"step up", 0, 10, 3, 3},
		{"step down", 10, 0, 3, 7},
		{"clamp up", 9, 10, 3, 10},
		{"clamp down", 1, 0, 3, 0},
		{"at target", 5, 5, 3, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := approach(tt.current, tt.target, tt.maxDelta); got != tt.want {
				t.Errorf("approach(%v, %v, %v) = %v, want %v",
					tt.current, tt.target, tt.maxDelta, got, tt.want)
			}
		})
	}
}
