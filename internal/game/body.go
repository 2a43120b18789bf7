package game

import "math"

// Rect is an integer axis-aligned box; y grows downward. Collision
// resolves on whole units so clamped edges land exactly on platform
// boundaries.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Right returns the x just past the last column inside the box.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the y just past the last row inside the box.
func (r Rect) Bottom() int { return r.Y + r.H }

// CenterX returns the horizontal center, rounded down.
func (r Rect) CenterX() int { return r.X + r.W/2 }

// Overlaps reports whether the boxes share area. Touching edges do not
// overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && r.Right() > o.X &&
		r.Y < o.Bottom() && r.Bottom() > o.Y
}

// Body is the kinematic state shared by the player and enemies.
// X and Y are the feet anchor: X is the horizontal center of the
// footprint and Y its bottom edge. OnGround is true only immediately
// after a downward collision resolved in the same step; it is
// recomputed on every resolve and never sticky.
type Body struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	W        int     `json:"w"`
	H        int     `json:"h"`
	OnGround bool    `json:"onGround"`
}

// Rect derives the footprint rectangle from the feet anchor. The
// rectangle's bottom edge equals Y and its horizontal center equals X.
func (b *Body) Rect() Rect {
	return Rect{
		X: int(b.X - float64(b.W)/2),
		Y: int(b.Y - float64(b.H)),
		W: b.W,
		H: b.H,
	}
}

// approach moves current toward target by at most maxDelta without
// overshooting.
func approach(current, target, maxDelta float64) float64 {
	if current < target {
		return math.Min(current+maxDelta, target)
	}
	return math.Max(current-maxDelta, target)
}
