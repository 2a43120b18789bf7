package game

import "math"

// ResolveMove applies a proposed displacement to a body one axis at a
// time against the platform list, clamping the body's rectangle out of
// any overlap and zeroing the matching velocity component.
//
// Displacements are rounded to whole units before being applied.
// Overlap is only tested after displacement: a body already inside a
// platform before the move is not corrected, and corners are never
// considered, so displacement per step must stay below platform
// thickness (the engine's dt clamp guarantees that at the target tick
// rate). Platforms are resolved in list order; the last clamp wins.
func ResolveMove(b *Body, platforms []Platform, dx, dy float64) {
	r := b.Rect()

	// Horizontal pass. Any overlap kills horizontal velocity, even a
	// pre-existing one the clamp cannot attribute to a direction.
	r.X += int(math.Round(dx))
	for i := range platforms {
		p := platforms[i].Rect
		if !r.Overlaps(p) {
			continue
		}
		if dx > 0 {
			r.X = p.X - r.W // leading edge against the wall's left face
		} else if dx < 0 {
			r.X = p.Right()
		}
		b.VX = 0
	}

	// Vertical pass against the horizontally corrected rectangle.
	r.Y += int(math.Round(dy))
	landed := false
	for i := range platforms {
		p := platforms[i].Rect
		if !r.Overlaps(p) {
			continue
		}
		if dy > 0 { // falling
			r.Y = p.Y - r.H
			b.VY = 0
			landed = true
		} else if dy < 0 { // rising
			r.Y = p.Bottom()
			b.VY = 0
		}
	}

	b.X = float64(r.CenterX())
	b.Y = float64(r.Bottom())
	b.OnGround = landed
}
