package game

import "retro-platformer/internal/config"

// Camera follows a target horizontally through a dead-zone centered in
// the view and never scrolls left of the world origin. It never moves
// vertically; the dead-zone height only shapes the rectangle.
type Camera struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`

	deadzone Rect
}

// NewCamera builds a camera for the given view with its dead-zone
// centered.
func NewCamera(viewW, viewH int, cfg config.CameraConfig) *Camera {
	return &Camera{
		deadzone: Rect{
			X: (viewW - cfg.DeadzoneW) / 2,
			Y: (viewH - cfg.DeadzoneH) / 2,
			W: cfg.DeadzoneW,
			H: cfg.DeadzoneH,
		},
	}
}

// Update tracks the target's feet anchor. The camera shifts only by
// however far the target's screen-space offset escapes the dead-zone,
// then clamps to a non-negative scroll origin.
func (c *Camera) Update(targetX, targetY float64) {
	sx := targetX - c.X

	if sx < float64(c.deadzone.X) {
		c.X -= float64(c.deadzone.X) - sx
	} else if sx > float64(c.deadzone.Right()) {
		c.X += sx - float64(c.deadzone.Right())
	}

	if c.X < 0 {
		c.X = 0
	}
	c.Y = 0
}

// Deadzone returns the screen-space dead-zone rectangle.
func (c *Camera) Deadzone() Rect { return c.deadzone }
