package streaming

import (
	"image"
	"image/color"
	stddraw "image/draw"
	"math"
	"time"

	"retro-platformer/internal/game"
)

// Scene palette. The night-city backdrop darkens toward the bottom so
// the lit platforms and the player read against it.
var (
	colSkyLow  = color.RGBA{18, 18, 26, 255}
	colSkyHigh = color.RGBA{20, 20, 30, 255}
	colStar    = color.RGBA{180, 180, 200, 255}
	colHill    = color.RGBA{12, 12, 18, 255}
	colTower   = color.RGBA{14, 14, 22, 255}
	colMoon    = color.RGBA{240, 240, 255, 255}

	colGround       = color.RGBA{35, 45, 35, 255}
	colPlatform     = color.RGBA{55, 75, 55, 255}
	colPlatformEdge = color.RGBA{20, 25, 20, 255}

	colEnemy     = color.RGBA{110, 30, 30, 255}
	colEnemyEdge = color.RGBA{20, 10, 10, 255}
	colEnemyEye  = color.RGBA{240, 240, 240, 255}

	colShadow      = color.RGBA{0, 0, 0, 255}
	colStompPoof   = color.RGBA{230, 220, 160, 255}
	colDamageFlash = color.RGBA{255, 80, 70, 255}
	colJumpDust    = color.RGBA{150, 150, 150, 255}
)

// FrameRenderer rasterizes world snapshots into one reused RGBA frame.
// All primitives write Pix directly and bounds-check themselves, so the
// scene pass can draw partially off-screen shapes without clipping
// first. Nothing allocates per frame; one renderer feeds the encoder
// at stream rate without GC pressure.
type FrameRenderer struct {
	img    *image.RGBA
	width  int
	height int
}

// NewFrameRenderer allocates a renderer with a width-by-height frame.
func NewFrameRenderer(width, height int) *FrameRenderer {
	return &FrameRenderer{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		width:  width,
		height: height,
	}
}

// Image returns the frame buffer. The same image is reused every frame;
// consumers must copy the pixels out before the next render.
func (r *FrameRenderer) Image() *image.RGBA { return r.img }

// Size returns the frame dimensions.
func (r *FrameRenderer) Size() (int, int) { return r.width, r.height }

// Clear fills the whole frame with c.
func (r *FrameRenderer) Clear(c color.RGBA) {
	// Paint the first row, then replicate it; row copies beat
	// per-pixel stores by a wide margin at frame size.
	row := r.img.Pix[:r.width*4]
	for x := 0; x < r.width; x++ {
		i := x * 4
		row[i] = c.R
		row[i+1] = c.G
		row[i+2] = c.B
		row[i+3] = c.A
	}
	for y := 1; y < r.height; y++ {
		o := y * r.img.Stride
		copy(r.img.Pix[o:o+r.width*4], row)
	}
}

// SetPixel writes one pixel, ignoring out-of-bounds coordinates.
func (r *FrameRenderer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return
	}
	i := y*r.img.Stride + x*4
	r.img.Pix[i] = c.R
	r.img.Pix[i+1] = c.G
	r.img.Pix[i+2] = c.B
	r.img.Pix[i+3] = c.A
}

// blendPixel mixes c over the existing pixel at the given opacity.
func (r *FrameRenderer) blendPixel(x, y int, c color.RGBA, alpha float64) {
	if alpha <= 0 || x < 0 || x >= r.width || y < 0 || y >= r.height {
		return
	}
	if alpha >= 1 {
		r.SetPixel(x, y, c)
		return
	}
	i := y*r.img.Stride + x*4
	inv := 1 - alpha
	r.img.Pix[i] = uint8(float64(c.R)*alpha + float64(r.img.Pix[i])*inv)
	r.img.Pix[i+1] = uint8(float64(c.G)*alpha + float64(r.img.Pix[i+1])*inv)
	r.img.Pix[i+2] = uint8(float64(c.B)*alpha + float64(r.img.Pix[i+2])*inv)
	r.img.Pix[i+3] = 255
}

// FillRect fills an axis-aligned rectangle, clipped to the frame.
func (r *FrameRenderer) FillRect(x, y, w, h int, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, r.width), min(y+h, r.height)
	if x0 >= x1 || y0 >= y1 {
		return
	}
	first := y0 * r.img.Stride
	for px := x0; px < x1; px++ {
		i := first + px*4
		r.img.Pix[i] = c.R
		r.img.Pix[i+1] = c.G
		r.img.Pix[i+2] = c.B
		r.img.Pix[i+3] = c.A
	}
	row := r.img.Pix[first+x0*4 : first+x1*4]
	for py := y0 + 1; py < y1; py++ {
		o := py*r.img.Stride + x0*4
		copy(r.img.Pix[o:o+len(row)], row)
	}
}

// FillRectBlend fills a rectangle at the given opacity.
func (r *FrameRenderer) FillRectBlend(x, y, w, h int, c color.RGBA, alpha float64) {
	if w <= 0 || h <= 0 || alpha <= 0 {
		return
	}
	if alpha >= 1 {
		r.FillRect(x, y, w, h, c)
		return
	}
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, r.width), min(y+h, r.height)
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			r.blendPixel(px, py, c, alpha)
		}
	}
}

// StrokeRect draws a rectangle border of the given thickness inside
// the rectangle bounds.
func (r *FrameRenderer) StrokeRect(x, y, w, h, thickness int, c color.RGBA) {
	if w <= 0 || h <= 0 || thickness <= 0 {
		return
	}
	t := min(thickness, min((w+1)/2, (h+1)/2))
	r.FillRect(x, y, w, t, c)
	r.FillRect(x, y+h-t, w, t, c)
	r.FillRect(x, y+t, t, h-2*t, c)
	r.FillRect(x+w-t, y+t, t, h-2*t, c)
}

// FillCircle fills a circle centered at (cx, cy). Row extents come
// from the circle equation, one sqrt per row.
func (r *FrameRenderer) FillCircle(cx, cy, radius int, c color.RGBA) {
	if radius <= 0 {
		r.SetPixel(cx, cy, c)
		return
	}
	for dy := -radius; dy <= radius; dy++ {
		y := cy + dy
		if y < 0 || y >= r.height {
			continue
		}
		dx := int(math.Sqrt(float64(radius*radius - dy*dy)))
		x0, x1 := max(cx-dx, 0), min(cx+dx, r.width-1)
		if x0 > x1 {
			continue
		}
		o := y * r.img.Stride
		for px := x0; px <= x1; px++ {
			i := o + px*4
			r.img.Pix[i] = c.R
			r.img.Pix[i+1] = c.G
			r.img.Pix[i+2] = c.B
			r.img.Pix[i+3] = c.A
		}
	}
}

// FillCircleBlend fills a circle at the given opacity.
func (r *FrameRenderer) FillCircleBlend(cx, cy, radius int, c color.RGBA, alpha float64) {
	if radius <= 0 || alpha <= 0 {
		return
	}
	for dy := -radius; dy <= radius; dy++ {
		dx := int(math.Sqrt(float64(radius*radius - dy*dy)))
		for px := cx - dx; px <= cx+dx; px++ {
			r.blendPixel(px, cy+dy, c, alpha)
		}
	}
}

// FillEllipseBlend fills an axis-aligned ellipse at the given opacity.
func (r *FrameRenderer) FillEllipseBlend(cx, cy, rx, ry int, c color.RGBA, alpha float64) {
	if rx <= 0 || ry <= 0 || alpha <= 0 {
		return
	}
	for dy := -ry; dy <= ry; dy++ {
		f := 1 - float64(dy*dy)/float64(ry*ry)
		if f < 0 {
			continue
		}
		dx := int(float64(rx) * math.Sqrt(f))
		for px := cx - dx; px <= cx+dx; px++ {
			r.blendPixel(px, cy+dy, c, alpha)
		}
	}
}

// HLine draws a horizontal line from x0 to x1 inclusive.
func (r *FrameRenderer) HLine(x0, x1, y int, c color.RGBA) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		r.SetPixel(x, y, c)
	}
}

// VLine draws a vertical line from y0 to y1 inclusive.
func (r *FrameRenderer) VLine(x, y0, y1 int, c color.RGBA) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		r.SetPixel(x, y, c)
	}
}

// RenderScene draws one complete frame for snap: parallax backdrop,
// then platforms, enemies, effects, and the player on top. now drives
// the invulnerability blink phase so tests can pin it.
func (r *FrameRenderer) RenderScene(snap *game.GameSnapshot, sprites *SpriteSet, now time.Time) {
	camX := snap.CameraX
	r.drawParallax(camX)
	r.drawPlatforms(snap.Platforms, snap.GroundTop, camX)
	r.drawEnemies(snap.Enemies, camX)
	r.drawEffects(snap.Effects, camX)
	r.drawPlayer(&snap.Player, sprites, camX, now)
}

// drawParallax paints the scrolling backdrop. Each band wraps at its
// own rate, slowest at the back, so the layers drift apart as the
// camera moves.
func (r *FrameRenderer) drawParallax(camX float64) {
	w, h := r.width, r.height
	r.Clear(colSkyLow)
	r.FillRect(0, 0, w, h/2, colSkyHigh)

	// Star field.
	starOff := wrapFloat(-camX*0.08, float64(w))
	for i := 0; i < 40; i++ {
		x := int(wrapFloat(float64(i*97)+starOff, float64(w)))
		y := (i * 53) % (h / 2)
		r.SetPixel(x, y, colStar)
	}

	// Far hills, round silhouettes along the horizon.
	hillOff := int(wrapFloat(-camX*0.18, float64(w+400))) - 200
	for k := 0; k < w+400; k += 120 {
		r.FillCircle(hillOff+k, h/2+120, 160, colHill)
	}

	// Mid-distance towers.
	towerOff := int(wrapFloat(-camX*0.35, float64(w+500))) - 250
	for k := 0; k < w+500; k += 90 {
		r.FillRect(towerOff+k, h/2+110, 40, 220, colTower)
	}

	moonX := wrapInt(780-int(camX*0.15), w+200) - 100
	r.FillCircle(moonX, 90, 26, colMoon)
}

// drawPlatforms draws every platform that intersects the view. The
// ground strip gets the darker fill so floating platforms read against
// it.
func (r *FrameRenderer) drawPlatforms(platforms []game.Platform, groundTop int, camX float64) {
	for _, p := range platforms {
		sx := int(float64(p.Rect.X) - camX)
		if sx+p.Rect.W < 0 || sx > r.width {
			continue
		}
		fill := colPlatform
		if p.Rect.Y >= groundTop {
			fill = colGround
		}
		r.FillRect(sx, p.Rect.Y, p.Rect.W, p.Rect.H, fill)
		r.StrokeRect(sx, p.Rect.Y, p.Rect.W, p.Rect.H, 2, colPlatformEdge)
	}
}

// drawEnemies draws patrol enemies anchored at their feet line.
func (r *FrameRenderer) drawEnemies(enemies []game.EnemySnapshot, camX float64) {
	for _, e := range enemies {
		sx := int(e.X - float64(e.W)/2 - camX)
		sy := int(e.Y) - e.H
		if sx+e.W < 0 || sx > r.width {
			continue
		}
		r.FillRect(sx, sy, e.W, e.H, colEnemy)
		r.StrokeRect(sx, sy, e.W, e.H, 2, colEnemyEdge)
		cx := sx + e.W/2
		r.FillCircle(cx-5, sy+10, 2, colEnemyEye)
		r.FillCircle(cx+5, sy+10, 2, colEnemyEye)
	}
}

// drawEffects draws fading markers at world positions. The stomp poof
// expands as it ages, the damage flash shrinks, and jump dust drifts
// upward from the takeoff point.
func (r *FrameRenderer) drawEffects(effects []game.Effect, camX float64) {
	for _, ef := range effects {
		a := ef.Alpha()
		if a <= 0 {
			continue
		}
		sx := int(ef.X - camX)
		sy := int(ef.Y)
		switch ef.Kind {
		case game.EffectStomp:
			radius := 6 + int((1-a)*18)
			r.FillCircleBlend(sx, sy-8, radius, colStompPoof, a*0.8)
		case game.EffectDamage:
			radius := 4 + int(a*14)
			r.FillCircleBlend(sx, sy-20, radius, colDamageFlash, a*0.7)
		case game.EffectJumpDust:
			rise := int((1 - a) * 10)
			r.FillCircleBlend(sx-6, sy-rise, 3, colJumpDust, a*0.6)
			r.FillCircleBlend(sx+6, sy-rise, 3, colJumpDust, a*0.6)
		}
	}
}

// drawPlayer blits the facing sprite anchored at the feet, with a soft
// ground shadow underneath. During the invulnerability window the
// player strobes on an 80ms phase, skipping every other phase.
func (r *FrameRenderer) drawPlayer(p *game.PlayerSnapshot, sprites *SpriteSet, camX float64, now time.Time) {
	if p.Invuln > 0 && (now.UnixMilli()/80)%2 == 0 {
		return
	}
	sx := int(p.X - camX)
	sy := int(p.Y)

	spr := sprites.Facing(p.Facing)
	b := spr.Bounds()
	w, h := b.Dx(), b.Dy()

	r.FillEllipseBlend(sx, sy-1, int(float64(w)*0.65)/2, 5, colShadow, 90.0/255.0)

	dst := image.Rect(sx-w/2, sy-h, sx-w/2+w, sy)
	stddraw.Draw(r.img, dst, spr, b.Min, stddraw.Over)
}

// wrapFloat reduces v into [0, m) even when v is negative.
func wrapFloat(v, m float64) float64 {
	r := math.Mod(v, m)
	if r < 0 {
		r += m
	}
	return r
}

// wrapInt reduces v into [0, m) even when v is negative.
func wrapInt(v, m int) int {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}
