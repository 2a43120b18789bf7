package streaming

import (
	"image"
	"image/color"
	stddraw "image/draw"
	"image/png"
	"log"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"retro-platformer/internal/config"
)

// Fallback figure palette, used when the sprite directory is missing.
var (
	colFallbackFront = color.RGBA{86, 126, 196, 255}
	colFallbackBack  = color.RGBA{74, 108, 170, 255}
	colFallbackSide  = color.RGBA{96, 140, 210, 255}
	colFallbackEdge  = color.RGBA{30, 40, 60, 255}
)

// SpriteSet holds the player sprites keyed by facing, pre-scaled to
// the configured height. Missing art falls back to generated figures
// so the stream never goes down over an asset path.
type SpriteSet struct {
	front    *image.RGBA
	back     *image.RGBA
	left     *image.RGBA
	right    *image.RGBA
	fallback bool
}

// LoadSprites reads front.png, back.png and side.png from the sprite
// directory and scales each to SpriteHeight preserving aspect ratio.
// side.png is mirrored to produce the opposite facing; SideFaces says
// which way the art looks. If any file is missing or unreadable the
// whole set falls back to generated figures so the facings stay
// visually consistent.
func LoadSprites(cfg config.StreamConfig) *SpriteSet {
	front := loadScaledSprite(filepath.Join(cfg.SpriteDir, "front.png"), cfg.SpriteHeight)
	back := loadScaledSprite(filepath.Join(cfg.SpriteDir, "back.png"), cfg.SpriteHeight)
	side := loadScaledSprite(filepath.Join(cfg.SpriteDir, "side.png"), cfg.SpriteHeight)

	s := &SpriteSet{}
	if front == nil || back == nil || side == nil {
		log.Printf("⚠️ Player sprites missing under %s, using generated fallback", cfg.SpriteDir)
		s.fallback = true
		front = fallbackSprite(cfg.SpriteHeight, colFallbackFront, false)
		back = fallbackSprite(cfg.SpriteHeight, colFallbackBack, false)
		side = fallbackSprite(cfg.SpriteHeight, colFallbackSide, true)
	}
	s.front, s.back = front, back

	mirrored := flipHorizontal(side)
	if cfg.SideFaces == "right" {
		s.right, s.left = side, mirrored
	} else {
		s.left, s.right = side, mirrored
	}
	return s
}

// Facing returns the sprite for a snapshot facing name. Unknown names
// get the front sprite.
func (s *SpriteSet) Facing(facing string) *image.RGBA {
	switch facing {
	case "left":
		return s.left
	case "right":
		return s.right
	case "back":
		return s.back
	default:
		return s.front
	}
}

// UsingFallback reports whether the set is generated rather than
// loaded from disk.
func (s *SpriteSet) UsingFallback() bool { return s.fallback }

// loadScaledSprite decodes a PNG and scales it so its height becomes
// targetH. Returns nil when the file is absent or undecodable.
func loadScaledSprite(path string, targetH int) *image.RGBA {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		log.Printf("⚠️ Bad sprite %s: %v", path, err)
		return nil
	}

	b := src.Bounds()
	if b.Dy() == 0 || targetH < 1 {
		return nil
	}
	scale := float64(targetH) / float64(b.Dy())
	w := max(int(float64(b.Dx())*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, targetH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// flipHorizontal mirrors src around its vertical axis.
func flipHorizontal(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		so := (y+b.Min.Y-src.Rect.Min.Y)*src.Stride - src.Rect.Min.X*4
		do := y * dst.Stride
		for x := 0; x < w; x++ {
			si := so + (b.Min.X+w-1-x)*4
			di := do + x*4
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

// fallbackSprite builds a flat placeholder figure at the sprite
// height. Side figures get an off-center eye dot so mirroring is
// visible.
func fallbackSprite(targetH int, body color.RGBA, eye bool) *image.RGBA {
	h := max(targetH, 4)
	w := max(h/2, 4)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	stddraw.Draw(img, img.Bounds(), &image.Uniform{C: body}, image.Point{}, stddraw.Src)

	for x := 0; x < w; x++ {
		img.SetRGBA(x, 0, colFallbackEdge)
		img.SetRGBA(x, h-1, colFallbackEdge)
	}
	for y := 0; y < h; y++ {
		img.SetRGBA(0, y, colFallbackEdge)
		img.SetRGBA(w-1, y, colFallbackEdge)
	}

	if eye {
		ex, ey := w*3/4, h/4
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				img.SetRGBA(ex+dx, ey+dy, colFallbackEdge)
			}
		}
	}
	return img
}
