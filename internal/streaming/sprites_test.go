package streaming

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"retro-platformer/internal/config"
)

// writeTestPNG writes a solid-color PNG of the given size.
func writeTestPNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func TestLoadSpritesFallsBackOnMissingDir(t *testing.T) {
	cfg := config.DefaultStream()
	cfg.SpriteDir = filepath.Join(t.TempDir(), "nope")

	s := LoadSprites(cfg)
	if !s.UsingFallback() {
		t.Fatal("Expected fallback set for a missing directory")
	}
	for _, facing := range []string{"front", "back", "left", "right"} {
		spr := s.Facing(facing)
		if spr == nil {
			t.Fatalf("Facing(%q) returned nil", facing)
		}
		if spr.Bounds().Dy() != cfg.SpriteHeight {
			t.Errorf("Facing(%q) height = %d, want %d", facing, spr.Bounds().Dy(), cfg.SpriteHeight)
		}
	}
}

func TestFallbackSideSpritesMirror(t *testing.T) {
	cfg := config.DefaultStream()
	cfg.SpriteDir = t.TempDir()
	s := LoadSprites(cfg)

	left, right := s.Facing("left"), s.Facing("right")
	w := left.Bounds().Dx()
	ex, ey := w*3/4, left.Bounds().Dy()/4

	// SideFaces defaults to "left", so the eye dot sits at its drawn
	// position on the left sprite and mirrors on the right one.
	if got := left.RGBAAt(ex, ey); got != colFallbackEdge {
		t.Errorf("Left sprite eye at (%d,%d) = %v, want %v", ex, ey, got, colFallbackEdge)
	}
	if got := right.RGBAAt(w-1-ex, ey); got != colFallbackEdge {
		t.Errorf("Right sprite mirrored eye = %v, want %v", got, colFallbackEdge)
	}
	if got := right.RGBAAt(ex, ey); got == colFallbackEdge {
		t.Error("Right sprite eye did not move; mirroring failed")
	}
}

func TestLoadSpritesFromDisk(t *testing.T) {
	dir := t.TempDir()
	body := color.RGBA{200, 40, 40, 255}
	writeTestPNG(t, filepath.Join(dir, "front.png"), 14, 28, body)
	writeTestPNG(t, filepath.Join(dir, "back.png"), 14, 28, body)
	writeTestPNG(t, filepath.Join(dir, "side.png"), 16, 28, body)

	cfg := config.DefaultStream()
	cfg.SpriteDir = dir
	cfg.SpriteHeight = 56

	s := LoadSprites(cfg)
	if s.UsingFallback() {
		t.Fatal("Expected disk sprites, got fallback")
	}

	front := s.Facing("front")
	if front.Bounds().Dy() != 56 {
		t.Errorf("Front height = %d, want 56", front.Bounds().Dy())
	}
	// 14x28 doubled to height 56 keeps aspect: width 28.
	if front.Bounds().Dx() != 28 {
		t.Errorf("Front width = %d, want 28", front.Bounds().Dx())
	}
	side := s.Facing("left")
	if side.Bounds().Dy() != 56 || side.Bounds().Dx() != 32 {
		t.Errorf("Side dims = %dx%d, want 32x56", side.Bounds().Dx(), side.Bounds().Dy())
	}
}

func TestLoadSpritesPartialSetFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "front.png"), 20, 40, color.RGBA{1, 2, 3, 255})

	cfg := config.DefaultStream()
	cfg.SpriteDir = dir
	if s := LoadSprites(cfg); !s.UsingFallback() {
		t.Error("A partial sprite set should fall back as a whole")
	}
}

func TestFacingUnknownReturnsFront(t *testing.T) {
	cfg := config.DefaultStream()
	cfg.SpriteDir = t.TempDir()
	s := LoadSprites(cfg)
	if s.Facing("sideways") != s.front {
		t.Error("Unknown facing should return the front sprite")
	}
}

func TestFlipHorizontal(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 1))
	a := color.RGBA{10, 0, 0, 255}
	b := color.RGBA{0, 20, 0, 255}
	c := color.RGBA{0, 0, 30, 255}
	src.SetRGBA(0, 0, a)
	src.SetRGBA(1, 0, b)
	src.SetRGBA(2, 0, c)

	dst := flipHorizontal(src)
	if dst.RGBAAt(0, 0) != c || dst.RGBAAt(1, 0) != b || dst.RGBAAt(2, 0) != a {
		t.Errorf("Flip produced %v %v %v, want %v %v %v",
			dst.RGBAAt(0, 0), dst.RGBAAt(1, 0), dst.RGBAAt(2, 0), c, b, a)
	}
}
