package streaming

import (
	"image/color"
	"testing"
	"time"
)

func TestHUDDrawsHearts(t *testing.T) {
	r := NewFrameRenderer(960, 540)
	r.Clear(color.RGBA{0, 0, 0, 255})
	hud := NewHUD(r.Image())

	snap := testScene()
	snap.Player.HP = 3
	hud.Draw(snap)

	heart := color.RGBA{215, 60, 70, 255}
	// Left lobe centers of hearts 1 and 3.
	if got := r.Image().RGBAAt(16, 46); got != heart {
		t.Errorf("First heart = %v, want %v", got, heart)
	}
	if got := r.Image().RGBAAt(68, 46); got != heart {
		t.Errorf("Third heart = %v, want %v", got, heart)
	}
	// Heart 4 must not exist at hp=3.
	if got := r.Image().RGBAAt(94, 46); got == heart {
		t.Error("Found a fourth heart at hp=3")
	}
}

func TestHUDNoHeartsAtZeroHP(t *testing.T) {
	r := NewFrameRenderer(960, 540)
	r.Clear(color.RGBA{0, 0, 0, 255})
	hud := NewHUD(r.Image())

	snap := testScene()
	snap.Player.HP = 0
	hud.Draw(snap)

	heart := color.RGBA{215, 60, 70, 255}
	if got := r.Image().RGBAAt(16, 46); got == heart {
		t.Error("Heart drawn at zero hp")
	}
}

func TestHUDCapsHeartRow(t *testing.T) {
	r := NewFrameRenderer(960, 540)
	r.Clear(color.RGBA{0, 0, 0, 255})
	hud := NewHUD(r.Image())

	snap := testScene()
	snap.Player.HP = 50
	hud.Draw(snap)

	heart := color.RGBA{215, 60, 70, 255}
	// Heart 10 is the last one: lobe at x = 20+9*26-4 = 250.
	if got := r.Image().RGBAAt(250, 46); got != heart {
		t.Errorf("Tenth heart = %v, want %v", got, heart)
	}
	// Heart 11 would sit at cx=280; its lobe must stay empty.
	if got := r.Image().RGBAAt(276, 46); got == heart {
		t.Error("Heart row not capped at ten")
	}
}

func TestHUDOverScene(t *testing.T) {
	// The overlay draws over a fully rendered scene without touching
	// world pixels outside its regions.
	r := NewFrameRenderer(960, 540)
	r.RenderScene(testScene(), testSprites(t), time.UnixMilli(80))
	before := r.Image().RGBAAt(320, 309) // Floating platform interior

	hud := NewHUD(r.Image())
	hud.Draw(testScene())

	if got := r.Image().RGBAAt(320, 309); got != before {
		t.Errorf("HUD altered a world pixel: %v -> %v", before, got)
	}
}
