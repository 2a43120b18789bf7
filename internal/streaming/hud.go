package streaming

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	"retro-platformer/internal/game"
)

// HUD draws the text and health overlay on top of a rendered frame. It
// wraps the renderer's RGBA buffer in a gg context once at startup;
// Draw repaints only the overlay each frame. Fonts are loaded once and
// cached; without a usable system font the text lines are skipped and
// the hearts still draw.
type HUD struct {
	dc          *gg.Context
	width       int
	fontSmall   font.Face
	fontMedium  font.Face
	fontsLoaded bool
}

// NewHUD builds a HUD over the given frame buffer.
func NewHUD(img *image.RGBA) *HUD {
	h := &HUD{
		dc:    gg.NewContextForRGBA(img),
		width: img.Bounds().Dx(),
	}
	h.loadFonts()
	return h
}

func (h *HUD) loadFonts() {
	fontPath := findFontPath()
	if fontPath == "" {
		log.Printf("⚠️ No system font found, HUD text disabled")
		return
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		log.Printf("⚠️ Failed to read font file: %v", err)
		return
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		log.Printf("⚠️ Failed to parse font: %v", err)
		return
	}

	h.fontSmall, err = opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    16,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("⚠️ Failed to create small font face: %v", err)
		return
	}
	h.fontMedium, err = opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    22,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("⚠️ Failed to create medium font face: %v", err)
		return
	}

	h.fontsLoaded = true
	log.Printf("✅ HUD fonts loaded from %s", fontPath)
}

// Draw paints the overlay for snap: the debug line top-left, the
// distance counter top-right, and one heart per hit point below the
// debug line.
func (h *HUD) Draw(snap *game.GameSnapshot) {
	h.drawHearts(snap.Player.HP)

	if !h.fontsLoaded {
		return
	}

	p := snap.Player
	h.dc.SetFontFace(h.fontSmall)
	h.dc.SetRGB255(230, 230, 230)
	debug := fmt.Sprintf("x=%d cam=%d platforms=%d enemies=%d hp=%d vx=%.0f vy=%.0f facing=%s",
		int(p.X), int(snap.CameraX), snap.PlatformCount, snap.EnemyCount,
		p.HP, p.VX, p.VY, p.Facing)
	h.dc.DrawString(debug, 10, 24)

	h.dc.SetFontFace(h.fontMedium)
	h.dc.DrawStringAnchored(fmt.Sprintf("DIST %d", int(snap.Run.Distance)),
		float64(h.width-16), 24, 1, 0.5)
}

// drawHearts paints one heart per hit point remaining, capped so a
// buffed run cannot paint across the whole frame.
func (h *HUD) drawHearts(hp int) {
	hp = min(hp, 10)
	h.dc.SetRGB255(215, 60, 70)
	for i := 0; i < hp; i++ {
		cx := 20 + float64(i)*26
		h.drawHeart(cx, 46, 9)
	}
}

// drawHeart draws one heart with its lobes centered on (cx, cy).
func (h *HUD) drawHeart(cx, cy, size float64) {
	r := size / 2
	h.dc.DrawCircle(cx-r+0.5, cy, r)
	h.dc.DrawCircle(cx+r-0.5, cy, r)
	h.dc.Fill()
	h.dc.MoveTo(cx-2*r+0.8, cy+r*0.35)
	h.dc.LineTo(cx+2*r-0.8, cy+r*0.35)
	h.dc.LineTo(cx, cy+2.1*r)
	h.dc.ClosePath()
	h.dc.Fill()
}

// findFontPath probes common font locations across platforms.
func findFontPath() string {
	paths := []string{
		"C:\\Windows\\Fonts\\arial.ttf",
		"C:\\Windows\\Fonts\\segoeui.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	matches, _ := filepath.Glob("*.ttf")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}
