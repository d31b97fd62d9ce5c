package refract

import (
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestCaptionDefaults(t *testing.T) {
	c := NewCaption(PromoCaption, nil)
	if c.X != 0.65 || c.Y != 1.92 {
		t.Errorf("position = (%v, %v), want (0.65, 1.92)", c.X, c.Y)
	}
	if c.Block.Size != 32 {
		t.Errorf("size = %v, want 32", c.Block.Size)
	}
	if got := strings.Count(c.Block.Content, "\n"); got != 2 {
		t.Errorf("caption has %d line breaks, want 2", got)
	}
}

func TestCaptionPositionScrolls(t *testing.T) {
	c := NewCaption(PromoCaption, nil)
	x, y := c.Position(1000, 500, 0, 3)
	if x != 650 || y != 960 {
		t.Errorf("top position = (%v, %v), want (650, 960)", x, y)
	}
	// At the bottom the page has moved up two screen heights.
	_, y = c.Position(1000, 500, 1, 3)
	if !approxEqual(y, -40, epsilon) {
		t.Errorf("bottom y = %v, want -40", y)
	}
}

func TestCaptionDrawWithoutFontIsNoop(t *testing.T) {
	dst := ebiten.NewImage(100, 50)
	defer dst.Deallocate()
	c := NewCaption(PromoCaption, nil)
	c.Draw(dst, 1, 3)
	if c.Block.image != nil {
		t.Error("caption without font should not rasterize")
	}
}

func TestCaptionDrawOffscreenSkipsRaster(t *testing.T) {
	dst := ebiten.NewImage(100, 50)
	defer dst.Deallocate()
	c := NewCaption(PromoCaption, loadTestFont(t))
	defer c.Dispose()

	c.Draw(dst, 0, 3) // y = 96, below the screen
	if c.Block.image != nil {
		t.Error("off-screen caption should not rasterize")
	}
	c.Draw(dst, 0.7, 3) // y = 96 - 70 = 26
	if c.Block.image == nil {
		t.Error("on-screen caption should rasterize")
	}
}
