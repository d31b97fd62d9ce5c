package refract

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// PromoCaption is the product caption shown over the last page.
const PromoCaption = "PMNDRS Pendant lamp\néjkék, fehér, bronz\nHUF 30.000"

// Caption defaults: position as a fraction of the screen size, font size
// in pixels.
const (
	captionX    = 0.65
	captionY    = 1.92
	captionSize = 32
)

// Caption is screen-space text drawn over the composited frame. It is not
// refracted by the lens. It scrolls with the page at one screen height per
// page.
type Caption struct {
	Block *TextBlock
	// X and Y place the text's top-left corner as fractions of the screen
	// size, before scrolling.
	X, Y float64

	op ebiten.DrawImageOptions
}

// NewCaption creates a caption with the promo layout. font may be nil
// until the font asset is ready.
func NewCaption(content string, font *TTFFont) *Caption {
	tb := NewTextBlock(content, font)
	tb.Size = captionSize
	tb.Anchor = AnchorLeft
	return &Caption{Block: tb, X: captionX, Y: captionY}
}

// Position returns the caption's top-left corner in pixels for a screen of
// width x height at scroll offset over pages pages.
func (c *Caption) Position(width, height, offset, pages float64) (x, y float64) {
	return c.X * width, c.Y*height - height*(pages-1)*offset
}

// Draw draws the caption into dst. Nothing is drawn while it is entirely
// off screen or the font is not ready.
func (c *Caption) Draw(dst *ebiten.Image, offset, pages float64) {
	if dst == nil {
		return
	}
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	x, y := c.Position(w, h, offset, pages)
	_, bh := c.Block.Measure()
	if y > h || y+bh < 0 {
		return
	}
	img := c.Block.rasterize(1)
	if img == nil {
		return
	}
	pad := c.Block.padding()
	c.op.GeoM.Reset()
	c.op.GeoM.Translate(x-pad, y-pad)
	dst.DrawImage(img, &c.op)
}

// Dispose releases the text cache.
func (c *Caption) Dispose() {
	c.Block.Dispose()
}
