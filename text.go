package refract

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// --- TTFFont ---

// TTFFont wraps Ebitengine's text/v2 face source. Faces are created per
// rasterization size, so one font serves labels at any depth.
type TTFFont struct {
	source *text.GoTextFaceSource
}

// LoadTTFFont loads a TrueType or OpenType font from raw data.
func LoadTTFFont(ttfData []byte) (*TTFFont, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("refract: failed to parse TTF data: %w", err)
	}
	return &TTFFont{source: source}, nil
}

// Face returns a text/v2 face at size pixels.
func (f *TTFFont) Face(size float64) *text.GoTextFace {
	return &text.GoTextFace{Source: f.source, Size: size}
}

// LineHeight returns the baseline-to-baseline distance at size pixels.
func (f *TTFFont) LineHeight(size float64) float64 {
	m := f.Face(size).Metrics()
	return m.HAscent + m.HDescent + m.HLineGap
}

// MeasureString returns the size in pixels of s set at size pixels with
// letterSpacing em between glyphs. Lines are separated by '\n'.
func (f *TTFFont) MeasureString(s string, size, letterSpacing float64) (width, height float64) {
	face := f.Face(size)
	lh := f.LineHeight(size)
	lines := strings.Split(s, "\n")
	for _, line := range lines {
		width = max(width, spacedAdvance(text.Advance(line, face), utf8.RuneCountInString(line), letterSpacing*size))
	}
	return width, lh * float64(len(lines))
}

// spacedAdvance adds tracking between runes to a line's natural advance.
// Tight tracking never produces a negative width.
func spacedAdvance(advance float64, runes int, spacing float64) float64 {
	if runes > 1 {
		advance += spacing * float64(runes-1)
	}
	return max(advance, 0)
}

// --- TextBlock ---

// TextBlock holds text content, style, and a cached rasterization.
// Size and LetterSpacing are in the units of whatever space the block is
// placed in: scene units for labels, pixels for the screen overlay.
type TextBlock struct {
	Content string
	Font    *TTFFont
	// Size is the em size (font size).
	Size float64
	// LetterSpacing is extra tracking between glyphs, in em.
	LetterSpacing float64
	Color         Color
	Anchor        AnchorX

	// Rasterization cache (unexported)
	image      *ebiten.Image
	imagePx    float64 // em size in pixels the cache was rendered at
	imageKey   string  // Content at render time
	imageColor Color
	upp        float64 // block units per raster pixel
	boxW       float64 // text box width in raster pixels, excluding padding
	boxH       float64
	pad        float64
	glyphs     []text.Glyph
}

// NewTextBlock creates a block with size 1, black color, centered anchor.
func NewTextBlock(content string, font *TTFFont) *TextBlock {
	return &TextBlock{
		Content: content,
		Font:    font,
		Size:    1,
		Color:   ColorBlack,
	}
}

// Measure returns the text box size in block units (excludes padding).
func (tb *TextBlock) Measure() (width, height float64) {
	if tb.Font == nil || tb.Size <= 0 {
		return 0, 0
	}
	// Measure at a fixed raster size and scale back, so results are
	// independent of the current cache.
	const ref = 64.0
	w, h := tb.Font.MeasureString(tb.Content, ref, tb.LetterSpacing)
	return w / ref * tb.Size, h / ref * tb.Size
}

// Bounds returns the text box rectangle relative to the anchor point, in
// block units with Y up: left, bottom, right, top. The box is vertically
// centered on the anchor.
func (tb *TextBlock) Bounds() (left, bottom, right, top float64) {
	w, h := tb.Measure()
	left = anchorOffset(tb.Anchor, w)
	return left, -h / 2, left + w, h / 2
}

// anchorOffset returns the x offset of the box's left edge from its anchor
// point for a box of the given width.
func anchorOffset(a AnchorX, width float64) float64 {
	switch a {
	case AnchorLeft:
		return 0
	case AnchorRight:
		return -width
	default:
		return -width / 2
	}
}

// rasterize renders the block at ppu pixels per block unit and returns the
// cached image, re-rendering only when content or raster size changed.
// Returns nil when there is nothing to draw.
func (tb *TextBlock) rasterize(ppu float64) *ebiten.Image {
	if tb.Font == nil || tb.Size <= 0 || ppu <= 0 || tb.Content == "" {
		return nil
	}
	// Quantize so sub-pixel viewport changes don't thrash the cache.
	px := math.Round(tb.Size*ppu*4) / 4
	if px < 1 {
		return nil
	}
	if tb.image != nil && tb.imagePx == px && tb.imageKey == tb.Content && tb.imageColor == tb.Color {
		return tb.image
	}

	face := tb.Font.Face(px)
	lh := tb.Font.LineHeight(px)
	spacing := tb.LetterSpacing * px
	lines := strings.Split(tb.Content, "\n")

	tb.boxW, tb.boxH = tb.Font.MeasureString(tb.Content, px, tb.LetterSpacing)
	tb.pad = math.Ceil(px * 0.1)
	w := int(math.Ceil(tb.boxW+2*tb.pad)) + 1
	h := int(math.Ceil(tb.boxH+2*tb.pad)) + 1

	if tb.image != nil {
		if b := tb.image.Bounds(); b.Dx() != w || b.Dy() != h {
			tb.image.Deallocate()
			tb.image = ebiten.NewImage(w, h)
		} else {
			tb.image.Clear()
		}
	} else {
		tb.image = ebiten.NewImage(w, h)
	}

	op := &ebiten.DrawImageOptions{}
	for li, line := range lines {
		tb.glyphs = text.AppendGlyphs(tb.glyphs[:0], line, face, nil)
		for _, g := range tb.glyphs {
			if g.Image == nil {
				continue
			}
			// Tracking shifts each glyph by its rune index within the line.
			idx := utf8.RuneCountInString(line[:g.StartIndexInBytes])
			op.GeoM.Reset()
			op.GeoM.Translate(g.X+spacing*float64(idx)+tb.pad, g.Y+lh*float64(li)+tb.pad)
			op.ColorScale.Reset()
			op.ColorScale.ScaleWithColor(tb.Color.toRGBA())
			op.Filter = ebiten.FilterLinear
			tb.image.DrawImage(g.Image, op)
		}
	}

	tb.imagePx = px
	tb.imageKey = tb.Content
	tb.imageColor = tb.Color
	tb.upp = tb.Size / px
	return tb.image
}

// rasterRect returns where the cached image sits relative to the anchor
// point, in block units with Y up: left edge, top edge, width, height.
// Only valid after rasterize returned a non-nil image.
func (tb *TextBlock) rasterRect() (left, top, width, height float64) {
	if tb.image == nil {
		return 0, 0, 0, 0
	}
	b := tb.image.Bounds()
	width = float64(b.Dx()) * tb.upp
	height = float64(b.Dy()) * tb.upp
	pad := tb.pad * tb.upp
	left = anchorOffset(tb.Anchor, tb.boxW*tb.upp) - pad
	top = tb.boxH*tb.upp/2 + pad
	return left, top, width, height
}

// padding returns the cached image's margin around the text box, in block
// units.
func (tb *TextBlock) padding() float64 {
	return tb.pad * tb.upp
}

// Dispose releases the rasterization cache.
func (tb *TextBlock) Dispose() {
	if tb.image != nil {
		tb.image.Deallocate()
		tb.image = nil
	}
	tb.imagePx = 0
	tb.imageKey = ""
	tb.upp = 0
	tb.glyphs = nil
}
