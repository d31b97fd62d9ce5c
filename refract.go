package refract

import (
	"fmt"
	"strconv"
	"strings"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is opaque black, the label color.
var ColorBlack = Color{0, 0, 0, 1}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA" (the leading '#' is optional).
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("refract: invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("refract: invalid hex color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

// MustParseHexColor is like ParseHexColor but panics on malformed input.
// Intended for package-level constants.
func MustParseHexColor(s string) Color {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// toRGBA converts a Color to a premultiplied colorRGBA.
func (c Color) toRGBA() colorRGBA {
	return colorRGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// colorRGBA implements the color.Color interface for image.Fill.
type colorRGBA struct {
	R, G, B, A uint8
}

func (c colorRGBA) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = uint32(c.A) * 0x101
	return
}

// Vec2 is a 2D vector used for pointer coordinates and plane scales.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in screen pixels. Origin top-left,
// Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Viewport is the size of the visible plane, in scene units, at some
// distance from the camera. It is derived per frame and never stored.
type Viewport struct {
	Width, Height float64
	// Factor is screen pixels per scene unit at that distance.
	Factor float64
	// Distance is the camera-to-target distance the viewport was computed at.
	Distance float64
}

// Degenerate reports whether the viewport has no area. Derived positions
// must not be computed from a degenerate viewport.
func (v Viewport) Degenerate() bool {
	return !(v.Width > 0) || !(v.Height > 0)
}

// AnchorX selects which horizontal edge of a label sits at its position.
type AnchorX uint8

const (
	AnchorCenter AnchorX = iota // horizontally centered on the position (default)
	AnchorLeft                  // left edge at the position
	AnchorRight                 // right edge at the position
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
