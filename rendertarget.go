package refract

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// RenderTexture is a persistent offscreen color buffer. It is owned by the
// caller and is reused across frames; its pixels are fully overwritten each
// time it is bound with a clear color.
type RenderTexture struct {
	image *ebiten.Image
	w, h  int
}

// NewRenderTexture creates an offscreen buffer of the given size. Sizes
// below 1 are raised to 1.
func NewRenderTexture(w, h int) *RenderTexture {
	w, h = max(w, 1), max(h, 1)
	return &RenderTexture{
		image: ebiten.NewImage(w, h),
		w:     w,
		h:     h,
	}
}

// Image returns the underlying *ebiten.Image for use as a texture input.
func (rt *RenderTexture) Image() *ebiten.Image {
	return rt.image
}

// Width returns the texture width in pixels.
func (rt *RenderTexture) Width() int {
	return rt.w
}

// Height returns the texture height in pixels.
func (rt *RenderTexture) Height() int {
	return rt.h
}

// Fill fills the entire texture with the given color.
func (rt *RenderTexture) Fill(c Color) {
	rt.image.Fill(c.toRGBA())
}

// Resize reallocates the texture if its size differs from (width, height).
// Reports whether a new image was allocated.
func (rt *RenderTexture) Resize(width, height int) bool {
	width, height = max(width, 1), max(height, 1)
	if rt.image != nil && rt.w == width && rt.h == height {
		return false
	}
	if rt.image != nil {
		rt.image.Deallocate()
	}
	rt.image = ebiten.NewImage(width, height)
	rt.w = width
	rt.h = height
	return true
}

// Dispose deallocates the underlying image. The RenderTexture should not be
// used after calling Dispose.
func (rt *RenderTexture) Dispose() {
	if rt.image != nil {
		rt.image.Deallocate()
		rt.image = nil
	}
}

// Renderer tracks which image draws currently go to. The screen is the
// bottom of a target stack; WithTarget pushes an offscreen buffer for the
// duration of a callback and always pops it afterwards.
type Renderer struct {
	screen *ebiten.Image
	stack  []*ebiten.Image
}

// Begin starts a frame that draws to screen. Any targets left bound by a
// previous frame are discarded.
func (r *Renderer) Begin(screen *ebiten.Image) {
	r.screen = screen
	r.stack = r.stack[:0]
}

// Target returns the image draws should currently go to.
func (r *Renderer) Target() *ebiten.Image {
	if n := len(r.stack); n > 0 {
		return r.stack[n-1]
	}
	return r.screen
}

// Depth returns the number of offscreen targets currently bound.
func (r *Renderer) Depth() int {
	return len(r.stack)
}

// WithTarget binds rt, fills it with clear, runs fn with rt's image as the
// draw target, and restores the previous target. The restore happens even
// when fn returns an error or panics.
func (r *Renderer) WithTarget(rt *RenderTexture, clear Color, fn func(dst *ebiten.Image) error) (err error) {
	if rt == nil || rt.image == nil {
		return fmt.Errorf("refract: render target is not allocated")
	}
	depth := len(r.stack)
	r.stack = append(r.stack, rt.image)
	defer func() {
		r.stack = r.stack[:depth]
	}()
	rt.Fill(clear)
	return fn(rt.image)
}
