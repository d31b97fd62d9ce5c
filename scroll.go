package refract

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ScrollConfig configures a ScrollDriver. Zero fields take defaults.
type ScrollConfig struct {
	// Pages is the number of viewport heights of content. Default 1.
	Pages float64
	// Distance scales the scroll length: the scrollable extent is
	// Pages*Distance viewport heights minus one. Default 1.
	Distance float64
	// Damping is the smoothing time constant, in seconds, of the offset
	// following the raw scroll position. Default 0.25; negative disables
	// smoothing.
	Damping float64
	// WheelStep is the number of pixels scrolled per wheel notch. Default 100.
	WheelStep float64
}

func (c ScrollConfig) withDefaults() ScrollConfig {
	if c.Pages <= 0 {
		c.Pages = 1
	}
	if c.Distance <= 0 {
		c.Distance = 1
	}
	if c.Damping < 0 {
		c.Damping = 0
	} else if c.Damping == 0 {
		c.Damping = 0.25
	}
	if c.WheelStep <= 0 {
		c.WheelStep = 100
	}
	return c
}

// ScrollDriver owns a virtual scroll position over a fixed number of pages.
// The raw position (scrollTop, in pixels) moves with input; Offset follows
// it with damping and is what content reads through Range, Curve and
// Visible.
type ScrollDriver struct {
	cfg ScrollConfig

	containerH float64 // viewport height in pixels
	scrollTop  float64 // raw position in pixels, clamped to [0, extent]
	offset     float64 // damped normalized offset
	delta      float64 // |offset change| during the last Update

	tween *gween.Tween
}

// NewScrollDriver creates a driver for a viewport of the given pixel height.
func NewScrollDriver(cfg ScrollConfig, viewportHeight float64) *ScrollDriver {
	d := &ScrollDriver{cfg: cfg.withDefaults()}
	d.SetViewportHeight(viewportHeight)
	return d
}

// Config returns the effective configuration (defaults applied).
func (d *ScrollDriver) Config() ScrollConfig {
	return d.cfg
}

// Pages returns the configured page count.
func (d *ScrollDriver) Pages() float64 {
	return d.cfg.Pages
}

// SetViewportHeight updates the container height, keeping the normalized
// target offset stable across the resize. A non-positive height (a
// minimised window) is ignored so the position survives until the next
// real size.
func (d *ScrollDriver) SetViewportHeight(h float64) {
	if h <= 0 {
		return
	}
	target := d.Target()
	d.containerH = h
	d.scrollTop = target * d.Extent()
}

// Extent returns the scrollable length in pixels. Zero when the content
// fits in a single viewport.
func (d *ScrollDriver) Extent() float64 {
	e := d.containerH*d.cfg.Pages*d.cfg.Distance - d.containerH
	if e < 0 {
		return 0
	}
	return e
}

// ScrollTop returns the raw scroll position in pixels.
func (d *ScrollDriver) ScrollTop() float64 {
	return d.scrollTop
}

// Target returns the undamped normalized offset in [0, 1].
func (d *ScrollDriver) Target() float64 {
	e := d.Extent()
	if e == 0 {
		return 0
	}
	return clamp01(d.scrollTop / e)
}

// Offset returns the damped normalized offset in [0, 1].
func (d *ScrollDriver) Offset() float64 {
	return d.offset
}

// Delta returns how far Offset moved during the last Update.
func (d *ScrollDriver) Delta() float64 {
	return d.delta
}

// Scrolling reports whether an animated ScrollTo is in progress.
func (d *ScrollDriver) Scrolling() bool {
	return d.tween != nil
}

// Wheel scrolls by dy pixels (positive scrolls down). Cancels any
// animated scroll.
func (d *ScrollDriver) Wheel(dy float64) {
	d.tween = nil
	d.setScrollTop(d.scrollTop + dy)
}

// WheelNotches scrolls by n wheel notches of WheelStep pixels.
func (d *ScrollDriver) WheelNotches(n float64) {
	d.Wheel(n * d.cfg.WheelStep)
}

// ScrollTo animates the raw position to the normalized offset over duration
// seconds. A non-positive duration jumps immediately (Offset still damps).
func (d *ScrollDriver) ScrollTo(offset float64, duration float32, easeFn ease.TweenFunc) {
	to := clamp01(offset) * d.Extent()
	if duration <= 0 {
		d.tween = nil
		d.setScrollTop(to)
		return
	}
	if easeFn == nil {
		easeFn = ease.InOutCubic
	}
	d.tween = gween.New(float32(d.scrollTop), float32(to), duration, easeFn)
}

// ScrollToPage animates to the start of page (0-based).
func (d *ScrollDriver) ScrollToPage(page int, duration float32, easeFn ease.TweenFunc) {
	last := math.Max(d.cfg.Pages-1, 1)
	d.ScrollTo(float64(page)/last, duration, easeFn)
}

// SetOffset jumps both the raw and damped offsets, cancelling animation.
// Used by scripted runs and tests.
func (d *ScrollDriver) SetOffset(offset float64) {
	d.tween = nil
	d.setScrollTop(clamp01(offset) * d.Extent())
	d.delta = math.Abs(d.offset - clamp01(offset))
	d.offset = clamp01(offset)
}

func (d *ScrollDriver) setScrollTop(px float64) {
	d.scrollTop = math.Max(0, math.Min(px, d.Extent()))
}

// Update advances animated scrolling and damps Offset toward the raw
// position over dt seconds.
func (d *ScrollDriver) Update(dt float64) {
	if d.tween != nil {
		v, done := d.tween.Update(float32(dt))
		d.setScrollTop(float64(v))
		if done {
			d.tween = nil
		}
	}
	prev := d.offset
	d.offset = Damp(d.offset, d.Target(), d.cfg.Damping, dt)
	d.delta = math.Abs(d.offset - prev)
}

// Range returns how far Offset has advanced through the window
// [start, start+length]: 0 before it, 1 after it, linear within.
func (d *ScrollDriver) Range(start, length float64) float64 {
	return RangeAt(d.offset, start, length, 0)
}

// RangeMargin is Range with the window widened by margin on both sides.
func (d *ScrollDriver) RangeMargin(start, length, margin float64) float64 {
	return RangeAt(d.offset, start, length, margin)
}

// Curve returns sin(Range*π): 0 at both window edges, 1 in the middle.
func (d *ScrollDriver) Curve(start, length, margin float64) float64 {
	return math.Sin(RangeAt(d.offset, start, length, margin) * math.Pi)
}

// Visible reports whether Offset lies within the (margin-widened) window.
func (d *ScrollDriver) Visible(start, length, margin float64) bool {
	lo := start - margin
	hi := lo + length + margin*2
	return d.offset >= lo && d.offset <= hi
}

// ContentShift returns the vertical scene-space translation of the scroll
// layer for a viewport of the given scene-space height: content moves up by
// one viewport per page as Offset goes from 0 to 1.
func (d *ScrollDriver) ContentShift(viewportHeight float64) float64 {
	return viewportHeight * (d.cfg.Pages - 1) * d.offset
}

// RangeAt is the pure form of Range for an explicit offset. A zero-length
// window is a step at start.
func RangeAt(offset, start, length, margin float64) float64 {
	lo := start - margin
	hi := lo + length + margin*2
	switch {
	case offset < lo:
		return 0
	case offset >= hi:
		return 1
	}
	return (offset - lo) / (hi - lo)
}
