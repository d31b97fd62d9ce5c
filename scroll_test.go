package refract

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestRangeAtWindowEdges(t *testing.T) {
	tests := []struct {
		offset float64
		want   float64
	}{
		{0, 0},
		{1.0 / 6, 0.5},
		{1.0 / 3, 1},
		{0.9, 1},
	}
	for _, tt := range tests {
		got := RangeAt(tt.offset, 0, 1.0/3, 0)
		if !approxEqual(got, tt.want, 1e-9) {
			t.Errorf("RangeAt(%v, 0, 1/3) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestRangeAtContiguousWindows(t *testing.T) {
	// Three contiguous windows cover [0, 1]; each must be 0 before its
	// start, 1 after its end, and monotonic in between.
	windows := [][2]float64{{0, 1.0 / 3}, {1.0 / 3, 1.0 / 3}, {2.0 / 3, 1.0 / 3}}
	for _, w := range windows {
		prev := -1.0
		for i := 0; i <= 1000; i++ {
			off := float64(i) / 1000
			v := RangeAt(off, w[0], w[1], 0)
			if v < 0 || v > 1 {
				t.Fatalf("window %v offset %v: %v outside [0,1]", w, off, v)
			}
			if off < w[0] && v != 0 {
				t.Errorf("window %v offset %v before start: %v, want 0", w, off, v)
			}
			if off > w[0]+w[1] && v != 1 {
				t.Errorf("window %v offset %v after end: %v, want 1", w, off, v)
			}
			if v < prev {
				t.Fatalf("window %v: not monotonic at offset %v (%v < %v)", w, off, v, prev)
			}
			if prev >= 0 && v-prev > 0.01 {
				t.Fatalf("window %v: jump of %v at offset %v", w, v-prev, off)
			}
			prev = v
		}
	}
}

func TestRangeAtZeroLength(t *testing.T) {
	if got := RangeAt(0.49, 0.5, 0, 0); got != 0 {
		t.Errorf("before step = %v, want 0", got)
	}
	if got := RangeAt(0.5, 0.5, 0, 0); got != 1 {
		t.Errorf("at step = %v, want 1", got)
	}
}

func TestRangeAtMargin(t *testing.T) {
	// Window [0.4, 0.6] widened by 0.1 becomes [0.3, 0.7].
	if got := RangeAt(0.5, 0.4, 0.2, 0.1); !approxEqual(got, 0.5, 1e-9) {
		t.Errorf("centre with margin = %v, want 0.5", got)
	}
	if got := RangeAt(0.3, 0.4, 0.2, 0.1); !approxEqual(got, 0, 1e-9) {
		t.Errorf("widened start = %v, want 0", got)
	}
}

func TestScrollDriverDefaults(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{}, 600)
	cfg := d.Config()
	if cfg.Pages != 1 || cfg.Distance != 1 || cfg.Damping != 0.25 || cfg.WheelStep != 100 {
		t.Errorf("defaults = %+v", cfg)
	}
	if d.Extent() != 0 {
		t.Errorf("single page Extent = %v, want 0", d.Extent())
	}
	d.Wheel(500)
	if d.Target() != 0 {
		t.Errorf("single page Target after wheel = %v, want 0", d.Target())
	}
}

func TestScrollDriverExtent(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{Pages: 3, Distance: 0.5}, 800)
	// 800 * 3 * 0.5 - 800 = 400
	if d.Extent() != 400 {
		t.Errorf("Extent = %v, want 400", d.Extent())
	}
}

func TestScrollDriverWheelClamps(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{Pages: 3, Distance: 0.5}, 800)
	d.Wheel(100)
	if !approxEqual(d.Target(), 0.25, epsilon) {
		t.Errorf("Target after 100px = %v, want 0.25", d.Target())
	}
	d.Wheel(10000)
	if d.Target() != 1 {
		t.Errorf("Target after overscroll = %v, want 1", d.Target())
	}
	d.Wheel(-20000)
	if d.Target() != 0 {
		t.Errorf("Target after underscroll = %v, want 0", d.Target())
	}
}

func TestScrollDriverOffsetDampsTowardTarget(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{Pages: 3, Distance: 0.5, Damping: 0.2}, 800)
	d.Wheel(400)
	d.Update(1.0 / 60)
	first := d.Offset()
	if first <= 0 || first >= 1 {
		t.Fatalf("Offset after one frame = %v, want strictly between 0 and 1", first)
	}
	if !approxEqual(d.Delta(), first, epsilon) {
		t.Errorf("Delta = %v, want %v", d.Delta(), first)
	}
	for i := 0; i < 600; i++ {
		d.Update(1.0 / 60)
	}
	if !approxEqual(d.Offset(), 1, 1e-6) {
		t.Errorf("Offset after 10s = %v, want 1", d.Offset())
	}
}

func TestScrollDriverNegativeDampingSnaps(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{Pages: 2, Damping: -1}, 100)
	d.Wheel(50)
	d.Update(1.0 / 60)
	if !approxEqual(d.Offset(), 0.5, epsilon) {
		t.Errorf("Offset = %v, want 0.5 with smoothing disabled", d.Offset())
	}
}

func TestScrollDriverScrollToFinishes(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{Pages: 3, Damping: -1}, 100)
	d.ScrollTo(1, 0.5, ease.Linear)
	if !d.Scrolling() {
		t.Fatal("Scrolling = false right after ScrollTo")
	}
	for i := 0; i < 60 && d.Scrolling(); i++ {
		d.Update(1.0 / 60)
	}
	if d.Scrolling() {
		t.Fatal("tween did not finish within 1s")
	}
	if !approxEqual(d.Offset(), 1, 1e-6) {
		t.Errorf("Offset = %v, want 1", d.Offset())
	}
}

func TestScrollDriverWheelCancelsTween(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{Pages: 3}, 100)
	d.ScrollToPage(2, 1, nil)
	d.Wheel(10)
	if d.Scrolling() {
		t.Error("Wheel should cancel animated scroll")
	}
}

func TestScrollDriverSetOffsetAndRange(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{Pages: 3, Distance: 0.5}, 800)
	d.SetOffset(1.0 / 6)
	if !approxEqual(d.Range(0, 1.0/3), 0.5, 1e-9) {
		t.Errorf("Range(0, 1/3) = %v, want 0.5", d.Range(0, 1.0/3))
	}
	if !approxEqual(d.Curve(0, 1.0/3, 0), 1, 1e-9) {
		t.Errorf("Curve at window centre = %v, want 1", d.Curve(0, 1.0/3, 0))
	}
	if !d.Visible(0, 1.0/3, 0) {
		t.Error("Visible(0, 1/3) = false, want true")
	}
	if d.Visible(0.5, 0.1, 0) {
		t.Error("Visible(0.5, 0.1) = true, want false")
	}
}

func TestScrollDriverResizeKeepsTarget(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{Pages: 3, Distance: 0.5}, 800)
	d.Wheel(200)
	d.SetViewportHeight(1200)
	if !approxEqual(d.Target(), 0.5, epsilon) {
		t.Errorf("Target after resize = %v, want 0.5", d.Target())
	}
	if !approxEqual(d.ScrollTop(), 300, epsilon) {
		t.Errorf("ScrollTop after resize = %v, want 300", d.ScrollTop())
	}
}

func TestScrollDriverZeroHeightKeepsPosition(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{Pages: 3, Distance: 0.5}, 800)
	d.Wheel(200)
	d.SetViewportHeight(0)
	if d.Extent() != 400 {
		t.Errorf("Extent while minimised = %v, want 400", d.Extent())
	}
	d.SetViewportHeight(800)
	if !approxEqual(d.Target(), 0.5, epsilon) {
		t.Errorf("Target after restore = %v, want 0.5", d.Target())
	}
}

func TestScrollDriverContentShift(t *testing.T) {
	d := NewScrollDriver(ScrollConfig{Pages: 3}, 100)
	d.SetOffset(0.5)
	if got := d.ContentShift(4); !approxEqual(got, 4, epsilon) {
		t.Errorf("ContentShift = %v, want 4", got)
	}
}
