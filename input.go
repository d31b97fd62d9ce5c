package refract

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween/ease"
)

// Keyboard scroll timings, in seconds.
const (
	pageScrollDuration = 0.6
	edgeScrollDuration = 1.0
	// Held arrow keys repeat after this many ticks, every repeatInterval ticks.
	arrowRepeatDelay    = 20
	arrowRepeatInterval = 4
)

// PointerNDC maps a screen position in pixels to normalized device
// coordinates: (-1, -1) is the bottom-left corner, (1, 1) the top-right.
// A zero-size screen maps everything to the origin.
func PointerNDC(x, y, width, height float64) Vec2 {
	if width <= 0 || height <= 0 {
		return Vec2{}
	}
	return Vec2{
		X: x/width*2 - 1,
		Y: -(y/height*2 - 1),
	}
}

// inputState tracks the pointer and feeds wheel and keyboard input to the
// scroll driver. Injected events take priority over real devices.
type inputState struct {
	pointer     Vec2 // NDC
	touchIDs    []ebiten.TouchID
	injectQueue []syntheticEvent
}

// Pointer returns the pointer position in NDC as of the last poll.
func (in *inputState) Pointer() Vec2 {
	return in.pointer
}

// SetPointer overrides the pointer position in NDC.
func (in *inputState) SetPointer(p Vec2) {
	in.pointer = p
}

// pollPointer refreshes the pointer from the first active touch, or the
// mouse cursor when no touch is down.
func (in *inputState) pollPointer(width, height float64) {
	in.touchIDs = ebiten.AppendTouchIDs(in.touchIDs[:0])
	if len(in.touchIDs) > 0 {
		tx, ty := ebiten.TouchPosition(in.touchIDs[0])
		in.pointer = PointerNDC(float64(tx), float64(ty), width, height)
		return
	}
	mx, my := ebiten.CursorPosition()
	in.pointer = PointerNDC(float64(mx), float64(my), width, height)
}

// pollScroll forwards wheel and keyboard input to d.
func (in *inputState) pollScroll(d *ScrollDriver) {
	// Ebitengine reports wheel-up as positive; scrolling down the page is
	// the opposite sign.
	if _, wy := ebiten.Wheel(); wy != 0 {
		d.WheelNotches(-wy)
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown), inpututil.IsKeyJustPressed(ebiten.KeySpace):
		d.ScrollToPage(pageStep(d.Target(), d.Pages(), 1), pageScrollDuration, ease.InOutCubic)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		d.ScrollToPage(pageStep(d.Target(), d.Pages(), -1), pageScrollDuration, ease.InOutCubic)
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		d.ScrollTo(0, edgeScrollDuration, ease.OutQuad)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		d.ScrollTo(1, edgeScrollDuration, ease.OutQuad)
	}

	if keyRepeat(inpututil.KeyPressDuration(ebiten.KeyArrowDown)) {
		d.WheelNotches(1)
	}
	if keyRepeat(inpututil.KeyPressDuration(ebiten.KeyArrowUp)) {
		d.WheelNotches(-1)
	}
}

// pageStep returns the page index one step in dir from the page nearest
// the normalized offset, clamped to the page range.
func pageStep(offset, pages float64, dir int) int {
	last := int(math.Max(math.Round(pages)-1, 0))
	cur := int(math.Round(clamp01(offset) * float64(last)))
	return min(max(cur+dir, 0), last)
}

// keyRepeat reports whether a key held for ticks should fire this tick.
func keyRepeat(ticks int) bool {
	if ticks == 1 {
		return true
	}
	return ticks > arrowRepeatDelay && (ticks-arrowRepeatDelay)%arrowRepeatInterval == 0
}
