package refract

// syntheticEvent is a single injected input event. Pointer events use
// screen coordinates (matching what a reviewer sees in screenshots) and are
// converted to NDC like real cursor input.
type syntheticEvent struct {
	kind             syntheticKind
	screenX, screenY float64
	offset           float64
}

type syntheticKind uint8

const (
	syntheticPointer syntheticKind = iota
	syntheticScroll
)

// InjectPointer queues a pointer move to the given screen coordinates. The
// event is consumed on the next frame.
func (in *inputState) InjectPointer(x, y float64) {
	in.injectQueue = append(in.injectQueue, syntheticEvent{kind: syntheticPointer, screenX: x, screenY: y})
}

// InjectPointerPath queues a pointer sweep from (fromX, fromY) to (toX, toY)
// over frames frames, one move per frame, endpoints included. Minimum
// frames is 2.
func (in *inputState) InjectPointerPath(fromX, fromY, toX, toY float64, frames int) {
	frames = max(frames, 2)
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(frames-1)
		in.InjectPointer(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
}

// InjectScroll queues a jump to the normalized scroll offset. Consumes one
// frame.
func (in *inputState) InjectScroll(offset float64) {
	in.injectQueue = append(in.injectQueue, syntheticEvent{kind: syntheticScroll, offset: offset})
}

// pendingInjections reports how many injected events are still queued.
func (in *inputState) pendingInjections() int {
	return len(in.injectQueue)
}

// processInjected pops one event from the inject queue and applies it.
// Returns true if an event was consumed (real pointer input should be
// skipped this frame).
func (in *inputState) processInjected(d *ScrollDriver, width, height float64) bool {
	if len(in.injectQueue) == 0 {
		return false
	}
	evt := in.injectQueue[0]
	copy(in.injectQueue, in.injectQueue[1:])
	in.injectQueue = in.injectQueue[:len(in.injectQueue)-1]

	switch evt.kind {
	case syntheticPointer:
		in.pointer = PointerNDC(evt.screenX, evt.screenY, width, height)
	case syntheticScroll:
		if d != nil {
			d.SetOffset(evt.offset)
		}
	}
	return true
}
