package refract

import (
	"encoding/json"
	"fmt"
)

// testStep represents a single action in a test script. Pointer
// coordinates are in NDC.
type testStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Offset float64 `json:"offset,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner sequences injected pointer moves, scroll jumps and
// screenshots across frames for automated visual testing. Attach to a
// Promo via SetTestRunner.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON test script and returns a TestRunner ready
// to be attached to a Promo via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "pointer", "sweep", "scroll", "wait", "screenshot":
		default:
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// ndcToScreen converts an NDC point to screen pixels, the inverse of
// PointerNDC.
func ndcToScreen(x, y, width, height float64) (float64, float64) {
	return (x + 1) / 2 * width, (1 - y) / 2 * height
}

// step advances the test runner by one frame. Called from Promo.Update.
func (r *TestRunner) step(p *Promo) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if p.input.pendingInjections() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	w, h := p.camera.Size()
	switch st.Action {
	case "screenshot":
		p.Screenshot(st.Label)
	case "pointer":
		p.InjectPointer(ndcToScreen(st.X, st.Y, w, h))
	case "sweep":
		fx, fy := ndcToScreen(st.FromX, st.FromY, w, h)
		tx, ty := ndcToScreen(st.ToX, st.ToY, w, h)
		p.InjectPointerPath(fx, fy, tx, ty, st.Frames)
	case "scroll":
		p.InjectScroll(st.Offset)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && p.input.pendingInjections() == 0 {
		r.done = true
	}
}
