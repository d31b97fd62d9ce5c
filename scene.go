package refract

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

const defaultCommandCap = 64

// Scene owns a node tree and the buffers used to draw it through a
// perspective camera.
type Scene struct {
	root  *Node
	debug bool

	commands   []RenderCommand
	sortBuf    []RenderCommand
	cullBounds Rect
	cullActive bool
	rasterOp   ebiten.DrawImageOptions

	lastStats debugStats
}

// NewScene creates a new scene with a pre-created root group.
func NewScene() *Scene {
	return &Scene{
		root:     NewGroup("root"),
		commands: make([]RenderCommand, 0, defaultCommandCap),
		sortBuf:  make([]RenderCommand, 0, defaultCommandCap),
	}
}

// Root returns the scene's root group.
func (s *Scene) Root() *Node {
	return s.root
}

// Draw projects every visible node through cam, sorts the resulting planes
// far to near, and draws them into target. Planes entirely off target are
// skipped when cull is true.
func (s *Scene) Draw(target *ebiten.Image, cam *Camera, cull bool) {
	s.commands = s.commands[:0]
	if target == nil || cam == nil {
		return
	}
	w, h := cam.Size()
	if w <= 0 || h <= 0 {
		return
	}
	s.cullActive = cull
	s.cullBounds = Rect{Width: w, Height: h}

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	treeOrder := 0
	s.traverse(s.root, mgl64.Vec3{}, cam, &treeOrder)

	if s.debug {
		stats.traverseTime = time.Since(t0)
		t0 = time.Now()
	}

	s.mergeSort()

	if s.debug {
		stats.sortTime = time.Since(t0)
		stats.commandCount = len(s.commands)
		t0 = time.Now()
	}

	s.submit(target)

	if s.debug {
		stats.submitTime = time.Since(t0)
		s.lastStats = stats
	}
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics and per-frame timing stats are recorded.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply.
var globalDebug bool

// Commands returns the commands emitted by the last Draw, in draw order.
// The returned slice MUST NOT be mutated.
func (s *Scene) Commands() []RenderCommand {
	return s.commands
}

// Node returns the node a command draws.
func (c RenderCommand) Node() *Node {
	return c.node
}

// Depth returns the command's view-space distance.
func (c RenderCommand) Depth() float64 {
	return c.depth
}

// Dispose disposes the whole tree.
func (s *Scene) Dispose() {
	s.root.Dispose()
	s.commands = s.commands[:0]
}
