package refract

import (
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// debugStats holds per-draw timing for one scene.
// Only populated when Scene.debug is true.
type debugStats struct {
	traverseTime time.Duration
	sortTime     time.Duration
	submitTime   time.Duration
	commandCount int
}

// frameStats holds per-frame timing for the whole promo.
type frameStats struct {
	updateTime  time.Duration
	portalTime  time.Duration
	composeTime time.Duration
	portal      debugStats
}

func (fs frameStats) total() time.Duration {
	return fs.updateTime + fs.portalTime + fs.composeTime
}

// debugLogInterval is the number of frames between stderr stat lines.
const debugLogInterval = 60

// debugLog prints timing stats to stderr every debugLogInterval frames.
func (p *Promo) debugLog(frame int) {
	if !p.debug || frame%debugLogInterval != 0 {
		return
	}
	s := p.stats
	_, _ = fmt.Fprintf(os.Stderr,
		"[refract] update: %v | portal: %v | compose: %v | total: %v\n",
		s.updateTime, s.portalTime, s.composeTime, s.total())
	_, _ = fmt.Fprintf(os.Stderr,
		"[refract] portal traverse: %v | sort: %v | submit: %v | planes: %d\n",
		s.portal.traverseTime, s.portal.sortTime, s.portal.submitTime, s.portal.commandCount)
}

// debugOverlay prints scroll and lens state in the top-left corner.
func (p *Promo) debugOverlay(screen *ebiten.Image) {
	msg := fmt.Sprintf("offset %.3f  target %.3f  delta %.4f\nlens (%.2f, %.2f, %.2f)\nplanes %d  assets pending %d",
		p.scroll.Offset(), p.scroll.Target(), p.scroll.Delta(),
		p.lens.Position.X(), p.lens.Position.Y(), p.lens.Position.Z(),
		p.stats.portal.commandCount, p.loader.Pending())
	ebitenutil.DebugPrintAt(screen, msg, 4, fpsWidgetHeight+4)
}

// debugCheckDisposed panics with a descriptive message when a disposed node
// is used in a tree operation. Callers skip this outside debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("refract debug: %s on disposed node %q (ID was %d)", op, n.Name, n.ID))
	}
}
