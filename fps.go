package refract

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// 100x32 is enough for "FPS: 60.0\nTPS: 60.0".
const (
	fpsWidgetWidth  = 100
	fpsWidgetHeight = 32
)

// fpsWidget displays the current FPS and TPS in the top-left corner. The
// text is refreshed every ~0.5 seconds.
type fpsWidget struct {
	img     *ebiten.Image
	elapsed float64
	op      ebiten.DrawImageOptions
}

func newFPSWidget() *fpsWidget {
	w := &fpsWidget{img: ebiten.NewImage(fpsWidgetWidth, fpsWidgetHeight)}
	w.refresh()
	return w
}

func (w *fpsWidget) update(dt float64) {
	w.elapsed += dt
	if w.elapsed < 0.5 {
		return
	}
	w.elapsed = 0
	w.refresh()
}

func (w *fpsWidget) refresh() {
	w.img.Clear()
	// Semi-transparent background for readability
	w.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(w.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
}

func (w *fpsWidget) draw(screen *ebiten.Image) {
	screen.DrawImage(w.img, &w.op)
}

func (w *fpsWidget) dispose() {
	w.img.Deallocate()
}
