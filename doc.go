// Package refract renders a scroll-driven promotional page through a
// refractive lens for [Ebitengine].
//
// The page is a stack of image panels and text labels laid out in 3D in
// front of a perspective camera. Scrolling moves the page up past the camera
// and drives per-panel zoom and grayscale effects. A glass lens follows the
// pointer and bends whatever is behind it.
//
// # Quick start
//
// The simplest way to run the page is [Promo.Run], which opens a window and
// drives the game loop:
//
//	p := refract.New(refract.Config{
//		Assets: os.DirFS("assets"),
//	})
//	if err := p.Run(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//
// A [Promo] is an [ebiten.Game], so it can also be embedded in a custom
// loop after calling [Promo.Mount].
//
// # Assets
//
// The asset directory holds lens-transformed.glb (a binary glTF with a mesh
// or node named "Cylinder"), the panel images img1.jpg through img8.jpg
// (jpeg, png or webp) and Inter-Regular.ttf. A [Loader] decodes them on
// worker goroutines and attaches each one as it becomes ready; nodes whose
// asset is not ready yet draw nothing.
//
// # Rendering
//
// Each frame the [Lens] renders its portal [Scene] into an offscreen
// [RenderTexture], draws that buffer as the background, and draws the lens
// mesh with a [TransmissionMaterial] that samples the same buffer. Scene
// planes are sorted far to near; there is no depth buffer.
//
// # Scrolling
//
// [ScrollDriver] owns a damped scroll offset in [0, 1]. Content reads it
// through [ScrollDriver.Range], [ScrollDriver.Curve] and
// [ScrollDriver.Visible]. Wheel, PageUp/PageDown, Home/End and the arrow
// keys all move it; keyboard paging animates with [gween].
//
// # Debugging and visual tests
//
// [Promo.SetDebugMode] prints per-frame timings to stderr and overlays
// scroll and lens state. [LoadTestScript] builds a [TestRunner] that replays
// pointer moves, scroll jumps and screenshots from JSON.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package refract
