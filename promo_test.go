package refract

import (
	"bytes"
	"context"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/qmuntal/gltf"
	"golang.org/x/image/font/gofont/goregular"
)

func encodeTestGLB(t *testing.T, doc *gltf.Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		t.Fatalf("encode glb: %v", err)
	}
	return buf.Bytes()
}

// newTestAssets returns a complete asset directory for the promo.
func newTestAssets(t *testing.T) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{
		LensModelFile: {Data: encodeTestGLB(t, newTestDocument(LensMeshName, "", true))},
		LabelFontFile: {Data: goregular.TTF},
	}
	png := encodeTestPNG(t, 8, 8)
	for _, def := range PromoPanels {
		fsys[def.Image] = &fstest.MapFile{Data: png}
	}
	return fsys
}

func newTestPromo(t *testing.T, fsys fstest.MapFS) *Promo {
	t.Helper()
	p := New(Config{
		Width:         80,
		Height:        60,
		Assets:        fsys,
		ScreenshotDir: t.TempDir(),
	})
	t.Cleanup(p.Unmount)
	return p
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Camera.Position != (mgl64.Vec3{0, 0, 20}) || cfg.Camera.FOV != 15 {
		t.Errorf("camera = %+v, want (0,0,20) fov 15", cfg.Camera)
	}
	if cfg.Scroll.Pages != 3 || cfg.Scroll.Distance != 0.5 || cfg.Scroll.Damping != 0.2 {
		t.Errorf("scroll = %+v, want pages 3 distance 0.5 damping 0.2", cfg.Scroll)
	}
	if cfg.Lens.Damping != 0.15 || cfg.Lens.DistortionScale != 0.5 {
		t.Errorf("lens = %+v", cfg.Lens)
	}
}

func TestConfigWithDefaultsKeepsOverrides(t *testing.T) {
	cfg := Config{Width: 640, Lens: LensConfig{Damping: 0.3}}.withDefaults()
	if cfg.Width != 640 || cfg.Height != 720 {
		t.Errorf("size = %dx%d, want 640x720", cfg.Width, cfg.Height)
	}
	if cfg.Lens.Damping != 0.3 || cfg.Lens.Depth != 15 {
		t.Errorf("lens = %+v, want damping 0.3 depth 15", cfg.Lens)
	}
	if cfg.Scroll.Pages != 3 {
		t.Errorf("pages = %v, want 3", cfg.Scroll.Pages)
	}
	if cfg.Assets == nil || cfg.ScreenshotDir != DefaultScreenshotDir {
		t.Error("Assets and ScreenshotDir should default")
	}
}

func TestPromoTree(t *testing.T) {
	p := newTestPromo(t, fstest.MapFS{})
	scroll := p.Lens().Portal().Root().ChildAt(0)
	if scroll != p.Content().Root() {
		t.Fatal("portal root should hold the scroll layer")
	}
	if scroll.ChildAt(0).Name != "typography" || scroll.ChildAt(1).Name != "images" {
		t.Errorf("scroll children = %q, %q, want typography, images",
			scroll.ChildAt(0).Name, scroll.ChildAt(1).Name)
	}
	if got := len(p.Loader().Assets()); got != len(PromoPanels)+2 {
		t.Errorf("registered %d assets, want %d", got, len(PromoPanels)+2)
	}
}

func TestPromoMountAttachesAssets(t *testing.T) {
	p := newTestPromo(t, newTestAssets(t))
	p.Mount(context.Background())
	if err := p.Loader().Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	for i := range p.Content().NumPanels() {
		if p.Content().Panel(i).Material.Texture == nil {
			t.Errorf("panel %d has no texture", i)
		}
	}
	if !p.Lens().Ready() {
		t.Error("lens geometry not attached")
	}
	if p.Caption().Block.Font == nil || p.Content().Label(0).TextBlock.Font == nil {
		t.Error("font not attached to caption and labels")
	}
}

func TestPromoFallbacks(t *testing.T) {
	p := New(Config{Width: 80, Height: 60, Assets: fstest.MapFS{}, FallbackLens: true})
	defer p.Unmount()
	p.Mount(context.Background())
	p.Loader().waitWorkers()
	p.Step(1.0 / 60)

	if !p.Lens().Ready() {
		t.Error("missing model should fall back to a procedural lens")
	}
	if p.Content().Label(0).TextBlock.Font != defaultFont() {
		t.Error("missing font should fall back to Go Regular")
	}
	if p.Content().Panel(0).Material.Texture != nil {
		t.Error("missing image should leave the panel untextured")
	}
}

func TestPromoMissingModelWithoutFallback(t *testing.T) {
	p := newTestPromo(t, fstest.MapFS{})
	p.Mount(context.Background())
	p.Loader().waitWorkers()
	p.Step(1.0 / 60)
	if p.Lens().Ready() {
		t.Error("lens should stay hidden without FallbackLens")
	}
	if p.Loader().Get(LensModelFile).State != AssetFailed {
		t.Errorf("model state = %v, want failed", p.Loader().Get(LensModelFile).State)
	}
}

func TestPromoUnmountReleases(t *testing.T) {
	p := newTestPromo(t, newTestAssets(t))
	p.Mount(context.Background())
	_ = p.Loader().Wait()
	p.Unmount()

	if p.Mounted() {
		t.Error("Mounted after Unmount")
	}
	if p.Lens().Ready() || p.Content().Panel(0).Material.Texture != nil {
		t.Error("Unmount should detach lens geometry and textures")
	}
	for _, a := range p.Loader().Assets() {
		if a.State != AssetUnloaded {
			t.Errorf("asset %s state = %v, want unloaded", a.Name, a.State)
		}
	}

	// Mounting again reloads everything.
	p.Mount(context.Background())
	_ = p.Loader().Wait()
	if !p.Lens().Ready() || p.Content().Panel(0).Material.Texture == nil {
		t.Error("remount should reattach assets")
	}
}

func TestPromoStepScrollsContent(t *testing.T) {
	p := newTestPromo(t, fstest.MapFS{})
	p.Mount(context.Background())
	p.Scroll().SetOffset(1)
	p.Step(1.0 / 60)

	h := p.Camera().ViewportAt(mgl64.Vec3{}).Height
	if !approxEqual(p.Content().Shift(), 2*h, 1e-9) {
		t.Errorf("shift = %v, want %v", p.Content().Shift(), 2*h)
	}
	if got := p.Content().PanelState(5).Grayscale; got != 0 {
		t.Errorf("panel 5 grayscale at bottom = %v, want 0", got)
	}
}

func TestPromoStepMovesLens(t *testing.T) {
	p := newTestPromo(t, newTestAssets(t))
	p.Mount(context.Background())
	_ = p.Loader().Wait()

	p.input.SetPointer(Vec2{1, 1})
	for range 240 {
		p.Step(1.0 / 60)
	}
	vp := p.Camera().ViewportAt(mgl64.Vec3{0, 0, 15})
	want := mgl64.Vec3{vp.Width / 2, vp.Height / 2, 15}
	if !p.Lens().Position.ApproxEqualThreshold(want, 1e-4) {
		t.Errorf("lens at %v, want %v", p.Lens().Position, want)
	}
}

func TestPromoResize(t *testing.T) {
	p := newTestPromo(t, fstest.MapFS{})
	w, h := p.Layout(160, 90)
	if w != 160 || h != 90 {
		t.Errorf("Layout = %dx%d, want 160x90", w, h)
	}
	if cw, ch := p.Camera().Size(); cw != 160 || ch != 90 {
		t.Errorf("camera size = %vx%v, want 160x90", cw, ch)
	}
	vp := p.Camera().ViewportAt(mgl64.Vec3{})
	if !approxEqual(p.Content().Panel(0).Scale.X, vp.Width/2, 1e-9) {
		t.Error("panels should be laid out again on resize")
	}
}

func TestPromoMinimisedKeepsScroll(t *testing.T) {
	p := newTestPromo(t, fstest.MapFS{})
	p.Mount(context.Background())
	p.Scroll().SetOffset(0.5)

	p.Layout(80, 0)
	for range 30 {
		p.Step(1.0 / 60)
	}
	p.Layout(80, 60)
	p.Step(1.0 / 60)

	if !approxEqual(p.Scroll().Target(), 0.5, epsilon) {
		t.Errorf("Target after restore = %v, want 0.5", p.Scroll().Target())
	}
	if !approxEqual(p.Scroll().Offset(), 0.5, epsilon) {
		t.Errorf("Offset after restore = %v, want 0.5", p.Scroll().Offset())
	}
}

func TestPromoRemountDoesNotStackCallbacks(t *testing.T) {
	p := newTestPromo(t, fstest.MapFS{})
	for range 3 {
		p.Mount(context.Background())
		_ = p.Loader().Wait()
		p.Unmount()
	}
	for _, a := range p.Loader().Assets() {
		if len(a.onReady) != 0 {
			t.Errorf("asset %s has %d pending callbacks after unmount", a.Name, len(a.onReady))
		}
	}
}

func TestPromoUnmountedIsInert(t *testing.T) {
	p := newTestPromo(t, fstest.MapFS{})
	screen := ebiten.NewImage(4, 4)
	defer screen.Deallocate()
	if err := p.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	p.Draw(screen)
	if p.preloaded || p.Lens().Buffer() != nil {
		t.Error("an unmounted promo should not render the scene")
	}
}

func TestPromoDrawPreloads(t *testing.T) {
	p := newTestPromo(t, newTestAssets(t))
	p.Mount(context.Background())
	_ = p.Loader().Wait()
	p.Step(1.0 / 60)

	screen := ebiten.NewImage(80, 60)
	defer screen.Deallocate()
	p.Draw(screen)

	if !p.preloaded {
		t.Error("Draw should preload once assets settle")
	}
	if p.Content().Label(0).TextBlock.image == nil {
		t.Error("preload should rasterize labels")
	}
	if b := p.Lens().Buffer(); b == nil || b.Width() != 80 {
		t.Error("lens buffer not allocated at screen size")
	}
}

func TestPromoDrawWaitsForAssets(t *testing.T) {
	p := newTestPromo(t, newTestAssets(t))
	p.Mount(context.Background())

	screen := ebiten.NewImage(80, 60)
	defer screen.Deallocate()
	// Nothing has been polled yet, so every asset is still pending.
	p.Draw(screen)
	if p.preloaded {
		t.Error("preload should wait for pending assets")
	}
}
