package refract

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// Asset file names read from Config.Assets.
const (
	LensModelFile = "lens-transformed.glb"
	LensMeshName  = "Cylinder"
	LabelFontFile = "Inter-Regular.ttf"
)

// Procedural lens used when FallbackLens is set and the model fails.
const (
	fallbackLensRadius   = 1
	fallbackLensHeight   = 0.2
	fallbackLensSegments = 64
)

// CameraConfig places the perspective camera.
type CameraConfig struct {
	Position mgl64.Vec3
	// FOV is the vertical field of view in degrees.
	FOV float64
}

// Config configures a Promo. Zero fields take the values of DefaultConfig.
type Config struct {
	Title         string
	Width, Height int

	Camera CameraConfig
	Scroll ScrollConfig
	Lens   LensConfig
	Loader LoaderConfig

	// Assets holds the model, images and font. Defaults to the working
	// directory.
	Assets fs.FS
	// FallbackLens draws a procedural cylinder when the lens model cannot
	// be loaded. Without it the lens stays hidden.
	FallbackLens bool

	Debug         bool
	ShowFPS       bool
	ScreenshotDir string
}

// DefaultConfig returns the promo page configuration.
func DefaultConfig() Config {
	return Config{
		Title:  "refract",
		Width:  1280,
		Height: 720,
		Camera: CameraConfig{Position: mgl64.Vec3{0, 0, 20}, FOV: 15},
		Scroll: ScrollConfig{Pages: 3, Distance: 0.5, Damping: 0.2, WheelStep: 100},
		Lens:   LensConfig{}.withDefaults(),
		Loader: LoaderConfig{}.withDefaults(),

		ScreenshotDir: DefaultScreenshotDir,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Title == "" {
		c.Title = def.Title
	}
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.Camera.Position == (mgl64.Vec3{}) {
		c.Camera.Position = def.Camera.Position
	}
	if c.Camera.FOV <= 0 {
		c.Camera.FOV = def.Camera.FOV
	}
	if c.Scroll.Pages <= 0 {
		c.Scroll.Pages = def.Scroll.Pages
	}
	if c.Scroll.Distance <= 0 {
		c.Scroll.Distance = def.Scroll.Distance
	}
	if c.Scroll.Damping == 0 {
		c.Scroll.Damping = def.Scroll.Damping
	}
	c.Scroll = c.Scroll.withDefaults()
	c.Lens = c.Lens.withDefaults()
	c.Loader = c.Loader.withDefaults()
	if c.Assets == nil {
		c.Assets = os.DirFS(".")
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = def.ScreenshotDir
	}
	return c
}

var (
	fallbackFontOnce sync.Once
	fallbackFont     *TTFFont
)

// defaultFont returns the Go Regular font, parsed once.
func defaultFont() *TTFFont {
	fallbackFontOnce.Do(func() {
		f, err := LoadTTFFont(goregular.TTF)
		if err != nil {
			panic(fmt.Sprintf("refract: embedded font: %v", err))
		}
		fallbackFont = f
	})
	return fallbackFont
}

// Promo is the scroll-driven lens page. It implements ebiten.Game.
//
// Scene layout: the lens composites a portal scene holding the scroll
// layer (typography, then images); the caption is drawn over the result.
type Promo struct {
	cfg Config

	camera  *Camera
	scroll  *ScrollDriver
	loader  *Loader
	portal  *Scene
	content *Content
	lens    *Lens
	caption *Caption

	renderer Renderer
	input    inputState
	runner   *TestRunner
	fps      *fpsWidget

	screenshotQueue []string

	mounted   bool
	preloaded bool
	cancel    context.CancelFunc

	fallbackFontUsed bool
	fallbackLensUsed bool

	debug   bool
	stats   frameStats
	frame   int
	drawErr error
}

// New builds a promo from cfg. Nothing loads until Mount.
func New(cfg Config) *Promo {
	cfg = cfg.withDefaults()
	p := &Promo{cfg: cfg}

	p.camera = NewCamera(cfg.Camera.Position, cfg.Camera.FOV)
	p.camera.SetSize(float64(cfg.Width), float64(cfg.Height))
	p.scroll = NewScrollDriver(cfg.Scroll, float64(cfg.Height))

	p.portal = NewScene()
	p.content = NewContent(PromoPanels, PromoLabels)
	p.portal.Root().AddChild(p.content.Root())
	p.lens = NewLens(cfg.Lens, p.portal)
	p.caption = NewCaption(PromoCaption, nil)

	p.loader = NewLoader(cfg.Assets, cfg.Loader)
	for i := range p.content.NumPanels() {
		p.loader.Image(p.content.PanelImage(i))
	}
	p.loader.Model(LensModelFile, LensMeshName)
	p.loader.Font(LabelFontFile)

	p.content.Layout(p.camera)
	p.SetDebugMode(cfg.Debug)
	return p
}

// Config returns the effective configuration.
func (p *Promo) Config() Config { return p.cfg }

// Camera returns the scene camera.
func (p *Promo) Camera() *Camera { return p.camera }

// Scroll returns the scroll driver.
func (p *Promo) Scroll() *ScrollDriver { return p.scroll }

// Content returns the scroll layer.
func (p *Promo) Content() *Content { return p.content }

// Lens returns the lens compositor.
func (p *Promo) Lens() *Lens { return p.lens }

// Caption returns the screen-space caption.
func (p *Promo) Caption() *Caption { return p.caption }

// Loader returns the asset loader.
func (p *Promo) Loader() *Loader { return p.loader }

// Pointer returns the pointer in NDC as of the last Update.
func (p *Promo) Pointer() Vec2 { return p.input.Pointer() }

// Mounted reports whether the promo is between Mount and Unmount.
func (p *Promo) Mounted() bool { return p.mounted }

// Mount starts loading assets and enables Update and Draw. Assets attach to
// their nodes as they become ready; until then those nodes draw nothing.
func (p *Promo) Mount(ctx context.Context) {
	if p.mounted {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.mounted = true
	p.preloaded = false
	p.fallbackFontUsed = false
	p.fallbackLensUsed = false

	for i := range p.content.NumPanels() {
		p.loader.Get(p.content.PanelImage(i)).OnReady(func(a *Asset) {
			p.content.SetTexture(i, a.Image)
		})
	}
	p.loader.Get(LensModelFile).OnReady(func(a *Asset) {
		p.lens.SetGeometry(a.Geometry)
	})
	p.loader.Get(LabelFontFile).OnReady(func(a *Asset) {
		p.setFont(a.Font)
	})
	p.loader.Start(ctx)

	if p.cfg.ShowFPS && p.fps == nil {
		p.fps = newFPSWidget()
	}
}

// Unmount cancels loading and releases every GPU resource. The promo can
// be mounted again.
func (p *Promo) Unmount() {
	if !p.mounted {
		return
	}
	p.cancel()
	p.loader.Dispose()

	for i := range p.content.NumPanels() {
		p.content.SetTexture(i, nil)
	}
	p.setFont(nil)
	p.content.releaseText()
	p.caption.Dispose()
	p.lens.SetGeometry(nil)
	p.lens.Dispose()
	if p.fps != nil {
		p.fps.dispose()
		p.fps = nil
	}
	p.screenshotQueue = p.screenshotQueue[:0]
	p.mounted = false
}

func (p *Promo) setFont(f *TTFFont) {
	p.content.SetFont(f)
	p.caption.Block.Font = f
}

// applyFallbacks substitutes built-in resources for failed assets.
func (p *Promo) applyFallbacks() {
	if !p.fallbackFontUsed && p.loader.Get(LabelFontFile).State == AssetFailed {
		p.fallbackFontUsed = true
		_, _ = fmt.Fprintf(os.Stderr, "[refract] %s unavailable, using Go Regular\n", LabelFontFile)
		p.setFont(defaultFont())
	}
	if p.cfg.FallbackLens && !p.fallbackLensUsed && p.loader.Get(LensModelFile).State == AssetFailed {
		p.fallbackLensUsed = true
		_, _ = fmt.Fprintf(os.Stderr, "[refract] %s unavailable, using a procedural cylinder\n", LensModelFile)
		p.lens.SetGeometry(NewCylinderGeometry(fallbackLensRadius, fallbackLensHeight, fallbackLensSegments))
	}
}

// SetDebugMode enables per-frame timing stats, the on-screen state readout
// and disposed-node checks.
func (p *Promo) SetDebugMode(enabled bool) {
	p.debug = enabled
	p.portal.SetDebugMode(enabled)
}

// SetTestRunner attaches a scripted input runner. While attached, real
// pointer, wheel and keyboard input is ignored.
func (p *Promo) SetTestRunner(r *TestRunner) {
	p.runner = r
}

// InjectPointer queues a pointer move to screen coordinates (x, y).
func (p *Promo) InjectPointer(x, y float64) {
	p.input.InjectPointer(x, y)
}

// InjectPointerPath queues a pointer sweep in screen coordinates, one move
// per frame.
func (p *Promo) InjectPointerPath(fromX, fromY, toX, toY float64, frames int) {
	p.input.InjectPointerPath(fromX, fromY, toX, toY, frames)
}

// InjectScroll queues a jump to the normalized scroll offset.
func (p *Promo) InjectScroll(offset float64) {
	p.input.InjectScroll(offset)
}

// frameDelta is the fixed tick length Update advances by.
func frameDelta() float64 {
	tps := ebiten.TPS()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	return 1 / float64(tps)
}

// Update implements ebiten.Game.
func (p *Promo) Update() error {
	if !p.mounted {
		return nil
	}
	var t0 time.Time
	if p.debug {
		t0 = time.Now()
	}

	p.pollInput()
	p.Step(frameDelta())

	if p.debug {
		p.stats.updateTime = time.Since(t0)
	}
	return nil
}

func (p *Promo) pollInput() {
	w, h := p.camera.Size()
	if p.runner != nil {
		p.runner.step(p)
	}
	if p.input.processInjected(p.scroll, w, h) || p.runner != nil {
		return
	}
	p.input.pollPointer(w, h)
	p.input.pollScroll(p.scroll)
}

// Step advances the promo by dt seconds without reading input devices:
// finished assets are attached, scroll damping runs, panel states and the
// lens position are recomputed.
func (p *Promo) Step(dt float64) {
	if p.loader.Poll() > 0 {
		p.applyFallbacks()
	}
	p.scroll.Update(dt)
	vp := p.camera.ViewportAt(mgl64.Vec3{})
	p.content.Update(p.scroll, vp.Height)
	p.lens.Update(p.input.Pointer(), p.camera, dt)
	if p.fps != nil {
		p.fps.update(dt)
	}
}

// Preload draws the portal once with culling disabled so every texture,
// label raster and shader exists before the first visible frame. Draw
// calls it once all assets have settled.
func (p *Promo) Preload() {
	p.preloaded = true
	ensureImageShader()
	ensureTransmissionShader()

	w, h := p.camera.Size()
	if w <= 0 || h <= 0 {
		return
	}
	scratch := NewRenderTexture(int(w), int(h))
	defer scratch.Dispose()
	scratch.Fill(p.lens.Config().ClearColor)
	p.portal.Draw(scratch.Image(), p.camera, false)
	p.caption.Block.rasterize(1)
}

// Draw implements ebiten.Game.
func (p *Promo) Draw(screen *ebiten.Image) {
	if !p.mounted {
		screen.Fill(p.lens.Config().ClearColor.toRGBA())
		return
	}
	if !p.preloaded && p.loader.Pending() == 0 {
		p.Preload()
	}

	var t0 time.Time
	if p.debug {
		t0 = time.Now()
	}

	p.renderer.Begin(screen)
	if err := p.lens.Draw(&p.renderer, p.camera); err != nil && p.drawErr == nil {
		p.drawErr = err
		_, _ = fmt.Fprintf(os.Stderr, "[refract] lens: %v\n", err)
	}
	p.caption.Draw(screen, p.scroll.Offset(), p.scroll.Pages())

	if p.debug {
		ps := p.portal.lastStats
		p.stats.portal = ps
		p.stats.portalTime = ps.traverseTime + ps.sortTime + ps.submitTime
		p.stats.composeTime = time.Since(t0) - p.stats.portalTime
		p.frame++
		p.debugOverlay(screen)
		p.debugLog(p.frame)
	}
	if p.fps != nil {
		p.fps.draw(screen)
	}
	p.flushScreenshots(screen)
}

// Layout implements ebiten.Game. The scene follows the window size.
func (p *Promo) Layout(outsideWidth, outsideHeight int) (int, int) {
	p.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// Resize updates the camera, scroll extent and layout for a screen of
// width x height pixels.
func (p *Promo) Resize(width, height int) {
	w, h := p.camera.Size()
	if w == float64(width) && h == float64(height) {
		return
	}
	p.camera.SetSize(float64(width), float64(height))
	if width > 0 && height > 0 {
		p.scroll.SetViewportHeight(float64(height))
	}
	p.content.Layout(p.camera)
}

// Run opens a window, mounts the promo and runs it until the window
// closes.
func (p *Promo) Run(ctx context.Context) error {
	ebiten.SetWindowTitle(p.cfg.Title)
	ebiten.SetWindowSize(p.cfg.Width, p.cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	p.Mount(ctx)
	defer p.Unmount()
	return ebiten.RunGame(p)
}
