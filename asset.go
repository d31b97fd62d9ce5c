package refract

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for panel textures
	_ "image/png"
	"io/fs"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// AssetState is the load lifecycle of a single asset. Components that
// depend on an asset do nothing until it is Ready.
type AssetState uint8

const (
	AssetUnloaded AssetState = iota
	AssetLoading
	AssetReady
	AssetFailed
)

func (s AssetState) String() string {
	switch s {
	case AssetUnloaded:
		return "unloaded"
	case AssetLoading:
		return "loading"
	case AssetReady:
		return "ready"
	case AssetFailed:
		return "failed"
	}
	return fmt.Sprintf("AssetState(%d)", s)
}

// AssetKind selects how an asset file is decoded.
type AssetKind uint8

const (
	AssetImage AssetKind = iota
	AssetModel
	AssetFont
)

// Asset is one file tracked by a Loader. Fields other than Name and Kind
// are only valid once State is Ready (or Failed, for Err).
type Asset struct {
	Name string
	Kind AssetKind

	State AssetState
	Err   error

	Image    *ebiten.Image
	Geometry *Geometry
	Font     *TTFFont

	// mesh is the mesh name looked up in a model.
	mesh    string
	onReady []func(*Asset)
}

// OnReady registers fn to run on the game goroutine when the asset becomes
// Ready. If it already is, fn runs immediately.
func (a *Asset) OnReady(fn func(*Asset)) {
	if a.State == AssetReady {
		fn(a)
		return
	}
	a.onReady = append(a.onReady, fn)
}

// Ready reports whether the asset finished loading successfully.
func (a *Asset) Ready() bool {
	return a != nil && a.State == AssetReady
}

// loadResult carries decoded CPU-side data back to the game goroutine.
type loadResult struct {
	asset    *Asset
	img      image.Image
	geometry *Geometry
	font     *TTFFont
	err      error
}

const (
	defaultLoadConcurrency = 4
	defaultMaxImageSize    = 2048
)

// LoaderConfig configures a Loader. Zero values select defaults.
type LoaderConfig struct {
	// Concurrency bounds parallel decode jobs.
	Concurrency int
	// MaxImageSize is the longest side, in pixels, an image is uploaded at.
	// Larger images are downscaled after decoding.
	MaxImageSize int
}

func (c LoaderConfig) withDefaults() LoaderConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = defaultLoadConcurrency
	}
	if c.MaxImageSize <= 0 {
		c.MaxImageSize = defaultMaxImageSize
	}
	return c
}

// Loader decodes assets from a file system in the background. Decoding runs
// on worker goroutines; GPU resources are only created in Poll, which must
// be called from the game goroutine.
type Loader struct {
	fsys fs.FS
	cfg  LoaderConfig

	assets  map[string]*Asset
	order   []*Asset
	pending int

	mu     sync.Mutex // guards groups and done
	groups []*errgroup.Group
	done   []loadResult
}

// NewLoader creates a loader reading from fsys.
func NewLoader(fsys fs.FS, cfg LoaderConfig) *Loader {
	return &Loader{
		fsys:   fsys,
		cfg:    cfg.withDefaults(),
		assets: make(map[string]*Asset),
	}
}

func (l *Loader) register(name string, kind AssetKind, mesh string) *Asset {
	if a, ok := l.assets[name]; ok {
		return a
	}
	a := &Asset{Name: name, Kind: kind, mesh: mesh}
	l.assets[name] = a
	l.order = append(l.order, a)
	return a
}

// Image registers an image file (jpeg, png or webp).
func (l *Loader) Image(name string) *Asset {
	return l.register(name, AssetImage, "")
}

// Model registers a binary glTF file and the mesh to extract from it.
func (l *Loader) Model(name, mesh string) *Asset {
	return l.register(name, AssetModel, mesh)
}

// Font registers a TrueType or OpenType font file.
func (l *Loader) Font(name string) *Asset {
	return l.register(name, AssetFont, "")
}

// Get returns a registered asset, or nil.
func (l *Loader) Get(name string) *Asset {
	return l.assets[name]
}

// Assets returns every registered asset in registration order.
// The returned slice MUST NOT be mutated.
func (l *Loader) Assets() []*Asset {
	return l.order
}

// Start begins decoding every Unloaded asset. Assets registered after Start
// are picked up by the next Start call. Cancelling ctx fails jobs that have
// not started decoding yet.
func (l *Loader) Start(ctx context.Context) {
	var jobs []*Asset
	for _, a := range l.order {
		if a.State == AssetUnloaded {
			a.State = AssetLoading
			jobs = append(jobs, a)
		}
	}
	if len(jobs) == 0 {
		return
	}
	l.pending += len(jobs)

	g := new(errgroup.Group)
	g.SetLimit(l.cfg.Concurrency)
	l.mu.Lock()
	l.groups = append(l.groups, g)
	l.mu.Unlock()

	for _, a := range jobs {
		g.Go(func() error {
			res := loadResult{asset: a}
			if err := ctx.Err(); err != nil {
				res.err = err
			} else {
				l.decode(&res)
			}
			l.mu.Lock()
			l.done = append(l.done, res)
			l.mu.Unlock()
			return nil
		})
	}
}

// decode runs on a worker goroutine and must not touch GPU state.
func (l *Loader) decode(res *loadResult) {
	a := res.asset
	f, err := l.fsys.Open(a.Name)
	if err != nil {
		res.err = fmt.Errorf("refract: open asset %s: %w", a.Name, err)
		return
	}
	defer f.Close()

	switch a.Kind {
	case AssetImage:
		img, _, err := image.Decode(f)
		if err != nil {
			res.err = fmt.Errorf("refract: decode image %s: %w", a.Name, err)
			return
		}
		res.img = fitImage(img, l.cfg.MaxImageSize)
	case AssetModel:
		g, err := LoadGeometryGLB(f, a.mesh)
		if err != nil {
			res.err = fmt.Errorf("refract: load model %s: %w", a.Name, err)
			return
		}
		res.geometry = g
	case AssetFont:
		data, err := fs.ReadFile(l.fsys, a.Name)
		if err != nil {
			res.err = fmt.Errorf("refract: read font %s: %w", a.Name, err)
			return
		}
		font, err := LoadTTFFont(data)
		if err != nil {
			res.err = fmt.Errorf("refract: load font %s: %w", a.Name, err)
			return
		}
		res.font = font
	default:
		res.err = fmt.Errorf("refract: asset %s has unknown kind %d", a.Name, a.Kind)
	}
}

// fitImage downscales img so its longest side is at most maxSize.
func fitImage(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}
	scale := float64(maxSize) / float64(max(w, h))
	dw := max(int(float64(w)*scale+0.5), 1)
	dh := max(int(float64(h)*scale+0.5), 1)
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Poll applies finished decode jobs: uploads textures, moves assets to
// Ready or Failed, and runs OnReady callbacks. Call once per frame from the
// game goroutine. Returns the number of assets that changed state.
func (l *Loader) Poll() int {
	l.mu.Lock()
	done := l.done
	l.done = nil
	l.mu.Unlock()

	for _, res := range done {
		l.apply(res)
	}
	return len(done)
}

func (l *Loader) apply(res loadResult) {
	l.pending--
	a := res.asset
	if res.err != nil {
		a.State = AssetFailed
		a.Err = res.err
		a.onReady = nil
		if !errors.Is(res.err, context.Canceled) {
			_, _ = fmt.Fprintf(os.Stderr, "[refract] asset %s failed: %v\n", a.Name, res.err)
		}
		return
	}
	switch a.Kind {
	case AssetImage:
		a.Image = ebiten.NewImageFromImage(res.img)
	case AssetModel:
		a.Geometry = res.geometry
	case AssetFont:
		a.Font = res.font
	}
	a.State = AssetReady
	callbacks := a.onReady
	a.onReady = nil
	for _, fn := range callbacks {
		fn(a)
	}
}

// Pending returns the number of decode jobs not yet applied by Poll.
func (l *Loader) Pending() int {
	return l.pending
}

// Wait blocks until every started decode job has finished, then applies
// the results. Must be called from the game goroutine (or a test).
// Returns a join of all asset errors.
func (l *Loader) Wait() error {
	l.waitWorkers()
	l.Poll()

	var errs []error
	for _, a := range l.order {
		if a.State == AssetFailed {
			errs = append(errs, a.Err)
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) waitWorkers() {
	l.mu.Lock()
	groups := l.groups
	l.groups = nil
	l.mu.Unlock()
	for _, g := range groups {
		_ = g.Wait()
	}
}

// Dispose waits for running jobs and releases uploaded textures. Assets
// return to Unloaded and drop any OnReady callbacks that never ran.
func (l *Loader) Dispose() {
	l.waitWorkers()
	l.Poll()
	for _, a := range l.order {
		if a.Image != nil {
			a.Image.Deallocate()
			a.Image = nil
		}
		a.Geometry = nil
		a.Font = nil
		a.Err = nil
		a.State = AssetUnloaded
		a.onReady = nil
	}
}
