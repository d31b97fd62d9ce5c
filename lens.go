package refract

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// DefaultClearColor is the portal buffer's background.
var DefaultClearColor = MustParseHexColor("#C7CDC6")

// LensConfig configures the lens compositor. Zero values select defaults.
type LensConfig struct {
	// Damping is the smoothing time, in seconds, of the lens following the
	// pointer. Default 0.15; negative disables smoothing.
	Damping float64
	// Depth is the z plane the lens moves on. Default 15.
	Depth float64
	// Scale is the uniform mesh scale. Default 0.25.
	Scale float64
	// DistortionScale feeds the transmission material. Default 0.5.
	DistortionScale float64
	// ClearColor fills the portal buffer each frame. Default #C7CDC6.
	ClearColor Color
}

func (c LensConfig) withDefaults() LensConfig {
	if c.Damping < 0 {
		c.Damping = 0
	} else if c.Damping == 0 {
		c.Damping = 0.15
	}
	if c.Depth == 0 {
		c.Depth = 15
	}
	if c.Scale == 0 {
		c.Scale = 0.25
	}
	if c.DistortionScale == 0 {
		c.DistortionScale = 0.5
	}
	if c.ClearColor == (Color{}) {
		c.ClearColor = DefaultClearColor
	}
	return c
}

// lensRotationX turns the cylinder's axis toward the camera.
const lensRotationX = math.Pi / 2

// LensTarget maps a pointer in NDC to the point the lens steers toward on
// the plane at depth, given the viewport at that plane.
func LensTarget(pointer Vec2, vp Viewport, depth float64) mgl64.Vec3 {
	return mgl64.Vec3{pointer.X * vp.Width / 2, pointer.Y * vp.Height / 2, depth}
}

// Lens renders its portal scene into an offscreen buffer, draws the buffer
// as the full-screen background, and draws a refractive mesh over it that
// samples the same buffer. The mesh follows the pointer with damping.
type Lens struct {
	cfg LensConfig

	// Position is the damped lens position in scene units.
	Position mgl64.Vec3
	Material *TransmissionMaterial

	portal   *Scene
	geometry *Geometry
	buffer   *RenderTexture
	mesh     projectedMesh
	bgOp     ebiten.DrawImageOptions
}

// NewLens creates a lens compositing portal. The lens mesh is not drawn
// until SetGeometry is called.
func NewLens(cfg LensConfig, portal *Scene) *Lens {
	cfg = cfg.withDefaults()
	mat := NewTransmissionMaterial()
	mat.DistortionScale = cfg.DistortionScale
	return &Lens{
		cfg:      cfg,
		Material: mat,
		portal:   portal,
	}
}

// Config returns the effective configuration.
func (l *Lens) Config() LensConfig {
	return l.cfg
}

// Portal returns the scene rendered behind the lens.
func (l *Lens) Portal() *Scene {
	return l.portal
}

// SetGeometry attaches the lens mesh. nil detaches it.
func (l *Lens) SetGeometry(g *Geometry) {
	l.geometry = g
}

// Ready reports whether the lens mesh is available.
func (l *Lens) Ready() bool {
	return l.geometry != nil
}

// Buffer returns the portal buffer, or nil before the first Draw.
func (l *Lens) Buffer() *RenderTexture {
	return l.buffer
}

// Update steers the lens toward the pointer (NDC) over dt seconds. It does
// nothing while the mesh is not ready or the viewport has no area.
func (l *Lens) Update(pointer Vec2, cam *Camera, dt float64) {
	if !l.Ready() {
		return
	}
	vp := cam.ViewportAt(mgl64.Vec3{0, 0, l.cfg.Depth})
	if vp.Degenerate() {
		return
	}
	target := LensTarget(pointer, vp, l.cfg.Depth)
	l.Position = Damp3(l.Position, target, l.cfg.Damping, dt)
	l.Material.Advance(dt)
}

// Draw renders the portal into the buffer, then the buffer and the lens
// into the renderer's current target. A zero-size camera draws nothing.
func (l *Lens) Draw(r *Renderer, cam *Camera) error {
	w, h := cam.Size()
	if w <= 0 || h <= 0 {
		return nil
	}
	if l.buffer == nil {
		l.buffer = NewRenderTexture(int(w), int(h))
	} else {
		l.buffer.Resize(int(w), int(h))
	}

	err := r.WithTarget(l.buffer, l.cfg.ClearColor, func(dst *ebiten.Image) error {
		if l.portal != nil {
			l.portal.Draw(dst, cam, true)
		}
		return nil
	})
	if err != nil {
		return err
	}

	dst := r.Target()
	// The background plane spans the viewport exactly, so it maps the
	// buffer 1:1 onto the target.
	l.bgOp.GeoM.Reset()
	dst.DrawImage(l.buffer.Image(), &l.bgOp)

	if !l.Ready() {
		return nil
	}
	model := lensModelMatrix(l.Position, lensRotationX, l.cfg.Scale)
	l.mesh.project(l.geometry, model, cam)
	l.Material.Buffer = l.buffer.Image()
	l.Material.DrawTriangles(dst, l.mesh.verts, l.mesh.inds, cam.PixelsPerUnit(l.Position.Z()))
	return nil
}

// Dispose releases the portal buffer.
func (l *Lens) Dispose() {
	if l.buffer != nil {
		l.buffer.Dispose()
		l.buffer = nil
	}
	l.Material.Buffer = nil
}
