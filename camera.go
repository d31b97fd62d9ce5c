package refract

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera looking down -Z from Position. The scene
// uses a right-handed, Y-up coordinate system; the screen has Y down.
type Camera struct {
	// Position is the camera location in scene units.
	Position mgl64.Vec3
	// FOV is the vertical field of view in degrees.
	FOV float64
	// Near and Far are the clip distances.
	Near, Far float64

	width, height float64 // screen size in pixels

	viewProj mgl64.Mat4
	dirty    bool
}

// NewCamera creates a camera at position with the given vertical FOV in
// degrees. Call SetSize before projecting.
func NewCamera(position mgl64.Vec3, fov float64) *Camera {
	return &Camera{
		Position: position,
		FOV:      fov,
		Near:     0.1,
		Far:      1000,
		dirty:    true,
	}
}

// SetSize sets the screen size in pixels the camera projects onto.
func (c *Camera) SetSize(width, height float64) {
	if c.width == width && c.height == height {
		return
	}
	c.width = width
	c.height = height
	c.dirty = true
}

// Size returns the screen size in pixels.
func (c *Camera) Size() (width, height float64) {
	return c.width, c.height
}

// MarkDirty forces a recomputation of the view-projection matrix. Call it
// after modifying Position, FOV, Near or Far directly.
func (c *Camera) MarkDirty() {
	c.dirty = true
}

// Aspect returns width/height, or 0 when the screen has no height.
func (c *Camera) Aspect() float64 {
	if c.height <= 0 {
		return 0
	}
	return c.width / c.height
}

// ViewportAt returns the size of the visible plane, in scene units, at the
// camera's distance to target. A zero-size screen yields a degenerate
// Viewport.
func (c *Camera) ViewportAt(target mgl64.Vec3) Viewport {
	distance := c.Position.Sub(target).Len()
	return ViewportFor(c.FOV, c.width, c.height, distance)
}

// ViewportFor computes the visible plane size at distance for a vertical
// FOV in degrees and a screen of width x height pixels.
func ViewportFor(fov, width, height, distance float64) Viewport {
	if width <= 0 || height <= 0 || distance <= 0 {
		return Viewport{Distance: distance}
	}
	h := 2 * math.Tan(mgl64.DegToRad(fov)/2) * distance
	w := h * (width / height)
	return Viewport{Width: w, Height: h, Factor: width / w, Distance: distance}
}

// computeViewProj recomputes the cached view-projection matrix if dirty.
func (c *Camera) computeViewProj() mgl64.Mat4 {
	if !c.dirty {
		return c.viewProj
	}
	c.dirty = false
	aspect := c.Aspect()
	if aspect == 0 {
		aspect = 1
	}
	eye := c.Position
	view := mgl64.LookAtV(eye, eye.Sub(mgl64.Vec3{0, 0, 1}), mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(mgl64.DegToRad(c.FOV), aspect, c.Near, c.Far)
	c.viewProj = proj.Mul4(view)
	return c.viewProj
}

// ViewProjection returns the combined view-projection matrix.
func (c *Camera) ViewProjection() mgl64.Mat4 {
	return c.computeViewProj()
}

// Project maps a scene-space point to screen pixels. ok is false when the
// point is behind the near plane or the screen has no area.
func (c *Camera) Project(p mgl64.Vec3) (sx, sy float64, ok bool) {
	if c.width <= 0 || c.height <= 0 {
		return 0, 0, false
	}
	clip := c.computeViewProj().Mul4x1(p.Vec4(1))
	w := clip.W()
	if w < c.Near {
		return 0, 0, false
	}
	nx, ny := clip.X()/w, clip.Y()/w
	sx = (nx + 1) / 2 * c.width
	sy = (1 - ny) / 2 * c.height
	return sx, sy, true
}

// PixelsPerUnit returns how many screen pixels one scene unit spans on the
// plane at depth z (facing the camera). Zero when z is at or behind the
// camera.
func (c *Camera) PixelsPerUnit(z float64) float64 {
	return ViewportFor(c.FOV, c.width, c.height, c.depth(z)).Factor
}

// depth returns the view-space distance of z in front of the camera.
func (c *Camera) depth(z float64) float64 {
	return c.Position.Z() - z
}
