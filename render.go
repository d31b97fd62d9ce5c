package refract

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// RenderCommand is a single plane draw emitted during scene traversal.
type RenderCommand struct {
	node *Node
	// quad is the projected plane in screen pixels: TL, TR, BR, BL.
	quad [4]Vec2
	// scale is the plane's scene-space size.
	scale Vec2
	// depth is the view-space distance of the plane; larger is farther.
	depth     float64
	image     *ebiten.Image // text raster; image nodes use their material
	treeOrder int           // assigned during traversal for stable sort
}

// traverse walks the node tree depth-first, computing world positions and
// emitting commands for visible drawable nodes.
func (s *Scene) traverse(n *Node, parentPos mgl64.Vec3, cam *Camera, treeOrder *int) {
	if !n.Visible {
		return
	}
	n.worldPos = parentPos.Add(n.Position)

	switch n.Type {
	case NodeTypeImage:
		s.emitImage(n, cam, treeOrder)
	case NodeTypeText:
		s.emitText(n, cam, treeOrder)
	}

	for _, child := range n.children {
		s.traverse(child, n.worldPos, cam, treeOrder)
	}
}

func (s *Scene) emitImage(n *Node, cam *Camera, treeOrder *int) {
	if n.Material == nil {
		return
	}
	hw, hh := n.Scale.X/2, n.Scale.Y/2
	quad, ok := projectPlane(cam, n.worldPos, -hw, hh, 2*hw, 2*hh)
	if !ok || s.culled(quad) {
		return
	}
	*treeOrder++
	s.commands = append(s.commands, RenderCommand{
		node:      n,
		quad:      quad,
		scale:     n.Scale,
		depth:     cam.depth(n.worldPos.Z()),
		treeOrder: *treeOrder,
	})
}

func (s *Scene) emitText(n *Node, cam *Camera, treeOrder *int) {
	tb := n.TextBlock
	if tb == nil {
		return
	}
	img := tb.rasterize(cam.PixelsPerUnit(n.worldPos.Z()))
	if img == nil {
		return
	}
	left, top, w, h := tb.rasterRect()
	quad, ok := projectPlane(cam, n.worldPos, left, top, w, h)
	if !ok || s.culled(quad) {
		return
	}
	*treeOrder++
	s.commands = append(s.commands, RenderCommand{
		node:      n,
		quad:      quad,
		scale:     Vec2{w, h},
		depth:     cam.depth(n.worldPos.Z()),
		image:     img,
		treeOrder: *treeOrder,
	})
}

// projectPlane projects a screen-parallel rectangle at center c whose
// top-left corner is offset (left, top) from c, Y up, with size (w, h).
func projectPlane(cam *Camera, c mgl64.Vec3, left, top, w, h float64) ([4]Vec2, bool) {
	corners := [4]mgl64.Vec3{
		{c.X() + left, c.Y() + top, c.Z()},
		{c.X() + left + w, c.Y() + top, c.Z()},
		{c.X() + left + w, c.Y() + top - h, c.Z()},
		{c.X() + left, c.Y() + top - h, c.Z()},
	}
	var quad [4]Vec2
	for i, p := range corners {
		x, y, ok := cam.Project(p)
		if !ok {
			return quad, false
		}
		quad[i] = Vec2{x, y}
	}
	return quad, true
}

// culled reports whether quad lies entirely outside the cull bounds.
func (s *Scene) culled(quad [4]Vec2) bool {
	if !s.cullActive {
		return false
	}
	return !s.cullBounds.Intersects(quadBounds(quad))
}

func quadBounds(q [4]Vec2) Rect {
	minX, minY := q[0].X, q[0].Y
	maxX, maxY := minX, minY
	for _, p := range q[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// --- Merge sort ---

// commandLessOrEqual returns true if a should draw before or with b:
// farther planes first, tree order breaking ties.
func commandLessOrEqual(a, b RenderCommand) bool {
	if a.depth != b.depth {
		return a.depth > b.depth
	}
	return a.treeOrder <= b.treeOrder
}

// mergeSort sorts s.commands in-place using s.sortBuf as scratch space.
// Bottom-up merge sort: zero allocations after the sort buffer reaches high-water mark.
func (s *Scene) mergeSort() {
	n := len(s.commands)
	if n <= 1 {
		return
	}
	if cap(s.sortBuf) < n {
		s.sortBuf = make([]RenderCommand, n)
	}
	s.sortBuf = s.sortBuf[:n]

	a := s.commands
	b := s.sortBuf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(s.commands, s.sortBuf)
	}
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []RenderCommand, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if commandLessOrEqual(src[i], src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}

// --- Submission ---

// submit draws the sorted commands into target.
func (s *Scene) submit(target *ebiten.Image) {
	for i := range s.commands {
		cmd := &s.commands[i]
		switch cmd.node.Type {
		case NodeTypeImage:
			cmd.node.Material.Draw(target, cmd.quad, cmd.scale)
		case NodeTypeText:
			s.drawRaster(target, cmd.image, cmd.quad)
		}
	}
}

// drawRaster draws img stretched over an axis-aligned screen quad.
func (s *Scene) drawRaster(target, img *ebiten.Image, quad [4]Vec2) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	op := &s.rasterOp
	op.GeoM.Reset()
	op.GeoM.Scale((quad[1].X-quad[0].X)/float64(b.Dx()), (quad[3].Y-quad[0].Y)/float64(b.Dy()))
	op.GeoM.Translate(quad[0].X, quad[0].Y)
	op.Filter = ebiten.FilterLinear
	target.DrawImage(img, op)
}
