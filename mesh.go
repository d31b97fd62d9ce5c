package refract

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrMeshNotFound is returned when a model does not contain the named mesh
// the scene expects.
var ErrMeshNotFound = errors.New("refract: mesh not found in model")

// maxMeshVertices is the largest vertex count addressable by uint16 indices.
const maxMeshVertices = math.MaxUint16 + 1

// Geometry is an indexed triangle list in model space.
type Geometry struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	Indices   []uint16
}

// Validate checks that the geometry is a well-formed triangle list.
func (g *Geometry) Validate() error {
	if len(g.Positions) == 0 {
		return errors.New("refract: geometry has no vertices")
	}
	if len(g.Positions) > maxMeshVertices {
		return fmt.Errorf("refract: geometry has %d vertices, limit is %d", len(g.Positions), maxMeshVertices)
	}
	if len(g.Normals) != len(g.Positions) {
		return fmt.Errorf("refract: geometry has %d normals for %d vertices", len(g.Normals), len(g.Positions))
	}
	if len(g.Indices) == 0 || len(g.Indices)%3 != 0 {
		return fmt.Errorf("refract: geometry index count %d is not a positive multiple of 3", len(g.Indices))
	}
	for _, i := range g.Indices {
		if int(i) >= len(g.Positions) {
			return fmt.Errorf("refract: geometry index %d out of range", i)
		}
	}
	return nil
}

// LoadGeometryGLB decodes a binary glTF model and extracts the mesh called
// name, looked up first by node name and then by mesh name. All primitives
// of the mesh are merged. The model's structure is validated here so a
// changed asset fails at load time instead of rendering nothing.
func LoadGeometryGLB(r io.Reader, name string) (*Geometry, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("refract: decode model: %w", err)
	}
	return geometryFromDocument(doc, name)
}

func geometryFromDocument(doc *gltf.Document, name string) (*Geometry, error) {
	for _, ext := range doc.ExtensionsRequired {
		switch ext {
		case "KHR_draco_mesh_compression", "EXT_meshopt_compression":
			return nil, fmt.Errorf("refract: model requires unsupported extension %s", ext)
		}
	}

	mesh := findMesh(doc, name)
	if mesh == nil {
		return nil, fmt.Errorf("%w: %q", ErrMeshNotFound, name)
	}

	g := &Geometry{}
	for pi, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			return nil, fmt.Errorf("refract: mesh %q primitive %d has no positions", name, pi)
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("refract: mesh %q primitive %d positions: %w", name, pi, err)
		}

		base := len(g.Positions)
		if base+len(positions) > maxMeshVertices {
			return nil, fmt.Errorf("refract: mesh %q exceeds %d vertices", name, maxMeshVertices)
		}
		for _, p := range positions {
			g.Positions = append(g.Positions, mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])})
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("refract: mesh %q primitive %d indices: %w", name, pi, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
		for _, i := range indices {
			if int(i) >= len(positions) {
				return nil, fmt.Errorf("refract: mesh %q primitive %d index %d out of range (%d vertices)", name, pi, i, len(positions))
			}
			g.Indices = append(g.Indices, uint16(base+int(i)))
		}

		if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err := modeler.ReadNormal(doc, doc.Accessors[nIdx], nil)
			if err != nil {
				return nil, fmt.Errorf("refract: mesh %q primitive %d normals: %w", name, pi, err)
			}
			for _, n := range normals {
				g.Normals = append(g.Normals, mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])})
			}
		}
		// Primitives without normals get smooth normals computed below.
		for len(g.Normals) < len(g.Positions) {
			g.Normals = append(g.Normals, mgl64.Vec3{})
		}
	}

	g.fillMissingNormals()
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("refract: mesh %q: %w", name, err)
	}
	return g, nil
}

// findMesh looks up a mesh by node name, then by mesh name.
func findMesh(doc *gltf.Document, name string) *gltf.Mesh {
	for _, n := range doc.Nodes {
		if n.Name == name && n.Mesh != nil && *n.Mesh < len(doc.Meshes) {
			return doc.Meshes[*n.Mesh]
		}
	}
	for _, m := range doc.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// fillMissingNormals replaces zero normals with area-weighted vertex normals.
func (g *Geometry) fillMissingNormals() {
	missing := false
	for _, n := range g.Normals {
		if n.Len() == 0 {
			missing = true
			break
		}
	}
	if !missing {
		return
	}
	acc := make([]mgl64.Vec3, len(g.Positions))
	for t := 0; t+2 < len(g.Indices); t += 3 {
		a, b, c := g.Indices[t], g.Indices[t+1], g.Indices[t+2]
		face := g.Positions[b].Sub(g.Positions[a]).Cross(g.Positions[c].Sub(g.Positions[a]))
		acc[a] = acc[a].Add(face)
		acc[b] = acc[b].Add(face)
		acc[c] = acc[c].Add(face)
	}
	for i, n := range g.Normals {
		if n.Len() == 0 && acc[i].Len() > 0 {
			g.Normals[i] = acc[i].Normalize()
		}
	}
}

// NewCylinderGeometry builds a capped cylinder centered on the origin with
// its axis along Y. Winding is counter-clockwise seen from outside.
func NewCylinderGeometry(radius, height float64, segments int) *Geometry {
	segments = max(segments, 3)
	half := height / 2
	g := &Geometry{}

	// Side: two rings with radial normals.
	for i := 0; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		x, z := math.Sin(a), math.Cos(a)
		n := mgl64.Vec3{x, 0, z}
		g.Positions = append(g.Positions, mgl64.Vec3{x * radius, half, z * radius}, mgl64.Vec3{x * radius, -half, z * radius})
		g.Normals = append(g.Normals, n, n)
	}
	for i := 0; i < segments; i++ {
		top0, bot0 := uint16(2*i), uint16(2*i+1)
		top1, bot1 := uint16(2*i+2), uint16(2*i+3)
		g.Indices = append(g.Indices, top0, bot0, top1, top1, bot0, bot1)
	}

	// Caps: a center vertex plus a ring each.
	for _, y := range []float64{half, -half} {
		n := mgl64.Vec3{0, math.Copysign(1, y), 0}
		center := uint16(len(g.Positions))
		g.Positions = append(g.Positions, mgl64.Vec3{0, y, 0})
		g.Normals = append(g.Normals, n)
		for i := 0; i <= segments; i++ {
			a := 2 * math.Pi * float64(i) / float64(segments)
			g.Positions = append(g.Positions, mgl64.Vec3{math.Sin(a) * radius, y, math.Cos(a) * radius})
			g.Normals = append(g.Normals, n)
		}
		for i := 0; i < segments; i++ {
			a, b := center+1+uint16(i), center+2+uint16(i)
			if y > 0 {
				g.Indices = append(g.Indices, center, a, b)
			} else {
				g.Indices = append(g.Indices, center, b, a)
			}
		}
	}
	return g
}

// projectedMesh holds per-frame screen-space vertices for a Geometry.
// Buffers are reused across frames.
type projectedMesh struct {
	verts []ebiten.Vertex
	inds  []uint16
	depth []float64 // per-vertex view depth
	tris  []projectedTri
}

type projectedTri struct {
	i0, i1, i2 uint16
	depth      float64
}

// project transforms g by model, projects it through cam, and fills verts and
// inds with back-to-front sorted triangles. Triangles with any vertex behind
// the near plane are dropped. Vertex Src equals Dst so a screen-sized buffer
// can be sampled in place; vertex colors carry the screen-space normal
// (Y down) encoded as n*0.5+0.5.
func (pm *projectedMesh) project(g *Geometry, model mgl64.Mat4, cam *Camera) {
	n := len(g.Positions)
	pm.verts = slices.Grow(pm.verts[:0], n)[:n]
	pm.depth = slices.Grow(pm.depth[:0], n)[:n]
	pm.tris = pm.tris[:0]
	pm.inds = pm.inds[:0]

	rot := model.Mat3()
	for i, p := range g.Positions {
		wp := model.Mul4x1(p.Vec4(1)).Vec3()
		sx, sy, ok := cam.Project(wp)
		pm.depth[i] = cam.depth(wp.Z())
		if !ok {
			pm.depth[i] = math.Inf(-1)
		}
		nrm := rot.Mul3x1(g.Normals[i])
		if l := nrm.Len(); l > 0 {
			nrm = nrm.Mul(1 / l)
		}
		pm.verts[i] = ebiten.Vertex{
			DstX: float32(sx), DstY: float32(sy),
			SrcX: float32(sx), SrcY: float32(sy),
			ColorR: float32(nrm.X()*0.5 + 0.5),
			ColorG: float32(-nrm.Y()*0.5 + 0.5),
			ColorB: float32(nrm.Z()*0.5 + 0.5),
			ColorA: 1,
		}
	}

	for t := 0; t+2 < len(g.Indices); t += 3 {
		i0, i1, i2 := g.Indices[t], g.Indices[t+1], g.Indices[t+2]
		d0, d1, d2 := pm.depth[i0], pm.depth[i1], pm.depth[i2]
		if math.IsInf(d0, -1) || math.IsInf(d1, -1) || math.IsInf(d2, -1) {
			continue
		}
		pm.tris = append(pm.tris, projectedTri{i0, i1, i2, (d0 + d1 + d2) / 3})
	}
	// Farthest first; the transmission shader is opaque so nearer faces
	// simply overwrite farther ones.
	slices.SortStableFunc(pm.tris, func(a, b projectedTri) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})
	for _, tri := range pm.tris {
		pm.inds = append(pm.inds, tri.i0, tri.i1, tri.i2)
	}
}

// lensModelMatrix builds translate * rotateX * uniform scale.
func lensModelMatrix(pos mgl64.Vec3, rotX, scale float64) mgl64.Mat4 {
	return mgl64.Translate3D(pos.X(), pos.Y(), pos.Z()).
		Mul4(mgl64.HomogRotate3DX(rotX)).
		Mul4(mgl64.Scale3D(scale, scale, scale))
}
