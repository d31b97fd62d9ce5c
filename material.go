package refract

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// --- Kage shader sources ---
// All shaders use //kage:unit pixels. Ebitengine uses premultiplied alpha;
// the image shader works on premultiplied color throughout since every
// operation it applies is linear in the color channels.

const imageShaderSrc = `//kage:unit pixels
package main

var Scale vec2
var Zoom float
var Grayscale float
var Opacity float
var Tint vec3

// coverUV maps plane UVs so the texture covers a plane of aspect s without
// stretching, cropping the overflowing axis symmetrically.
func coverUV(uv vec2, s vec2, i vec2) vec2 {
	rs := s.x / s.y
	ri := i.x / i.y
	var fit vec2
	var offset vec2
	if rs < ri {
		fit = vec2(i.x*s.y/i.y, s.y)
		offset = vec2((fit.x-s.x)/2, 0) / fit
	} else {
		fit = vec2(s.x, i.y*s.x/i.x)
		offset = vec2(0, (fit.y-s.y)/2) / fit
	}
	return uv*s/fit + offset
}

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	size := imageSrc0Size()
	uv := (srcPos - origin) / size
	uv = coverUV(uv, Scale, size)
	uv = (uv-vec2(0.5))/Zoom + vec2(0.5)
	c := imageSrc0At(origin + uv*size)
	c.rgb *= Tint
	c *= Opacity
	l := dot(c.rgb, vec3(0.299, 0.587, 0.114))
	c.rgb = mix(c.rgb, vec3(l), Grayscale)
	return c
}
`

const transmissionShaderSrc = `//kage:unit pixels
package main

var IOR float
var Thickness float
var Anisotropy float
var ChromaticAberration float
var DistortionScale float
var TemporalDistortion float
var Time float
var PixelScale float

func sampleClamped(p vec2) vec4 {
	origin := imageSrc0Origin()
	size := imageSrc0Size()
	return imageSrc0UnsafeAt(clamp(p, origin, origin+size-vec2(1)))
}

// The vertex color carries the view-space normal encoded as n*0.5+0.5.
func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	n := color.rgb*2 - vec3(1)
	bend := -n.xy * (1 - 1/IOR) * Thickness * PixelScale
	t := Time * TemporalDistortion
	wobble := vec2(sin(srcPos.y*0.05+t), cos(srcPos.x*0.05+t))
	bend += wobble * DistortionScale * PixelScale * 0.05
	tangent := vec2(-n.y, n.x) * Anisotropy * PixelScale * 0.1
	var acc vec3
	for i := 0; i < 3; i++ {
		s := float(i) - 1
		r := sampleClamped(srcPos + bend*(1+ChromaticAberration) + tangent*s).r
		g := sampleClamped(srcPos + bend + tangent*s).g
		b := sampleClamped(srcPos + bend*(1-ChromaticAberration) + tangent*s).b
		acc += vec3(r, g, b)
	}
	rgb := acc / 3
	rim := pow(1-clamp(abs(n.z), 0, 1), 3)
	rgb = mix(rgb, vec3(1), rim*0.25)
	return vec4(rgb, 1)
}
`

// --- Lazy shader compilation (game goroutine only) ---

var (
	imageShader        *ebiten.Shader
	transmissionShader *ebiten.Shader
)

func ensureImageShader() *ebiten.Shader {
	if imageShader == nil {
		s, err := ebiten.NewShader([]byte(imageShaderSrc))
		if err != nil {
			panic("refract: failed to compile image shader: " + err.Error())
		}
		imageShader = s
	}
	return imageShader
}

func ensureTransmissionShader() *ebiten.Shader {
	if transmissionShader == nil {
		s, err := ebiten.NewShader([]byte(transmissionShaderSrc))
		if err != nil {
			panic("refract: failed to compile transmission shader: " + err.Error())
		}
		transmissionShader = s
	}
	return transmissionShader
}

// --- ImageMaterial ---

// ImageMaterial draws a texture onto a plane with "cover" fitting, a center
// zoom, and a grayscale mix. Zoom and Grayscale are the per-frame parameters
// driven by scroll progress.
type ImageMaterial struct {
	Texture *ebiten.Image
	// Zoom magnifies around the center; 1 shows the whole cover-fitted image.
	Zoom float64
	// Grayscale mixes toward luminance: 0 = full color, 1 = fully desaturated.
	Grayscale float64
	Opacity   float64
	Tint      Color

	uniforms   map[string]any
	scaleF32   [2]float32 // persistent buffers to avoid per-frame slice escape
	scaleSlice []float32
	tintF32    [3]float32
	tintSlice  []float32
	shaderOp   ebiten.DrawTrianglesShaderOptions
	verts      [4]ebiten.Vertex
}

var quadIndices = []uint16{0, 1, 2, 0, 2, 3}

// NewImageMaterial creates a material with zoom 1, full color and opacity.
// tex may be nil until the image asset is ready; Draw is a no-op until then.
func NewImageMaterial(tex *ebiten.Image) *ImageMaterial {
	m := &ImageMaterial{
		Texture:  tex,
		Zoom:     1,
		Opacity:  1,
		Tint:     ColorWhite,
		uniforms: make(map[string]any, 5),
	}
	m.scaleSlice = m.scaleF32[:]
	m.tintSlice = m.tintF32[:]
	m.uniforms["Scale"] = m.scaleSlice
	m.uniforms["Tint"] = m.tintSlice
	return m
}

// syncUniforms writes the material parameters into the uniform map for a
// plane of the given scene-space scale. Zoom values at or below zero are
// treated as 1.
func (m *ImageMaterial) syncUniforms(scale Vec2) {
	zoom := m.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	sx, sy := scale.X, scale.Y
	if sx <= 0 || sy <= 0 {
		sx, sy = 1, 1
	}
	m.scaleF32[0] = float32(sx)
	m.scaleF32[1] = float32(sy)
	m.tintF32[0] = float32(m.Tint.R)
	m.tintF32[1] = float32(m.Tint.G)
	m.tintF32[2] = float32(m.Tint.B)
	// Scalar float32 boxing is unavoidable with Ebitengine's uniform API.
	m.uniforms["Zoom"] = float32(zoom)
	m.uniforms["Grayscale"] = float32(clamp01(m.Grayscale))
	m.uniforms["Opacity"] = float32(clamp01(m.Opacity))
}

// Draw renders the texture into the screen-space quad (corners in order
// top-left, top-right, bottom-right, bottom-left). scale is the plane's
// scene-space size, used for aspect-correct cover fitting.
func (m *ImageMaterial) Draw(dst *ebiten.Image, quad [4]Vec2, scale Vec2) {
	if m.Texture == nil || dst == nil {
		return
	}
	m.syncUniforms(scale)
	b := m.Texture.Bounds()
	src := [4]Vec2{
		{float64(b.Min.X), float64(b.Min.Y)},
		{float64(b.Max.X), float64(b.Min.Y)},
		{float64(b.Max.X), float64(b.Max.Y)},
		{float64(b.Min.X), float64(b.Max.Y)},
	}
	for i := range m.verts {
		m.verts[i] = ebiten.Vertex{
			DstX: float32(quad[i].X), DstY: float32(quad[i].Y),
			SrcX: float32(src[i].X), SrcY: float32(src[i].Y),
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}
	m.shaderOp.Images[0] = m.Texture
	m.shaderOp.Uniforms = m.uniforms
	dst.DrawTrianglesShader(m.verts[:], quadIndices, ensureImageShader(), &m.shaderOp)
}

// --- TransmissionMaterial ---

// TransmissionMaterial renders a surface that refracts a pre-rendered buffer
// of what lies behind it. The buffer must be the same size as the target the
// mesh is drawn into; each fragment samples the buffer at its own screen
// position displaced by the surface normal.
type TransmissionMaterial struct {
	// Buffer is the refraction source. Draw is a no-op while it is nil.
	Buffer *ebiten.Image

	IOR                 float64
	Thickness           float64
	Anisotropy          float64
	ChromaticAberration float64
	DistortionScale     float64
	TemporalDistortion  float64

	time     float64
	uniforms map[string]any
	shaderOp ebiten.DrawTrianglesShaderOptions
}

// NewTransmissionMaterial creates a material with the lens defaults:
// IOR 1.2, thickness 1.5, anisotropy 0.1, chromatic aberration 0.04,
// distortion scale 0.5, no temporal distortion.
func NewTransmissionMaterial() *TransmissionMaterial {
	return &TransmissionMaterial{
		IOR:                 1.2,
		Thickness:           1.5,
		Anisotropy:          0.1,
		ChromaticAberration: 0.04,
		DistortionScale:     0.5,
		uniforms:            make(map[string]any, 8),
	}
}

// Advance moves the distortion clock forward by dt seconds. It only has a
// visible effect when TemporalDistortion is non-zero.
func (m *TransmissionMaterial) Advance(dt float64) {
	if dt > 0 {
		m.time += dt
	}
}

// syncUniforms writes the optical parameters into the uniform map. An IOR
// below 1 is treated as 1 (no bending).
func (m *TransmissionMaterial) syncUniforms(pixelScale float64) {
	ior := m.IOR
	if ior < 1 {
		ior = 1
	}
	m.uniforms["IOR"] = float32(ior)
	m.uniforms["Thickness"] = float32(m.Thickness)
	m.uniforms["Anisotropy"] = float32(m.Anisotropy)
	m.uniforms["ChromaticAberration"] = float32(m.ChromaticAberration)
	m.uniforms["DistortionScale"] = float32(m.DistortionScale)
	m.uniforms["TemporalDistortion"] = float32(m.TemporalDistortion)
	m.uniforms["Time"] = float32(m.time)
	m.uniforms["PixelScale"] = float32(pixelScale)
}

// DrawTriangles draws projected mesh triangles into dst. Vertex Dst and Src
// coordinates must both be the screen position; vertex colors carry the
// encoded view-space normal. pixelScale converts scene-space thickness to
// pixels at the mesh's depth.
func (m *TransmissionMaterial) DrawTriangles(dst *ebiten.Image, verts []ebiten.Vertex, inds []uint16, pixelScale float64) {
	if m.Buffer == nil || dst == nil || len(inds) == 0 {
		return
	}
	m.syncUniforms(pixelScale)
	m.shaderOp.Images[0] = m.Buffer
	m.shaderOp.Uniforms = m.uniforms
	dst.DrawTrianglesShader(verts, inds, ensureTransmissionShader(), &m.shaderOp)
}
