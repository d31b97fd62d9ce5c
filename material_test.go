package refract

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestShadersCompile(t *testing.T) {
	if ensureImageShader() == nil {
		t.Error("image shader is nil")
	}
	if ensureTransmissionShader() == nil {
		t.Error("transmission shader is nil")
	}
}

func TestImageMaterialDefaults(t *testing.T) {
	m := NewImageMaterial(nil)
	if m.Zoom != 1 || m.Grayscale != 0 || m.Opacity != 1 || m.Tint != ColorWhite {
		t.Errorf("defaults = zoom %v gray %v opacity %v tint %v", m.Zoom, m.Grayscale, m.Opacity, m.Tint)
	}
}

func TestImageMaterialSyncUniforms(t *testing.T) {
	m := NewImageMaterial(nil)
	m.Zoom = 1.5
	m.Grayscale = 0.25
	m.syncUniforms(Vec2{3, 2})

	if got := m.uniforms["Zoom"].(float32); got != 1.5 {
		t.Errorf("Zoom uniform = %v, want 1.5", got)
	}
	if got := m.uniforms["Grayscale"].(float32); got != 0.25 {
		t.Errorf("Grayscale uniform = %v, want 0.25", got)
	}
	scale := m.uniforms["Scale"].([]float32)
	if scale[0] != 3 || scale[1] != 2 {
		t.Errorf("Scale uniform = %v, want [3 2]", scale)
	}
}

func TestImageMaterialSyncUniformsClamps(t *testing.T) {
	m := NewImageMaterial(nil)
	m.Zoom = 0
	m.Grayscale = 4
	m.Opacity = -1
	m.syncUniforms(Vec2{0, 0})

	if got := m.uniforms["Zoom"].(float32); got != 1 {
		t.Errorf("zero Zoom uniform = %v, want 1", got)
	}
	if got := m.uniforms["Grayscale"].(float32); got != 1 {
		t.Errorf("Grayscale uniform = %v, want clamped 1", got)
	}
	if got := m.uniforms["Opacity"].(float32); got != 0 {
		t.Errorf("Opacity uniform = %v, want clamped 0", got)
	}
	scale := m.uniforms["Scale"].([]float32)
	if scale[0] != 1 || scale[1] != 1 {
		t.Errorf("degenerate Scale uniform = %v, want [1 1]", scale)
	}
}

func TestImageMaterialDrawWithoutTextureIsNoop(t *testing.T) {
	m := NewImageMaterial(nil)
	dst := ebiten.NewImage(4, 4)
	defer dst.Deallocate()
	m.Draw(dst, [4]Vec2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}, Vec2{1, 1})
	if m.shaderOp.Images[0] != nil {
		t.Error("Draw without texture should not bind images")
	}
}

func TestTransmissionMaterialDefaults(t *testing.T) {
	m := NewTransmissionMaterial()
	if m.IOR != 1.2 || m.Thickness != 1.5 || m.Anisotropy != 0.1 ||
		m.ChromaticAberration != 0.04 || m.DistortionScale != 0.5 || m.TemporalDistortion != 0 {
		t.Errorf("defaults = %+v", m)
	}
}

func TestTransmissionMaterialSyncUniforms(t *testing.T) {
	m := NewTransmissionMaterial()
	m.IOR = 0.5
	m.Advance(0.25)
	m.Advance(-1)
	m.syncUniforms(120)

	if got := m.uniforms["IOR"].(float32); got != 1 {
		t.Errorf("IOR uniform = %v, want clamped 1", got)
	}
	if got := m.uniforms["Time"].(float32); got != 0.25 {
		t.Errorf("Time uniform = %v, want 0.25", got)
	}
	if got := m.uniforms["PixelScale"].(float32); got != 120 {
		t.Errorf("PixelScale uniform = %v, want 120", got)
	}
}

func TestTransmissionMaterialDrawWithoutBufferIsNoop(t *testing.T) {
	m := NewTransmissionMaterial()
	dst := ebiten.NewImage(4, 4)
	defer dst.Deallocate()
	m.DrawTriangles(dst, make([]ebiten.Vertex, 3), []uint16{0, 1, 2}, 1)
	if len(m.uniforms) != 0 {
		t.Error("Draw without buffer should not touch uniforms")
	}
}
