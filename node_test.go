package refract

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// --- Constructor defaults ---

func TestNewGroupDefaults(t *testing.T) {
	n := NewGroup("test")
	assertNodeDefaults(t, n, "test", NodeTypeGroup)
	if n.Scale != (Vec2{1, 1}) {
		t.Errorf("Scale = %v, want (1, 1)", n.Scale)
	}
}

func TestNewImageDefaults(t *testing.T) {
	mat := NewImageMaterial(nil)
	n := NewImage("img", mgl64.Vec3{1, 2, 3}, Vec2{4, 5}, mat)
	assertNodeDefaults(t, n, "img", NodeTypeImage)
	if n.Position != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("Position = %v, want (1, 2, 3)", n.Position)
	}
	if n.Scale != (Vec2{4, 5}) {
		t.Errorf("Scale = %v, want (4, 5)", n.Scale)
	}
	if n.Material != mat {
		t.Error("Material not set")
	}
}

func TestNewTextDefaults(t *testing.T) {
	tb := &TextBlock{Content: "hello"}
	n := NewText("text", mgl64.Vec3{0, 0, 12}, tb)
	assertNodeDefaults(t, n, "text", NodeTypeText)
	if n.TextBlock != tb {
		t.Error("TextBlock not set")
	}
}

func assertNodeDefaults(t *testing.T, n *Node, name string, typ NodeType) {
	t.Helper()
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name != name {
		t.Errorf("Name = %q, want %q", n.Name, name)
	}
	if n.Type != typ {
		t.Errorf("Type = %d, want %d", n.Type, typ)
	}
	if !n.Visible {
		t.Error("Visible should be true")
	}
}

func TestUniqueIDs(t *testing.T) {
	a := NewGroup("a")
	b := NewGroup("b")
	if a.ID == b.ID {
		t.Errorf("IDs should be unique, both are %d", a.ID)
	}
}

// --- Tree manipulation ---

func TestAddChildBasic(t *testing.T) {
	parent := NewGroup("parent")
	child := NewGroup("child")
	parent.AddChild(child)

	if child.Parent != parent {
		t.Error("child.Parent should be parent")
	}
	if parent.NumChildren() != 1 || parent.ChildAt(0) != child {
		t.Error("parent should have exactly child")
	}
}

func TestAddChildReparent(t *testing.T) {
	a := NewGroup("a")
	b := NewGroup("b")
	child := NewGroup("child")
	a.AddChild(child)
	b.AddChild(child)

	if a.NumChildren() != 0 {
		t.Errorf("old parent has %d children, want 0", a.NumChildren())
	}
	if child.Parent != b || b.NumChildren() != 1 {
		t.Error("child should belong to b")
	}
}

func TestAddChildCyclePanic(t *testing.T) {
	a := NewGroup("a")
	b := NewGroup("b")
	a.AddChild(b)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for cycle")
		}
	}()
	b.AddChild(a)
}

func TestAddChildSelfPanic(t *testing.T) {
	a := NewGroup("a")
	defer func() {
		if recover() == nil {
			t.Error("expected panic for self-add")
		}
	}()
	a.AddChild(a)
}

func TestAddChildNilPanic(t *testing.T) {
	a := NewGroup("a")
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil child")
		}
	}()
	a.AddChild(nil)
}

func TestRemoveChild(t *testing.T) {
	parent := NewGroup("parent")
	a := NewGroup("a")
	b := NewGroup("b")
	parent.AddChild(a)
	parent.AddChild(b)
	parent.RemoveChild(a)

	if a.Parent != nil {
		t.Error("removed child should have nil Parent")
	}
	if parent.NumChildren() != 1 || parent.ChildAt(0) != b {
		t.Error("remaining child should be b")
	}
}

func TestRemoveChildWrongParentPanic(t *testing.T) {
	a := NewGroup("a")
	b := NewGroup("b")
	child := NewGroup("child")
	a.AddChild(child)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for wrong parent")
		}
	}()
	b.RemoveChild(child)
}

func TestRemoveFromParentNoOp(t *testing.T) {
	n := NewGroup("orphan")
	n.RemoveFromParent()
	if n.Parent != nil {
		t.Error("Parent should remain nil")
	}
}

// --- Disposal ---

func TestDispose(t *testing.T) {
	parent := NewGroup("parent")
	child := NewGroup("child")
	grandchild := NewText("gc", mgl64.Vec3{}, &TextBlock{Content: "x"})
	parent.AddChild(child)
	child.AddChild(grandchild)

	child.Dispose()

	if !child.IsDisposed() || !grandchild.IsDisposed() {
		t.Error("subtree should be disposed")
	}
	if parent.NumChildren() != 0 {
		t.Error("disposed child should be removed from parent")
	}
	if child.ID != 0 || grandchild.ID != 0 {
		t.Error("disposed nodes should have ID 0")
	}
	if grandchild.TextBlock != nil {
		t.Error("disposed text node should drop its TextBlock")
	}
}

func TestDisposeIdempotent(t *testing.T) {
	n := NewGroup("n")
	n.Dispose()
	n.Dispose()
	if !n.IsDisposed() {
		t.Error("node should be disposed")
	}
}
