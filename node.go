package refract

import (
	"github.com/go-gl/mathgl/mgl64"
)

// NodeType distinguishes what a node draws.
type NodeType uint8

const (
	NodeTypeGroup NodeType = iota // positions children, draws nothing
	NodeTypeImage                 // textured plane with an ImageMaterial
	NodeTypeText                  // rasterized text block on a plane
)

// nodeIDCounter is a plain counter (no atomic, frame logic is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is a scene graph element. Every drawable node is a plane parallel to
// the screen, so a node is fully described by its position and planar
// scale. A single flat struct is used for all node types.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Position is relative to the parent, in scene units.
	Position mgl64.Vec3
	// Scale is the plane size in scene units (image nodes). Text nodes size
	// themselves from their TextBlock.
	Scale Vec2

	Visible bool

	// Image fields (NodeTypeImage)
	Material *ImageMaterial

	// Text fields (NodeTypeText)
	TextBlock *TextBlock

	// Computed during traversal.
	worldPos mgl64.Vec3

	disposed bool
}

func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.Scale = Vec2{1, 1}
	n.Visible = true
}

// NewGroup creates a group node with no visual representation.
func NewGroup(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeGroup}
	nodeDefaults(n)
	return n
}

// NewImage creates an image plane at position with the given scene-space
// size. The material's texture may be attached later once it loads.
func NewImage(name string, position mgl64.Vec3, scale Vec2, mat *ImageMaterial) *Node {
	n := &Node{Name: name, Type: NodeTypeImage, Material: mat}
	nodeDefaults(n)
	n.Position = position
	n.Scale = scale
	return n
}

// NewText creates a text node anchored at position.
func NewText(name string, position mgl64.Vec3, tb *TextBlock) *Node {
	n := &Node{Name: name, Type: NodeTypeText, TextBlock: tb}
	nodeDefaults(n)
	n.Position = position
	return n
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("refract: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, n) {
		panic("refract: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("refract: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// WorldPosition returns the position computed by the last traversal.
func (n *Node) WorldPosition() mgl64.Vec3 {
	return n.worldPos
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed, releases
// text rasterization caches and recursively disposes all descendants.
// Textures are owned by the asset loader and are not released here.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.Material = nil
	if n.TextBlock != nil {
		n.TextBlock.Dispose()
		n.TextBlock = nil
	}
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
