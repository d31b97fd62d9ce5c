package refract

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// PanelState is the per-frame material state of one image panel, derived
// from scroll progress alone.
type PanelState struct {
	Zoom      float64
	Grayscale float64
}

// PanelMapping turns progress through a panel's scroll window (0..1) into
// its material state.
type PanelMapping func(progress float64) PanelState

// ZoomIn magnifies from 1 to 1+1/k as the window is scrolled through.
func ZoomIn(k float64) PanelMapping {
	return func(p float64) PanelState {
		return PanelState{Zoom: 1 + p/k}
	}
}

// ZoomOut shrinks from 1+1/k back to 1 as the window is scrolled through.
func ZoomOut(k float64) PanelMapping {
	return func(p float64) PanelState {
		return PanelState{Zoom: 1 + (1-p)/k}
	}
}

// Colorize fades from full grayscale to full color across the window.
func Colorize() PanelMapping {
	return func(p float64) PanelState {
		return PanelState{Zoom: 1, Grayscale: 1 - p}
	}
}

// PanelDef describes one image panel. Place receives the viewport size at
// z=0 and returns the panel's position and scene-space size.
type PanelDef struct {
	Image string
	Place func(w, h float64) (mgl64.Vec3, Vec2)
	// Window is the scroll range [Start, Start+Length] driving Map.
	Start, Length float64
	Map           PanelMapping
}

// LabelDef describes one text label. Place receives the viewport size at
// the label depth.
type LabelDef struct {
	Text   string
	Anchor AnchorX
	Size   float64
	Place  func(w, h float64) mgl64.Vec3
}

// LabelDepth is the z plane labels are laid out against.
const LabelDepth = 12

// LabelLetterSpacing is the tracking shared by every label, in em.
const LabelLetterSpacing = -0.1

// PromoPanels is the panel composition of the promo page.
var PromoPanels = []PanelDef{
	{Image: "img5.jpg", Start: 0, Length: 1.0 / 3, Map: ZoomIn(3),
		Place: func(w, h float64) (mgl64.Vec3, Vec2) { return mgl64.Vec3{-w / 4, 0, 0}, Vec2{w / 2, h} }},
	{Image: "img1.jpg", Start: 0, Length: 1.0 / 3, Map: ZoomIn(3),
		Place: func(w, h float64) (mgl64.Vec3, Vec2) { return mgl64.Vec3{2, 0, 3}, Vec2{3, 3} }},
	{Image: "img4.jpg", Start: 1.15 / 3, Length: 1.0 / 3, Map: ZoomIn(2),
		Place: func(w, h float64) (mgl64.Vec3, Vec2) { return mgl64.Vec3{-2.05, -h, 6}, Vec2{1, 1} }},
	{Image: "img8.jpg", Start: 1.15 / 3, Length: 1.0 / 3, Map: ZoomIn(2),
		Place: func(w, h float64) (mgl64.Vec3, Vec2) { return mgl64.Vec3{-0.6, -h, 9}, Vec2{1, 1} }},
	{Image: "img6.jpg", Start: 1.15 / 3, Length: 1.0 / 3, Map: ZoomIn(2),
		Place: func(w, h float64) (mgl64.Vec3, Vec2) { return mgl64.Vec3{0.75, -h, 10.5}, Vec2{1.5, 1.5} }},
	{Image: "img3.jpg", Start: 1.6 / 3, Length: 1.0 / 3, Map: Colorize(),
		Place: func(w, h float64) (mgl64.Vec3, Vec2) { return mgl64.Vec3{0, -h * 1.5, 7.5}, Vec2{2, 3} }},
	{Image: "img7.jpg", Start: 2.0 / 3, Length: 1.0 / 3, Map: ZoomOut(3),
		Place: func(w, h float64) (mgl64.Vec3, Vec2) { return mgl64.Vec3{0, -h*2 - h/4, 0}, Vec2{w, h / 1.1} }},
}

// PromoLabels is the typography of the promo page.
var PromoLabels = []LabelDef{
	{Text: "egyedi", Anchor: AnchorLeft, Size: 0.6,
		Place: func(w, h float64) mgl64.Vec3 { return mgl64.Vec3{-w / 2.5, -h / 10, LabelDepth} }},
	{Text: "dekor", Anchor: AnchorRight, Size: 1,
		Place: func(w, h float64) mgl64.Vec3 { return mgl64.Vec3{w / 2.5, -h * 2, LabelDepth} }},
	{Text: "neked", Anchor: AnchorCenter, Size: 1,
		Place: func(w, h float64) mgl64.Vec3 { return mgl64.Vec3{0, -h * 4.624, LabelDepth} }},
}

type panel struct {
	def   PanelDef
	node  *Node
	state PanelState
}

// Content is the scroll layer: image panels and labels under one group
// that moves up as the page scrolls.
type Content struct {
	root       *Node
	images     *Node
	typography *Node
	panels     []*panel
	labels     []*Node
	labelDefs  []LabelDef

	// shift is the last content translation, in scene units.
	shift float64
}

// NewContent builds nodes for panels and labels. Panels have no texture
// and labels no font until SetTexture and SetFont are called; until then
// they draw nothing. Call Layout before the first draw.
func NewContent(panels []PanelDef, labels []LabelDef) *Content {
	c := &Content{
		root:       NewGroup("scroll"),
		images:     NewGroup("images"),
		typography: NewGroup("typography"),
		labelDefs:  labels,
	}
	c.root.AddChild(c.typography)
	c.root.AddChild(c.images)

	for _, def := range panels {
		p := &panel{
			def:   def,
			node:  NewImage(def.Image, mgl64.Vec3{}, Vec2{1, 1}, NewImageMaterial(nil)),
			state: PanelState{Zoom: 1},
		}
		c.images.AddChild(p.node)
		c.panels = append(c.panels, p)
	}
	for _, def := range labels {
		tb := &TextBlock{
			Content:       def.Text,
			Size:          def.Size,
			LetterSpacing: LabelLetterSpacing,
			Color:         ColorBlack,
			Anchor:        def.Anchor,
		}
		n := NewText(def.Text, mgl64.Vec3{}, tb)
		c.typography.AddChild(n)
		c.labels = append(c.labels, n)
	}
	return c
}

// Root returns the scroll group to attach to a scene.
func (c *Content) Root() *Node {
	return c.root
}

// Layout places panels from the viewport at z=0 and labels from the
// viewport at LabelDepth. Call on mount and when the screen size changes.
// A degenerate viewport leaves the previous layout in place.
func (c *Content) Layout(cam *Camera) {
	vp := cam.ViewportAt(mgl64.Vec3{})
	if !vp.Degenerate() {
		for _, p := range c.panels {
			p.node.Position, p.node.Scale = p.def.Place(vp.Width, vp.Height)
		}
	}
	lvp := cam.ViewportAt(mgl64.Vec3{0, 0, LabelDepth})
	if !lvp.Degenerate() {
		for i, n := range c.labels {
			n.Position = c.labelDefs[i].Place(lvp.Width, lvp.Height)
		}
	}
}

// Update recomputes every panel's state from the scroll driver and moves
// the scroll layer. vpHeight is the viewport height at z=0.
func (c *Content) Update(d *ScrollDriver, vpHeight float64) {
	for _, p := range c.panels {
		p.state = p.def.Map(d.Range(p.def.Start, p.def.Length))
		p.node.Material.Zoom = p.state.Zoom
		p.node.Material.Grayscale = p.state.Grayscale
	}
	c.shift = d.ContentShift(vpHeight)
	c.root.Position = mgl64.Vec3{0, c.shift, 0}
}

// Shift returns the current scroll layer translation in scene units.
func (c *Content) Shift() float64 {
	return c.shift
}

// NumPanels returns the number of panels.
func (c *Content) NumPanels() int {
	return len(c.panels)
}

// PanelState returns panel i's state as of the last Update.
func (c *Content) PanelState(i int) PanelState {
	return c.panels[i].state
}

// Panel returns panel i's node.
func (c *Content) Panel(i int) *Node {
	return c.panels[i].node
}

// Label returns label i's node.
func (c *Content) Label(i int) *Node {
	return c.labels[i]
}

// PanelImage returns the asset name of panel i.
func (c *Content) PanelImage(i int) string {
	return c.panels[i].def.Image
}

// SetTexture attaches a loaded texture to panel i.
func (c *Content) SetTexture(i int, img *ebiten.Image) {
	c.panels[i].node.Material.Texture = img
}

// SetFont sets the font of every label.
func (c *Content) SetFont(f *TTFFont) {
	for _, n := range c.labels {
		if n.TextBlock != nil {
			n.TextBlock.Font = f
		}
	}
}

// releaseText drops every label's raster cache.
func (c *Content) releaseText() {
	for _, n := range c.labels {
		if n.TextBlock != nil {
			n.TextBlock.Dispose()
		}
	}
}
