package board

import (
	"fmt"
	"math"
	"strings"

	"github.com/easel2d/easel/engine/canvas"
	"github.com/easel2d/easel/engine/colors"
	"github.com/easel2d/easel/engine/core"
	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/hit"
	"github.com/easel2d/easel/engine/scene"
	"github.com/easel2d/easel/engine/surface"
	"github.com/easel2d/easel/engine/text"
)

// Engine layers the view renders into, bottom to top.
const (
	LayerGrid    = "grid"
	LayerContent = "content"
	LayerOverlay = "overlay"
)

// everything covers any surface so full-screen render objects never get
// culled by region dirtying.
var everything = geom.R(-1e9, -1e9, 2e9, 2e9)

// View projects the store onto engine layers: one render object per scene
// object on the content layer, plus a single overlay object for selection
// outlines, drag ghosts and the marquee. It keeps itself in sync by
// listening on the event bus.
type View struct {
	cv    *canvas.Canvas
	store *Store
	fonts *text.Source
	owns  bool
	opts  hit.Options

	attached map[string]struct{}

	marquee   geom.Rect
	marqueeOn bool
	preview   map[string]geom.Point
	hover     string

	// syncing suppresses the bus handler while the view itself writes to
	// the engine, since those writes echo as ObjectChanged events.
	syncing bool
	unsub   func()
}

// NewView attaches a view for store to cv. fonts may be nil to use the
// embedded default, in which case the view owns and closes it.
func NewView(cv *canvas.Canvas, store *Store, fonts *text.Source) (*View, error) {
	owns := false
	if fonts == nil {
		fonts = text.Default()
		owns = true
	}
	v := &View{
		cv:       cv,
		store:    store,
		fonts:    fonts,
		owns:     owns,
		opts:     hit.Options{Measure: fonts.Measurer()},
		attached: make(map[string]struct{}),
	}

	if _, err := cv.CreateLayer(LayerContent, 0); err != nil {
		return nil, fmt.Errorf("content layer: %w", err)
	}
	if _, err := cv.CreateLayer(LayerOverlay, 10); err != nil {
		return nil, fmt.Errorf("overlay layer: %w", err)
	}
	if err := cv.AddObject(core.Object{
		ID:      "overlay",
		LayerID: LayerOverlay,
		Bounds:  everything,
		Render:  v.renderOverlay,
	}); err != nil {
		return nil, err
	}

	for _, o := range store.Objects() {
		if err := v.attach(o.ID); err != nil {
			return nil, err
		}
	}

	v.unsub = cv.Events().Subscribe(v.onEvent)
	return v, nil
}

// EnableGrid adds a grid layer under the content that draws grid-unit lines
// in screen space.
func (v *View) EnableGrid() error {
	if _, err := v.cv.CreateLayer(LayerGrid, -10); err != nil {
		return fmt.Errorf("grid layer: %w", err)
	}
	return v.cv.AddObject(core.Object{
		ID:      "grid",
		LayerID: LayerGrid,
		Bounds:  everything,
		Render:  v.renderGrid,
	})
}

// Close detaches the view from the bus. Engine objects stay until the
// canvas is destroyed.
func (v *View) Close() {
	if v.unsub != nil {
		v.unsub()
		v.unsub = nil
	}
	if v.owns {
		v.fonts.Close()
	}
}

func (v *View) onEvent(ev core.Event) {
	if v.syncing {
		return
	}
	switch e := ev.(type) {
	case core.ObjectChanged:
		v.syncing = true
		v.syncObject(e.ID, e.Removed)
		v.syncing = false

	case core.SelectionChanged:
		v.cv.MarkDirty(LayerOverlay)

	case core.MarqueeChanged:
		v.marquee, v.marqueeOn = e.Rect, e.Active
		v.cv.MarkDirty(LayerOverlay)

	case core.DragPreview:
		if e.Active {
			v.preview = e.Positions
		} else {
			v.preview = nil
		}
		v.cv.MarkDirty(LayerOverlay)

	case core.HoverChanged:
		if e.ObjectID != v.hover {
			v.hover = e.ObjectID
			v.cv.MarkDirty(LayerOverlay)
		}

	case core.ViewportChanged:
		// Screen-space bounds shift under every pan or zoom.
		v.syncing = true
		v.syncAllBounds()
		v.syncing = false
	}
}

func (v *View) syncObject(id string, removed bool) {
	if removed {
		if _, ok := v.attached[id]; ok {
			v.cv.RemoveObject(id)
			delete(v.attached, id)
		}
		return
	}
	o, ok := v.store.Object(id)
	if !ok {
		return
	}
	if _, ok := v.attached[id]; !ok {
		if err := v.attach(o.ID); err != nil {
			core.Logger().Error("easel: attach object", "id", id, "err", err)
		}
		return
	}
	b := v.bounds(o)
	v.cv.UpdateObject(id, core.Patch{Bounds: &b})
}

func (v *View) syncAllBounds() {
	for _, o := range v.store.Objects() {
		if _, ok := v.attached[o.ID]; !ok {
			continue
		}
		b := v.bounds(o)
		v.cv.UpdateObject(o.ID, core.Patch{Bounds: &b})
	}
}

func (v *View) attach(id string) error {
	o, ok := v.store.Object(id)
	if !ok {
		return fmt.Errorf("attach: no object %q", id)
	}
	if err := v.cv.AddObject(core.Object{
		ID:      id,
		LayerID: LayerContent,
		Bounds:  v.bounds(o),
		Render:  v.renderObject(id),
	}); err != nil {
		return err
	}
	v.attached[id] = struct{}{}
	return nil
}

func (v *View) bounds(o scene.Object) geom.Rect {
	return hit.Bounds(&o, v.cv.Camera(), v.opts)
}

// renderObject returns the render function for one scene object. It reads
// the store at render time, so a pass always draws current state.
func (v *View) renderObject(id string) core.RenderFunc {
	return func(s surface.Surface, scale float64) {
		o, ok := v.store.Object(id)
		if !ok {
			return
		}
		v.drawObject(s, &o, scale)
	}
}

func (v *View) drawObject(s surface.Surface, o *scene.Object, scale float64) {
	img := s.Image()
	cam := v.cv.Camera()
	switch o.Kind {
	case scene.KindText:
		px := o.EffectiveFontSize() * scale
		face := v.fonts.Face(px)
		origin := cam.WorldToScreen(geom.Pt(o.X, o.Y))
		for i, line := range strings.Split(o.Content, "\n") {
			y := origin.Y + float64(i)*scene.LineHeight(px)
			face.Draw(img, line, origin.X, y, colors.Ink)
		}

	case scene.KindGuide:
		r := cam.WorldToScreenRect(geom.R(o.X, o.Y, o.Width, o.Height))
		strokeRect(img, r, 2, colors.GuideLine)
	}
}

func (v *View) renderOverlay(s surface.Surface, _ float64) {
	img := s.Image()
	cam := v.cv.Camera()
	sel := v.store.Selection()

	selected := make(map[string]bool, len(sel))
	for _, id := range sel {
		selected[id] = true
	}

	if v.hover != "" && !selected[v.hover] {
		if o, ok := v.store.Object(v.hover); ok {
			strokeRect(img, hit.Bounds(&o, cam, v.opts), 1, colors.Accent.WithAlpha(0.4))
		}
	}

	for _, id := range sel {
		if o, ok := v.store.Object(id); ok {
			strokeRect(img, hit.Bounds(&o, cam, v.opts), 2, colors.Accent)
		}
	}
	if len(sel) > 1 {
		group := hit.GroupBounds(sel, v.store.Objects(), cam, v.opts).Inset(-4)
		strokeRect(img, group, 1, colors.Accent.WithAlpha(0.6))
	}

	for id, pos := range v.preview {
		o, ok := v.store.Object(id)
		if !ok {
			continue
		}
		o.X, o.Y = pos.X, pos.Y
		strokeRect(img, hit.Bounds(&o, cam, v.opts), 1, colors.GuideLine.WithAlpha(0.8))
	}

	if v.marqueeOn {
		fillRect(img, v.marquee, colors.Accent.WithAlpha(0.12))
		strokeRect(img, v.marquee, 1, colors.Accent.WithAlpha(0.8))
	}
}

// renderGrid draws grid-unit lines across the surface, skipping them when
// zoomed out far enough that they would smear together.
func (v *View) renderGrid(s surface.Surface, scale float64) {
	step := v.store.GridUnit() * scale
	if step < 4 {
		return
	}
	img := s.Image()
	w, h := s.Size()
	off := v.cv.Camera().Offset()
	col := colors.Ink.WithAlpha(0.06)

	for x := math.Mod(off.X, step); x < float64(w); x += step {
		vline(img, x, 0, float64(h), col)
	}
	for y := math.Mod(off.Y, step); y < float64(h); y += step {
		hline(img, 0, float64(w), y, col)
	}
}
