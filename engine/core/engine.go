// Package core owns the render layers, the object table and the coalesced
// frame schedule: the part of the engine that decides when and where
// drawing happens. What gets drawn stays with the host's render funcs.
package core

import (
	"fmt"
	"image"
	"image/draw"
	"sort"
	"time"

	"github.com/easel2d/easel/engine/colors"
	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/profiler"
	"github.com/easel2d/easel/engine/surface"
)

// Config sets up an Engine. Zero values pick the software surface factory,
// a unit scale and no frame requester.
type Config struct {
	Width, Height int

	// ClearColor fills the output before compositing.
	ClearColor colors.Color

	// NewSurface builds layer and output surfaces. Defaults to the
	// software surface.
	NewSurface func(w, h int) surface.Surface

	// ScaleFn supplies the viewport scale passed to render funcs. The
	// engine itself never interprets it.
	ScaleFn func() float64

	// RequestFrame, when set, is called at most once per pending frame so
	// push-driven hosts can wake their loop. Pull-driven hosts just call
	// Tick at their own cadence.
	RequestFrame func()
}

// Engine is the rendering surface manager: named z-ordered layers, each its
// own surface, dirty-tracked and composited into one output on a coalesced
// per-frame schedule. All methods must run on one goroutine.
type Engine struct {
	cfg           Config
	width, height int

	layers  map[string]*Layer
	order   []*Layer // ascending zIndex, creation order within a zIndex
	objects map[string]*Object
	output  surface.Surface

	pending map[string]struct{}
	queued  bool

	bus       Bus
	metrics   Metrics
	layerSeq  int
	destroyed bool
}

func New(cfg Config) *Engine {
	if cfg.Width < 1 {
		cfg.Width = 1
	}
	if cfg.Height < 1 {
		cfg.Height = 1
	}
	if cfg.NewSurface == nil {
		cfg.NewSurface = surface.New
	}
	if cfg.ScaleFn == nil {
		cfg.ScaleFn = func() float64 { return 1 }
	}
	return &Engine{
		cfg:     cfg,
		width:   cfg.Width,
		height:  cfg.Height,
		layers:  make(map[string]*Layer),
		objects: make(map[string]*Object),
		output:  cfg.NewSurface(cfg.Width, cfg.Height),
		pending: make(map[string]struct{}),
	}
}

// Events returns the engine's bus.
func (e *Engine) Events() *Bus { return &e.bus }

// Size returns the current output dimensions.
func (e *Engine) Size() (int, int) { return e.width, e.height }

// Handle exposes the composited output surface.
func (e *Engine) Handle() surface.Surface { return e.output }

// Metrics returns a copy of the frame accounting.
func (e *Engine) Metrics() Metrics { return e.metrics }

// Destroyed reports whether Destroy has run.
func (e *Engine) Destroyed() bool { return e.destroyed }

// Pending reports whether a render pass is scheduled.
func (e *Engine) Pending() bool { return e.queued }

// CreateLayer registers a new layer. A duplicate id is a configuration
// error: the engine must not carry two layers under one name.
func (e *Engine) CreateLayer(id string, zIndex int) (*Layer, error) {
	if e.destroyed {
		return nil, ErrDestroyed
	}
	if _, ok := e.layers[id]; ok {
		return nil, fmt.Errorf("%w: %q", ErrLayerExists, id)
	}
	e.layerSeq++
	l := &Layer{
		id:   id,
		z:    zIndex,
		seq:  e.layerSeq,
		surf: e.cfg.NewSurface(e.width, e.height),
	}
	e.layers[id] = l
	e.order = append(e.order, l)
	sort.SliceStable(e.order, func(i, j int) bool { return e.order[i].z < e.order[j].z })
	e.markDirty(l)
	return l, nil
}

// Layer looks up a layer by id.
func (e *Engine) Layer(id string) (*Layer, bool) {
	l, ok := e.layers[id]
	return l, ok
}

// ObjectCount returns the number of live objects across all layers.
func (e *Engine) ObjectCount() int { return len(e.objects) }

// AddObject inserts o into the table and marks its layer dirty. The layer
// must exist. Re-adding an existing id replaces the object with a warning;
// ids are the caller's to keep unique.
func (e *Engine) AddObject(o Object) error {
	if e.destroyed {
		return ErrDestroyed
	}
	layer, ok := e.layers[o.LayerID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchLayer, o.LayerID)
	}
	if prev, exists := e.objects[o.ID]; exists {
		Logger().Warn("easel: duplicate object id, replacing", "id", o.ID)
		e.removeFromLayer(prev)
	}
	if o.LastModified.IsZero() {
		o.LastModified = time.Now()
	}
	obj := o
	e.objects[o.ID] = &obj
	layer.appendObject(o.ID)
	e.markDirty(layer)
	e.bus.Publish(ObjectChanged{ID: o.ID})
	return nil
}

// UpdateObject applies a patch. An unknown id is a warned no-op, never an
// error: by the time an update lands the object may legitimately be gone.
func (e *Engine) UpdateObject(id string, p Patch) {
	if e.destroyed {
		return
	}
	obj, ok := e.objects[id]
	if !ok {
		Logger().Warn("easel: update of unknown object", "id", id)
		return
	}
	if p.LayerID != nil && *p.LayerID != obj.LayerID {
		next, ok := e.layers[*p.LayerID]
		if !ok {
			Logger().Warn("easel: update to unknown layer", "id", id, "layer", *p.LayerID)
		} else {
			prev := e.layers[obj.LayerID]
			prev.removeObject(id)
			e.markDirty(prev)
			obj.LayerID = next.id
			next.appendObject(id)
			e.markDirty(next)
		}
	}
	if p.Bounds != nil {
		obj.Bounds = *p.Bounds
	}
	if p.Render != nil {
		obj.Render = p.Render
	}
	obj.LastModified = time.Now()
	e.markDirty(e.layers[obj.LayerID])
	e.bus.Publish(ObjectChanged{ID: id})
}

// RemoveObject deletes an object. Unknown ids are warned no-ops.
func (e *Engine) RemoveObject(id string) {
	if e.destroyed {
		return
	}
	obj, ok := e.objects[id]
	if !ok {
		Logger().Warn("easel: remove of unknown object", "id", id)
		return
	}
	e.removeFromLayer(obj)
	delete(e.objects, id)
	e.bus.Publish(ObjectChanged{ID: id, Removed: true})
}

func (e *Engine) removeFromLayer(obj *Object) {
	if layer, ok := e.layers[obj.LayerID]; ok {
		layer.removeObject(obj.ID)
		e.markDirty(layer)
	}
}

// MarkDirty queues a repaint of one layer. Scheduling is idempotent: any
// number of dirty marks inside one tick yield one render pass.
func (e *Engine) MarkDirty(layerID string) {
	if e.destroyed {
		return
	}
	layer, ok := e.layers[layerID]
	if !ok {
		Logger().Warn("easel: mark dirty on unknown layer", "layer", layerID)
		return
	}
	e.markDirty(layer)
}

// InvalidateAll queues a repaint of every layer, coalesced like MarkDirty.
func (e *Engine) InvalidateAll() {
	if e.destroyed {
		return
	}
	for _, l := range e.order {
		e.markDirty(l)
	}
}

// MarkRegionDirty queues a repaint of every layer owning an object whose
// bounds intersect r (screen space).
func (e *Engine) MarkRegionDirty(r geom.Rect) {
	if e.destroyed {
		return
	}
	for _, obj := range e.objects {
		if obj.Bounds.Intersects(r) {
			if layer, ok := e.layers[obj.LayerID]; ok {
				e.markDirty(layer)
			}
		}
	}
}

func (e *Engine) markDirty(l *Layer) {
	l.dirty = true
	e.pending[l.id] = struct{}{}
	if e.queued {
		return
	}
	e.queued = true
	if e.cfg.RequestFrame != nil {
		e.cfg.RequestFrame()
	}
}

// Tick runs the scheduled render pass, if any. Hosts call it once per frame.
func (e *Engine) Tick(now time.Time) {
	if !e.queued || e.destroyed {
		return
	}
	e.renderPass(now)
}

// Render forces a full repaint of every layer immediately.
func (e *Engine) Render() {
	if e.destroyed {
		return
	}
	for _, l := range e.order {
		e.markDirty(l)
	}
	e.renderPass(time.Now())
}

func (e *Engine) renderPass(now time.Time) {
	defer profiler.Span("engine.render")()
	start := time.Now()

	// A surface can be gone mid-teardown; skip the frame and let the
	// still-queued schedule retry next tick.
	if e.output == nil || e.output.Image() == nil {
		Logger().Error("easel: output surface unavailable, skipping frame")
		return
	}
	for id := range e.pending {
		if l := e.layers[id]; l == nil || l.surf == nil {
			Logger().Error("easel: layer surface unavailable, skipping frame", "layer", id)
			return
		}
	}

	scale := e.cfg.ScaleFn()
	for _, l := range e.order {
		if _, dirty := e.pending[l.id]; !dirty {
			continue
		}
		l.surf.Clear(colors.Transparent)
		for _, oid := range l.objectIDs {
			obj := e.objects[oid]
			if obj == nil || obj.Render == nil {
				continue
			}
			obj.Render(l.surf, scale)
		}
		l.dirty = false
		l.lastRender = now
		delete(e.pending, l.id)
	}

	// Composite every layer, not just the repainted ones.
	composite := profiler.Span("engine.composite")
	out := e.output.Image()
	e.output.Clear(e.cfg.ClearColor)
	for _, l := range e.order {
		draw.Draw(out, out.Bounds(), l.surf.Image(), image.Point{}, draw.Over)
	}
	composite()

	e.queued = false
	e.metrics.record(time.Since(start))
	e.bus.Publish(Frame{Duration: e.metrics.LastFrameTime, Count: e.metrics.FrameCount})
}

// Resize rebuilds every surface at the new size, marks everything dirty and
// repaints once.
func (e *Engine) Resize(w, h int) {
	if e.destroyed {
		return
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w == e.width && h == e.height {
		return
	}
	e.width, e.height = w, h

	e.output.Release()
	e.output = e.cfg.NewSurface(w, h)
	for _, l := range e.order {
		l.surf.Release()
		l.surf = e.cfg.NewSurface(w, h)
		e.markDirty(l)
	}
	e.renderPass(time.Now())
}

// Clear drops every object while keeping the layers, then queues a repaint.
// No per-object events fire; hosts treat it as one bulk action.
func (e *Engine) Clear() {
	if e.destroyed {
		return
	}
	e.objects = make(map[string]*Object)
	for _, l := range e.order {
		l.objectIDs = nil
		e.markDirty(l)
	}
}

// Destroy cancels any pending frame and releases every resource. No engine
// callback fires after it returns; further calls are no-ops.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.queued = false
	e.pending = nil
	for _, l := range e.order {
		if l.surf != nil {
			l.surf.Release()
			l.surf = nil
		}
	}
	if e.output != nil {
		e.output.Release()
		e.output = nil
	}
	e.layers = nil
	e.order = nil
	e.objects = nil
}
