// Package canvas assembles the engine: one camera, one render manager and
// one interaction machine behind a single host-facing surface. Hosts feed it
// pointer and key events plus a tick, and subscribe to the event bus for
// everything that happens inside.
package canvas

import (
	"errors"
	"time"

	"github.com/easel2d/easel/engine/colors"
	"github.com/easel2d/easel/engine/core"
	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/hit"
	"github.com/easel2d/easel/engine/input"
	"github.com/easel2d/easel/engine/scene"
	"github.com/easel2d/easel/engine/surface"
	"github.com/easel2d/easel/engine/text"
)

type Config struct {
	Width, Height int

	// Scene is the host's document store. Required.
	Scene input.Scene
	// Measure sizes text for hit-testing. Nil selects the embedded font.
	Measure scene.Measurer

	ClearColor colors.Color
	// NewSurface overrides the backing-store allocator, for hosts that
	// render into something other than plain RGBA images.
	NewSurface func(w, h int) surface.Surface
	// RequestFrame is called at most once per pending render so push-style
	// hosts can wake their loop. Pull-style hosts just call Tick.
	RequestFrame func()
	// SetCapture forwards pointer-capture requests on hosts that have them.
	SetCapture func(pointerID int, captured bool)
	// Invalidate marks layers stale when an interaction changes something
	// visible. Nil invalidates every layer.
	Invalidate func()

	HitPadding  float64
	GuideBorder float64

	MinScale, MaxScale float64
}

type Canvas struct {
	cam  *scene.Camera
	eng  *core.Engine
	mach *input.Machine
	keys *input.Keys

	fonts *text.Source // owned only when Measure was defaulted
}

func New(cfg Config) (*Canvas, error) {
	if cfg.Scene == nil {
		return nil, errors.New("canvas: Config.Scene is required")
	}

	c := &Canvas{cam: scene.NewCamera(), keys: input.NewKeys()}
	if cfg.MinScale > 0 || cfg.MaxScale > 0 {
		c.cam.SetScaleRange(cfg.MinScale, cfg.MaxScale)
	}

	measure := cfg.Measure
	if measure == nil {
		c.fonts = text.Default()
		measure = c.fonts.Measurer()
	}

	c.eng = core.New(core.Config{
		Width:        cfg.Width,
		Height:       cfg.Height,
		ClearColor:   cfg.ClearColor,
		NewSurface:   cfg.NewSurface,
		ScaleFn:      c.cam.Scale,
		RequestFrame: cfg.RequestFrame,
	})

	invalidate := cfg.Invalidate
	if invalidate == nil {
		invalidate = c.eng.InvalidateAll
	}

	bus := c.eng.Events()
	c.mach = input.New(input.Config{
		Camera: c.cam,
		Scene:  cfg.Scene,
		Hit:    hit.Options{Measure: measure, Padding: cfg.HitPadding, GuideBorder: cfg.GuideBorder},
		Keys:   c.keys,
		Hooks: input.Hooks{
			Marquee: func(r geom.Rect, active bool) {
				bus.Publish(core.MarqueeChanged{Rect: r, Active: active})
			},
			DragPreview: func(pos map[string]geom.Point, active bool) {
				bus.Publish(core.DragPreview{Positions: pos, Active: active})
			},
			ContextMenu: func(world geom.Point, id string) {
				bus.Publish(core.ContextMenu{World: world, ObjectID: id})
			},
			DoubleClick: func(world geom.Point) { bus.Publish(core.DoubleClick{World: world}) },
			LongPress:   func(world geom.Point) { bus.Publish(core.LongPress{World: world}) },
			Hover: func(screen geom.Point, id string) {
				bus.Publish(core.HoverChanged{Screen: screen, ObjectID: id})
			},
			ViewChanged: func() { c.publishViewport() },
			SetCapture:  cfg.SetCapture,
		},
		Invalidate: invalidate,
		AvgFrame:   func() time.Duration { return c.eng.Metrics().AverageFrameTime },
	})
	return c, nil
}

func (c *Canvas) Camera() *scene.Camera   { return c.cam }
func (c *Canvas) Engine() *core.Engine    { return c.eng }
func (c *Canvas) Machine() *input.Machine { return c.mach }
func (c *Canvas) Events() *core.Bus       { return c.eng.Events() }

// Handle exposes the composited output surface for presentation.
func (c *Canvas) Handle() surface.Surface { return c.eng.Handle() }

func (c *Canvas) Metrics() core.Metrics { return c.eng.Metrics() }
func (c *Canvas) Size() (int, int)      { return c.eng.Size() }

func (c *Canvas) CreateLayer(id string, zIndex int) (*core.Layer, error) {
	return c.eng.CreateLayer(id, zIndex)
}

func (c *Canvas) AddObject(o core.Object) error        { return c.eng.AddObject(o) }
func (c *Canvas) UpdateObject(id string, p core.Patch) { c.eng.UpdateObject(id, p) }
func (c *Canvas) RemoveObject(id string)               { c.eng.RemoveObject(id) }
func (c *Canvas) MarkDirty(layerID string)             { c.eng.MarkDirty(layerID) }
func (c *Canvas) MarkRegionDirty(r geom.Rect)          { c.eng.MarkRegionDirty(r) }

// Render repaints everything immediately.
func (c *Canvas) Render() { c.eng.Render() }

func (c *Canvas) Resize(w, h int) { c.eng.Resize(w, h) }

// Clear drops every renderable object but keeps layers and viewport.
func (c *Canvas) Clear() { c.eng.Clear() }

// Tick pumps the interaction machine (deferred handlers, long-press,
// momentum) and then runs any scheduled render pass. Call once per frame.
func (c *Canvas) Tick(now time.Time) {
	c.mach.Tick(now)
	c.eng.Tick(now)
}

func (c *Canvas) PointerDown(p input.Pointer)   { c.mach.PointerDown(p) }
func (c *Canvas) PointerMove(p input.Pointer)   { c.mach.PointerMove(p) }
func (c *Canvas) PointerUp(p input.Pointer)     { c.mach.PointerUp(p) }
func (c *Canvas) PointerCancel(p input.Pointer) { c.mach.PointerCancel(p) }
func (c *Canvas) ContextMenu(p input.Pointer)   { c.mach.ContextMenu(p) }

// Key records a key transition for the modifier tracker.
func (c *Canvas) Key(k input.Key, down bool) { c.keys.Set(k, down) }

func (c *Canvas) StopMomentum() { c.mach.StopMomentum() }

// ZoomToLevel zooms to an absolute scale holding anchor (screen space)
// fixed, for hosts with their own zoom affordances.
func (c *Canvas) ZoomToLevel(s float64, anchor geom.Point) {
	c.mach.StopMomentum()
	c.cam.ZoomToLevel(s, anchor)
	c.publishViewport()
	c.eng.InvalidateAll()
}

// ZoomBy zooms by a factor around anchor; the wheel host's entry point.
func (c *Canvas) ZoomBy(factor float64, anchor geom.Point) {
	c.ZoomToLevel(c.cam.Scale()*factor, anchor)
}

// PanBy shifts the viewport by a screen-space delta.
func (c *Canvas) PanBy(dx, dy float64) {
	c.cam.PanBy(dx, dy)
	c.publishViewport()
	c.eng.InvalidateAll()
}

func (c *Canvas) WorldToScreen(p geom.Point) geom.Point { return c.cam.WorldToScreen(p) }
func (c *Canvas) ScreenToWorld(p geom.Point) geom.Point { return c.cam.ScreenToWorld(p) }

// Destroy tears down the machine and the engine. No callbacks or events
// fire afterward.
func (c *Canvas) Destroy() {
	c.mach.Destroy()
	c.eng.Destroy()
	if c.fonts != nil {
		c.fonts.Close()
	}
}

func (c *Canvas) publishViewport() {
	c.eng.Events().Publish(core.ViewportChanged{Scale: c.cam.Scale(), Offset: c.cam.Offset()})
}
