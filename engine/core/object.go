package core

import (
	"time"

	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/surface"
)

// RenderFunc paints one object onto its layer's surface. The scale is the
// current viewport scale so painters can size strokes and text crisply.
type RenderFunc func(s surface.Surface, scale float64)

// Object is one renderable entry in the engine's table. The id is owned by
// the caller; the engine never invents or deletes objects on its own.
type Object struct {
	ID           string
	LayerID      string
	Bounds       geom.Rect // screen space
	LastModified time.Time
	Render       RenderFunc
}

// Patch updates a subset of an object's fields; nil fields keep the current
// value.
type Patch struct {
	LayerID *string
	Bounds  *geom.Rect
	Render  RenderFunc
}
