package board

import (
	"image"
	"image/draw"
	"math"

	"github.com/easel2d/easel/engine/colors"
	"github.com/easel2d/easel/engine/geom"
)

func imageRect(r geom.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.MaxX())), int(math.Ceil(r.MaxY())),
	)
}

// fillRect paints r over dst, clipped to the destination bounds. The
// uniform source goes through Over so translucent fills composite.
func fillRect(dst draw.Image, r geom.Rect, c colors.Color) {
	b := imageRect(r).Intersect(dst.Bounds())
	if b.Empty() {
		return
	}
	draw.Draw(dst, b, image.NewUniform(c.NRGBA()), image.Point{}, draw.Over)
}

// strokeRect outlines r with a border of width w drawn inside the rect's
// outer edge.
func strokeRect(dst draw.Image, r geom.Rect, w float64, c colors.Color) {
	if w <= 0 || r.IsEmpty() {
		return
	}
	if 2*w >= r.W || 2*w >= r.H {
		fillRect(dst, r, c)
		return
	}
	fillRect(dst, geom.R(r.X, r.Y, r.W, w), c)              // top
	fillRect(dst, geom.R(r.X, r.MaxY()-w, r.W, w), c)       // bottom
	fillRect(dst, geom.R(r.X, r.Y+w, w, r.H-2*w), c)        // left
	fillRect(dst, geom.R(r.MaxX()-w, r.Y+w, w, r.H-2*w), c) // right
}

// hline draws a 1px horizontal line at y spanning [x0, x1).
func hline(dst draw.Image, x0, x1, y float64, c colors.Color) {
	fillRect(dst, geom.R(x0, y, x1-x0, 1), c)
}

// vline draws a 1px vertical line at x spanning [y0, y1).
func vline(dst draw.Image, x, y0, y1 float64, c colors.Color) {
	fillRect(dst, geom.R(x, y0, 1, y1-y0), c)
}
