// Package scene holds the viewport camera and the world-space objects the
// interaction layer hit-tests against.
package scene

import "github.com/easel2d/easel/engine/geom"

const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 10.0
)

// Camera maps world coordinates onto screen pixels through a scale and an
// offset: screen = world*scale + offset. It is the only owner of the
// viewport state; pans and zooms go through its methods so the scale clamp
// and the change generation stay consistent.
type Camera struct {
	scale    float64
	offset   geom.Point
	minScale float64
	maxScale float64
	gen      uint64
}

func NewCamera() *Camera {
	return &Camera{scale: 1, minScale: DefaultMinScale, maxScale: DefaultMaxScale}
}

// SetScaleRange adjusts the clamp range. Zero or inverted bounds are
// ignored.
func (c *Camera) SetScaleRange(min, max float64) {
	if min <= 0 || max < min {
		return
	}
	c.minScale, c.maxScale = min, max
	c.setScale(c.scale)
}

func (c *Camera) Scale() float64     { return c.scale }
func (c *Camera) Offset() geom.Point { return c.offset }
func (c *Camera) MinScale() float64  { return c.minScale }
func (c *Camera) MaxScale() float64  { return c.maxScale }

// Generation increments on every viewport change, letting hosts detect
// movement without comparing floats.
func (c *Camera) Generation() uint64 { return c.gen }

func (c *Camera) WorldToScreen(p geom.Point) geom.Point {
	return geom.Point{X: p.X*c.scale + c.offset.X, Y: p.Y*c.scale + c.offset.Y}
}

func (c *Camera) ScreenToWorld(p geom.Point) geom.Point {
	return geom.Point{X: (p.X - c.offset.X) / c.scale, Y: (p.Y - c.offset.Y) / c.scale}
}

// WorldToScreenRect maps a world rectangle onto the screen.
func (c *Camera) WorldToScreenRect(r geom.Rect) geom.Rect {
	tl := c.WorldToScreen(geom.Pt(r.X, r.Y))
	return geom.Rect{X: tl.X, Y: tl.Y, W: r.W * c.scale, H: r.H * c.scale}
}

// ScreenToWorldRect maps a screen rectangle into world space.
func (c *Camera) ScreenToWorldRect(r geom.Rect) geom.Rect {
	tl := c.ScreenToWorld(geom.Pt(r.X, r.Y))
	return geom.Rect{X: tl.X, Y: tl.Y, W: r.W / c.scale, H: r.H / c.scale}
}

// PanBy shifts the viewport by a screen-space delta.
func (c *Camera) PanBy(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	c.offset.X += dx
	c.offset.Y += dy
	c.gen++
}

// ZoomToLevel changes the scale while keeping the world point under
// anchorScreen at the same pixel. The scale is clamped before the offset is
// solved, so an out-of-range request cannot move the anchor.
func (c *Camera) ZoomToLevel(newScale float64, anchorScreen geom.Point) {
	newScale = c.clamp(newScale)
	if newScale == c.scale {
		return
	}
	anchorWorld := c.ScreenToWorld(anchorScreen)
	c.scale = newScale
	c.offset = anchorScreen.Sub(anchorWorld.Mul(newScale))
	c.gen++
}

// ZoomBy applies a multiplicative zoom step anchored at the given screen
// point.
func (c *Camera) ZoomBy(factor float64, anchorScreen geom.Point) {
	c.ZoomToLevel(c.scale*factor, anchorScreen)
}

func (c *Camera) setScale(s float64) {
	s = c.clamp(s)
	if s != c.scale {
		c.scale = s
		c.gen++
	}
}

func (c *Camera) clamp(s float64) float64 {
	if s < c.minScale {
		return c.minScale
	}
	if s > c.maxScale {
		return c.maxScale
	}
	return s
}
