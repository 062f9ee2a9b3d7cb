// Package geom holds the small float64 geometry vocabulary shared by the
// engine packages: points, rectangles and the handful of operations the
// camera, hit-testing and compositor need.
package geom

import "math"

type Point struct {
	X, Y float64
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point   { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point   { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Mul(s float64) Point { return Point{p.X * s, p.Y * s} }

// Dist returns the euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	dx, dy := q.X-p.X, q.Y-p.Y
	return math.Hypot(dx, dy)
}

// Mid returns the midpoint between p and q.
func (p Point) Mid(q Point) Point {
	return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2}
}

// Rect is an axis-aligned rectangle. W and H are expected to be
// non-negative; use FromCorners when building from arbitrary drag points.
type Rect struct {
	X, Y, W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// FromCorners builds the normalized rectangle spanned by two opposite
// corners, in any order.
func FromCorners(a, b Point) Rect {
	x0, x1 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y0, y1 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

func (r Rect) IsEmpty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// Intersects reports whether r and s overlap. Touching edges count as an
// overlap, matching the marquee rule.
func (r Rect) Intersects(s Rect) bool {
	return !(r.MaxX() < s.X || s.MaxX() < r.X || r.MaxY() < s.Y || s.MaxY() < r.Y)
}

// Union returns the smallest rectangle covering both r and s. An empty
// rectangle is treated as absent.
func (r Rect) Union(s Rect) Rect {
	if r.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return r
	}
	x0 := math.Min(r.X, s.X)
	y0 := math.Min(r.Y, s.Y)
	x1 := math.Max(r.MaxX(), s.MaxX())
	y1 := math.Max(r.MaxY(), s.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Inset shrinks r by d on every side. A negative d grows it. Shrinking past
// zero yields an empty rectangle centered where r was.
func (r Rect) Inset(d float64) Rect {
	r.X += d
	r.Y += d
	r.W -= 2 * d
	r.H -= 2 * d
	if r.W < 0 {
		r.X += r.W / 2
		r.W = 0
	}
	if r.H < 0 {
		r.Y += r.H / 2
		r.H = 0
	}
	return r
}

func (r Rect) Center() Point {
	return Point{r.X + r.W/2, r.Y + r.H/2}
}

// Translate shifts r by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}
