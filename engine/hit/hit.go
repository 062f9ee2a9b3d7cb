// Package hit answers the geometry questions the interaction layer asks:
// which object is under a pointer, which objects a marquee covers, and what
// box a selection spans. All queries run in screen space so click tolerance
// stays constant regardless of zoom.
package hit

import (
	"strings"

	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/scene"
)

const (
	// DefaultPadding is the click tolerance added around every object.
	DefaultPadding = 4.0
	// DefaultGuideBorder is the width of a guide's selectable border band.
	DefaultGuideBorder = 10.0
)

// Options configure the queries. Measure is required for text objects; the
// zero values of the paddings select the defaults.
type Options struct {
	Measure     scene.Measurer
	Padding     float64
	GuideBorder float64
}

func (o Options) padding() float64 {
	if o.Padding > 0 {
		return o.Padding
	}
	return DefaultPadding
}

func (o Options) guideBorder() float64 {
	if o.GuideBorder > 0 {
		return o.GuideBorder
	}
	return DefaultGuideBorder
}

// Bounds computes the object's padded screen-space bounding box under cam.
// Text boxes anchor at the baseline: the measured advance is the width and
// the effective font size the height, with following lines stacked at the
// canonical line height.
func Bounds(o *scene.Object, cam *scene.Camera, opt Options) geom.Rect {
	pad := opt.padding()
	switch o.Kind {
	case scene.KindText:
		px := o.EffectiveFontSize() * cam.Scale()
		origin := cam.WorldToScreen(geom.Pt(o.X, o.Y))

		w := 0.0
		lines := strings.Split(o.Content, "\n")
		for _, line := range lines {
			if opt.Measure == nil {
				continue
			}
			if lw := opt.Measure(line, px); lw > w {
				w = lw
			}
		}
		h := px + float64(len(lines)-1)*scene.LineHeight(px)
		return geom.R(origin.X, origin.Y-px, w, h).Inset(-pad)

	case scene.KindGuide:
		r := cam.WorldToScreenRect(geom.R(o.X, o.Y, o.Width, o.Height))
		return r.Inset(-pad)

	default:
		origin := cam.WorldToScreen(geom.Pt(o.X, o.Y))
		return geom.R(origin.X, origin.Y, 0, 0).Inset(-pad)
	}
}

// contains applies the per-kind hit rule. Guides only respond on their
// border band so clicks inside a frame fall through to whatever it frames.
func contains(o *scene.Object, p geom.Point, cam *scene.Camera, opt Options) bool {
	outer := Bounds(o, cam, opt)
	if !outer.Contains(p) {
		return false
	}
	if o.Kind != scene.KindGuide {
		return true
	}
	inner := cam.WorldToScreenRect(geom.R(o.X, o.Y, o.Width, o.Height)).Inset(opt.guideBorder())
	return !inner.Contains(p)
}

// Test returns the topmost object containing the screen point p. objs is in
// draw order (back to front); the scan runs front to back.
func Test(p geom.Point, objs []scene.Object, cam *scene.Camera, opt Options) (scene.Object, bool) {
	for i := len(objs) - 1; i >= 0; i-- {
		if contains(&objs[i], p, cam, opt) {
			return objs[i], true
		}
	}
	return scene.Object{}, false
}

// ObjectsInRect returns the ids of every object whose bounds overlap the
// screen-space rectangle r, in draw order.
func ObjectsInRect(r geom.Rect, objs []scene.Object, cam *scene.Camera, opt Options) []string {
	var ids []string
	for i := range objs {
		if r.Intersects(Bounds(&objs[i], cam, opt)) {
			ids = append(ids, objs[i].ID)
		}
	}
	return ids
}

// GroupBounds unions the bounds of the objects named by ids. Returns an
// empty rect when none match.
func GroupBounds(ids []string, objs []scene.Object, cam *scene.Camera, opt Options) geom.Rect {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out geom.Rect
	for i := range objs {
		if want[objs[i].ID] {
			out = out.Union(Bounds(&objs[i], cam, opt))
		}
	}
	return out
}
