package input

import (
	"math"
	"testing"
	"time"

	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/hit"
	"github.com/easel2d/easel/engine/scene"
)

// fakeScene is a minimal document store: draw-order objects, a selection,
// and a fixed grid unit.
type fakeScene struct {
	objs []scene.Object
	sel  []string
	grid float64
}

func (f *fakeScene) Objects() []scene.Object { return f.objs }

func (f *fakeScene) MoveObject(id string, dx, dy float64) {
	for i := range f.objs {
		if f.objs[i].ID == id {
			f.objs[i].X += dx
			f.objs[i].Y += dy
		}
	}
}

func (f *fakeScene) SetObjectPos(id string, x, y float64) {
	for i := range f.objs {
		if f.objs[i].ID == id {
			f.objs[i].X = x
			f.objs[i].Y = y
		}
	}
}

func (f *fakeScene) Selection() []string       { return f.sel }
func (f *fakeScene) SetSelection(ids []string) { f.sel = ids }
func (f *fakeScene) GridUnit() float64         { return f.grid }

func (f *fakeScene) pos(id string) geom.Point {
	for i := range f.objs {
		if f.objs[i].ID == id {
			return geom.Pt(f.objs[i].X, f.objs[i].Y)
		}
	}
	return geom.Pt(math.NaN(), math.NaN())
}

func measureByLen(text string, sizePx float64) float64 {
	return float64(len(text)) * sizePx * 0.6
}

func textObj(id string, x, y float64) scene.Object {
	return scene.Object{ID: id, Kind: scene.KindText, X: x, Y: y, Content: "hi", FontSize: 16, ScaleFactor: 1}
}

func down(id int, x, y float64, at time.Time) Pointer {
	return Pointer{ID: id, X: x, Y: y, Buttons: ButtonPrimary, Primary: true, Time: at}
}

func move(id int, x, y float64, at time.Time) Pointer {
	return Pointer{ID: id, X: x, Y: y, Buttons: ButtonPrimary, Primary: true, Time: at}
}

func up(id int, x, y float64, at time.Time) Pointer {
	return Pointer{ID: id, X: x, Y: y, Primary: true, Time: at}
}

func touch(p Pointer) Pointer {
	p.Type = PointerTouch
	return p
}

type harness struct {
	m     *Machine
	cam   *scene.Camera
	sc    *fakeScene
	keys  *Keys
	t0    time.Time
	hooks *hookLog
}

type hookLog struct {
	marquee      []geom.Rect
	marqueeEnds  int
	previews     []map[string]geom.Point
	previewEnds  int
	doubleClicks []geom.Point
	longPresses  []geom.Point
	contexts     []string
	hovers       []string
	viewChanges  int
}

func newHarness(t *testing.T, objs []scene.Object, grid float64) *harness {
	t.Helper()
	h := &harness{
		cam:   scene.NewCamera(),
		sc:    &fakeScene{objs: objs, grid: grid},
		keys:  NewKeys(),
		t0:    time.Now(),
		hooks: &hookLog{},
	}
	h.m = New(Config{
		Camera: h.cam,
		Scene:  h.sc,
		Hit:    hit.Options{Measure: measureByLen},
		Keys:   h.keys,
		Hooks: Hooks{
			Marquee: func(r geom.Rect, active bool) {
				if active {
					h.hooks.marquee = append(h.hooks.marquee, r)
				} else {
					h.hooks.marqueeEnds++
				}
			},
			DragPreview: func(p map[string]geom.Point, active bool) {
				if active {
					h.hooks.previews = append(h.hooks.previews, p)
				} else {
					h.hooks.previewEnds++
				}
			},
			DoubleClick: func(w geom.Point) { h.hooks.doubleClicks = append(h.hooks.doubleClicks, w) },
			LongPress:   func(w geom.Point) { h.hooks.longPresses = append(h.hooks.longPresses, w) },
			ContextMenu: func(_ geom.Point, id string) { h.hooks.contexts = append(h.hooks.contexts, id) },
			Hover:       func(_ geom.Point, id string) { h.hooks.hovers = append(h.hooks.hovers, id) },
			ViewChanged: func() { h.hooks.viewChanges++ },
		},
	})
	return h
}

func (h *harness) at(d time.Duration) time.Time { return h.t0.Add(d) }

func TestMarqueeSelectsAndCommits(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40), textObj("far", 500, 500)}, 0)
	h.sc.sel = []string{"far"}

	h.m.PointerDown(down(1, 10, 10, h.at(0)))
	if got := h.m.Mode(); got != RangeSelecting {
		t.Fatalf("mode after empty-canvas down = %v, want %v", got, RangeSelecting)
	}
	if len(h.sc.sel) != 0 {
		t.Fatalf("selection not cleared on marquee start: %v", h.sc.sel)
	}

	h.m.PointerMove(move(1, 110, 110, h.at(10*time.Millisecond)))
	r, on := h.m.Marquee()
	if !on || r.W != 100 || r.H != 100 {
		t.Fatalf("marquee = %+v active=%v, want 100x100 active", r, on)
	}
	if last := h.hooks.marquee[len(h.hooks.marquee)-1]; last != geom.R(10, 10, 100, 100) {
		t.Fatalf("marquee hook saw %+v, want (10,10,100,100)", last)
	}

	// Recompute is debounced; it fires from the tick pump after the gap.
	if len(h.sc.sel) != 0 {
		t.Fatalf("selection recomputed before debounce gap: %v", h.sc.sel)
	}
	h.m.Tick(h.at(100 * time.Millisecond))
	if len(h.sc.sel) != 1 || h.sc.sel[0] != "a" {
		t.Fatalf("selection after debounce = %v, want [a]", h.sc.sel)
	}

	h.m.PointerUp(up(1, 110, 110, h.at(120*time.Millisecond)))
	if _, on := h.m.Marquee(); on {
		t.Fatal("marquee still active after pointer-up")
	}
	if h.hooks.marqueeEnds != 1 {
		t.Fatalf("marquee end notifications = %d, want 1", h.hooks.marqueeEnds)
	}
	if h.m.Mode() != Idle {
		t.Fatalf("mode after up = %v, want idle", h.m.Mode())
	}
	if len(h.sc.sel) != 1 || h.sc.sel[0] != "a" {
		t.Fatalf("committed selection = %v, want [a]", h.sc.sel)
	}
}

func TestMarqueeQuickReleaseDeliversDeferredRecompute(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40)}, 0)

	h.m.PointerDown(down(1, 10, 10, h.at(0)))
	h.m.PointerMove(move(1, 110, 110, h.at(20*time.Millisecond)))
	// Release inside the debounce window: the deferred recompute must still
	// run so the commit reflects the rectangle.
	h.m.PointerUp(up(1, 110, 110, h.at(40*time.Millisecond)))

	if len(h.sc.sel) != 1 || h.sc.sel[0] != "a" {
		t.Fatalf("selection after quick release = %v, want [a]", h.sc.sel)
	}
}

func TestClickHitReplacesSelectionAndDrags(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40), textObj("b", 300, 40)}, 0)
	h.sc.sel = []string{"a"}

	h.m.PointerDown(down(1, 305, 35, h.at(0)))
	if h.m.Mode() != DraggingObjects {
		t.Fatalf("mode = %v, want dragging", h.m.Mode())
	}
	if len(h.sc.sel) != 1 || h.sc.sel[0] != "b" {
		t.Fatalf("selection = %v, want [b]", h.sc.sel)
	}
}

func TestClickSelectedMemberKeepsGroup(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40), textObj("b", 300, 40)}, 0)
	h.sc.sel = []string{"a", "b"}

	h.m.PointerDown(down(1, 35, 35, h.at(0)))
	if len(h.sc.sel) != 2 {
		t.Fatalf("selection = %v, want group kept", h.sc.sel)
	}

	h.m.PointerMove(move(1, 45, 35, h.at(20*time.Millisecond)))
	h.m.PointerUp(up(1, 45, 35, h.at(40*time.Millisecond)))

	if got, want := h.sc.pos("a"), geom.Pt(40, 40); got != want {
		t.Errorf("a moved to %v, want %v", got, want)
	}
	if got, want := h.sc.pos("b"), geom.Pt(310, 40); got != want {
		t.Errorf("b moved to %v, want %v", got, want)
	}
}

func TestModifierToggleSelection(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40), textObj("b", 300, 40)}, 0)
	h.sc.sel = []string{"a"}

	p := down(1, 305, 35, h.at(0))
	p.Mods = ModShift
	h.m.PointerDown(p)
	if h.m.Mode() != Idle {
		t.Fatalf("mode after toggle = %v, want idle", h.m.Mode())
	}
	if len(h.sc.sel) != 2 || h.sc.sel[0] != "a" || h.sc.sel[1] != "b" {
		t.Fatalf("selection = %v, want [a b]", h.sc.sel)
	}
	h.m.PointerUp(up(1, 305, 35, h.at(50*time.Millisecond)))

	p = down(1, 35, 35, h.at(500*time.Millisecond))
	p.Mods = ModCtrl
	h.m.PointerDown(p)
	h.m.PointerUp(up(1, 35, 35, h.at(550*time.Millisecond)))
	if len(h.sc.sel) != 1 || h.sc.sel[0] != "b" {
		t.Fatalf("selection after toggling a out = %v, want [b]", h.sc.sel)
	}
}

func TestDragLiveUnsnappedPreviewAndCommitSnapped(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40)}, 20)

	h.m.PointerDown(down(1, 35, 35, h.at(0)))
	h.m.PointerMove(move(1, 42, 38, h.at(20*time.Millisecond)))

	if got, want := h.sc.pos("a"), geom.Pt(37, 43); got != want {
		t.Fatalf("live position = %v, want unsnapped %v", got, want)
	}
	if len(h.hooks.previews) == 0 {
		t.Fatal("no drag preview published")
	}
	last := h.hooks.previews[len(h.hooks.previews)-1]
	if got, want := last["a"], geom.Pt(40, 40); got != want {
		t.Fatalf("preview position = %v, want snapped %v", got, want)
	}

	h.m.PointerUp(up(1, 42, 38, h.at(40*time.Millisecond)))
	if got, want := h.sc.pos("a"), geom.Pt(40, 40); got != want {
		t.Fatalf("committed position = %v, want snapped %v", got, want)
	}
	if h.hooks.previewEnds != 1 {
		t.Fatalf("preview end notifications = %d, want 1", h.hooks.previewEnds)
	}
}

func TestPlainClickDoesNotSnap(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 33, 41)}, 20)

	h.m.PointerDown(down(1, 35, 35, h.at(0)))
	h.m.PointerUp(up(1, 35, 35, h.at(30*time.Millisecond)))

	if got, want := h.sc.pos("a"), geom.Pt(33, 41); got != want {
		t.Fatalf("position after plain click = %v, want untouched %v", got, want)
	}
}

func TestCancelAbortsDragWithoutSnap(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40)}, 20)

	h.m.PointerDown(down(1, 35, 35, h.at(0)))
	h.m.PointerMove(move(1, 42, 38, h.at(20*time.Millisecond)))
	h.m.PointerCancel(up(1, 42, 38, h.at(30*time.Millisecond)))

	if got, want := h.sc.pos("a"), geom.Pt(37, 43); got != want {
		t.Fatalf("position after cancel = %v, want live unsnapped %v", got, want)
	}
	if h.hooks.previewEnds != 1 {
		t.Fatalf("preview end notifications = %d, want 1", h.hooks.previewEnds)
	}
	if h.m.Mode() != Idle {
		t.Fatalf("mode after cancel = %v, want idle", h.m.Mode())
	}
}

func TestPanCommitsInGridStepsWithRemainder(t *testing.T) {
	h := newHarness(t, nil, 20)
	h.keys.Set(KeySpace, true)

	h.m.PointerDown(down(1, 200, 200, h.at(0)))
	if h.m.Mode() != Panning {
		t.Fatalf("mode = %v, want panning", h.m.Mode())
	}

	h.m.PointerMove(move(1, 208, 200, h.at(100*time.Millisecond)))
	h.m.PointerMove(move(1, 216, 200, h.at(200*time.Millisecond)))
	if got := h.cam.Offset(); got != geom.Pt(0, 0) {
		t.Fatalf("offset committed below grid threshold: %v", got)
	}

	h.m.PointerMove(move(1, 224, 200, h.at(300*time.Millisecond)))
	if got := h.cam.Offset(); got != geom.Pt(20, 0) {
		t.Fatalf("offset = %v, want one grid step (20,0)", got)
	}
	if h.hooks.viewChanges == 0 {
		t.Fatal("no view-changed notification for the committed pan")
	}

	// Remainder carries: 4px held back, another 16px completes the next step.
	h.m.PointerMove(move(1, 240, 200, h.at(400*time.Millisecond)))
	if got := h.cam.Offset(); got != geom.Pt(40, 0) {
		t.Fatalf("offset = %v, want (40,0) after carried remainder", got)
	}

	h.m.PointerUp(up(1, 240, 200, h.at(520*time.Millisecond)))
	if h.m.MomentumActive() {
		t.Fatal("slow pan release must not launch momentum")
	}
}

func TestMomentumLaunchDecayAndStop(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.keys.Set(KeySpace, true)

	h.m.PointerDown(down(1, 0, 0, h.at(0)))
	for i := 1; i <= 5; i++ {
		h.m.PointerMove(move(1, float64(i)*30, 0, h.at(time.Duration(i)*16*time.Millisecond)))
	}
	h.m.PointerUp(up(1, 150, 0, h.at(96*time.Millisecond)))

	if !h.m.MomentumActive() {
		t.Fatal("fast pan release did not launch momentum")
	}
	atRelease := h.cam.Offset().X

	now := h.at(96 * time.Millisecond)
	ticks := 0
	for h.m.MomentumActive() {
		now = now.Add(16 * time.Millisecond)
		h.m.Tick(now)
		ticks++
		if ticks > 2000 {
			t.Fatal("momentum did not terminate")
		}
	}
	after := h.cam.Offset().X
	if after <= atRelease {
		t.Fatalf("momentum did not continue the pan: %v -> %v", atRelease, after)
	}
	if math.IsInf(after, 0) || math.IsNaN(after) {
		t.Fatalf("momentum produced non-finite offset %v", after)
	}

	// Once stopped it stays stopped.
	before := h.cam.Offset()
	h.m.Tick(now.Add(time.Second))
	if h.cam.Offset() != before {
		t.Fatal("camera moved after momentum ended")
	}
}

func TestMomentumStoppedByNewPointerDown(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.keys.Set(KeySpace, true)

	h.m.PointerDown(down(1, 0, 0, h.at(0)))
	for i := 1; i <= 5; i++ {
		h.m.PointerMove(move(1, float64(i)*30, 0, h.at(time.Duration(i)*16*time.Millisecond)))
	}
	h.m.PointerUp(up(1, 150, 0, h.at(96*time.Millisecond)))
	if !h.m.MomentumActive() {
		t.Fatal("momentum not launched")
	}

	h.m.PointerDown(down(2, 300, 300, h.at(120*time.Millisecond)))
	if h.m.MomentumActive() {
		t.Fatal("pointer-down did not stop momentum")
	}
}

func TestMomentumDoesNotSurviveDestroy(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.keys.Set(KeySpace, true)

	h.m.PointerDown(down(1, 0, 0, h.at(0)))
	for i := 1; i <= 5; i++ {
		h.m.PointerMove(move(1, float64(i)*30, 0, h.at(time.Duration(i)*16*time.Millisecond)))
	}
	h.m.PointerUp(up(1, 150, 0, h.at(96*time.Millisecond)))

	h.m.Destroy()
	before := h.cam.Offset()
	h.m.Tick(h.at(200 * time.Millisecond))
	if h.cam.Offset() != before {
		t.Fatal("camera moved after Destroy")
	}
	if h.m.MomentumActive() {
		t.Fatal("momentum active after Destroy")
	}
}

func TestPinchZoomsAtCentroidAndClamps(t *testing.T) {
	h := newHarness(t, nil, 0)

	h.m.PointerDown(touch(down(1, 100, 100, h.at(0))))
	h.m.PointerDown(touch(down(2, 200, 100, h.at(10*time.Millisecond))))
	if h.m.Mode() != Gesturing {
		t.Fatalf("mode = %v, want gesturing", h.m.Mode())
	}

	h.m.PointerMove(touch(move(2, 300, 100, h.at(30*time.Millisecond))))
	if got := h.cam.Scale(); math.Abs(got-2) > 1e-9 {
		t.Fatalf("scale = %v, want 2", got)
	}
	// The centroid's world point stays put through the zoom.
	centroid := geom.Pt(200, 100)
	if got := h.cam.WorldToScreen(geom.Pt(200, 100)); got.Dist(centroid) > 1e-6 {
		t.Fatalf("centroid drifted to %v", got)
	}

	h.m.PointerMove(touch(move(2, 1200, 100, h.at(50*time.Millisecond))))
	if got := h.cam.Scale(); got != h.cam.MaxScale() {
		t.Fatalf("scale = %v, want clamped to %v", got, h.cam.MaxScale())
	}

	h.m.PointerUp(touch(up(2, 1200, 100, h.at(70*time.Millisecond))))
	if h.m.Mode() != Idle {
		t.Fatalf("mode after pinch end = %v, want idle", h.m.Mode())
	}
}

func TestSecondTouchPromotesMarqueeToPinch(t *testing.T) {
	h := newHarness(t, nil, 0)

	h.m.PointerDown(touch(down(1, 100, 100, h.at(0))))
	h.m.PointerMove(touch(move(1, 150, 150, h.at(10*time.Millisecond))))
	if h.m.Mode() != RangeSelecting {
		t.Fatalf("mode = %v, want range-selecting", h.m.Mode())
	}

	h.m.PointerDown(touch(down(2, 250, 150, h.at(20*time.Millisecond))))
	if h.m.Mode() != Gesturing {
		t.Fatalf("mode = %v, want gesturing", h.m.Mode())
	}
	if _, on := h.m.Marquee(); on {
		t.Fatal("marquee survived pinch promotion")
	}
}

func TestSecondTouchIgnoredDuringObjectDrag(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40)}, 0)

	h.m.PointerDown(touch(down(1, 35, 35, h.at(0))))
	h.m.PointerDown(touch(down(2, 300, 300, h.at(10*time.Millisecond))))
	if h.m.Mode() != DraggingObjects {
		t.Fatalf("mode = %v, want drag to survive second touch", h.m.Mode())
	}
}

func TestWrongPointerIgnoredExceptHover(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40)}, 20)
	h.keys.Set(KeySpace, true)

	h.m.PointerDown(down(1, 200, 200, h.at(0)))
	h.m.PointerMove(move(2, 35, 35, h.at(20*time.Millisecond)))

	if got := h.cam.Offset(); got != geom.Pt(0, 0) {
		t.Fatalf("foreign pointer moved the camera: %v", got)
	}
	if len(h.hooks.hovers) != 1 || h.hooks.hovers[0] != "a" {
		t.Fatalf("hover log = %v, want [a]", h.hooks.hovers)
	}
}

func TestHoverReportsEnterAndLeave(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40)}, 0)

	h.m.PointerMove(move(1, 35, 35, h.at(0)))
	if len(h.hooks.hovers) != 1 || h.hooks.hovers[0] != "a" {
		t.Fatalf("hover log = %v, want [a]", h.hooks.hovers)
	}

	// Second move lands inside the throttle window and is deferred to the
	// tick pump.
	h.m.PointerMove(move(1, 500, 500, h.at(10*time.Millisecond)))
	if len(h.hooks.hovers) != 1 {
		t.Fatalf("hover fired inside throttle window: %v", h.hooks.hovers)
	}
	h.m.Tick(h.at(60 * time.Millisecond))
	if len(h.hooks.hovers) != 2 || h.hooks.hovers[1] != "" {
		t.Fatalf("hover log = %v, want [a \"\"]", h.hooks.hovers)
	}
}

func TestDoubleClickWindow(t *testing.T) {
	h := newHarness(t, nil, 0)

	h.m.PointerDown(down(1, 50, 60, h.at(0)))
	h.m.PointerUp(up(1, 50, 60, h.at(40*time.Millisecond)))
	h.m.PointerDown(down(1, 50, 60, h.at(200*time.Millisecond)))
	h.m.PointerUp(up(1, 50, 60, h.at(240*time.Millisecond)))

	if len(h.hooks.doubleClicks) != 1 {
		t.Fatalf("double clicks = %d, want 1", len(h.hooks.doubleClicks))
	}
	if got, want := h.hooks.doubleClicks[0], geom.Pt(50, 60); got != want {
		t.Errorf("double click world point = %v, want %v", got, want)
	}

	// The counter reset on firing: a third quick click starts a new count.
	h.m.PointerDown(down(1, 50, 60, h.at(280*time.Millisecond)))
	h.m.PointerUp(up(1, 50, 60, h.at(300*time.Millisecond)))
	if len(h.hooks.doubleClicks) != 1 {
		t.Fatalf("double clicks after reset = %d, want still 1", len(h.hooks.doubleClicks))
	}

	// Spaced clicks never fire.
	h.m.PointerDown(down(1, 50, 60, h.at(900*time.Millisecond)))
	h.m.PointerUp(up(1, 50, 60, h.at(940*time.Millisecond)))
	if len(h.hooks.doubleClicks) != 1 {
		t.Fatalf("double clicks = %d, want 1", len(h.hooks.doubleClicks))
	}
}

func TestLongPressFiresOnceAfterHold(t *testing.T) {
	h := newHarness(t, nil, 0)

	h.m.PointerDown(down(1, 80, 90, h.at(0)))
	h.m.Tick(h.at(400 * time.Millisecond))
	if len(h.hooks.longPresses) != 0 {
		t.Fatal("long press fired early")
	}
	h.m.Tick(h.at(510 * time.Millisecond))
	if len(h.hooks.longPresses) != 1 {
		t.Fatalf("long presses = %d, want 1", len(h.hooks.longPresses))
	}
	h.m.Tick(h.at(600 * time.Millisecond))
	if len(h.hooks.longPresses) != 1 {
		t.Fatalf("long press fired again: %d", len(h.hooks.longPresses))
	}
	if got, want := h.hooks.longPresses[0], geom.Pt(80, 90); got != want {
		t.Errorf("long press world point = %v, want %v", got, want)
	}
}

func TestLongPressCancelledByMovement(t *testing.T) {
	h := newHarness(t, nil, 0)

	h.m.PointerDown(down(1, 80, 90, h.at(0)))
	h.m.PointerMove(move(1, 100, 90, h.at(100*time.Millisecond)))
	h.m.Tick(h.at(600 * time.Millisecond))
	if len(h.hooks.longPresses) != 0 {
		t.Fatal("long press fired despite movement")
	}
}

func TestSecondaryButtonOpensContextMenu(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40)}, 0)

	p := down(1, 35, 35, h.at(0))
	p.Buttons = ButtonSecondary
	h.m.PointerDown(p)

	if h.m.Mode() != Idle {
		t.Fatalf("mode = %v, want no state change", h.m.Mode())
	}
	if len(h.hooks.contexts) != 1 || h.hooks.contexts[0] != "a" {
		t.Fatalf("context log = %v, want [a]", h.hooks.contexts)
	}
}

func TestDestroyedMachineIgnoresEvents(t *testing.T) {
	h := newHarness(t, []scene.Object{textObj("a", 30, 40)}, 0)

	h.m.Destroy()
	h.m.PointerDown(down(1, 35, 35, h.at(0)))
	if h.m.Mode() != Idle {
		t.Fatalf("mode = %v, want idle after destroy", h.m.Mode())
	}
	if len(h.sc.sel) != 0 {
		t.Fatalf("destroyed machine mutated selection: %v", h.sc.sel)
	}
	h.m.Destroy() // idempotent
}
