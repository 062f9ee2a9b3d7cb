package input

import (
	"math"
	"time"

	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/hit"
	"github.com/easel2d/easel/engine/scene"
	"github.com/easel2d/easel/engine/timing"
)

type Mode uint8

const (
	Idle Mode = iota
	Panning
	DraggingObjects
	RangeSelecting
	Gesturing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case DraggingObjects:
		return "dragging"
	case RangeSelecting:
		return "range-selecting"
	case Gesturing:
		return "gesturing"
	default:
		return "unknown"
	}
}

// Scene is the machine's view of the document. The machine never owns
// objects; every mutation goes through these callbacks so the store stays
// the single writer.
type Scene interface {
	// Objects returns the scene in draw order, bottom to top.
	Objects() []scene.Object
	MoveObject(id string, dx, dy float64)
	SetObjectPos(id string, x, y float64)
	Selection() []string
	SetSelection(ids []string)
	// GridUnit is the snap step in world units, derived from the line
	// height. Zero or negative disables snapping.
	GridUnit() float64
}

// Hooks are the machine's outbound callbacks. All optional.
type Hooks struct {
	ContextMenu func(world geom.Point, objectID string)
	DoubleClick func(world geom.Point)
	LongPress   func(world geom.Point)
	// Marquee reports the selection rectangle in screen space while a
	// range-select drag is live, then once more with active=false.
	Marquee func(r geom.Rect, active bool)
	// DragPreview reports grid-snapped ghost positions for the dragged
	// objects, then nil/false when the drag ends.
	DragPreview func(world map[string]geom.Point, active bool)
	// Hover fires when the topmost object under the cursor changes; id is
	// empty over bare canvas.
	Hover func(screen geom.Point, objectID string)
	// ViewChanged fires after any pan or zoom the machine applies.
	ViewChanged func()
	// SetCapture asks the host to capture or release the pointer, on hosts
	// that route events by capture.
	SetCapture func(pointerID int, captured bool)
}

const (
	DefaultDoubleClickWindow = 300 * time.Millisecond
	DefaultLongPressDelay    = 500 * time.Millisecond
	DefaultMoveThreshold     = 4.0 // screen px before a hold counts as movement
	DefaultMomentumMinSpeed  = 2.0 // px per frame to launch momentum
	DefaultMarqueeDebounce   = 80 * time.Millisecond
)

type Config struct {
	Camera *scene.Camera
	Scene  Scene
	Hit    hit.Options
	Keys   *Keys // optional; nil means no pan modifier
	Hooks  Hooks

	// Invalidate marks the interactive layers dirty. Called whenever the
	// machine changes something visible.
	Invalidate func()
	// AvgFrame feeds the throttle tuner, typically the render manager's
	// moving-average frame time. Optional.
	AvgFrame func() time.Duration

	DoubleClickWindow time.Duration
	LongPressDelay    time.Duration
	MoveThreshold     float64
	MomentumMinSpeed  float64
	MarqueeDebounce   time.Duration
}

// Machine is the interaction state machine. One instance per canvas, every
// method on the engine goroutine; Tick pumps deferred work, long-press and
// momentum.
type Machine struct {
	cfg Config

	mode      Mode
	active    int
	hasActive bool

	downScreen geom.Point
	downWorld  geom.Point
	downTime   time.Time
	lastScreen geom.Point
	moved      bool
	longPress  bool

	clickCount int
	lastClick  time.Time

	dragIDs     []string
	dragLive    map[string]geom.Point
	pendingDrag geom.Point

	panRemainder geom.Point
	vel          velTracker

	marqueeOn   bool
	marqueeRect geom.Rect

	pinchSecond int
	pinchFirst  geom.Point
	pinchOther  geom.Point
	pinchDist   float64
	pinchBase   float64

	mom momentum

	lastHover string

	hoverCh    *timing.Channel
	dragCh     *timing.Channel
	hoverTh    timing.Throttle[Pointer]
	dragTh     timing.Throttle[struct{}]
	marqueeDeb timing.Debounce[geom.Rect]
	tuner      *timing.Tuner

	destroyed bool
}

func New(cfg Config) *Machine {
	if cfg.Camera == nil {
		panic("input: Config.Camera is nil")
	}
	if cfg.Scene == nil {
		panic("input: Config.Scene is nil")
	}
	if cfg.DoubleClickWindow <= 0 {
		cfg.DoubleClickWindow = DefaultDoubleClickWindow
	}
	if cfg.LongPressDelay <= 0 {
		cfg.LongPressDelay = DefaultLongPressDelay
	}
	if cfg.MoveThreshold <= 0 {
		cfg.MoveThreshold = DefaultMoveThreshold
	}
	if cfg.MomentumMinSpeed <= 0 {
		cfg.MomentumMinSpeed = DefaultMomentumMinSpeed
	}
	if cfg.MarqueeDebounce <= 0 {
		cfg.MarqueeDebounce = DefaultMarqueeDebounce
	}

	m := &Machine{
		cfg:     cfg,
		hoverCh: timing.NewChannel(33*time.Millisecond, 16*time.Millisecond, 132*time.Millisecond),
		dragCh:  timing.NewChannel(16*time.Millisecond, 8*time.Millisecond, 64*time.Millisecond),
	}
	m.hoverTh = timing.Throttle[Pointer]{Fn: m.hover, Every: m.hoverCh.Interval()}
	m.dragTh = timing.Throttle[struct{}]{Fn: m.applyDrag, Every: m.dragCh.Interval()}
	m.marqueeDeb = timing.Debounce[geom.Rect]{Fn: m.recomputeMarquee, Delay: cfg.MarqueeDebounce}
	m.tuner = timing.NewTuner(m.hoverCh, m.dragCh)
	return m
}

func (m *Machine) Mode() Mode { return m.mode }

// ActivePointer returns the pointer id the machine is following, if any.
func (m *Machine) ActivePointer() (int, bool) { return m.active, m.hasActive }

// Marquee returns the live selection rectangle in screen space.
func (m *Machine) Marquee() (geom.Rect, bool) { return m.marqueeRect, m.marqueeOn }

func (m *Machine) MomentumActive() bool { return m.mom.active }

// StopMomentum halts any momentum pan immediately.
func (m *Machine) StopMomentum() { m.mom.stop() }

// Destroy stops momentum and drops all deferred work. The machine ignores
// every event afterward.
func (m *Machine) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	m.mom.stop()
	m.hoverTh.Cancel()
	m.dragTh.Cancel()
	m.marqueeDeb.Cancel()
	m.reset()
}

func (m *Machine) PointerDown(p Pointer) {
	if m.destroyed {
		return
	}
	p = Sanitize(p)
	now := m.stamp(p)
	m.mom.stop()

	if p.Buttons&ButtonSecondary != 0 {
		m.contextMenu(p)
		return
	}

	if m.hasActive {
		m.maybePinch(p)
		return
	}

	if !m.lastClick.IsZero() && now.Sub(m.lastClick) <= m.cfg.DoubleClickWindow {
		m.clickCount++
	} else {
		m.clickCount = 1
	}
	m.lastClick = now
	doubleClick := false
	if m.clickCount >= 2 {
		m.clickCount = 0
		m.lastClick = time.Time{}
		doubleClick = true
	}

	m.active = p.ID
	m.hasActive = true
	m.downScreen = geom.Pt(p.X, p.Y)
	m.downWorld = m.cfg.Camera.ScreenToWorld(m.downScreen)
	m.downTime = now
	m.lastScreen = m.downScreen
	m.moved = false
	m.longPress = false

	m.classify(p)

	if doubleClick && m.cfg.Hooks.DoubleClick != nil {
		m.cfg.Hooks.DoubleClick(m.downWorld)
	}
}

// classify decides the mode for a fresh pointer-down, in order: object hit
// with a multi-select modifier toggles selection, a plain hit starts a drag,
// the pan modifier starts a pan, bare canvas starts a marquee.
func (m *Machine) classify(p Pointer) {
	obj, hitOK := hit.Test(m.downScreen, m.cfg.Scene.Objects(), m.cfg.Camera, m.cfg.Hit)

	switch {
	case hitOK && p.Mods.MultiSelect():
		m.toggleSelection(obj.ID)

	case hitOK:
		m.beginDrag(obj.ID)

	case m.panModifier():
		m.mode = Panning
		m.panRemainder = geom.Point{}
		m.vel.reset()
		m.vel.push(p.X, p.Y, m.downTime)
		m.capture(true)

	default:
		m.cfg.Scene.SetSelection(nil)
		m.mode = RangeSelecting
		m.marqueeOn = true
		m.marqueeRect = geom.R(m.downScreen.X, m.downScreen.Y, 0, 0)
		if m.cfg.Hooks.Marquee != nil {
			m.cfg.Hooks.Marquee(m.marqueeRect, true)
		}
		m.capture(true)
		m.invalidate()
	}
}

func (m *Machine) panModifier() bool {
	return m.cfg.Keys != nil && m.cfg.Keys.SpacePan()
}

func (m *Machine) toggleSelection(id string) {
	sel := m.cfg.Scene.Selection()
	next := make([]string, 0, len(sel)+1)
	found := false
	for _, s := range sel {
		if s == id {
			found = true
			continue
		}
		next = append(next, s)
	}
	if !found {
		next = append(next, id)
	}
	m.cfg.Scene.SetSelection(next)
	m.invalidate()
}

// beginDrag enters DraggingObjects. Hitting an already-selected object keeps
// the whole selection so group drags work; a fresh hit replaces it.
func (m *Machine) beginDrag(id string) {
	sel := m.cfg.Scene.Selection()
	selected := false
	for _, s := range sel {
		if s == id {
			selected = true
			break
		}
	}
	if !selected {
		sel = []string{id}
		m.cfg.Scene.SetSelection(sel)
	}

	m.mode = DraggingObjects
	m.dragIDs = append(m.dragIDs[:0], sel...)
	m.dragLive = make(map[string]geom.Point, len(m.dragIDs))
	for _, o := range m.cfg.Scene.Objects() {
		for _, want := range m.dragIDs {
			if o.ID == want {
				m.dragLive[o.ID] = geom.Pt(o.X, o.Y)
				break
			}
		}
	}
	m.pendingDrag = geom.Point{}
	m.capture(true)
	m.invalidate()
}

// maybePinch promotes a second touch into a pinch. Only pans and marquees
// give way; an object drag keeps its one pointer.
func (m *Machine) maybePinch(p Pointer) {
	if p.Type != PointerTouch || p.ID == m.active {
		return
	}
	if m.mode != Panning && m.mode != RangeSelecting && m.mode != Idle {
		return
	}
	if m.mode == RangeSelecting {
		m.marqueeDeb.Cancel()
		m.clearMarquee()
	}
	m.mode = Gesturing
	m.pinchSecond = p.ID
	m.pinchFirst = m.lastScreen
	m.pinchOther = geom.Pt(p.X, p.Y)
	m.pinchDist = math.Max(m.pinchFirst.Dist(m.pinchOther), 1e-3)
	m.pinchBase = m.cfg.Camera.Scale()
	m.panRemainder = geom.Point{}
}

func (m *Machine) PointerMove(p Pointer) {
	if m.destroyed {
		return
	}
	p = Sanitize(p)
	now := m.stamp(p)

	// Hover tracking runs for every pointer, active or not.
	m.hoverTh.Call(p, now)

	if !m.hasActive {
		return
	}
	if p.ID != m.active && !(m.mode == Gesturing && p.ID == m.pinchSecond) {
		return
	}

	pos := geom.Pt(p.X, p.Y)
	if !m.moved && pos.Dist(m.downScreen) > m.cfg.MoveThreshold {
		m.moved = true
	}

	switch m.mode {
	case DraggingObjects:
		delta := pos.Sub(m.lastScreen)
		s := m.cfg.Camera.Scale()
		m.pendingDrag.X += delta.X / s
		m.pendingDrag.Y += delta.Y / s
		m.dragTh.Call(struct{}{}, now)

	case Panning:
		delta := pos.Sub(m.lastScreen)
		m.panRemainder = m.panRemainder.Add(delta)
		m.commitPan()
		m.vel.push(p.X, p.Y, now)

	case RangeSelecting:
		m.marqueeRect = geom.FromCorners(m.downScreen, pos)
		if m.cfg.Hooks.Marquee != nil {
			m.cfg.Hooks.Marquee(m.marqueeRect, true)
		}
		m.marqueeDeb.Call(m.marqueeRect, now)
		m.invalidate()

	case Gesturing:
		if p.ID == m.pinchSecond {
			m.pinchOther = pos
		} else {
			m.pinchFirst = pos
		}
		m.updatePinch()
		return // second pointer must not disturb lastScreen
	}

	if p.ID == m.active {
		m.lastScreen = pos
	}
}

// commitPan applies the accumulated pan in grid-sized steps and carries the
// remainder, so the offset lands on grid boundaries while dragging.
func (m *Machine) commitPan() {
	step := m.cfg.Scene.GridUnit() * m.cfg.Camera.Scale()
	var dx, dy float64
	if step <= 0 {
		dx, dy = m.panRemainder.X, m.panRemainder.Y
	} else {
		dx = math.Trunc(m.panRemainder.X/step) * step
		dy = math.Trunc(m.panRemainder.Y/step) * step
	}
	if dx == 0 && dy == 0 {
		return
	}
	m.panRemainder.X -= dx
	m.panRemainder.Y -= dy
	m.cfg.Camera.PanBy(dx, dy)
	m.viewChanged()
	m.invalidate()
}

func (m *Machine) updatePinch() {
	dist := math.Max(m.pinchFirst.Dist(m.pinchOther), 1e-3)
	target := m.pinchBase * dist / m.pinchDist
	centroid := m.pinchFirst.Mid(m.pinchOther)
	m.cfg.Camera.ZoomToLevel(target, centroid)
	m.viewChanged()
	m.invalidate()
}

// applyDrag drains the accumulated world delta into the live objects and
// publishes the snapped preview. The live positions stay unsnapped; only
// pointer-up resolves the difference.
func (m *Machine) applyDrag(struct{}) {
	d := m.pendingDrag
	m.pendingDrag = geom.Point{}
	if d.X != 0 || d.Y != 0 {
		for _, id := range m.dragIDs {
			m.cfg.Scene.MoveObject(id, d.X, d.Y)
			if live, ok := m.dragLive[id]; ok {
				m.dragLive[id] = live.Add(d)
			}
		}
	}
	if m.cfg.Hooks.DragPreview != nil {
		unit := m.cfg.Scene.GridUnit()
		preview := make(map[string]geom.Point, len(m.dragLive))
		for id, live := range m.dragLive {
			preview[id] = snapPoint(live, unit)
		}
		m.cfg.Hooks.DragPreview(preview, true)
	}
	m.invalidate()
}

func (m *Machine) recomputeMarquee(r geom.Rect) {
	ids := hit.ObjectsInRect(r, m.cfg.Scene.Objects(), m.cfg.Camera, m.cfg.Hit)
	m.cfg.Scene.SetSelection(ids)
	m.invalidate()
}

func (m *Machine) PointerUp(p Pointer) {
	if m.destroyed {
		return
	}
	p = Sanitize(p)
	now := m.stamp(p)

	if !m.hasActive {
		return
	}
	if m.mode == Gesturing {
		if p.ID == m.active || p.ID == m.pinchSecond {
			m.endInteraction()
		}
		return
	}
	if p.ID != m.active {
		return
	}

	switch m.mode {
	case DraggingObjects:
		m.dragTh.Cancel()
		m.applyDrag(struct{}{})
		m.snapDragged()
		if m.cfg.Hooks.DragPreview != nil {
			m.cfg.Hooks.DragPreview(nil, false)
		}

	case Panning:
		vx, vy := m.vel.velocity(now)
		if math.Hypot(vx, vy) >= m.cfg.MomentumMinSpeed {
			m.mom.start(vx, vy, now)
		}

	case RangeSelecting:
		// Deliver the deferred recompute so the commit matches the last
		// computed set, then drop the rectangle.
		m.marqueeDeb.Fire()
		m.clearMarquee()
	}

	m.endInteraction()
}

// snapDragged commits every dragged object to its grid-snapped position.
// Runs once per drag, on release. A click that never crossed the movement
// threshold must not snap.
func (m *Machine) snapDragged() {
	unit := m.cfg.Scene.GridUnit()
	if unit <= 0 || !m.moved {
		return
	}
	for _, id := range m.dragIDs {
		live, ok := m.dragLive[id]
		if !ok {
			continue
		}
		snapped := snapPoint(live, unit)
		if snapped != live {
			m.cfg.Scene.SetObjectPos(id, snapped.X, snapped.Y)
		}
	}
}

// PointerCancel aborts the interaction: previews and the marquee clear as on
// pointer-up, but nothing is committed and no snapping applies.
func (m *Machine) PointerCancel(p Pointer) {
	if m.destroyed {
		return
	}
	p = Sanitize(p)
	if !m.hasActive {
		return
	}
	if p.ID != m.active && !(m.mode == Gesturing && p.ID == m.pinchSecond) {
		return
	}

	switch m.mode {
	case DraggingObjects:
		m.dragTh.Cancel()
		m.pendingDrag = geom.Point{}
		if m.cfg.Hooks.DragPreview != nil {
			m.cfg.Hooks.DragPreview(nil, false)
		}
	case RangeSelecting:
		m.marqueeDeb.Cancel()
		m.clearMarquee()
	}

	m.endInteraction()
}

// ContextMenu handles a host-native context-menu event.
func (m *Machine) ContextMenu(p Pointer) {
	if m.destroyed {
		return
	}
	m.contextMenu(Sanitize(p))
}

func (m *Machine) contextMenu(p Pointer) {
	if m.cfg.Hooks.ContextMenu == nil {
		return
	}
	pt := geom.Pt(p.X, p.Y)
	id := ""
	if obj, ok := hit.Test(pt, m.cfg.Scene.Objects(), m.cfg.Camera, m.cfg.Hit); ok {
		id = obj.ID
	}
	m.cfg.Hooks.ContextMenu(m.cfg.Camera.ScreenToWorld(pt), id)
}

// Tick pumps deferred work: throttle trailing calls, the marquee debounce,
// long-press detection, momentum, and throttle tuning.
func (m *Machine) Tick(now time.Time) {
	if m.destroyed {
		return
	}
	m.hoverTh.Flush(now)
	m.dragTh.Flush(now)
	m.marqueeDeb.Flush(now)

	if m.hasActive && !m.longPress && !m.moved && m.mode != Gesturing &&
		now.Sub(m.downTime) >= m.cfg.LongPressDelay {
		m.longPress = true
		if m.cfg.Hooks.LongPress != nil {
			m.cfg.Hooks.LongPress(m.downWorld)
		}
	}

	if dx, dy, _ := m.mom.step(now); dx != 0 || dy != 0 {
		m.cfg.Camera.PanBy(dx, dy)
		m.viewChanged()
		m.invalidate()
	}

	if m.cfg.AvgFrame != nil {
		m.tuner.Observe(m.cfg.AvgFrame(), now)
	}
}

func (m *Machine) hover(p Pointer) {
	pt := geom.Pt(p.X, p.Y)
	id := ""
	if obj, ok := hit.Test(pt, m.cfg.Scene.Objects(), m.cfg.Camera, m.cfg.Hit); ok {
		id = obj.ID
	}
	if id == m.lastHover {
		return
	}
	m.lastHover = id
	if m.cfg.Hooks.Hover != nil {
		m.cfg.Hooks.Hover(pt, id)
	}
}

func (m *Machine) clearMarquee() {
	if !m.marqueeOn {
		return
	}
	m.marqueeOn = false
	m.marqueeRect = geom.Rect{}
	if m.cfg.Hooks.Marquee != nil {
		m.cfg.Hooks.Marquee(geom.Rect{}, false)
	}
	m.invalidate()
}

func (m *Machine) endInteraction() {
	m.capture(false)
	m.mode = Idle
	m.hasActive = false
	m.dragIDs = m.dragIDs[:0]
	m.dragLive = nil
	m.pendingDrag = geom.Point{}
	m.panRemainder = geom.Point{}
	m.pinchSecond = 0
	m.invalidate()
}

// reset clears interaction state without firing hooks. Destroy path only.
func (m *Machine) reset() {
	m.mode = Idle
	m.hasActive = false
	m.dragIDs = nil
	m.dragLive = nil
	m.pendingDrag = geom.Point{}
	m.panRemainder = geom.Point{}
	m.marqueeOn = false
	m.marqueeRect = geom.Rect{}
}

func (m *Machine) capture(on bool) {
	if m.cfg.Hooks.SetCapture != nil {
		m.cfg.Hooks.SetCapture(m.active, on)
	}
}

func (m *Machine) viewChanged() {
	if m.cfg.Hooks.ViewChanged != nil {
		m.cfg.Hooks.ViewChanged()
	}
}

func (m *Machine) invalidate() {
	if m.cfg.Invalidate != nil {
		m.cfg.Invalidate()
	}
}

func (m *Machine) stamp(p Pointer) time.Time {
	if p.Time.IsZero() {
		return time.Now()
	}
	return p.Time
}

func snapTo(v, unit float64) float64 {
	if unit <= 0 {
		return v
	}
	return math.Round(v/unit) * unit
}

func snapPoint(p geom.Point, unit float64) geom.Point {
	return geom.Pt(snapTo(p.X, unit), snapTo(p.Y, unit))
}
