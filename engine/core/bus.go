package core

import (
	"time"

	"github.com/easel2d/easel/engine/geom"
)

// Event is the closed set of notifications the engine and its interaction
// layer publish. Hosts subscribe to the bus instead of threading callbacks
// through every level.
type Event interface{ isEvent() }

// ObjectChanged fires after an object is added, patched or removed.
type ObjectChanged struct {
	ID      string
	Removed bool
}

func (ObjectChanged) isEvent() {}

// SelectionChanged fires when the selection set is replaced or toggled.
type SelectionChanged struct{ IDs []string }

func (SelectionChanged) isEvent() {}

// ViewportChanged fires after a pan or zoom.
type ViewportChanged struct {
	Scale  float64
	Offset geom.Point
}

func (ViewportChanged) isEvent() {}

// MarqueeChanged carries the live selection rectangle; Active false means
// the marquee was dismissed.
type MarqueeChanged struct {
	Rect   geom.Rect
	Active bool
}

func (MarqueeChanged) isEvent() {}

// DragPreview carries grid-snapped ghost positions for the dragged
// selection. Active false clears the preview.
type DragPreview struct {
	Positions map[string]geom.Point
	Active    bool
}

func (DragPreview) isEvent() {}

// ContextMenu fires on a secondary-button press. ObjectID is empty when the
// press landed on empty canvas.
type ContextMenu struct {
	World    geom.Point
	ObjectID string
}

func (ContextMenu) isEvent() {}

// DoubleClick fires when two pointer-downs land within the double-click
// window.
type DoubleClick struct{ World geom.Point }

func (DoubleClick) isEvent() {}

// LongPress fires when a pointer holds in place past the long-press delay.
type LongPress struct{ World geom.Point }

func (LongPress) isEvent() {}

// HoverChanged reports the (throttled) pointer position while no gesture is
// active, with the topmost object under it, if any.
type HoverChanged struct {
	Screen   geom.Point
	ObjectID string
}

func (HoverChanged) isEvent() {}

// Frame fires after each completed render pass.
type Frame struct {
	Duration time.Duration
	Count    uint64
}

func (Frame) isEvent() {}

// Bus is a synchronous publish/subscribe fan-out. Subscribers run on the
// publisher's goroutine in subscription order. Not safe for concurrent use;
// everything happens on the engine goroutine.
type Bus struct {
	subs   []busSub
	nextID int
}

type busSub struct {
	id int
	fn func(Event)
}

// Subscribe registers fn and returns a removal func.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, busSub{id: id, fn: fn})
	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every subscriber.
func (b *Bus) Publish(ev Event) {
	// Copy so a subscriber may unsubscribe during delivery.
	subs := make([]busSub, len(b.subs))
	copy(subs, b.subs)
	for _, s := range subs {
		s.fn(ev)
	}
}
