// Package timing provides the rate-limiting primitives the interaction
// layer runs its handlers through: throttles with live-tunable intervals,
// trailing-edge debounce, and the frame-time tuner that adjusts them.
//
// Nothing here owns a goroutine or a timer. Deferred calls are flushed from
// the host's tick pump, which keeps every callback on the engine goroutine.
package timing

import "time"

// Throttle passes calls through at most once per interval. Calls landing
// inside the window are deferred, newest wins, and fire on a later Flush
// once the window has passed. The interval is read through a pointer so the
// tuner can retune it without re-wrapping the function.
type Throttle[T any] struct {
	Fn    func(T)
	Every *time.Duration

	last    time.Time
	pending T
	primed  bool
}

// Call invokes Fn immediately when the window is open, otherwise records v
// as the pending trailing call.
func (t *Throttle[T]) Call(v T, now time.Time) {
	every := time.Duration(0)
	if t.Every != nil {
		every = *t.Every
	}
	if now.Sub(t.last) >= every {
		t.last = now
		t.primed = false
		t.Fn(v)
		return
	}
	t.pending = v
	t.primed = true
}

// Flush fires the deferred call once the interval has elapsed. Safe to call
// every tick.
func (t *Throttle[T]) Flush(now time.Time) {
	if !t.primed {
		return
	}
	every := time.Duration(0)
	if t.Every != nil {
		every = *t.Every
	}
	if now.Sub(t.last) < every {
		return
	}
	v := t.pending
	var zero T
	t.pending = zero
	t.primed = false
	t.last = now
	t.Fn(v)
}

// Cancel drops any deferred call.
func (t *Throttle[T]) Cancel() {
	var zero T
	t.pending = zero
	t.primed = false
}

// Debounce defers Fn until Delay has passed without a new Call; only the
// last value is delivered.
type Debounce[T any] struct {
	Fn    func(T)
	Delay time.Duration

	deadline time.Time
	pending  T
	primed   bool
}

func (d *Debounce[T]) Call(v T, now time.Time) {
	d.pending = v
	d.primed = true
	d.deadline = now.Add(d.Delay)
}

// Flush fires the pending call once the quiet period has elapsed.
func (d *Debounce[T]) Flush(now time.Time) {
	if !d.primed || now.Before(d.deadline) {
		return
	}
	v := d.pending
	var zero T
	d.pending = zero
	d.primed = false
	d.Fn(v)
}

// Fire delivers a pending call immediately, regardless of the deadline.
// Used on gesture end so the final recompute is never lost.
func (d *Debounce[T]) Fire() {
	if !d.primed {
		return
	}
	v := d.pending
	var zero T
	d.pending = zero
	d.primed = false
	d.Fn(v)
}

// Cancel drops the pending call without delivering it.
func (d *Debounce[T]) Cancel() {
	var zero T
	d.pending = zero
	d.primed = false
}
