package input

import (
	"math"
	"time"
)

const (
	momentumFrame   = 16 * time.Millisecond
	momentumDecay   = 0.95 // per frame
	momentumCutoff  = 0.1  // px per frame
	momentumWindow  = 120 * time.Millisecond
	momentumSamples = 8
)

// momentum carries the viewport after a pan release. Velocity is in screen
// pixels per 16ms frame and decays multiplicatively, so stopping is a flag
// flip and the whole thing dies in bounded time regardless of launch speed.
type momentum struct {
	vx, vy float64
	last   time.Time
	active bool
}

func (m *momentum) start(vx, vy float64, now time.Time) {
	m.vx, m.vy = vx, vy
	m.last = now
	m.active = math.Hypot(vx, vy) >= momentumCutoff
}

func (m *momentum) stop() { m.active = false }

// step advances to now and returns the pan to apply. alive turns false on
// the tick the speed falls under the cutoff.
func (m *momentum) step(now time.Time) (dx, dy float64, alive bool) {
	if !m.active {
		return 0, 0, false
	}
	dt := now.Sub(m.last)
	m.last = now
	if dt <= 0 {
		return 0, 0, true
	}
	frames := float64(dt) / float64(momentumFrame)
	dx = m.vx * frames
	dy = m.vy * frames
	decay := math.Pow(momentumDecay, frames)
	m.vx *= decay
	m.vy *= decay
	if math.Hypot(m.vx, m.vy) < momentumCutoff {
		m.active = false
	}
	return dx, dy, m.active
}

// velSample is one pan position observation used to estimate release velocity.
type velSample struct {
	x, y float64
	t    time.Time
}

type velTracker struct {
	buf [momentumSamples]velSample
	n   int // total pushed
}

func (v *velTracker) reset() { v.n = 0 }

func (v *velTracker) push(x, y float64, t time.Time) {
	v.buf[v.n%momentumSamples] = velSample{x, y, t}
	v.n++
}

// velocity estimates px-per-frame speed from the samples inside the recent
// window. A stall before release reads as zero, so no momentum launches.
func (v *velTracker) velocity(now time.Time) (vx, vy float64) {
	count := v.n
	if count > momentumSamples {
		count = momentumSamples
	}
	if count < 2 {
		return 0, 0
	}
	newest := v.buf[(v.n-1)%momentumSamples]
	oldest := newest
	for i := 2; i <= count; i++ {
		s := v.buf[(v.n-i)%momentumSamples]
		if now.Sub(s.t) > momentumWindow {
			break
		}
		oldest = s
	}
	dt := newest.t.Sub(oldest.t)
	if dt <= 0 {
		return 0, 0
	}
	scale := float64(momentumFrame) / float64(dt)
	return (newest.x - oldest.x) * scale, (newest.y - oldest.y) * scale
}
