package timing

import "time"

// Channel is one tunable throttle interval with its allowed range.
type Channel struct {
	cur      time.Duration
	min, max time.Duration
}

func NewChannel(initial, min, max time.Duration) *Channel {
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}
	return &Channel{cur: initial, min: min, max: max}
}

// Interval exposes the live value for Throttle.Every.
func (c *Channel) Interval() *time.Duration { return &c.cur }

func (c *Channel) widen() {
	c.cur = c.cur * 3 / 2
	if c.cur > c.max {
		c.cur = c.max
	}
}

func (c *Channel) narrow() {
	c.cur = c.cur * 3 / 4
	if c.cur < c.min {
		c.cur = c.min
	}
}

// Tuner watches the moving-average frame time and retunes its channels:
// sustained slow frames widen the intervals (fewer updates), fast frames
// narrow them. Advisory only; it never changes what eventually runs.
type Tuner struct {
	// SlowFrame and FastFrame bracket the comfortable frame-time band.
	SlowFrame time.Duration
	FastFrame time.Duration
	// AdjustEvery spaces adjustments so one spike cannot whipsaw the
	// intervals.
	AdjustEvery time.Duration

	channels   []*Channel
	lastAdjust time.Time
}

func NewTuner(channels ...*Channel) *Tuner {
	return &Tuner{
		SlowFrame:   20 * time.Millisecond,
		FastFrame:   12 * time.Millisecond,
		AdjustEvery: 500 * time.Millisecond,
		channels:    channels,
	}
}

// Observe feeds the current average frame time. Called once per tick.
func (t *Tuner) Observe(avg time.Duration, now time.Time) {
	if avg <= 0 {
		return
	}
	if !t.lastAdjust.IsZero() && now.Sub(t.lastAdjust) < t.AdjustEvery {
		return
	}
	switch {
	case avg > t.SlowFrame:
		for _, c := range t.channels {
			c.widen()
		}
	case avg < t.FastFrame:
		for _, c := range t.channels {
			c.narrow()
		}
	default:
		return
	}
	t.lastAdjust = now
}
