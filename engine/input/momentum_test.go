package input

import (
	"math"
	"testing"
	"time"
)

func TestMomentumTerminatesFromAnySpeed(t *testing.T) {
	start := time.Now()
	var m momentum
	m.start(10000, 0, start)

	now := start
	total := 0.0
	for i := 0; i < 1000; i++ {
		if !m.active {
			break
		}
		now = now.Add(16 * time.Millisecond)
		dx, _, _ := m.step(now)
		total += dx
	}
	if m.active {
		t.Fatal("momentum still active after 1000 frames")
	}
	// Geometric decay: total displacement stays under v0/(1-decay).
	if limit := 10000 / (1 - momentumDecay); total >= limit+1 {
		t.Fatalf("total displacement %v exceeds geometric limit %v", total, limit)
	}
}

func TestMomentumBelowCutoffNeverStarts(t *testing.T) {
	var m momentum
	m.start(0.05, 0.05, time.Now())
	if m.active {
		t.Fatal("momentum started below cutoff")
	}
}

func TestMomentumStepScalesWithElapsedTime(t *testing.T) {
	start := time.Now()
	var m momentum
	m.start(10, 0, start)

	dx, _, alive := m.step(start.Add(32 * time.Millisecond))
	if !alive {
		t.Fatal("momentum died on first step")
	}
	if math.Abs(dx-20) > 1e-9 {
		t.Fatalf("dx over two frames = %v, want 20", dx)
	}
	// Velocity decayed by decay^2 for the two elapsed frames.
	want := 10 * math.Pow(momentumDecay, 2)
	if math.Abs(m.vx-want) > 1e-9 {
		t.Fatalf("vx = %v, want %v", m.vx, want)
	}
}

func TestVelocityTrackerUsesRecentWindow(t *testing.T) {
	start := time.Now()
	var v velTracker

	// An old burst followed by a stall: the stall dominates the window.
	v.push(0, 0, start)
	v.push(100, 0, start.Add(20*time.Millisecond))
	v.push(100, 0, start.Add(200*time.Millisecond))
	vx, vy := v.velocity(start.Add(210 * time.Millisecond))
	if vx != 0 || vy != 0 {
		t.Fatalf("velocity after stall = (%v,%v), want zero", vx, vy)
	}
}

func TestVelocityTrackerAveragesSteadyMotion(t *testing.T) {
	start := time.Now()
	var v velTracker
	for i := 0; i <= 4; i++ {
		v.push(float64(i)*16, 0, start.Add(time.Duration(i)*16*time.Millisecond))
	}
	vx, vy := v.velocity(start.Add(64 * time.Millisecond))
	if math.Abs(vx-16) > 1e-9 || vy != 0 {
		t.Fatalf("velocity = (%v,%v), want (16,0)", vx, vy)
	}
}

func TestVelocityTrackerNeedsTwoSamples(t *testing.T) {
	var v velTracker
	v.push(50, 50, time.Now())
	if vx, vy := v.velocity(time.Now()); vx != 0 || vy != 0 {
		t.Fatalf("single sample produced velocity (%v,%v)", vx, vy)
	}
}
