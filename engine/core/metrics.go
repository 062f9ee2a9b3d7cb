package core

import "time"

// FrameBudget is the 60fps deadline; frames over it count as dropped.
const FrameBudget = 16670 * time.Microsecond

// metricsSmoothing is the moving-average weight of the newest frame.
const metricsSmoothing = 0.1

// Metrics is the engine's observational frame accounting. It never gates
// behavior; the adaptive tuner reads AverageFrameTime and nothing else
// consumes it inside the engine.
type Metrics struct {
	FrameCount       uint64
	AverageFrameTime time.Duration
	LastFrameTime    time.Duration
	DroppedFrames    uint64
}

func (m *Metrics) record(d time.Duration) {
	m.FrameCount++
	m.LastFrameTime = d
	if m.FrameCount == 1 {
		m.AverageFrameTime = d
	} else {
		avg := float64(m.AverageFrameTime)
		m.AverageFrameTime = time.Duration(avg*(1-metricsSmoothing) + float64(d)*metricsSmoothing)
	}
	if d > FrameBudget {
		m.DroppedFrames++
	}
}
