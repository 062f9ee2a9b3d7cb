package profiler

import "runtime"

// RuntimeStats is a point-in-time snapshot of process health for debug
// overlays. Available in every build, profile tag or not.
type RuntimeStats struct {
	HeapAlloc  uint64
	Mallocs    uint64
	Goroutines int
	CPUs       int
}

func Stats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		HeapAlloc:  m.Alloc,
		Mallocs:    m.Mallocs,
		Goroutines: runtime.NumGoroutine(),
		CPUs:       runtime.NumCPU(),
	}
}
