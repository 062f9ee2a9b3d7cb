//go:build profile

// Package profiler records named spans into a fixed ring and exports them
// as a speedscope evented profile. It is compiled in only under the
// "profile" build tag; the default build gets no-op stubs.
package profiler

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Init sizes the span ring. Call once at startup; a capacity at or below
// zero selects roughly a million samples.
func Init(capacity int) {
	if capacity <= 0 {
		capacity = 1 << 20
	}
	ring.init(capacity)
}

// Span opens a named span and returns the func that closes it, shaped for
// defer. Before Init the returned func does nothing.
func Span(name string) func() {
	if !ring.ready.Load() {
		return noop
	}
	id := intern(name)
	start := time.Now().UnixNano()
	ring.push(span{at: start, frame: id, open: true})
	return func() {
		end := time.Now().UnixNano()
		if end < start {
			end = start
		}
		ring.push(span{at: end, frame: id, open: false})
	}
}

var noop = func() {}

// WriteFile dumps the recorded spans to path as speedscope JSON.
func WriteFile(path string) error {
	spans := ring.snapshot()
	if len(spans) == 0 {
		return fmt.Errorf("profiler: nothing recorded")
	}
	return writeSpeedscope(spans, path)
}

type span struct {
	at    int64
	frame int
	open  bool
}

// spanRing keeps the most recent spans in push order. Pushes are atomic so
// spans may come from any goroutine.
type spanRing struct {
	ready atomic.Bool
	size  uint64
	write atomic.Uint64
	buf   []span
}

func (r *spanRing) init(capacity int) {
	r.size = uint64(capacity)
	r.buf = make([]span, r.size)
	r.write.Store(0)
	r.ready.Store(true)
}

func (r *spanRing) push(s span) {
	i := r.write.Add(1) - 1
	r.buf[i%r.size] = s
}

// snapshot returns the surviving spans in push order.
func (r *spanRing) snapshot() []span {
	n := r.write.Load()
	if n == 0 {
		return nil
	}
	start := uint64(0)
	if n > r.size {
		start = n - r.size
	}
	out := make([]span, 0, n-start)
	for k := start; k < n; k++ {
		out = append(out, r.buf[k%r.size])
	}
	return out
}

var ring spanRing

var (
	framesMu sync.Mutex
	frames   []string
	frameIDs = map[string]int{}
)

func intern(name string) int {
	framesMu.Lock()
	defer framesMu.Unlock()
	if id, ok := frameIDs[name]; ok {
		return id
	}
	id := len(frames)
	frameIDs[name] = id
	frames = append(frames, name)
	return id
}

type ssFile struct {
	Schema             string      `json:"$schema"`
	Shared             ssShared    `json:"shared"`
	Profiles           []ssProfile `json:"profiles"`
	ActiveProfileIndex int         `json:"activeProfileIndex,omitempty"`
	Exporter           string      `json:"exporter,omitempty"`
	Name               string      `json:"name,omitempty"`
}

type ssShared struct {
	Frames []ssFrame `json:"frames"`
}

type ssFrame struct {
	Name string `json:"name"`
}

type ssProfile struct {
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Unit       string    `json:"unit"`
	StartValue int64     `json:"startValue"`
	EndValue   int64     `json:"endValue"`
	Events     []ssEvent `json:"events"`
}

type ssEvent struct {
	Type  string `json:"type"` // "O" or "C"
	At    int64  `json:"at"`   // µs since the first span
	Frame int    `json:"frame"`
}

func writeSpeedscope(spans []span, path string) error {
	framesMu.Lock()
	fs := make([]ssFrame, len(frames))
	for i, name := range frames {
		fs[i] = ssFrame{Name: name}
	}
	framesMu.Unlock()

	base := spans[0].at
	events := make([]ssEvent, 0, len(spans)+16)
	stack := make([]int, 0, 64)
	lastUS := int64(-1)
	endUS := int64(0)

	for _, s := range spans {
		atUS := (s.at - base) / 1000
		if atUS < lastUS {
			// The ring may interleave goroutines; keep time monotonic.
			atUS = lastUS
		}

		if s.open {
			events = append(events, ssEvent{Type: "O", At: atUS, Frame: s.frame})
			stack = append(stack, s.frame)
		} else {
			// A close whose open fell off the ring has no matching O;
			// speedscope rejects unbalanced events, so drop it.
			if len(stack) == 0 || stack[len(stack)-1] != s.frame {
				continue
			}
			stack = stack[:len(stack)-1]
			events = append(events, ssEvent{Type: "C", At: atUS, Frame: s.frame})
		}

		lastUS = atUS
		if atUS > endUS {
			endUS = atUS
		}
	}

	// Close anything still open, innermost first, at the final timestamp.
	for i := len(stack) - 1; i >= 0; i-- {
		events = append(events, ssEvent{Type: "C", At: lastUS, Frame: stack[i]})
	}
	if len(events) == 0 {
		return fmt.Errorf("profiler: no balanced spans to export")
	}

	doc := ssFile{
		Schema: "https://www.speedscope.app/file-format-schema.json",
		Shared: ssShared{Frames: fs},
		Profiles: []ssProfile{{
			Type:       "evented",
			Name:       "easel render",
			Unit:       "microseconds",
			StartValue: 0,
			EndValue:   endUS,
			Events:     events,
		}},
		Exporter: "easel-profiler",
		Name:     "easel capture",
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
