package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/easel2d/easel/board"
	"github.com/easel2d/easel/engine/core"
	"github.com/easel2d/easel/engine/timing"
)

const (
	tickEvery = 33 * time.Millisecond

	// cmdBacklog bounds how far handler goroutines can run ahead of the
	// engine before their posts block.
	cmdBacklog = 64
)

// frameEvery paces the frame notifications that make clients re-pull the
// snapshot. Rendering may run faster; encoding PNGs should not.
var frameEvery = 100 * time.Millisecond

// server owns the board. The loop goroutine is the only one that touches
// it; everything else goes through do or call.
type server struct {
	cfg Config
	log *slog.Logger

	board *board.Board

	cmds chan func()
	wake chan struct{}
	quit chan struct{}
	done chan struct{}

	closeOnce sync.Once

	// Engine-goroutine state.
	clients   map[*client]struct{}
	nextSlot  int
	frameGate timing.Throttle[core.Frame]
}

func newServer(cfg Config, log *slog.Logger) (*server, error) {
	s := &server{
		cfg:     cfg,
		log:     log,
		cmds:    make(chan func(), cmdBacklog),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		clients: make(map[*client]struct{}),
	}
	s.frameGate = timing.Throttle[core.Frame]{
		Fn:    s.broadcastFrame,
		Every: &frameEvery,
	}

	b, err := board.New(board.Config{
		Width:        cfg.Width,
		Height:       cfg.Height,
		Grid:         cfg.Grid,
		RequestFrame: s.requestFrame,
	})
	if err != nil {
		return nil, err
	}
	s.board = b

	if cfg.Doc != "" {
		if err := b.LoadFile(cfg.Doc); err != nil {
			log.Warn("easelserve: starting blank", "path", cfg.Doc, "err", err)
		}
	}
	b.Canvas.Events().Subscribe(s.publish)

	go s.loop()
	return s, nil
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/snapshot.png", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/doc", s.handleDocGet).Methods(http.MethodGet)
	r.HandleFunc("/doc", s.handleDocPut).Methods(http.MethodPut)
	return r
}

// loop is the engine goroutine. Posted commands, frame requests and the
// steady tick all funnel into Canvas.Tick here.
func (s *server) loop() {
	ticker := time.NewTicker(tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			s.shutdown()
			close(s.done)
			return
		case fn := <-s.cmds:
			fn()
		case <-s.wake:
		case <-ticker.C:
		}
		now := time.Now()
		s.board.Canvas.Tick(now)
		s.frameGate.Flush(now)
	}
}

// shutdown runs on the loop goroutine.
func (s *server) shutdown() {
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
		c.conn.Close(websocket.StatusGoingAway, "server stopping")
	}
	if s.cfg.Doc != "" {
		if err := s.board.SaveFile(s.cfg.Doc); err != nil {
			s.log.Error("easelserve: final save failed", "path", s.cfg.Doc, "err", err)
		} else {
			s.log.Info("easelserve: board saved", "path", s.cfg.Doc)
		}
	}
	s.board.Destroy()
}

// close stops the loop and waits for it to finish. Safe to call twice.
func (s *server) close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}

// do posts fn to the engine goroutine without waiting for it.
func (s *server) do(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.done:
	}
}

// call posts fn and waits until it ran. False means the server stopped
// first and fn may not have run.
func (s *server) call(fn func()) bool {
	ran := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(ran) }:
	case <-s.done:
		return false
	}
	select {
	case <-ran:
		return true
	case <-s.done:
		return false
	}
}

// requestFrame wakes the loop out of its tick interval. Called by the
// engine on the loop goroutine, so it must never block.
func (s *server) requestFrame() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// publish translates bus events into client messages. Runs on the loop
// goroutine via the synchronous bus.
func (s *server) publish(ev core.Event) {
	switch ev := ev.(type) {
	case core.ObjectChanged:
		if ev.Removed {
			s.broadcast(outMsg{Type: "removed", ID: ev.ID})
			return
		}
		// Engine-side objects such as the grid have no document element;
		// clients only hear about store objects. The view's engine sync
		// echoes store ids, so object messages arrive as upserts.
		if el, ok := s.board.Store.Element(ev.ID); ok {
			s.broadcast(outMsg{Type: "object", Element: &el})
		}
	case core.SelectionChanged:
		s.broadcast(outMsg{Type: "selection", IDs: ev.IDs})
	case core.ViewportChanged:
		s.broadcast(outMsg{
			Type:    "viewport",
			Scale:   ev.Scale,
			OffsetX: ev.Offset.X,
			OffsetY: ev.Offset.Y,
		})
	case core.MarqueeChanged:
		s.broadcast(outMsg{
			Type: "marquee",
			X:    ev.Rect.X, Y: ev.Rect.Y,
			W: ev.Rect.W, H: ev.Rect.H,
			Active: ev.Active,
		})
	case core.DragPreview:
		m := outMsg{Type: "preview", Active: ev.Active}
		if ev.Active {
			m.Positions = make(map[string][2]float64, len(ev.Positions))
			for id, p := range ev.Positions {
				m.Positions[id] = [2]float64{p.X, p.Y}
			}
		}
		s.broadcast(m)
	case core.ContextMenu:
		s.broadcast(outMsg{Type: "contextmenu", X: ev.World.X, Y: ev.World.Y, ID: ev.ObjectID})
	case core.DoubleClick:
		s.broadcast(outMsg{Type: "doubleclick", X: ev.World.X, Y: ev.World.Y})
	case core.LongPress:
		s.broadcast(outMsg{Type: "longpress", X: ev.World.X, Y: ev.World.Y})
	case core.HoverChanged:
		s.broadcast(outMsg{Type: "hover", X: ev.Screen.X, Y: ev.Screen.Y, ID: ev.ObjectID})
	case core.Frame:
		s.frameGate.Call(ev, time.Now())
	}
}

func (s *server) broadcastFrame(ev core.Frame) {
	s.broadcast(outMsg{Type: "frame", Count: ev.Count})
}

// broadcast fans a message out to every client. A client whose send buffer
// is full is too far behind to recover and gets dropped.
func (s *server) broadcast(m outMsg) {
	if len(s.clients) == 0 {
		return
	}
	buf, err := json.Marshal(m)
	if err != nil {
		s.log.Error("easelserve: encode event", "type", m.Type, "err", err)
		return
	}
	for c := range s.clients {
		select {
		case c.send <- buf:
		default:
			s.log.Warn("easelserve: dropping slow client", "client", c.slot)
			delete(s.clients, c)
			close(c.send)
			c.conn.Close(websocket.StatusPolicyViolation, "write backlog")
		}
	}
}

// join registers a connection and greets it with the full document. Returns
// false when the server is shutting down.
func (s *server) join(c *client) bool {
	return s.call(func() {
		s.nextSlot++
		c.slot = s.nextSlot
		s.clients[c] = struct{}{}

		doc := s.board.Document()
		w, h := s.board.Canvas.Size()
		hello := outMsg{Type: "hello", Doc: &doc, Width: w, Height: h, Slot: c.slot}
		if buf, err := json.Marshal(hello); err == nil {
			select {
			case c.send <- buf:
			default:
			}
		}
		s.log.Info("easelserve: client joined", "client", c.slot, "total", len(s.clients))
	})
}

// leave unregisters a connection. Idempotent; broadcast may already have
// dropped the client.
func (s *server) leave(c *client) {
	s.do(func() {
		if _, ok := s.clients[c]; !ok {
			return
		}
		delete(s.clients, c)
		close(c.send)
		s.log.Info("easelserve: client left", "client", c.slot, "total", len(s.clients))
	})
}
