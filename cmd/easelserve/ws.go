package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/easel2d/easel/board"
	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/input"
)

const (
	// sendBacklog is per client. Frame notifications are throttled, so a
	// healthy client stays far below this.
	sendBacklog = 256

	writeWait = 5 * time.Second
)

// client is one websocket connection. send is written by the engine
// goroutine and drained by the connection's writer goroutine; slot
// namespaces the client's pointer ids.
type client struct {
	conn *websocket.Conn
	send chan []byte
	slot int
}

// outMsg is the single envelope for server-to-client events. Type decides
// which fields are meaningful. Floats stay un-omitted; zero is a legal
// coordinate.
type outMsg struct {
	Type string `json:"type"`

	ID  string   `json:"id,omitempty"`
	IDs []string `json:"ids,omitempty"`

	Element *board.Element `json:"element,omitempty"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`

	Scale   float64 `json:"scale,omitempty"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`

	Active    bool                  `json:"active"`
	Positions map[string][2]float64 `json:"positions,omitempty"`

	Count uint64 `json:"count,omitempty"`

	Doc    *board.Document `json:"doc,omitempty"`
	Width  int             `json:"width,omitempty"`
	Height int             `json:"height,omitempty"`
	Slot   int             `json:"slot,omitempty"`
}

// inMsg is the client-to-server envelope.
type inMsg struct {
	Type string `json:"type"`

	// Pointer events.
	Pointer     int     `json:"pointer"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Buttons     int     `json:"buttons"`
	Pressure    float64 `json:"pressure"`
	PointerType string  `json:"pointerType"`
	Primary     bool    `json:"primary"`
	Shift       bool    `json:"shift"`
	Ctrl        bool    `json:"ctrl"`
	Alt         bool    `json:"alt"`
	Meta        bool    `json:"meta"`

	// Key events.
	Key  string `json:"key"`
	Down bool   `json:"down"`

	// Viewport commands.
	Factor float64 `json:"factor"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`

	// Document commands.
	ID      string   `json:"id"`
	IDs     []string `json:"ids"`
	Content string   `json:"content"`
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("easelserve: websocket accept", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBacklog)}
	if !s.join(c) {
		conn.Close(websocket.StatusGoingAway, "server stopping")
		return
	}

	ctx := r.Context()
	go c.writer(ctx)

	for {
		kind, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		if kind != websocket.MessageText {
			continue
		}
		var m inMsg
		if err := json.Unmarshal(data, &m); err != nil {
			s.log.Debug("easelserve: bad message", "client", c.slot, "err", err)
			continue
		}
		s.do(func() { s.apply(c, m) })
	}

	s.leave(c)
	conn.Close(websocket.StatusNormalClosure, "")
}

// writer drains the send channel onto the wire. Exits when the engine
// goroutine closes send.
func (c *client) writer(ctx context.Context) {
	for buf := range c.send {
		wctx, cancel := context.WithTimeout(ctx, writeWait)
		err := c.conn.Write(wctx, websocket.MessageText, buf)
		cancel()
		if err != nil {
			// Reader sees the broken connection and unregisters us; keep
			// draining so the engine goroutine never blocks.
			for range c.send {
			}
			return
		}
	}
}

// apply runs one inbound message on the engine goroutine.
func (s *server) apply(c *client, m inMsg) {
	cv := s.board.Canvas
	st := s.board.Store
	switch m.Type {
	case "pointerdown":
		cv.PointerDown(s.pointer(c, m))
	case "pointermove":
		cv.PointerMove(s.pointer(c, m))
	case "pointerup":
		cv.PointerUp(s.pointer(c, m))
	case "pointercancel":
		cv.PointerCancel(s.pointer(c, m))
	case "key":
		if k := keyByName(m.Key); k != input.KeyUnknown {
			cv.Key(k, m.Down)
		}
	case "zoom":
		if m.Factor > 0 {
			cv.ZoomBy(m.Factor, geom.Pt(m.X, m.Y))
		}
	case "pan":
		cv.PanBy(m.DX, m.DY)
	case "addtext":
		// x,y are world coordinates; clients place from doubleclick events,
		// which already carry them.
		o := st.AddText(m.X, m.Y, m.Content)
		st.SetSelection([]string{o.ID})
	case "addguide":
		w, h := m.DX, m.DY
		if w <= 0 || h <= 0 {
			u := st.GridUnit()
			w, h = 8*u, 5*u
		}
		o := st.AddGuide(m.X, m.Y, w, h)
		st.SetSelection([]string{o.ID})
	case "settext":
		st.SetText(m.ID, m.Content)
	case "select":
		st.SetSelection(m.IDs)
	case "delete":
		st.RemoveSelected()
	case "front":
		st.BringToFront(m.ID)
	case "back":
		st.SendToBack(m.ID)
	case "save":
		if s.cfg.Doc == "" {
			s.log.Warn("easelserve: save requested with no EASEL_DOC configured")
			return
		}
		if err := s.board.SaveFile(s.cfg.Doc); err != nil {
			s.log.Error("easelserve: save failed", "path", s.cfg.Doc, "err", err)
		}
	default:
		s.log.Debug("easelserve: unknown message", "client", c.slot, "type", m.Type)
	}
}

// pointer converts a wire event into an engine pointer. Ids are namespaced
// by client slot so two browsers never alias each other's gestures.
func (s *server) pointer(c *client, m inMsg) input.Pointer {
	t := input.PointerMouse
	switch m.PointerType {
	case "touch":
		t = input.PointerTouch
	case "pen":
		t = input.PointerPen
	}
	primary := m.Primary
	if t == input.PointerMouse {
		primary = true
	}
	var mods input.Mods
	if m.Shift {
		mods |= input.ModShift
	}
	if m.Ctrl {
		mods |= input.ModCtrl
	}
	if m.Alt {
		mods |= input.ModAlt
	}
	if m.Meta {
		mods |= input.ModSuper
	}
	return input.Pointer{
		ID:       c.slot<<4 | m.Pointer&0xf,
		X:        m.X,
		Y:        m.Y,
		Buttons:  input.Buttons(m.Buttons) & (input.ButtonPrimary | input.ButtonSecondary | input.ButtonMiddle),
		Mods:     mods,
		Pressure: m.Pressure,
		Type:     t,
		Primary:  primary,
		Time:     time.Now(),
	}
}

func keyByName(name string) input.Key {
	switch name {
	case "space":
		return input.KeySpace
	case "escape":
		return input.KeyEscape
	case "enter":
		return input.KeyEnter
	case "delete", "backspace":
		return input.KeyDelete
	case "shift":
		return input.KeyShift
	case "ctrl":
		return input.KeyCtrl
	case "alt":
		return input.KeyAlt
	case "meta":
		return input.KeySuper
	}
	return input.KeyUnknown
}
