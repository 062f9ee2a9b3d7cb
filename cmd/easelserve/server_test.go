package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/easel2d/easel/board"
	"github.com/easel2d/easel/engine/colors"
	"github.com/easel2d/easel/engine/core"
)

func newTestServer(t *testing.T) (*server, *httptest.Server) {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	prev := core.Logger()
	core.SetLogger(quiet)
	t.Cleanup(func() { core.SetLogger(prev) })

	s, err := newServer(Config{Width: 160, Height: 120}, quiet)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	ts := httptest.NewServer(s.routes())
	t.Cleanup(func() {
		ts.Close()
		s.close()
	})
	return s, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) outMsg {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m outMsg
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return m
}

// waitFor discards interleaved traffic, frame notifications mostly, until a
// message of the wanted type arrives.
func waitFor(t *testing.T, conn *websocket.Conn, typ string) outMsg {
	t.Helper()
	for i := 0; i < 64; i++ {
		if m := readMsg(t, conn); m.Type == typ {
			return m
		}
	}
	t.Fatalf("no %q message in the last 64", typ)
	return outMsg{}
}

func sendMsg(t *testing.T, conn *websocket.Conn, m inMsg) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	buf, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, buf); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestServerHelloCarriesDocument(t *testing.T) {
	s, ts := newTestServer(t)
	if !s.call(func() { s.board.Store.AddText(10, 20, "agenda") }) {
		t.Fatal("server stopped early")
	}

	conn := dialWS(t, ts)
	m := readMsg(t, conn)
	if m.Type != "hello" {
		t.Fatalf("first message = %q, want hello", m.Type)
	}
	if m.Width != 160 || m.Height != 120 {
		t.Fatalf("board size = %dx%d, want 160x120", m.Width, m.Height)
	}
	if m.Slot == 0 {
		t.Fatal("hello carries no slot")
	}
	if m.Doc == nil {
		t.Fatal("hello carries no document")
	}
	if m.Doc.Type != board.DocType || len(m.Doc.Elements) != 1 {
		t.Fatalf("doc = %+v, want one element of type %s", m.Doc, board.DocType)
	}
	if el := m.Doc.Elements[0]; el.Kind != "text" || el.Content != "agenda" {
		t.Fatalf("element = %+v", el)
	}
}

func TestServerBroadcastsStoreChanges(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialWS(t, ts)
	if m := readMsg(t, conn); m.Type != "hello" {
		t.Fatalf("first message = %q, want hello", m.Type)
	}

	sendMsg(t, conn, inMsg{Type: "addtext", X: 96, Y: 48, Content: "pin"})
	obj := waitFor(t, conn, "object")
	if obj.Element == nil || obj.Element.Kind != "text" || obj.Element.Content != "pin" {
		t.Fatalf("object message = %+v", obj)
	}
	if obj.Element.X != 96 || obj.Element.Y != 48 {
		t.Fatalf("element at (%v,%v), want (96,48)", obj.Element.X, obj.Element.Y)
	}
	sel := waitFor(t, conn, "selection")
	if len(sel.IDs) != 1 || sel.IDs[0] != obj.Element.ID {
		t.Fatalf("selection = %v, want [%s]", sel.IDs, obj.Element.ID)
	}

	sendMsg(t, conn, inMsg{Type: "delete"})
	rem := waitFor(t, conn, "removed")
	if rem.ID != obj.Element.ID {
		t.Fatalf("removed id = %s, want %s", rem.ID, obj.Element.ID)
	}
}

func TestServerSnapshotServesPNG(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/snapshot.png")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 120 {
		t.Fatalf("snapshot %dx%d, want 160x120", b.Dx(), b.Dy())
	}
	want := colors.Paper.NRGBA()
	if got := color.NRGBAModel.Convert(img.At(80, 60)).(color.NRGBA); got != want {
		t.Fatalf("center pixel = %v, want paper %v", got, want)
	}
}

func TestServerDocumentEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	doc := board.Document{
		Version: board.DocVersion,
		Type:    board.DocType,
		Elements: []board.Element{
			{ID: "t1", Kind: "text", X: 10, Y: 40, Content: "hello", FontSize: 16, ScaleFactor: 1},
			{ID: "g1", Kind: "guide", X: 60, Y: 60, Width: 30, Height: 20},
		},
		AppState: board.AppState{Scale: 2, OffsetX: -15, OffsetY: 25},
	}
	var body bytes.Buffer
	if err := board.EncodeDocument(&body, doc); err != nil {
		t.Fatalf("encode: %v", err)
	}
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/doc", &body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put doc: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("put status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	resp, err = http.Get(ts.URL + "/doc")
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	got, err := board.DecodeDocument(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Elements) != 2 {
		t.Fatalf("round trip kept %d elements, want 2", len(got.Elements))
	}
	if got.AppState.Scale != 2 || got.AppState.OffsetX != -15 || got.AppState.OffsetY != 25 {
		t.Fatalf("app state = %+v", got.AppState)
	}

	bad, err := http.NewRequest(http.MethodPut, ts.URL+"/doc", strings.NewReader(`{"type":"nope"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err = http.DefaultClient.Do(bad)
	if err != nil {
		t.Fatalf("put bad doc: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad doc status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServerPointerDrivesMarquee(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialWS(t, ts)
	if m := readMsg(t, conn); m.Type != "hello" {
		t.Fatalf("first message = %q, want hello", m.Type)
	}

	down := inMsg{Type: "pointerdown", Pointer: 1, X: 30, Y: 30, Buttons: 1, Primary: true, PointerType: "mouse"}
	sendMsg(t, conn, down)
	move := down
	move.Type = "pointermove"
	move.X, move.Y = 90, 80
	sendMsg(t, conn, move)

	m := waitFor(t, conn, "marquee")
	if !m.Active {
		t.Fatalf("first marquee message inactive: %+v", m)
	}
	if m.X != 30 || m.Y != 30 || m.W != 60 || m.H != 50 {
		t.Fatalf("marquee rect = (%v,%v,%v,%v), want (30,30,60,50)", m.X, m.Y, m.W, m.H)
	}

	up := move
	up.Type = "pointerup"
	up.Buttons = 0
	sendMsg(t, conn, up)
	for {
		if m := waitFor(t, conn, "marquee"); !m.Active {
			break
		}
	}
}
