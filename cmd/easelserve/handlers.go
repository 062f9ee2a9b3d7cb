package main

import (
	"image"
	"image/png"
	"net/http"

	"github.com/easel2d/easel/board"
	"github.com/easel2d/easel/engine/surface"
)

// handleSnapshot serves the current composited frame as a PNG. The pixels
// are copied on the engine goroutine; encoding happens on the handler's so
// a slow download never stalls rendering.
func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var img *image.RGBA
	ok := s.call(func() {
		if s.board.Canvas.Metrics().FrameCount == 0 {
			s.board.Canvas.Render()
		}
		surf, isImage := s.board.Canvas.Handle().(*surface.ImageSurface)
		if !isImage {
			return
		}
		src := surf.RGBA()
		img = image.NewRGBA(src.Bounds())
		copy(img.Pix, src.Pix)
	})
	if !ok || img == nil {
		http.Error(w, "no frame available", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		s.log.Debug("easelserve: snapshot write", "err", err)
	}
}

func (s *server) handleDocGet(w http.ResponseWriter, r *http.Request) {
	var doc board.Document
	if !s.call(func() { doc = s.board.Document() }) {
		http.Error(w, "server stopping", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := board.EncodeDocument(w, doc); err != nil {
		s.log.Debug("easelserve: document write", "err", err)
	}
}

func (s *server) handleDocPut(w http.ResponseWriter, r *http.Request) {
	doc, err := board.DecodeDocument(http.MaxBytesReader(w, r.Body, 8<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var loadErr error
	if !s.call(func() { loadErr = s.board.Load(doc) }) {
		http.Error(w, "server stopping", http.StatusServiceUnavailable)
		return
	}
	if loadErr != nil {
		http.Error(w, loadErr.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

// indexPage is a minimal client: the board is shown via the snapshot
// endpoint and refreshed on frame events, while raw pointer and key events
// go up the websocket. Double-click placement round-trips through the
// server's gesture recognition, so the page prompts only after the server
// reports where the click landed in world space.
const indexPage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>easel</title>
<style>
  body { margin: 0; background: #1d1f21; color: #c5c8c6; font: 13px/1.4 monospace; }
  #bar { padding: 6px 10px; }
  #view { display: block; margin: 0 auto; cursor: crosshair; touch-action: none;
          image-rendering: pixelated; user-select: none; }
</style>
</head>
<body>
<div id="bar">easel &mdash; drag to move, drag empty space to select, space+drag to pan,
ctrl+wheel to zoom, double-click for text, g for guide, s to save</div>
<img id="view" draggable="false" src="/snapshot.png">
<script>
"use strict";
const view = document.getElementById("view");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
let refreshQueued = false;
let cam = {scale: 1, ox: 0, oy: 0};

function toWorld(sx, sy) {
  return {x: (sx - cam.ox) / cam.scale, y: (sy - cam.oy) / cam.scale};
}

function refresh() {
  if (refreshQueued) return;
  refreshQueued = true;
  const next = new Image();
  next.onload = () => { view.src = next.src; refreshQueued = false; };
  next.onerror = () => { refreshQueued = false; };
  next.src = "/snapshot.png?t=" + Date.now();
}

ws.onmessage = (e) => {
  const m = JSON.parse(e.data);
  if (m.type === "hello") {
    view.width = m.width;
    view.height = m.height;
    const st = m.doc && m.doc.appState;
    if (st && st.scale > 0) cam = {scale: st.scale, ox: st.offsetX, oy: st.offsetY};
    return;
  }
  if (m.type === "viewport") {
    cam = {scale: m.scale, ox: m.offsetX, oy: m.offsetY};
  }
  if (m.type === "doubleclick") {
    const content = prompt("text:");
    if (content !== null) ws.send(JSON.stringify({type: "addtext", x: m.x, y: m.y, content}));
    return;
  }
  refresh();
};

function send(type, e, extra) {
  if (ws.readyState !== WebSocket.OPEN) return;
  const r = view.getBoundingClientRect();
  ws.send(JSON.stringify(Object.assign({
    type,
    pointer: e.pointerId % 16,
    x: (e.clientX - r.left) * (view.width / r.width),
    y: (e.clientY - r.top) * (view.height / r.height),
    buttons: e.buttons,
    pointerType: e.pointerType,
    primary: e.isPrimary,
    shift: e.shiftKey, ctrl: e.ctrlKey, alt: e.altKey, meta: e.metaKey
  }, extra)));
}

view.addEventListener("pointerdown", (e) => { view.setPointerCapture(e.pointerId); send("pointerdown", e); });
view.addEventListener("pointermove", (e) => send("pointermove", e));
view.addEventListener("pointerup", (e) => send("pointerup", e));
view.addEventListener("pointercancel", (e) => send("pointercancel", e));
view.addEventListener("contextmenu", (e) => e.preventDefault());

view.addEventListener("wheel", (e) => {
  e.preventDefault();
  if (ws.readyState !== WebSocket.OPEN) return;
  const r = view.getBoundingClientRect();
  if (e.ctrlKey) {
    ws.send(JSON.stringify({
      type: "zoom",
      factor: Math.pow(1.1, -e.deltaY / 53),
      x: (e.clientX - r.left) * (view.width / r.width),
      y: (e.clientY - r.top) * (view.height / r.height)
    }));
  } else {
    ws.send(JSON.stringify({type: "pan", dx: -e.deltaX, dy: -e.deltaY}));
  }
}, {passive: false});

const keyNames = {" ": "space", "Escape": "escape", "Enter": "enter",
                  "Delete": "delete", "Backspace": "backspace", "Shift": "shift",
                  "Control": "ctrl", "Alt": "alt", "Meta": "meta"};

window.addEventListener("keydown", (e) => {
  if (ws.readyState !== WebSocket.OPEN) return;
  if (e.key === "g") {
    const c = toWorld(view.width / 2, view.height / 2);
    ws.send(JSON.stringify({type: "addguide", x: c.x, y: c.y}));
    return;
  }
  if (e.key === "s" && !e.ctrlKey) { ws.send(JSON.stringify({type: "save"})); return; }
  const name = keyNames[e.key];
  if (!name) return;
  e.preventDefault();
  ws.send(JSON.stringify({type: "key", key: name, down: true}));
});
window.addEventListener("keyup", (e) => {
  const name = keyNames[e.key];
  if (!name || ws.readyState !== WebSocket.OPEN) return;
  ws.send(JSON.stringify({type: "key", key: name, down: false}));
});
</script>
</body>
</html>
`
