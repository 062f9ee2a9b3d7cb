// Command sandbox is the native whiteboard host: a GLFW window around a
// board, with the composited image presented through OpenGL.
//
// Controls: drag objects to move them, drag empty canvas for a marquee,
// space-drag or scroll to pan, ctrl+scroll to zoom. Double-click makes a
// text object and typing fills the selected one. Ctrl+G adds a guide,
// delete removes the selection, ctrl+S / ctrl+O save and load.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/easel2d/easel/board"
	"github.com/easel2d/easel/engine/core"
	"github.com/easel2d/easel/engine/geom"
	glbackend "github.com/easel2d/easel/engine/gfx/gl"
	"github.com/easel2d/easel/engine/input"
	"github.com/easel2d/easel/engine/platform"
	"github.com/easel2d/easel/engine/profiler"
	"github.com/easel2d/easel/engine/scene"
	"github.com/easel2d/easel/engine/surface"
	"github.com/easel2d/easel/engine/text"
)

const defaultDocPath = "easel-board.json"

type app struct {
	win   *platform.Window
	board *board.Board
	pres  *glbackend.Presenter
	fonts *text.Source

	docPath string
	ctrl    bool
}

func main() {
	flag.Parse()
	profiler.Init(1 << 20)

	a := &app{docPath: flag.Arg(0)}
	if a.docPath == "" {
		a.docPath = defaultDocPath
	}

	win, err := platform.New(platform.Config{
		Title: "easel",
		Width: 1280, Height: 720,
		VSync: true,
	}, platform.Handler{
		PointerDown: func(p input.Pointer) { a.board.Canvas.PointerDown(p) },
		PointerMove: func(p input.Pointer) { a.board.Canvas.PointerMove(p) },
		PointerUp:   func(p input.Pointer) { a.board.Canvas.PointerUp(p) },
		Scroll:      func(x, y, dx, dy float64, mods input.Mods) { a.scroll(x, y, dx, dy, mods) },
		Key:         func(k input.Key, down bool) { a.key(k, down) },
		Char:        func(r rune) { a.char(r) },
		Resize:      func(w, h int) { a.resize(w, h) },
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	a.win = win
	defer win.Destroy()

	a.fonts = text.Default()
	defer a.fonts.Close()

	fbW, fbH := win.FramebufferSize()
	b, err := board.New(board.Config{
		Width: fbW, Height: fbH,
		Fonts: a.fonts,
		Grid:  true,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	a.board = b
	defer b.Destroy()

	if flag.Arg(0) != "" {
		if err := b.LoadFile(a.docPath); err != nil {
			core.Logger().Error("easel: open document", "path", a.docPath, "err", err)
		}
	} else {
		seed(b.Store)
	}
	a.subscribe()
	if err := newDebugOverlay(b, a.fonts); err != nil {
		core.Logger().Warn("easel: debug overlay disabled", "err", err)
	}

	pres, err := glbackend.NewPresenter()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	a.pres = pres
	defer pres.Shutdown()
	pres.Resize(fbW, fbH)

	a.run()

	if path := os.Getenv("EASEL_PROFILE"); path != "" {
		if err := profiler.WriteFile(path); err != nil {
			core.Logger().Warn("easel: write profile", "err", err)
		} else {
			core.Logger().Info("easel: profile written", "path", path)
		}
	}
}

func (a *app) run() {
	lastTitle := time.Time{}
	for !a.win.ShouldClose() {
		a.win.PollEvents()
		now := time.Now()
		a.board.Canvas.Tick(now)

		if s, ok := a.board.Canvas.Handle().(*surface.ImageSurface); ok {
			a.pres.Present(s.RGBA())
		}
		a.win.SwapBuffers()

		if now.Sub(lastTitle) >= time.Second {
			lastTitle = now
			m := a.board.Canvas.Metrics()
			a.win.SetTitle(fmt.Sprintf("easel | %d objects | %.2f ms",
				a.board.Store.Len(), m.AverageFrameTime.Seconds()*1000))
			a.board.Canvas.MarkDirty(debugLayerID)
		}
	}
}

// subscribe binds the gesture events the machine publishes to document
// mutations.
func (a *app) subscribe() {
	st := a.board.Store
	a.board.Canvas.Events().Subscribe(func(ev core.Event) {
		switch e := ev.(type) {
		case core.DoubleClick:
			o := st.AddText(e.World.X, e.World.Y, "")
			st.SetSelection([]string{o.ID})
		case core.ContextMenu:
			if e.ObjectID != "" {
				st.BringToFront(e.ObjectID)
			}
		case core.LongPress:
			core.Logger().Debug("easel: long press", "x", e.World.X, "y", e.World.Y)
		}
	})
}

func (a *app) scroll(x, y, dx, dy float64, mods input.Mods) {
	if mods&input.ModCtrl != 0 {
		a.board.Canvas.ZoomBy(math.Pow(1.1, dy), geom.Pt(x, y))
		return
	}
	const step = 48
	a.board.Canvas.PanBy(dx*step, dy*step)
}

func (a *app) key(k input.Key, down bool) {
	a.board.Canvas.Key(k, down)
	if k == input.KeyCtrl {
		a.ctrl = down
	}
	if !down {
		return
	}
	switch k {
	case input.KeyEscape:
		a.board.Store.SetSelection(nil)
	case input.KeyDelete:
		a.board.Store.RemoveSelected()
	case input.KeyEnter:
		a.appendToSelection("\n")
	case input.KeyG:
		if a.ctrl {
			a.addGuideAtCenter()
		}
	case input.KeyS:
		if a.ctrl {
			if err := a.board.SaveFile(a.docPath); err != nil {
				core.Logger().Error("easel: save document", "path", a.docPath, "err", err)
			} else {
				core.Logger().Info("easel: document saved", "path", a.docPath)
			}
		}
	case input.KeyO:
		if a.ctrl {
			if err := a.board.LoadFile(a.docPath); err != nil {
				core.Logger().Error("easel: open document", "path", a.docPath, "err", err)
			}
		}
	}
}

func (a *app) char(r rune) {
	if a.ctrl {
		return
	}
	a.appendToSelection(string(r))
}

// appendToSelection types into the selected text object, when exactly one
// is selected.
func (a *app) appendToSelection(s string) {
	sel := a.board.Store.Selection()
	if len(sel) != 1 {
		return
	}
	o, ok := a.board.Store.Object(sel[0])
	if !ok || o.Kind != scene.KindText {
		return
	}
	a.board.Store.SetText(o.ID, o.Content+s)
}

func (a *app) addGuideAtCenter() {
	w, h := a.board.Canvas.Size()
	c := a.board.Canvas.ScreenToWorld(geom.Pt(float64(w)/2, float64(h)/2))
	unit := a.board.Store.GridUnit()
	g := a.board.Store.AddGuide(c.X-8*unit, c.Y-5*unit, 16*unit, 10*unit)
	a.board.Store.SetSelection([]string{g.ID})
}

func (a *app) resize(w, h int) {
	a.board.Canvas.Resize(w, h)
	a.pres.Resize(w, h)
}

func seed(st *board.Store) {
	unit := st.GridUnit()
	st.AddText(unit*2, unit*4, "easel sandbox")
	st.AddText(unit*2, unit*7, "drag to move, double-click to write,\nspace-drag to pan, ctrl+scroll to zoom")
	st.AddGuide(unit*24, unit*3, unit*16, unit*10)
	st.AddText(unit*25, unit*5, "guides frame things;\nclicks inside fall through")
}
