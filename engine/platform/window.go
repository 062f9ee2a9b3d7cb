// Package platform opens the native window and translates GLFW callbacks
// into the engine's pointer and key events. Everything here must run on the
// main OS thread.
package platform

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/easel2d/easel/engine/core"
	"github.com/easel2d/easel/engine/input"
)

// mousePointerID is the stable id the single mouse pointer reports.
const mousePointerID = 1

type Config struct {
	Title         string
	Width, Height int
	VSync         bool
}

// Handler receives translated window events. Nil funcs are skipped.
type Handler struct {
	PointerDown func(input.Pointer)
	PointerMove func(input.Pointer)
	PointerUp   func(input.Pointer)
	Scroll      func(x, y, dx, dy float64, mods input.Mods)
	Key         func(k input.Key, down bool)
	Char        func(r rune)
	Resize      func(w, h int)
	Close       func()
}

// Window wraps the GLFW window and assembles the pointer state GLFW splits
// across callbacks: cursor position, held buttons, held modifiers.
type Window struct {
	win     *glfw.Window
	handler Handler

	x, y    float64
	buttons input.Buttons
	mods    input.Mods
}

// New opens the window and initializes the GL context. It locks the calling
// goroutine to the OS thread; every other method must stay on it.
func New(cfg Config, handler Handler) (*Window, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	// GL 3.2+ core profile; Mac requires the forward-compatible flag.
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 2)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, 0)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("gl init: %w", err)
	}
	core.Logger().Info("easel: opengl ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	w := &Window{win: win, handler: handler}
	w.install()
	return w, nil
}

func (w *Window) install() {
	w.win.SetCloseCallback(func(*glfw.Window) {
		if w.handler.Close != nil {
			w.handler.Close()
		}
	})
	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if w.handler.Resize != nil {
			w.handler.Resize(width, height)
		}
	})
	w.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		sx, sy := w.cursorScale()
		w.x, w.y = x*sx, y*sy
		if w.handler.PointerMove != nil {
			w.handler.PointerMove(w.pointer())
		}
	})
	w.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		w.mods = translateMods(mods)
		bit := translateButton(button)
		if bit == 0 {
			return
		}
		switch action {
		case glfw.Press:
			w.buttons |= bit
			if w.handler.PointerDown != nil {
				w.handler.PointerDown(w.pointer())
			}
		case glfw.Release:
			w.buttons &^= bit
			if w.handler.PointerUp != nil {
				w.handler.PointerUp(w.pointer())
			}
		}
	})
	w.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		w.mods = translateMods(mods)
		if action == glfw.Repeat {
			return
		}
		k := translateKey(key)
		if k == input.KeyUnknown {
			return
		}
		if w.handler.Key != nil {
			w.handler.Key(k, action == glfw.Press)
		}
	})
	w.win.SetCharCallback(func(_ *glfw.Window, r rune) {
		if w.handler.Char != nil {
			w.handler.Char(r)
		}
	})
	w.win.SetScrollCallback(func(_ *glfw.Window, dx, dy float64) {
		if w.handler.Scroll != nil {
			w.handler.Scroll(w.x, w.y, dx, dy, w.mods)
		}
	})
}

// pointer snapshots the assembled mouse state.
func (w *Window) pointer() input.Pointer {
	return input.Pointer{
		ID:      mousePointerID,
		X:       w.x,
		Y:       w.y,
		Buttons: w.buttons,
		Mods:    w.mods,
		Type:    input.PointerMouse,
		Primary: true,
		Time:    time.Now(),
	}
}

// cursorScale maps window coordinates to framebuffer pixels on displays
// where the two differ.
func (w *Window) cursorScale() (float64, float64) {
	ww, wh := w.win.GetSize()
	fw, fh := w.win.GetFramebufferSize()
	if ww == 0 || wh == 0 {
		return 1, 1
	}
	return float64(fw) / float64(ww), float64(fh) / float64(wh)
}

func (w *Window) PollEvents()                 { glfw.PollEvents() }
func (w *Window) SwapBuffers()                { w.win.SwapBuffers() }
func (w *Window) ShouldClose() bool           { return w.win.ShouldClose() }
func (w *Window) SetShouldClose(v bool)       { w.win.SetShouldClose(v) }
func (w *Window) FramebufferSize() (int, int) { return w.win.GetFramebufferSize() }
func (w *Window) SetTitle(t string)           { w.win.SetTitle(t) }

// Destroy closes the window and shuts GLFW down.
func (w *Window) Destroy() {
	w.win.Destroy()
	glfw.Terminate()
}

func translateButton(b glfw.MouseButton) input.Buttons {
	switch b {
	case glfw.MouseButtonLeft:
		return input.ButtonPrimary
	case glfw.MouseButtonRight:
		return input.ButtonSecondary
	case glfw.MouseButtonMiddle:
		return input.ButtonMiddle
	default:
		return 0
	}
}

func translateKey(k glfw.Key) input.Key {
	switch k {
	case glfw.KeySpace:
		return input.KeySpace
	case glfw.KeyEscape:
		return input.KeyEscape
	case glfw.KeyEnter:
		return input.KeyEnter
	case glfw.KeyDelete, glfw.KeyBackspace:
		return input.KeyDelete
	case glfw.KeyLeftShift, glfw.KeyRightShift:
		return input.KeyShift
	case glfw.KeyLeftControl, glfw.KeyRightControl:
		return input.KeyCtrl
	case glfw.KeyLeftAlt, glfw.KeyRightAlt:
		return input.KeyAlt
	case glfw.KeyLeftSuper, glfw.KeyRightSuper:
		return input.KeySuper
	case glfw.KeyG:
		return input.KeyG
	case glfw.KeyO:
		return input.KeyO
	case glfw.KeyS:
		return input.KeyS
	default:
		return input.KeyUnknown
	}
}

func translateMods(m glfw.ModifierKey) input.Mods {
	var out input.Mods
	if m&glfw.ModShift != 0 {
		out |= input.ModShift
	}
	if m&glfw.ModControl != 0 {
		out |= input.ModCtrl
	}
	if m&glfw.ModAlt != 0 {
		out |= input.ModAlt
	}
	if m&glfw.ModSuper != 0 {
		out |= input.ModSuper
	}
	return out
}
