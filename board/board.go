package board

import (
	"fmt"

	"github.com/easel2d/easel/engine/canvas"
	"github.com/easel2d/easel/engine/colors"
	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/surface"
	"github.com/easel2d/easel/engine/text"
)

type Config struct {
	Width, Height int

	// Fonts is the face source for rendering and measurement. Nil selects
	// the embedded default.
	Fonts *text.Source

	// ClearColor is the page color. Zero selects the paper tone.
	ClearColor colors.Color

	// Grid draws the background grid layer.
	Grid bool

	NewSurface   func(w, h int) surface.Surface
	RequestFrame func()
	SetCapture   func(pointerID int, captured bool)
}

// Board wires a store, a canvas and a view into a ready-to-host editor.
type Board struct {
	Store  *Store
	Canvas *canvas.Canvas
	View   *View
}

func New(cfg Config) (*Board, error) {
	fonts := cfg.Fonts
	owned := false
	if fonts == nil {
		fonts = text.Default()
		owned = true
	}
	bg := cfg.ClearColor
	if bg == (colors.Color{}) {
		bg = colors.Paper
	}

	store := NewStore(nil)
	cv, err := canvas.New(canvas.Config{
		Width:        cfg.Width,
		Height:       cfg.Height,
		Scene:        store,
		Measure:      fonts.Measurer(),
		ClearColor:   bg,
		NewSurface:   cfg.NewSurface,
		RequestFrame: cfg.RequestFrame,
		SetCapture:   cfg.SetCapture,
	})
	if err != nil {
		if owned {
			fonts.Close()
		}
		return nil, err
	}
	// The store announces on the canvas bus from here on.
	store.bus = cv.Events()

	view, err := NewView(cv, store, fonts)
	if err != nil {
		cv.Destroy()
		if owned {
			fonts.Close()
		}
		return nil, err
	}
	// When New defaulted the source, the view closes it.
	view.owns = owned
	if cfg.Grid {
		if err := view.EnableGrid(); err != nil {
			view.Close()
			cv.Destroy()
			return nil, err
		}
	}

	return &Board{Store: store, Canvas: cv, View: view}, nil
}

// Load replaces the board contents with doc and restores its viewport. The
// viewport goes through the canvas so the change is published and every
// layer repaints.
func (b *Board) Load(doc Document) error {
	if err := b.Store.LoadDocument(doc, nil); err != nil {
		return err
	}
	if doc.AppState.Scale > 0 {
		b.Canvas.ZoomToLevel(doc.AppState.Scale, geom.Pt(0, 0))
	}
	off := b.Canvas.Camera().Offset()
	b.Canvas.PanBy(doc.AppState.OffsetX-off.X, doc.AppState.OffsetY-off.Y)
	return nil
}

// LoadFile loads the document at path into the board.
func (b *Board) LoadFile(path string) error {
	doc, err := LoadFile(path)
	if err != nil {
		return err
	}
	if err := b.Load(doc); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Document snapshots the board, viewport included.
func (b *Board) Document() Document {
	return b.Store.Document(b.Canvas.Camera())
}

// SaveFile writes the current document to path.
func (b *Board) SaveFile(path string) error {
	return SaveFile(path, b.Document())
}

// Destroy tears down the view and the canvas.
func (b *Board) Destroy() {
	b.View.Close()
	b.Canvas.Destroy()
}
