// Package board is the document layer over the engine: a scene-object store
// with selection, the JSON document format, and the view that renders both
// onto engine layers.
package board

import (
	"github.com/google/uuid"

	"github.com/easel2d/easel/engine/core"
	"github.com/easel2d/easel/engine/scene"
)

// DefaultFontSize is the size new text objects get and the base the grid
// unit derives from.
const DefaultFontSize = 16.0

// Store owns the scene objects and the selection. It satisfies the
// interaction machine's scene interface, so every gesture mutation lands
// here, and it announces changes on the event bus it was given.
type Store struct {
	objs     []scene.Object
	sel      []string
	fontSize float64
	bus      *core.Bus
}

// NewStore creates an empty store. bus may be nil when nobody listens.
func NewStore(bus *core.Bus) *Store {
	return &Store{fontSize: DefaultFontSize, bus: bus}
}

// SetDefaultFontSize changes the size used for new text objects and for the
// grid unit. Values at or below zero are ignored.
func (s *Store) SetDefaultFontSize(px float64) {
	if px > 0 {
		s.fontSize = px
	}
}

func (s *Store) DefaultFontSize() float64 { return s.fontSize }

// GridUnit is the snap step: one line height at the default font size.
func (s *Store) GridUnit() float64 { return scene.LineHeight(s.fontSize) }

// Objects returns the scene in draw order, bottom to top. Callers must not
// mutate the returned slice.
func (s *Store) Objects() []scene.Object { return s.objs }

func (s *Store) Len() int { return len(s.objs) }

func (s *Store) Object(id string) (scene.Object, bool) {
	if i := s.index(id); i >= 0 {
		return s.objs[i], true
	}
	return scene.Object{}, false
}

func (s *Store) index(id string) int {
	for i := range s.objs {
		if s.objs[i].ID == id {
			return i
		}
	}
	return -1
}

// AddText appends a text object at the given world baseline origin.
func (s *Store) AddText(x, y float64, content string) scene.Object {
	o := scene.Object{
		ID:          uuid.NewString(),
		Kind:        scene.KindText,
		X:           x,
		Y:           y,
		Content:     content,
		FontSize:    s.fontSize,
		ScaleFactor: 1,
	}
	s.objs = append(s.objs, o)
	s.announce(o.ID, false)
	return o
}

// AddGuide appends a guide frame with its top-left at (x, y).
func (s *Store) AddGuide(x, y, w, h float64) scene.Object {
	o := scene.Object{
		ID:     uuid.NewString(),
		Kind:   scene.KindGuide,
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
	}
	s.objs = append(s.objs, o)
	s.announce(o.ID, false)
	return o
}

// Put inserts o, or replaces the object with the same id in place. The load
// path uses it to keep document order.
func (s *Store) Put(o scene.Object) {
	if i := s.index(o.ID); i >= 0 {
		s.objs[i] = o
	} else {
		s.objs = append(s.objs, o)
	}
	s.announce(o.ID, false)
}

// Remove deletes the object and drops it from the selection. Unknown ids
// are a logged no-op.
func (s *Store) Remove(id string) {
	i := s.index(id)
	if i < 0 {
		core.Logger().Warn("easel: remove of unknown object", "id", id)
		return
	}
	s.objs = append(s.objs[:i], s.objs[i+1:]...)

	for j, sid := range s.sel {
		if sid == id {
			s.setSelection(append(append([]string{}, s.sel[:j]...), s.sel[j+1:]...))
			break
		}
	}
	s.announce(id, true)
}

// RemoveSelected deletes every selected object.
func (s *Store) RemoveSelected() {
	for _, id := range append([]string{}, s.sel...) {
		s.Remove(id)
	}
}

func (s *Store) MoveObject(id string, dx, dy float64) {
	i := s.index(id)
	if i < 0 {
		core.Logger().Warn("easel: move of unknown object", "id", id)
		return
	}
	s.objs[i].X += dx
	s.objs[i].Y += dy
	s.announce(id, false)
}

func (s *Store) SetObjectPos(id string, x, y float64) {
	i := s.index(id)
	if i < 0 {
		core.Logger().Warn("easel: position set on unknown object", "id", id)
		return
	}
	s.objs[i].X = x
	s.objs[i].Y = y
	s.announce(id, false)
}

// SetText replaces a text object's content.
func (s *Store) SetText(id, content string) {
	i := s.index(id)
	if i < 0 || s.objs[i].Kind != scene.KindText {
		core.Logger().Warn("easel: text set on unknown or non-text object", "id", id)
		return
	}
	s.objs[i].Content = content
	s.announce(id, false)
}

// BringToFront moves the object to the top of the draw order.
func (s *Store) BringToFront(id string) {
	i := s.index(id)
	if i < 0 || i == len(s.objs)-1 {
		return
	}
	o := s.objs[i]
	s.objs = append(append(s.objs[:i], s.objs[i+1:]...), o)
	s.announce(id, false)
}

// SendToBack moves the object to the bottom of the draw order.
func (s *Store) SendToBack(id string) {
	i := s.index(id)
	if i <= 0 {
		return
	}
	o := s.objs[i]
	rest := append(s.objs[:i], s.objs[i+1:]...)
	s.objs = append([]scene.Object{o}, rest...)
	s.announce(id, false)
}

func (s *Store) Selection() []string { return s.sel }

func (s *Store) SetSelection(ids []string) {
	s.setSelection(append([]string{}, ids...))
}

func (s *Store) setSelection(ids []string) {
	s.sel = ids
	if s.bus != nil {
		s.bus.Publish(core.SelectionChanged{IDs: ids})
	}
}

// Clear removes every object and the selection.
func (s *Store) Clear() {
	removed := make([]string, len(s.objs))
	for i := range s.objs {
		removed[i] = s.objs[i].ID
	}
	s.objs = nil
	s.setSelection(nil)
	for _, id := range removed {
		s.announce(id, true)
	}
}

func (s *Store) announce(id string, removed bool) {
	if s.bus != nil {
		s.bus.Publish(core.ObjectChanged{ID: id, Removed: removed})
	}
}
