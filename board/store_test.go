package board

import (
	"context"
	"log/slog"
	"testing"

	"github.com/easel2d/easel/engine/core"
	"github.com/easel2d/easel/engine/scene"
)

type logCatcher struct{ records *[]slog.Record }

func (c logCatcher) Enabled(context.Context, slog.Level) bool { return true }
func (c logCatcher) Handle(_ context.Context, r slog.Record) error {
	*c.records = append(*c.records, r)
	return nil
}
func (c logCatcher) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c logCatcher) WithGroup(string) slog.Handler      { return c }

func catchLogs(t *testing.T) *[]slog.Record {
	t.Helper()
	var records []slog.Record
	core.SetLogger(slog.New(logCatcher{records: &records}))
	t.Cleanup(func() { core.SetLogger(nil) })
	return &records
}

func TestStoreAddAssignsIDsAndDefaults(t *testing.T) {
	s := NewStore(nil)

	txt := s.AddText(10, 20, "hello")
	if txt.ID == "" {
		t.Fatal("text object has no id")
	}
	if txt.FontSize != DefaultFontSize || txt.ScaleFactor != 1 {
		t.Fatalf("text defaults = size %v scale %v", txt.FontSize, txt.ScaleFactor)
	}

	g := s.AddGuide(0, 0, 100, 50)
	if g.ID == "" || g.ID == txt.ID {
		t.Fatalf("guide id %q not unique against %q", g.ID, txt.ID)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestStoreGridUnitTracksLineHeight(t *testing.T) {
	s := NewStore(nil)
	if got, want := s.GridUnit(), scene.LineHeight(DefaultFontSize); got != want {
		t.Fatalf("GridUnit = %v, want %v", got, want)
	}
	s.SetDefaultFontSize(20)
	if got, want := s.GridUnit(), 24.0; got != want {
		t.Fatalf("GridUnit after resize = %v, want %v", got, want)
	}
	s.SetDefaultFontSize(-3) // ignored
	if got := s.GridUnit(); got != 24.0 {
		t.Fatalf("GridUnit after bad size = %v, want 24", got)
	}
}

func TestStoreMoveAndSetPos(t *testing.T) {
	logs := catchLogs(t)
	s := NewStore(nil)
	o := s.AddText(10, 20, "x")

	s.MoveObject(o.ID, 5, -3)
	got, _ := s.Object(o.ID)
	if got.X != 15 || got.Y != 17 {
		t.Fatalf("after move: (%v,%v), want (15,17)", got.X, got.Y)
	}

	s.SetObjectPos(o.ID, 100, 200)
	got, _ = s.Object(o.ID)
	if got.X != 100 || got.Y != 200 {
		t.Fatalf("after set: (%v,%v), want (100,200)", got.X, got.Y)
	}

	s.MoveObject("nope", 1, 1)
	if len(*logs) == 0 {
		t.Fatal("move of unknown id logged nothing")
	}
}

func TestStoreRemoveDropsSelection(t *testing.T) {
	s := NewStore(nil)
	a := s.AddText(0, 0, "a")
	b := s.AddText(10, 10, "b")
	s.SetSelection([]string{a.ID, b.ID})

	s.Remove(a.ID)
	if s.Len() != 1 {
		t.Fatalf("Len after remove = %d, want 1", s.Len())
	}
	if len(s.Selection()) != 1 || s.Selection()[0] != b.ID {
		t.Fatalf("selection after remove = %v, want [%s]", s.Selection(), b.ID)
	}

	logs := catchLogs(t)
	s.Remove("nope")
	if len(*logs) == 0 {
		t.Fatal("remove of unknown id logged nothing")
	}
}

func TestStoreZOrder(t *testing.T) {
	s := NewStore(nil)
	a := s.AddText(0, 0, "a")
	b := s.AddText(0, 0, "b")
	c := s.AddText(0, 0, "c")

	s.BringToFront(a.ID)
	want := []string{b.ID, c.ID, a.ID}
	for i, o := range s.Objects() {
		if o.ID != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, o.ID, want[i])
		}
	}

	s.SendToBack(a.ID)
	want = []string{a.ID, b.ID, c.ID}
	for i, o := range s.Objects() {
		if o.ID != want[i] {
			t.Fatalf("after send-to-back order[%d] = %s, want %s", i, o.ID, want[i])
		}
	}
}

func TestStorePublishesOnBus(t *testing.T) {
	var bus core.Bus
	var objEvents, selEvents int
	bus.Subscribe(func(ev core.Event) {
		switch ev.(type) {
		case core.ObjectChanged:
			objEvents++
		case core.SelectionChanged:
			selEvents++
		}
	})

	s := NewStore(&bus)
	o := s.AddText(0, 0, "a")
	s.MoveObject(o.ID, 1, 1)
	s.SetSelection([]string{o.ID})
	s.Remove(o.ID)

	if objEvents != 3 { // add, move, remove
		t.Fatalf("object events = %d, want 3", objEvents)
	}
	if selEvents != 2 { // explicit set, then cleared by remove
		t.Fatalf("selection events = %d, want 2", selEvents)
	}
}

func TestStoreClearAnnouncesRemovals(t *testing.T) {
	var bus core.Bus
	var removed int
	bus.Subscribe(func(ev core.Event) {
		if e, ok := ev.(core.ObjectChanged); ok && e.Removed {
			removed++
		}
	})

	s := NewStore(&bus)
	s.AddText(0, 0, "a")
	s.AddGuide(0, 0, 10, 10)
	s.Clear()

	if s.Len() != 0 {
		t.Fatalf("Len after clear = %d", s.Len())
	}
	if removed != 2 {
		t.Fatalf("removal events = %d, want 2", removed)
	}
}
