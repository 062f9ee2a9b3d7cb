package board

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/scene"
)

func TestDocumentRoundTrip(t *testing.T) {
	src := NewStore(nil)
	txt := src.AddText(10, 20, "hello\nworld")
	guide := src.AddGuide(-5, 40, 120, 60)

	cam := scene.NewCamera()
	cam.ZoomToLevel(2.5, geom.Pt(0, 0))
	cam.PanBy(12, -34)

	var buf bytes.Buffer
	if err := EncodeDocument(&buf, src.Document(cam)); err != nil {
		t.Fatalf("encode: %v", err)
	}

	doc, err := DecodeDocument(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	dst := NewStore(nil)
	cam2 := scene.NewCamera()
	if err := dst.LoadDocument(doc, cam2); err != nil {
		t.Fatalf("load: %v", err)
	}

	if dst.Len() != 2 {
		t.Fatalf("loaded %d objects, want 2", dst.Len())
	}
	got, ok := dst.Object(txt.ID)
	if !ok {
		t.Fatalf("text %s missing after round trip", txt.ID)
	}
	if got != txt {
		t.Fatalf("text round trip = %+v, want %+v", got, txt)
	}
	got, ok = dst.Object(guide.ID)
	if !ok || got != guide {
		t.Fatalf("guide round trip = %+v ok=%v, want %+v", got, ok, guide)
	}
	if dst.Objects()[0].ID != txt.ID {
		t.Fatal("document order not preserved")
	}

	if math.Abs(cam2.Scale()-2.5) > 1e-9 {
		t.Fatalf("restored scale = %v, want 2.5", cam2.Scale())
	}
	if off := cam2.Offset(); off != geom.Pt(12, -34) {
		t.Fatalf("restored offset = %v, want (12,-34)", off)
	}
}

func TestDocumentLoadReplacesExisting(t *testing.T) {
	s := NewStore(nil)
	stale := s.AddText(0, 0, "stale")
	s.SetSelection([]string{stale.ID})

	doc := Document{
		Version:  DocVersion,
		Type:     DocType,
		Elements: []Element{{ID: "fresh", Kind: "guide", Width: 10, Height: 10}},
		AppState: AppState{Scale: 1},
	}
	if err := s.LoadDocument(doc, nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if _, ok := s.Object(stale.ID); ok {
		t.Fatal("stale object survived load")
	}
	if len(s.Selection()) != 0 {
		t.Fatalf("selection survived load: %v", s.Selection())
	}
}

func TestDocumentRejectsWrongType(t *testing.T) {
	s := NewStore(nil)
	err := s.LoadDocument(Document{Version: 1, Type: "excalidraw"}, nil)
	if err == nil {
		t.Fatal("foreign document type accepted")
	}
}

func TestDocumentRejectsNewerVersion(t *testing.T) {
	s := NewStore(nil)
	err := s.LoadDocument(Document{Version: DocVersion + 1, Type: DocType}, nil)
	if err == nil {
		t.Fatal("future document version accepted")
	}
}

func TestDocumentSkipsUnknownKinds(t *testing.T) {
	logs := catchLogs(t)
	s := NewStore(nil)
	doc := Document{
		Version: DocVersion,
		Type:    DocType,
		Elements: []Element{
			{ID: "a", Kind: "text", Content: "keep", FontSize: 16, ScaleFactor: 1},
			{ID: "b", Kind: "ellipse", X: 1, Y: 2},
			{ID: "c", Kind: "guide", Width: 5, Height: 5},
		},
	}
	if err := s.LoadDocument(doc, nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (unknown kind kept?)", s.Len())
	}
	if _, ok := s.Object("b"); ok {
		t.Fatal("unknown kind was loaded")
	}
	if len(*logs) == 0 {
		t.Fatal("skipped element logged nothing")
	}
}

func TestDocumentDefaultsTextMetrics(t *testing.T) {
	s := NewStore(nil)
	doc := Document{
		Version:  DocVersion,
		Type:     DocType,
		Elements: []Element{{ID: "a", Kind: "text", Content: "x"}},
	}
	if err := s.LoadDocument(doc, nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	o, _ := s.Object("a")
	if o.FontSize != DefaultFontSize || o.ScaleFactor != 1 {
		t.Fatalf("defaults = size %v scale %v, want %v and 1", o.FontSize, o.ScaleFactor, DefaultFontSize)
	}
}

func TestDocumentFileRoundTrip(t *testing.T) {
	s := NewStore(nil)
	s.AddText(1, 2, "saved")
	path := filepath.Join(t.TempDir(), "board.json")

	if err := SaveFile(path, s.Document(nil)); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Elements) != 1 || doc.Elements[0].Content != "saved" {
		t.Fatalf("file round trip elements = %+v", doc.Elements)
	}
	if doc.Type != DocType || doc.Version != DocVersion {
		t.Fatalf("header = %q v%d", doc.Type, doc.Version)
	}
}
