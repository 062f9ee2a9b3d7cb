package board

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/easel2d/easel/engine/core"
	"github.com/easel2d/easel/engine/geom"
	"github.com/easel2d/easel/engine/scene"
)

const (
	// DocType tags serialized boards so other JSON blobs fail fast.
	DocType = "easel/board"
	// DocVersion is the current document schema version.
	DocVersion = 1
)

// Document is the serialized board: the scene objects plus the viewport the
// user last looked at.
type Document struct {
	Version  int       `json:"version"`
	Type     string    `json:"type"`
	Elements []Element `json:"elements"`
	AppState AppState  `json:"appState"`
}

// Element is one serialized scene object. Kind decides which of the
// optional fields are meaningful.
type Element struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Content     string  `json:"content,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
	ScaleFactor float64 `json:"scaleFactor,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
}

// AppState carries the viewport.
type AppState struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Document snapshots the store and camera into the serializable shape.
func (s *Store) Document(cam *scene.Camera) Document {
	doc := Document{
		Version:  DocVersion,
		Type:     DocType,
		Elements: make([]Element, 0, len(s.objs)),
	}
	if cam != nil {
		off := cam.Offset()
		doc.AppState = AppState{Scale: cam.Scale(), OffsetX: off.X, OffsetY: off.Y}
	} else {
		doc.AppState = AppState{Scale: 1}
	}
	for i := range s.objs {
		doc.Elements = append(doc.Elements, encodeElement(&s.objs[i]))
	}
	return doc
}

// LoadDocument replaces the store contents with the document's and, when a
// camera is given, restores the viewport. Elements of unknown kind are
// skipped with a warning so newer documents degrade instead of failing.
func (s *Store) LoadDocument(doc Document, cam *scene.Camera) error {
	if doc.Type != DocType {
		return fmt.Errorf("document type %q is not %q", doc.Type, DocType)
	}
	if doc.Version > DocVersion {
		return fmt.Errorf("document version %d is newer than supported %d", doc.Version, DocVersion)
	}

	s.Clear()
	for _, el := range doc.Elements {
		o, ok := decodeElement(el)
		if !ok {
			core.Logger().Warn("easel: skipping element of unknown kind",
				"id", el.ID, "kind", el.Kind)
			continue
		}
		s.Put(o)
	}

	if cam != nil {
		if doc.AppState.Scale > 0 {
			// Zoom about the origin, then place the offset directly.
			cam.ZoomToLevel(doc.AppState.Scale, geom.Pt(0, 0))
		}
		off := cam.Offset()
		cam.PanBy(doc.AppState.OffsetX-off.X, doc.AppState.OffsetY-off.Y)
	}
	return nil
}

// Element snapshots one object in its serialized form, for hosts that
// stream deltas instead of whole documents.
func (s *Store) Element(id string) (Element, bool) {
	i := s.index(id)
	if i < 0 {
		return Element{}, false
	}
	return encodeElement(&s.objs[i]), true
}

func encodeElement(o *scene.Object) Element {
	el := Element{ID: o.ID, X: o.X, Y: o.Y}
	switch o.Kind {
	case scene.KindText:
		el.Kind = "text"
		el.Content = o.Content
		el.FontSize = o.FontSize
		el.ScaleFactor = o.ScaleFactor
	case scene.KindGuide:
		el.Kind = "guide"
		el.Width = o.Width
		el.Height = o.Height
	default:
		el.Kind = o.Kind.String()
	}
	return el
}

func decodeElement(el Element) (scene.Object, bool) {
	o := scene.Object{ID: el.ID, X: el.X, Y: el.Y}
	switch el.Kind {
	case "text":
		o.Kind = scene.KindText
		o.Content = el.Content
		o.FontSize = el.FontSize
		o.ScaleFactor = el.ScaleFactor
		if o.FontSize <= 0 {
			o.FontSize = DefaultFontSize
		}
		if o.ScaleFactor <= 0 {
			o.ScaleFactor = 1
		}
	case "guide":
		o.Kind = scene.KindGuide
		o.Width = el.Width
		o.Height = el.Height
	default:
		return scene.Object{}, false
	}
	return o, true
}

// EncodeDocument writes doc as indented JSON.
func EncodeDocument(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// DecodeDocument reads one JSON document.
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// SaveFile writes the document to path.
func SaveFile(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	defer f.Close()
	return EncodeDocument(f, doc)
}

// LoadFile reads a document from path.
func LoadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("load document: %w", err)
	}
	defer f.Close()
	return DecodeDocument(f)
}
