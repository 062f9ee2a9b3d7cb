// Package text loads font faces and provides the measurement and drawing
// primitives the board renderers and hit-testing rely on. Rasterization
// happens in software through x/image/font; the GPU only ever sees the
// composited output.
package text

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Face is one sized face plus its pixel metrics.
type Face struct {
	SizePx  float64
	Ascent  float64
	Descent float64 // positive, below the baseline
	LineGap float64
	face    font.Face
}

// LineHeight is the full advance from one baseline to the next.
func (f *Face) LineHeight() float64 { return f.Ascent + f.Descent + f.LineGap }

func (f *Face) Close() {
	if f != nil && f.face != nil {
		_ = f.face.Close()
		f.face = nil
	}
}

// Source is a parsed font that hands out faces by pixel size. Faces are
// cached by rounded size so continuous zooming does not allocate a face per
// frame. Not safe for concurrent use; the engine is single-threaded.
type Source struct {
	font  *opentype.Font
	faces map[int]*Face
}

// Default returns a source backed by the embedded Go Regular font.
func Default() *Source {
	src, err := Parse(goregular.TTF)
	if err != nil {
		// The embedded font parses; reaching here means a build problem.
		panic(fmt.Sprintf("text: parse embedded font: %v", err))
	}
	return src
}

// LoadFile reads and parses a TTF/OTF from disk.
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Source, error) {
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Source{font: ft, faces: make(map[int]*Face)}, nil
}

// Face returns the cached face for the given pixel size, creating it on
// first use. Sizes below one pixel are clamped.
func (s *Source) Face(sizePx float64) *Face {
	if sizePx < 1 {
		sizePx = 1
	}
	key := int(math.Round(sizePx))
	if f, ok := s.faces[key]; ok {
		return f
	}

	face, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size: float64(key), DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		// NewFace only fails on invalid options; fall back to the
		// nearest cached face rather than propagating per-frame errors.
		for _, f := range s.faces {
			return f
		}
		panic(fmt.Sprintf("text: new face: %v", err))
	}

	m := face.Metrics()
	ascent := float64(m.Ascent.Round())
	descent := float64(m.Descent.Round())
	f := &Face{
		SizePx:  float64(key),
		Ascent:  ascent,
		Descent: descent,
		LineGap: float64(m.Height.Round()) - ascent - descent,
		face:    face,
	}
	s.faces[key] = f
	return f
}

// Close releases every cached face.
func (s *Source) Close() {
	for k, f := range s.faces {
		f.Close()
		delete(s.faces, k)
	}
}

// Measurer adapts the source to the measurement function shape the
// hit-testing layer consumes: text and font size in, advance width out.
func (s *Source) Measurer() func(text string, sizePx float64) float64 {
	return func(text string, sizePx float64) float64 {
		return s.Face(sizePx).Measure(text)
	}
}
