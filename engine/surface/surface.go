// Package surface abstracts the drawing target a render layer paints into.
// The engine only needs a clearable pixel buffer it can composite; hosts
// that present through the GPU upload the composited image afterwards.
package surface

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/easel2d/easel/engine/colors"
)

// Surface is one layer's backing store. Implementations are not safe for
// concurrent use; the engine touches them only from its own goroutine.
type Surface interface {
	Size() (w, h int)
	Clear(c colors.Color)
	// Image exposes the pixels for render funcs and for compositing.
	Image() draw.Image
	Release()
}

// New returns the default software surface. It is the factory the engine
// uses unless the host supplies its own.
func New(w, h int) Surface { return NewImage(w, h) }

// ImageSurface is the software implementation, backed by an RGBA buffer.
type ImageSurface struct {
	rgba *image.RGBA
}

func NewImage(w, h int) *ImageSurface {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &ImageSurface{rgba: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (s *ImageSurface) Size() (int, int) {
	b := s.rgba.Bounds()
	return b.Dx(), b.Dy()
}

func (s *ImageSurface) Image() draw.Image { return s.rgba }

// RGBA returns the raw buffer, for hosts that encode or upload it.
func (s *ImageSurface) RGBA() *image.RGBA { return s.rgba }

func (s *ImageSurface) Clear(c colors.Color) {
	n := color.RGBAModel.Convert(c.NRGBA()).(color.RGBA)
	px := s.rgba.Pix
	if len(px) == 0 {
		return
	}
	px[0], px[1], px[2], px[3] = n.R, n.G, n.B, n.A
	// Double the filled prefix until the buffer is covered.
	for filled := 4; filled < len(px); filled *= 2 {
		copy(px[filled:], px[:filled])
	}
}

func (s *ImageSurface) Release() {}
