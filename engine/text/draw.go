package text

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/easel2d/easel/engine/colors"
)

// Measure returns the advance width of s in pixels.
func (f *Face) Measure(s string) float64 {
	return fixedToPx(font.MeasureString(f.face, s))
}

// Draw renders s onto dst with the dot at (x, y); y is the baseline.
func (f *Face) Draw(dst draw.Image, s string, x, y float64, c colors.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c.NRGBA()),
		Face: f.face,
		Dot:  fixed.Point26_6{X: pxToFixed(x), Y: pxToFixed(y)},
	}
	d.DrawString(s)
}

func fixedToPx(v fixed.Int26_6) float64 { return float64(v) / 64 }

func pxToFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }
