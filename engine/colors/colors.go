package colors

import "image/color"

type Color [4]float32

var (
	White       = Color{1, 1, 1, 1}
	Black       = Color{0, 0, 0, 1}
	Transparent = Color{0, 0, 0, 0}
	Red         = Color{1, 0, 0, 1}
	Green       = Color{0, 1, 0, 1}
	Blue        = Color{0, 0, 1, 1}
	Gray        = Color{0.5, 0.5, 0.5, 1}
	DarkGray    = Color{0.08, 0.10, 0.12, 1}

	// Board palette.
	Ink       = Color{0.13, 0.13, 0.15, 1}
	Paper     = Color{0.98, 0.98, 0.96, 1}
	Accent    = Color{0.26, 0.52, 0.96, 1}
	GuideLine = Color{0.58, 0.44, 0.86, 1}
)

func (c Color) WithAlpha(a float32) Color {
	c[3] = a
	return c
}

// NRGBA converts to the 8-bit non-premultiplied form used by the software
// surfaces. Components are clamped to [0, 1].
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: u8(c[0]), G: u8(c[1]), B: u8(c[2]), A: u8(c[3])}
}

// FromNRGBA converts an 8-bit color back into the float form.
func FromNRGBA(c color.NRGBA) Color {
	return Color{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

func u8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
