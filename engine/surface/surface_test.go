package surface

import (
	"image/color"
	"testing"

	"github.com/easel2d/easel/engine/colors"
)

func TestClearFillsEveryPixel(t *testing.T) {
	s := NewImage(33, 7) // odd sizes exercise the doubling fill
	s.Clear(colors.Color{1, 0, 0, 1})
	want := color.RGBA{R: 255, A: 255}
	for y := 0; y < 7; y++ {
		for x := 0; x < 33; x++ {
			if got := s.RGBA().RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestNewClampsDegenerateSize(t *testing.T) {
	s := NewImage(0, -3)
	w, h := s.Size()
	if w != 1 || h != 1 {
		t.Fatalf("Size() = %dx%d, want 1x1", w, h)
	}
}
