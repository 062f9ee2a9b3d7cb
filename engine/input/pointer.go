// Package input normalizes host pointer events into one shape and runs the
// interaction state machine that turns them into pans, drags, marquee
// selections, pinches and momentum.
package input

import (
	"math"
	"time"

	"github.com/easel2d/easel/engine/core"
)

type Buttons uint8

const (
	ButtonPrimary Buttons = 1 << iota
	ButtonSecondary
	ButtonMiddle
)

type Mods uint8

const (
	ModShift Mods = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// MultiSelect reports whether a multi-select modifier is held.
func (m Mods) MultiSelect() bool { return m&(ModShift|ModCtrl|ModSuper) != 0 }

type PointerType uint8

const (
	PointerMouse PointerType = iota
	PointerTouch
	PointerPen
)

func (t PointerType) String() string {
	switch t {
	case PointerMouse:
		return "mouse"
	case PointerTouch:
		return "touch"
	case PointerPen:
		return "pen"
	default:
		return "unknown"
	}
}

// Pointer is the one normalized event shape every host feeds the machine,
// whatever its native input looks like.
type Pointer struct {
	ID       int
	X, Y     float64 // screen pixels
	Buttons  Buttons // buttons currently held
	Mods     Mods
	Pressure float64
	Type     PointerType
	Primary  bool
	Time     time.Time // zero means "stamp on arrival"
}

// Sanitize forces a raw event into a well-formed one. Malformed fields are
// zeroed or clamped and logged; a bad event must degrade, never propagate.
func Sanitize(p Pointer) Pointer {
	bad := false
	if math.IsNaN(p.X) || math.IsInf(p.X, 0) {
		p.X = 0
		bad = true
	}
	if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		p.Y = 0
		bad = true
	}
	if p.ID < 0 {
		p.ID = 0
		bad = true
	}
	switch {
	case math.IsNaN(p.Pressure), p.Pressure < 0:
		p.Pressure = 0
		bad = true
	case p.Pressure > 1:
		p.Pressure = 1
		bad = true
	}
	if p.Type > PointerPen {
		p.Type = PointerMouse
		bad = true
	}
	if bad {
		core.Logger().Warn("easel: malformed pointer event normalized",
			"id", p.ID, "x", p.X, "y", p.Y)
	}
	return p
}
