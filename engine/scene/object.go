package scene

// Kind discriminates the scene-object variants. Dispatch switches on it at
// the hit-test and render layers.
type Kind uint8

const (
	KindText Kind = iota
	KindGuide
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindGuide:
		return "guide"
	default:
		return "unknown"
	}
}

// Object is one world-space scene element. Text objects use Content,
// FontSize and ScaleFactor; guides use Width and Height. The engine
// consumes these but never owns them; the store does.
type Object struct {
	ID   string
	Kind Kind

	// X, Y anchor the object in world coordinates. For text this is the
	// baseline origin of the first line; for guides the top-left corner.
	X, Y float64

	Content     string
	FontSize    float64
	ScaleFactor float64

	Width, Height float64
}

// EffectiveFontSize is the font size after the per-object scale factor.
func (o *Object) EffectiveFontSize() float64 {
	sf := o.ScaleFactor
	if sf <= 0 {
		sf = 1
	}
	return o.FontSize * sf
}

// Measurer turns text and a font size into an advance width in pixels. The
// host supplies it (usually text.Source.Measurer) so the engine never picks
// fonts itself.
type Measurer func(text string, fontSize float64) float64

// LineHeightFactor converts a font size into the line height the grid unit
// derives from.
const LineHeightFactor = 1.2

// LineHeight returns the canonical line height for a font size. Grid
// snapping is defined in terms of this one rule.
func LineHeight(fontSize float64) float64 { return fontSize * LineHeightFactor }
