package input

type Key int

const (
	KeyUnknown Key = iota
	KeySpace
	KeyEscape
	KeyEnter
	KeyDelete
	KeyShift
	KeyCtrl
	KeyAlt
	KeySuper

	// Shortcut keys the hosts bind.
	KeyG
	KeyO
	KeyS
)

// Keys tracks held keys between events so the machine can ask about
// modifiers, most importantly the space pan modifier, without every host
// resending them on pointer events.
type Keys struct {
	down map[Key]bool
}

func NewKeys() *Keys {
	return &Keys{down: make(map[Key]bool)}
}

func (k *Keys) Set(key Key, down bool) {
	if down {
		k.down[key] = true
		return
	}
	delete(k.down, key)
}

func (k *Keys) Down(key Key) bool { return k.down[key] }

// SpacePan reports whether the pan modifier is held.
func (k *Keys) SpacePan() bool { return k.down[KeySpace] }

// Mods folds held modifier keys into a Mods mask, for hosts whose key
// events and pointer events arrive separately.
func (k *Keys) Mods() Mods {
	var m Mods
	if k.down[KeyShift] {
		m |= ModShift
	}
	if k.down[KeyCtrl] {
		m |= ModCtrl
	}
	if k.down[KeyAlt] {
		m |= ModAlt
	}
	if k.down[KeySuper] {
		m |= ModSuper
	}
	return m
}
