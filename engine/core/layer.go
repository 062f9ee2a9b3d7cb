package core

import (
	"time"

	"github.com/easel2d/easel/engine/surface"
)

// Layer is one named, z-ordered drawing surface. Layers are created once at
// setup and repainted independently: only dirty layers re-run their objects'
// render funcs, while compositing always includes every layer.
type Layer struct {
	id   string
	z    int
	seq  int // creation order, breaks zIndex ties
	surf surface.Surface

	dirty      bool
	objectIDs  []string // insertion order; render order within the layer
	lastRender time.Time
}

func (l *Layer) ID() string               { return l.id }
func (l *Layer) ZIndex() int              { return l.z }
func (l *Layer) Dirty() bool              { return l.dirty }
func (l *Layer) LastRender() time.Time    { return l.lastRender }
func (l *Layer) Surface() surface.Surface { return l.surf }

// ObjectCount reports how many objects the layer currently owns.
func (l *Layer) ObjectCount() int { return len(l.objectIDs) }

func (l *Layer) appendObject(id string) {
	l.objectIDs = append(l.objectIDs, id)
}

func (l *Layer) removeObject(id string) {
	for i, oid := range l.objectIDs {
		if oid == id {
			l.objectIDs = append(l.objectIDs[:i], l.objectIDs[i+1:]...)
			return
		}
	}
}
