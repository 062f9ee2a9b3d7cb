package core

import "errors"

var (
	// ErrLayerExists means CreateLayer was given an id already in use.
	// Duplicate layers are a setup bug, so this one is fatal.
	ErrLayerExists = errors.New("layer id already exists")

	// ErrNoSuchLayer means an object referenced a layer id that was never
	// created.
	ErrNoSuchLayer = errors.New("no such layer")

	// ErrDestroyed means the engine was used after Destroy.
	ErrDestroyed = errors.New("engine destroyed")
)
