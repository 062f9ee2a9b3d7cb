//go:build !profile

package profiler

import "errors"

// No-op stand-ins for builds without the "profile" tag.

var noop = func() {}

func Init(capacity int) {}

func Span(name string) func() { return noop }

func WriteFile(path string) error {
	return errors.New("profiler: built without the profile tag")
}
