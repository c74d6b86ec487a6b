package testutil

import (
	"feedgrid/internal/imaging"
	"feedgrid/internal/planner"
)

// MapLoader serves image bytes from an in-memory map keyed by source ref.
type MapLoader struct {
	Sources map[string][]byte
}

// NewMapLoader creates an empty MapLoader.
func NewMapLoader() *MapLoader {
	return &MapLoader{Sources: make(map[string][]byte)}
}

// Add registers bytes under a source ref.
func (l *MapLoader) Add(sourceRef string, data []byte) {
	l.Sources[sourceRef] = data
}

// Load returns the registered bytes, or a *imaging.LoadError for unknown refs.
func (l *MapLoader) Load(sourceRef string) ([]byte, error) {
	data, ok := l.Sources[sourceRef]
	if !ok {
		return nil, &imaging.LoadError{Source: sourceRef, Err: errNotRegistered}
	}
	return data, nil
}

type notRegisteredError struct{}

func (notRegisteredError) Error() string { return "source not registered" }

var errNotRegistered = notRegisteredError{}

// Compile-time check that MapLoader implements planner.Loader.
var _ planner.Loader = (*MapLoader)(nil)
