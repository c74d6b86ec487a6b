package imaging

import (
	"os"

	"feedgrid/internal/planner"
)

// OSLoader reads image sources from the local filesystem.
type OSLoader struct{}

func NewOSLoader() *OSLoader { return &OSLoader{} }

// Load reads the file at sourceRef. Failures are reported as *LoadError.
func (*OSLoader) Load(sourceRef string) ([]byte, error) {
	data, err := os.ReadFile(sourceRef)
	if err != nil {
		return nil, &LoadError{Source: sourceRef, Err: err}
	}
	return data, nil
}

// Compile-time check that OSLoader implements planner.Loader.
var _ planner.Loader = (*OSLoader)(nil)
