package imaging

import "fmt"

// LoadError reports that image bytes could not be obtained or decoded.
// It aborts a save before anything is written.
type LoadError struct {
	Source string // source reference, empty when decoding in-memory bytes
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("loading image %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("loading image: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EncodeError reports that the storage representation could not be encoded.
// It aborts a save before anything is written.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("encoding image: %v", e.Err) }

func (e *EncodeError) Unwrap() error { return e.Err }
