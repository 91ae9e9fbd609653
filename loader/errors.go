package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks construction-time configuration errors
	ErrInvalidConfig = errors.New("invalid block loader configuration")

	ErrMalformedManifest = errors.New("malformed manifest")
	ErrBlockOutOfRange   = errors.New("block number out of range")
	ErrDestination       = errors.New("destination does not match manifest elements")
)

// RecordError is stored in the slot of a record whose file could not be read
type RecordError struct {
	Index   int // position in the manifest
	Element int // which file of the record
	Path    string
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d element %d (%s): %v", e.Index, e.Element, e.Path, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
