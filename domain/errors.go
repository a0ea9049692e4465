package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a listing has no records for the requested variant.
	ErrNotFound = errors.New("not found")

	ErrInvalidInput = errors.New("invalid input")
)

// LoadError reports a dataset source that could not be read or parsed.
// It only disables the affected variant.
type LoadError struct {
	Variant Variant
	Path    string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load variant %s from %s: %v", e.Variant, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistenceError reports a failed durable write of the experiment log.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
