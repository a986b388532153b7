package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound signals a missing index.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals that an index with the same name was created concurrently.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidDefinition signals an invalid index definition.
	ErrInvalidDefinition = errors.New("invalid index definition")
	// ErrIndexConflict signals that the live index differs from the desired definition.
	ErrIndexConflict = errors.New("index conflict")
	// ErrInvalidQuery signals an unusable probe query.
	ErrInvalidQuery = errors.New("invalid query")
)

// ConflictError wraps ErrIndexConflict with a human-readable list of differences.
type ConflictError struct {
	Index       string
	Differences []string
}

func (e *ConflictError) Error() string {
	if len(e.Differences) == 0 {
		return fmt.Sprintf("%s: %s", ErrIndexConflict.Error(), e.Index)
	}
	return fmt.Sprintf("%s: %s differs (%s)", ErrIndexConflict.Error(), e.Index, strings.Join(e.Differences, "; "))
}

func (e *ConflictError) Unwrap() error { return ErrIndexConflict }

// NewConflict creates an index conflict error.
func NewConflict(index string, differences []string) error {
	return &ConflictError{Index: index, Differences: differences}
}
