package core

import (
	"errors"
	"fmt"
)

var (
	ErrIngestion      = errors.New("ingestion failed")
	ErrNotFound       = errors.New("not found")
	ErrInvalidQuery   = errors.New("invalid query")
	ErrStaleReference = errors.New("stale index reference")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// OpError attaches the failing operation, and the record it was working on
// when there is one, to an underlying error.
type OpError struct {
	Op  string
	ID  string
	Err error
}

func (e *OpError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s [id=%s]: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func NewOpError(op, id string, err error) *OpError {
	return &OpError{Op: op, ID: id, Err: err}
}

// Ingestionf builds an ErrIngestion-wrapped error for the given operation.
func Ingestionf(op, format string, args ...any) error {
	return &OpError{Op: op, Err: fmt.Errorf("%w: %s", ErrIngestion, fmt.Sprintf(format, args...))}
}
