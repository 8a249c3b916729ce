package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrStore      = errors.New("store failure")

	ErrAlreadySold  = fmt.Errorf("entry already sold: %w", ErrConflict)
	ErrEntrySold    = fmt.Errorf("entry is sold and cannot be deleted: %w", ErrConflict)
	ErrEmailTaken   = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrSelfPurchase = fmt.Errorf("seller cannot buy own entry: %w", ErrConflict)
)

// OpError wraps an unclassified failure of the underlying database.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return target == ErrStore }

// Validationf returns an error that matches ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindStore      Kind = "store"
)

// KindOf classifies err. Anything outside the taxonomy is a store failure.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindStore
	}
}
