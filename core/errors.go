package core

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the engine's error taxonomy. Callers are expected
// to match with errors.Is.
var (
	// ErrNotFound means a referenced user, quest, badge, or progress row
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the operation is not legal in the current
	// state machine state (claim before completion, claim twice).
	ErrInvalidState = errors.New("invalid state")

	// ErrInsufficientPoints is a caller-side precondition failure for
	// point-spending flows. The ledger itself never self-validates
	// sufficiency; purchase flows return this before awarding a negative
	// delta.
	ErrInsufficientPoints = errors.New("insufficient points")
)

// StoreError wraps an underlying persistence failure. The triggering
// transaction is rolled back before it propagates, so retried calls are
// safe to repeat.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err with the failing operation name. Returns nil for
// a nil err so adapters can wrap unconditionally.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
