package reconciler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks notifications that can never succeed on retry.
	// Callers acknowledge them.
	ErrInvalidInput = errors.New("invalid notification")
	// ErrRecordNotFound is returned by lookups. Reconcile reports a missing
	// payment as OutcomeNotFound instead.
	ErrRecordNotFound = errors.New("payment record not found")
	// ErrStorageFailure means state may be half written; callers must let
	// the processor retry.
	ErrStorageFailure = errors.New("storage failure")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func storageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}
