package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrTimeout is returned when an operation exceeds its time bound.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrPanic wraps a recovered panic from a guarded operation.
	ErrPanic = errors.New("resilience: operation panicked")
)
