package netfsm

import "errors"

// Domain-specific errors for state machine construction.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMissingDependency is returned when a layer or the clock is nil.
	ErrMissingDependency = errors.New("netfsm: missing dependency")

	// ErrInvalidConfig is returned when the cycle configuration is unusable.
	ErrInvalidConfig = errors.New("netfsm: invalid config")
)
