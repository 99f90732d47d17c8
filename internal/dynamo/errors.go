package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a parameter rejected at initialization.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnknownMode indicates a motion model name that is not supported.
	ErrUnknownMode = errors.New("dynamo: unknown mode")

	// ErrInvalidState indicates a particle set holding NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// ConfigError names the offending parameter of a rejected configuration.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s = %v: %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
