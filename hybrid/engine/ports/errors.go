package engineports

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable reports that the requested model is not loaded, still
// warming up, or temporarily fenced off by its circuit breaker. Chat and code
// models fail independently.
var ErrModelUnavailable = errors.New("inference model not available")

// ErrInputRejected reports that sanitization removed the entire input.
var ErrInputRejected = errors.New("input rejected by sanitizer")

// GenerationError wraps a failure inside an inference call.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on %s model: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
