package translate

import (
	"context"
	"errors"
	"fmt"

	"subforge/internal/services"
)

// FailureKind classifies why an engine call produced no usable output.
type FailureKind int

const (
	ModelUnavailable FailureKind = iota + 1
	LanguageMismatch
	EmptyOutput
	TimedOut
)

func (k FailureKind) String() string {
	switch k {
	case ModelUnavailable:
		return "model_unavailable"
	case LanguageMismatch:
		return "language_mismatch"
	case EmptyOutput:
		return "empty_output"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("failure(%d)", int(k))
	}
}

// EngineError is the only error shape the orchestrator branches on.
type EngineError struct {
	Kind   FailureKind
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Engine, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Engine, e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// AsEngineError converts err into an *EngineError, classifying adapter
// errors by their services marker. Errors already of that type pass through.
func AsEngineError(engine string, err error) *EngineError {
	if err == nil {
		return nil
	}
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr
	}
	kind := ModelUnavailable
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, services.ErrTimeout):
		kind = TimedOut
	case errors.Is(err, ErrEmptyOutput):
		kind = EmptyOutput
	}
	return &EngineError{Kind: kind, Engine: engine, Err: err}
}

// ErrEmptyOutput may be returned by engines that received a well-formed but
// empty reply.
var ErrEmptyOutput = errors.New("engine returned no text")
