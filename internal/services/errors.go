package services

import (
	"errors"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// StageError carries the pipeline stage and operation that failed alongside
// a classification marker and the underlying cause.
type StageError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

func (e *StageError) Error() string {
	msg := e.Marker.Error() + ": " + e.detail()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Err}
}

func (e *StageError) detail() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{e.Stage, e.Operation, e.Message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Wrap tags err with marker and the stage/operation it happened in. marker
// should be one of the sentinels above; nil means ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &StageError{Marker: marker, Stage: stage, Operation: operation, Message: message, Err: err}
}

// ExitCode maps a pipeline error to a process exit status: 2 for input and
// configuration problems, 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return 2
	default:
		return 1
	}
}

// Hint suggests what the operator should check for err, or "" when there is
// nothing specific to say.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "review the config file (subforge config show) and the doctor output"
	case errors.Is(err, ErrNotFound):
		return "check the input path and the configured model names"
	case errors.Is(err, ErrTimeout):
		return "raise the matching *_timeout_seconds setting or use a smaller model"
	case errors.Is(err, ErrExternalTool):
		return "run subforge doctor to check ffmpeg, the recognizer, and service endpoints"
	case errors.Is(err, ErrTransient):
		return "retry; the service reported it was busy"
	default:
		return ""
	}
}
