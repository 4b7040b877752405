package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"subforge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "dub", "mux", "failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"dub", "mux", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{services.Wrap(services.ErrValidation, "caption", "input", "missing", nil), 2},
		{services.Wrap(services.ErrConfiguration, "config", "", "bad", nil), 2},
		{services.Wrap(services.ErrExternalTool, "ffmpeg", "extract", "exit 1", nil), 1},
		{errors.New("plain"), 1},
	}
	for _, tt := range tests {
		if got := services.ExitCode(tt.err); got != tt.want {
			t.Fatalf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHintFollowsWrappedMarker(t *testing.T) {
	base := services.Wrap(services.ErrTimeout, "transcribe", "whisper", "deadline", nil)
	err := fmt.Errorf("caption: %w", base)
	var stageErr *services.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "transcribe" {
		t.Fatalf("expected StageError with stage transcribe, got %v", err)
	}
	if !strings.Contains(services.Hint(err), "timeout_seconds") {
		t.Fatalf("unexpected hint %q", services.Hint(err))
	}
	if services.Hint(errors.New("plain")) != "" {
		t.Fatal("expected no hint for plain errors")
	}
	if got := base.Error(); got != "timeout: transcribe: whisper: deadline" {
		t.Fatalf("unexpected message %q", got)
	}
}
