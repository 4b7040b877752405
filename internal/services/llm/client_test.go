package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func replyWith(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestCompleteSendsSamplingParameters(t *testing.T) {
	var got chatCompletionRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		replyWith(t, "  Bună ziua  ")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	text, err := client.Complete(context.Background(), Request{
		Model:       "gemma3:27b",
		System:      "You are a translation reviewer.",
		User:        "Check this.",
		Temperature: 0.3,
		TopP:        0.9,
		MaxTokens:   256,
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if text != "Bună ziua" {
		t.Fatalf("expected trimmed content, got %q", text)
	}
	if auth != "" {
		t.Fatalf("expected no Authorization header without key, got %q", auth)
	}
	if got.Model != "gemma3:27b" || got.Temperature != 0.3 || got.TopP != 0.9 || got.MaxTokens != 256 || got.Stream {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "Check this." {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestCompleteSendsBearerWhenKeySet(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		replyWith(t, "ok")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: " secret ", BaseURL: server.URL})
	if _, err := client.Complete(context.Background(), Request{Model: "m", User: "hi"}); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected Authorization header %q", auth)
	}
}

func TestCompleteRequiresModelAndPrompt(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.Complete(context.Background(), Request{User: "x"}); err == nil {
		t.Fatal("expected error without model")
	}
	if _, err := client.Complete(context.Background(), Request{Model: "m", User: "  "}); err == nil {
		t.Fatal("expected error without user prompt")
	}
}

func TestCompleteAcceptsDeltaAndLegacyText(t *testing.T) {
	tests := []struct {
		name   string
		choice map[string]any
	}{
		{"delta", map[string]any{"delta": map[string]any{"content": "salut"}}},
		{"legacy text", map[string]any{"text": "salut", "finish_reason": "stop"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{tt.choice}})
			}))
			defer server.Close()

			text, err := NewClient(Config{BaseURL: server.URL}).Complete(context.Background(), Request{Model: "m", User: "hi"})
			if err != nil {
				t.Fatalf("Complete returned error: %v", err)
			}
			if text != "salut" {
				t.Fatalf("expected salut, got %q", text)
			}
		})
	}
}

func TestCompleteEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(replyWith(t, ""))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, WithRetryBackoff(0, 0), WithSleeper(func(time.Duration) {}))
	_, err := client.Complete(context.Background(), Request{Model: "m", User: "hi"})
	if err == nil {
		t.Fatal("expected empty completion to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestCompleteRetriesOnHTTP429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		replyWith(t, "ok")(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(3),
	)
	if _, err := client.Complete(context.Background(), Request{Model: "m", User: "hi"}); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	_, err := client.Complete(context.Background(), Request{Model: "missing", User: "hi"})
	if err == nil || !strings.Contains(err.Error(), "http 404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(replyWith(t, "ok"))
	defer server.Close()

	if err := NewClient(Config{BaseURL: server.URL}).HealthCheck(context.Background(), "m"); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(500*time.Millisecond, 2*time.Second))
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 2 * time.Second}
	for i, expected := range want {
		if got := client.backoffDelay(i + 1); got != expected {
			t.Fatalf("attempt %d: got %v want %v", i+1, got, expected)
		}
	}
}
