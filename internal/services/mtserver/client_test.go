package mtserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"subforge/internal/services"
)

func TestTranslateBatch(t *testing.T) {
	var got batchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"translations": []string{"Salut", "Lume"}})
	}))
	defer server.Close()

	client := New(Config{URL: server.URL})
	out, err := client.TranslateBatch(context.Background(), "Helsinki-NLP/opus-mt-en-ro", []string{"Hello", "World"}, "en", "ro")
	if err != nil {
		t.Fatalf("TranslateBatch returned error: %v", err)
	}
	if len(out) != 2 || out[0] != "Salut" || out[1] != "Lume" {
		t.Fatalf("unexpected translations %q", out)
	}
	if got.Model != "Helsinki-NLP/opus-mt-en-ro" || got.Source != "en" || got.Target != "ro" || len(got.Texts) != 2 {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestTranslateBatchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		marker error
	}{
		{"missing model", http.StatusNotFound, `{"error":"unknown model"}`, services.ErrNotFound},
		{"server error", http.StatusInternalServerError, `oops`, services.ErrExternalTool},
		{"no translations", http.StatusOK, `{}`, services.ErrExternalTool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(Config{URL: server.URL}).TranslateBatch(context.Background(), "m", []string{"x"}, "en", "ro")
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestTranslateBatchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(Config{URL: url}).TranslateBatch(context.Background(), "m", []string{"x"}, "en", "ro")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestTranslateBatchRequiresURL(t *testing.T) {
	_, err := New(Config{}).TranslateBatch(context.Background(), "m", []string{"x"}, "en", "ro")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
