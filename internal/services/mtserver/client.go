// Package mtserver talks to a local HTTP server hosting bilingual MarianMT
// style models. The server loads models lazily by name and keeps them
// resident, so the client only sends the model ID with each batch.
package mtserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"subforge/internal/services"
)

const defaultTimeout = 120 * time.Second

// Config describes the model server endpoint.
type Config struct {
	URL            string
	TimeoutSeconds int
}

// Client implements translate.BatchEngine over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// New constructs a client.
func New(cfg Config) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		url:        strings.TrimSpace(cfg.URL),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type batchRequest struct {
	Model  string   `json:"model"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Texts  []string `json:"texts"`
}

type batchResponse struct {
	Translations []string `json:"translations"`
	Error        string   `json:"error"`
}

// TranslateBatch sends texts to the server for translation with model.
func (c *Client) TranslateBatch(ctx context.Context, model string, texts []string, src, tgt string) ([]string, error) {
	if c.url == "" {
		return nil, services.Wrap(services.ErrConfiguration, "translate", "model server", "translation.model_server_url is empty", nil)
	}
	body, err := json.Marshal(batchRequest{Model: model, Source: src, Target: tgt, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("encode model request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(model, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "model server", "read response", err)
	}

	var decoded batchResponse
	_ = json.Unmarshal(payload, &decoded)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "translate", "model server", "model "+model+" not available", errors.New(strings.TrimSpace(decoded.Error)))
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, services.Wrap(services.ErrExternalTool, "translate", "model server", fmt.Sprintf("http %d", resp.StatusCode), errors.New(strings.TrimSpace(string(payload))))
	}
	if decoded.Translations == nil {
		return nil, services.Wrap(services.ErrExternalTool, "translate", "model server", "response has no translations field", nil)
	}
	return decoded.Translations, nil
}

// Ping checks that the server answers at all.
func (c *Client) Ping(ctx context.Context) error {
	if c.url == "" {
		return services.Wrap(services.ErrConfiguration, "translate", "model server", "url not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError("", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return services.Wrap(services.ErrExternalTool, "translate", "model server", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	return nil
}

func classifyTransportError(model string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return services.Wrap(services.ErrTimeout, "translate", "model server", model, err)
	}
	return services.Wrap(services.ErrExternalTool, "translate", "model server", "unreachable", err)
}
