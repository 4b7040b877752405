// Package tts is a client for a local multilingual text-to-speech server
// (an XTTS-style HTTP wrapper). The server receives text, a language code,
// and an optional speaker reference clip and answers with a WAV body.
package tts

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

const (
	defaultTimeout = 120 * time.Second
	// maxAudioBytes bounds a single synthesized clip (about 20 min of 24 kHz mono PCM).
	maxAudioBytes = 64 << 20
)

// Config describes the TTS endpoint.
type Config struct {
	URL            string
	TimeoutSeconds int
}

// Client synthesizes speech over HTTP.
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

type synthRequest struct {
	Text       string `json:"text"`
	Language   string `json:"language"`
	SpeakerWav string `json:"speaker_wav,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Synthesize returns WAV bytes for text spoken in lang. speakerRef is a path
// on the server host to a reference voice clip; empty uses the server default.
func (c *Client) Synthesize(ctx context.Context, text, lang, speakerRef string) ([]byte, error) {
	if c.url == "" {
		return nil, services.Wrap(services.ErrConfiguration, "synthesize", "tts", "dubbing.tts_url is empty", nil)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "synthesize", "tts", "text is empty", nil)
	}
	body, err := json.Marshal(synthRequest{Text: text, Language: lang, SpeakerWav: speakerRef})
	if err != nil {
		return nil, fmt.Errorf("encode tts request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "synthesize", "tts", "read response", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var decoded errorResponse
		msg := strings.TrimSpace(string(payload))
		if json.Unmarshal(payload, &decoded) == nil && decoded.Error != "" {
			msg = decoded.Error
		}
		marker := services.ErrExternalTool
		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests {
			marker = services.ErrTransient
		}
		return nil, services.Wrap(marker, "synthesize", "tts", fmt.Sprintf("http %d", resp.StatusCode), errors.New(msg))
	}
	if len(payload) > maxAudioBytes {
		return nil, services.Wrap(services.ErrExternalTool, "synthesize", "tts", "audio exceeds size limit", nil)
	}
	if len(payload) < 12 || string(payload[:4]) != "RIFF" || string(payload[8:12]) != "WAVE" {
		return nil, services.Wrap(services.ErrExternalTool, "synthesize", "tts", "response is not a WAV file", nil)
	}
	return payload, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return services.Wrap(services.ErrTimeout, "synthesize", "tts", "request timed out", err)
	}
	return services.Wrap(services.ErrExternalTool, "synthesize", "tts", "unreachable", err)
}
