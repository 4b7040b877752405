// Package cloudtranslate is a per-item client for a Google Translate v2
// compatible REST endpoint. Calls are spaced by a minimum interval so bulk
// fallbacks do not trip the provider's rate limits.
package cloudtranslate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"subforge/internal/language"
	"subforge/internal/services"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMinInterval = 100 * time.Millisecond
)

// Config describes the cloud endpoint.
type Config struct {
	URL            string
	APIKey         string
	TimeoutSeconds int
	MinIntervalMs  int
}

// Client implements translate.ItemEngine.
type Client struct {
	endpoint    string
	apiKey      string
	httpClient  *http.Client
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
}

// New constructs a client.
func New(cfg Config) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	interval := defaultMinInterval
	if cfg.MinIntervalMs > 0 {
		interval = time.Duration(cfg.MinIntervalMs) * time.Millisecond
	}
	return &Client{
		endpoint:    strings.TrimSpace(cfg.URL),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		httpClient:  &http.Client{Timeout: timeout},
		minInterval: interval,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Translate translates a single text.
func (c *Client) Translate(ctx context.Context, text, src, tgt string) (string, error) {
	if c.endpoint == "" {
		return "", services.Wrap(services.ErrConfiguration, "translate", "cloud", "translation.cloud_url is empty", nil)
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("q", text)
	form.Set("target", language.CloudCode(tgt))
	if src != "" {
		form.Set("source", language.CloudCode(src))
	}
	form.Set("format", "text")
	if c.apiKey != "" {
		form.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build cloud request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return "", services.Wrap(services.ErrTimeout, "translate", "cloud", "request timed out", err)
		}
		return "", services.Wrap(services.ErrExternalTool, "translate", "cloud", "request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "translate", "cloud", "read response", err)
	}

	var decoded translateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "translate", "cloud", fmt.Sprintf("http %d: decode response", resp.StatusCode), err)
	}
	if decoded.Error != nil || resp.StatusCode >= http.StatusBadRequest {
		msg := fmt.Sprintf("http %d", resp.StatusCode)
		if decoded.Error != nil {
			msg += ": " + decoded.Error.Message
		}
		return "", services.Wrap(services.ErrExternalTool, "translate", "cloud", msg, nil)
	}
	if len(decoded.Data.Translations) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "translate", "cloud", "no translations in response", nil)
	}
	return html.UnescapeString(decoded.Data.Translations[0].TranslatedText), nil
}

// wait blocks until minInterval has passed since the previous call started.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lastCall.IsZero() {
		if remaining := c.minInterval - c.now().Sub(c.lastCall); remaining > 0 {
			if err := c.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	c.lastCall = c.now()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
