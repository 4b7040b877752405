package deps

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const endpointTimeout = 5 * time.Second

// Endpoint is an HTTP collaborator checked by doctor.
type Endpoint struct {
	Name     string
	URL      string
	Optional bool
}

// CheckEndpoints probes each endpoint with a GET. Any HTTP answer below 500
// counts as reachable since most endpoints only accept POST.
func CheckEndpoints(ctx context.Context, client *http.Client, endpoints []Endpoint) []Status {
	if client == nil {
		client = &http.Client{Timeout: endpointTimeout}
	}
	results := make([]Status, 0, len(endpoints))
	for _, ep := range endpoints {
		status := Status{
			Name:        ep.Name,
			Command:     strings.TrimSpace(ep.URL),
			Description: "HTTP endpoint",
			Optional:    ep.Optional,
		}
		if status.Command == "" {
			status.Detail = "url not configured"
			results = append(results, status)
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, status.Command, nil)
		if err != nil {
			status.Detail = err.Error()
			results = append(results, status)
			continue
		}
		resp, err := client.Do(req)
		if err != nil {
			status.Detail = "unreachable"
			results = append(results, status)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			status.Detail = fmt.Sprintf("http %d", resp.StatusCode)
		} else {
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}
