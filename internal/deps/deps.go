// Package deps reports whether the external tools and services subforge
// drives are reachable. The doctor command renders these results.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"subforge/internal/config"
)

// Requirement defines an external dependency subforge relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries named by cfg. The recognizer is optional
// because captioning can start from a transcript JSON.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.ASR.FFmpegBinary, Description: "Audio extraction, atempo, burn-in, mux"},
		{Name: "FFprobe", Command: cfg.ASR.FFprobeBinary, Description: "Media duration for progress estimates"},
		{Name: "Whisper", Command: cfg.ASR.WhisperBinary, Description: "Speech recognition", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Healthy reports whether every required dependency is available.
func Healthy(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			return false
		}
	}
	return true
}
