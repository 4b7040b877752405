package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RequiredFilters are the ffmpeg filters the dubbing and burn-in paths use.
var RequiredFilters = []string{"atempo", "subtitles", "aresample"}

// CommandOutput runs a command and returns its stdout.
type CommandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)

func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output() //nolint:gosec
}

// CheckFFmpegFilters reports whether the ffmpeg build exposes every filter
// in RequiredFilters. Distribution builds without libass lack "subtitles".
func CheckFFmpegFilters(ctx context.Context, ffmpegCommand string, run CommandOutput) Status {
	result := Status{
		Name:        "FFmpeg filters",
		Command:     strings.TrimSpace(ffmpegCommand),
		Description: strings.Join(RequiredFilters, ", "),
	}
	if result.Command == "" {
		result.Detail = "command not configured"
		return result
	}
	if run == nil {
		run = execOutput
	}
	output, err := run(ctx, result.Command, "-hide_banner", "-filters")
	if err != nil {
		result.Detail = fmt.Sprintf("list filters: %v", err)
		return result
	}

	available := parseFilterNames(output)
	var missing []string
	for _, name := range RequiredFilters {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		result.Detail = "missing filters: " + strings.Join(missing, ", ")
		return result
	}
	result.Available = true
	return result
}

// parseFilterNames reads `ffmpeg -filters` output, whose rows look like
// " T.C atempo            A->A       Adjust audio tempo."
func parseFilterNames(output []byte) map[string]struct{} {
	names := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || !strings.Contains(fields[2], "->") {
			continue
		}
		names[fields[1]] = struct{}{}
	}
	return names
}
