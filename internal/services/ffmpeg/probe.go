package ffmpeg

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"subforge/internal/services"
)

// ProbeResult is the subset of ffprobe output the pipeline reads.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one container stream.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
}

// Format holds container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Probe runs ffprobe against path.
func (c *Client) Probe(ctx context.Context, path string) (ProbeResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ProbeResult{}, services.Wrap(services.ErrValidation, "ffprobe", "inspect", "empty path", nil)
	}
	output, err := c.run(ctx, c.ffprobe, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return ProbeResult{}, services.Wrap(services.ErrExternalTool, "ffprobe", "inspect", strings.TrimSpace(string(output)), err)
	}
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return ProbeResult{}, services.Wrap(services.ErrExternalTool, "ffprobe", "parse", "", err)
	}
	return result, nil
}

// Duration returns the container duration of path in seconds.
func (c *Client) Duration(ctx context.Context, path string) (float64, error) {
	result, err := c.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds(), nil
}

// DurationSeconds returns the container duration, falling back to the longest
// stream duration. Zero when unknown.
func (r ProbeResult) DurationSeconds() float64 {
	if d := parseSeconds(r.Format.Duration); d > 0 {
		return d
	}
	var longest float64
	for _, stream := range r.Streams {
		longest = math.Max(longest, parseSeconds(stream.Duration))
	}
	return longest
}

// HasVideo reports whether any stream is video.
func (r ProbeResult) HasVideo() bool {
	return r.count("video") > 0
}

// HasAudio reports whether any stream is audio.
func (r ProbeResult) HasAudio() bool {
	return r.count("audio") > 0
}

func (r ProbeResult) count(kind string) int {
	n := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			n++
		}
	}
	return n
}

func parseSeconds(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 {
		return 0
	}
	return parsed
}
