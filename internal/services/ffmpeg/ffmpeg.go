// Package ffmpeg wraps the ffmpeg and ffprobe binaries for the media steps of
// the caption and dub pipelines: audio extraction, format normalisation,
// pitch-preserving time stretch, subtitle burn-in, and remuxing.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"subforge/internal/services"
)

// Runner executes a binary and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Config names the binaries.
type Config struct {
	FFmpegBinary  string
	FFprobeBinary string
}

// Client runs ffmpeg commands.
type Client struct {
	ffmpeg  string
	ffprobe string
	run     Runner
}

// Option customises a Client.
type Option func(*Client)

// WithRunner replaces process execution, mainly for tests.
func WithRunner(run Runner) Option {
	return func(c *Client) {
		if run != nil {
			c.run = run
		}
	}
}

// New constructs a client. Empty binary names fall back to ffmpeg/ffprobe on PATH.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		ffmpeg:  strings.TrimSpace(cfg.FFmpegBinary),
		ffprobe: strings.TrimSpace(cfg.FFprobeBinary),
		run:     execRunner,
	}
	if c.ffmpeg == "" {
		c.ffmpeg = "ffmpeg"
	}
	if c.ffprobe == "" {
		c.ffprobe = "ffprobe"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary returns the ffmpeg binary name.
func (c *Client) Binary() string { return c.ffmpeg }

// ExtractAudio writes the first audio stream of source as a mono 16 kHz
// 16-bit WAV suitable for ASR.
func (c *Client) ExtractAudio(ctx context.Context, source, dest string) error {
	return c.ffmpegRun(ctx, "extract audio",
		"-i", source,
		"-map", "0:a:0",
		"-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	)
}

// Normalize converts any audio file to mono 16-bit PCM WAV at sampleRate.
func (c *Client) Normalize(ctx context.Context, source, dest string, sampleRate int) error {
	if sampleRate <= 0 {
		return services.Wrap(services.ErrValidation, "ffmpeg", "normalize", fmt.Sprintf("invalid sample rate %d", sampleRate), nil)
	}
	return c.ffmpegRun(ctx, "normalize",
		"-i", source,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		dest,
	)
}

// Atempo applies a chain of atempo filters. Every ratio must lie in
// [0.5, 2.0]; the output keeps the input's pitch.
func (c *Client) Atempo(ctx context.Context, source, dest string, chain []float64) error {
	filter, err := AtempoFilter(chain)
	if err != nil {
		return err
	}
	return c.ffmpegRun(ctx, "atempo",
		"-i", source,
		"-af", filter,
		"-c:a", "pcm_s16le",
		dest,
	)
}

// AtempoFilter renders chain as an ffmpeg filter graph, e.g.
// "atempo=2.000000,atempo=1.500000". An empty chain yields atempo=1.0.
func AtempoFilter(chain []float64) (string, error) {
	if len(chain) == 0 {
		return "atempo=1.0", nil
	}
	parts := make([]string, 0, len(chain))
	for _, ratio := range chain {
		if ratio < 0.5 || ratio > 2.0 {
			return "", services.Wrap(services.ErrValidation, "ffmpeg", "atempo", fmt.Sprintf("ratio %.6f outside [0.5, 2.0]", ratio), nil)
		}
		parts = append(parts, "atempo="+strconv.FormatFloat(ratio, 'f', 6, 64))
	}
	return strings.Join(parts, ","), nil
}

// BurnSubtitles renders subtitlePath into the video frames of source.
func (c *Client) BurnSubtitles(ctx context.Context, source, subtitlePath, dest string) error {
	return c.ffmpegRun(ctx, "burn subtitles",
		"-i", source,
		"-vf", "subtitles="+escapeFilterPath(subtitlePath),
		"-c:a", "copy",
		dest,
	)
}

// MuxAudio replaces the audio of video with audioPath. The result ends with
// the shorter of the two inputs.
func (c *Client) MuxAudio(ctx context.Context, video, audioPath, dest string) error {
	return c.ffmpegRun(ctx, "mux audio",
		"-i", video,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		dest,
	)
}

func (c *Client) ffmpegRun(ctx context.Context, operation string, args ...string) error {
	full := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	output, err := c.run(ctx, c.ffmpeg, full...)
	if err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTimeout, "ffmpeg", operation, "", ctx.Err())
		}
		return services.Wrap(services.ErrExternalTool, "ffmpeg", operation, strings.TrimSpace(string(output)), err)
	}
	return nil
}

// escapeFilterPath quotes a path for use inside an ffmpeg filter argument.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`)
	return "'" + replacer.Replace(path) + "'"
}
