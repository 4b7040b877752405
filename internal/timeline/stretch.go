package timeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Stretcher changes a clip's tempo by ratio in [MinRatio, MaxRatio] without
// changing its pitch. A ratio above 1 shortens the clip.
type Stretcher interface {
	Stretch(ctx context.Context, clip Clip, ratio float64) (Clip, error)
}

// ChainStretcher applies a whole tempo chain in one pass. Synchronizer
// prefers it over repeated Stretch calls when available.
type ChainStretcher interface {
	StretchChain(ctx context.Context, clip Clip, chain []float64) (Clip, error)
}

// AtempoRunner is the ffmpeg capability FFmpegStretcher needs.
type AtempoRunner interface {
	Atempo(ctx context.Context, source, dest string, chain []float64) error
}

// FFmpegStretcher stretches clips with ffmpeg's atempo filter through
// temporary WAV files in WorkDir.
type FFmpegStretcher struct {
	Runner  AtempoRunner
	WorkDir string
}

// Stretch applies a single ratio.
func (s FFmpegStretcher) Stretch(ctx context.Context, clip Clip, ratio float64) (Clip, error) {
	return s.StretchChain(ctx, clip, []float64{ratio})
}

// StretchChain applies every ratio of chain in a single ffmpeg run.
func (s FFmpegStretcher) StretchChain(ctx context.Context, clip Clip, chain []float64) (Clip, error) {
	if len(chain) == 0 {
		return clip, nil
	}
	dir, err := os.MkdirTemp(s.WorkDir, "stretch-")
	if err != nil {
		return Clip{}, fmt.Errorf("stretch workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	if err := WriteClip(in, clip); err != nil {
		return Clip{}, err
	}
	if err := s.Runner.Atempo(ctx, in, out, chain); err != nil {
		return Clip{}, err
	}
	return ReadClip(out)
}
