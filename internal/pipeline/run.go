package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/segment"
	"subforge/internal/services"
	"subforge/internal/transcript"
)

// run is the per-invocation state shared by the caption and dub flows.
type run struct {
	id     string
	dir    string
	lock   *runLock
	logger *slog.Logger
	keep   bool
}

func (p *Context) startRun(ctx context.Context, input string, keepWork bool) (context.Context, *run, error) {
	lock, err := p.acquireRunLock(input)
	if err != nil {
		return ctx, nil, err
	}
	id := uuid.NewString()
	ctx = services.WithRunID(ctx, id)
	ctx = services.WithMedia(ctx, filepath.Base(input))

	dir := filepath.Join(p.cfg.Paths.WorkDir, "runs", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		lock.release()
		return ctx, nil, services.Wrap(services.ErrConfiguration, "run", "work dir", dir, err)
	}
	r := &run{id: id, dir: dir, lock: lock, keep: keepWork, logger: logging.WithContext(ctx, p.logger)}
	r.logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("input", input),
		logging.String("work_dir", dir),
	)
	return ctx, r, nil
}

func (r *run) close() {
	if !r.keep {
		if err := os.RemoveAll(r.dir); err != nil {
			r.logger.Warn("failed to remove run directory", logging.String("path", r.dir), logging.Error(err))
		}
	}
	r.lock.release()
}

// source describes where the speech segments come from.
type source struct {
	MediaPath      string
	TranscriptPath string
	Language       string
}

func (s source) input() string {
	if s.MediaPath != "" {
		return s.MediaPath
	}
	return s.TranscriptPath
}

func (s source) validate() error {
	if strings.TrimSpace(s.MediaPath) == "" && strings.TrimSpace(s.TranscriptPath) == "" {
		return services.Wrap(services.ErrValidation, "run", "input", "a media file or transcript JSON is required", nil)
	}
	return nil
}

// transcribed is the output of the transcribe stage.
type transcribed struct {
	Segments []segment.Segment
	Language string
	Report   transcript.Report
}

// mediaSeconds returns the input duration for progress planning. Probe
// failures are logged and fall back to zero (the plan's minimum applies).
func (p *Context) mediaSeconds(ctx context.Context, src source) float64 {
	if src.MediaPath == "" || p.media == nil {
		return 0
	}
	seconds, err := p.media.Duration(ctx, src.MediaPath)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "media probe failed", "probe_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ffprobe is installed"),
			logging.String(logging.FieldImpact, "progress estimates use the minimum media duration"),
		)
		return 0
	}
	return seconds
}

// transcribe loads or produces the transcript and cuts it into caption units.
func (p *Context) transcribe(ctx context.Context, logger *slog.Logger, r *run, src source) (transcribed, error) {
	var doc transcript.Transcript
	if src.TranscriptPath != "" {
		loaded, err := transcript.Load(src.TranscriptPath)
		if err != nil {
			return transcribed{}, services.Wrap(services.ErrValidation, "transcribe", "load transcript", src.TranscriptPath, err)
		}
		doc = loaded
	} else {
		if p.media == nil {
			return transcribed{}, services.Wrap(services.ErrConfiguration, "transcribe", "extract audio", "ffmpeg is not configured", nil)
		}
		if p.asr == nil {
			return transcribed{}, services.Wrap(services.ErrConfiguration, "transcribe", "recognize", "speech recognizer is not configured", nil)
		}
		audio := filepath.Join(r.dir, "audio.wav")
		if err := p.media.ExtractAudio(ctx, src.MediaPath, audio); err != nil {
			return transcribed{}, err
		}
		recognized, err := p.asr.Transcribe(ctx, audio, src.Language)
		if err != nil {
			return transcribed{}, err
		}
		doc = recognized
	}

	segs, report, err := transcript.Segmentize(ctx, doc, p.filter, p.splitter, logger)
	if err != nil {
		return transcribed{}, services.Wrap(services.ErrValidation, "transcribe", "segmentize", "no speech survived filtering", err)
	}

	lang := language.ToISO2(src.Language)
	if lang == "" {
		lang = language.ToISO2(doc.Language)
	}
	if lang == "" {
		return transcribed{}, services.Wrap(services.ErrValidation, "transcribe", "language", "source language unknown; pass --source", nil)
	}
	logger.Info("transcript ready",
		logging.String("language", lang),
		logging.Int("raw_segments", report.RawSegments),
		logging.Int("units", len(segs)),
		logging.Int("removed", len(report.Removed)),
	)
	return transcribed{Segments: segs, Language: lang, Report: report}, nil
}
