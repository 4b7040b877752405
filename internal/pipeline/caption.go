package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"subforge/internal/fileutil"
	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/optimize"
	"subforge/internal/progress"
	"subforge/internal/render"
	"subforge/internal/segment"
	"subforge/internal/services"
	"subforge/internal/translate"
	"subforge/internal/validation"
)

// CaptionRequest describes one caption run. Exactly one of MediaPath and
// TranscriptPath is normally set; when both are, the transcript is used for
// speech and the media only for burn-in.
type CaptionRequest struct {
	MediaPath      string
	TranscriptPath string
	// Source may be empty to use the recognizer's detected language.
	Source    string
	Target    string
	Format    render.Format
	OutputDir string
	Validate  bool
	Double    bool
	BurnIn    bool
	KeepWork  bool
}

// CaptionResult reports the outputs of a caption run.
type CaptionResult struct {
	RunID            string
	SubtitlePath     string
	VideoPath        string
	SegmentCount     int
	DetectedLanguage string
	AvgConfidence    float64
	Strategy         translate.Strategy
	Filtered         int
	Validation       *validation.Report
	Duration         time.Duration
}

// Caption transcribes, translates, optionally validates, and renders a
// caption track, then optionally burns it into the video.
func (p *Context) Caption(ctx context.Context, req CaptionRequest) (CaptionResult, error) {
	src := source{MediaPath: req.MediaPath, TranscriptPath: req.TranscriptPath, Language: req.Source}
	if err := src.validate(); err != nil {
		return CaptionResult{}, err
	}
	target := language.ToISO2(req.Target)
	if target == "" {
		return CaptionResult{}, services.Wrap(services.ErrValidation, "caption", "target", "target language required", nil)
	}
	if req.BurnIn && req.MediaPath == "" {
		return CaptionResult{}, services.Wrap(services.ErrValidation, "caption", "burn-in", "burn-in needs the media file", nil)
	}
	validate := req.Validate || req.Double
	if validate && p.validator == nil {
		return CaptionResult{}, services.Wrap(services.ErrConfiguration, "caption", "validation", "no LLM endpoint configured", nil)
	}
	format := req.Format
	if format == "" {
		parsed, err := render.ParseFormat(p.cfg.Captions.Format)
		if err != nil {
			return CaptionResult{}, services.Wrap(services.ErrConfiguration, "caption", "format", "", err)
		}
		format = parsed
	}
	outDir, err := p.outputDir(req.OutputDir, src.input())
	if err != nil {
		return CaptionResult{}, err
	}

	started := time.Now()
	ctx, r, err := p.startRun(ctx, src.input(), req.KeepWork)
	if err != nil {
		return CaptionResult{}, err
	}
	defer r.close()

	plan := progress.NewPlan(p.mediaSeconds(ctx, src), p.multipliers, progress.Mode{Validate: validate, Burn: req.BurnIn})
	tracker := p.newTracker(plan)
	result := CaptionResult{RunID: r.id}

	var units transcribed
	if err := p.runStage(ctx, tracker, progress.StageTranscribe, func(ctx context.Context, logger *slog.Logger) error {
		var err error
		units, err = p.transcribe(ctx, logger, r, src)
		return err
	}); err != nil {
		return result, err
	}
	result.DetectedLanguage = units.Language
	result.Filtered = len(units.Report.Removed)
	result.Strategy = p.translator.Strategy(units.Language, target)

	segs := units.Segments
	if err := p.runStage(ctx, tracker, progress.StageTranslate, func(ctx context.Context, _ *slog.Logger) error {
		segs = p.translator.TranslateSegments(ctx, segs, units.Language, target, func(done, total int) {
			emitWithin(tracker, plan, progress.StageTranslate, done, total, "translating")
		})
		return nil
	}); err != nil {
		return result, err
	}

	if validate {
		var report validation.Report
		if err := p.runStage(ctx, tracker, progress.StageValidate, func(ctx context.Context, _ *slog.Logger) error {
			if req.Double {
				segs, report = p.validator.DoubleValidate(ctx, segs, units.Language, target)
			} else {
				segs, report = p.validator.ValidateSegments(ctx, segs, units.Language, target)
			}
			return ctx.Err()
		}); err != nil {
			return result, err
		}
		result.Validation = &report
	}

	name := SubtitleName(src.input(), units.Language, target, validate, req.Double, format)
	subtitlePath := filepath.Join(outDir, name)
	if err := p.runStage(ctx, tracker, progress.StageRender, func(_ context.Context, logger *slog.Logger) error {
		segs = optimize.Optimize(segs, p.optimize)
		if err := render.WriteFile(subtitlePath, segs, format, p.renderOpts); err != nil {
			return fmt.Errorf("write captions %s: %w", subtitlePath, err)
		}
		logger.Info("captions written",
			logging.String("path", subtitlePath),
			logging.Int("segments", len(segs)),
			logging.String("format", string(format)),
		)
		return nil
	}); err != nil {
		return result, err
	}
	result.SubtitlePath = subtitlePath
	result.SegmentCount = len(segs)
	result.AvgConfidence = segment.AverageConfidence(segs)

	if req.BurnIn {
		videoPath := filepath.Join(outDir, BurnedName(req.MediaPath, target))
		if err := p.runStage(ctx, tracker, progress.StageBurn, func(ctx context.Context, _ *slog.Logger) error {
			return p.burn(ctx, r, req.MediaPath, subtitlePath, videoPath)
		}); err != nil {
			return result, err
		}
		result.VideoPath = videoPath
	}

	result.Duration = time.Since(started)
	tracker.Finish(filepath.Base(subtitlePath))
	r.logger.Info("caption run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("subtitle", subtitlePath),
		logging.String("video", result.VideoPath),
		logging.Int("segments", result.SegmentCount),
		logging.Float64("avg_confidence", result.AvgConfidence),
		logging.Duration("elapsed", result.Duration),
	)
	return result, nil
}

func (p *Context) burn(ctx context.Context, r *run, mediaPath, subtitlePath, dest string) error {
	if p.media == nil {
		return services.Wrap(services.ErrConfiguration, "burn", "ffmpeg", "ffmpeg is not configured", nil)
	}
	staged := filepath.Join(r.dir, "burned"+strings.ToLower(filepath.Ext(dest)))
	if err := p.media.BurnSubtitles(ctx, mediaPath, subtitlePath, staged); err != nil {
		return err
	}
	return fileutil.Publish(staged, dest)
}
