package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/optimize"
	"subforge/internal/progress"
	"subforge/internal/render"
	"subforge/internal/segment"
	"subforge/internal/services"
	"subforge/internal/validation"
)

// TranslateFileRequest translates an existing SRT file.
type TranslateFileRequest struct {
	Path      string
	Source    string
	Target    string
	Format    render.Format
	OutputDir string
	Validate  bool
	Double    bool
}

// TranslateFileResult reports a subtitle translation run.
type TranslateFileResult struct {
	RunID         string
	SubtitlePath  string
	SegmentCount  int
	Skipped       int
	Adverts       int
	AvgConfidence float64
	Validation    *validation.Report
	Duration      time.Duration
}

// TranslateFile parses cues from an SRT file, translates them, and renders
// the result with the usual optimizer pass. Cue timing comes from the file.
func (p *Context) TranslateFile(ctx context.Context, req TranslateFileRequest) (TranslateFileResult, error) {
	src, tgt := language.ToISO2(req.Source), language.ToISO2(req.Target)
	if src == "" || tgt == "" {
		return TranslateFileResult{}, services.Wrap(services.ErrValidation, "translate", "languages", "source and target languages are required", nil)
	}
	validate := req.Validate || req.Double
	if validate && p.validator == nil {
		return TranslateFileResult{}, services.Wrap(services.ErrConfiguration, "translate", "validation", "no LLM endpoint configured", nil)
	}
	format := req.Format
	if format == "" {
		format = render.FormatSRT
	}

	file, err := os.Open(req.Path)
	if err != nil {
		return TranslateFileResult{}, services.Wrap(services.ErrNotFound, "translate", "open subtitles", req.Path, err)
	}
	parsed, err := render.ParseSRT(file)
	file.Close()
	if err != nil {
		return TranslateFileResult{}, services.Wrap(services.ErrValidation, "translate", "parse subtitles", req.Path, err)
	}
	if len(parsed.Segments) == 0 {
		return TranslateFileResult{}, services.Wrap(services.ErrValidation, "translate", "parse subtitles", "no cues found in "+req.Path, nil)
	}
	outDir, err := p.outputDir(req.OutputDir, req.Path)
	if err != nil {
		return TranslateFileResult{}, err
	}

	started := time.Now()
	ctx, r, err := p.startRun(ctx, req.Path, false)
	if err != nil {
		return TranslateFileResult{}, err
	}
	defer r.close()

	plan := progress.NewPlan(segment.End(parsed.Segments), p.multipliers, progress.Mode{Validate: validate})
	tracker := p.newTracker(plan)
	result := TranslateFileResult{RunID: r.id, Skipped: parsed.Skipped, Adverts: parsed.Adverts}

	segs := parsed.Segments
	if err := p.runStage(ctx, tracker, progress.StageTranslate, func(ctx context.Context, _ *slog.Logger) error {
		segs = p.translator.TranslateSegments(ctx, segs, src, tgt, func(done, total int) {
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
				segs, report = p.validator.DoubleValidate(ctx, segs, src, tgt)
			} else {
				segs, report = p.validator.ValidateSegments(ctx, segs, src, tgt)
			}
			return ctx.Err()
		}); err != nil {
			return result, err
		}
		result.Validation = &report
	}

	path := filepath.Join(outDir, SubtitleName(req.Path, src, tgt, validate, req.Double, format))
	if err := p.runStage(ctx, tracker, progress.StageRender, func(_ context.Context, _ *slog.Logger) error {
		segs = optimize.Optimize(segs, p.optimize)
		return render.WriteFile(path, segs, format, p.renderOpts)
	}); err != nil {
		return result, fmt.Errorf("write captions %s: %w", path, err)
	}

	result.SubtitlePath = path
	result.SegmentCount = len(segs)
	result.AvgConfidence = segment.AverageConfidence(segs)
	result.Duration = time.Since(started)
	tracker.Finish(filepath.Base(path))
	r.logger.Info("subtitle translation complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("subtitle", path),
		logging.Int("segments", result.SegmentCount),
		logging.Int("skipped_blocks", result.Skipped),
		logging.Int("adverts", result.Adverts),
	)
	return result, nil
}
