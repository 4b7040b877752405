package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subforge/internal/fileutil"
	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/optimize"
	"subforge/internal/progress"
	"subforge/internal/segment"
	"subforge/internal/services"
	"subforge/internal/timeline"
)

// DubRequest describes one dubbing run.
type DubRequest struct {
	MediaPath string
	// TranscriptPath skips recognition when set.
	TranscriptPath   string
	Source           string
	Target           string
	OutputDir        string
	SpeakerReference string
	KeepWork         bool
}

// DubResult reports the outputs of a dubbing run.
type DubResult struct {
	RunID            string
	VideoPath        string
	AudioPath        string
	DetectedLanguage string
	Segments         int
	Synthesized      int
	Skipped          int
	Failed           int
	Stretched        int
	Padded           int
	Trimmed          int
	Overlaps         int
	Duration         time.Duration
}

// Dub transcribes and translates speech, synthesizes each segment, fits it
// into the original segment's slot, and muxes the assembled track with the
// source video.
func (p *Context) Dub(ctx context.Context, req DubRequest) (DubResult, error) {
	if strings.TrimSpace(req.MediaPath) == "" {
		return DubResult{}, services.Wrap(services.ErrValidation, "dub", "input", "a media file is required", nil)
	}
	target := language.ToISO2(req.Target)
	if target == "" {
		return DubResult{}, services.Wrap(services.ErrValidation, "dub", "target", "target language required", nil)
	}
	if p.tts == nil {
		return DubResult{}, services.Wrap(services.ErrConfiguration, "dub", "tts", "dubbing.tts_url is not configured", nil)
	}
	if p.media == nil {
		return DubResult{}, services.Wrap(services.ErrConfiguration, "dub", "ffmpeg", "ffmpeg is not configured", nil)
	}
	speaker := req.SpeakerReference
	if speaker == "" {
		speaker = p.cfg.Dubbing.SpeakerReference
	}
	outDir, err := p.outputDir(req.OutputDir, req.MediaPath)
	if err != nil {
		return DubResult{}, err
	}

	started := time.Now()
	ctx, r, err := p.startRun(ctx, req.MediaPath, req.KeepWork)
	if err != nil {
		return DubResult{}, err
	}
	defer r.close()

	src := source{MediaPath: req.MediaPath, TranscriptPath: req.TranscriptPath, Language: req.Source}
	mediaSeconds := p.mediaSeconds(ctx, src)
	plan := progress.NewPlan(mediaSeconds, p.multipliers, progress.Mode{Dub: true})
	tracker := p.newTracker(plan)
	result := DubResult{RunID: r.id}

	var units transcribed
	if err := p.runStage(ctx, tracker, progress.StageTranscribe, func(ctx context.Context, logger *slog.Logger) error {
		var err error
		units, err = p.transcribe(ctx, logger, r, src)
		return err
	}); err != nil {
		return result, err
	}
	result.DetectedLanguage = units.Language

	segs := units.Segments
	if err := p.runStage(ctx, tracker, progress.StageTranslate, func(ctx context.Context, _ *slog.Logger) error {
		segs = p.translator.TranslateSegments(ctx, segs, units.Language, target, func(done, total int) {
			emitWithin(tracker, plan, progress.StageTranslate, done, total, "translating")
		})
		return nil
	}); err != nil {
		return result, err
	}
	if p.cfg.Dubbing.OptimizeTiming {
		segs = optimize.Optimize(segs, p.optimize)
	}
	result.Segments = len(segs)

	format := timeline.Mono(p.cfg.Dubbing.SampleRate)
	var chunks []timeline.Chunk
	if err := p.runStage(ctx, tracker, progress.StageSynthesize, func(ctx context.Context, logger *slog.Logger) error {
		var err error
		chunks, err = p.synthesize(ctx, logger, r, segs, target, speaker, format, &result, func(done int) {
			emitWithin(tracker, plan, progress.StageSynthesize, done, len(segs), "synthesizing")
		})
		return err
	}); err != nil {
		return result, err
	}

	dubTrack := filepath.Join(r.dir, "dub.wav")
	if err := p.runStage(ctx, tracker, progress.StageAssemble, func(_ context.Context, logger *slog.Logger) error {
		total := timeline.TotalMs(chunks, p.cfg.Dubbing.TailPadMs, int(mediaSeconds*1000))
		track, report, err := timeline.Assemble(chunks, total, format)
		if err != nil {
			return fmt.Errorf("assemble dub track: %w", err)
		}
		result.Overlaps = report.Overlaps
		logger.Info("dub track assembled",
			logging.Int("chunks", report.Chunks),
			logging.Int("total_ms", report.TotalMs),
			logging.Int("overlaps", report.Overlaps),
			logging.Int("truncated_samples", report.Truncated),
		)
		if report.Overlaps > 0 {
			logging.WarnWithContext(logger, "dub segments overlap on the timeline", "dub_overlap",
				logging.Int("overlaps", report.Overlaps),
				logging.String(logging.FieldErrorHint, "enable dubbing.optimize_timing or shorten long translations"),
				logging.String(logging.FieldImpact, "overlapping speech is mixed together"),
			)
		}
		return timeline.WriteClip(dubTrack, track)
	}); err != nil {
		return result, err
	}

	videoPath := filepath.Join(outDir, DubbedName(req.MediaPath, target, videoExt(req.MediaPath)))
	audioPath := filepath.Join(outDir, DubbedName(req.MediaPath, target, ".wav"))
	if err := p.runStage(ctx, tracker, progress.StageMux, func(ctx context.Context, _ *slog.Logger) error {
		staged := filepath.Join(r.dir, "muxed"+videoExt(req.MediaPath))
		if err := p.media.MuxAudio(ctx, req.MediaPath, dubTrack, staged); err != nil {
			return err
		}
		if err := fileutil.Publish(staged, videoPath); err != nil {
			return fmt.Errorf("publish dubbed video: %w", err)
		}
		return fileutil.Publish(dubTrack, audioPath)
	}); err != nil {
		return result, err
	}
	result.VideoPath = videoPath
	result.AudioPath = audioPath
	result.Duration = time.Since(started)

	tracker.Finish(filepath.Base(videoPath))
	r.logger.Info("dub run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("video", videoPath),
		logging.Int("segments", result.Segments),
		logging.Int("synthesized", result.Synthesized),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Int("stretched", result.Stretched),
		logging.Duration("elapsed", result.Duration),
	)
	return result, nil
}

// synthesize produces one fitted chunk per eligible segment. Segments shorter
// than dubbing.min_segment_ms or without text are skipped; a failed synthesis
// leaves silence of the segment's length so later speech stays in place.
func (p *Context) synthesize(ctx context.Context, logger *slog.Logger, r *run, segs []segment.Segment, lang, speaker string, format timeline.Format, result *DubResult, report func(done int)) ([]timeline.Chunk, error) {
	chunks := make([]timeline.Chunk, 0, len(segs))
	for i, seg := range segs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		targetMs := seg.DurationMs()
		if targetMs < p.cfg.Dubbing.MinSegmentMs || strings.TrimSpace(seg.Text) == "" {
			result.Skipped++
			report(i + 1)
			continue
		}

		clip, err := p.speak(ctx, r, i, seg.Text, lang, speaker)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Failed++
			logging.WarnWithContext(logger, "segment synthesis failed", "tts_failed",
				logging.Int("segment", i),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the TTS server log"),
				logging.String(logging.FieldImpact, "segment replaced with silence"),
			)
			chunks = append(chunks, timeline.Chunk{StartMs: seg.StartMs(), Clip: timeline.Silence(targetMs, format)})
			report(i + 1)
			continue
		}

		fitted, fit, err := p.sync.Fit(ctx, clip, targetMs)
		if err != nil {
			logging.WarnWithContext(logger, "tempo stretch failed", "stretch_failed",
				logging.Int("segment", i),
				logging.Error(err),
				logging.String(logging.FieldImpact, "clip padded or trimmed without stretching"),
			)
			fitted = clip.FitTo(targetMs)
		}
		if len(fit.Chain) > 0 {
			result.Stretched++
		}
		switch fit.Correction {
		case timeline.CorrectionPad:
			result.Padded++
		case timeline.CorrectionTrim:
			result.Trimmed++
		}
		result.Synthesized++
		chunks = append(chunks, timeline.Chunk{StartMs: seg.StartMs(), Clip: fitted})
		report(i + 1)
	}
	return chunks, nil
}

// speak synthesizes text and normalizes it to the dub track format.
func (p *Context) speak(ctx context.Context, r *run, index int, text, lang, speaker string) (timeline.Clip, error) {
	audio, err := p.tts.Synthesize(ctx, text, lang, speaker)
	if err != nil {
		return timeline.Clip{}, err
	}
	raw := filepath.Join(r.dir, fmt.Sprintf("tts_%04d.wav", index))
	if err := os.WriteFile(raw, audio, 0o644); err != nil {
		return timeline.Clip{}, fmt.Errorf("write tts clip: %w", err)
	}
	normalized := filepath.Join(r.dir, fmt.Sprintf("tts_%04d_norm.wav", index))
	if err := p.media.Normalize(ctx, raw, normalized, p.cfg.Dubbing.SampleRate); err != nil {
		return timeline.Clip{}, err
	}
	return timeline.ReadClip(normalized)
}
