package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subforge/internal/config"
	"subforge/internal/logging"
	"subforge/internal/optimize"
	"subforge/internal/progress"
	"subforge/internal/render"
	"subforge/internal/timeline"
	"subforge/internal/transcript"
	"subforge/internal/translate"
	"subforge/internal/validation"
)

// MediaTool is the ffmpeg surface the pipeline drives.
type MediaTool interface {
	ExtractAudio(ctx context.Context, source, dest string) error
	Duration(ctx context.Context, path string) (float64, error)
	Normalize(ctx context.Context, source, dest string, sampleRate int) error
	Atempo(ctx context.Context, source, dest string, chain []float64) error
	BurnSubtitles(ctx context.Context, source, subtitlePath, dest string) error
	MuxAudio(ctx context.Context, video, audioPath, dest string) error
}

// Synthesizer turns text into WAV bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang, speakerRef string) ([]byte, error)
}

// Deps carries the adapters a Context uses. Nil adapters disable the
// features that need them; requests for those features fail with a
// configuration error.
type Deps struct {
	Logger           *slog.Logger
	Media            MediaTool
	ASR              transcript.Engine
	Direct           translate.BatchEngine
	Cloud            translate.ItemEngine
	TranslationCache translate.Cache
	LLM              validation.Completer
	ValidationCache  validation.ResultCache
	TTS              Synthesizer
	// Progress receives tracker events. Sends never block.
	Progress chan<- progress.Event
}

// Context is the long-lived pipeline state shared by runs.
type Context struct {
	cfg          *config.Config
	logger       *slog.Logger
	media        MediaTool
	asr          transcript.Engine
	tts          Synthesizer
	translator   *translate.Orchestrator
	validator    *validation.Validator
	filter       *transcript.Filter
	splitter     transcript.Splitter
	optimize     optimize.Options
	renderOpts   render.Options
	multipliers  progress.Multipliers
	progressSink chan<- progress.Event
	sync         *timeline.Synchronizer
}

// New builds a Context from cfg and deps.
func New(cfg *config.Config, deps Deps) (*Context, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pipeline: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	table, err := translate.NewPairTable(cfg.Translation.PivotLanguage, cfg.Translation.Models)
	if err != nil {
		return nil, fmt.Errorf("pipeline: pair table: %w", err)
	}
	translator := translate.New(table, deps.Direct, deps.Cloud, translate.Options{
		Placeholder: cfg.Translation.Placeholder,
		BatchSize:   cfg.Translation.BatchSize,
		Cache:       deps.TranslationCache,
		Logger:      logger,
	})

	var validator *validation.Validator
	if deps.LLM != nil {
		validator = validation.New(deps.LLM, validation.Options{
			PrimaryModel:      cfg.Validation.PrimaryModel,
			FallbackModel:     cfg.Validation.FallbackModel,
			Workers:           cfg.Validation.Workers,
			ParallelThreshold: cfg.Validation.ParallelThreshold,
			CallTimeout:       time.Duration(cfg.Validation.TimeoutSeconds) * time.Second,
			Temperature:       cfg.Validation.Temperature,
			TopP:              cfg.Validation.TopP,
			MaxTokens:         cfg.Validation.MaxTokens,
			Cache:             deps.ValidationCache,
			Logger:            logger,
		})
	}

	var stretcher timeline.Stretcher
	if deps.Media != nil {
		stretcher = timeline.FFmpegStretcher{Runner: deps.Media, WorkDir: cfg.Paths.WorkDir}
	}
	synchronizer := timeline.NewSynchronizer(stretcher, timeline.SyncOptions{
		ToleranceMs: int(cfg.Dubbing.ToleranceSeconds * 1000),
		Logger:      logger,
	})

	renderOpts := render.DefaultOptions()
	renderOpts.BOM = cfg.Captions.BOM
	if cfg.Captions.LineLength > 0 {
		renderOpts.LineLength = cfg.Captions.LineLength
	}

	return &Context{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		media:        deps.Media,
		asr:          deps.ASR,
		tts:          deps.TTS,
		translator:   translator,
		validator:    validator,
		filter:       transcript.NewFilter(transcript.FilterOptionsFromConfig(cfg.Filter)),
		splitter:     transcript.NewSplitter(cfg.Splitter.MaxWords, cfg.Splitter.MaxDuration),
		optimize:     optimize.OptionsFromConfig(cfg.Captions),
		renderOpts:   renderOpts,
		multipliers:  progress.MultipliersFromConfig(cfg.Progress),
		progressSink: deps.Progress,
		sync:         synchronizer,
	}, nil
}

// Translator exposes the orchestrator (for strategy listings).
func (p *Context) Translator() *translate.Orchestrator { return p.translator }

// ValidationEnabled reports whether an LLM client is wired.
func (p *Context) ValidationEnabled() bool { return p.validator != nil }

func (p *Context) newTracker(plan progress.Plan) *progress.Tracker {
	return progress.NewTracker(plan, p.progressSink, progress.TrackerOptions{
		Tick:   time.Duration(p.cfg.Progress.TickMillis) * time.Millisecond,
		Logger: p.logger,
	})
}
