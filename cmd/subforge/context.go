package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"subforge/internal/cachestore"
	"subforge/internal/config"
	"subforge/internal/logging"
	"subforge/internal/pipeline"
	"subforge/internal/progress"
	"subforge/internal/services/cloudtranslate"
	"subforge/internal/services/ffmpeg"
	"subforge/internal/services/llm"
	"subforge/internal/services/mtserver"
	"subforge/internal/services/tts"
	"subforge/internal/services/whisperx"
	"subforge/internal/translate"
)

type commandContext struct {
	configFlag *string
	logLevel   *string
	logFormat  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevel, logFormat *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logLevel:   logLevel,
		logFormat:  logFormat,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if level := flagValue(c.logLevel); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if format := flagValue(c.logFormat); format != "" {
			cfg.Logging.Format = strings.ToLower(format)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openCache opens the persistent cache database. Callers close it.
func (c *commandContext) openCache() (*cachestore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return cachestore.Open(cfg.CacheDBPath(), logger)
}

// openPipeline wires the configured adapters into a pipeline context.
// events may be nil. The returned release func closes the cache store.
func (c *commandContext) openPipeline(events chan<- progress.Event) (*pipeline.Context, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	deps := pipeline.Deps{
		Logger: logger,
		Media: ffmpeg.New(ffmpeg.Config{
			FFmpegBinary:  cfg.ASR.FFmpegBinary,
			FFprobeBinary: cfg.ASR.FFprobeBinary,
		}),
		ASR: whisperx.NewService(whisperx.Config{
			Binary:         cfg.ASR.WhisperBinary,
			Model:          cfg.ASR.WhisperModel,
			Device:         cfg.ASR.Device,
			TimeoutSeconds: cfg.ASR.TimeoutSeconds,
		}, filepath.Join(cfg.Paths.WorkDir, "asr")),
		Progress: events,
	}
	if cfg.Translation.ModelServerURL != "" {
		deps.Direct = mtserver.New(mtserver.Config{
			URL:            cfg.Translation.ModelServerURL,
			TimeoutSeconds: cfg.Translation.ModelTimeoutSeconds,
		})
	}
	if cfg.Translation.CloudAPIKey != "" {
		deps.Cloud = cloudtranslate.New(cloudtranslate.Config{
			URL:            cfg.Translation.CloudURL,
			APIKey:         cfg.Translation.CloudAPIKey,
			TimeoutSeconds: cfg.Translation.CloudTimeoutSeconds,
			MinIntervalMs:  cfg.Translation.CloudMinIntervalMs,
		})
	}
	if cfg.Validation.BaseURL != "" {
		deps.LLM = llm.NewClient(llm.Config{
			APIKey:         cfg.Validation.APIKey,
			BaseURL:        cfg.Validation.BaseURL,
			Title:          "subforge",
			TimeoutSeconds: cfg.Validation.TimeoutSeconds,
		})
	}
	if cfg.Dubbing.TTSURL != "" {
		deps.TTS = tts.New(tts.Config{
			URL:            cfg.Dubbing.TTSURL,
			TimeoutSeconds: cfg.Dubbing.TTSTimeoutSeconds,
		})
	}

	release := func() {}
	memory := translate.NewMemoryCache()
	deps.TranslationCache = memory
	if cfg.Translation.PersistentCache {
		store, err := cachestore.Open(cfg.CacheDBPath(), logger)
		if err != nil {
			return nil, nil, err
		}
		deps.TranslationCache = translate.Layered{Front: memory, Back: store.Translations()}
		deps.ValidationCache = store.Validations()
		release = func() {
			if err := store.Close(); err != nil {
				logger.Warn("close cache store", logging.Error(err))
			}
		}
	}

	p, err := pipeline.New(cfg, deps)
	if err != nil {
		release()
		return nil, nil, err
	}
	return p, release, nil
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
