package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeASR()
	c.normalizeFilter()
	c.normalizeTranslation()
	c.normalizeValidation()
	c.normalizeCaptions()
	c.normalizeDubbing()
	c.normalizeProgress()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeASR() {
	c.ASR.WhisperBinary = stringOr(c.ASR.WhisperBinary, defaultWhisperBinary)
	c.ASR.WhisperModel = stringOr(c.ASR.WhisperModel, defaultWhisperModel)
	c.ASR.Device = strings.ToLower(strings.TrimSpace(c.ASR.Device))
	c.ASR.FFmpegBinary = stringOr(c.ASR.FFmpegBinary, defaultFFmpegBinary)
	c.ASR.FFprobeBinary = stringOr(c.ASR.FFprobeBinary, defaultFFprobeBinary)
	if c.ASR.TimeoutSeconds <= 0 {
		c.ASR.TimeoutSeconds = defaultASRTimeoutSeconds
	}
}

func (c *Config) normalizeFilter() {
	if c.Filter.MaxRepeatRun <= 1 {
		c.Filter.MaxRepeatRun = defaultMaxRepeatRun
	}
	if c.Filter.ShortTextChars <= 0 {
		c.Filter.ShortTextChars = defaultShortTextChars
	}
	phrases := make([]string, 0, len(c.Filter.ExtraPhrases))
	for _, phrase := range c.Filter.ExtraPhrases {
		if trimmed := strings.ToLower(strings.TrimSpace(phrase)); trimmed != "" {
			phrases = append(phrases, trimmed)
		}
	}
	c.Filter.ExtraPhrases = phrases
	if c.Splitter.MaxWords <= 0 {
		c.Splitter.MaxWords = defaultSplitMaxWords
	}
	if c.Splitter.MaxDuration <= 0 {
		c.Splitter.MaxDuration = defaultSplitMaxDuration
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.PivotLanguage = strings.ToLower(stringOr(c.Translation.PivotLanguage, defaultPivotLanguage))
	c.Translation.ModelServerURL = strings.TrimSpace(c.Translation.ModelServerURL)
	c.Translation.CloudURL = strings.TrimSpace(c.Translation.CloudURL)
	c.Translation.CloudAPIKey = strings.TrimSpace(c.Translation.CloudAPIKey)
	if c.Translation.CloudAPIKey == "" {
		if value, ok := os.LookupEnv("GOOGLE_TRANSLATE_API_KEY"); ok {
			c.Translation.CloudAPIKey = strings.TrimSpace(value)
		}
	}
	if c.Translation.ModelTimeoutSeconds <= 0 {
		c.Translation.ModelTimeoutSeconds = defaultModelTimeoutSeconds
	}
	if c.Translation.CloudTimeoutSeconds <= 0 {
		c.Translation.CloudTimeoutSeconds = defaultCloudTimeoutSeconds
	}
	if c.Translation.CloudMinIntervalMs < 0 {
		c.Translation.CloudMinIntervalMs = 0
	}
	if c.Translation.BatchSize <= 0 {
		c.Translation.BatchSize = defaultBatchSize
	}
	if c.Translation.Placeholder == "" {
		c.Translation.Placeholder = defaultPlaceholder
	}
	if len(c.Translation.Models) > 0 {
		models := make(map[string]string, len(c.Translation.Models))
		for pair, model := range c.Translation.Models {
			key := strings.ToLower(strings.TrimSpace(pair))
			key = strings.ReplaceAll(key, "_", "-")
			if key == "" {
				continue
			}
			models[key] = strings.TrimSpace(model)
		}
		c.Translation.Models = models
	}
}

func (c *Config) normalizeValidation() {
	c.Validation.BaseURL = strings.TrimSpace(c.Validation.BaseURL)
	if c.Validation.BaseURL == "" {
		if host, ok := os.LookupEnv("OLLAMA_HOST"); ok && strings.TrimSpace(host) != "" {
			c.Validation.BaseURL = strings.TrimRight(strings.TrimSpace(host), "/") + "/v1/chat/completions"
		} else {
			c.Validation.BaseURL = defaultValidationBaseURL
		}
	}
	c.Validation.APIKey = strings.TrimSpace(c.Validation.APIKey)
	if c.Validation.APIKey == "" {
		if value, ok := os.LookupEnv("SUBFORGE_LLM_API_KEY"); ok {
			c.Validation.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Validation.APIKey = strings.TrimSpace(value)
		}
	}
	c.Validation.PrimaryModel = stringOr(c.Validation.PrimaryModel, defaultPrimaryModel)
	c.Validation.FallbackModel = strings.TrimSpace(c.Validation.FallbackModel)
	if c.Validation.Workers <= 0 {
		c.Validation.Workers = defaultValidationWorkers
	}
	if c.Validation.ParallelThreshold <= 0 {
		c.Validation.ParallelThreshold = defaultParallelThreshold
	}
	if c.Validation.TimeoutSeconds <= 0 {
		c.Validation.TimeoutSeconds = defaultValidationTimeout
	}
	if c.Validation.MaxTokens <= 0 {
		c.Validation.MaxTokens = defaultValidationMaxTokens
	}
	if c.Validation.Double {
		c.Validation.Enabled = true
	}
}

func (c *Config) normalizeCaptions() {
	c.Captions.Format = strings.ToLower(strings.TrimSpace(c.Captions.Format))
	c.Captions.Format = strings.TrimPrefix(c.Captions.Format, ".")
	if c.Captions.Format == "" {
		c.Captions.Format = defaultCaptionFormat
	}
	if c.Captions.MaxChars <= 0 {
		c.Captions.MaxChars = defaultMaxChars
	}
	if c.Captions.LineLength <= 0 {
		c.Captions.LineLength = defaultLineLength
	}
}

func (c *Config) normalizeDubbing() {
	c.Dubbing.TTSURL = strings.TrimSpace(c.Dubbing.TTSURL)
	c.Dubbing.SpeakerReference = strings.TrimSpace(c.Dubbing.SpeakerReference)
	if c.Dubbing.SpeakerReference != "" {
		if expanded, err := expandPath(c.Dubbing.SpeakerReference); err == nil {
			c.Dubbing.SpeakerReference = expanded
		}
	}
	if c.Dubbing.TTSTimeoutSeconds <= 0 {
		c.Dubbing.TTSTimeoutSeconds = defaultTTSTimeoutSeconds
	}
	if c.Dubbing.ToleranceSeconds <= 0 {
		c.Dubbing.ToleranceSeconds = defaultToleranceSeconds
	}
	if c.Dubbing.TailPadMs < 0 {
		c.Dubbing.TailPadMs = 0
	}
	if c.Dubbing.MinSegmentMs < 0 {
		c.Dubbing.MinSegmentMs = 0
	}
	if c.Dubbing.SampleRate <= 0 {
		c.Dubbing.SampleRate = defaultSampleRate
	}
}

func (c *Config) normalizeProgress() {
	c.Progress.TranscribeFactor = envFloat("SUBTITLE_RT_FACTOR", c.Progress.TranscribeFactor)
	c.Progress.TranslateFactor = envFloat("SUBTITLE_TRANSLATE_FACTOR", c.Progress.TranslateFactor)
	c.Progress.BurnFactor = envFloat("SUBTITLE_BURN_FACTOR", c.Progress.BurnFactor)
	if c.Progress.TickMillis <= 0 {
		c.Progress.TickMillis = defaultTickMillis
	}
	if c.Progress.MinMediaSeconds < 0 {
		c.Progress.MinMediaSeconds = 0
	}
	if c.Progress.OverheadSeconds < 0 {
		c.Progress.OverheadSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func stringOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

// envFloat prefers a parseable environment override over the configured value.
func envFloat(key string, current float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return current
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || parsed <= 0 {
		return current
	}
	return parsed
}
