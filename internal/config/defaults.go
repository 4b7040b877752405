package config

const (
	defaultWorkDir               = "~/.local/share/subforge/work"
	defaultLogDir                = "~/.local/share/subforge/logs"
	defaultWhisperBinary         = "whisper"
	defaultWhisperModel          = "large-v3"
	defaultASRTimeoutSeconds     = 7200
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultMinUniqueRatio        = 0.3
	defaultMaxRepeatRun          = 3
	defaultShortTextChars        = 50
	defaultMinAvgLogprob         = -1.5
	defaultMaxCompressionRatio   = 3.0
	defaultMaxNoSpeechProb       = 0.8
	defaultSplitMaxWords         = 12
	defaultSplitMaxDuration      = 5.0
	defaultPivotLanguage         = "en"
	defaultModelServerURL        = "http://127.0.0.1:8765/translate"
	defaultModelTimeoutSeconds   = 120
	defaultCloudURL              = "https://translation.googleapis.com/language/translate/v2"
	defaultCloudTimeoutSeconds   = 30
	defaultCloudMinIntervalMs    = 100
	defaultBatchSize             = 16
	defaultPlaceholder           = "..."
	defaultValidationBaseURL     = "http://127.0.0.1:11434/v1/chat/completions"
	defaultPrimaryModel          = "gemma3:27b"
	defaultFallbackModel         = "mistral:Q4_K_M"
	defaultValidationWorkers     = 3
	defaultParallelThreshold     = 20
	defaultValidationTimeout     = 30
	defaultValidationTemperature = 0.3
	defaultValidationTopP        = 0.9
	defaultValidationMaxTokens   = 256
	defaultCaptionFormat         = "srt"
	defaultMinDuration           = 1.0
	defaultMaxDuration           = 6.0
	defaultMinGap                = 0.1
	defaultMaxChars              = 84
	defaultLineLength            = 42
	defaultTTSURL                = "http://127.0.0.1:8020/tts"
	defaultTTSTimeoutSeconds     = 120
	defaultToleranceSeconds      = 0.10
	defaultTailPadMs             = 500
	defaultMinSegmentMs          = 500
	defaultSampleRate            = 24000
	defaultTranscribeFactor      = 1.2
	defaultTranslateFactor       = 0.25
	defaultValidateFactor        = 0.15
	defaultSynthesizeFactor      = 0.5
	defaultBurnFactor            = 0.5
	defaultOverheadSeconds       = 8
	defaultMinMediaSeconds       = 60
	defaultTickMillis            = 1000
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		ASR: ASR{
			WhisperBinary:  defaultWhisperBinary,
			WhisperModel:   defaultWhisperModel,
			TimeoutSeconds: defaultASRTimeoutSeconds,
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
		},
		Filter: Filter{
			MinUniqueRatio:      defaultMinUniqueRatio,
			MaxRepeatRun:        defaultMaxRepeatRun,
			ShortTextChars:      defaultShortTextChars,
			MinAvgLogprob:       defaultMinAvgLogprob,
			MaxCompressionRatio: defaultMaxCompressionRatio,
			MaxNoSpeechProb:     defaultMaxNoSpeechProb,
		},
		Splitter: Splitter{
			MaxWords:    defaultSplitMaxWords,
			MaxDuration: defaultSplitMaxDuration,
		},
		Translation: Translation{
			PivotLanguage:       defaultPivotLanguage,
			ModelServerURL:      defaultModelServerURL,
			ModelTimeoutSeconds: defaultModelTimeoutSeconds,
			CloudURL:            defaultCloudURL,
			CloudTimeoutSeconds: defaultCloudTimeoutSeconds,
			CloudMinIntervalMs:  defaultCloudMinIntervalMs,
			BatchSize:           defaultBatchSize,
			Placeholder:         defaultPlaceholder,
			PersistentCache:     true,
		},
		Validation: Validation{
			BaseURL:           defaultValidationBaseURL,
			PrimaryModel:      defaultPrimaryModel,
			FallbackModel:     defaultFallbackModel,
			Workers:           defaultValidationWorkers,
			ParallelThreshold: defaultParallelThreshold,
			TimeoutSeconds:    defaultValidationTimeout,
			Temperature:       defaultValidationTemperature,
			TopP:              defaultValidationTopP,
			MaxTokens:         defaultValidationMaxTokens,
		},
		Captions: Captions{
			Format:      defaultCaptionFormat,
			MinDuration: defaultMinDuration,
			MaxDuration: defaultMaxDuration,
			MinGap:      defaultMinGap,
			MaxChars:    defaultMaxChars,
			LineLength:  defaultLineLength,
			BOM:         true,
		},
		Dubbing: Dubbing{
			TTSURL:            defaultTTSURL,
			TTSTimeoutSeconds: defaultTTSTimeoutSeconds,
			ToleranceSeconds:  defaultToleranceSeconds,
			TailPadMs:         defaultTailPadMs,
			MinSegmentMs:      defaultMinSegmentMs,
			SampleRate:        defaultSampleRate,
		},
		Progress: Progress{
			TranscribeFactor: defaultTranscribeFactor,
			TranslateFactor:  defaultTranslateFactor,
			ValidateFactor:   defaultValidateFactor,
			SynthesizeFactor: defaultSynthesizeFactor,
			BurnFactor:       defaultBurnFactor,
			OverheadSeconds:  defaultOverheadSeconds,
			MinMediaSeconds:  defaultMinMediaSeconds,
			TickMillis:       defaultTickMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
