package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working, output, cache, and log directories.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
	LogDir    string `toml:"log_dir"`
}

// ASR contains the speech recognition and media toolchain settings.
type ASR struct {
	WhisperBinary  string `toml:"whisper_binary"`
	WhisperModel   string `toml:"whisper_model"`
	Device         string `toml:"device"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
}

// Filter tunes the hallucination filter applied to raw ASR segments.
type Filter struct {
	MinUniqueRatio      float64  `toml:"min_unique_ratio"`
	MaxRepeatRun        int      `toml:"max_repeat_run"`
	ShortTextChars      int      `toml:"short_text_chars"`
	MinAvgLogprob       float64  `toml:"min_avg_logprob"`
	MaxCompressionRatio float64  `toml:"max_compression_ratio"`
	MaxNoSpeechProb     float64  `toml:"max_no_speech_prob"`
	ExtraPhrases        []string `toml:"extra_phrases"`
}

// Splitter bounds the caption units produced from word timestamps.
type Splitter struct {
	MaxWords    int     `toml:"max_words"`
	MaxDuration float64 `toml:"max_duration"`
}

// Translation contains translation engine endpoints and batching settings.
type Translation struct {
	PivotLanguage       string            `toml:"pivot_language"`
	ModelServerURL      string            `toml:"model_server_url"`
	ModelTimeoutSeconds int               `toml:"model_timeout_seconds"`
	CloudURL            string            `toml:"cloud_url"`
	CloudAPIKey         string            `toml:"cloud_api_key"`
	CloudTimeoutSeconds int               `toml:"cloud_timeout_seconds"`
	CloudMinIntervalMs  int               `toml:"cloud_min_interval_ms"`
	BatchSize           int               `toml:"batch_size"`
	Placeholder         string            `toml:"placeholder"`
	PersistentCache     bool              `toml:"persistent_cache"`
	Models              map[string]string `toml:"models"`
}

// Validation contains the optional LLM validation layer settings.
type Validation struct {
	Enabled           bool    `toml:"enabled"`
	Double            bool    `toml:"double"`
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	PrimaryModel      string  `toml:"primary_model"`
	FallbackModel     string  `toml:"fallback_model"`
	Workers           int     `toml:"workers"`
	ParallelThreshold int     `toml:"parallel_threshold"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	Temperature       float64 `toml:"temperature"`
	TopP              float64 `toml:"top_p"`
	MaxTokens         int     `toml:"max_tokens"`
}

// Captions contains caption timing and layout bounds.
type Captions struct {
	Format      string  `toml:"format"`
	MinDuration float64 `toml:"min_duration"`
	MaxDuration float64 `toml:"max_duration"`
	MinGap      float64 `toml:"min_gap"`
	MaxChars    int     `toml:"max_chars"`
	LineLength  int     `toml:"line_length"`
	BOM         bool    `toml:"bom"`
}

// Dubbing contains TTS and timeline settings for the dub path.
type Dubbing struct {
	TTSURL            string  `toml:"tts_url"`
	TTSTimeoutSeconds int     `toml:"tts_timeout_seconds"`
	SpeakerReference  string  `toml:"speaker_reference"`
	ToleranceSeconds  float64 `toml:"tolerance_seconds"`
	TailPadMs         int     `toml:"tail_pad_ms"`
	MinSegmentMs      int     `toml:"min_segment_ms"`
	SampleRate        int     `toml:"sample_rate"`
	OptimizeTiming    bool    `toml:"optimize_timing"`
}

// Progress contains per-stage multipliers used by the progress estimator.
type Progress struct {
	TranscribeFactor float64 `toml:"transcribe_factor"`
	TranslateFactor  float64 `toml:"translate_factor"`
	ValidateFactor   float64 `toml:"validate_factor"`
	SynthesizeFactor float64 `toml:"synthesize_factor"`
	BurnFactor       float64 `toml:"burn_factor"`
	OverheadSeconds  float64 `toml:"overhead_seconds"`
	MinMediaSeconds  float64 `toml:"min_media_seconds"`
	TickMillis       int     `toml:"tick_millis"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subforge.
//
// Configuration sections by subsystem:
//   - Paths: work, output, cache, and log directories
//   - ASR: whisper and ffmpeg binaries
//   - Filter: hallucination thresholds
//   - Splitter: caption unit bounds
//   - Translation: direct model server, cloud fallback, pivot language
//   - Validation: LLM validation layer
//   - Captions: optimizer bounds and output format
//   - Dubbing: TTS endpoint and timeline tolerances
//   - Progress: ETA multipliers
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	ASR         ASR         `toml:"asr"`
	Filter      Filter      `toml:"filter"`
	Splitter    Splitter    `toml:"splitter"`
	Translation Translation `toml:"translation"`
	Validation  Validation  `toml:"validation"`
	Captions    Captions    `toml:"captions"`
	Dubbing     Dubbing     `toml:"dubbing"`
	Progress    Progress    `toml:"progress"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work, cache, and log directories.
// OutputDir is optional; when empty, outputs land next to their inputs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if err := os.MkdirAll(c.Paths.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", c.Paths.OutputDir, err)
		}
	}
	return nil
}

// CacheDBPath returns the location of the persistent translation cache.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.Paths.CacheDir, "subforge.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "subforge")
	}
	return "~/.cache/subforge"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
