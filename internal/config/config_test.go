package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subforge/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("OPENROUTER_API_KEY", "env-llm")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "subforge", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "subforge") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.Paths.OutputDir != "" {
		t.Fatalf("expected empty output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Validation.Enabled {
		t.Fatal("expected validation disabled by default")
	}
	if cfg.Validation.APIKey != "env-llm" {
		t.Fatalf("expected validation key from env, got %q", cfg.Validation.APIKey)
	}
	if cfg.Translation.BatchSize != 16 {
		t.Fatalf("expected batch size 16, got %d", cfg.Translation.BatchSize)
	}
	if cfg.Captions.MaxChars != 84 || cfg.Captions.LineLength != 42 {
		t.Fatalf("unexpected caption bounds: %+v", cfg.Captions)
	}
	if !cfg.Captions.BOM {
		t.Fatal("expected BOM enabled by default")
	}
	if cfg.CacheDBPath() != filepath.Join(cfg.Paths.CacheDir, "subforge.db") {
		t.Fatalf("unexpected cache db path %q", cfg.CacheDBPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subforge.toml")

	type payload struct {
		Translation struct {
			PivotLanguage string            `toml:"pivot_language"`
			Models        map[string]string `toml:"models"`
		} `toml:"translation"`
		Validation struct {
			Double bool `toml:"double"`
		} `toml:"validation"`
		Captions struct {
			Format string `toml:"format"`
		} `toml:"captions"`
	}
	custom := payload{}
	custom.Translation.PivotLanguage = "EN"
	custom.Translation.Models = map[string]string{"EN_FR": " Helsinki-NLP/opus-mt-en-fr "}
	custom.Validation.Double = true
	custom.Captions.Format = ".VTT"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Translation.PivotLanguage != "en" {
		t.Fatalf("expected pivot en, got %q", cfg.Translation.PivotLanguage)
	}
	if got := cfg.Translation.Models["en-fr"]; got != "Helsinki-NLP/opus-mt-en-fr" {
		t.Fatalf("expected normalized model override, got %q", got)
	}
	if !cfg.Validation.Enabled {
		t.Fatal("expected double validation to enable validation")
	}
	if cfg.Captions.Format != "vtt" {
		t.Fatalf("expected vtt format, got %q", cfg.Captions.Format)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "subforge.toml")
	if err := os.WriteFile(configPath, []byte("[captions]\nmax_linez = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEnvFallbacksOnlyFillMissingKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "subforge.toml")
	contents := "[translation]\ncloud_api_key = \"file-cloud\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GOOGLE_TRANSLATE_API_KEY", "env-cloud")
	t.Setenv("SUBFORGE_LLM_API_KEY", "env-llm")
	t.Setenv("SUBTITLE_RT_FACTOR", "2.5")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Translation.CloudAPIKey != "file-cloud" {
		t.Errorf("expected file cloud key to win, got %q", cfg.Translation.CloudAPIKey)
	}
	if cfg.Validation.APIKey != "env-llm" {
		t.Errorf("expected llm key from env, got %q", cfg.Validation.APIKey)
	}
	if cfg.Progress.TranscribeFactor != 2.5 {
		t.Errorf("expected transcribe factor from env, got %v", cfg.Progress.TranscribeFactor)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "primary_model") {
		t.Fatalf("sample config missing validation section: %s", contents)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if !strings.Contains(cfg.Paths.WorkDir, "subforge") {
		t.Fatalf("expected work dir to contain subforge, got %q", cfg.Paths.WorkDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"min over max duration", func(c *config.Config) { c.Captions.MaxDuration = 0.5 }},
		{"unknown format", func(c *config.Config) { c.Captions.Format = "ass" }},
		{"chars below line length", func(c *config.Config) { c.Captions.MaxChars = 10 }},
		{"line length too small", func(c *config.Config) {
			c.Captions.LineLength = 1
			c.Captions.MaxChars = 2
		}},
		{"chars beyond two lines", func(c *config.Config) { c.Captions.MaxChars = 100 }},
		{"unique ratio out of range", func(c *config.Config) { c.Filter.MinUniqueRatio = 1.5 }},
		{"pivot not iso", func(c *config.Config) { c.Translation.PivotLanguage = "english" }},
		{"bad model key", func(c *config.Config) { c.Translation.Models = map[string]string{"enro": "x"} }},
		{"double without fallback", func(c *config.Config) {
			c.Validation.Enabled = true
			c.Validation.Double = true
			c.Validation.FallbackModel = ""
		}},
		{"negative factor", func(c *config.Config) { c.Progress.BurnFactor = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
