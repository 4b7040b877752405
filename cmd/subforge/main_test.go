package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"subforge/internal/progress"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	outputDir  string
	cacheDir   string
}

func setupCLITestEnv(t *testing.T, modelServerURL string, extra string) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("GOOGLE_TRANSLATE_API_KEY", "")
	t.Setenv("SUBFORGE_LLM_API_KEY", "")
	t.Setenv("OLLAMA_HOST", "")

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		outputDir:  filepath.Join(base, "out"),
		cacheDir:   filepath.Join(base, "cache"),
	}
	content := fmt.Sprintf(`[paths]
work_dir = %q
output_dir = %q
cache_dir = %q
log_dir = %q

[translation]
model_server_url = %q
persistent_cache = true

[logging]
level = "error"
%s`, filepath.Join(base, "work"), env.outputDir, env.cacheDir, filepath.Join(base, "logs"), modelServerURL, extra)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// newModelServer answers batch requests by upper-casing every text.
func newModelServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	calls := new(atomic.Int64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Model string   `json:"model"`
			Texts []string `json:"texts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out := make([]string, len(req.Texts))
		for i, text := range req.Texts {
			out[i] = strings.ToUpper(text)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"translations": out})
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "subforge.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("expected target path in output, got %q", stdout)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1/translate", "\n[validation]\napi_key = \"sk-very-secret\"\n")

	stdout, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(stdout, "sk-very-secret") {
		t.Fatalf("secret leaked into output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "********") || !strings.Contains(stdout, env.cacheDir) {
		t.Fatalf("unexpected config output:\n%s", stdout)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[captions]\nformat = \"ass\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"pairs"}, path); err == nil {
		t.Fatal("expected invalid config to fail")
	}
}

func TestPairsListsStrategies(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1/translate", "")

	stdout, _, err := runCLI(t, []string{"pairs"}, env.configPath)
	if err != nil {
		t.Fatalf("pairs: %v", err)
	}
	for _, want := range []string{"Helsinki-NLP/opus-mt-en-ro", "via en", "Pivot language: en", "Cloud translator configured: no"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in output:\n%s", want, stdout)
		}
	}

	stdout, _, err = runCLI(t, []string{"pairs", "--source", "ja", "--target", "ro"}, env.configPath)
	if err != nil {
		t.Fatalf("pairs resolve: %v", err)
	}
	if strings.TrimSpace(stdout) != "ja -> ro: pivot(en)" {
		t.Fatalf("unexpected resolution %q", stdout)
	}
}

func TestTranslateCommandWritesSubtitlesAndCaches(t *testing.T) {
	srv, calls := newModelServer(t)
	env := setupCLITestEnv(t, srv.URL, "")

	input := filepath.Join(env.baseDir, "show.srt")
	srt := "1\n00:00:01,000 --> 00:00:03,000\nGood evening.\n\n2\n00:00:04,000 --> 00:00:06,500\nThe train is late.\n"
	if err := os.WriteFile(input, []byte(srt), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}

	args := []string{"translate", input, "--source", "en", "--target", "ro", "--quiet"}
	stdout, _, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	output := filepath.Join(env.outputDir, "show_en_to_ro.srt")
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "GOOD EVENING.") {
		t.Fatalf("unexpected subtitles:\n%s", data)
	}
	if !strings.Contains(stdout, "show_en_to_ro.srt") {
		t.Fatalf("expected summary to name the output:\n%s", stdout)
	}
	first := calls.Load()
	if first == 0 {
		t.Fatal("expected the model server to be called")
	}

	if _, _, err := runCLI(t, args, env.configPath); err != nil {
		t.Fatalf("second translate: %v", err)
	}
	if calls.Load() != first {
		t.Fatalf("expected the persistent cache to serve the rerun, server calls %d -> %d", first, calls.Load())
	}

	stdout, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	if !strings.Contains(stdout, "en-ro") {
		t.Fatalf("expected pair breakdown in stats:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if strings.Contains(stdout, "Removed 0 ") {
		t.Fatalf("expected entries to be removed: %s", stdout)
	}
}

func TestTranslateRequiresLanguages(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1/translate", "")
	if _, _, err := runCLI(t, []string{"translate", "missing.srt", "--target", "ro"}, env.configPath); err == nil {
		t.Fatal("expected missing --source to fail")
	}
}

func TestCaptionRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1/translate", "")
	_, _, err := runCLI(t, []string{"caption", "movie.mkv", "--target", "ro", "--format", "ass"}, env.configPath)
	if err == nil {
		t.Fatal("expected unknown format to fail")
	}
}

func TestCachePruneRejectsNonPositiveAge(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1/translate", "")
	if _, _, err := runCLI(t, []string{"cache", "prune", "--older-than", "0s"}, env.configPath); err == nil {
		t.Fatal("expected zero age to be rejected")
	}
	stdout, _, err := runCLI(t, []string{"cache", "prune", "--older-than", "1h"}, env.configPath)
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	if !strings.Contains(stdout, "Removed 0 cache entries older than 1h0m0s") {
		t.Fatalf("unexpected prune output %q", stdout)
	}
}

func TestDoctorReportsMissingBinaries(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1/translate",
		"\n[asr]\nffmpeg_binary = \"subforge-missing-ffmpeg\"\nffprobe_binary = \"subforge-missing-ffprobe\"\n")

	stdout, _, err := runCLI(t, []string{"doctor", "--offline"}, env.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail with missing binaries")
	}
	for _, want := range []string{"FFmpeg:", "[ERROR]", "subforge-missing-ffmpeg", "Cache database:"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in doctor output:\n%s", want, stdout)
		}
	}
}

func TestFormatProgress(t *testing.T) {
	got := formatProgress(progress.Event{Stage: "translate", Percent: 42.5, Detail: "translating"})
	if !strings.HasPrefix(got, "translate    42.5%  translating") {
		t.Fatalf("unexpected progress line %q", got)
	}
}
