package whisperx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"subforge/internal/language"
	"subforge/internal/services"
	"subforge/internal/transcript"
)

// Service implements transcript.Engine by shelling out to the recognizer.
type Service struct {
	cfg           Config
	workDir       string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a recognizer service writing intermediate JSON to workDir.
func NewService(cfg Config, workDir string) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg, workDir: workDir}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string { return s.cfg.Model }

// Binary returns the recognizer executable.
func (s *Service) Binary() string { return s.cfg.Binary }

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking
	// older checkpoints bundled with whisper wrappers.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe runs the recognizer on audioPath. lang may be empty to let the
// model detect the spoken language; the detected code is returned in the
// transcript.
func (s *Service) Transcribe(ctx context.Context, audioPath, lang string) (transcript.Transcript, error) {
	if strings.TrimSpace(audioPath) == "" {
		return transcript.Transcript{}, services.Wrap(services.ErrValidation, "transcribe", "whisper", "audio path required", nil)
	}
	outputDir := s.workDir
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return transcript.Transcript{}, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	args := s.buildArgs(audioPath, outputDir, lang)
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return transcript.Transcript{}, services.Wrap(services.ErrTimeout, "transcribe", "whisper", "recognizer timed out", err)
		}
		return transcript.Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisper", "recognizer failed", err)
	}

	jsonPath := OutputPath(audioPath, outputDir)
	result, err := transcript.Load(jsonPath)
	if err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisper", "read transcript "+jsonPath, err)
	}
	if result.Language == "" {
		result.Language = language.ToISO2(lang)
	}
	return result, nil
}

// OutputPath is where the recognizer writes its JSON for source.
func OutputPath(source, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(outputDir, base+"."+OutputFormat)
}

func (s *Service) buildArgs(source, outputDir, lang string) []string {
	args := []string{
		source,
		"--model", s.cfg.Model,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--word_timestamps", "True",
		"--verbose", "False",
	}
	if code := language.ToISO2(lang); code != "" {
		args = append(args, "--language", code)
	}
	switch device := strings.ToLower(strings.TrimSpace(s.cfg.Device)); device {
	case "":
	case CPUDevice:
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	default:
		args = append(args, "--device", device)
	}
	return args
}
