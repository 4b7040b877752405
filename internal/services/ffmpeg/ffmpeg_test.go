package ffmpeg

import (
	"context"
	"errors"
	"strings"
	"testing"

	"subforge/internal/services"
)

type recorder struct {
	name   string
	args   []string
	output []byte
	err    error
}

func (r *recorder) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = append([]string(nil), args...)
	return r.output, r.err
}

func hasSequence(args []string, seq ...string) bool {
	for i := 0; i+len(seq) <= len(args); i++ {
		match := true
		for j, s := range seq {
			if args[i+j] != s {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestAtempoFilter(t *testing.T) {
	got, err := AtempoFilter([]float64{2.0, 1.5})
	if err != nil {
		t.Fatalf("AtempoFilter returned error: %v", err)
	}
	if got != "atempo=2.000000,atempo=1.500000" {
		t.Fatalf("unexpected filter %q", got)
	}
	if got, _ := AtempoFilter(nil); got != "atempo=1.0" {
		t.Fatalf("unexpected empty-chain filter %q", got)
	}
	if _, err := AtempoFilter([]float64{3}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMuxAudioArguments(t *testing.T) {
	rec := &recorder{}
	client := New(Config{FFmpegBinary: "/opt/ffmpeg"}, WithRunner(rec.run))
	if err := client.MuxAudio(context.Background(), "in.mp4", "dub.wav", "out.mp4"); err != nil {
		t.Fatalf("MuxAudio returned error: %v", err)
	}
	if rec.name != "/opt/ffmpeg" {
		t.Fatalf("unexpected binary %q", rec.name)
	}
	for _, seq := range [][]string{
		{"-map", "0:v:0"},
		{"-map", "1:a:0"},
		{"-c:v", "copy"},
		{"-c:a", "aac"},
		{"-shortest", "out.mp4"},
	} {
		if !hasSequence(rec.args, seq...) {
			t.Fatalf("missing %v in %v", seq, rec.args)
		}
	}
}

func TestExtractAudioArguments(t *testing.T) {
	rec := &recorder{}
	client := New(Config{}, WithRunner(rec.run))
	if err := client.ExtractAudio(context.Background(), "movie.mkv", "audio.wav"); err != nil {
		t.Fatal(err)
	}
	if rec.name != "ffmpeg" {
		t.Fatalf("expected default binary, got %q", rec.name)
	}
	if !hasSequence(rec.args, "-ac", "1", "-ar", "16000") {
		t.Fatalf("expected mono 16k output, got %v", rec.args)
	}
}

func TestCommandFailureIsExternalToolError(t *testing.T) {
	rec := &recorder{output: []byte("Invalid data found\n"), err: errors.New("exit status 1")}
	client := New(Config{}, WithRunner(rec.run))
	err := client.Normalize(context.Background(), "tts.mp3", "tts.wav", 24000)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected ffmpeg output in error, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	rec := &recorder{output: []byte(`{
		"streams": [
			{"index": 0, "codec_type": "video", "codec_name": "h264"},
			{"index": 1, "codec_type": "audio", "codec_name": "aac", "duration": "61.2"}
		],
		"format": {"filename": "movie.mp4", "duration": ""}
	}`)}
	client := New(Config{FFprobeBinary: "ffprobe7"}, WithRunner(rec.run))
	result, err := client.Probe(context.Background(), "movie.mp4")
	if err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}
	if rec.name != "ffprobe7" {
		t.Fatalf("unexpected binary %q", rec.name)
	}
	if !result.HasVideo() || !result.HasAudio() {
		t.Fatalf("expected video and audio streams: %+v", result)
	}
	if got := result.DurationSeconds(); got != 61.2 {
		t.Fatalf("expected stream duration fallback, got %v", got)
	}
	if _, err := client.Probe(context.Background(), " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty path, got %v", err)
	}
}

func TestEscapeFilterPath(t *testing.T) {
	if got := escapeFilterPath(`C:\subs\it's.srt`); got != `'C\:\\subs\\it\'s.srt'` {
		t.Fatalf("unexpected escape %q", got)
	}
}
