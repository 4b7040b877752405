package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Word is a single word-level timestamp reported by the ASR engine.
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"word"`
}

// UnmarshalJSON accepts both "word" (whisper) and "text" (whisper.cpp) keys
// and tolerates words missing timestamps.
func (w *Word) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start *float64 `json:"start"`
		End   *float64 `json:"end"`
		Word  string   `json:"word"`
		Text  string   `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.Text = raw.Word
	if w.Text == "" {
		w.Text = raw.Text
	}
	w.Start, w.End = -1, -1
	if raw.Start != nil {
		w.Start = *raw.Start
	}
	if raw.End != nil {
		w.End = *raw.End
	}
	return nil
}

// Timed reports whether both timestamps were present.
func (w Word) Timed() bool {
	return w.Start >= 0 && w.End >= 0
}

// RawSegment is one ASR segment with the decoder diagnostics used for
// hallucination filtering.
type RawSegment struct {
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	Words            []Word  `json:"words,omitempty"`
}

// UnmarshalJSON fills neutral diagnostics when the engine omits them, so a
// transcript without scores is never filtered on their account.
func (s *RawSegment) UnmarshalJSON(data []byte) error {
	type plain RawSegment
	decoded := plain{CompressionRatio: 1.0}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = RawSegment(decoded)
	return nil
}

// Transcript is the full ASR result for one media item.
type Transcript struct {
	Language string       `json:"language"`
	Segments []RawSegment `json:"segments"`
}

// Engine produces a transcript from an audio file. lang may be empty to let
// the engine detect the spoken language.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, lang string) (Transcript, error)
}

// ErrNoSegments is returned when nothing usable survives transcription.
var ErrNoSegments = errors.New("transcript contains no usable segments")

// Decode reads a Whisper-style JSON document.
func Decode(r io.Reader) (Transcript, error) {
	var t Transcript
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return Transcript{}, fmt.Errorf("parse transcript json: %w", err)
	}
	t.Language = strings.ToLower(strings.TrimSpace(t.Language))
	return t, nil
}

// Load reads a transcript JSON file from disk.
func Load(path string) (Transcript, error) {
	if strings.TrimSpace(path) == "" {
		return Transcript{}, os.ErrNotExist
	}
	file, err := os.Open(path)
	if err != nil {
		return Transcript{}, err
	}
	defer file.Close()
	return Decode(file)
}
