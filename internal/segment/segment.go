// Package segment defines the timed caption unit that flows through every
// pipeline stage, from word splitting to rendering and dubbing.
package segment

import (
	"fmt"
	"math"
	"strings"
)

// Segment is one timed caption unit. Times are seconds from the start of
// the media. OriginalText holds the source-language text once the segment has
// been translated.
type Segment struct {
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	OriginalText *string `json:"original_text,omitempty"`
}

// Duration returns End-Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Valid reports whether the segment has a positive duration.
func (s Segment) Valid() bool {
	return s.End > s.Start
}

// Source returns the source-language text: OriginalText when set, else Text.
func (s Segment) Source() string {
	if s.OriginalText != nil {
		return *s.OriginalText
	}
	return s.Text
}

// Translated returns a copy carrying text as its new Text. The current text
// becomes OriginalText unless an original was already recorded.
func (s Segment) Translated(text string) Segment {
	if s.OriginalText == nil {
		original := s.Text
		s.OriginalText = &original
	}
	s.Text = text
	return s
}

// StartMs returns the start offset in whole milliseconds.
func (s Segment) StartMs() int {
	return toMs(s.Start)
}

// DurationMs returns the duration in whole milliseconds.
func (s Segment) DurationMs() int {
	return toMs(s.End) - toMs(s.Start)
}

// toMs rounds to the nearest millisecond so 2.3 s maps to 2300, not 2299.
func toMs(seconds float64) int {
	return int(math.Round(seconds * 1000))
}

// Clone returns a deep copy of segs.
func Clone(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	for i, seg := range segs {
		if seg.OriginalText != nil {
			original := *seg.OriginalText
			seg.OriginalText = &original
		}
		out[i] = seg
	}
	return out
}

// Texts returns the Text of each segment in order.
func Texts(segs []Segment) []string {
	out := make([]string, len(segs))
	for i, seg := range segs {
		out[i] = seg.Text
	}
	return out
}

// End returns the largest end time in segs.
func End(segs []Segment) float64 {
	var end float64
	for _, seg := range segs {
		end = max(end, seg.End)
	}
	return end
}

// AverageConfidence returns the mean confidence, or 0 for an empty slice.
func AverageConfidence(segs []Segment) float64 {
	if len(segs) == 0 {
		return 0
	}
	var total float64
	for _, seg := range segs {
		total += seg.Confidence
	}
	return total / float64(len(segs))
}

// CheckOrdered returns an error describing the first segment that has a
// non-positive duration or starts before its predecessor ends.
func CheckOrdered(segs []Segment) error {
	for i, seg := range segs {
		if !seg.Valid() {
			return fmt.Errorf("segment %d: end %.3f not after start %.3f", i, seg.End, seg.Start)
		}
		if i > 0 && seg.Start < segs[i-1].End {
			return fmt.Errorf("segment %d: starts at %.3f before previous end %.3f", i, seg.Start, segs[i-1].End)
		}
	}
	return nil
}

// JoinText concatenates segment texts with single spaces.
func JoinText(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		if trimmed := strings.TrimSpace(seg.Text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}
