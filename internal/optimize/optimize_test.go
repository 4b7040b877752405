package optimize

import (
	"math"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"subforge/internal/segment"
)

const epsilon = 1e-9

const longText = "This caption is far too long to fit on two lines of forty two characters, " +
	"so the optimizer must break it into several shorter pieces at word boundaries."

func TestSplitLongPreservesDurationAndText(t *testing.T) {
	seg := segment.Segment{Start: 10, End: 17, Text: longText, Confidence: 0.8}
	parts := SplitLong(seg, DefaultMaxChars)
	if len(parts) < 2 {
		t.Fatalf("expected at least two parts, got %d", len(parts))
	}

	var total float64
	texts := make([]string, 0, len(parts))
	for i, part := range parts {
		if n := utf8.RuneCountInString(part.Text); n > DefaultMaxChars {
			t.Fatalf("part %d has %d runes", i, n)
		}
		if part.Confidence != 0.8 {
			t.Fatalf("part %d lost confidence", i)
		}
		if i > 0 && part.Start != parts[i-1].End {
			t.Fatalf("part %d does not start where part %d ends", i, i-1)
		}
		total += part.Duration()
		texts = append(texts, part.Text)
	}
	if math.Abs(total-7.0) > epsilon {
		t.Fatalf("combined duration = %v, want 7.0", total)
	}
	if parts[0].Start != 10 || parts[len(parts)-1].End != 17 {
		t.Fatalf("parts do not span the original segment: %+v", parts)
	}
	if got := strings.Join(texts, " "); got != longText {
		t.Fatalf("rejoined text mismatch:\n got %q\nwant %q", got, longText)
	}
}

func TestSplitLongKeepsShortSegment(t *testing.T) {
	seg := segment.Segment{Start: 0, End: 2, Text: "short"}
	parts := SplitLong(seg, DefaultMaxChars)
	if len(parts) != 1 || parts[0] != seg {
		t.Fatalf("expected segment unchanged, got %+v", parts)
	}
}

func TestOptimizeClampsAndSpaces(t *testing.T) {
	segs := []segment.Segment{
		{Start: 0, End: 0.4, Text: "Hi"},
		{Start: 0.5, End: 12, Text: "A very long pause"},
		{Start: 6, End: 9, Text: "Overlapping start"},
		{Start: 20, End: 21, Text: "   "},
	}
	out := Optimize(segs, DefaultOptions())
	if len(out) != 3 {
		t.Fatalf("expected blank segment dropped, got %d segments", len(out))
	}

	want := []struct{ start, end float64 }{
		{0, 1.0},
		{1.1, 7.1},
		{7.2, 9},
	}
	for i, w := range want {
		if math.Abs(out[i].Start-w.start) > epsilon || math.Abs(out[i].End-w.end) > epsilon {
			t.Fatalf("segment %d = [%v, %v], want [%v, %v]", i, out[i].Start, out[i].End, w.start, w.end)
		}
	}
	if segs[0].End != 0.4 {
		t.Fatal("Optimize must not modify its input")
	}
}

func TestOptimizeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	words := strings.Fields(longText)
	opts := DefaultOptions()

	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(15)
		segs := make([]segment.Segment, n)
		cursor := 0.0
		for i := range segs {
			start := cursor + rng.Float64()*2 - 0.5
			if start < 0 {
				start = 0
			}
			duration := 0.05 + rng.Float64()*10
			count := 1 + rng.Intn(len(words))
			segs[i] = segment.Segment{Start: start, End: start + duration, Text: strings.Join(words[:count], " ")}
			cursor = start + duration*rng.Float64()
		}

		out := Optimize(segs, opts)
		for i, seg := range out {
			d := seg.Duration()
			if d < opts.MinDuration-epsilon || d > opts.MaxDuration+epsilon {
				t.Fatalf("round %d: segment %d duration %v out of bounds", round, i, d)
			}
			if !seg.Valid() {
				t.Fatalf("round %d: segment %d has end <= start", round, i)
			}
			if utf8.RuneCountInString(seg.Text) > opts.MaxChars {
				t.Fatalf("round %d: segment %d text too long", round, i)
			}
			if i > 0 && out[i-1].End > seg.Start {
				t.Fatalf("round %d: segment %d starts %v before previous end %v", round, i, seg.Start, out[i-1].End)
			}
		}
		if err := segment.CheckOrdered(out); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
	}
}

func TestOptimizeIsDeterministic(t *testing.T) {
	segs := []segment.Segment{
		{Start: 0, End: 7, Text: longText},
		{Start: 6.5, End: 7.5, Text: "next"},
	}
	first := Optimize(segs, DefaultOptions())
	second := Optimize(segs, DefaultOptions())
	if len(first) != len(second) {
		t.Fatal("lengths differ between runs")
	}
	for i := range first {
		if first[i].Start != second[i].Start || first[i].End != second[i].End || first[i].Text != second[i].Text {
			t.Fatalf("segment %d differs between runs", i)
		}
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"fits one line", "Hello there", "Hello there"},
		{"balanced", "The quick brown fox jumps over the lazy dog near the river", "The quick brown fox jumps over\nthe lazy dog near the river"},
		{"collapses spaces", "a   b", "a b"},
		{"single long word", strings.Repeat("x", 50), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapText(tt.text, 42); got != tt.want {
				t.Fatalf("WrapText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapTextTruncatesOverlongText(t *testing.T) {
	text := strings.Repeat("word ", 30)
	got := WrapText(text, 42)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n > 84 {
		t.Fatalf("truncated text has %d runes", n)
	}
}

func TestWrapTextTinyLineLength(t *testing.T) {
	if got := WrapText("hi there you", 1); got != "..." {
		t.Fatalf("WrapText = %q, want %q", got, "...")
	}
}
