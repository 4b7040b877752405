package transcript

import "testing"

func TestFilterCheck(t *testing.T) {
	clean := func(text string) RawSegment {
		return RawSegment{Start: 0, End: 2, Text: text, AvgLogprob: -0.3, CompressionRatio: 1.2, NoSpeechProb: 0.1}
	}
	tests := []struct {
		name string
		seg  RawSegment
		want Reason
	}{
		{"normal speech", clean("Hello there, how are you today?"), ReasonNone},
		{"single word", clean("Yes"), ReasonNone},
		{"low uniqueness", clean("the the the the the the"), ReasonLowUniqueness},
		{"repeat run", clean("I said no no no to him"), ReasonRepeatedWords},
		{"repeat run ignores case", clean("Go GO go now please"), ReasonRepeatedWords},
		{"filler phrase", clean("Thank you."), ReasonFillerPhrase},
		{"bracketed music", clean("[Music]"), ReasonFillerPhrase},
		{"long text mentioning music", clean("We will talk about the history of music in this documentary series today"), ReasonNone},
		{"music symbols", clean("♪ ♪"), ReasonMusicSymbols},
		{"low logprob", RawSegment{Text: "Something real", AvgLogprob: -2, CompressionRatio: 1}, ReasonLowLogprob},
		{"high compression", RawSegment{Text: "Something real", AvgLogprob: -0.2, CompressionRatio: 3.5}, ReasonHighCompression},
		{"no speech", RawSegment{Text: "Something real", AvgLogprob: -0.2, CompressionRatio: 1, NoSpeechProb: 0.9}, ReasonNoSpeech},
		{"boundary values kept", RawSegment{Text: "Something real", AvgLogprob: -1.5, CompressionRatio: 3.0, NoSpeechProb: 0.8}, ReasonNone},
	}

	filter := NewFilter(DefaultFilterOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.Check(tt.seg); got != tt.want {
				t.Fatalf("Check(%q) = %q, want %q", tt.seg.Text, got, tt.want)
			}
			if filter.Keep(tt.seg) != (tt.want == ReasonNone) {
				t.Fatalf("Keep disagrees with Check for %q", tt.seg.Text)
			}
		})
	}
}

func TestFilterExtraPhrases(t *testing.T) {
	opts := DefaultFilterOptions()
	opts.ExtraPhrases = []string{"  Subtitles by "}
	filter := NewFilter(opts)

	seg := RawSegment{Text: "Subtitles by the community", CompressionRatio: 1}
	if got := filter.Check(seg); got != ReasonFillerPhrase {
		t.Fatalf("expected extra phrase to be filtered, got %q", got)
	}
}

func TestFilterIsDeterministic(t *testing.T) {
	filter := NewFilter(DefaultFilterOptions())
	seg := RawSegment{Text: "please subscribe", CompressionRatio: 1}
	first := filter.Check(seg)
	for i := 0; i < 5; i++ {
		if got := filter.Check(seg); got != first {
			t.Fatalf("verdict changed between calls: %q then %q", first, got)
		}
	}
}
