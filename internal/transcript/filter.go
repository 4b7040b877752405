package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"subforge/internal/config"
)

// Reason names the rule that rejected a segment.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonLowUniqueness   Reason = "low_uniqueness"
	ReasonRepeatedWords   Reason = "repeated_words"
	ReasonFillerPhrase    Reason = "filler_phrase"
	ReasonMusicSymbols    Reason = "music_symbols"
	ReasonLowLogprob      Reason = "low_avg_logprob"
	ReasonHighCompression Reason = "high_compression_ratio"
	ReasonNoSpeech        Reason = "no_speech"
)

var defaultFillerPhrases = []string{
	"zoid",
	"thank you",
	"thanks for watching",
	"please subscribe",
	"like and subscribe",
	"music",
	"[music]",
	"(music)",
	"silence",
}

// FilterOptions holds the hallucination thresholds.
type FilterOptions struct {
	MinUniqueRatio      float64
	MaxRepeatRun        int
	ShortTextChars      int
	MinAvgLogprob       float64
	MaxCompressionRatio float64
	MaxNoSpeechProb     float64
	ExtraPhrases        []string
}

// DefaultFilterOptions returns the stock thresholds.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		MinUniqueRatio:      0.3,
		MaxRepeatRun:        3,
		ShortTextChars:      50,
		MinAvgLogprob:       -1.5,
		MaxCompressionRatio: 3.0,
		MaxNoSpeechProb:     0.8,
	}
}

// Filter rejects ASR segments that are statistical noise. It holds no
// mutable state; the same input always yields the same verdict.
type Filter struct {
	opts    FilterOptions
	phrases []string
}

// NewFilter builds a filter from opts. Extra phrases are matched the same
// way as the built-in filler list.
func NewFilter(opts FilterOptions) *Filter {
	if opts.MaxRepeatRun < 2 {
		opts.MaxRepeatRun = 3
	}
	phrases := append([]string(nil), defaultFillerPhrases...)
	for _, phrase := range opts.ExtraPhrases {
		if trimmed := strings.ToLower(strings.TrimSpace(phrase)); trimmed != "" {
			phrases = append(phrases, trimmed)
		}
	}
	return &Filter{opts: opts, phrases: phrases}
}

// Keep reports whether seg should survive filtering.
func (f *Filter) Keep(seg RawSegment) bool {
	return f.Check(seg) == ReasonNone
}

// Check returns the first rule that rejects seg, or ReasonNone.
func (f *Filter) Check(seg RawSegment) Reason {
	text := strings.TrimSpace(seg.Text)
	words := strings.Fields(strings.ToLower(text))

	if len(words) > 1 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if float64(len(unique))/float64(len(words)) < f.opts.MinUniqueRatio {
			return ReasonLowUniqueness
		}
		if hasRepeatRun(words, f.opts.MaxRepeatRun) {
			return ReasonRepeatedWords
		}
	}

	if utf8.RuneCountInString(text) < f.opts.ShortTextChars {
		lower := strings.ToLower(text)
		for _, phrase := range f.phrases {
			if strings.Contains(lower, phrase) {
				return ReasonFillerPhrase
			}
		}
	}
	if isMusicCue(text) {
		return ReasonMusicSymbols
	}

	switch {
	case seg.AvgLogprob < f.opts.MinAvgLogprob:
		return ReasonLowLogprob
	case seg.CompressionRatio > f.opts.MaxCompressionRatio:
		return ReasonHighCompression
	case seg.NoSpeechProb > f.opts.MaxNoSpeechProb:
		return ReasonNoSpeech
	}
	return ReasonNone
}

func hasRepeatRun(words []string, run int) bool {
	count := 1
	for i := 1; i < len(words); i++ {
		if words[i] == words[i-1] {
			count++
			if count >= run {
				return true
			}
			continue
		}
		count = 1
	}
	return false
}

// isMusicCue returns true if text consists only of music notation symbols
// (¶, ♪, ♫, *) and whitespace.
func isMusicCue(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		switch {
		case r == '¶', r == '♪', r == '♫', r == '*':
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return true
}

// FilterOptionsFromConfig maps the [filter] config section onto FilterOptions.
func FilterOptionsFromConfig(cfg config.Filter) FilterOptions {
	return FilterOptions{
		MinUniqueRatio:      cfg.MinUniqueRatio,
		MaxRepeatRun:        cfg.MaxRepeatRun,
		ShortTextChars:      cfg.ShortTextChars,
		MinAvgLogprob:       cfg.MinAvgLogprob,
		MaxCompressionRatio: cfg.MaxCompressionRatio,
		MaxNoSpeechProb:     cfg.MaxNoSpeechProb,
		ExtraPhrases:        append([]string(nil), cfg.ExtraPhrases...),
	}
}
