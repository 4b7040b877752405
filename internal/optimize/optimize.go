package optimize

import (
	"sort"
	"strings"
	"unicode/utf8"

	"subforge/internal/config"
	"subforge/internal/segment"
)

const (
	DefaultMinDuration = 1.0
	DefaultMaxDuration = 6.0
	DefaultMinGap      = 0.1
	DefaultMaxChars    = 84
	DefaultLineLength  = 42
)

// Options bounds caption timing and size. Durations are seconds.
type Options struct {
	MinDuration float64
	MaxDuration float64
	MinGap      float64
	MaxChars    int
	LineLength  int
}

// DefaultOptions returns the two-line, 42-column caption profile.
func DefaultOptions() Options {
	return Options{
		MinDuration: DefaultMinDuration,
		MaxDuration: DefaultMaxDuration,
		MinGap:      DefaultMinGap,
		MaxChars:    DefaultMaxChars,
		LineLength:  DefaultLineLength,
	}
}

// OptionsFromConfig maps the [captions] config section.
func OptionsFromConfig(cfg config.Captions) Options {
	return Options{
		MinDuration: cfg.MinDuration,
		MaxDuration: cfg.MaxDuration,
		MinGap:      cfg.MinGap,
		MaxChars:    cfg.MaxChars,
		LineLength:  cfg.LineLength,
	}.withDefaults()
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MinDuration <= 0 {
		o.MinDuration = def.MinDuration
	}
	if o.MaxDuration < o.MinDuration {
		o.MaxDuration = max(def.MaxDuration, o.MinDuration)
	}
	if o.MinGap < 0 {
		o.MinGap = 0
	}
	if o.MaxChars <= 0 {
		o.MaxChars = def.MaxChars
	}
	if o.LineLength <= 0 {
		o.LineLength = def.LineLength
	}
	return o
}

// Optimize returns a new sequence where every segment lasts between
// MinDuration and MaxDuration, no segment starts before the previous end plus
// MinGap, and no caption text exceeds MaxChars. The input is not modified.
func Optimize(segs []segment.Segment, opts Options) []segment.Segment {
	opts = opts.withDefaults()

	ordered := segment.Clone(segs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	var split []segment.Segment
	for _, seg := range ordered {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		split = append(split, SplitLong(seg, opts.MaxChars)...)
	}

	out := make([]segment.Segment, 0, len(split))
	for _, seg := range split {
		start := seg.Start
		if n := len(out); n > 0 {
			if earliest := out[n-1].End + opts.MinGap; start < earliest {
				start = earliest
			}
		}
		duration := seg.End - start
		switch {
		case duration < opts.MinDuration:
			duration = opts.MinDuration
		case duration > opts.MaxDuration:
			duration = opts.MaxDuration
		}
		seg.Start = start
		seg.End = start + duration
		out = append(out, seg)
	}
	return out
}

// SplitLong breaks seg into chunks of at most maxChars runes at word
// boundaries. Each chunk gets a slice of the original duration proportional
// to its length; the chunks tile [Start, End] exactly and rejoin with single
// spaces to the original words.
func SplitLong(seg segment.Segment, maxChars int) []segment.Segment {
	if maxChars <= 0 || utf8.RuneCountInString(seg.Text) <= maxChars {
		return []segment.Segment{seg}
	}
	chunks := chunkWords(strings.Fields(seg.Text), maxChars)
	if len(chunks) < 2 {
		return []segment.Segment{seg}
	}

	total := 0
	for _, chunk := range chunks {
		total += utf8.RuneCountInString(chunk)
	}
	duration := seg.Duration()

	out := make([]segment.Segment, 0, len(chunks))
	cursor := seg.Start
	consumed := 0
	for i, chunk := range chunks {
		consumed += utf8.RuneCountInString(chunk)
		end := seg.Start + duration*float64(consumed)/float64(total)
		if i == len(chunks)-1 {
			end = seg.End
		}
		part := seg
		part.Start = cursor
		part.End = end
		part.Text = chunk
		out = append(out, part)
		cursor = end
	}
	return out
}

// chunkWords greedily packs words into lines of at most limit runes. A single
// word longer than limit gets a chunk of its own.
func chunkWords(words []string, limit int) []string {
	var chunks []string
	var current []string
	length := 0
	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		next := wordLen
		if len(current) > 0 {
			next = length + 1 + wordLen
		}
		if next > limit && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			next = wordLen
		}
		current = append(current, word)
		length = next
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
