package transcript

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"subforge/internal/segment"
)

const (
	defaultMaxWords    = 12
	defaultMaxDuration = 5.0
)

var sentenceBreak = regexp.MustCompile(`[.!?。！？]+`)

// Splitter breaks raw ASR segments into caption-sized units.
type Splitter struct {
	MaxWords    int
	MaxDuration float64
}

// NewSplitter returns a splitter, substituting defaults for non-positive bounds.
func NewSplitter(maxWords int, maxDuration float64) Splitter {
	if maxWords <= 0 {
		maxWords = defaultMaxWords
	}
	if maxDuration <= 0 {
		maxDuration = defaultMaxDuration
	}
	return Splitter{MaxWords: maxWords, MaxDuration: maxDuration}
}

// Split returns the caption units for seg. Word timestamps are preferred;
// without them the text is split at sentence punctuation and time is shared
// out proportionally to character count.
func (s Splitter) Split(seg RawSegment) []segment.Segment {
	if s.MaxWords <= 0 || s.MaxDuration <= 0 {
		s = NewSplitter(s.MaxWords, s.MaxDuration)
	}
	if len(seg.Words) > 0 {
		if out := s.splitWords(seg); len(out) > 0 {
			return out
		}
	}
	return splitSentences(seg)
}

func (s Splitter) splitWords(seg RawSegment) []segment.Segment {
	words := fillWordTimes(seg)
	var (
		out     []segment.Segment
		current []string
		start   = words[0].Start
	)
	flush := func(end float64) {
		text := clean(strings.Join(current, " "))
		current = current[:0]
		if text == "" {
			return
		}
		out = append(out, segment.Segment{Start: start, End: max(end, start), Text: text, Confidence: 1})
	}

	for i, w := range words {
		word := strings.TrimSpace(w.Text)
		if word != "" {
			current = append(current, word)
		}
		last := i == len(words)-1
		split := len(current) >= s.MaxWords ||
			w.End-start >= s.MaxDuration ||
			(!last && endsClause(word))
		if !split {
			continue
		}
		flush(w.End)
		if !last {
			start = words[i+1].Start
		}
	}
	if len(current) > 0 {
		flush(words[len(words)-1].End)
	}
	return mergeEmptySpans(out)
}

// mergeEmptySpans folds units with no duration into the previous unit, or
// into the next one when they lead, so every unit keeps End > Start. It
// returns nil when no unit has a duration.
func mergeEmptySpans(units []segment.Segment) []segment.Segment {
	out := units[:0]
	var pending []string
	pendingStart := 0.0
	for _, u := range units {
		if u.End > u.Start {
			if len(pending) > 0 {
				u.Text = strings.Join(append(pending, u.Text), " ")
				u.Start = min(u.Start, pendingStart)
				pending = nil
			}
			out = append(out, u)
			continue
		}
		if n := len(out); n > 0 {
			out[n-1].Text += " " + u.Text
			out[n-1].End = max(out[n-1].End, u.End)
			continue
		}
		if len(pending) == 0 {
			pendingStart = u.Start
		}
		pending = append(pending, u.Text)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// fillWordTimes borrows neighbouring timestamps for words the engine could
// not align, keeping every word inside the segment span.
func fillWordTimes(seg RawSegment) []Word {
	words := make([]Word, len(seg.Words))
	copy(words, seg.Words)
	prevEnd := seg.Start
	for i := range words {
		if words[i].Start < 0 {
			words[i].Start = prevEnd
		}
		if words[i].End < 0 {
			words[i].End = words[i].Start
		}
		prevEnd = words[i].End
	}
	return words
}

func endsClause(word string) bool {
	r, _ := utf8.DecodeLastRuneInString(word)
	switch r {
	case '.', '?', '!', '。', '？', '！', '、':
		return true
	}
	return false
}

func splitSentences(seg RawSegment) []segment.Segment {
	text := clean(seg.Text)
	if text == "" {
		return nil
	}
	pieces := sentencePieces(text)
	if len(pieces) <= 1 {
		return []segment.Segment{{Start: seg.Start, End: seg.End, Text: text, Confidence: 1}}
	}

	total := 0
	for _, p := range pieces {
		total += utf8.RuneCountInString(p)
	}
	span := seg.End - seg.Start
	out := make([]segment.Segment, 0, len(pieces))
	cursor := seg.Start
	for i, p := range pieces {
		end := seg.End
		if i < len(pieces)-1 {
			end = min(cursor+span*float64(utf8.RuneCountInString(p))/float64(total), seg.End)
		}
		out = append(out, segment.Segment{Start: cursor, End: end, Text: p, Confidence: 1})
		cursor = end
	}
	return out
}

// sentencePieces splits text after each run of sentence punctuation. Text
// trailing the final punctuation is kept as its own piece.
func sentencePieces(text string) []string {
	var pieces []string
	last := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		if piece := strings.TrimSpace(text[last:loc[1]]); piece != "" {
			pieces = append(pieces, piece)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		pieces = append(pieces, rest)
	}
	return pieces
}

func clean(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
