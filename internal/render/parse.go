package render

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"subforge/internal/segment"
)

var advertPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)opensubtitles`),
	regexp.MustCompile(`(?i)subtitles? by`),
	regexp.MustCompile(`(?i)synced? and corrected`),
	regexp.MustCompile(`(?i)http(s)?://`),
	regexp.MustCompile(`(?i)\bwww\.`),
}

// ParseResult is the outcome of ParseSRT.
type ParseResult struct {
	Segments []segment.Segment
	// Skipped counts malformed blocks.
	Skipped int
	// Adverts counts cues dropped because they carry release-group or site
	// credits rather than dialogue.
	Adverts int
}

// ParseSRT reads an SRT document. Cue text lines are joined with a single
// space since captions are re-wrapped on output. Malformed blocks are
// skipped and counted. Every parsed segment has confidence 1.
func ParseSRT(r io.Reader) (ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ParseResult{}, fmt.Errorf("read srt: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	content := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))

	var result ParseResult
	if content == "" {
		return result, nil
	}
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		seg, ok := parseBlock(strings.Split(block, "\n"))
		if !ok {
			result.Skipped++
			continue
		}
		if isAdvert(seg.Text) {
			result.Adverts++
			continue
		}
		result.Segments = append(result.Segments, seg)
	}
	return result, nil
}

func parseBlock(lines []string) (segment.Segment, bool) {
	if len(lines) > 0 && isNumeric(lines[0]) {
		lines = lines[1:]
	}
	if len(lines) < 2 {
		return segment.Segment{}, false
	}
	startText, endText, ok := strings.Cut(lines[0], "-->")
	if !ok {
		return segment.Segment{}, false
	}
	start, err := ParseTimestamp(startText)
	if err != nil {
		return segment.Segment{}, false
	}
	// VTT-style cue settings may follow the end timestamp.
	endFields := strings.Fields(endText)
	if len(endFields) == 0 {
		return segment.Segment{}, false
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil || end <= start {
		return segment.Segment{}, false
	}

	text := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			text = append(text, trimmed)
		}
	}
	if len(text) == 0 {
		return segment.Segment{}, false
	}
	return segment.Segment{
		Start:      start,
		End:        end,
		Text:       strings.Join(text, " "),
		Confidence: 1,
	}, true
}

func isAdvert(text string) bool {
	for _, pattern := range advertPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func isNumeric(value string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(value))
	return err == nil
}
