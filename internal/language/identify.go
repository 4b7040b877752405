package language

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Identifier decides whether text is written in the expected language.
// Implementations must be safe for concurrent use.
type Identifier interface {
	Matches(text, lang string) bool
}

// ScriptIdentifier checks the share of characters falling in the script a
// language is written in. It is an approximation: short mixed-script strings
// can pass or fail incorrectly. Languages without a rule always match.
type ScriptIdentifier struct {
	// MinLength is the trimmed rune length below which any text matches.
	MinLength int
}

// scriptRule is the minimum share of runes (over the whole text, spaces and
// punctuation included) that must satisfy match.
type scriptRule struct {
	share float64
	match func(r rune) bool
}

var scriptRules = map[string]scriptRule{
	"ru": {0.5, isCyrillic},
	"uk": {0.5, isCyrillic},
	"zh": {0.5, isHan},
	"ja": {0.3, func(r rune) bool { return isKana(r) || isHan(r) }},
	"ro": {0.7, func(r rune) bool { return unicode.IsLetter(r) && r < 0x0400 }},
	"en": {0.9, func(r rune) bool { return r < 128 }},
}

// NewScriptIdentifier returns the default heuristic identifier.
func NewScriptIdentifier() ScriptIdentifier {
	return ScriptIdentifier{MinLength: 3}
}

// Matches implements Identifier.
func (s ScriptIdentifier) Matches(text, lang string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < s.MinLength {
		return true
	}
	rule, ok := scriptRules[ToISO2(lang)]
	if !ok {
		return true
	}
	total, hits := 0, 0
	for _, r := range text {
		total++
		if rule.match(r) {
			hits++
		}
	}
	return float64(hits) > float64(total)*rule.share
}

func isCyrillic(r rune) bool { return r >= 0x0400 && r <= 0x04FF }

func isHan(r rune) bool { return r >= 0x4E00 && r <= 0x9FFF }

func isKana(r rune) bool { return r >= 0x3040 && r <= 0x30FF }
