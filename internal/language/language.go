package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
	cloud   string   // Code expected by the cloud translator, when it differs
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}, ""},
	{"ro", "ron", "rum", "Romanian", []string{"romanian", "moldovan"}, ""},
	{"ru", "rus", "", "Russian", []string{"russian"}, ""},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}, ""},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin"}, "zh-CN"},
	{"es", "spa", "", "Spanish", []string{"spanish"}, ""},
	{"fr", "fra", "fre", "French", []string{"french"}, ""},
	{"de", "deu", "ger", "German", []string{"german"}, ""},
	{"it", "ita", "", "Italian", []string{"italian"}, ""},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}, ""},
	{"ko", "kor", "", "Korean", []string{"korean"}, ""},
	{"uk", "ukr", "", "Ukrainian", []string{"ukrainian"}, ""},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}, ""},
	{"pl", "pol", "", "Polish", []string{"polish"}, ""},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts a language code, English language name, or BCP 47 tag to
// ISO 639-1. Unknown two-letter codes pass through; anything else that cannot
// be resolved returns "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return ""
	}
	iso := base.String()
	if len(iso) != 2 {
		return ""
	}
	return iso
}

// DisplayName returns a human-readable English language name for any
// recognized code. Returns "Unknown" for empty input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	if iso := ToISO2(code); iso != "" {
		if tag, err := xlanguage.Parse(iso); err == nil {
			if name := display.English.Languages().Name(tag); name != "" {
				return cases.Title(xlanguage.English).String(name)
			}
		}
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// CloudCode returns the code the cloud translator expects for lang.
func CloudCode(lang string) string {
	iso := ToISO2(lang)
	if e := lookup(iso); e != nil && e.cloud != "" {
		return e.cloud
	}
	if iso == "" {
		return strings.ToLower(strings.TrimSpace(lang))
	}
	return iso
}

// Known reports whether code resolves to a language in the built-in table.
func Known(code string) bool {
	return lookup(ToISO2(code)) != nil
}
