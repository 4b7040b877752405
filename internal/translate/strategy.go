package translate

import (
	"fmt"
	"sort"
	"strings"

	"subforge/internal/language"
)

// Pair identifies a translation direction by ISO 639-1 codes.
type Pair struct {
	Source string
	Target string
}

func (p Pair) String() string {
	return p.Source + "-" + p.Target
}

// ParsePair parses "src-tgt" (as used in config model tables).
func ParsePair(value string) (Pair, error) {
	src, tgt, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok || src == "" || tgt == "" {
		return Pair{}, fmt.Errorf("invalid language pair %q", value)
	}
	return Pair{Source: normalizeLang(src), Target: normalizeLang(tgt)}, nil
}

// StrategyKind enumerates the ways a pair can be translated.
type StrategyKind int

const (
	// Passthrough returns texts untouched (source equals target).
	Passthrough StrategyKind = iota
	// Direct uses a bilingual model for the pair.
	Direct
	// Pivot translates source->Through->target.
	Pivot
	// CloudOnly sends every item to the cloud translator.
	CloudOnly
)

func (k StrategyKind) String() string {
	switch k {
	case Passthrough:
		return "passthrough"
	case Direct:
		return "direct"
	case Pivot:
		return "pivot"
	case CloudOnly:
		return "cloud"
	default:
		return fmt.Sprintf("strategy(%d)", int(k))
	}
}

// Strategy is the resolved plan for one Pair. Model is set for Direct,
// Through for Pivot.
type Strategy struct {
	Kind    StrategyKind
	Model   string
	Through string
}

func (s Strategy) String() string {
	switch s.Kind {
	case Direct:
		return "direct(" + s.Model + ")"
	case Pivot:
		return "pivot(" + s.Through + ")"
	default:
		return s.Kind.String()
	}
}

var defaultModels = map[Pair]string{
	{"ro", "en"}: "Helsinki-NLP/opus-mt-ro-en",
	{"en", "ro"}: "Helsinki-NLP/opus-mt-en-ro",
	{"ja", "en"}: "Helsinki-NLP/opus-mt-ja-en",
	{"en", "ja"}: "staka/fugumt-en-ja",
	{"zh", "en"}: "Helsinki-NLP/opus-mt-zh-en",
	{"en", "zh"}: "liam168/trans-opus-mt-en-zh",
	{"ru", "en"}: "Helsinki-NLP/opus-mt-ru-en",
	{"en", "ru"}: "Helsinki-NLP/opus-mt-en-ru",
	{"ja", "ru"}: "Helsinki-NLP/opus-mt-ja-ru",
	{"ru", "ja"}: "Helsinki-NLP/opus-mt-ru-ja",
	{"ro", "ru"}: "Helsinki-NLP/opus-mt-ro-ru",
	{"ru", "ro"}: "Helsinki-NLP/opus-mt-ru-ro",
	{"zh", "ru"}: "Helsinki-NLP/opus-mt-zh-ru",
	{"ru", "zh"}: "Helsinki-NLP/opus-mt-ru-zh",
}

// DefaultModels returns a copy of the built-in direct model table.
func DefaultModels() map[Pair]string {
	out := make(map[Pair]string, len(defaultModels))
	for pair, model := range defaultModels {
		out[pair] = model
	}
	return out
}

// PairTable maps language pairs to strategies. It is immutable after
// construction and safe for concurrent use.
type PairTable struct {
	pivot  string
	models map[Pair]string
	plans  map[Pair]Strategy
}

// NewPairTable builds a table from the default models plus overrides keyed
// "src-tgt". An override with an empty model removes the direct entry.
func NewPairTable(pivot string, overrides map[string]string) (*PairTable, error) {
	models := DefaultModels()
	for key, model := range overrides {
		pair, err := ParsePair(key)
		if err != nil {
			return nil, err
		}
		if model = strings.TrimSpace(model); model == "" {
			delete(models, pair)
			continue
		}
		models[pair] = model
	}
	pivot = normalizeLang(pivot)
	if pivot == "" {
		pivot = "en"
	}

	table := &PairTable{pivot: pivot, models: models, plans: make(map[Pair]Strategy)}
	langs := table.languages()
	for _, src := range langs {
		for _, tgt := range langs {
			pair := Pair{src, tgt}
			table.plans[pair] = table.plan(pair)
		}
	}
	return table, nil
}

// Pivot returns the configured pivot language.
func (t *PairTable) Pivot() string {
	return t.pivot
}

// Resolve returns the strategy for src->tgt. Pairs involving languages
// outside the table are planned on demand.
func (t *PairTable) Resolve(src, tgt string) Strategy {
	pair := Pair{normalizeLang(src), normalizeLang(tgt)}
	if plan, ok := t.plans[pair]; ok {
		return plan
	}
	return t.plan(pair)
}

func (t *PairTable) plan(pair Pair) Strategy {
	switch {
	case pair.Source == pair.Target:
		return Strategy{Kind: Passthrough}
	case t.models[pair] != "":
		return Strategy{Kind: Direct, Model: t.models[pair]}
	case pair.Source != t.pivot && pair.Target != t.pivot:
		return Strategy{Kind: Pivot, Through: t.pivot}
	default:
		return Strategy{Kind: CloudOnly}
	}
}

// PlanEntry is one row of Plans.
type PlanEntry struct {
	Pair     Pair
	Strategy Strategy
}

// Plans lists every precomputed non-trivial pair in stable order.
func (t *PairTable) Plans() []PlanEntry {
	out := make([]PlanEntry, 0, len(t.plans))
	for pair, plan := range t.plans {
		if plan.Kind == Passthrough {
			continue
		}
		out = append(out, PlanEntry{Pair: pair, Strategy: plan})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pair.Source != out[j].Pair.Source {
			return out[i].Pair.Source < out[j].Pair.Source
		}
		return out[i].Pair.Target < out[j].Pair.Target
	})
	return out
}

func (t *PairTable) languages() []string {
	seen := map[string]struct{}{t.pivot: {}}
	for pair := range t.models {
		seen[pair.Source] = struct{}{}
		seen[pair.Target] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

func normalizeLang(code string) string {
	if iso := language.ToISO2(code); iso != "" {
		return iso
	}
	return strings.ToLower(strings.TrimSpace(code))
}
