package translate

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"subforge/internal/language"
	"subforge/internal/logging"
)

const (
	defaultPlaceholder = "..."
	defaultBatchSize   = 16
)

// BatchEngine translates a whole batch with a named bilingual model. The
// returned slice may be shorter than texts; the orchestrator pads it.
type BatchEngine interface {
	TranslateBatch(ctx context.Context, model string, texts []string, src, tgt string) ([]string, error)
}

// ItemEngine translates one text at a time.
type ItemEngine interface {
	Translate(ctx context.Context, text, src, tgt string) (string, error)
}

// Options tunes an Orchestrator.
type Options struct {
	Placeholder string
	BatchSize   int
	Identifier  language.Identifier
	Cache       Cache
	Logger      *slog.Logger
}

// Stats counts how items were resolved since construction.
type Stats struct {
	Batches         int64
	CacheHits       int64
	ModelItems      int64
	CloudItems      int64
	SourceFallbacks int64
	PaddedItems     int64
}

// Orchestrator executes translation strategies. It is safe for concurrent use.
type Orchestrator struct {
	table       *PairTable
	direct      BatchEngine
	cloud       ItemEngine
	cache       Cache
	identifier  language.Identifier
	placeholder string
	batchSize   int
	logger      *slog.Logger

	batches         atomic.Int64
	cacheHits       atomic.Int64
	modelItems      atomic.Int64
	cloudItems      atomic.Int64
	sourceFallbacks atomic.Int64
	paddedItems     atomic.Int64
}

// New builds an Orchestrator. direct and cloud may be nil; missing engines
// behave as permanently unavailable.
func New(table *PairTable, direct BatchEngine, cloud ItemEngine, opts Options) *Orchestrator {
	if table == nil {
		table, _ = NewPairTable("en", nil)
	}
	if opts.Placeholder == "" {
		opts.Placeholder = defaultPlaceholder
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Identifier == nil {
		opts.Identifier = language.NewScriptIdentifier()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Orchestrator{
		table:       table,
		direct:      direct,
		cloud:       cloud,
		cache:       opts.Cache,
		identifier:  opts.Identifier,
		placeholder: opts.Placeholder,
		batchSize:   opts.BatchSize,
		logger:      logging.NewComponentLogger(opts.Logger, "translate"),
	}
}

// Table returns the pair table in use.
func (o *Orchestrator) Table() *PairTable {
	return o.table
}

// Strategy returns the resolved strategy for src->tgt.
func (o *Orchestrator) Strategy(src, tgt string) Strategy {
	return o.table.Resolve(src, tgt)
}

// Stats returns a snapshot of the counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Batches:         o.batches.Load(),
		CacheHits:       o.cacheHits.Load(),
		ModelItems:      o.modelItems.Load(),
		CloudItems:      o.cloudItems.Load(),
		SourceFallbacks: o.sourceFallbacks.Load(),
		PaddedItems:     o.paddedItems.Load(),
	}
}

// TranslateBatch translates texts from src to tgt. It never fails: items the
// engines cannot translate come back as their source text, and the result
// always has len(texts) elements.
func (o *Orchestrator) TranslateBatch(ctx context.Context, texts []string, src, tgt string) []string {
	out, _ := o.translate(ctx, texts, normalizeLang(src), normalizeLang(tgt))
	return out
}

// translate reports complete=false when any item fell back to its source
// text; such results are not cached.
func (o *Orchestrator) translate(ctx context.Context, texts []string, src, tgt string) ([]string, bool) {
	out := make([]string, len(texts))
	copy(out, texts)
	if len(texts) == 0 || src == tgt {
		return out, true
	}

	clean, blank := o.normalize(texts)
	if blank == len(texts) {
		return out, true
	}
	o.batches.Add(1)

	key := Key{Source: src, Target: tgt, Texts: clean}
	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, key); ok && len(cached) == len(clean) {
			o.cacheHits.Add(1)
			return cached, true
		}
	}

	strategy := o.table.Resolve(src, tgt)
	var (
		result   []string
		complete bool
	)
	switch strategy.Kind {
	case Direct:
		result, complete = o.translateDirect(ctx, strategy.Model, clean, src, tgt)
	case Pivot:
		mid, firstOK := o.translate(ctx, clean, src, strategy.Through)
		var secondOK bool
		result, secondOK = o.translate(ctx, mid, strategy.Through, tgt)
		complete = firstOK && secondOK
	default:
		result, complete = o.translateCloud(ctx, clean, src, tgt)
	}

	if complete && o.cache != nil {
		o.cache.Put(ctx, key, result)
	}
	return result, complete
}

// normalize collapses whitespace and substitutes the placeholder for blank
// entries so batch positions stay aligned.
func (o *Orchestrator) normalize(texts []string) ([]string, int) {
	clean := make([]string, len(texts))
	blank := 0
	for i, text := range texts {
		collapsed := strings.Join(strings.Fields(text), " ")
		if collapsed == "" {
			collapsed = o.placeholder
			blank++
		}
		clean[i] = collapsed
	}
	return clean, blank
}

func (o *Orchestrator) translateDirect(ctx context.Context, model string, clean []string, src, tgt string) ([]string, bool) {
	if o.direct == nil {
		o.logFallback(ctx, src, tgt, &EngineError{Kind: ModelUnavailable, Engine: "direct"})
		return o.translateCloud(ctx, clean, src, tgt)
	}
	raw, err := o.direct.TranslateBatch(ctx, model, clean, src, tgt)
	if err != nil {
		o.logFallback(ctx, src, tgt, AsEngineError("direct", err))
		return o.translateCloud(ctx, clean, src, tgt)
	}

	if len(raw) != len(clean) {
		o.logger.Warn("model output length mismatch",
			logging.String(logging.FieldEventType, "translation_length_mismatch"),
			logging.String("model", model),
			logging.Int("expected", len(clean)),
			logging.Int("received", len(raw)),
			logging.String(logging.FieldImpact, "missing items keep their source text"),
		)
	}

	out := make([]string, len(clean))
	complete := true
	for i, source := range clean {
		if source == o.placeholder {
			out[i] = source
			continue
		}
		if i >= len(raw) {
			out[i] = source
			o.paddedItems.Add(1)
			complete = false
			continue
		}
		text, engineErr := o.checkOutput("direct", raw[i], tgt)
		if engineErr == nil {
			out[i] = text
			o.modelItems.Add(1)
			continue
		}
		o.logger.Debug("model output rejected",
			logging.String("reason", engineErr.Kind.String()),
			logging.String("source", source),
			logging.String("output", raw[i]),
		)
		text, ok := o.cloudItem(ctx, source, src, tgt, true)
		out[i] = text
		complete = complete && ok
	}
	return out, complete
}

func (o *Orchestrator) translateCloud(ctx context.Context, clean []string, src, tgt string) ([]string, bool) {
	out := make([]string, len(clean))
	complete := true
	for i, source := range clean {
		if source == o.placeholder {
			out[i] = source
			continue
		}
		text, ok := o.cloudItem(ctx, source, src, tgt, false)
		out[i] = text
		complete = complete && ok
	}
	return out, complete
}

// cloudItem translates one item through the cloud engine. When verify is
// set the output must also pass the script check. On any failure the source
// text is returned with ok=false.
func (o *Orchestrator) cloudItem(ctx context.Context, source, src, tgt string, verify bool) (string, bool) {
	if o.cloud == nil {
		o.sourceFallbacks.Add(1)
		return source, false
	}
	raw, err := o.cloud.Translate(ctx, source, src, tgt)
	if err != nil {
		o.sourceFallbacks.Add(1)
		engineErr := AsEngineError("cloud", err)
		o.logger.Debug("cloud translation failed",
			logging.String("reason", engineErr.Kind.String()),
			logging.Error(err),
		)
		return source, false
	}
	var engineErr *EngineError
	if verify {
		raw, engineErr = o.checkOutput("cloud", raw, tgt)
	} else if raw = strings.TrimSpace(raw); raw == "" {
		engineErr = &EngineError{Kind: EmptyOutput, Engine: "cloud"}
	}
	if engineErr != nil {
		o.sourceFallbacks.Add(1)
		o.logger.Debug("cloud output rejected", logging.String("reason", engineErr.Kind.String()))
		return source, false
	}
	o.cloudItems.Add(1)
	return raw, true
}

func (o *Orchestrator) checkOutput(engine, raw, tgt string) (string, *EngineError) {
	text := strings.TrimSpace(raw)
	switch {
	case text == "" || text == o.placeholder:
		return "", &EngineError{Kind: EmptyOutput, Engine: engine}
	case !o.identifier.Matches(text, tgt):
		return "", &EngineError{Kind: LanguageMismatch, Engine: engine}
	}
	return text, nil
}

func (o *Orchestrator) logFallback(ctx context.Context, src, tgt string, err *EngineError) {
	logging.WarnWithContext(logging.WithContext(ctx, o.logger), "direct model failed; using cloud translator",
		"translation_fallback",
		logging.String("pair", src+"-"+tgt),
		logging.String("reason", err.Kind.String()),
		logging.Error(err),
		logging.String(logging.FieldImpact, "batch translated item by item through the cloud engine"),
		logging.String(logging.FieldErrorHint, "check that the model server is running and serves this pair"),
	)
}
