package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/services/llm"
)

const (
	defaultWorkers           = 3
	defaultParallelThreshold = 20
	defaultCallTimeout       = 30 * time.Second

	confidenceUnavailable = 0.5
	confidenceUnchanged   = 0.7
	confidenceHallucinate = 0.3
	confidenceCeiling     = 0.95
)

const systemPrompt = "You are a professional subtitle translator. You validate and correct translations. " +
	"Reply with ONLY the corrected translation, without quotes, labels, or explanations."

// Completer is the subset of the LLM client the validator needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Result describes one validation call.
type Result struct {
	OriginalText         string
	InitialTranslation   string
	ValidatedTranslation string
	ConfidenceScore      float64
	ModelUsed            string
	ValidationTime       time.Duration
	Cached               bool
}

// CacheKey addresses a cached Result.
type CacheKey struct {
	Original string
	Source   string
	Target   string
}

// ResultCache stores validation results.
type ResultCache interface {
	Get(ctx context.Context, key CacheKey) (Result, bool)
	Put(ctx context.Context, key CacheKey, result Result)
}

// MemoryCache is an in-memory ResultCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[CacheKey]Result
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[CacheKey]Result)}
}

func (c *MemoryCache) Get(_ context.Context, key CacheKey) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.entries[key]
	return result, ok
}

func (c *MemoryCache) Put(_ context.Context, key CacheKey, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
}

// Options tunes a Validator.
type Options struct {
	PrimaryModel      string
	FallbackModel     string
	Workers           int
	ParallelThreshold int
	CallTimeout       time.Duration
	Temperature       float64
	TopP              float64
	MaxTokens         int
	Cache             ResultCache
	Logger            *slog.Logger
}

// Validator runs LLM validation. It is safe for concurrent use.
type Validator struct {
	client Completer
	opts   Options
	cache  ResultCache
	logger *slog.Logger
}

// New builds a Validator around client.
func New(client Completer, opts Options) *Validator {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.ParallelThreshold <= 0 {
		opts.ParallelThreshold = defaultParallelThreshold
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Validator{
		client: client,
		opts:   opts,
		cache:  cache,
		logger: logging.NewComponentLogger(opts.Logger, "validation"),
	}
}

// Validate checks translation of original from src to tgt.
func (v *Validator) Validate(ctx context.Context, original, translation, src, tgt string) Result {
	key := CacheKey{Original: original, Source: src, Target: tgt}
	if cached, ok := v.cache.Get(ctx, key); ok {
		cached.Cached = true
		cached.ValidationTime = 0
		return cached
	}

	started := time.Now()
	prompt := buildPrompt(original, translation, src, tgt)

	validated := v.call(ctx, v.opts.PrimaryModel, prompt)
	model := v.opts.PrimaryModel
	if validated == "" || validated == translation {
		validated = v.call(ctx, v.opts.FallbackModel, prompt)
		model = v.opts.FallbackModel
	}

	result := Result{
		OriginalText:       original,
		InitialTranslation: translation,
		ModelUsed:          model,
	}
	if validated == "" {
		result.ValidatedTranslation = translation
		result.ConfidenceScore = confidenceUnavailable
	} else {
		result.ValidatedTranslation = validated
		result.ConfidenceScore = Confidence(original, translation, validated)
	}
	result.ValidationTime = time.Since(started)

	// Outage results are not stored so a later run validates again.
	if validated != "" {
		v.cache.Put(ctx, key, result)
	}
	return result
}

// call returns "" on any failure so callers treat it like an empty reply.
func (v *Validator) call(ctx context.Context, model, prompt string) string {
	if v.client == nil || strings.TrimSpace(model) == "" {
		return ""
	}
	callCtx, cancel := context.WithTimeout(ctx, v.opts.CallTimeout)
	defer cancel()
	text, err := v.client.Complete(callCtx, llm.Request{
		Model:       model,
		System:      systemPrompt,
		User:        prompt,
		Temperature: v.opts.Temperature,
		TopP:        v.opts.TopP,
		MaxTokens:   v.opts.MaxTokens,
	})
	if err != nil {
		v.logger.Debug("llm validation call failed",
			logging.String("model", model),
			logging.Error(err),
		)
		return ""
	}
	return cleanReply(text)
}

// Confidence scores a validated translation. Unchanged output keeps a
// neutral 0.7; output over three times the original length is treated as a
// hallucination; otherwise a plausible length ratio scores 0.9.
func Confidence(original, initial, validated string) float64 {
	if validated == "" || validated == initial {
		return confidenceUnchanged
	}
	origLen := utf8.RuneCountInString(original)
	valLen := utf8.RuneCountInString(validated)
	if valLen > origLen*3 {
		return confidenceHallucinate
	}
	lengthScore := 0.5
	ratio := float64(valLen) / float64(max(origLen, 1))
	if ratio > 0.5 && ratio < 2.0 {
		lengthScore = 1.0
	}
	return min(confidenceCeiling, lengthScore*0.9)
}

func buildPrompt(original, translation, src, tgt string) string {
	srcName := language.DisplayName(src)
	tgtName := language.DisplayName(tgt)
	var b strings.Builder
	fmt.Fprintf(&b, "ORIGINAL TEXT (%s):\n%s\n\n", srcName, original)
	fmt.Fprintf(&b, "INITIAL TRANSLATION (%s):\n%s\n\n", tgtName, translation)
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Check that the translation is correct and complete.\n")
	b.WriteString("2. Keep the meaning and tone of the original.\n")
	b.WriteString("3. Fix grammar and phrasing errors.\n")
	fmt.Fprintf(&b, "4. Make the translation sound natural in %s.\n", tgtName)
	b.WriteString("5. This is a subtitle: keep it concise and clear.\n\n")
	b.WriteString("REPLY ONLY WITH THE CORRECTED OR VALIDATED TRANSLATION:")
	return b.String()
}

// cleanReply strips wrapping quotes and label prefixes some models add.
func cleanReply(text string) string {
	text = strings.TrimSpace(text)
	for _, label := range []string{"Corrected translation:", "Translation:", "CORRECTED TRANSLATION:"} {
		if strings.HasPrefix(text, label) {
			text = strings.TrimSpace(strings.TrimPrefix(text, label))
		}
	}
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			text = strings.TrimSpace(text[1 : len(text)-1])
		}
	}
	return text
}
