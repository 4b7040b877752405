package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"subforge/internal/segment"
	"subforge/internal/services"
)

type fakeDirect struct {
	mu     sync.Mutex
	calls  []string
	handle func(model string, texts []string) ([]string, error)
}

func (f *fakeDirect) TranslateBatch(_ context.Context, model string, texts []string, src, tgt string) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf("%s-%s:%d", src, tgt, len(texts)))
	f.mu.Unlock()
	return f.handle(model, texts)
}

type fakeCloud struct {
	mu      sync.Mutex
	calls   int
	replies map[string]string
	err     error
}

func (f *fakeCloud) Translate(_ context.Context, text, src, tgt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if reply, ok := f.replies[text]; ok {
		return reply, nil
	}
	return "", errors.New("no reply configured")
}

func newTestOrchestrator(t *testing.T, direct BatchEngine, cloud ItemEngine, cache Cache) *Orchestrator {
	t.Helper()
	table, err := NewPairTable("en", nil)
	if err != nil {
		t.Fatalf("NewPairTable returned error: %v", err)
	}
	return New(table, direct, cloud, Options{Cache: cache})
}

func TestTranslateBatchKeepsPlaceholderForBlank(t *testing.T) {
	direct := &fakeDirect{handle: func(_ string, texts []string) ([]string, error) {
		if len(texts) != 2 || texts[1] != "..." {
			return nil, fmt.Errorf("unexpected batch %q", texts)
		}
		return []string{"Salut", "..."}, nil
	}}
	orch := newTestOrchestrator(t, direct, nil, nil)

	got := orch.TranslateBatch(context.Background(), []string{"Hello", ""}, "en", "ro")
	want := []string{"Salut", "..."}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %q", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("item %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTranslateBatchLengthInvariant(t *testing.T) {
	tests := []struct {
		name   string
		handle func(string, []string) ([]string, error)
	}{
		{"exact", func(_ string, texts []string) ([]string, error) {
			out := make([]string, len(texts))
			for i := range texts {
				out[i] = "Salut " + fmt.Sprint(i)
			}
			return out, nil
		}},
		{"short", func(_ string, texts []string) ([]string, error) {
			return []string{"Salut"}, nil
		}},
		{"long", func(_ string, texts []string) ([]string, error) {
			return make([]string, len(texts)+3), nil
		}},
		{"empty", func(string, []string) ([]string, error) { return nil, nil }},
		{"error", func(string, []string) ([]string, error) {
			return nil, services.Wrap(services.ErrExternalTool, "translate", "model", "down", nil)
		}},
	}
	for _, tt := range tests {
		for _, n := range []int{1, 2, 7, 16} {
			t.Run(fmt.Sprintf("%s/%d", tt.name, n), func(t *testing.T) {
				orch := newTestOrchestrator(t, &fakeDirect{handle: tt.handle}, &fakeCloud{err: errors.New("offline")}, nil)
				texts := make([]string, n)
				for i := range texts {
					texts[i] = fmt.Sprintf("sentence number %d", i)
				}
				if got := orch.TranslateBatch(context.Background(), texts, "en", "ro"); len(got) != n {
					t.Fatalf("expected %d outputs, got %d", n, len(got))
				}
			})
		}
	}
}

func TestTranslateBatchPadsShortOutputWithSource(t *testing.T) {
	direct := &fakeDirect{handle: func(_ string, texts []string) ([]string, error) {
		return []string{"Salut"}, nil
	}}
	orch := newTestOrchestrator(t, direct, nil, NewMemoryCache())

	got := orch.TranslateBatch(context.Background(), []string{"Hello", "Good  morning"}, "en", "ro")
	if got[0] != "Salut" || got[1] != "Good morning" {
		t.Fatalf("unexpected result %q", got)
	}
	if orch.Stats().PaddedItems != 1 {
		t.Fatalf("expected one padded item, got %+v", orch.Stats())
	}
}

func TestTranslateBatchRetriesWrongScriptThroughCloud(t *testing.T) {
	direct := &fakeDirect{handle: func(_ string, texts []string) ([]string, error) {
		return []string{"Hello friend", "Goodbye friend"}, nil
	}}
	cloud := &fakeCloud{replies: map[string]string{
		"Hello friend":   "Привет, друг",
		"Goodbye friend": "Goodbye friend",
	}}
	orch := newTestOrchestrator(t, direct, cloud, nil)

	got := orch.TranslateBatch(context.Background(), []string{"Hello friend", "Goodbye friend"}, "en", "ru")
	if got[0] != "Привет, друг" {
		t.Fatalf("expected cloud retry to succeed, got %q", got[0])
	}
	if got[1] != "Goodbye friend" {
		t.Fatalf("expected source text after failed retry, got %q", got[1])
	}
	stats := orch.Stats()
	if stats.CloudItems != 1 || stats.SourceFallbacks != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestTranslateBatchFallsBackToCloudOnModelError(t *testing.T) {
	direct := &fakeDirect{handle: func(string, []string) ([]string, error) {
		return nil, context.DeadlineExceeded
	}}
	cloud := &fakeCloud{replies: map[string]string{"Hello": "Salut", "World": "Lume"}}
	orch := newTestOrchestrator(t, direct, cloud, nil)

	got := orch.TranslateBatch(context.Background(), []string{"Hello", "World"}, "en", "ro")
	if strings.Join(got, "|") != "Salut|Lume" {
		t.Fatalf("unexpected result %q", got)
	}
	if cloud.calls != 2 {
		t.Fatalf("expected 2 cloud calls, got %d", cloud.calls)
	}
}

func TestTranslateBatchCloudOnlyWithoutEngineReturnsSource(t *testing.T) {
	orch := newTestOrchestrator(t, nil, nil, nil)
	got := orch.TranslateBatch(context.Background(), []string{"Bonjour"}, "fr", "en")
	if len(got) != 1 || got[0] != "Bonjour" {
		t.Fatalf("expected source text, got %q", got)
	}
}

func TestTranslateBatchPivotsThroughEnglish(t *testing.T) {
	direct := &fakeDirect{handle: func(model string, texts []string) ([]string, error) {
		switch model {
		case "Helsinki-NLP/opus-mt-ro-en":
			return []string{"Good morning"}, nil
		case "staka/fugumt-en-ja":
			if texts[0] != "Good morning" {
				return nil, fmt.Errorf("unexpected pivot input %q", texts[0])
			}
			return []string{"おはようございます"}, nil
		}
		return nil, fmt.Errorf("unexpected model %s", model)
	}}
	orch := newTestOrchestrator(t, direct, nil, nil)

	got := orch.TranslateBatch(context.Background(), []string{"Bună dimineața"}, "ro", "ja")
	if got[0] != "おはようございます" {
		t.Fatalf("unexpected pivot result %q", got)
	}
	if strings.Join(direct.calls, ",") != "ro-en:1,en-ja:1" {
		t.Fatalf("unexpected call order %v", direct.calls)
	}
}

func TestTranslateBatchSameLanguagePassthrough(t *testing.T) {
	direct := &fakeDirect{handle: func(string, []string) ([]string, error) {
		t.Fatal("engine must not be called")
		return nil, nil
	}}
	orch := newTestOrchestrator(t, direct, nil, nil)
	got := orch.TranslateBatch(context.Background(), []string{"  keep  me "}, "en", "EN")
	if got[0] != "  keep  me " {
		t.Fatalf("expected untouched text, got %q", got[0])
	}
}

func TestTranslateBatchUsesCache(t *testing.T) {
	direct := &fakeDirect{handle: func(_ string, texts []string) ([]string, error) {
		return []string{"Salut"}, nil
	}}
	cache := NewMemoryCache()
	orch := newTestOrchestrator(t, direct, nil, cache)

	for i := 0; i < 3; i++ {
		got := orch.TranslateBatch(context.Background(), []string{"Hello"}, "en", "ro")
		if got[0] != "Salut" {
			t.Fatalf("call %d: unexpected result %q", i, got)
		}
	}
	if len(direct.calls) != 1 {
		t.Fatalf("expected a single engine call, got %d", len(direct.calls))
	}
	if orch.Stats().CacheHits != 2 || cache.Len() != 1 {
		t.Fatalf("unexpected cache usage: stats=%+v len=%d", orch.Stats(), cache.Len())
	}
}

func TestTranslateBatchDoesNotCacheDegradedResults(t *testing.T) {
	direct := &fakeDirect{handle: func(string, []string) ([]string, error) {
		return nil, errors.New("boom")
	}}
	cache := NewMemoryCache()
	orch := newTestOrchestrator(t, direct, nil, cache)

	orch.TranslateBatch(context.Background(), []string{"Hello"}, "en", "ro")
	if cache.Len() != 0 {
		t.Fatalf("expected degraded batch to stay uncached, got %d entries", cache.Len())
	}
}

func TestTranslateSegments(t *testing.T) {
	direct := &fakeDirect{handle: func(_ string, texts []string) ([]string, error) {
		out := make([]string, len(texts))
		for i, text := range texts {
			out[i] = "ro " + text
		}
		return out, nil
	}}
	table, err := NewPairTable("en", nil)
	if err != nil {
		t.Fatalf("NewPairTable returned error: %v", err)
	}
	orch := New(table, direct, nil, Options{BatchSize: 2})

	segs := []segment.Segment{
		{Start: 0, End: 1, Text: "one", Confidence: 1},
		{Start: 1, End: 2, Text: "two", Confidence: 1},
		{Start: 2, End: 3.5, Text: "three", Confidence: 0.8},
	}
	var progress [][2]int
	got := orch.TranslateSegments(context.Background(), segs, "en", "ro", func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})

	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(got))
	}
	for i, seg := range got {
		if seg.Start != segs[i].Start || seg.End != segs[i].End {
			t.Fatalf("segment %d timing changed: %+v", i, seg)
		}
		if seg.Text != "ro "+segs[i].Text {
			t.Fatalf("segment %d text = %q", i, seg.Text)
		}
		if seg.OriginalText == nil || *seg.OriginalText != segs[i].Text {
			t.Fatalf("segment %d original text not recorded", i)
		}
		if want := segs[i].Confidence * 0.95; seg.Confidence != want {
			t.Fatalf("segment %d confidence = %v, want %v", i, seg.Confidence, want)
		}
	}
	if segs[0].OriginalText != nil || segs[0].Text != "one" {
		t.Fatal("input segments must not be mutated")
	}
	if len(direct.calls) != 2 {
		t.Fatalf("expected 2 batches, got %v", direct.calls)
	}
	if len(progress) != 2 || progress[1] != [2]int{3, 3} {
		t.Fatalf("unexpected progress calls %v", progress)
	}
}

func TestAsEngineErrorClassifies(t *testing.T) {
	tests := []struct {
		err  error
		want FailureKind
	}{
		{context.DeadlineExceeded, TimedOut},
		{services.Wrap(services.ErrTimeout, "translate", "cloud", "slow", nil), TimedOut},
		{fmt.Errorf("wrapped: %w", ErrEmptyOutput), EmptyOutput},
		{errors.New("connection refused"), ModelUnavailable},
		{&EngineError{Kind: LanguageMismatch, Engine: "x"}, LanguageMismatch},
	}
	for _, tt := range tests {
		if got := AsEngineError("direct", tt.err); got.Kind != tt.want {
			t.Fatalf("AsEngineError(%v) kind = %v, want %v", tt.err, got.Kind, tt.want)
		}
	}
	if AsEngineError("direct", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestLayeredCacheFillsFront(t *testing.T) {
	ctx := context.Background()
	front, back := NewMemoryCache(), NewMemoryCache()
	key := Key{Source: "en", Target: "ro", Texts: []string{"Hello"}}
	back.Put(ctx, key, []string{"Salut"})

	layered := Layered{Front: front, Back: back}
	got, ok := layered.Get(ctx, key)
	if !ok || got[0] != "Salut" {
		t.Fatalf("expected back hit, got %v %v", got, ok)
	}
	if front.Len() != 1 {
		t.Fatal("expected front to be filled")
	}
	if (Key{Source: "en", Target: "ro", Texts: []string{"a", "b"}}).Digest() == (Key{Source: "en", Target: "ro", Texts: []string{"ab"}}).Digest() {
		t.Fatal("digest must separate texts")
	}
}
