package translate

import "testing"

func TestPairTableResolve(t *testing.T) {
	table, err := NewPairTable("en", nil)
	if err != nil {
		t.Fatalf("NewPairTable returned error: %v", err)
	}
	tests := []struct {
		src, tgt string
		want     Strategy
	}{
		{"en", "ro", Strategy{Kind: Direct, Model: "Helsinki-NLP/opus-mt-en-ro"}},
		{"eng", "jpn", Strategy{Kind: Direct, Model: "staka/fugumt-en-ja"}},
		{"ru", "zh", Strategy{Kind: Direct, Model: "Helsinki-NLP/opus-mt-ru-zh"}},
		{"ro", "ja", Strategy{Kind: Pivot, Through: "en"}},
		{"fr", "de", Strategy{Kind: Pivot, Through: "en"}},
		{"en", "fr", Strategy{Kind: CloudOnly}},
		{"fr", "en", Strategy{Kind: CloudOnly}},
		{"ro", "RO", Strategy{Kind: Passthrough}},
	}
	for _, tt := range tests {
		t.Run(tt.src+"-"+tt.tgt, func(t *testing.T) {
			if got := table.Resolve(tt.src, tt.tgt); got != tt.want {
				t.Fatalf("Resolve(%q, %q) = %v, want %v", tt.src, tt.tgt, got, tt.want)
			}
		})
	}
}

func TestPairTableOverrides(t *testing.T) {
	table, err := NewPairTable("en", map[string]string{
		"en-fr": "Helsinki-NLP/opus-mt-en-fr",
		"en-ro": "",
	})
	if err != nil {
		t.Fatalf("NewPairTable returned error: %v", err)
	}
	if got := table.Resolve("en", "fr"); got.Kind != Direct || got.Model != "Helsinki-NLP/opus-mt-en-fr" {
		t.Fatalf("expected override model, got %v", got)
	}
	if got := table.Resolve("en", "ro"); got.Kind != CloudOnly {
		t.Fatalf("expected removed pair to fall back to cloud, got %v", got)
	}
	if _, err := NewPairTable("en", map[string]string{"enfr": "x"}); err == nil {
		t.Fatal("expected malformed pair to be rejected")
	}
}

func TestPairTablePlansAreSortedAndSkipPassthrough(t *testing.T) {
	table, err := NewPairTable("en", nil)
	if err != nil {
		t.Fatalf("NewPairTable returned error: %v", err)
	}
	plans := table.Plans()
	if len(plans) == 0 {
		t.Fatal("expected plans")
	}
	direct := 0
	for i, entry := range plans {
		if entry.Strategy.Kind == Passthrough {
			t.Fatalf("unexpected passthrough entry %v", entry.Pair)
		}
		if entry.Strategy.Kind == Direct {
			direct++
		}
		if i > 0 && plans[i-1].Pair.String() > entry.Pair.String() {
			t.Fatalf("plans not sorted at %d", i)
		}
	}
	if direct != 14 {
		t.Fatalf("expected 14 direct pairs, got %d", direct)
	}
}

func TestStrategyString(t *testing.T) {
	if got := (Strategy{Kind: Pivot, Through: "en"}).String(); got != "pivot(en)" {
		t.Fatalf("unexpected pivot string %q", got)
	}
	if got := (Strategy{Kind: CloudOnly}).String(); got != "cloud" {
		t.Fatalf("unexpected cloud string %q", got)
	}
}
