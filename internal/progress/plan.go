package progress

import (
	"time"

	"subforge/internal/config"
)

// Stage names used by the pipeline.
const (
	StageInit       = "init"
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageValidate   = "validate"
	StageRender     = "render"
	StageSynthesize = "synthesize"
	StageAssemble   = "assemble"
	StageBurn       = "burn"
	StageMux        = "mux"
	StageDone       = "done"
)

// Multipliers convert media seconds into expected stage seconds.
type Multipliers struct {
	Transcribe float64
	Translate  float64
	Validate   float64
	Synthesize float64
	Burn       float64
	Overhead   time.Duration
	// MinMedia is the floor applied to the media duration, so very short or
	// unknown durations still give a usable estimate.
	MinMedia float64
}

// DefaultMultipliers returns the built-in estimates.
func DefaultMultipliers() Multipliers {
	return Multipliers{
		Transcribe: 1.2,
		Translate:  0.25,
		Validate:   0.15,
		Synthesize: 0.5,
		Burn:       0.5,
		Overhead:   8 * time.Second,
		MinMedia:   60,
	}
}

// MultipliersFromConfig maps the [progress] section.
func MultipliersFromConfig(cfg config.Progress) Multipliers {
	return Multipliers{
		Transcribe: cfg.TranscribeFactor,
		Translate:  cfg.TranslateFactor,
		Validate:   cfg.ValidateFactor,
		Synthesize: cfg.SynthesizeFactor,
		Burn:       cfg.BurnFactor,
		Overhead:   time.Duration(cfg.OverheadSeconds * float64(time.Second)),
		MinMedia:   cfg.MinMediaSeconds,
	}
}

// Mode selects which stages a plan contains.
type Mode struct {
	Dub      bool
	Validate bool
	Burn     bool
}

// StagePlan is one stage's expected duration and progress range.
type StagePlan struct {
	Name     string
	Expected time.Duration
	Base     float64
	Weight   float64
}

// Plan is the ordered set of stage estimates for one run.
type Plan struct {
	Stages []StagePlan
	Total  time.Duration
}

// NewPlan builds a plan for media of mediaSeconds. Captioning weights
// transcription 55 and translation 25 (20 when burning in, with 8 for the
// burn); validation takes 10 when enabled. Remaining percent belongs to
// rendering and bookkeeping.
func NewPlan(mediaSeconds float64, m Multipliers, mode Mode) Plan {
	media := max(mediaSeconds, m.MinMedia)
	seconds := func(factor float64) time.Duration {
		return time.Duration(media * factor * float64(time.Second))
	}

	type entry struct {
		name   string
		factor float64
		weight float64
	}
	var entries []entry
	if mode.Dub {
		entries = []entry{
			{StageTranscribe, m.Transcribe, 40},
			{StageTranslate, m.Translate, 15},
			{StageSynthesize, m.Synthesize, 35},
			{StageMux, 0, 5},
		}
	} else {
		translateWeight := 25.0
		if mode.Burn {
			translateWeight = 20
		}
		entries = []entry{
			{StageTranscribe, m.Transcribe, 55},
			{StageTranslate, m.Translate, translateWeight},
		}
		if mode.Validate {
			entries = append(entries, entry{StageValidate, m.Validate, 10})
		}
		entries = append(entries, entry{StageRender, 0, 2})
		if mode.Burn {
			entries = append(entries, entry{StageBurn, m.Burn, 8})
		}
	}

	plan := Plan{Total: m.Overhead}
	base := 0.0
	for _, e := range entries {
		expected := seconds(e.factor)
		plan.Stages = append(plan.Stages, StagePlan{Name: e.name, Expected: expected, Base: base, Weight: e.weight})
		plan.Total += expected
		base += e.weight
	}
	return plan
}

// Stage returns the plan entry for name.
func (p Plan) Stage(name string) (StagePlan, bool) {
	for _, stage := range p.Stages {
		if stage.Name == name {
			return stage, true
		}
	}
	return StagePlan{}, false
}
