package validation

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"subforge/internal/logging"
	"subforge/internal/segment"
)

const (
	doubleMatchConfidence    = 0.95
	doubleMismatchConfidence = 0.7
	preferPrimaryAbove       = 0.7
)

// Outcome labels how a segment's validation resolved.
type Outcome string

const (
	OutcomeSkipped        Outcome = "skipped"
	OutcomeValidated      Outcome = "validated"
	OutcomeDoubleMatch    Outcome = "double_match"
	OutcomeDoubleMismatch Outcome = "double_mismatch"
)

// Report summarises a segment validation pass.
type Report struct {
	Total         int
	Outcomes      map[Outcome]int
	ByModel       map[string]int
	Changed       int
	AvgConfidence float64
	Parallel      bool
}

type segmentResult struct {
	seg     segment.Segment
	outcome Outcome
	model   string
	changed bool
}

// ValidateSegments validates every translated segment. Segments without a
// recorded original or with empty text pass through untouched.
func (v *Validator) ValidateSegments(ctx context.Context, segs []segment.Segment, src, tgt string) ([]segment.Segment, Report) {
	return v.run(ctx, segs, func(ctx context.Context, seg segment.Segment) segmentResult {
		original, translation := seg.Source(), seg.Text
		result := v.Validate(ctx, original, translation, src, tgt)
		seg.Text = result.ValidatedTranslation
		seg.Confidence = result.ConfidenceScore
		return segmentResult{
			seg:     seg,
			outcome: OutcomeValidated,
			model:   result.ModelUsed,
			changed: result.ValidatedTranslation != translation,
		}
	})
}

// DoubleValidate cross-checks each segment with the primary validation and a
// direct fallback-model call. Agreement scores 0.95; on disagreement the
// primary result wins only when its own confidence exceeds 0.7.
func (v *Validator) DoubleValidate(ctx context.Context, segs []segment.Segment, src, tgt string) ([]segment.Segment, Report) {
	return v.run(ctx, segs, func(ctx context.Context, seg segment.Segment) segmentResult {
		original, translation := seg.Source(), seg.Text
		first := v.Validate(ctx, original, translation, src, tgt)
		second := v.call(ctx, v.opts.FallbackModel, buildPrompt(original, translation, src, tgt))

		out := segmentResult{model: first.ModelUsed}
		if first.ValidatedTranslation == second {
			seg.Text = first.ValidatedTranslation
			seg.Confidence = doubleMatchConfidence
			out.outcome = OutcomeDoubleMatch
		} else {
			switch {
			case first.ConfidenceScore > preferPrimaryAbove:
				seg.Text = first.ValidatedTranslation
			case second != "":
				seg.Text = second
				out.model = v.opts.FallbackModel
			default:
				seg.Text = translation
			}
			seg.Confidence = doubleMismatchConfidence
			out.outcome = OutcomeDoubleMismatch
		}
		out.seg = seg
		out.changed = seg.Text != translation
		return out
	})
}

// run applies fn to each eligible segment, sequentially or through a bounded
// pool when the track exceeds ParallelThreshold. Results are stored by index.
func (v *Validator) run(ctx context.Context, segs []segment.Segment, fn func(context.Context, segment.Segment) segmentResult) ([]segment.Segment, Report) {
	results := make([]segmentResult, len(segs))
	for i, seg := range segs {
		results[i] = segmentResult{seg: seg, outcome: OutcomeSkipped}
	}

	eligible := func(seg segment.Segment) bool {
		return seg.OriginalText != nil && *seg.OriginalText != "" && seg.Text != ""
	}

	parallel := len(segs) > v.opts.ParallelThreshold
	if parallel {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(v.opts.Workers)
		for i, seg := range segs {
			if !eligible(seg) {
				continue
			}
			group.Go(func() error {
				results[i] = fn(groupCtx, seg)
				return nil
			})
		}
		_ = group.Wait()
	} else {
		for i, seg := range segs {
			if eligible(seg) {
				results[i] = fn(ctx, seg)
			}
		}
	}

	out := make([]segment.Segment, len(segs))
	report := Report{Total: len(segs), Outcomes: map[Outcome]int{}, ByModel: map[string]int{}, Parallel: parallel}
	for i, r := range results {
		out[i] = r.seg
		report.Outcomes[r.outcome]++
		if r.outcome != OutcomeSkipped && r.model != "" {
			report.ByModel[r.model]++
		}
		if r.changed {
			report.Changed++
		}
	}
	report.AvgConfidence = segment.AverageConfidence(out)
	v.logReport(ctx, report)
	return out, report
}

func (v *Validator) logReport(ctx context.Context, report Report) {
	attrs := []slog.Attr{
		logging.String(logging.FieldEventType, "validation_summary"),
		logging.Int("segments", report.Total),
		logging.Int("changed", report.Changed),
		logging.Float64("avg_confidence", report.AvgConfidence),
		logging.Bool("parallel", report.Parallel),
	}
	for outcome, count := range report.Outcomes {
		attrs = append(attrs, logging.Int(string(outcome), count))
	}
	v.logger.LogAttrs(ctx, slog.LevelInfo, "llm validation complete", attrs...)
}
