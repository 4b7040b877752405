package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"subforge/internal/logging"
)

// DefaultToleranceMs is the accepted gap between a fitted clip and its target.
const DefaultToleranceMs = 100

// Correction names the final length fix applied after stretching.
type Correction string

const (
	CorrectionNone Correction = ""
	CorrectionPad  Correction = "pad"
	CorrectionTrim Correction = "trim"
)

// FitReport describes what Fit did to one clip.
type FitReport struct {
	CurrentMs   int
	TargetMs    int
	Factor      float64
	Chain       []float64
	StretchedMs int
	Correction  Correction
	FinalMs     int
	// Skipped is set when the clip was already within tolerance.
	Skipped bool
}

// SyncOptions tunes a Synchronizer.
type SyncOptions struct {
	ToleranceMs int
	Logger      *slog.Logger
}

// Synchronizer fits clips to target durations.
type Synchronizer struct {
	stretcher Stretcher
	tolerance int
	logger    *slog.Logger
}

// NewSynchronizer builds a Synchronizer. A nil stretcher limits fitting to
// pad and trim.
func NewSynchronizer(stretcher Stretcher, opts SyncOptions) *Synchronizer {
	tolerance := opts.ToleranceMs
	if tolerance <= 0 {
		tolerance = DefaultToleranceMs
	}
	return &Synchronizer{
		stretcher: stretcher,
		tolerance: tolerance,
		logger:    logging.NewComponentLogger(opts.Logger, "timeline"),
	}
}

// ToleranceMs returns the configured tolerance.
func (s *Synchronizer) ToleranceMs() int { return s.tolerance }

// Fit returns clip stretched to targetMs. Clips already within tolerance are
// returned untouched. Otherwise the tempo chain for current/target is applied
// and, if the result still misses by more than the tolerance, it is padded
// with silence or trimmed to exactly targetMs.
func (s *Synchronizer) Fit(ctx context.Context, clip Clip, targetMs int) (Clip, FitReport, error) {
	report := FitReport{CurrentMs: clip.DurationMs(), TargetMs: targetMs}
	if targetMs <= 0 {
		return Clip{}, report, fmt.Errorf("fit: invalid target %d ms", targetMs)
	}
	if !clip.Format().valid() {
		return Clip{}, report, errors.New("fit: clip has no format")
	}
	if report.CurrentMs == 0 {
		fitted := Silence(targetMs, clip.Format())
		report.Correction = CorrectionPad
		report.FinalMs = fitted.DurationMs()
		return fitted, report, nil
	}
	if abs(report.CurrentMs-targetMs) <= s.tolerance {
		report.Skipped = true
		report.StretchedMs = report.CurrentMs
		report.FinalMs = report.CurrentMs
		return clip, report, nil
	}

	report.Factor = float64(report.CurrentMs) / float64(targetMs)
	report.Chain = TempoChain(report.Factor)

	stretched, err := s.stretch(ctx, clip, report.Chain)
	if err != nil {
		return Clip{}, report, fmt.Errorf("fit: stretch by %.3f: %w", report.Factor, err)
	}
	report.StretchedMs = stretched.DurationMs()

	diff := targetMs - report.StretchedMs
	switch {
	case diff > s.tolerance:
		stretched = stretched.PadTo(targetMs)
		report.Correction = CorrectionPad
	case -diff > s.tolerance:
		stretched = stretched.TrimTo(targetMs)
		report.Correction = CorrectionTrim
	}
	report.FinalMs = stretched.DurationMs()

	s.logger.Debug("clip fitted",
		logging.Int("current_ms", report.CurrentMs),
		logging.Int("target_ms", targetMs),
		logging.Float64("factor", report.Factor),
		logging.Int("stretched_ms", report.StretchedMs),
		logging.String("correction", string(report.Correction)),
	)
	return stretched, report, nil
}

func (s *Synchronizer) stretch(ctx context.Context, clip Clip, chain []float64) (Clip, error) {
	if s.stretcher == nil || len(chain) == 0 {
		return clip, nil
	}
	if chained, ok := s.stretcher.(ChainStretcher); ok {
		return chained.StretchChain(ctx, clip, chain)
	}
	current := clip
	for _, ratio := range chain {
		next, err := s.stretcher.Stretch(ctx, current, ratio)
		if err != nil {
			return Clip{}, err
		}
		current = next
	}
	return current, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
