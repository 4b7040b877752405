package transcript

import (
	"context"
	"log/slog"
	"sort"

	"subforge/internal/logging"
	"subforge/internal/segment"
)

// Removal records one raw segment dropped by the filter.
type Removal struct {
	Index  int
	Reason Reason
	Text   string
	Start  float64
	End    float64
}

// Report summarises a Segmentize run.
type Report struct {
	RawSegments int
	Removed     []Removal
	Units       int
}

// ByReason counts removals per reason.
func (r Report) ByReason() map[Reason]int {
	counts := make(map[Reason]int, len(r.Removed))
	for _, removal := range r.Removed {
		counts[removal.Reason]++
	}
	return counts
}

// Segmentize filters hallucinated segments out of t and splits the rest into
// caption units in time order. ErrNoSegments is returned when nothing survives.
func Segmentize(ctx context.Context, t Transcript, filter *Filter, splitter Splitter, logger *slog.Logger) ([]segment.Segment, Report, error) {
	if filter == nil {
		filter = NewFilter(DefaultFilterOptions())
	}
	report := Report{RawSegments: len(t.Segments)}
	var units []segment.Segment
	for i, raw := range t.Segments {
		if reason := filter.Check(raw); reason != ReasonNone {
			report.Removed = append(report.Removed, Removal{
				Index:  i,
				Reason: reason,
				Text:   raw.Text,
				Start:  raw.Start,
				End:    raw.End,
			})
			continue
		}
		units = append(units, splitter.Split(raw)...)
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].Start < units[j].Start })
	report.Units = len(units)

	logSummary(ctx, logger, report)

	if len(units) == 0 {
		return nil, report, ErrNoSegments
	}
	return units, report, nil
}

func logSummary(ctx context.Context, logger *slog.Logger, report Report) {
	if logger == nil {
		return
	}
	attrs := []slog.Attr{
		logging.String(logging.FieldEventType, "transcript_segmented"),
		logging.Int("raw_segments", report.RawSegments),
		logging.Int("segments_removed", len(report.Removed)),
		logging.Int("caption_units", report.Units),
	}
	for reason, count := range report.ByReason() {
		attrs = append(attrs, logging.Int("removed_"+string(reason), count))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "transcript segmented", attrs...)

	for _, r := range report.Removed {
		logger.Debug("hallucination filter removed segment",
			logging.Int("segment_index", r.Index),
			logging.String("segment_text", r.Text),
			logging.String("reason", string(r.Reason)),
			logging.Float64("start", r.Start),
			logging.Float64("end", r.End),
		)
	}
}
