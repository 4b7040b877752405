package translate

import (
	"context"

	"subforge/internal/logging"
	"subforge/internal/segment"
)

// confidenceDecay is applied to every machine-translated segment.
const confidenceDecay = 0.95

// BatchProgress is called after each batch with the number of segments done.
type BatchProgress func(done, total int)

// TranslateSegments translates segs in batches, keeping timing and recording
// the source text in OriginalText. Same-language requests return a copy.
func (o *Orchestrator) TranslateSegments(ctx context.Context, segs []segment.Segment, src, tgt string, progress BatchProgress) []segment.Segment {
	src, tgt = normalizeLang(src), normalizeLang(tgt)
	if src == tgt || len(segs) == 0 {
		return segment.Clone(segs)
	}

	strategy := o.table.Resolve(src, tgt)
	o.logger.Info("translating segments",
		logging.String("pair", src+"-"+tgt),
		logging.String("strategy", strategy.String()),
		logging.Int("segments", len(segs)),
		logging.Int("batch_size", o.batchSize),
	)

	out := make([]segment.Segment, 0, len(segs))
	for start := 0; start < len(segs); start += o.batchSize {
		end := min(start+o.batchSize, len(segs))
		batch := segs[start:end]
		translations, _ := o.translate(ctx, segment.Texts(batch), src, tgt)
		for i, seg := range batch {
			next := seg.Translated(translations[i])
			next.Confidence = seg.Confidence * confidenceDecay
			out = append(out, next)
		}
		if progress != nil {
			progress(end, len(segs))
		}
	}
	return out
}
