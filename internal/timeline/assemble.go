package timeline

import (
	"fmt"
	"math"
)

// DefaultTailPadMs is the silence kept after the last clip.
const DefaultTailPadMs = 500

// Timeline is a silent base track that clips are mixed onto.
type Timeline struct {
	format   Format
	data     []int
	lastEnd  int
	overlaps int
	clipped  int
}

// NewTimeline returns totalMs of silence in format.
func NewTimeline(totalMs int, format Format) *Timeline {
	return &Timeline{
		format: format,
		data:   make([]int, format.framesFor(totalMs)*format.Channels),
	}
}

// Overlay mixes clip into the track starting at startMs. Samples are summed
// and clamped to the 16-bit range, so overlapping clips are both audible.
// Audio past the end of the track is dropped.
func (t *Timeline) Overlay(startMs int, clip Clip) error {
	if clip.Format() != t.format {
		return fmt.Errorf("overlay: clip format %+v does not match timeline %+v", clip.Format(), t.format)
	}
	startFrame := t.format.framesFor(max(startMs, 0))
	if startFrame < t.lastEnd {
		t.overlaps++
	}
	offset := startFrame * t.format.Channels
	samples := clip.Samples()
	for i, sample := range samples {
		idx := offset + i
		if idx >= len(t.data) {
			t.clipped++
			break
		}
		t.data[idx] = clamp16(t.data[idx] + sample)
	}
	t.lastEnd = max(t.lastEnd, startFrame+clip.Frames())
	return nil
}

// Overlaps counts clips that started before the previous clip ended.
func (t *Timeline) Overlaps() int { return t.overlaps }

// Truncated counts clips that ran past the end of the track.
func (t *Timeline) Truncated() int { return t.clipped }

// Clip returns the mixed track.
func (t *Timeline) Clip() Clip {
	return NewClip(t.format, append([]int(nil), t.data...))
}

// Chunk is a fitted clip and its position on the track.
type Chunk struct {
	StartMs int
	Clip    Clip
}

// AssembleReport summarises an assembly.
type AssembleReport struct {
	Chunks    int
	TotalMs   int
	Overlaps  int
	Truncated int
}

// TotalMs returns the track length for chunks: the latest chunk end plus
// tailPadMs, and never shorter than minMs.
func TotalMs(chunks []Chunk, tailPadMs, minMs int) int {
	end := 0
	for _, chunk := range chunks {
		end = max(end, chunk.StartMs+chunk.Clip.DurationMs())
	}
	return max(end+tailPadMs, minMs)
}

// Assemble overlays chunks, in order, onto a silent track of totalMs.
func Assemble(chunks []Chunk, totalMs int, format Format) (Clip, AssembleReport, error) {
	track := NewTimeline(totalMs, format)
	for i, chunk := range chunks {
		if err := track.Overlay(chunk.StartMs, chunk.Clip); err != nil {
			return Clip{}, AssembleReport{}, fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	out := track.Clip()
	return out, AssembleReport{
		Chunks:    len(chunks),
		TotalMs:   out.DurationMs(),
		Overlaps:  track.Overlaps(),
		Truncated: track.Truncated(),
	}, nil
}

func clamp16(v int) int {
	return min(max(v, math.MinInt16), math.MaxInt16)
}
