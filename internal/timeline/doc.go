// Package timeline fits synthesized speech clips to caption durations and
// assembles them into one continuous dub track.
//
// Clips are 16-bit PCM held in go-audio IntBuffers. Time stretching is
// delegated to a Stretcher (ffmpeg atempo in production) that only accepts
// ratios in [0.5, 2.0], so larger factors are decomposed with TempoChain.
// After stretching, a clip that still misses its target by more than the
// tolerance is padded with silence or trimmed to the exact target.
//
// Assembly overlays each clip at its caption start on a silent base track.
// Overlapping clips are mixed rather than shifted.
package timeline
