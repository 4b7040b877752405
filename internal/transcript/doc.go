// Package transcript turns raw ASR output into caption-sized segments.
//
// It decodes Whisper-style JSON (segments with diagnostics and optional word
// timestamps), drops statistical noise with Filter, and re-chunks survivors
// with Splitter. Segmentize runs the whole sequence and reports what was
// removed and why.
package transcript
