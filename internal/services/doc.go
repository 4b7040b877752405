// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and media names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into configuration problems, bad input, and external tool errors.
//
// Engine adapters live in subpackages (llm, ffmpeg, whisper, tts, mtserver,
// cloudtranslate).
package services
