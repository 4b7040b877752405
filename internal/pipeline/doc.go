// Package pipeline wires the caption and dub flows together.
//
// A Context is built once per process from configuration and the external
// adapters (ffmpeg, recognizer, translation engines, LLM, TTS). Each Caption,
// Dub, or TranslateFile call is one run: it gets a UUID run ID stamped into
// the context and logs, an exclusive per-media lock in the work directory,
// a scratch directory that is removed afterwards, and a progress tracker
// whose events go to the subscriber channel supplied in Deps.
//
// Stages are executed through runStage, which logs stage start, completion,
// and failure with the same event types for every stage.
package pipeline
