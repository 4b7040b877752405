// Package translate drives translation back-ends for caption text.
//
// A PairTable resolves each source/target pair once to a Strategy: a direct
// bilingual model, a pivot through an intermediate language, or the cloud
// translator alone. The Orchestrator executes that strategy for a batch of
// texts, verifies the script of every model output with a
// language.Identifier, retries rejected items individually through the cloud
// engine, and finally falls back to the source text.
//
// TranslateBatch never fails and always returns one output per input. Engine
// failures surface only as *EngineError values in logs and Stats.
package translate
