// Package language normalizes language identifiers and checks whether a piece
// of text is plausibly written in a given language.
//
// Codes accepted anywhere in subforge (ISO 639-1, ISO 639-2, English names,
// BCP 47 tags such as "zh-CN") are reduced to ISO 639-1 through ToISO2. The
// Identifier interface abstracts the output-language check used by the
// translation orchestrator; ScriptIdentifier is the default implementation,
// a cheap Unicode-range heuristic.
package language
