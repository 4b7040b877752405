// Package validation asks an LLM to confirm or correct machine translations
// and scores the outcome.
//
// Validate handles one pair of texts: the primary model is asked first and
// the fallback model is consulted when the primary returns nothing or echoes
// the translation unchanged. ValidateSegments and DoubleValidate apply this to
// a caption track, switching to a bounded worker pool for large tracks.
// Network or model failures never fail a run; the initial translation is
// kept with a neutral confidence.
package validation
