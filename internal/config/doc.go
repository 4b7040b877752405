// Package config loads, normalizes, and validates subforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and GOOGLE_TRANSLATE_API_KEY. The Config type centralizes
// every knob the caption and dubbing pipelines need: engine endpoints,
// hallucination thresholds, caption timing bounds, and progress multipliers.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
