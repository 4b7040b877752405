// Package render writes optimized segments as SRT or WebVTT caption files
// and reads SRT files back into segments.
//
// Output is byte-deterministic: rendering the same segments twice yields
// identical bytes. Timestamps use integer millisecond arithmetic.
package render
