// Package optimize reshapes translated segments for on-screen reading.
//
// Optimize is a pure transform: overlong captions are split at word
// boundaries, durations are clamped into a readable window, and each segment
// starts at least MinGap after its predecessor ends. WrapText lays a caption
// out on at most two balanced lines for rendering.
package optimize
