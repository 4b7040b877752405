// Package progress estimates pipeline completion from elapsed time.
//
// A Plan turns the media duration into an expected wall time per stage
// using configurable multipliers, and assigns each stage a share of the
// 0-100 progress range. A Tracker runs stage functions and pushes Events into
// a subscriber channel: periodic estimates while the stage runs, then one
// final event at the stage's upper bound once it returns. Estimates are
// advisory; a slow subscriber loses events rather than slowing the stage.
package progress
