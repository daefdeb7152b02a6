// Package viz plays recorded tank runs back in the terminal.
//
// [Playback] is a Bubble Tea model that steps through a [sim.Response]: the
// two tanks are drawn on a braille [Canvas] and a side panel shows gauges
// against the maximum height and the height history so far.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from t0
//	[ ]   - Step backward/forward
//	+ -   - Double/halve playback speed
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
