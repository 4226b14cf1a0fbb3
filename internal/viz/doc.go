// Package viz renders driving traces in the terminal.
//
//   - [Playback]: Bubble Tea program replaying a finished trace at adjustable speed
//   - [Charts]: stacked ASCII plots of depth, speed and impulse
//   - [Canvas]: braille sub-pixel canvas used for the pile sketch
//
// Playback reveals [DefaultChunk] samples per tick at 1x, so a run of any
// length replays in roughly the same wall time.
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	R     - Restart from the first sample
//	+ / - - Double / halve playback speed
//	E     - Jump to the end of the run
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
