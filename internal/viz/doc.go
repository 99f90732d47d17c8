// Package viz renders particle sets in the terminal.
//
//   - [Canvas]: braille dot canvas
//   - [Camera]: perspective look-at projection
//   - [Render]: particles and force fields onto a canvas
//   - [Model]: live Bubble Tea view that steps a simulation every tick
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from the initial seed
//	F     - Toggle force field markers
//	G     - Toggle floor grid
//	←/→   - Orbit camera
//	+/-   - Zoom
//	Q     - Quit
package viz
