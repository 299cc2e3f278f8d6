// Package viz draws a running world in the terminal.
//
// The road, the traffic and the cars are drawn on a braille [Canvas] with the
// camera following the leading car. A side panel shows the frame counter,
// the leader's speed history and the number of cars still driving.
//
// # Key Bindings
//
//	Arrows - Drive the manual car
//	Space  - Pause/Resume
//	S      - Toggle sensor rays
//	R      - Restart the scenario
//	T      - Cycle color themes
//	Q      - Quit
//
// Terminals report key presses but not releases, so an arrow key stays held
// for [HoldWindow] after its last repeat, or for [Options.Hold] when set.
package viz
