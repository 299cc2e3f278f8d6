// Package control produces the command vector that drives a vehicle.
//
// Every source implements [Source] and yields a [Command]; the kinematics
// never look at which variant produced it:
//
//   - [Manual]: key press and release edges, safe to drive from another goroutine
//   - [Fixed]: constant forward throttle, used for slow traffic
//   - [Neural]: latches the controller outputs of the previous frame
//
// # Usage
//
//	src := control.NewManual()
//	src.Press(control.KeyUp)
//	v := vehicle.New(pose, params, src)
//	// v.Update reads src.Command() once per frame
package control
