// Package vehicle integrates a single car one frame at a time.
//
// A [Vehicle] owns its pose, signed speed, bounding polygon and damage flag.
// Each call to [Vehicle.Update] runs, while the car is undamaged:
//
//  1. move: throttle, clamp, friction, steering, translation
//  2. shape: rebuild the 4-corner polygon from the new pose
//  3. damage: test the polygon against borders and traffic
//
// Damage is terminal. A damaged car keeps its pose, speed and polygon for
// the rest of the run.
//
// Cars built with a [Perception] module refresh it after the physics step on
// every frame, including the frame damage occurs and all later ones. The
// readings feed the [Controller], and an [control.Actuated] source latches
// the outputs for the next frame.
//
// # Usage
//
//	car := vehicle.New(vehicle.Pose{X: 100, Y: 100}, vehicle.DefaultParams(), control.NewNeural(),
//		vehicle.WithPerception(sensor.Default(), net))
//	car.Update(road.Borders(), trafficPolygons)
package vehicle
