package sim

import "github.com/san-kum/roadsim/internal/vehicle"

// Metric accumulates a value over the frames of one run.
type Metric interface {
	Name() string
	Observe(w *World, frame int)
	Value() float64
	Reset()
}

// Observer is notified after every frame and on every damage transition.
// Observers shared by an Ensemble are called from several goroutines.
type Observer interface {
	OnFrame(frame int, w *World)
	OnDamage(frame int, car *vehicle.Vehicle)
}

type Config struct {
	Frames int
	// StopWhenAllDamaged ends the run once no car can move.
	StopWhenAllDamaged bool
}

type Result struct {
	Frames   int
	Best     int
	BestY    float64
	Distance float64
	Damaged  int
	// Speeds holds the speed of the leading car after each frame.
	Speeds  []float64
	Metrics map[string]float64
}
