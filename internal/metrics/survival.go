package metrics

import "github.com/san-kum/roadsim/internal/sim"

// Survival is the fraction of cars still undamaged at the last observed
// frame.
type Survival struct {
	name     string
	cars     int
	damaged  int
	observed bool
}

func NewSurvival() *Survival {
	return &Survival{name: "survival"}
}

func (s *Survival) Name() string {
	return s.name
}

func (s *Survival) Observe(w *sim.World, frame int) {
	s.cars = len(w.Cars)
	s.damaged = w.Damaged()
	s.observed = true
}

func (s *Survival) Value() float64 {
	if !s.observed || s.cars == 0 {
		return 1.0
	}
	return 1.0 - float64(s.damaged)/float64(s.cars)
}

func (s *Survival) Reset() {
	s.cars = 0
	s.damaged = 0
	s.observed = false
}

// Standard returns a fresh instance of every metric.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewDistance(),
		NewSurvival(),
		NewControlEffort(),
		NewTopSpeed(),
	}
}
