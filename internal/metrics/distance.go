package metrics

import (
	"math"

	"github.com/san-kum/roadsim/internal/sim"
)

// Distance is how far the leading car has travelled up the road.
type Distance struct {
	name  string
	value float64
}

func NewDistance() *Distance {
	return &Distance{name: "distance"}
}

func (d *Distance) Name() string { return d.name }

func (d *Distance) Observe(w *sim.World, frame int) {
	d.value = w.Progress()
}

func (d *Distance) Value() float64 { return d.value }

func (d *Distance) Reset() { d.value = 0 }

// TopSpeed is the highest forward speed reached by any car.
type TopSpeed struct {
	name string
	max  float64
}

func NewTopSpeed() *TopSpeed {
	return &TopSpeed{name: "top_speed"}
}

func (s *TopSpeed) Name() string { return s.name }

func (s *TopSpeed) Observe(w *sim.World, frame int) {
	for _, car := range w.Cars {
		s.max = math.Max(s.max, car.Speed())
	}
}

func (s *TopSpeed) Value() float64 { return s.max }

func (s *TopSpeed) Reset() { s.max = 0 }
