package metrics

import "github.com/san-kum/roadsim/internal/sim"

// ControlEffort is the mean number of active command fields per moving car
// per frame.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(w *sim.World, frame int) {
	for _, car := range w.Cars {
		if car.Damaged() {
			continue
		}
		c.sum += float64(car.Source().Command().Active())
		c.samples++
	}
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
