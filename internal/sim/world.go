package sim

import (
	"math"

	"github.com/san-kum/roadsim/internal/geom"
	"github.com/san-kum/roadsim/internal/road"
	"github.com/san-kum/roadsim/internal/vehicle"
)

// World is one road with its slow traffic and the cars under test. Traffic
// only sees the borders. Cars see the borders and the traffic, never each
// other.
type World struct {
	Road    *road.Road
	Traffic []*vehicle.Vehicle
	Cars    []*vehicle.Vehicle

	startY float64
	pool   *polygonPool
}

func NewWorld(r *road.Road, traffic, cars []*vehicle.Vehicle) *World {
	w := &World{
		Road:    r,
		Traffic: traffic,
		Cars:    cars,
		pool:    newPolygonPool(),
	}
	if best := w.Best(); best != nil {
		w.startY = best.Pose().Y
	}
	return w
}

// Step advances every vehicle by one frame and returns the cars that became
// damaged during it.
func (w *World) Step() []*vehicle.Vehicle {
	borders := w.Road.Borders()
	for _, t := range w.Traffic {
		t.Update(borders, nil)
	}

	idx := newTrafficIndex(w.TrafficPolygons())

	var crashed []*vehicle.Vehicle
	for _, c := range w.Cars {
		was := c.Damaged()

		nearby := w.pool.get()
		nearby = idx.near(nearby, c.Pose().Point(), c.Reach())
		c.Update(borders, nearby)
		w.pool.put(nearby)

		if !was && c.Damaged() {
			crashed = append(crashed, c)
		}
	}
	return crashed
}

func (w *World) TrafficPolygons() []geom.Polygon {
	polys := make([]geom.Polygon, len(w.Traffic))
	for i, t := range w.Traffic {
		polys[i] = t.Polygon()
	}
	return polys
}

// Best returns the car furthest up the road, damaged or not.
func (w *World) Best() *vehicle.Vehicle {
	i := w.BestIndex()
	if i < 0 {
		return nil
	}
	return w.Cars[i]
}

func (w *World) BestIndex() int {
	best := -1
	for i, c := range w.Cars {
		if best < 0 || c.Pose().Y < w.Cars[best].Pose().Y {
			best = i
		}
	}
	return best
}

// Progress is how far the leading car has moved up since the world was built.
func (w *World) Progress() float64 {
	best := w.Best()
	if best == nil {
		return 0
	}
	return w.startY - best.Pose().Y
}

func (w *World) Damaged() int {
	n := 0
	for _, c := range w.Cars {
		if c.Damaged() {
			n++
		}
	}
	return n
}

func (w *World) Active() int {
	return len(w.Cars) - w.Damaged()
}

func (w *World) finite() bool {
	for _, c := range w.Cars {
		p := c.Pose()
		if !finite(p.X) || !finite(p.Y) || !finite(p.Heading) {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
