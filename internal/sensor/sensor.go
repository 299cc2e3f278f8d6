// Package sensor casts a fan of rays from a vehicle and reports the nearest
// obstacle along each one.
package sensor

import (
	"math"

	"github.com/san-kum/roadsim/internal/geom"
)

const (
	DefaultRayCount  = 5
	DefaultRayLength = 150.0
	DefaultRaySpread = math.Pi / 2
)

// Ray runs from the sensor origin to its maximum reach.
type Ray struct {
	Start, End geom.Point
}

type Sensor struct {
	RayCount  int
	RayLength float64
	RaySpread float64

	rays     []Ray
	readings []*geom.Touch
}

func New(rayCount int, rayLength, raySpread float64) *Sensor {
	if rayCount < 0 {
		rayCount = 0
	}
	return &Sensor{
		RayCount:  rayCount,
		RayLength: rayLength,
		RaySpread: raySpread,
		readings:  make([]*geom.Touch, rayCount),
	}
}

func Default() *Sensor {
	return New(DefaultRayCount, DefaultRayLength, DefaultRaySpread)
}

// Range is how far the sensor can see from its origin.
func (s *Sensor) Range() float64 { return s.RayLength }

// Update recasts every ray and keeps the closest touch for each. A nil
// reading means the ray hit nothing.
func (s *Sensor) Update(origin geom.Point, heading float64, borders, traffic []geom.Polygon) {
	s.castRays(origin, heading)
	s.readings = s.readings[:0]
	for _, r := range s.rays {
		s.readings = append(s.readings, reading(r, borders, traffic))
	}
}

// Readings returns a copy of the latest entries, one per ray, left to right.
func (s *Sensor) Readings() []*geom.Touch {
	return append([]*geom.Touch(nil), s.readings...)
}

func (s *Sensor) Rays() []Ray {
	return append([]Ray(nil), s.rays...)
}

func (s *Sensor) castRays(origin geom.Point, heading float64) {
	s.rays = s.rays[:0]
	for i := 0; i < s.RayCount; i++ {
		t := 0.5
		if s.RayCount > 1 {
			t = float64(i) / float64(s.RayCount-1)
		}
		angle := geom.Lerp(s.RaySpread/2, -s.RaySpread/2, t) + heading
		s.rays = append(s.rays, Ray{
			Start: origin,
			End: geom.Point{
				X: origin.X - math.Sin(angle)*s.RayLength,
				Y: origin.Y - math.Cos(angle)*s.RayLength,
			},
		})
	}
}

func reading(r Ray, borders, traffic []geom.Polygon) *geom.Touch {
	var best *geom.Touch
	consider := func(polys []geom.Polygon) {
		for _, p := range polys {
			for _, e := range p.Edges() {
				touch, ok := geom.SegmentIntersection(r.Start, r.End, e.A, e.B)
				if !ok {
					continue
				}
				if best == nil || touch.Offset < best.Offset {
					t := touch
					best = &t
				}
			}
		}
	}
	consider(borders)
	consider(traffic)
	return best
}
