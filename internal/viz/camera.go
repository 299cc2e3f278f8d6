package viz

import (
	"math"

	"github.com/san-kum/roadsim/internal/geom"
	"github.com/san-kum/roadsim/internal/road"
)

// followAt is where the followed car sits, as a fraction of the canvas height.
const followAt = 0.7

// camera maps world coordinates to canvas dots. The road fills the canvas
// width with a small margin and the view scrolls with the followed car.
type camera struct {
	left, top float64
	unit      float64 // world units per dot
	w, h      int
}

func newCamera(c *Canvas, r *road.Road, followY float64) camera {
	w, h := c.Dots()
	span := r.Width * 1.2
	unit := span / float64(w)
	return camera{
		left: r.X - span/2,
		top:  followY - followAt*float64(h)*unit,
		unit: unit,
		w:    w,
		h:    h,
	}
}

func (cam camera) project(p geom.Point) (int, int) {
	return int(math.Round((p.X - cam.left) / cam.unit)),
		int(math.Round((p.Y - cam.top) / cam.unit))
}

func (cam camera) view() (min, max geom.Point) {
	min = geom.Point{X: cam.left, Y: cam.top}
	max = geom.Point{X: cam.left + float64(cam.w)*cam.unit, Y: cam.top + float64(cam.h)*cam.unit}
	return min, max
}

// segment draws ab clipped to the view, so the road borders running to
// road.Infinity cost no more than a screen-high line.
func (cam camera) segment(c *Canvas, a, b geom.Point) {
	min, max := cam.view()
	a, b, ok := clip(a, b, min, max)
	if !ok {
		return
	}
	x0, y0 := cam.project(a)
	x1, y1 := cam.project(b)
	c.DrawLine(x0, y0, x1, y1)
}

func (cam camera) polygon(c *Canvas, p geom.Polygon) {
	for _, e := range p.Edges() {
		cam.segment(c, e.A, e.B)
	}
}

// clip is Liang-Barsky clipping of ab against the box [min, max].
func clip(a, b, min, max geom.Point) (geom.Point, geom.Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, a.X - min.X},
		{dx, max.X - a.X},
		{-dy, a.Y - min.Y},
		{dy, max.Y - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return a, b, false
			}
			t1 = math.Min(t1, r)
		}
	}

	return geom.Point{X: a.X + t0*dx, Y: a.Y + t0*dy},
		geom.Point{X: a.X + t1*dx, Y: a.Y + t1*dy}, true
}
