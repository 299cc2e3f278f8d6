// Package road lays out a straight vertical road with evenly split lanes.
package road

import (
	"math"

	"github.com/san-kum/roadsim/internal/geom"
)

// Infinity is the half-length of the road. It is far beyond any distance a
// car covers in a run.
const Infinity = 1e6

type Road struct {
	X         float64
	Width     float64
	LaneCount int

	Left, Right float64
	Top, Bottom float64

	borders []geom.Polygon
}

// New centres a road of the given width on x. A lane count below one is
// treated as a single lane.
func New(x, width float64, laneCount int) *Road {
	if laneCount < 1 {
		laneCount = 1
	}
	r := &Road{
		X:         x,
		Width:     width,
		LaneCount: laneCount,
		Left:      x - width/2,
		Right:     x + width/2,
		Top:       -Infinity,
		Bottom:    Infinity,
	}
	r.borders = []geom.Polygon{
		{{X: r.Left, Y: r.Top}, {X: r.Left, Y: r.Bottom}},
		{{X: r.Right, Y: r.Top}, {X: r.Right, Y: r.Bottom}},
	}
	return r
}

// Borders returns the left and right edges as two-point polygons.
func (r *Road) Borders() []geom.Polygon {
	return r.borders
}

func (r *Road) LaneWidth() float64 {
	return r.Width / float64(r.LaneCount)
}

// LaneCenter returns the x of a lane counted from the left. Indexes past the
// last lane land on the last lane.
func (r *Road) LaneCenter(lane int) float64 {
	lane = int(math.Max(0, math.Min(float64(lane), float64(r.LaneCount-1))))
	w := r.LaneWidth()
	return r.Left + w/2 + float64(lane)*w
}

// LaneLines returns the x positions of the dashed separators between lanes.
func (r *Road) LaneLines() []float64 {
	lines := make([]float64, 0, r.LaneCount-1)
	for i := 1; i < r.LaneCount; i++ {
		lines = append(lines, geom.Lerp(r.Left, r.Right, float64(i)/float64(r.LaneCount)))
	}
	return lines
}

// Contains reports whether x lies between the borders.
func (r *Road) Contains(x float64) bool {
	return x > r.Left && x < r.Right
}
