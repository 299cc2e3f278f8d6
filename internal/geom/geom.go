package geom

import (
	"fmt"
	"math"
	"strings"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Polygon is a closed loop of points. Two points describe a single segment,
// which is how road borders are represented.
type Polygon []Point

// Edge is one segment of a polygon.
type Edge struct {
	A, B Point
}

// Edges returns the segments of p, closing the loop for three or more points.
func (p Polygon) Edges() []Edge {
	switch len(p) {
	case 0, 1:
		return nil
	case 2:
		return []Edge{{A: p[0], B: p[1]}}
	}
	edges := make([]Edge, len(p))
	for i := range p {
		edges[i] = Edge{A: p[i], B: p[(i+1)%len(p)]}
	}
	return edges
}

// Bounds returns the axis-aligned bounding box of p.
func (p Polygon) Bounds() (min, max Point) {
	if len(p) == 0 {
		return Point{}, Point{}
	}
	min, max = p[0], p[0]
	for _, pt := range p[1:] {
		min.X = math.Min(min.X, pt.X)
		min.Y = math.Min(min.Y, pt.Y)
		max.X = math.Max(max.X, pt.X)
		max.Y = math.Max(max.Y, pt.Y)
	}
	return min, max
}

func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	c := make(Polygon, len(p))
	copy(c, p)
	return c
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// OrientedRect returns the corners of a width x height rectangle centred on
// center and rotated by heading. The corners are ordered as a loop, starting
// at the front-right corner for heading 0.
func OrientedRect(center Point, width, height, heading float64) Polygon {
	rad := math.Hypot(width, height) / 2
	alpha := math.Atan2(width, height)

	angles := [4]float64{
		heading - alpha,
		heading + alpha,
		math.Pi + heading - alpha,
		math.Pi + heading + alpha,
	}

	poly := make(Polygon, 4)
	for i, a := range angles {
		poly[i] = Point{
			X: center.X - math.Sin(a)*rad,
			Y: center.Y - math.Cos(a)*rad,
		}
	}
	return poly
}

// ContactPolicy decides whether touching edges count as an intersection.
type ContactPolicy int

const (
	// EndpointContact counts crossings and non-parallel edges meeting at an
	// endpoint. Collinear overlap does not count.
	EndpointContact ContactPolicy = iota
	// ProperCrossing only counts edges that cross at interior points.
	ProperCrossing
	// InclusiveContact also counts shared endpoints and collinear overlap.
	InclusiveContact
)

// contactTolerance widens the endpoint test so corners computed through
// different trig paths still meet.
const contactTolerance = 1e-9

func (c ContactPolicy) String() string {
	switch c {
	case EndpointContact:
		return "contact"
	case ProperCrossing:
		return "proper"
	case InclusiveContact:
		return "inclusive"
	default:
		return fmt.Sprintf("ContactPolicy(%d)", int(c))
	}
}

// ParseContactPolicy accepts "contact", "proper" or "inclusive". The empty
// string maps to EndpointContact.
func ParseContactPolicy(s string) (ContactPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "contact":
		return EndpointContact, nil
	case "proper":
		return ProperCrossing, nil
	case "inclusive":
		return InclusiveContact, nil
	default:
		return EndpointContact, fmt.Errorf("unknown contact policy: %q", s)
	}
}

// Touch is a point on a segment together with its normalised position along it.
type Touch struct {
	Point
	Offset float64 `json:"offset"`
}

// SegmentIntersection intersects segment ab with segment cd. Offset is the
// position of the hit along ab in [0, 1]. Parallel segments never intersect.
func SegmentIntersection(a, b, c, d Point) (Touch, bool) {
	tTop := (d.X-c.X)*(a.Y-c.Y) - (d.Y-c.Y)*(a.X-c.X)
	uTop := (c.Y-a.Y)*(a.X-b.X) - (c.X-a.X)*(a.Y-b.Y)
	bottom := (d.Y-c.Y)*(b.X-a.X) - (d.X-c.X)*(b.Y-a.Y)

	if bottom == 0 {
		return Touch{}, false
	}

	t := tTop / bottom
	u := uTop / bottom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Touch{}, false
	}

	return Touch{
		Point:  Point{X: Lerp(a.X, b.X, t), Y: Lerp(a.Y, b.Y, t)},
		Offset: t,
	}, true
}

func orientation(a, b, c Point) int {
	v := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// onSegment reports whether c, known to be collinear with ab, lies within ab.
func onSegment(a, b, c Point) bool {
	return c.X >= math.Min(a.X, b.X) && c.X <= math.Max(a.X, b.X) &&
		c.Y >= math.Min(a.Y, b.Y) && c.Y <= math.Max(a.Y, b.Y)
}

// SegmentsIntersect reports whether ab and cd meet under the given policy.
func SegmentsIntersect(a, b, c, d Point, policy ContactPolicy) bool {
	o1 := orientation(a, b, c)
	o2 := orientation(a, b, d)
	o3 := orientation(c, d, a)
	o4 := orientation(c, d, b)

	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}
	if policy == EndpointContact {
		return endpointContact(a, b, c, d)
	}
	if policy != InclusiveContact {
		return false
	}

	return (o1 == 0 && onSegment(a, b, c)) ||
		(o2 == 0 && onSegment(a, b, d)) ||
		(o3 == 0 && onSegment(c, d, a)) ||
		(o4 == 0 && onSegment(c, d, b))
}

// endpointContact is the parametric test of SegmentIntersection with a small
// tolerance on t and u. Parallel segments never meet.
func endpointContact(a, b, c, d Point) bool {
	bottom := (d.Y-c.Y)*(b.X-a.X) - (d.X-c.X)*(b.Y-a.Y)
	if bottom == 0 {
		return false
	}
	t := ((d.X-c.X)*(a.Y-c.Y) - (d.Y-c.Y)*(a.X-c.X)) / bottom
	u := ((c.Y-a.Y)*(a.X-b.X) - (c.X-a.X)*(a.Y-b.Y)) / bottom
	in := func(v float64) bool { return v >= -contactTolerance && v <= 1+contactTolerance }
	return in(t) && in(u)
}

// PolygonsIntersect reports whether any edge of p meets any edge of q.
func PolygonsIntersect(p, q Polygon, policy ContactPolicy) bool {
	qe := q.Edges()
	for _, e := range p.Edges() {
		for _, f := range qe {
			if SegmentsIntersect(e.A, e.B, f.A, f.B, policy) {
				return true
			}
		}
	}
	return false
}

// PolygonContains is an even-odd point-in-polygon test. Polygons with fewer
// than three points contain nothing.
func PolygonContains(p Polygon, pt Point) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) &&
			pt.X < (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// PolygonsOverlap extends PolygonsIntersect with containment: it also reports
// true when one polygon lies entirely inside the other.
func PolygonsOverlap(p, q Polygon, policy ContactPolicy) bool {
	if PolygonsIntersect(p, q, policy) {
		return true
	}
	if len(p) > 0 && PolygonContains(q, p[0]) {
		return true
	}
	return len(q) > 0 && PolygonContains(p, q[0])
}
