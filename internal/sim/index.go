package sim

import (
	"github.com/dhconnelly/rtreego"

	"github.com/san-kum/roadsim/internal/geom"
)

// indexPad widens every box so that touching bounds still overlap; rtreego
// treats shared boundaries as disjoint.
const indexPad = 1.0

type trafficEntry struct {
	rect rtreego.Rect
	poly geom.Polygon
}

func (e *trafficEntry) Bounds() rtreego.Rect {
	return e.rect
}

// trafficIndex answers which traffic polygons lie near a car.
type trafficIndex struct {
	tree  *rtreego.Rtree
	polys []geom.Polygon
	loose []geom.Polygon
}

func newTrafficIndex(polys []geom.Polygon) *trafficIndex {
	idx := &trafficIndex{polys: polys}
	objs := make([]rtreego.Spatial, 0, len(polys))
	for _, p := range polys {
		min, max := p.Bounds()
		r, err := box(min, max, indexPad)
		if err != nil {
			idx.loose = append(idx.loose, p)
			continue
		}
		objs = append(objs, &trafficEntry{rect: r, poly: p})
	}
	idx.tree = rtreego.NewTree(2, 25, 50, objs...)
	return idx
}

// near returns every polygon whose bounds come within reach of center. The
// result is appended to dst.
func (idx *trafficIndex) near(dst []geom.Polygon, center geom.Point, reach float64) []geom.Polygon {
	query, err := box(center, center, reach+indexPad)
	if err != nil {
		return append(dst, idx.polys...)
	}
	dst = append(dst, idx.loose...)
	for _, s := range idx.tree.SearchIntersect(query) {
		dst = append(dst, s.(*trafficEntry).poly)
	}
	return dst
}

func box(min, max geom.Point, pad float64) (rtreego.Rect, error) {
	if !finite(min.X) || !finite(min.Y) || !finite(max.X) || !finite(max.Y) || !finite(pad) {
		return rtreego.Rect{}, ErrNonFinite
	}
	return rtreego.NewRectFromPoints(
		rtreego.Point{min.X - pad, min.Y - pad},
		rtreego.Point{max.X + pad, max.Y + pad},
	)
}
