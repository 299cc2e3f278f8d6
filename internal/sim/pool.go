package sim

import (
	"sync"

	"github.com/san-kum/roadsim/internal/geom"
)

// polygonPool recycles the per-car traffic slices handed to Update.
type polygonPool struct {
	pool sync.Pool
}

func newPolygonPool() *polygonPool {
	return &polygonPool{
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]geom.Polygon, 0, 16)
				return &s
			},
		},
	}
}

func (p *polygonPool) get() []geom.Polygon {
	return (*p.pool.Get().(*[]geom.Polygon))[:0]
}

func (p *polygonPool) put(s []geom.Polygon) {
	for i := range s {
		s[i] = nil
	}
	s = s[:0]
	p.pool.Put(&s)
}
