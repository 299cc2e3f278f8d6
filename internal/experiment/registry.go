package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/roadsim/internal/metrics"
	"github.com/san-kum/roadsim/internal/sim"
)

// Registry maps metric names to constructors.
type Registry struct {
	metrics map[string]func() sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() sim.Metric),
	}

	r.metrics["distance"] = func() sim.Metric { return metrics.NewDistance() }
	r.metrics["survival"] = func() sim.Metric { return metrics.NewSurvival() }
	r.metrics["control_effort"] = func() sim.Metric { return metrics.NewControlEffort() }
	r.metrics["top_speed"] = func() sim.Metric { return metrics.NewTopSpeed() }

	return r
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

// Metrics builds the named metrics, or every metric when names is empty.
func (r *Registry) Metrics(names ...string) ([]sim.Metric, error) {
	if len(names) == 0 {
		names = r.ListMetrics()
	}
	out := make([]sim.Metric, 0, len(names))
	for _, name := range names {
		m, err := r.GetMetric(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
