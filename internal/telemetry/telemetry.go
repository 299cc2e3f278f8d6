// Package telemetry exports simulator activity as OpenTelemetry metrics.
package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/san-kum/roadsim/internal/sim"
	"github.com/san-kum/roadsim/internal/vehicle"
)

const instrumentationName = "github.com/san-kum/roadsim/internal/telemetry"

// Meter returns the meter of the global provider, a no-op unless one is
// installed.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Observer counts frames and collisions. It is safe to share between the
// runs of an ensemble.
type Observer struct {
	frames     metric.Int64Counter
	collisions metric.Int64Counter
	active     metric.Int64ObservableGauge
	attrs      metric.MeasurementOption

	frameTotal     atomic.Int64
	collisionTotal atomic.Int64
	activeCars     atomic.Int64
}

var _ sim.Observer = (*Observer)(nil)

// New registers the instruments on m. The scenario name is attached to
// every measurement.
func New(m metric.Meter, scenario string) (*Observer, error) {
	o := &Observer{
		attrs: metric.WithAttributes(attribute.String("scenario", scenario)),
	}

	var err error
	o.frames, err = m.Int64Counter(
		"roadsim.frames",
		metric.WithDescription("Frames simulated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	o.collisions, err = m.Int64Counter(
		"roadsim.collisions",
		metric.WithDescription("Cars damaged"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating collisions counter: %w", err)
	}

	o.active, err = m.Int64ObservableGauge(
		"roadsim.cars.active",
		metric.WithDescription("Undamaged cars after the latest frame"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, obs metric.Observer) error {
			obs.ObserveInt64(o.active, o.activeCars.Load(), o.attrs)
			return nil
		},
		o.active,
	)
	if err != nil {
		return nil, fmt.Errorf("registering active callback: %w", err)
	}

	return o, nil
}

func (o *Observer) OnFrame(frame int, w *sim.World) {
	o.frames.Add(context.Background(), 1, o.attrs)
	o.frameTotal.Add(1)
	o.activeCars.Store(int64(w.Active()))
}

func (o *Observer) OnDamage(frame int, car *vehicle.Vehicle) {
	o.collisions.Add(context.Background(), 1, o.attrs)
	o.collisionTotal.Add(1)
}

// Frames is the number of frames seen so far.
func (o *Observer) Frames() int64 { return o.frameTotal.Load() }

func (o *Observer) Collisions() int64 { return o.collisionTotal.Load() }

func (o *Observer) Active() int64 { return o.activeCars.Load() }
