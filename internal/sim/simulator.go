package sim

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type Simulator struct {
	log       zerolog.Logger
	metrics   []Metric
	observers []Observer
}

func New(log zerolog.Logger) *Simulator {
	return &Simulator{
		log:       log.With().Str("component", "sim").Logger(),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run advances w for cfg.Frames frames. On cancellation the partial result
// is returned together with a *FrameError wrapping the context error.
func (s *Simulator) Run(ctx context.Context, w *World, cfg Config) (*Result, error) {
	if err := validateConfig(w, cfg); err != nil {
		return nil, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{
		Speeds:  make([]float64, 0, cfg.Frames),
		Metrics: make(map[string]float64),
	}

	for frame := 0; frame < cfg.Frames; frame++ {
		select {
		case <-ctx.Done():
			s.finish(result, w)
			return result, &FrameError{Frame: frame, Wrapped: ctx.Err()}
		default:
		}

		for _, car := range w.Step() {
			s.log.Debug().
				Int("frame", frame).
				Float64("x", car.Pose().X).
				Float64("y", car.Pose().Y).
				Float64("speed", car.Speed()).
				Msg("car damaged")
			for _, obs := range s.observers {
				obs.OnDamage(frame, car)
			}
		}

		if !w.finite() {
			s.finish(result, w)
			return result, &FrameError{Frame: frame, Wrapped: ErrNonFinite}
		}

		result.Frames++
		result.Speeds = append(result.Speeds, w.Best().Speed())

		for _, m := range s.metrics {
			m.Observe(w, frame)
		}
		for _, obs := range s.observers {
			obs.OnFrame(frame, w)
		}

		if cfg.StopWhenAllDamaged && w.Active() == 0 {
			s.log.Debug().Int("frame", frame).Msg("all cars damaged, stopping early")
			break
		}
	}

	s.finish(result, w)
	s.log.Info().
		Int("frames", result.Frames).
		Int("cars", len(w.Cars)).
		Int("damaged", result.Damaged).
		Float64("distance", result.Distance).
		Msg("run complete")

	return result, nil
}

func (s *Simulator) finish(result *Result, w *World) {
	result.Best = w.BestIndex()
	if best := w.Best(); best != nil {
		result.BestY = best.Pose().Y
	}
	result.Distance = w.Progress()
	result.Damaged = w.Damaged()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(w *World, cfg Config) error {
	if cfg.Frames <= 0 {
		return fmt.Errorf("%w: frames must be positive, got %d", ErrInvalidConfig, cfg.Frames)
	}
	if w == nil || w.Road == nil {
		return fmt.Errorf("%w: world has no road", ErrInvalidConfig)
	}
	if len(w.Cars) == 0 {
		return ErrEmptyWorld
	}
	return nil
}
