// Package train evolves neural drivers generation by generation.
//
// Each generation runs one world. The first car drives the parent brain
// unchanged and the others drive mutated copies, so a generation never does
// worse than its parent on the same course. The car furthest up the road
// becomes the next parent.
package train

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/san-kum/roadsim/internal/brain"
	"github.com/san-kum/roadsim/internal/control"
	"github.com/san-kum/roadsim/internal/experiment"
	"github.com/san-kum/roadsim/internal/sim"
	"github.com/san-kum/roadsim/internal/storage"
)

var ErrNotNeural = errors.New("train: scenario mode must be ai")

type Trainer struct {
	exp       *experiment.Experiment
	ledger    *storage.Ledger
	log       zerolog.Logger
	runID     string
	observers []sim.Observer
}

// New builds a trainer. ledger may be nil.
func New(exp *experiment.Experiment, ledger *storage.Ledger, runID string, log zerolog.Logger) *Trainer {
	return &Trainer{
		exp:    exp,
		ledger: ledger,
		log:    log.With().Str("component", "train").Str("run", runID).Logger(),
		runID:  runID,
	}
}

func (t *Trainer) AddObserver(o sim.Observer) { t.observers = append(t.observers, o) }

type Outcome struct {
	RunID   string
	Best    *brain.Network
	Result  *sim.Result
	History []storage.GenerationRecord
}

// Run trains from parent, or from random brains when parent is nil.
func (t *Trainer) Run(ctx context.Context, parent *brain.Network) (*Outcome, error) {
	cfg := t.exp.Config()
	kind, err := cfg.Kind()
	if err != nil {
		return nil, err
	}
	if kind != control.KindNeural {
		return nil, fmt.Errorf("%w, got %q", ErrNotNeural, cfg.Mode)
	}
	if cfg.Training.Generations < 1 {
		return nil, fmt.Errorf("train: need at least one generation, got %d", cfg.Training.Generations)
	}

	out := &Outcome{RunID: t.runID}
	for gen := 0; gen < cfg.Training.Generations; gen++ {
		w, err := t.exp.BuildWorld(parent)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}

		s := sim.New(t.log)
		for _, o := range t.observers {
			s.AddObserver(o)
		}
		res, err := s.Run(ctx, w, sim.Config{Frames: cfg.Frames, StopWhenAllDamaged: true})
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}

		net, ok := w.Best().Controller().(*brain.Network)
		if !ok {
			return nil, fmt.Errorf("generation %d: best car has no network", gen)
		}
		parent = net.Clone()

		rec := storage.GenerationRecord{
			RunID:        t.runID,
			Generation:   gen,
			Population:   len(w.Cars),
			Survivors:    w.Active(),
			BestDistance: res.Distance,
			BestY:        res.BestY,
			Frames:       res.Frames,
		}
		if t.ledger != nil {
			if err := t.ledger.Record(&rec); err != nil {
				return nil, err
			}
		}
		out.History = append(out.History, rec)
		out.Result = res

		t.log.Info().
			Int("generation", gen).
			Float64("distance", res.Distance).
			Int("survivors", rec.Survivors).
			Msg("generation complete")
	}

	out.Best = parent
	return out, nil
}
