package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"slices"

	"github.com/rs/zerolog"

	"github.com/san-kum/roadsim/internal/brain"
	"github.com/san-kum/roadsim/internal/config"
	"github.com/san-kum/roadsim/internal/control"
	"github.com/san-kum/roadsim/internal/road"
	"github.com/san-kum/roadsim/internal/sensor"
	"github.com/san-kum/roadsim/internal/sim"
	"github.com/san-kum/roadsim/internal/vehicle"
)

// Experiment turns a scenario config into worlds and runs them.
type Experiment struct {
	cfg        *config.Config
	log        zerolog.Logger
	randSource *rand.Rand
	simulator  *sim.Simulator
	manual     *control.Manual
}

func New(cfg *config.Config, log zerolog.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:        cfg,
		log:        log,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Rand is the seeded source shared by brain creation and mutation.
func (e *Experiment) Rand() *rand.Rand { return e.randSource }

// Setup builds the simulator with the given metrics.
func (e *Experiment) Setup(metrics []sim.Metric, observers ...sim.Observer) {
	e.simulator = sim.New(e.log)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	for _, o := range observers {
		e.simulator.AddObserver(o)
	}
}

func (e *Experiment) Run(ctx context.Context, w *sim.World) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, w, sim.Config{Frames: e.cfg.Frames})
}

// Manual returns the key-driven source of the last world built in manual
// mode, or nil.
func (e *Experiment) Manual() *control.Manual {
	return e.manual
}

func (e *Experiment) Road() *road.Road {
	r := e.cfg.Road
	return road.New(r.X, r.Width, r.Lanes)
}

func (e *Experiment) params() vehicle.Params {
	c := e.cfg.Car
	return vehicle.Params{
		Width:        c.Width,
		Height:       c.Height,
		Acceleration: c.Acceleration,
		MaxSpeed:     c.MaxSpeed,
		Friction:     c.Friction,
	}
}

func (e *Experiment) collision() vehicle.Collision {
	policy, _ := e.cfg.ContactPolicy()
	return vehicle.Collision{Policy: policy, Containment: e.cfg.Collision.Containment}
}

// Traffic places the slow fixed-forward cars.
func (e *Experiment) Traffic(r *road.Road) []*vehicle.Vehicle {
	p := e.params()
	p.MaxSpeed = e.cfg.Traffic.MaxSpeed

	traffic := make([]*vehicle.Vehicle, 0, len(e.cfg.Traffic.Cars))
	for _, tc := range e.cfg.Traffic.Cars {
		pose := vehicle.Pose{X: r.LaneCenter(tc.Lane), Y: tc.Y}
		traffic = append(traffic, vehicle.New(pose, p, control.NewFixed(), vehicle.WithCollision(e.collision())))
	}
	return traffic
}

// BuildWorld creates a fresh world. Neural cars start from parent when it is
// given: the first car gets an exact copy and the rest mutated ones.
func (e *Experiment) BuildWorld(parent *brain.Network) (*sim.World, error) {
	kind, err := e.cfg.Kind()
	if err != nil {
		return nil, err
	}
	if parent != nil && !slices.Equal(parent.Sizes(), e.cfg.BrainSizes()) {
		return nil, fmt.Errorf("%w: parent has layers %v, scenario wants %v", brain.ErrShape, parent.Sizes(), e.cfg.BrainSizes())
	}

	r := e.Road()
	n := e.cfg.Population
	if kind == control.KindManual {
		n = 1
	}

	start := vehicle.Pose{X: r.LaneCenter(e.cfg.Road.StartLane), Y: e.cfg.Road.StartY}
	cars := make([]*vehicle.Vehicle, 0, n)
	e.manual = nil
	for i := 0; i < n; i++ {
		src := control.New(kind)
		if m, ok := src.(*control.Manual); ok {
			e.manual = m
		}

		net, err := e.brainFor(i, parent)
		if err != nil {
			return nil, err
		}
		s := e.cfg.Sensor
		cars = append(cars, vehicle.New(start, e.params(), src,
			vehicle.WithCollision(e.collision()),
			vehicle.WithPerception(sensor.New(s.RayCount, s.RayLength, s.RaySpread), net),
		))
	}

	e.log.Debug().
		Str("mode", kind.String()).
		Int("cars", len(cars)).
		Int("traffic", len(e.cfg.Traffic.Cars)).
		Bool("seeded", parent != nil).
		Msg("world built")

	return sim.NewWorld(r, e.Traffic(r), cars), nil
}

func (e *Experiment) brainFor(i int, parent *brain.Network) (*brain.Network, error) {
	if parent == nil {
		return brain.New(e.randSource, e.cfg.BrainSizes()...)
	}
	net := parent.Clone()
	if i > 0 {
		net.Mutate(e.randSource, e.cfg.Training.Mutation)
	}
	return net, nil
}
