package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/roadsim/internal/control"
	"github.com/san-kum/roadsim/internal/geom"
)

var ErrInvalid = errors.New("config: invalid value")

const (
	DefaultFrames     = 3000
	DefaultPopulation = 100
	DefaultMutation   = 0.1
	DefaultHidden     = 6
	DefaultRoadX      = 100.0
	DefaultRoadWidth  = 180.0
	DefaultLanes      = 3
	DefaultStartY     = 100.0
	DefaultTrafficMax = 2.0
)

type Config struct {
	Mode       string          `yaml:"mode"`
	Frames     int             `yaml:"frames"`
	Seed       int64           `yaml:"seed"`
	Population int             `yaml:"population"`
	LogLevel   string          `yaml:"log_level"`
	Road       RoadConfig      `yaml:"road"`
	Car        CarConfig       `yaml:"car"`
	Traffic    TrafficConfig   `yaml:"traffic"`
	Sensor     SensorConfig    `yaml:"sensor"`
	Brain      BrainConfig     `yaml:"brain"`
	Collision  CollisionConfig `yaml:"collision"`
	Training   TrainingConfig  `yaml:"training"`
}

type RoadConfig struct {
	X         float64 `yaml:"x"`
	Width     float64 `yaml:"width"`
	Lanes     int     `yaml:"lanes"`
	StartLane int     `yaml:"start_lane"`
	StartY    float64 `yaml:"start_y"`
}

type CarConfig struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	Acceleration float64 `yaml:"acceleration"`
	MaxSpeed     float64 `yaml:"max_speed"`
	Friction     float64 `yaml:"friction"`
}

type TrafficCar struct {
	Lane int     `yaml:"lane"`
	Y    float64 `yaml:"y"`
}

type TrafficConfig struct {
	MaxSpeed float64      `yaml:"max_speed"`
	Cars     []TrafficCar `yaml:"cars"`
}

type SensorConfig struct {
	RayCount  int     `yaml:"ray_count"`
	RayLength float64 `yaml:"ray_length"`
	RaySpread float64 `yaml:"ray_spread"`
}

type BrainConfig struct {
	Hidden []int `yaml:"hidden"`
	// Path points at a saved network used as the starting brain.
	Path string `yaml:"path,omitempty"`
}

type CollisionConfig struct {
	Policy      string `yaml:"policy"`
	Containment bool   `yaml:"containment"`
}

type TrainingConfig struct {
	Generations int     `yaml:"generations"`
	Mutation    float64 `yaml:"mutation"`
}

func DefaultConfig() *Config {
	return &Config{
		Mode:       "ai",
		Frames:     DefaultFrames,
		Seed:       1,
		Population: DefaultPopulation,
		LogLevel:   "info",
		Road: RoadConfig{
			X:         DefaultRoadX,
			Width:     DefaultRoadWidth,
			Lanes:     DefaultLanes,
			StartLane: 1,
			StartY:    DefaultStartY,
		},
		Car: CarConfig{
			Width:        30,
			Height:       50,
			Acceleration: 0.2,
			MaxSpeed:     3,
			Friction:     0.05,
		},
		Traffic: TrafficConfig{
			MaxSpeed: DefaultTrafficMax,
			Cars:     courseTraffic(),
		},
		Sensor: SensorConfig{
			RayCount:  5,
			RayLength: 150,
			RaySpread: math.Pi / 2,
		},
		Brain: BrainConfig{
			Hidden: []int{DefaultHidden},
		},
		Collision: CollisionConfig{
			Policy: geom.EndpointContact.String(),
		},
		Training: TrainingConfig{
			Generations: 10,
			Mutation:    DefaultMutation,
		},
	}
}

func courseTraffic() []TrafficCar {
	return []TrafficCar{
		{Lane: 1, Y: -100},
		{Lane: 0, Y: -300},
		{Lane: 2, Y: -300},
		{Lane: 0, Y: -500},
		{Lane: 1, Y: -500},
		{Lane: 1, Y: -700},
		{Lane: 2, Y: -700},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Kind resolves the control mode of the cars under test.
func (c *Config) Kind() (control.Kind, error) {
	return control.ParseKind(c.Mode)
}

func (c *Config) ContactPolicy() (geom.ContactPolicy, error) {
	return geom.ParseContactPolicy(c.Collision.Policy)
}

// BrainSizes is the layer layout [rays, hidden..., 4].
func (c *Config) BrainSizes() []int {
	sizes := []int{c.Sensor.RayCount}
	sizes = append(sizes, c.Brain.Hidden...)
	return append(sizes, 4)
}

func (c *Config) Validate() error {
	invalid := func(field string, v any) error {
		return fmt.Errorf("%w: %s = %v", ErrInvalid, field, v)
	}

	if _, err := c.Kind(); err != nil {
		return fmt.Errorf("%w: mode: %v", ErrInvalid, err)
	}
	if _, err := c.ContactPolicy(); err != nil {
		return fmt.Errorf("%w: collision.policy: %v", ErrInvalid, err)
	}
	if c.Frames <= 0 {
		return invalid("frames", c.Frames)
	}
	if c.Population < 1 {
		return invalid("population", c.Population)
	}
	if c.Road.Width <= 0 {
		return invalid("road.width", c.Road.Width)
	}
	if c.Road.Lanes < 1 {
		return invalid("road.lanes", c.Road.Lanes)
	}
	if c.Car.Width < 0 || c.Car.Height < 0 {
		return invalid("car size", fmt.Sprintf("%vx%v", c.Car.Width, c.Car.Height))
	}
	if c.Car.MaxSpeed <= 0 {
		return invalid("car.max_speed", c.Car.MaxSpeed)
	}
	if c.Car.Acceleration < 0 {
		return invalid("car.acceleration", c.Car.Acceleration)
	}
	if c.Car.Friction < 0 {
		return invalid("car.friction", c.Car.Friction)
	}
	if c.Traffic.MaxSpeed <= 0 {
		return invalid("traffic.max_speed", c.Traffic.MaxSpeed)
	}
	if c.Sensor.RayCount < 1 {
		return invalid("sensor.ray_count", c.Sensor.RayCount)
	}
	if c.Sensor.RayLength <= 0 {
		return invalid("sensor.ray_length", c.Sensor.RayLength)
	}
	for _, h := range c.Brain.Hidden {
		if h < 1 {
			return invalid("brain.hidden", c.Brain.Hidden)
		}
	}
	if c.Training.Mutation < 0 || c.Training.Mutation > 1 {
		return invalid("training.mutation", c.Training.Mutation)
	}
	if c.Training.Generations < 0 {
		return invalid("training.generations", c.Training.Generations)
	}
	return nil
}
