package vehicle

import (
	"math"

	"github.com/san-kum/roadsim/internal/control"
	"github.com/san-kum/roadsim/internal/geom"
)

// SteerRate is the heading change per frame in radians.
const SteerRate = 0.03

type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

func (p Pose) Point() geom.Point {
	return geom.Point{X: p.X, Y: p.Y}
}

type Params struct {
	Width        float64 `json:"width" yaml:"width"`
	Height       float64 `json:"height" yaml:"height"`
	Acceleration float64 `json:"acceleration" yaml:"acceleration"`
	MaxSpeed     float64 `json:"max_speed" yaml:"max_speed"`
	Friction     float64 `json:"friction" yaml:"friction"`
}

func DefaultParams() Params {
	return Params{
		Width:        30,
		Height:       50,
		Acceleration: 0.2,
		MaxSpeed:     3,
		Friction:     0.05,
	}
}

// Collision selects how the polygon is tested against obstacles.
type Collision struct {
	Policy geom.ContactPolicy
	// Containment also flags a car lying wholly inside another polygon.
	Containment bool
}

func (c Collision) hits(p, q geom.Polygon) bool {
	if c.Containment {
		return geom.PolygonsOverlap(p, q, c.Policy)
	}
	return geom.PolygonsIntersect(p, q, c.Policy)
}

type Perception interface {
	Update(origin geom.Point, heading float64, borders, traffic []geom.Polygon)
	Readings() []*geom.Touch
	Range() float64
}

type Controller interface {
	Evaluate(inputs []float64) []float64
}

type Option func(*Vehicle)

// WithPerception attaches a sensor and a controller. It has no effect on
// fixed-forward cars.
func WithPerception(p Perception, c Controller) Option {
	return func(v *Vehicle) {
		v.perception = p
		v.controller = c
	}
}

func WithCollision(c Collision) Option {
	return func(v *Vehicle) { v.collision = c }
}

func WithInitialSpeed(speed float64) Option {
	return func(v *Vehicle) { v.speed = speed }
}

type Vehicle struct {
	params    Params
	pose      Pose
	speed     float64
	damaged   bool
	polygon   geom.Polygon
	source    control.Source
	collision Collision

	perception Perception
	controller Controller
	outputs    []float64
}

func New(pose Pose, params Params, src control.Source, opts ...Option) *Vehicle {
	v := &Vehicle{
		params: params,
		pose:   pose,
		source: src,
	}
	for _, opt := range opts {
		opt(v)
	}
	if src.Kind() == control.KindFixed {
		v.perception = nil
		v.controller = nil
	}
	v.polygon = v.shape()
	return v
}

// Update advances the car by one frame. Borders and traffic are read only.
func (v *Vehicle) Update(borders, traffic []geom.Polygon) {
	if !v.damaged {
		v.move()
		v.polygon = v.shape()
		v.damaged = v.assessDamage(borders, traffic)
	}

	if v.perception == nil {
		return
	}
	v.perception.Update(v.pose.Point(), v.pose.Heading, borders, traffic)
	if v.controller == nil {
		return
	}
	v.outputs = v.controller.Evaluate(PerceptionInputs(v.perception.Readings()))
	if a, ok := v.source.(control.Actuated); ok {
		a.Apply(v.outputs)
	}
}

func (v *Vehicle) move() {
	cmd := v.source.Command()
	p := v.params

	if cmd.Forward {
		v.speed += p.Acceleration
	}
	if cmd.Reverse {
		v.speed -= p.Acceleration
	}

	if v.speed > p.MaxSpeed {
		v.speed = p.MaxSpeed
	}
	if v.speed < -p.MaxSpeed/2 {
		v.speed = -p.MaxSpeed / 2
	}

	switch {
	case v.speed > 0:
		v.speed -= p.Friction
	case v.speed < 0:
		v.speed += p.Friction
	}
	if math.Abs(v.speed) < p.Friction {
		v.speed = 0
	}

	if v.speed != 0 {
		flip := 1.0
		if v.speed < 0 {
			flip = -1
		}
		if cmd.Left {
			v.pose.Heading += SteerRate * flip
		}
		if cmd.Right {
			v.pose.Heading -= SteerRate * flip
		}
	}

	v.pose.X -= math.Sin(v.pose.Heading) * v.speed
	v.pose.Y -= math.Cos(v.pose.Heading) * v.speed
}

func (v *Vehicle) shape() geom.Polygon {
	return geom.OrientedRect(v.pose.Point(), v.params.Width, v.params.Height, v.pose.Heading)
}

func (v *Vehicle) assessDamage(borders, traffic []geom.Polygon) bool {
	for _, b := range borders {
		if v.collision.hits(v.polygon, b) {
			return true
		}
	}
	for _, t := range traffic {
		if v.collision.hits(v.polygon, t) {
			return true
		}
	}
	return false
}

// PerceptionInputs turns readings into controller inputs. Nothing detected
// reads as 0 and contact reads as 1.
func PerceptionInputs(readings []*geom.Touch) []float64 {
	inputs := make([]float64, len(readings))
	for i, r := range readings {
		if r != nil {
			inputs[i] = 1 - r.Offset
		}
	}
	return inputs
}

func (v *Vehicle) Pose() Pose             { return v.pose }
func (v *Vehicle) Speed() float64         { return v.speed }
func (v *Vehicle) Damaged() bool          { return v.damaged }
func (v *Vehicle) Params() Params         { return v.params }
func (v *Vehicle) Source() control.Source { return v.source }
func (v *Vehicle) Perception() Perception { return v.perception }
func (v *Vehicle) Outputs() []float64     { return v.outputs }
func (v *Vehicle) Polygon() geom.Polygon  { return v.polygon.Clone() }
func (v *Vehicle) Controller() Controller { return v.controller }

// Readings returns the latest sensor readings, or nil for cars without one.
func (v *Vehicle) Readings() []*geom.Touch {
	if v.perception == nil {
		return nil
	}
	return v.perception.Readings()
}

// Reach bounds how far from its centre the car can touch or sense anything
// during its next update.
func (v *Vehicle) Reach() float64 {
	r := math.Hypot(v.params.Width, v.params.Height) / 2
	if v.perception != nil {
		r = math.Max(r, v.perception.Range())
	}
	return r + math.Abs(v.speed) + math.Abs(v.params.Acceleration)
}
