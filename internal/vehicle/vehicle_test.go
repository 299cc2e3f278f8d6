package vehicle

import (
	"math"
	"testing"

	"github.com/san-kum/roadsim/internal/control"
	"github.com/san-kum/roadsim/internal/geom"
)

const tol = 1e-9

type stubSensor struct {
	updates  int
	origins  []geom.Point
	readings []*geom.Touch
}

func (s *stubSensor) Update(origin geom.Point, heading float64, borders, traffic []geom.Polygon) {
	s.updates++
	s.origins = append(s.origins, origin)
}

func (s *stubSensor) Readings() []*geom.Touch { return s.readings }
func (s *stubSensor) Range() float64          { return 150 }

type stubController struct {
	out    []float64
	inputs [][]float64
}

func (c *stubController) Evaluate(inputs []float64) []float64 {
	c.inputs = append(c.inputs, inputs)
	return c.out
}

func testParams() Params {
	return Params{Width: 20, Height: 40, Acceleration: 0.2, MaxSpeed: 3, Friction: 0.05}
}

func vertical(x float64) geom.Polygon {
	return geom.Polygon{{X: x, Y: -1e6}, {X: x, Y: 1e6}}
}

func TestSpeedClamp(t *testing.T) {
	tests := []struct {
		name string
		key  control.Key
		ok   func(speed float64) bool
	}{
		{"forward", control.KeyUp, func(s float64) bool { return s <= 3 }},
		{"reverse", control.KeyDown, func(s float64) bool { return s >= -1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := control.NewManual()
			src.Press(tt.key)
			car := New(Pose{}, testParams(), src)

			for i := 0; i < 200; i++ {
				car.Update(nil, nil)
				if !tt.ok(car.Speed()) {
					t.Fatalf("frame %d: speed %f out of bounds", i, car.Speed())
				}
			}
		})
	}
}

func TestFrictionConvergence(t *testing.T) {
	p := testParams()
	for _, v0 := range []float64{1, -1, 0.03, 2.5, -0.7, 1.49} {
		src := control.NewManual()
		car := New(Pose{}, p, src, WithInitialSpeed(v0))

		limit := int(math.Ceil(math.Abs(v0) / p.Friction))
		stopped := -1
		for i := 1; i <= limit+10; i++ {
			car.Update(nil, nil)
			s := car.Speed()
			if s*v0 < 0 {
				t.Fatalf("v0=%v frame %d: speed %v crossed zero", v0, i, s)
			}
			if stopped < 0 && s == 0 {
				stopped = i
			}
			if stopped > 0 && s != 0 {
				t.Fatalf("v0=%v frame %d: speed %v after stopping", v0, i, s)
			}
		}
		if stopped < 0 || stopped > limit {
			t.Errorf("v0=%v: stopped at frame %d, limit %d", v0, stopped, limit)
		}
	}
}

func TestPolygonAtHeadingZero(t *testing.T) {
	car := New(Pose{X: 50, Y: 80}, testParams(), control.NewManual())
	car.Update(nil, nil)

	poly := car.Polygon()
	if len(poly) != 4 {
		t.Fatalf("expected 4 corners, got %d", len(poly))
	}
	want := []geom.Point{{X: 60, Y: 60}, {X: 40, Y: 60}, {X: 40, Y: 100}, {X: 60, Y: 100}}
	for i, w := range want {
		if math.Abs(poly[i].X-w.X) > tol || math.Abs(poly[i].Y-w.Y) > tol {
			t.Errorf("corner %d = %+v, want %+v", i, poly[i], w)
		}
	}

	poly[0] = geom.Point{}
	if car.Polygon()[0] == (geom.Point{}) {
		t.Error("Polygon should return a copy")
	}
}

func TestZeroDimensions(t *testing.T) {
	p := testParams()
	p.Width, p.Height = 0, 0
	car := New(Pose{X: 3, Y: 4}, p, control.NewManual())

	poly := car.Polygon()
	if len(poly) != 4 {
		t.Fatalf("expected 4 corners, got %d", len(poly))
	}
	for i, pt := range poly {
		if pt.X != 3 || pt.Y != 4 {
			t.Errorf("corner %d = %+v, want the centre", i, pt)
		}
	}
}

func TestDamageIsTerminal(t *testing.T) {
	car := New(Pose{}, testParams(), control.NewFixed())
	car.Update([]geom.Polygon{vertical(5)}, nil)
	if !car.Damaged() {
		t.Fatal("expected border crossing to damage the car")
	}

	pose, speed, poly := car.Pose(), car.Speed(), car.Polygon()
	for i := 0; i < 10; i++ {
		car.Update(nil, nil)
	}

	if car.Pose() != pose || car.Speed() != speed {
		t.Errorf("state changed after damage: %+v/%v -> %+v/%v", pose, speed, car.Pose(), car.Speed())
	}
	for i, pt := range car.Polygon() {
		if pt != poly[i] {
			t.Errorf("corner %d moved after damage", i)
		}
	}
	if !car.Damaged() {
		t.Error("damage must never reset")
	}
}

func TestDamageFromTraffic(t *testing.T) {
	enclosing := geom.OrientedRect(geom.Point{}, 30, 50, 0)
	crossing := geom.OrientedRect(geom.Point{}, 40, 20, 0)

	tests := []struct {
		name      string
		collision Collision
		traffic   geom.Polygon
		want      bool
	}{
		{"enclosed, edges only", Collision{}, enclosing, false},
		{"enclosed, inclusive edges", Collision{Policy: geom.InclusiveContact}, enclosing, false},
		{"enclosed, containment", Collision{Containment: true}, enclosing, true},
		{"crossed", Collision{}, crossing, true},
		{"crossed, containment", Collision{Containment: true}, crossing, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			car := New(Pose{}, testParams(), control.NewManual(), WithCollision(tt.collision))
			car.Update(nil, []geom.Polygon{tt.traffic})
			if car.Damaged() != tt.want {
				t.Errorf("damaged = %v, want %v", car.Damaged(), tt.want)
			}
		})
	}
}

func TestSameLaneRearEnd(t *testing.T) {
	slow := DefaultParams()
	slow.MaxSpeed = 2
	ahead := New(Pose{X: 160, Y: -100}, slow, control.NewFixed())

	driver := control.NewManual()
	driver.Press(control.KeyUp)
	car := New(Pose{X: 160, Y: 100}, DefaultParams(), driver)

	for i := 0; i < 2000 && !car.Damaged(); i++ {
		ahead.Update(nil, nil)
		car.Update(nil, []geom.Polygon{ahead.Polygon()})
	}

	if !car.Damaged() {
		t.Fatalf("car drove through the car ahead: car y=%v, ahead y=%v", car.Pose().Y, ahead.Pose().Y)
	}
	gap := car.Pose().Y - ahead.Pose().Y
	if gap <= 0 || gap > DefaultParams().Height {
		t.Errorf("damage came too late: centres %v apart", gap)
	}
}

func TestPerceptionContinuesAfterDamage(t *testing.T) {
	s := &stubSensor{readings: []*geom.Touch{nil, {Offset: 0.25}}}
	c := &stubController{out: []float64{1, 0, 0, 0}}
	car := New(Pose{}, testParams(), control.NewNeural(), WithPerception(s, c))

	borders := []geom.Polygon{vertical(5)}
	car.Update(borders, nil)
	if !car.Damaged() {
		t.Fatal("expected damage on the first frame")
	}
	if s.updates != 1 {
		t.Fatalf("expected perception on the damaging frame, got %d updates", s.updates)
	}

	frozen := car.Pose().Point()
	for i := 0; i < 4; i++ {
		car.Update(borders, nil)
	}
	if s.updates != 5 {
		t.Errorf("expected 5 perception updates, got %d", s.updates)
	}
	for i, o := range s.origins {
		if o != frozen {
			t.Errorf("update %d sensed from %+v, want frozen pose %+v", i, o, frozen)
		}
	}
	if len(c.inputs) != 5 {
		t.Errorf("expected 5 controller evaluations, got %d", len(c.inputs))
	}
	if got := c.inputs[0]; got[0] != 0 || got[1] != 0.75 {
		t.Errorf("inputs = %v, want [0 0.75]", got)
	}
}

func TestNeuralCommandLagsOneFrame(t *testing.T) {
	c := &stubController{out: []float64{1, 0, 0, 0}}
	car := New(Pose{}, testParams(), control.NewNeural(), WithPerception(&stubSensor{}, c))

	car.Update(nil, nil)
	if car.Speed() != 0 {
		t.Fatalf("first frame should use the idle command, speed %v", car.Speed())
	}
	if !car.Source().Command().Forward {
		t.Fatal("expected the controller outputs to be latched")
	}

	car.Update(nil, nil)
	if math.Abs(car.Speed()-0.15) > tol {
		t.Errorf("expected speed 0.15 on the second frame, got %v", car.Speed())
	}
}

func TestManualCarStillPerceives(t *testing.T) {
	s := &stubSensor{}
	c := &stubController{out: []float64{0, 0, 0, 1}}
	src := control.NewManual()
	src.Press(control.KeyUp)
	car := New(Pose{}, testParams(), src, WithPerception(s, c))

	car.Update(nil, nil)
	if s.updates != 1 || len(c.inputs) != 1 {
		t.Fatal("expected one perception pass")
	}
	if got := src.Command(); !got.Forward || got.Reverse {
		t.Errorf("controller outputs must not drive a manual car, got %+v", got)
	}
	if len(car.Outputs()) != 4 {
		t.Errorf("expected outputs to be kept, got %v", car.Outputs())
	}
}

func TestFixedForwardHasNoPerception(t *testing.T) {
	s := &stubSensor{}
	car := New(Pose{}, testParams(), control.NewFixed(), WithPerception(s, &stubController{}))

	car.Update(nil, nil)
	if car.Perception() != nil || car.Controller() != nil {
		t.Error("fixed-forward cars must not carry perception")
	}
	if s.updates != 0 {
		t.Errorf("sensor updated %d times", s.updates)
	}
	if car.Readings() != nil {
		t.Error("expected nil readings")
	}
}

func TestSteeringFollowsSpeedSign(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		key   control.Key
		want  float64
	}{
		{"left forward", 1, control.KeyLeft, SteerRate},
		{"right forward", 1, control.KeyRight, -SteerRate},
		{"left reversing", -1, control.KeyLeft, -SteerRate},
		{"right reversing", -1, control.KeyRight, SteerRate},
		{"left at rest", 0, control.KeyLeft, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := control.NewManual()
			src.Press(tt.key)
			car := New(Pose{}, testParams(), src, WithInitialSpeed(tt.speed))
			car.Update(nil, nil)
			if math.Abs(car.Pose().Heading-tt.want) > tol {
				t.Errorf("heading = %v, want %v", car.Pose().Heading, tt.want)
			}
		})
	}
}

func TestTranslationFollowsHeading(t *testing.T) {
	car := New(Pose{Heading: math.Pi / 2}, testParams(), control.NewManual(), WithInitialSpeed(1))
	car.Update(nil, nil)

	if math.Abs(car.Pose().X+0.95) > tol || math.Abs(car.Pose().Y) > tol {
		t.Errorf("expected to move 0.95 towards negative x, got %+v", car.Pose())
	}
}

func TestPerceptionInputs(t *testing.T) {
	got := PerceptionInputs([]*geom.Touch{nil, {Offset: 1}, {Offset: 0}, {Offset: 0.25}})
	want := []float64{0, 0, 1, 0.75}
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("input %d = %v, want %v", i, got[i], want[i])
		}
	}
	if len(PerceptionInputs(nil)) != 0 {
		t.Error("expected no inputs for no readings")
	}
}

func TestReach(t *testing.T) {
	p := testParams()
	bare := New(Pose{}, p, control.NewFixed())
	body := math.Hypot(p.Width, p.Height) / 2
	if math.Abs(bare.Reach()-(body+p.Acceleration)) > tol {
		t.Errorf("bare reach = %v", bare.Reach())
	}

	sensing := New(Pose{}, p, control.NewNeural(), WithPerception(&stubSensor{}, &stubController{}))
	if math.Abs(sensing.Reach()-(150+p.Acceleration)) > tol {
		t.Errorf("sensing reach = %v", sensing.Reach())
	}
}
