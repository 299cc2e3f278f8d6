package vehicle_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/roadsim/internal/control"
	"github.com/san-kum/roadsim/internal/geom"
	"github.com/san-kum/roadsim/internal/sensor"
	"github.com/san-kum/roadsim/internal/vehicle"
)

var params = vehicle.Params{Width: 20, Height: 40, Acceleration: 0.2, MaxSpeed: 3, Friction: 0.05}

var _ = Describe("a car with forward held", func() {
	var (
		car    *vehicle.Vehicle
		speeds []float64
		ys     []float64
	)

	BeforeEach(func() {
		src := control.NewManual()
		src.Press(control.KeyUp)
		car = vehicle.New(vehicle.Pose{}, params, src)

		speeds, ys = nil, []float64{car.Pose().Y}
		for i := 0; i < 30; i++ {
			car.Update(nil, nil)
			speeds = append(speeds, car.Speed())
			ys = append(ys, car.Pose().Y)
		}
	})

	It("gains acceleration net of friction each frame", func() {
		for i := 0; i < 19; i++ {
			Expect(speeds[i]).To(BeNumerically("~", 0.15*float64(i+1), 1e-9))
		}
	})

	It("settles one friction step below the clamp", func() {
		for _, s := range speeds[19:] {
			Expect(s).To(BeNumerically("~", params.MaxSpeed-params.Friction, 1e-9))
		}
		for _, s := range speeds {
			Expect(s).To(BeNumerically("<=", params.MaxSpeed))
		}
	})

	It("moves up by its speed every frame", func() {
		for i, s := range speeds {
			Expect(ys[i] - ys[i+1]).To(BeNumerically("~", s, 1e-9))
			Expect(ys[i+1]).To(BeNumerically("<", ys[i]))
		}
		Expect(car.Pose().X).To(BeZero())
	})
})

var _ = Describe("a stationary car inside a larger one", func() {
	enclosing := []geom.Polygon{geom.OrientedRect(geom.Point{}, 30, 50, 0)}

	DescribeTable("damage under each collision setting",
		func(c vehicle.Collision, damaged bool) {
			car := vehicle.New(vehicle.Pose{}, params, control.NewManual(), vehicle.WithCollision(c))
			car.Update(nil, enclosing)
			Expect(car.Damaged()).To(Equal(damaged))
		},
		Entry("endpoint contact sees no edge hit", vehicle.Collision{}, false),
		Entry("proper crossing sees no edge hit", vehicle.Collision{Policy: geom.ProperCrossing}, false),
		Entry("inclusive contact sees no edge hit", vehicle.Collision{Policy: geom.InclusiveContact}, false),
		Entry("containment flags the overlap", vehicle.Collision{Containment: true}, true),
	)
})

var _ = Describe("a sensing car that hits the wall", func() {
	var (
		car    *vehicle.Vehicle
		s      *sensor.Sensor
		wall   []geom.Polygon
		frozen vehicle.Pose
	)

	BeforeEach(func() {
		s = sensor.Default()
		wall = []geom.Polygon{{{X: 5, Y: -1e6}, {X: 5, Y: 1e6}}}
		car = vehicle.New(vehicle.Pose{}, params, control.NewNeural(),
			vehicle.WithPerception(s, constant{1, 0, 0, 0}))

		car.Update(wall, nil)
		frozen = car.Pose()
	})

	It("is damaged on the first frame", func() {
		Expect(car.Damaged()).To(BeTrue())
	})

	It("keeps sensing from the frozen pose", func() {
		Expect(car.Readings()).To(HaveLen(sensor.DefaultRayCount))

		for i := 0; i < 5; i++ {
			car.Update(wall, nil)
			Expect(car.Pose()).To(Equal(frozen))
			Expect(car.Speed()).To(BeZero())
		}
		Expect(s.Rays()[0].Start).To(Equal(frozen.Point()))
		Expect(car.Source().Command().Forward).To(BeTrue())
	})
})

type constant []float64

func (c constant) Evaluate([]float64) []float64 { return c }
