package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/roadsim/internal/control"
	"github.com/san-kum/roadsim/internal/geom"
	"github.com/san-kum/roadsim/internal/road"
	"github.com/san-kum/roadsim/internal/sensor"
	"github.com/san-kum/roadsim/internal/sim"
	"github.com/san-kum/roadsim/internal/vehicle"
)

func fixedWorld() (*sim.World, *control.Manual, error) {
	r := road.New(100, 180, 3)
	car := vehicle.New(vehicle.Pose{X: r.LaneCenter(1), Y: 100}, vehicle.DefaultParams(), control.NewFixed())
	return sim.NewWorld(r, nil, []*vehicle.Vehicle{car}), nil, nil
}

func manualWorld() (*sim.World, *control.Manual, error) {
	r := road.New(100, 180, 3)
	m := control.NewManual()
	car := vehicle.New(vehicle.Pose{X: r.LaneCenter(1), Y: 100}, vehicle.DefaultParams(), m,
		vehicle.WithPerception(sensor.Default(), nil))
	return sim.NewWorld(r, nil, []*vehicle.Vehicle{car}), m, nil
}

func newTestModel(t *testing.T, build WorldBuilder, opts Options) Model {
	t.Helper()
	m, err := NewModel(build, opts)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCanvas(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)

	if !c.Lit(0, 0) || !c.Lit(7, 7) {
		t.Error("expected both endpoints lit")
	}
	if c.Lit(7, 0) {
		t.Error("expected off-line dot to stay dark")
	}

	c.Set(-1, 3)
	c.Set(100, 100)
	c.Clear()
	if c.Lit(0, 0) {
		t.Error("expected clear canvas")
	}
	if w, h := c.Dots(); w != 8 || h != 8 {
		t.Errorf("Dots() = %d, %d", w, h)
	}
}

func TestClip(t *testing.T) {
	min, max := geom.Point{}, geom.Point{X: 100, Y: 50}

	a, b, ok := clip(geom.Point{X: 10, Y: -road.Infinity}, geom.Point{X: 10, Y: road.Infinity}, min, max)
	if !ok {
		t.Fatal("expected border inside the view to survive clipping")
	}
	if a != (geom.Point{X: 10, Y: 0}) || b != (geom.Point{X: 10, Y: 50}) {
		t.Errorf("clipped to %+v, %+v", a, b)
	}

	if _, _, ok := clip(geom.Point{X: 200, Y: 0}, geom.Point{X: 200, Y: 50}, min, max); ok {
		t.Error("expected segment right of the view to be dropped")
	}
}

func TestModelTicks(t *testing.T) {
	m := newTestModel(t, fixedWorld, Options{Frames: 3})

	m, cmd := send(m, TickMsg{})
	if m.Frame() != 1 {
		t.Fatalf("expected frame 1, got %d", m.Frame())
	}
	if cmd == nil {
		t.Error("expected the next tick to be scheduled")
	}

	m, _ = send(m, key("space"))
	m, _ = send(m, TickMsg{})
	if m.Frame() != 1 {
		t.Errorf("paused model advanced to frame %d", m.Frame())
	}

	m, _ = send(m, key("space"))
	for i := 0; i < 5; i++ {
		m, _ = send(m, TickMsg{})
	}
	if m.Frame() != 3 || !m.Done() {
		t.Errorf("expected done at frame 3, got frame %d done=%v", m.Frame(), m.Done())
	}
}

func TestArrowHeldUntilLastRelease(t *testing.T) {
	m := newTestModel(t, manualWorld, Options{})
	car := m.World().Cars[0]

	m, cmd := send(m, key("up"))
	if cmd == nil {
		t.Fatal("expected a release to be scheduled")
	}
	m, _ = send(m, key("up"))

	if !car.Source().Command().Forward {
		t.Fatal("expected forward after pressing up")
	}

	m, _ = send(m, releaseMsg{key: control.KeyUp, seq: 1})
	if !car.Source().Command().Forward {
		t.Error("stale release should not lift a repeated key")
	}

	_, _ = send(m, releaseMsg{key: control.KeyUp, seq: 2})
	if car.Source().Command().Forward {
		t.Error("expected forward released after the last hold expired")
	}
}

func TestHoldWindowDefault(t *testing.T) {
	m := newTestModel(t, manualWorld, Options{})
	if m.opts.Hold != HoldWindow {
		t.Errorf("hold = %v, want %v", m.opts.Hold, HoldWindow)
	}
	// common terminal auto-repeat delays run from 250 to 500 ms
	if HoldWindow < 500*time.Millisecond {
		t.Errorf("hold window %v releases keys before auto-repeat starts", HoldWindow)
	}

	m = newTestModel(t, manualWorld, Options{Hold: 2 * time.Second})
	if m.opts.Hold != 2*time.Second {
		t.Errorf("hold = %v, want the override", m.opts.Hold)
	}
}

func TestArrowIgnoredWithoutManualCar(t *testing.T) {
	m := newTestModel(t, fixedWorld, Options{})
	if _, cmd := send(m, key("up")); cmd != nil {
		t.Error("expected no command for arrows in a fixed world")
	}
}

func TestRestart(t *testing.T) {
	m := newTestModel(t, fixedWorld, Options{})
	first := m.World()

	m, _ = send(m, TickMsg{})
	m, _ = send(m, TickMsg{})
	m, _ = send(m, key("r"))

	if m.Frame() != 0 {
		t.Errorf("expected frame 0 after restart, got %d", m.Frame())
	}
	if m.World() == first {
		t.Error("expected a fresh world after restart")
	}
}

type frameCounter struct{ frames, damaged int }

func (f *frameCounter) OnFrame(int, *sim.World)        { f.frames++ }
func (f *frameCounter) OnDamage(int, *vehicle.Vehicle) { f.damaged++ }

func TestObserversSeeFrames(t *testing.T) {
	obs := &frameCounter{}
	m := newTestModel(t, fixedWorld, Options{Observers: []sim.Observer{obs}})

	for i := 0; i < 4; i++ {
		m, _ = send(m, TickMsg{})
	}
	if obs.frames != 4 || obs.damaged != 0 {
		t.Errorf("observer saw %+v", obs)
	}
}

func TestView(t *testing.T) {
	m := newTestModel(t, manualWorld, Options{Title: "manual", Frames: 10})
	m, _ = send(m, TickMsg{})
	m, _ = send(m, TickMsg{})

	out := m.View()
	for _, want := range []string{"MANUAL", "RUNNING", "Frame", "Drive"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m, _ = send(m, key("t"))
	if m.theme.Name == ThemeNight.Name {
		t.Error("expected theme to change")
	}
}

func TestCommandString(t *testing.T) {
	if got := commandString(control.Command{}); got != "-" {
		t.Errorf("idle = %q", got)
	}
	if got := commandString(control.Command{Forward: true, Left: true}); got != "↑←" {
		t.Errorf("forward left = %q", got)
	}
}
