package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/roadsim/internal/control"
	"github.com/san-kum/roadsim/internal/geom"
	"github.com/san-kum/roadsim/internal/sensor"
	"github.com/san-kum/roadsim/internal/sim"
	"github.com/san-kum/roadsim/internal/vehicle"
)

const (
	width           = 40
	height          = 30
	historyCapacity = 300
	dashLength      = 20

	// HoldWindow is how long an arrow key counts as held after its last
	// press event. It must outlast the terminal's auto-repeat delay.
	HoldWindow = 500 * time.Millisecond
)

type TickMsg time.Time

type releaseMsg struct {
	key control.Key
	seq int
}

// WorldBuilder returns a fresh world and the manual source driving it, or
// nil when no car takes keyboard input.
type WorldBuilder func() (*sim.World, *control.Manual, error)

type Options struct {
	Title string
	// Frames stops the view after that many frames. Zero runs until every
	// car is damaged.
	Frames    int
	FPS       int
	Theme     string
	Observers []sim.Observer
	// Hold overrides HoldWindow when positive.
	Hold time.Duration
}

// Model steps a world once per tick and draws it.
type Model struct {
	build  WorldBuilder
	opts   Options
	world  *sim.World
	manual *control.Manual
	canvas *Canvas
	theme  Theme

	frame   int
	running bool
	done    bool
	sensors bool
	speeds  []float64

	held map[control.Key]int
	seq  int
}

func NewModel(build WorldBuilder, opts Options) (Model, error) {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.Hold <= 0 {
		opts.Hold = HoldWindow
	}
	m := Model{
		build:   build,
		opts:    opts,
		canvas:  NewCanvas(width, height),
		theme:   GetTheme(opts.Theme),
		running: true,
		sensors: true,
		held:    make(map[control.Key]int),
	}
	if err := m.restart(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			m.sensors = !m.sensors
		case "t":
			m.theme = m.theme.next()
		case "r":
			if err := m.restart(); err != nil {
				return m, tea.Quit
			}
		default:
			if k, ok := control.ParseKey(msg.String()); ok && m.manual != nil {
				return m, m.hold(k)
			}
		}
	case releaseMsg:
		if m.manual != nil && m.held[msg.key] == msg.seq {
			m.manual.Release(msg.key)
			delete(m.held, msg.key)
		}
	case TickMsg:
		if m.running && !m.done {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

// hold presses k and schedules its release. A later press of the same key
// supersedes the pending release.
func (m *Model) hold(k control.Key) tea.Cmd {
	m.manual.Press(k)
	m.seq++
	m.held[k] = m.seq
	seq := m.seq
	return tea.Tick(m.opts.Hold, func(time.Time) tea.Msg { return releaseMsg{key: k, seq: seq} })
}

func (m *Model) restart() error {
	w, manual, err := m.build()
	if err != nil {
		return err
	}
	if len(w.Cars) == 0 {
		return sim.ErrEmptyWorld
	}
	m.world, m.manual = w, manual
	m.frame, m.done = 0, false
	m.speeds = m.speeds[:0]
	for k := range m.held {
		delete(m.held, k)
	}
	return nil
}

func (m *Model) step() {
	for _, car := range m.world.Step() {
		for _, obs := range m.opts.Observers {
			obs.OnDamage(m.frame, car)
		}
	}
	for _, obs := range m.opts.Observers {
		obs.OnFrame(m.frame, m.world)
	}
	m.frame++

	m.speeds = append(m.speeds, m.world.Best().Speed())
	if len(m.speeds) > historyCapacity {
		m.speeds = m.speeds[1:]
	}

	if m.opts.Frames > 0 && m.frame >= m.opts.Frames {
		m.done = true
	}
	if m.world.Active() == 0 {
		m.done = true
	}
}

func (m Model) Frame() int        { return m.frame }
func (m Model) Done() bool        { return m.done }
func (m Model) World() *sim.World { return m.world }

func (m *Model) draw() {
	m.canvas.Clear()
	best := m.world.Best()
	r := m.world.Road
	cam := newCamera(m.canvas, r, best.Pose().Y)

	for _, b := range r.Borders() {
		cam.polygon(m.canvas, b)
	}

	min, max := cam.view()
	start := math.Floor(min.Y/(2*dashLength)) * 2 * dashLength
	for _, x := range r.LaneLines() {
		for y := start; y < max.Y; y += 2 * dashLength {
			cam.segment(m.canvas, geom.Point{X: x, Y: y}, geom.Point{X: x, Y: y + dashLength})
		}
	}

	for _, t := range m.world.Traffic {
		m.drawVehicle(cam, t)
	}
	for _, c := range m.world.Cars {
		if c != best {
			m.drawVehicle(cam, c)
		}
	}
	m.drawVehicle(cam, best)

	if m.sensors {
		m.drawRays(cam, best)
	}
}

// drawVehicle outlines v. A damaged vehicle is crossed out.
func (m *Model) drawVehicle(cam camera, v *vehicle.Vehicle) {
	poly := v.Polygon()
	cam.polygon(m.canvas, poly)
	if v.Damaged() && len(poly) == 4 {
		cam.segment(m.canvas, poly[0], poly[2])
		cam.segment(m.canvas, poly[1], poly[3])
	}
}

func (m *Model) drawRays(cam camera, v *vehicle.Vehicle) {
	s, ok := v.Perception().(*sensor.Sensor)
	if !ok {
		return
	}
	readings := s.Readings()
	for i, ray := range s.Rays() {
		end := ray.End
		if i < len(readings) && readings[i] != nil {
			end = readings[i].Point
		}
		cam.segment(m.canvas, ray.Start, end)
	}
}

func (m Model) status(st styles) string {
	switch {
	case m.done:
		return st.bad.Render("FINISHED")
	case !m.running:
		return st.warn.Render("PAUSED")
	}
	return st.ok.Render("RUNNING")
}

func commandString(c control.Command) string {
	var b strings.Builder
	for _, f := range []struct {
		on  bool
		sym string
	}{
		{c.Forward, "↑"},
		{c.Left, "←"},
		{c.Right, "→"},
		{c.Reverse, "↓"},
	} {
		if f.on {
			b.WriteString(f.sym)
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func (m Model) View() string {
	m.draw()
	st := stylesFor(m.theme)
	best := m.world.Best()

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.opts.Title)) + "\n")
	s.WriteString(m.status(st) + "\n\n")

	if m.opts.Frames > 0 {
		s.WriteString(st.ProgressBar(float64(m.frame)/float64(m.opts.Frames), 20) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Frame") + valueStyle.Render(fmt.Sprintf("%d", m.frame)) + "\n")
	s.WriteString(labelStyle.Render("Distance") + valueStyle.Render(fmt.Sprintf("%.1f", m.world.Progress())) + "\n")
	s.WriteString(labelStyle.Render("Speed") + valueStyle.Render(fmt.Sprintf("%.2f", best.Speed())) + "\n")
	s.WriteString(labelStyle.Render("Driving") + valueStyle.Render(fmt.Sprintf("%d/%d", m.world.Active(), len(m.world.Cars))) + "\n")
	s.WriteString(labelStyle.Render("Controls") + valueStyle.Render(commandString(best.Source().Command())) + "\n")

	if len(m.speeds) > 1 {
		chart := asciigraph.Plot(m.speeds, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("Speed"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	help := "SP:Pause S:Sensors R:Restart\nT:Theme  Q:Quit"
	if m.manual != nil {
		help += "\n←↑→↓:Drive"
	}
	s.WriteString(st.help.Render(help))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), st.panel.Render(s.String()))
}

// Run opens the view full screen and blocks until the user quits.
func Run(build WorldBuilder, opts Options) error {
	m, err := NewModel(build, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
