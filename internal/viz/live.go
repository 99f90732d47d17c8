package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/helixflock/internal/analysis"
	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/sim"
)

const (
	defaultWidth    = 80
	defaultHeight   = 24
	statsWidth      = 44
	historyCapacity = 300
	sparkWidth      = 24
	orbitStep       = math.Pi / 36
)

type TickMsg time.Time

// Factory builds a fresh simulation. The live view calls it again on
// restart.
type Factory func() (*sim.State, error)

// Model steps a simulation by a fixed dt on every tick and draws it.
type Model struct {
	factory    Factory
	newMetrics func(*sim.State) []dynamo.Metric
	state      *sim.State
	metrics    []dynamo.Metric
	dt         float64
	tick       time.Duration

	canvas  *Canvas
	camera  *Camera
	scene   Scene
	running bool
	err     error

	summary analysis.Summary
	history []float64
	trend   []float64
}

// NewModel builds the first simulation from factory. newMetrics may be nil.
func NewModel(factory Factory, newMetrics func(*sim.State) []dynamo.Metric, dt float64) (Model, error) {
	m := Model{
		factory:    factory,
		newMetrics: newMetrics,
		dt:         dt,
		tick:       time.Second / 60,
		canvas:     NewCanvas(defaultWidth-statsWidth, defaultHeight-4),
		camera:     NewCamera(),
		scene:      Scene{ShowFields: true},
		running:    true,
		history:    make([]float64, 0, historyCapacity),
		trend:      make([]float64, 0, historyCapacity),
	}
	if err := m.restart(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) restart() error {
	st, err := m.factory()
	if err != nil {
		return err
	}
	m.state = st
	m.metrics = nil
	if m.newMetrics != nil {
		m.metrics = m.newMetrics(st)
	}
	m.history = m.history[:0]
	m.trend = m.trend[:0]
	m.err = nil
	m.summary = analysis.Summarize(st.Positions(), st.Velocities())
	return nil
}

func (m Model) State() *sim.State { return m.state }
func (m Model) Running() bool     { return m.running }
func (m Model) Err() error        { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.restart(); err != nil {
				m.err = err
				m.running = false
			}
		case "f":
			m.scene.ShowFields = !m.scene.ShowFields
		case "g":
			m.scene.ShowFloor = !m.scene.ShowFloor
		case "left", "h":
			m.camera.Orbit(-orbitStep)
		case "right", "l":
			m.camera.Orbit(orbitStep)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case tea.WindowSizeMsg:
		m.canvas.Resize(max(msg.Width-statsWidth-6, 10), max(msg.Height-4, 5))
	case TickMsg:
		if m.running {
			m.Step()
		}
		return m, tea.Tick(m.tick, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

// Step advances the simulation by one frame and records statistics.
func (m *Model) Step() {
	m.state.Step(m.state.Elapsed() + m.dt)
	f := m.state.View()
	for _, metric := range m.metrics {
		metric.Observe(f)
	}
	if !m.state.Valid() {
		m.err = dynamo.SimError{Time: f.Elapsed, Frame: f.Index, Message: "non-finite particle state"}
		m.running = false
	}

	m.summary = analysis.Summarize(f.Positions, f.Velocities)
	v := m.summary.Spread
	if m.state.Mode() == dynamo.ModeFlocking {
		v = m.summary.MeanSpeed
	}
	m.history = push(m.history, v)

	// flock order for flocking, top of the column for the helix
	t := m.summary.MaxY
	if m.state.Mode() == dynamo.ModeFlocking {
		t = m.summary.Polarization
	}
	m.trend = push(m.trend, t)
}

func push(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m Model) View() string {
	f := m.state.View()
	Render(m.canvas, m.camera, f.Positions, f.Fields, m.scene)
	canvasView := canvasStyle.Render(particleStyle.Render(m.canvas.String()))

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(string(m.state.Mode()))) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("HALTED") + "\n" + m.err.Error() + "\n\n")
	case m.running:
		s.WriteString(runningStyle.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(pausedStyle.Render("PAUSED") + "\n\n")
	}

	caption := "Spread"
	if m.state.Mode() == dynamo.ModeFlocking {
		caption = "Mean speed"
	}
	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption(caption))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Frame", fmt.Sprintf("%d", f.Index))
	row("Time", fmt.Sprintf("%.2fs", f.Elapsed))
	row("Particles", fmt.Sprintf("%d", len(f.Positions)))
	row("Centroid", fmt.Sprintf("%.1f %.1f %.1f", m.summary.Centroid.X, m.summary.Centroid.Y, m.summary.Centroid.Z))
	row("Spread", fmt.Sprintf("%.3f", m.summary.Spread))
	if m.state.Mode() == dynamo.ModeFlocking {
		row("Polarity", fmt.Sprintf("%.3f", m.summary.Polarization))
		row("Max speed", fmt.Sprintf("%.4f", m.summary.MaxSpeed))
		row("Order", Sparkline(m.trend, sparkWidth))
	} else {
		row("Height", Sparkline(m.trend, sparkWidth))
	}
	for _, metric := range m.metrics {
		row(metric.Name(), fmt.Sprintf("%.4g", metric.Value()))
	}
	s.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit\nF:Fields G:Floor ←→:Orbit +-:Zoom"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
