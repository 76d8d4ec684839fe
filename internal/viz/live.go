package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/lbm1d/internal/config"
	"github.com/san-kum/lbm1d/internal/lbm"
	"github.com/san-kum/lbm1d/internal/metrics"
	"github.com/san-kum/lbm1d/internal/sim"
)

const (
	massCapacity  = 200
	energyStep    = 0.25
	maxStepsPerTk = 64
)

type TickMsg time.Time

// LiveModel steps a solver on a timer and draws its occupation profile.
// Binding energy at the selected site can be changed while it runs.
type LiveModel struct {
	cfg          *config.Config
	solver       *lbm.Solver
	err          error
	running      bool
	stepsPerTick int
	frameRate    int
	selected     int
	massHistory  []float64
	entropy      float64
}

func NewLiveModel(cfg *config.Config, frameRate int) (LiveModel, error) {
	solver, err := sim.NewSolver(cfg)
	if err != nil {
		return LiveModel{}, err
	}
	if frameRate <= 0 {
		frameRate = 30
	}
	return LiveModel{
		cfg:          cfg.Clone(),
		solver:       solver,
		running:      true,
		stepsPerTick: 1,
		frameRate:    frameRate,
		selected:     cfg.Lattice.NX / 2,
		massHistory:  make([]float64, 0, massCapacity),
	}, nil
}

func (m LiveModel) Solver() *lbm.Solver { return m.solver }
func (m LiveModel) Err() error          { return m.err }

func (m LiveModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return m.tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			m.advance(1)
		case "r":
			m.reset()
		case "+", "=":
			if m.stepsPerTick < maxStepsPerTk {
				m.stepsPerTick *= 2
			}
		case "-", "_":
			if m.stepsPerTick > 1 {
				m.stepsPerTick /= 2
			}
		case "left", "h":
			if m.selected > 0 {
				m.selected--
			}
		case "right", "l":
			if m.selected < m.solver.NX()-1 {
				m.selected++
			}
		case "up", "k":
			m.adjustEnergy(energyStep)
		case "down", "j":
			m.adjustEnergy(-energyStep)
		}
	case TickMsg:
		if m.running {
			m.advance(m.stepsPerTick)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *LiveModel) advance(n int) {
	for i := 0; i < n; i++ {
		if m.err != nil || m.solver.Steps() >= m.cfg.Time.NT {
			m.running = false
			return
		}
		if err := m.solver.Step(); err != nil {
			m.err = err
			return
		}
		m.massHistory = append(m.massHistory, m.solver.TotalDensity())
		if len(m.massHistory) > massCapacity {
			m.massHistory = m.massHistory[1:]
		}
	}
	if occ, err := m.solver.Occupations(); err == nil {
		m.entropy = metrics.ShannonEntropy(occ)
	}
}

func (m *LiveModel) adjustEnergy(delta float64) {
	e, err := m.solver.BindingEnergy(m.selected)
	if err != nil {
		return
	}
	_ = m.solver.SetBindingEnergy(m.selected, e+delta)
}

func (m *LiveModel) reset() {
	solver, err := sim.NewSolver(m.cfg)
	if err != nil {
		m.err = err
		return
	}
	m.solver = solver
	m.err = nil
	m.running = true
	m.entropy = 0
	m.massHistory = m.massHistory[:0]
}

func (m LiveModel) status() string {
	switch {
	case m.err != nil:
		return statusFailed.Render("FAILED: " + m.err.Error())
	case m.solver.Steps() >= m.cfg.Time.NT:
		return statusPaused.Render("DONE")
	case !m.running:
		return statusPaused.Render("PAUSED")
	default:
		return statusRunning.Render("RUNNING")
	}
}

func (m LiveModel) View() string {
	title := "LBM 1D"
	if m.cfg.Name != "" {
		title += " · " + m.cfg.Name
	}

	var graph string
	if occ, err := m.solver.Occupations(); err == nil {
		graph = PlotOccupations(occ, PlotOptions{Height: 14, Width: 70, Caption: "occupation vs site"})
	} else {
		graph = "(no occupations: " + err.Error() + ")"
	}

	var s strings.Builder
	s.WriteString(m.status() + "\n\n")
	if len(m.massHistory) > 1 {
		chart := asciigraph.Plot(m.massHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("total mass"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	energy, _ := m.solver.BindingEnergy(m.selected)
	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d / %d", m.solver.Steps(), m.cfg.Time.NT)) + "\n")
	s.WriteString(labelStyle.Render("Omega") + valueStyle.Render(fmt.Sprintf("%.3f", m.solver.Omega())) + "\n")
	s.WriteString(labelStyle.Render("Steps/tick") + valueStyle.Render(fmt.Sprintf("%d", m.stepsPerTick)) + "\n")
	s.WriteString(labelStyle.Render("Entropy") + valueStyle.Render(fmt.Sprintf("%.4f", m.entropy)) + "\n")
	s.WriteString(activeSiteStyle.Render(fmt.Sprintf("> site %d  eps %.2f", m.selected, energy)) + "\n")
	s.WriteString(helpStyle.Render("SP:Pause S:Step R:Reset Q:Quit\n←→:Site ↑↓:Energy +-:Speed"))

	body := lipgloss.JoinHorizontal(lipgloss.Top, graphStyle.Render(graph), statsStyle.Render(s.String()))
	return headerStyle.Render(title) + "\n" + body
}

// RunLive opens the live view until the user quits.
func RunLive(cfg *config.Config, frameRate int) error {
	m, err := NewLiveModel(cfg, frameRate)
	if err != nil {
		return err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if lm, ok := final.(LiveModel); ok && lm.Err() != nil {
		return lm.Err()
	}
	return nil
}
