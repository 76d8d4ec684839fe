package metrics

import (
	"math"

	"github.com/san-kum/lbm1d/internal/lbm"
)

// TotalMass reports the lattice-wide density at the last observed step.
type TotalMass struct {
	last float64
}

func NewTotalMass() *TotalMass { return &TotalMass{} }

func (m *TotalMass) Name() string { return "total_mass" }

func (m *TotalMass) Observe(step int, s *lbm.Solver) {
	m.last = s.TotalDensity()
}

func (m *TotalMass) Value() float64 { return m.last }

func (m *TotalMass) Reset() { m.last = 0 }

// MassGrowth is the per-step geometric growth rate of total mass between
// the first and last observation. Open boundaries and the biased
// equilibrium mean mass is not conserved; this tracks by how much.
type MassGrowth struct {
	first, last         float64
	firstStep, lastStep int
	samples             int
}

func NewMassGrowth() *MassGrowth { return &MassGrowth{} }

func (m *MassGrowth) Name() string { return "mass_growth" }

func (m *MassGrowth) Observe(step int, s *lbm.Solver) {
	total := s.TotalDensity()
	if m.samples == 0 {
		m.first, m.firstStep = total, step
	}
	m.last, m.lastStep = total, step
	m.samples++
}

func (m *MassGrowth) Value() float64 {
	steps := m.lastStep - m.firstStep
	if steps <= 0 || m.first <= 0 || m.last <= 0 {
		return 1.0
	}
	return math.Exp(math.Log(m.last/m.first) / float64(steps))
}

func (m *MassGrowth) Reset() {
	*m = MassGrowth{}
}
