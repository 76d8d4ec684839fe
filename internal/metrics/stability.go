package metrics

import "github.com/san-kum/lbm1d/internal/lbm"

// Stability is the fraction of observed steps whose state was finite.
type Stability struct {
	violations int
	samples    int
}

func NewStability() *Stability { return &Stability{} }

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(step int, solver *lbm.Solver) {
	s.samples++
	if !solver.IsFinite() {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
