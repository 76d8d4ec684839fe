package metrics

import (
	"math"

	"github.com/san-kum/lbm1d/internal/lbm"
)

// PeakOccupation is the largest site occupation at the last observed step.
type PeakOccupation struct {
	peak float64
	site int
}

func NewPeakOccupation() *PeakOccupation { return &PeakOccupation{site: -1} }

func (p *PeakOccupation) Name() string { return "peak_occupation" }

func (p *PeakOccupation) Observe(step int, s *lbm.Solver) {
	occ, err := s.Occupations()
	if err != nil {
		return
	}
	p.peak, p.site = 0, -1
	for i, o := range occ {
		if p.site < 0 || o > p.peak {
			p.peak, p.site = o, i
		}
	}
}

func (p *PeakOccupation) Value() float64 { return p.peak }

// Site returns the index of the peak, or -1 before any observation.
func (p *PeakOccupation) Site() int { return p.site }

func (p *PeakOccupation) Reset() {
	p.peak, p.site = 0, -1
}

// Entropy is the Shannon entropy (nats) of the occupation distribution at
// the last observed step. A uniform lattice of nx sites gives ln(nx).
type Entropy struct {
	value float64
}

func NewEntropy() *Entropy { return &Entropy{} }

func (e *Entropy) Name() string { return "entropy" }

func (e *Entropy) Observe(step int, s *lbm.Solver) {
	occ, err := s.Occupations()
	if err != nil {
		return
	}
	e.value = ShannonEntropy(occ)
}

func (e *Entropy) Value() float64 { return e.value }
func (e *Entropy) Reset()         { e.value = 0 }

// ShannonEntropy returns -sum p ln p, skipping non-positive entries.
func ShannonEntropy(p []float64) float64 {
	h := 0.0
	for _, v := range p {
		if v > 0 {
			h -= v * math.Log(v)
		}
	}
	return h
}
