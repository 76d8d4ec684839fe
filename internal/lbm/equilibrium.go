package lbm

import "math"

// Equilibrium computes the equilibrium populations for the current rho, u
// and epsilon. The result is freshly allocated and the solver is not
// modified.
//
//	feq_i = w_i * rho * (1 + 3*ueq + 4.5*ueq^2 - 1.5*u^2) * exp(epsilon/2)
//
// where ueq = u + c_i is the macroscopic velocity shifted by the lattice
// velocity of direction i.
func (s *Solver) Equilibrium() [NumDirections][]float64 {
	var feq [NumDirections][]float64
	for i := range feq {
		feq[i] = make([]float64, s.nx)
	}
	s.equilibriumInto(&feq)
	return feq
}

func (s *Solver) equilibriumInto(feq *[NumDirections][]float64) {
	for site := 0; site < s.nx; site++ {
		u := s.u[site]
		bias := math.Exp(s.epsilon[site] / 2)
		base := 1 - 1.5*u*u
		for d := Rest; d < NumDirections; d++ {
			ueq := u + d.Velocity()
			feq[d][site] = d.Weight() * s.rho[site] * (base + 3*ueq + 4.5*ueq*ueq) * bias
		}
	}
}
