package lbm

import "context"

// Collide relaxes f toward the equilibrium of the current macroscopic state
// (BGK): f = (1-omega)*f + omega*feq.
func (s *Solver) Collide() {
	s.equilibriumInto(&s.feq)
	keep := 1 - s.omega
	for i := 0; i < NumDirections; i++ {
		fi, ei := s.f[i], s.feq[i]
		for site := range fi {
			fi[site] = keep*fi[site] + s.omega*ei[site]
		}
	}
}

// Stream propagates the right and left populations in place. Right movers
// are swept in ascending site order and left movers in descending order, each
// site copying its upstream neighbour as already updated by the sweep, so
// the upstream edge value fills the lattice. The sweep order is part of the
// scheme and must not be reversed.
func (s *Solver) Stream() {
	right, left := s.f[Right], s.f[Left]
	for site := 1; site < s.nx; site++ {
		right[site] = right[site-1]
	}
	for site := s.nx - 2; site >= 0; site-- {
		left[site] = left[site+1]
	}
}

// UpdateMacroscopic recomputes rho and u from f. If any site ends up with
// zero density it returns a *SiteError wrapping ErrZeroDensity and leaves
// rho and u unchanged.
func (s *Solver) UpdateMacroscopic() error {
	rest, right, left := s.f[Rest], s.f[Right], s.f[Left]
	for site := 0; site < s.nx; site++ {
		if rest[site]+right[site]+left[site] == 0 {
			return &SiteError{Site: site, Wrapped: ErrZeroDensity}
		}
	}
	for site := 0; site < s.nx; site++ {
		rho := rest[site] + right[site] + left[site]
		s.rho[site] = rho
		s.u[site] = (right[site] - left[site]) / rho
	}
	return nil
}

// Step advances the solver by one collision, streaming and macroscopic
// update. It does not consult nt; Steps counts every call.
func (s *Solver) Step() error {
	s.Collide()
	s.Stream()
	if err := s.UpdateMacroscopic(); err != nil {
		return &StepError{Step: s.steps, Wrapped: err}
	}
	s.steps++
	return nil
}

// Evolve runs exactly nt steps. Calling it again runs another nt.
func (s *Solver) Evolve() error {
	return s.EvolveContext(context.Background())
}

// EvolveContext is Evolve with a cancellation check between steps.
func (s *Solver) EvolveContext(ctx context.Context) error {
	for n := 0; n < s.nt; n++ {
		select {
		case <-ctx.Done():
			return &StepError{Step: s.steps, Wrapped: ctx.Err()}
		default:
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}
