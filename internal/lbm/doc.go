// Package lbm implements a one-dimensional lattice Boltzmann solver (D1Q3)
// with a site-local binding energy that biases the equilibrium distribution.
//
// A [Solver] owns every field of the simulation:
//
//   - f: populations for the rest, right-moving and left-moving directions
//   - rho: density per site, the sum of f over directions
//   - u: velocity per site, (f_right - f_left) / rho
//   - epsilon: binding energy per site
//
// Each time step is Collide -> Stream -> UpdateMacroscopic. Only the
// evolution driver ([Solver.Step], [Solver.Evolve], [Solver.EvolveContext])
// advances state; queries between the three phases are not meaningful.
//
// # Example
//
//	s, _ := lbm.New(64, 200, 1.0)
//	_ = s.SetBindingEnergy(32, 2.0)
//	if err := s.Evolve(); err != nil {
//	    return err
//	}
//	occ, _ := s.Occupations()
//
// # Boundaries
//
// Both ends are open. Populations leaving the lattice are lost and nothing
// enters from outside, so total mass is not conserved near the edges.
//
// # Thread Safety
//
// Solver instances are NOT thread-safe. Run independent solvers in parallel
// instead of sharing one.
package lbm
