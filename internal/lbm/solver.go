package lbm

import "math"

// Direction indexes the discrete velocity set.
type Direction int

const (
	Rest Direction = iota
	Right
	Left

	// NumDirections is the size of the D1Q3 velocity set.
	NumDirections = 3
)

var (
	velocities = [NumDirections]float64{0, 1, -1}
	weights    = [NumDirections]float64{1.0 / 3.0, 1.0 / 6.0, 1.0 / 6.0}
)

// Velocity returns the lattice velocity of d.
func (d Direction) Velocity() float64 { return velocities[d] }

// Weight returns the equilibrium weight of d.
func (d Direction) Weight() float64 { return weights[d] }

func (d Direction) String() string {
	switch d {
	case Rest:
		return "rest"
	case Right:
		return "right"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Solver holds the full state of a 1D lattice gas.
type Solver struct {
	nx    int
	nt    int
	omega float64

	// dx and dt are carried for callers but do not enter any computation.
	dx float64
	dt float64

	f       [NumDirections][]float64
	rho     []float64
	u       []float64
	epsilon []float64

	// feq is collision scratch, overwritten on every step.
	feq [NumDirections][]float64

	steps int
}

// Option configures optional solver parameters.
type Option func(*Solver)

// WithSpacing sets the lattice spacing. It is stored only.
func WithSpacing(dx float64) Option {
	return func(s *Solver) { s.dx = dx }
}

// WithTimestep sets the time step size. It is stored only.
func WithTimestep(dt float64) Option {
	return func(s *Solver) { s.dt = dt }
}

// New allocates a solver with nx sites that evolves for nt steps with
// relaxation rate omega. omega is not range checked; values outside [0, 2]
// make the scheme unstable.
func New(nx, nt int, omega float64, opts ...Option) (*Solver, error) {
	if nx < 1 {
		return nil, ErrInvalidLattice
	}
	if nt < 0 {
		return nil, ErrInvalidSteps
	}

	s := &Solver{
		nx:      nx,
		nt:      nt,
		omega:   omega,
		dx:      1.0,
		dt:      1.0,
		rho:     make([]float64, nx),
		u:       make([]float64, nx),
		epsilon: make([]float64, nx),
	}
	for i := range s.f {
		s.f[i] = make([]float64, nx)
		s.feq[i] = make([]float64, nx)
	}
	for i := range s.rho {
		s.rho[i] = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Solver) NX() int        { return s.nx }
func (s *Solver) NT() int        { return s.nt }
func (s *Solver) Omega() float64 { return s.omega }
func (s *Solver) Dx() float64    { return s.dx }
func (s *Solver) Dt() float64    { return s.dt }
func (s *Solver) Steps() int     { return s.steps }

func (s *Solver) inRange(site int) bool { return site >= 0 && site < s.nx }

// SetBindingEnergy overwrites the binding energy at one site. The value
// persists across steps until it is set again.
func (s *Solver) SetBindingEnergy(site int, energy float64) error {
	if !s.inRange(site) {
		return &SiteError{Site: site, Wrapped: ErrSiteOutOfRange}
	}
	s.epsilon[site] = energy
	return nil
}

// SetBindingEnergies replaces the whole binding energy field.
func (s *Solver) SetBindingEnergies(profile []float64) error {
	if len(profile) != s.nx {
		return ErrDimensionMismatch
	}
	copy(s.epsilon, profile)
	return nil
}

// BindingEnergy returns the binding energy at site.
func (s *Solver) BindingEnergy(site int) (float64, error) {
	if !s.inRange(site) {
		return 0, &SiteError{Site: site, Wrapped: ErrSiteOutOfRange}
	}
	return s.epsilon[site], nil
}

// BindingEnergies returns a copy of the binding energy field.
func (s *Solver) BindingEnergies() []float64 { return clone(s.epsilon) }

// Density returns a copy of rho.
func (s *Solver) Density() []float64 { return clone(s.rho) }

// Velocity returns a copy of u.
func (s *Solver) Velocity() []float64 { return clone(s.u) }

// Distribution returns a copy of the populations of direction d.
func (s *Solver) Distribution(d Direction) []float64 { return clone(s.f[d]) }

// TotalDensity returns the sum of rho over all sites.
func (s *Solver) TotalDensity() float64 {
	total := 0.0
	for _, r := range s.rho {
		total += r
	}
	return total
}

// Occupations returns rho normalized to a probability distribution over
// sites. It fails with ErrZeroDensity when the total density is zero.
func (s *Solver) Occupations() ([]float64, error) {
	total := s.TotalDensity()
	if total == 0 {
		return nil, ErrZeroDensity
	}
	occ := make([]float64, s.nx)
	for i, r := range s.rho {
		occ[i] = r / total
	}
	return occ, nil
}

// IsFinite reports whether every population and macroscopic value is
// finite. A false result usually means omega or the binding energies drove
// the scheme unstable.
func (s *Solver) IsFinite() bool {
	for _, fi := range s.f {
		if !allFinite(fi) {
			return false
		}
	}
	return allFinite(s.rho) && allFinite(s.u)
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clone(xs []float64) []float64 {
	c := make([]float64, len(xs))
	copy(c, xs)
	return c
}
