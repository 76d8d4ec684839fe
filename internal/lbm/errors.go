package lbm

import (
	"errors"
	"fmt"
)

// Domain errors for solver operations.
var (
	// ErrInvalidLattice indicates a lattice with fewer than one site.
	ErrInvalidLattice = errors.New("lbm: lattice must have at least one site")

	// ErrInvalidSteps indicates a negative number of time steps.
	ErrInvalidSteps = errors.New("lbm: number of steps must be non-negative")

	// ErrSiteOutOfRange indicates a site index outside [0, nx).
	ErrSiteOutOfRange = errors.New("lbm: site index out of range")

	// ErrDimensionMismatch indicates a per-site profile of the wrong length.
	ErrDimensionMismatch = errors.New("lbm: profile length does not match lattice")

	// ErrZeroDensity indicates a division by a zero density.
	ErrZeroDensity = errors.New("lbm: zero density")
)

// SiteError wraps an error with the offending lattice site.
type SiteError struct {
	Site    int
	Wrapped error
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("site %d: %v", e.Site, e.Wrapped)
}

func (e *SiteError) Unwrap() error {
	return e.Wrapped
}

// StepError wraps an error raised while advancing the solver.
type StepError struct {
	Step    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
