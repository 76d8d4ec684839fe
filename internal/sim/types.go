package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/lbm1d/internal/config"
	"github.com/san-kum/lbm1d/internal/lbm"
)

// ErrUnstable indicates the solver produced a non-finite value.
var ErrUnstable = errors.New("sim: solver diverged (NaN or Inf detected)")

// Metric accumulates a scalar over the steps of one run.
type Metric interface {
	Name() string
	Observe(step int, s *lbm.Solver)
	Value() float64
	Reset()
}

// Observer is notified after every completed step.
type Observer interface {
	OnStep(step int, s *lbm.Solver)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(step int, s *lbm.Solver)

func (f ObserverFunc) OnStep(step int, s *lbm.Solver) { f(step, s) }

// Snapshot is the occupation profile after Step completed steps.
type Snapshot struct {
	Step        int       `json:"step"`
	Occupations []float64 `json:"occupations"`
}

type Result struct {
	Config      *config.Config
	Occupations []float64
	Density     []float64
	Velocity    []float64
	Energies    []float64
	Snapshots   []Snapshot
	Metrics     map[string]float64
	StepsTaken  int
	Elapsed     time.Duration
}

// SimError wraps a failure with the step at which it happened.
type SimError struct {
	Step int
	Err  error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Err)
}

func (e SimError) Unwrap() error { return e.Err }
