package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/lbm1d/internal/config"
	"github.com/san-kum/lbm1d/internal/lbm"
	"github.com/san-kum/lbm1d/internal/logging"
)

// Simulator drives an lbm.Solver built from a config, feeding metrics,
// observers and snapshots after every step.
type Simulator struct {
	logger    *slog.Logger
	metrics   []Metric
	observers []Observer
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		logger:    logging.Discard(),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// NewSolver builds a solver with the configured lattice, relaxation and
// binding energies.
func NewSolver(cfg *config.Config) (*lbm.Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	solver, err := lbm.New(cfg.Lattice.NX, cfg.Time.NT, cfg.Omega,
		lbm.WithSpacing(cfg.Lattice.Dx), lbm.WithTimestep(cfg.Time.Dt))
	if err != nil {
		return nil, err
	}
	if err := solver.SetBindingEnergies(cfg.EnergyProfile()); err != nil {
		return nil, err
	}
	return solver, nil
}

// Run evolves a fresh solver for cfg.Time.NT steps. On cancellation or a
// step failure the partial result is returned together with the error.
func (s *Simulator) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	solver, err := NewSolver(cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Config:    cfg.Clone(),
		Snapshots: make([]Snapshot, 0),
		Metrics:   make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Info("run started",
		"name", cfg.Name, "nx", cfg.Lattice.NX, "nt", cfg.Time.NT,
		"omega", cfg.Omega, "energies", len(cfg.Energies))

	every := cfg.Run.SnapshotEvery
	if every > 0 {
		s.snapshot(result, solver)
	}

	start := time.Now()
	defer func() {
		result.Elapsed = time.Since(start)
	}()

	for i := 0; i < cfg.Time.NT; i++ {
		select {
		case <-ctx.Done():
			return s.abort(result, solver, i, ctx.Err())
		default:
		}

		if err := solver.Step(); err != nil {
			return s.abort(result, solver, i, err)
		}
		result.StepsTaken++

		if cfg.Run.ValidateState && !solver.IsFinite() {
			return s.abort(result, solver, i, ErrUnstable)
		}

		for _, m := range s.metrics {
			m.Observe(solver.Steps(), solver)
		}
		for _, obs := range s.observers {
			obs.OnStep(solver.Steps(), solver)
		}
		if every > 0 && solver.Steps()%every == 0 {
			s.snapshot(result, solver)
		}

		s.logger.Log(ctx, logging.LevelTrace, "step",
			"step", solver.Steps(), "mass", solver.TotalDensity())
	}

	if err := s.finish(result, solver); err != nil {
		return result, fmt.Errorf("final occupations: %w", err)
	}

	s.logger.Info("run finished", "steps", result.StepsTaken, "mass", solver.TotalDensity())
	return result, nil
}

func (s *Simulator) snapshot(result *Result, solver *lbm.Solver) {
	occ, err := solver.Occupations()
	if err != nil {
		s.logger.Warn("snapshot skipped", "step", solver.Steps(), "err", err)
		return
	}
	result.Snapshots = append(result.Snapshots, Snapshot{Step: solver.Steps(), Occupations: occ})
}

// abort fills in whatever the solver can still report and wraps cause.
func (s *Simulator) abort(result *Result, solver *lbm.Solver, step int, cause error) (*Result, error) {
	if err := s.finish(result, solver); err != nil {
		s.logger.Warn("partial result without occupations", "step", step, "err", err)
	}
	s.logger.Warn("run stopped", "step", step, "steps_taken", result.StepsTaken, "err", cause)
	return result, SimError{Step: step, Err: cause}
}

func (s *Simulator) finish(result *Result, solver *lbm.Solver) error {
	result.Density = solver.Density()
	result.Velocity = solver.Velocity()
	result.Energies = solver.BindingEnergies()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	occ, err := solver.Occupations()
	if err != nil {
		return err
	}
	result.Occupations = occ
	return nil
}
