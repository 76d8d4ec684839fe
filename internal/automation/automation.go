package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/lbm1d/internal/config"
	"github.com/san-kum/lbm1d/internal/lbm"
	"github.com/san-kum/lbm1d/internal/logging"
	"github.com/san-kum/lbm1d/internal/metrics"
	"github.com/san-kum/lbm1d/internal/sim"
)

// Scenario evolves one solver through consecutive phases, changing the
// binding energy landscape between them.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Base        config.Config `yaml:"base"`
	Phases      []Phase       `yaml:"phases"`
}

// Phase applies its energies, then runs Steps steps.
type Phase struct {
	Name          string              `yaml:"name"`
	Steps         int                 `yaml:"steps"`
	ClearEnergies bool                `yaml:"clear_energies"`
	Energies      []config.SiteEnergy `yaml:"energies"`
}

type PhaseResult struct {
	Name        string
	Steps       int
	TotalSteps  int
	Occupations []float64
	Entropy     float64
}

// LoadScenario loads a scenario from a YAML file. Missing base fields take
// the config defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	scenario := Scenario{Base: *config.DefaultConfig()}
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if err := s.Base.Validate(); err != nil {
		return err
	}
	if len(s.Phases) == 0 {
		return fmt.Errorf("%w: scenario %q has no phases", config.ErrInvalidConfig, s.Name)
	}
	for i, p := range s.Phases {
		if p.Steps < 0 {
			return fmt.Errorf("%w: phase %d has negative steps", config.ErrInvalidConfig, i+1)
		}
		for _, e := range p.Energies {
			if e.Site < 0 || e.Site >= s.Base.Lattice.NX {
				return fmt.Errorf("%w: phase %d energy site %d outside [0, %d)", config.ErrInvalidConfig, i+1, e.Site, s.Base.Lattice.NX)
			}
		}
	}
	return nil
}

// RunScenario executes every phase on the same solver. Results for the
// phases completed before a failure are returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario, logger *slog.Logger) ([]PhaseResult, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	solver, err := sim.NewSolver(&scenario.Base)
	if err != nil {
		return nil, err
	}

	results := make([]PhaseResult, 0, len(scenario.Phases))
	for i, phase := range scenario.Phases {
		logger.Info("phase started", "phase", i+1, "of", len(scenario.Phases), "name", phase.Name, "steps", phase.Steps)

		if err := applyPhase(solver, phase); err != nil {
			return results, fmt.Errorf("phase %d: %w", i+1, err)
		}
		for n := 0; n < phase.Steps; n++ {
			select {
			case <-ctx.Done():
				return results, fmt.Errorf("phase %d: %w", i+1, ctx.Err())
			default:
			}
			if err := solver.Step(); err != nil {
				return results, fmt.Errorf("phase %d: %w", i+1, err)
			}
		}

		occ, err := solver.Occupations()
		if err != nil {
			return results, fmt.Errorf("phase %d: %w", i+1, err)
		}
		results = append(results, PhaseResult{
			Name:        phase.Name,
			Steps:       phase.Steps,
			TotalSteps:  solver.Steps(),
			Occupations: occ,
			Entropy:     metrics.ShannonEntropy(occ),
		})
	}
	return results, nil
}

func applyPhase(solver *lbm.Solver, phase Phase) error {
	if phase.ClearEnergies {
		if err := solver.SetBindingEnergies(make([]float64, solver.NX())); err != nil {
			return err
		}
	}
	for _, e := range phase.Energies {
		if err := solver.SetBindingEnergy(e.Site, e.Energy); err != nil {
			return err
		}
	}
	return nil
}
