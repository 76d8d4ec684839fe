package automation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/san-kum/lbm1d/internal/config"
	"github.com/san-kum/lbm1d/internal/metrics"
	"github.com/san-kum/lbm1d/internal/sim"
)

// DisorderConfig describes a Monte Carlo study over random binding energy
// landscapes drawn uniformly from [-Amplitude, Amplitude].
type DisorderConfig struct {
	Base      *config.Config
	Amplitude float64
	Trials    int
	Seed      int64
}

type DisorderResult struct {
	Trial          int
	Energies       []float64
	PeakSite       int
	PeakOccupation float64
	Entropy        float64
	Stable         bool
}

// RunDisorder evolves one solver per trial. A trial whose solver diverges
// is recorded as unstable rather than failing the study.
func RunDisorder(ctx context.Context, cfg DisorderConfig) ([]DisorderResult, error) {
	if cfg.Base == nil {
		cfg.Base = config.DefaultConfig()
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, err
	}
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", config.ErrInvalidConfig, cfg.Trials)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	nx := cfg.Base.Lattice.NX
	results := make([]DisorderResult, 0, cfg.Trials)
	for trial := 0; trial < cfg.Trials; trial++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		energies := make([]float64, nx)
		for i := range energies {
			energies[i] = (rng.Float64()*2 - 1) * cfg.Amplitude
		}

		solver, err := sim.NewSolver(cfg.Base)
		if err != nil {
			return nil, err
		}
		if err := solver.SetBindingEnergies(energies); err != nil {
			return nil, err
		}

		res := DisorderResult{Trial: trial, Energies: energies, PeakSite: -1}
		if err := solver.EvolveContext(ctx); err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			results = append(results, res)
			continue
		}

		res.Stable = solver.IsFinite()
		if occ, err := solver.Occupations(); err == nil && res.Stable {
			for i, o := range occ {
				if res.PeakSite < 0 || o > res.PeakOccupation {
					res.PeakSite, res.PeakOccupation = i, o
				}
			}
			res.Entropy = metrics.ShannonEntropy(occ)
		} else {
			res.Stable = false
		}
		results = append(results, res)
	}
	return results, nil
}

// DisorderStats summarizes a study: mean entropy and peak occupation over
// stable trials and the stable/unstable counts.
func DisorderStats(results []DisorderResult) (meanEntropy, meanPeak float64, stable, unstable int) {
	for _, r := range results {
		if !r.Stable {
			unstable++
			continue
		}
		stable++
		meanEntropy += r.Entropy
		meanPeak += r.PeakOccupation
	}
	if stable > 0 {
		meanEntropy /= float64(stable)
		meanPeak /= float64(stable)
	}
	return
}
