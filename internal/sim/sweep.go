package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/lbm1d/internal/config"
)

// Sweep runs independent configurations concurrently. Every run gets its
// own Simulator from the factory so metrics are never shared.
type Sweep struct {
	factory func() *Simulator
	workers int
}

func NewSweep(factory func() *Simulator, workers int) *Sweep {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Sweep{factory: factory, workers: workers}
}

// Run returns results in the order of cfgs. The first failing run cancels
// the rest.
func (w *Sweep) Run(ctx context.Context, cfgs []*config.Config) ([]*Result, error) {
	results := make([]*Result, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	for i, cfg := range cfgs {
		g.Go(func() error {
			res, err := w.factory().Run(ctx, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// OmegaConfigs clones base once per relaxation rate.
func OmegaConfigs(base *config.Config, omegas []float64) []*config.Config {
	cfgs := make([]*config.Config, len(omegas))
	for i, omega := range omegas {
		cfg := base.Clone()
		cfg.Omega = omega
		cfgs[i] = cfg
	}
	return cfgs
}

// EnergyConfigs clones base once per energy value placed at site. Existing
// entries for that site are replaced by a single entry in place of the first.
func EnergyConfigs(base *config.Config, site int, energies []float64) []*config.Config {
	cfgs := make([]*config.Config, len(energies))
	for i, e := range energies {
		cfg := base.Clone()
		cfg.Energies = withSiteEnergy(cfg.Energies, site, e)
		cfgs[i] = cfg
	}
	return cfgs
}

func withSiteEnergy(es []config.SiteEnergy, site int, energy float64) []config.SiteEnergy {
	out := es[:0]
	replaced := false
	for _, se := range es {
		if se.Site != site {
			out = append(out, se)
			continue
		}
		if !replaced {
			out = append(out, config.SiteEnergy{Site: site, Energy: energy})
			replaced = true
		}
	}
	if !replaced {
		out = append(out, config.SiteEnergy{Site: site, Energy: energy})
	}
	return out
}
