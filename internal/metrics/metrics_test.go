package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/lbm1d/internal/config"
	"github.com/san-kum/lbm1d/internal/lbm"
)

func evolved(t *testing.T, nx, nt int, energies map[int]float64) *lbm.Solver {
	t.Helper()
	s, err := lbm.New(nx, nt, 1.0)
	require.NoError(t, err)
	for site, e := range energies {
		require.NoError(t, s.SetBindingEnergy(site, e))
	}
	require.NoError(t, s.Evolve())
	return s
}

func TestEntropy_UniformIsLogN(t *testing.T) {
	s := evolved(t, 16, 3, nil)

	e := NewEntropy()
	e.Observe(s.Steps(), s)
	assert.InDelta(t, math.Log(16), e.Value(), 1e-12)

	e.Reset()
	assert.Zero(t, e.Value())
}

func TestEntropy_DropsWithBindingEnergy(t *testing.T) {
	flat := evolved(t, 11, 1, nil)
	trapped := evolved(t, 11, 1, map[int]float64{5: 3})

	a, b := NewEntropy(), NewEntropy()
	a.Observe(1, flat)
	b.Observe(1, trapped)
	assert.Less(t, b.Value(), a.Value())
}

func TestPeakOccupation(t *testing.T) {
	p := NewPeakOccupation()
	assert.Equal(t, -1, p.Site())

	s := evolved(t, 11, 1, map[int]float64{5: 1})
	p.Observe(1, s)

	occ, err := s.Occupations()
	require.NoError(t, err)
	for _, o := range occ {
		assert.LessOrEqual(t, o, p.Value())
	}
	assert.Equal(t, occ[p.Site()], p.Value())
}

func TestTotalMassAndGrowth(t *testing.T) {
	s, err := lbm.New(8, 4, 1.0)
	require.NoError(t, err)

	mass, growth := NewTotalMass(), NewMassGrowth()
	assert.Equal(t, 1.0, growth.Value())

	var totals []float64
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Step())
		mass.Observe(s.Steps(), s)
		growth.Observe(s.Steps(), s)
		totals = append(totals, s.TotalDensity())
	}

	assert.Equal(t, totals[3], mass.Value())
	want := math.Pow(totals[3]/totals[0], 1.0/3.0)
	assert.InDelta(t, want, growth.Value(), 1e-12)

	growth.Reset()
	assert.Equal(t, 1.0, growth.Value())
}

func TestStability(t *testing.T) {
	st := NewStability()
	assert.Equal(t, 1.0, st.Value())

	ok := evolved(t, 4, 1, nil)
	bad := evolved(t, 4, 1, map[int]float64{1: 2000})

	st.Observe(1, ok)
	st.Observe(1, bad)
	assert.Equal(t, 0.5, st.Value())
}

func TestDefaultsWiredIntoRun(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Lattice.NX = 10
	cfg.Time.NT = 4

	result, err := NewSimulator().Run(context.Background(), cfg)
	require.NoError(t, err)

	for _, m := range Defaults() {
		assert.Contains(t, result.Metrics, m.Name())
	}
	assert.Equal(t, 1.0, result.Metrics["stability"])
	assert.InDelta(t, math.Log(10), result.Metrics["entropy"], 1e-12)
}
