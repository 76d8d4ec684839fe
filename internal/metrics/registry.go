package metrics

import "github.com/san-kum/lbm1d/internal/sim"

// Defaults returns a fresh set of the standard run metrics.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewTotalMass(),
		NewMassGrowth(),
		NewPeakOccupation(),
		NewEntropy(),
		NewStability(),
	}
}

// NewSimulator returns a simulator with Defaults attached.
func NewSimulator(opts ...sim.Option) *sim.Simulator {
	s := sim.New(opts...)
	for _, m := range Defaults() {
		s.AddMetric(m)
	}
	return s
}
