package analysis

import (
	"errors"
	"math"
)

// ErrEmptyDistribution is returned for a profile with no mass.
var ErrEmptyDistribution = errors.New("analysis: distribution has zero mass")

// Moments returns the mean site and standard deviation of p treated as a
// (not necessarily normalized) distribution over site indices.
func Moments(p []float64) (mean, stddev float64, err error) {
	total := 0.0
	for i, v := range p {
		total += v
		mean += float64(i) * v
	}
	if total == 0 {
		return 0, 0, ErrEmptyDistribution
	}
	mean /= total

	variance := 0.0
	for i, v := range p {
		d := float64(i) - mean
		variance += d * d * v
	}
	return mean, math.Sqrt(variance / total), nil
}
