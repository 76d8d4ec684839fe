package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum returns the magnitude of the discrete Fourier transform of the
// mean-removed profile for wavenumbers 0..len/2. Any length is accepted.
func Spectrum(profile []float64) []float64 {
	n := len(profile)
	if n == 0 {
		return nil
	}

	mean := 0.0
	for _, v := range profile {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range profile {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	ps := make([]float64, n/2+1)
	for k := range ps {
		ps[k] = cmplx.Abs(coeffs[k])
	}
	return ps
}

// DominantWavenumber returns the index k >= 1 with the largest magnitude and
// the wavelength n/k in sites. It returns 0, 0 for flat or short profiles.
func DominantWavenumber(profile []float64) (k int, wavelength float64) {
	ps := Spectrum(profile)
	best := 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > best {
			best, k = ps[i], i
		}
	}
	if k == 0 {
		return 0, 0
	}
	return k, float64(len(profile)) / float64(k)
}
