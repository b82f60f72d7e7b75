package spectral

import (
	"math/cmplx"
)

// PowerSpectrum computes the squared magnitude of each frequency bin.
// No normalization is applied beyond what the feature computers expect.
func PowerSpectrum(bins []complex128) []float64 {
	power := make([]float64, len(bins))
	for i, c := range bins {
		re, im := real(c), imag(c)
		power[i] = re*re + im*im
	}
	return power
}

// MagnitudeSpectrum computes the magnitude of each frequency bin.
func MagnitudeSpectrum(bins []complex128) []float64 {
	magnitude := make([]float64, len(bins))
	for i, c := range bins {
		magnitude[i] = cmplx.Abs(c)
	}
	return magnitude
}

// PowerSpectrumInto writes the squared magnitudes into out, which must
// be at least len(bins) long. Used on the per-frame hot path to avoid
// allocating.
func PowerSpectrumInto(bins []complex128, out []float64) {
	for i, c := range bins {
		re, im := real(c), imag(c)
		out[i] = re*re + im*im
	}
}
