package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the transform engine behind the forward/inverse contract the
// feature computers rely on. It carries no state: both directions are
// pure functions of one frame, so a single FFT value can be shared
// across goroutines processing different frames.
type FFT struct{}

// NewFFT creates a new FFT engine.
func NewFFT() *FFT {
	return &FFT{}
}

// Forward transforms a real frame of length n into its n/2+1 positive
// frequency bins (DC through Nyquist).
func (f *FFT) Forward(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	full := fft.FFTReal(x)
	return full[:len(x)/2+1]
}

// Inverse is the exact adjoint of Forward: it reconstructs n real
// samples from n/2+1 positive frequency bins. The result is normalized,
// so Inverse(Forward(x)) == x up to rounding. n must be even and match
// the bin count via n/2+1.
func (f *FFT) Inverse(bins []complex128, n int) []float64 {
	if n <= 0 || len(bins) != n/2+1 {
		return []float64{}
	}

	// Rebuild the full hermitian spectrum the engine expects.
	full := make([]complex128, n)
	copy(full, bins)
	for k := 1; k < n/2; k++ {
		full[n-k] = complex(real(bins[k]), -imag(bins[k]))
	}

	result := fft.IFFT(full)
	samples := make([]float64, n)
	for i, v := range result {
		samples[i] = real(v)
	}
	return samples
}
