package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardImpulse(t *testing.T) {
	engine := NewFFT()

	x := make([]float64, 8)
	x[0] = 1.0
	bins := engine.Forward(x)

	require.Len(t, bins, 5)
	for i, c := range bins {
		assert.InDelta(t, 1.0, real(c), 1e-12, "bin %d", i)
		assert.InDelta(t, 0.0, imag(c), 1e-12, "bin %d", i)
	}
}

func TestForwardDC(t *testing.T) {
	engine := NewFFT()

	x := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	bins := engine.Forward(x)

	require.Len(t, bins, 5)
	assert.InDelta(t, 8.0, real(bins[0]), 1e-12)
	for i := 1; i < len(bins); i++ {
		assert.InDelta(t, 0.0, real(bins[i]), 1e-12)
		assert.InDelta(t, 0.0, imag(bins[i]), 1e-12)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	engine := NewFFT()

	n := 64
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2*math.Pi*5*float64(i)/float64(n)) + 0.25*float64(i%3)
	}

	bins := engine.Forward(x)
	require.Len(t, bins, n/2+1)

	back := engine.Inverse(bins, n)
	require.Len(t, back, n)
	for i := range x {
		assert.InDelta(t, x[i], back[i], 1e-9, "sample %d", i)
	}
}

func TestInverseRejectsMismatchedBins(t *testing.T) {
	engine := NewFFT()
	assert.Empty(t, engine.Inverse(make([]complex128, 4), 64))
	assert.Empty(t, engine.Inverse(nil, 0))
}

func TestPowerAndMagnitudeSpectrum(t *testing.T) {
	bins := []complex128{complex(3, 4), complex(0, 2), complex(-1, 0)}

	power := PowerSpectrum(bins)
	assert.Equal(t, []float64{25, 4, 1}, power)

	magnitude := MagnitudeSpectrum(bins)
	assert.InDelta(t, 5.0, magnitude[0], 1e-12)
	assert.InDelta(t, 2.0, magnitude[1], 1e-12)
	assert.InDelta(t, 1.0, magnitude[2], 1e-12)

	into := make([]float64, 3)
	PowerSpectrumInto(bins, into)
	assert.Equal(t, power, into)
}

func TestSinePowerSpectrumPeak(t *testing.T) {
	engine := NewFFT()

	n := 512
	sampleRate := 16000.0
	freq := 1000.0
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	power := PowerSpectrum(engine.Forward(x))

	peak := 0
	for i := 1; i < len(power); i++ {
		if power[i] > power[peak] {
			peak = i
		}
	}
	binFreq := float64(peak) * sampleRate / float64(n)
	assert.InDelta(t, freq, binFreq, sampleRate/float64(n)+1)
}
