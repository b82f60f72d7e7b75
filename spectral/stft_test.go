package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioforge/featbank/frame"
)

func sineWave(n int, freq, sampleRate float64) []float64 {
	wave := make([]float64, n)
	for i := range wave {
		wave[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return wave
}

func TestComputeSTFTShape(t *testing.T) {
	opts := DefaultSTFTOptions()
	wave := sineWave(640, 440, 16000)

	res, err := ComputeSTFT(&opts, wave)
	require.NoError(t, err)

	// centered: padded to 640+400 samples -> 1+(1040-400)/160 frames
	assert.Equal(t, 5, res.NumFrames)
	require.Len(t, res.Spectrum, 5)
	assert.Len(t, res.Spectrum[0], 201)
}

func TestComputeSTFTUncentered(t *testing.T) {
	opts := DefaultSTFTOptions()
	opts.Center = false
	wave := sineWave(640, 440, 16000)

	res, err := ComputeSTFT(&opts, wave)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NumFrames)
}

func TestComputeSTFTShortInput(t *testing.T) {
	opts := DefaultSTFTOptions()
	opts.Center = false

	res, err := ComputeSTFT(&opts, sineWave(100, 440, 16000))
	require.NoError(t, err)
	assert.Equal(t, 0, res.NumFrames)
}

func TestComputeSTFTInvalidOptions(t *testing.T) {
	opts := DefaultSTFTOptions()
	opts.HopLength = 0
	_, err := ComputeSTFT(&opts, sineWave(640, 440, 16000))
	assert.ErrorIs(t, err, ErrInvalidSTFT)

	opts = DefaultSTFTOptions()
	opts.WinLength = 800
	_, err = ComputeSTFT(&opts, sineWave(640, 440, 16000))
	assert.ErrorIs(t, err, ErrInvalidSTFT)
}

func TestSTFTISTFTReconstruction(t *testing.T) {
	stftOpts := DefaultSTFTOptions()
	wave := sineWave(640, 440, 16000)

	res, err := ComputeSTFT(&stftOpts, wave)
	require.NoError(t, err)

	istftOpts := ISTFTOptionsFromSTFT(&stftOpts)
	recon, err := ComputeISTFT(&istftOpts, res)
	require.NoError(t, err)

	require.Len(t, recon, len(wave))
	maxErr := 0.0
	for i := range wave {
		maxErr = math.Max(maxErr, math.Abs(recon[i]-wave[i]))
	}
	assert.Less(t, maxErr, 1e-3, "max reconstruction error %v", maxErr)
}

func TestSTFTISTFTReconstructionNormalizedHann(t *testing.T) {
	stftOpts := DefaultSTFTOptions()
	stftOpts.WindowType = frame.WindowHann
	stftOpts.Normalized = true
	wave := sineWave(1600, 300, 16000)

	res, err := ComputeSTFT(&stftOpts, wave)
	require.NoError(t, err)

	istftOpts := ISTFTOptionsFromSTFT(&stftOpts)
	recon, err := ComputeISTFT(&istftOpts, res)
	require.NoError(t, err)

	require.Len(t, recon, len(wave))
	for i := range wave {
		assert.InDelta(t, wave[i], recon[i], 1e-3, "sample %d", i)
	}
}

func TestISTFTEmptySpectrogram(t *testing.T) {
	opts := DefaultISTFTOptions()
	recon, err := ComputeISTFT(&opts, &STFTResult{NFFT: 400})
	require.NoError(t, err)
	assert.Empty(t, recon)
}

func TestISTFTMismatchedNFFT(t *testing.T) {
	opts := DefaultISTFTOptions()
	_, err := ComputeISTFT(&opts, &STFTResult{NFFT: 512, NumFrames: 1,
		Spectrum: [][]complex128{make([]complex128, 257)}})
	assert.ErrorIs(t, err, ErrInvalidSTFT)
}

func TestPadModes(t *testing.T) {
	wave := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	for _, mode := range []PadMode{PadReflect, PadReplicate, PadConstant} {
		t.Run(string(mode), func(t *testing.T) {
			opts := STFTOptions{
				NFFT:       4,
				HopLength:  2,
				WinLength:  4,
				WindowType: frame.WindowRectangular,
				Center:     true,
				PadMode:    mode,
			}
			res, err := ComputeSTFT(&opts, wave)
			require.NoError(t, err)
			assert.Positive(t, res.NumFrames)
		})
	}
}
