package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audioforge/featbank/frame"
)

// sineFrame produces a windowed, padded frame of a pure tone plus its
// raw log-energy, ready for a computer.
func sineFrame(t *testing.T, opts *frame.Options, freq float64) ([]float64, float64) {
	t.Helper()

	n := opts.WindowSize()
	wave := make([]float64, n)
	for i := range wave {
		wave[i] = math.Sin(2 * math.Pi * freq * float64(i) / opts.SampleRate)
	}

	w, err := frame.NewWindow(opts)
	require.NoError(t, err)

	out := make([]float64, opts.PaddedWindowSize())
	rawLogEnergy, err := frame.ExtractWindow(0, wave, 0, opts, w, out)
	require.NoError(t, err)
	return out, rawLogEnergy
}

func quietFbankOptions() FbankOptions {
	opts := DefaultFbankOptions()
	opts.FrameOpts.Dither = 0
	return opts
}

func TestFbankDim(t *testing.T) {
	opts := quietFbankOptions()
	c, err := NewFbank(opts)
	require.NoError(t, err)
	assert.Equal(t, 24, c.Dim())
	assert.True(t, c.NeedRawEnergy())

	opts.UseEnergy = false
	c, err = NewFbank(opts)
	require.NoError(t, err)
	assert.Equal(t, 23, c.Dim())
	assert.False(t, c.NeedRawEnergy())
}

func TestFbankInvalidOptions(t *testing.T) {
	opts := quietFbankOptions()
	opts.FrameOpts.SampleRate = 0
	_, err := NewFbank(opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	opts = quietFbankOptions()
	opts.MelOpts.LowFreq = 9000
	_, err = NewFbank(opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestFbankDeterministic(t *testing.T) {
	opts := quietFbankOptions()
	c, err := NewFbank(opts)
	require.NoError(t, err)

	signal, rawLogEnergy := sineFrame(t, &opts.FrameOpts, 440)

	a := make([]float64, c.Dim())
	b := make([]float64, c.Dim())
	require.NoError(t, c.Compute(rawLogEnergy, 1.0, signal, a))
	require.NoError(t, c.Compute(rawLogEnergy, 1.0, signal, b))

	assert.Equal(t, a, b, "identical inputs must yield bit-identical output")
}

func TestFbankSinePeakLocation(t *testing.T) {
	opts := quietFbankOptions()
	opts.UseEnergy = false
	opts.FrameOpts.PreemphCoeff = 0
	opts.FrameOpts.RemoveDCOffset = false
	c, err := NewFbank(opts)
	require.NoError(t, err)

	signal, rawLogEnergy := sineFrame(t, &opts.FrameOpts, 440)
	out := make([]float64, c.Dim())
	require.NoError(t, c.Compute(rawLogEnergy, 1.0, signal, out))

	peak := 0
	for i := range out {
		assert.False(t, math.IsNaN(out[i]))
		if out[i] > out[peak] {
			peak = i
		}
	}

	// Invert the filterbank construction to find the peak bin's center
	// frequency; a 440 Hz tone must land between 300 and 600 Hz.
	melOf := func(hz float64) float64 { return 1127.0 * math.Log(1.0+hz/700.0) }
	hzOf := func(mel float64) float64 { return 700.0 * (math.Exp(mel/1127.0) - 1.0) }
	melLow := melOf(opts.MelOpts.LowFreq)
	melHigh := melOf(opts.FrameOpts.SampleRate / 2)
	melDelta := (melHigh - melLow) / float64(opts.MelOpts.NumBins+1)
	centerHz := hzOf(melLow + float64(peak+1)*melDelta)

	assert.Greater(t, centerHz, 300.0)
	assert.Less(t, centerHz, 600.0)
}

func TestFbankEnergyPlacement(t *testing.T) {
	opts := quietFbankOptions()
	opts.FrameOpts.Dither = 0
	c, err := NewFbank(opts)
	require.NoError(t, err)

	signal, rawLogEnergy := sineFrame(t, &opts.FrameOpts, 440)
	out := make([]float64, c.Dim())
	require.NoError(t, c.Compute(rawLogEnergy, 1.0, signal, out))

	// raw energy lands in slot 0
	assert.Equal(t, rawLogEnergy, out[0])

	// HTK-compat layout: energy last instead
	opts.HtkCompat = true
	c, err = NewFbank(opts)
	require.NoError(t, err)
	require.Equal(t, 24, c.Dim())

	htkOut := make([]float64, c.Dim())
	require.NoError(t, c.Compute(rawLogEnergy, 1.0, signal, htkOut))
	assert.Equal(t, rawLogEnergy, htkOut[23])
	assert.Equal(t, out[1:24], htkOut[:23])
}

func TestFbankEnergyFloor(t *testing.T) {
	opts := quietFbankOptions()
	opts.EnergyFloor = 1.0 // floor at ln(1) = 0
	c, err := NewFbank(opts)
	require.NoError(t, err)

	signal := make([]float64, opts.FrameOpts.PaddedWindowSize())
	out := make([]float64, c.Dim())
	require.NoError(t, c.Compute(-50.0, 1.0, signal, out))
	assert.Equal(t, 0.0, out[0])
}

func TestFbankRecomputesEnergyWhenNotRaw(t *testing.T) {
	opts := quietFbankOptions()
	opts.RawEnergy = false
	c, err := NewFbank(opts)
	require.NoError(t, err)
	assert.False(t, c.NeedRawEnergy())

	signal, _ := sineFrame(t, &opts.FrameOpts, 440)
	out := make([]float64, c.Dim())
	require.NoError(t, c.Compute(0.0, 1.0, signal, out))

	want := 0.0
	for _, s := range signal {
		want += s * s
	}
	assert.InDelta(t, math.Log(want), out[0], 1e-9)
}

func TestFbankLinearOutput(t *testing.T) {
	opts := quietFbankOptions()
	opts.UseEnergy = false
	opts.UseLogFbank = false
	c, err := NewFbank(opts)
	require.NoError(t, err)

	signal, rawLogEnergy := sineFrame(t, &opts.FrameOpts, 440)
	out := make([]float64, c.Dim())
	require.NoError(t, c.Compute(rawLogEnergy, 1.0, signal, out))

	for i, v := range out {
		assert.GreaterOrEqual(t, v, 0.0, "linear mel energy %d", i)
	}
}
