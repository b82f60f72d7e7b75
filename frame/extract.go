package frame

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrInvalidFrame indicates that a requested frame lies outside the
// available buffer and no padding policy covers the gap.
var ErrInvalidFrame = errors.New("invalid frame")

// rawEnergyFloor guards the log of the pre-window frame energy.
const rawEnergyFloor = 1e-10

// ExtractWindow cuts frame frameIndex out of wave, conditions it and
// writes the windowed, zero-padded result into windowOut, which must be
// PaddedWindowSize long. sampleOffset is the absolute index of wave[0],
// so a streaming caller can hand in only the unconsumed tail of the
// utterance.
//
// The processing order is fixed: copy (with reflection at the signal
// edges when snip-edges is disabled), dither, DC removal, pre-emphasis,
// raw log-energy, window. The returned value is ln(max(energy, 1e-10))
// of the conditioned frame taken before the window is applied.
//
// Dither noise is drawn from a PCG stream seeded with (opts.DitherSeed,
// the frame's absolute first-sample index), so the same frame always
// receives the same noise no matter how the waveform was chunked.
func ExtractWindow(sampleOffset int64, wave []float64, frameIndex int, opts *Options, windowFunction *Window, windowOut []float64) (float64, error) {
	frameLength := opts.WindowSize()
	numSamples := sampleOffset + int64(len(wave))
	startSample := FirstSampleOfFrame(frameIndex, opts)
	endSample := startSample + int64(frameLength)

	if len(windowOut) < opts.PaddedWindowSize() {
		return 0, fmt.Errorf("%w: output buffer %d shorter than padded window %d",
			ErrInvalidFrame, len(windowOut), opts.PaddedWindowSize())
	}

	if opts.SnipEdges {
		if startSample < sampleOffset || endSample > numSamples {
			return 0, fmt.Errorf("%w: frame %d spans [%d, %d) outside buffer [%d, %d)",
				ErrInvalidFrame, frameIndex, startSample, endSample, sampleOffset, numSamples)
		}
	} else if sampleOffset != 0 && startSample < sampleOffset {
		return 0, fmt.Errorf("%w: frame %d starts at %d before retained offset %d",
			ErrInvalidFrame, frameIndex, startSample, sampleOffset)
	}

	for i := range windowOut {
		windowOut[i] = 0
	}

	waveStart := startSample - sampleOffset
	for s := 0; s < frameLength; s++ {
		idx := int64(s) + waveStart
		// Reflect out-of-range indices at the buffer edges. Iterated so
		// signals shorter than half a frame still resolve.
		for idx < 0 || idx >= int64(len(wave)) {
			if idx < 0 {
				idx = -idx - 1
			} else {
				idx = 2*int64(len(wave)) - 1 - idx
			}
		}
		windowOut[s] = wave[idx]
	}

	if opts.Dither != 0 {
		rng := rand.New(rand.NewPCG(opts.DitherSeed, uint64(startSample)))
		for i := 0; i < frameLength; i++ {
			windowOut[i] += opts.Dither * (rng.Float64() - 0.5)
		}
	}

	if opts.RemoveDCOffset {
		sum := 0.0
		for i := 0; i < frameLength; i++ {
			sum += windowOut[i]
		}
		mean := sum / float64(frameLength)
		for i := 0; i < frameLength; i++ {
			windowOut[i] -= mean
		}
	}

	if opts.PreemphCoeff != 0 {
		// Processed in reverse so each sample sees its unmodified
		// predecessor; the first sample is emphasized against itself.
		for i := frameLength - 1; i > 0; i-- {
			windowOut[i] -= opts.PreemphCoeff * windowOut[i-1]
		}
		windowOut[0] -= opts.PreemphCoeff * windowOut[0]
	}

	energy := 0.0
	for i := 0; i < frameLength; i++ {
		energy += windowOut[i] * windowOut[i]
	}
	logEnergy := math.Log(math.Max(energy, rawEnergyFloor))

	if windowFunction != nil {
		windowFunction.Apply(windowOut[:frameLength])
	}

	return logEnergy, nil
}
