package featbank

import (
	"github.com/audioforge/featbank/feature"
	"github.com/audioforge/featbank/frame"
)

// Compute runs the computer over a complete utterance and returns one
// feature vector per frame in temporal order. The whole buffer is
// treated as final, so with snip-edges disabled the trailing frames are
// flushed with mirror padding exactly as a finished stream would be.
func Compute(computer feature.Computer, wave []float64) ([][]float64, error) {
	opts := computer.FrameOptions()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	windowFunction, err := frame.NewWindow(opts)
	if err != nil {
		return nil, err
	}

	numFrames := frame.NumFrames(len(wave), opts, true)
	features := make([][]float64, 0, numFrames)
	windowBuf := make([]float64, opts.PaddedWindowSize())
	dim := computer.Dim()

	for idx := 0; idx < numFrames; idx++ {
		rawLogEnergy, err := frame.ExtractWindow(0, wave, idx, opts, windowFunction, windowBuf)
		if err != nil {
			return nil, err
		}

		vec := make([]float64, dim)
		if err := computer.Compute(rawLogEnergy, 1.0, windowBuf, vec); err != nil {
			return nil, err
		}
		features = append(features, vec)
	}

	return features, nil
}
