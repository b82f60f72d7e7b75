// Package mel builds triangular mel-frequency filterbanks mapping FFT
// bins to mel bands, supporting the Kaldi natural-log mel scale, the
// Slaney linear/log hybrid used by librosa and Whisper, and VTLN
// frequency warping.
package mel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/audioforge/featbank/frame"
)

// ErrInvalidMelConfig indicates a filterbank construction parameter
// violation.
var ErrInvalidMelConfig = errors.New("invalid mel configuration")

// NormSlaney scales each filter by 2/(bandwidth in Hz), the librosa
// "slaney" area normalization.
const NormSlaney = "slaney"

// Options parameterizes mel filterbank construction.
type Options struct {
	NumBins        int     `json:"num_bins"`         // Number of mel bands (default: 23)
	LowFreq        float64 `json:"low_freq"`         // Lower cutoff in Hz (default: 20)
	HighFreq       float64 `json:"high_freq"`        // Upper cutoff in Hz; <=0 means Nyquist+HighFreq (default: 0)
	VtlnLow        float64 `json:"vtln_low"`         // Lower VTLN inflection in Hz (default: 100)
	VtlnHigh       float64 `json:"vtln_high"`        // Upper VTLN inflection in Hz; <0 means Nyquist+VtlnHigh (default: -500)
	UseSlaneyScale bool    `json:"use_slaney_scale"` // Slaney mel formula instead of Kaldi's (default: false)
	Norm           string  `json:"norm"`             // "" or "slaney" (default: "")
}

// DefaultOptions returns the reference mel configuration: 23 bins from
// 20 Hz to Nyquist on the Kaldi scale, unnormalized.
func DefaultOptions() Options {
	return Options{
		NumBins:  23,
		LowFreq:  20.0,
		HighFreq: 0.0,
		VtlnLow:  100.0,
		VtlnHigh: -500.0,
	}
}

// Banks is an immutable filterbank: NumBins rows of weights over the
// first PaddedWindowSize/2 FFT bins. Built once per configuration and
// shared read-only across frames.
type Banks struct {
	numBins    int
	numFFTBins int
	weights    [][]float64
}

// NewBanks builds the filterbank for the given mel and frame options.
// vtlnWarp is the per-speaker warp factor; 1.0 means no warping.
func NewBanks(opts *Options, frameOpts *frame.Options, vtlnWarp float64) (*Banks, error) {
	windowLengthPadded := frameOpts.PaddedWindowSize()
	numFFTBins := windowLengthPadded / 2
	sampleFreq := frameOpts.SampleRate
	nyquist := 0.5 * sampleFreq

	highFreq := opts.HighFreq
	if highFreq <= 0 {
		highFreq = nyquist + opts.HighFreq
	}

	if opts.LowFreq < 0 || opts.LowFreq >= nyquist ||
		highFreq <= 0 || highFreq > nyquist || highFreq <= opts.LowFreq {
		return nil, fmt.Errorf("%w: frequency range [%v, %v] invalid for Nyquist %v",
			ErrInvalidMelConfig, opts.LowFreq, highFreq, nyquist)
	}
	if opts.NumBins < 3 {
		return nil, fmt.Errorf("%w: need at least 3 mel bins, got %d",
			ErrInvalidMelConfig, opts.NumBins)
	}
	if opts.NumBins > numFFTBins {
		return nil, fmt.Errorf("%w: %d mel bins exceed the %d-bin spectrum resolution",
			ErrInvalidMelConfig, opts.NumBins, numFFTBins)
	}
	if vtlnWarp <= 0 {
		return nil, fmt.Errorf("%w: vtln warp must be positive, got %v",
			ErrInvalidMelConfig, vtlnWarp)
	}

	scale := kaldiScale{}
	var melOf func(float64) float64 = scale.melOf
	var hzOf func(float64) float64 = scale.hzOf
	if opts.UseSlaneyScale {
		s := slaneyScale{}
		melOf, hzOf = s.melOf, s.hzOf
	}

	fftBinWidth := sampleFreq / float64(windowLengthPadded)
	melLow := melOf(opts.LowFreq)
	melHigh := melOf(highFreq)
	melDelta := (melHigh - melLow) / (float64(opts.NumBins) + 1.0)

	vtlnLow := opts.VtlnLow
	vtlnHigh := opts.VtlnHigh
	if vtlnHigh < 0 {
		vtlnHigh += nyquist
	}

	weights := make([][]float64, opts.NumBins)

	for bin := 0; bin < opts.NumBins; bin++ {
		leftMel := melLow + float64(bin)*melDelta
		centerMel := melLow + float64(bin+1)*melDelta
		rightMel := melLow + float64(bin+2)*melDelta

		if math.Abs(vtlnWarp-1.0) > 1e-5 {
			leftMel = vtlnWarpMel(vtlnLow, vtlnHigh, opts.LowFreq, highFreq, vtlnWarp, leftMel, melOf, hzOf)
			centerMel = vtlnWarpMel(vtlnLow, vtlnHigh, opts.LowFreq, highFreq, vtlnWarp, centerMel, melOf, hzOf)
			rightMel = vtlnWarpMel(vtlnLow, vtlnHigh, opts.LowFreq, highFreq, vtlnWarp, rightMel, melOf, hzOf)
		}

		row := make([]float64, numFFTBins)
		for i := 0; i < numFFTBins; i++ {
			freq := fftBinWidth * float64(i)
			m := melOf(freq)
			if m > leftMel && m < rightMel {
				if m <= centerMel {
					row[i] = (m - leftMel) / (centerMel - leftMel)
				} else {
					row[i] = (rightMel - m) / (rightMel - centerMel)
				}
			}
		}

		if opts.Norm == NormSlaney {
			enorm := 2.0 / (hzOf(rightMel) - hzOf(leftMel))
			floats.Scale(enorm, row)
		}

		weights[bin] = row
	}

	return &Banks{
		numBins:    opts.NumBins,
		numFFTBins: numFFTBins,
		weights:    weights,
	}, nil
}

// NumBins returns the number of mel bands.
func (b *Banks) NumBins() int {
	return b.numBins
}

// NumFFTBins returns the number of FFT bins each filter covers (half
// the padded window, Nyquist excluded).
func (b *Banks) NumFFTBins() int {
	return b.numFFTBins
}

// Row returns the weight row for one mel band, read-only.
func (b *Banks) Row(bin int) []float64 {
	return b.weights[bin]
}

// Apply projects a power (or magnitude) spectrum of NumFFTBins+1
// entries onto the mel bands, writing one energy per band into out.
// The Nyquist bin is carried by the spectrum but has no filter weight.
func (b *Banks) Apply(powerSpectrum []float64, out []float64) error {
	if len(powerSpectrum) < b.numFFTBins {
		return fmt.Errorf("%w: spectrum has %d bins, filterbank needs %d",
			ErrInvalidMelConfig, len(powerSpectrum), b.numFFTBins)
	}
	if len(out) < b.numBins {
		return fmt.Errorf("%w: output has %d slots, need %d",
			ErrInvalidMelConfig, len(out), b.numBins)
	}
	for r := 0; r < b.numBins; r++ {
		out[r] = floats.Dot(b.weights[r], powerSpectrum[:b.numFFTBins])
	}
	return nil
}
