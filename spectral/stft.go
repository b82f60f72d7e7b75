package spectral

import (
	"errors"
	"fmt"
	"math"

	"github.com/audioforge/featbank/frame"
)

// ErrInvalidSTFT indicates inconsistent STFT/ISTFT parameters.
var ErrInvalidSTFT = errors.New("invalid stft options")

// PadMode selects how the signal is extended when centering frames.
type PadMode string

const (
	PadReflect   PadMode = "reflect"
	PadReplicate PadMode = "replicate"
	PadConstant  PadMode = "constant"
)

// STFTOptions configures the short-time Fourier transform.
type STFTOptions struct {
	NFFT          int              `json:"n_fft"`          // FFT size (default: 400)
	HopLength     int              `json:"hop_length"`     // Samples between frames (default: 160)
	WinLength     int              `json:"win_length"`     // Window length in samples (default: 400)
	WindowType    frame.WindowType `json:"window_type"`    // Analysis window shape (default: povey)
	BlackmanCoeff float64          `json:"blackman_coeff"` // Only used by the blackman window
	Center        bool             `json:"center"`         // Pad so frames are centered on hop multiples (default: true)
	PadMode       PadMode          `json:"pad_mode"`       // Edge extension when centering (default: reflect)
	Normalized    bool             `json:"normalized"`     // Scale bins by 1/sqrt(n_fft)
}

// DefaultSTFTOptions returns the reference STFT configuration.
func DefaultSTFTOptions() STFTOptions {
	return STFTOptions{
		NFFT:          400,
		HopLength:     160,
		WinLength:     400,
		WindowType:    frame.WindowPovey,
		BlackmanCoeff: 0.42,
		Center:        true,
		PadMode:       PadReflect,
		Normalized:    false,
	}
}

// STFTResult holds one complex spectrogram: NumFrames frames of
// NFFT/2+1 bins each, in temporal order.
type STFTResult struct {
	Spectrum  [][]complex128 `json:"-"`
	NumFrames int            `json:"num_frames"`
	NFFT      int            `json:"n_fft"`
}

// ComputeSTFT computes the short-time Fourier transform of the
// waveform. An input too short for a single frame yields an empty
// result rather than an error.
func ComputeSTFT(opts *STFTOptions, waveform []float64) (*STFTResult, error) {
	if opts.NFFT <= 0 || opts.HopLength <= 0 || opts.WinLength <= 0 {
		return nil, fmt.Errorf("%w: n_fft=%d hop=%d win=%d", ErrInvalidSTFT,
			opts.NFFT, opts.HopLength, opts.WinLength)
	}
	if opts.WinLength > opts.NFFT {
		return nil, fmt.Errorf("%w: win_length %d exceeds n_fft %d", ErrInvalidSTFT,
			opts.WinLength, opts.NFFT)
	}

	window, err := frame.NewWindowOfSize(opts.WindowType, opts.WinLength, opts.BlackmanCoeff)
	if err != nil {
		return nil, err
	}

	padded := padWaveform(opts, waveform)
	if len(padded) < opts.NFFT {
		return &STFTResult{Spectrum: [][]complex128{}, NumFrames: 0, NFFT: opts.NFFT}, nil
	}

	numFrames := 1 + (len(padded)-opts.NFFT)/opts.HopLength
	bins := opts.NFFT/2 + 1

	engine := NewFFT()
	spectrum := make([][]complex128, numFrames)
	frameBuf := make([]float64, opts.NFFT)

	scale := 1.0
	if opts.Normalized {
		scale = 1.0 / math.Sqrt(float64(opts.NFFT))
	}

	for i := 0; i < numFrames; i++ {
		start := i * opts.HopLength
		copy(frameBuf, padded[start:start+opts.NFFT])
		window.Apply(frameBuf)

		out := engine.Forward(frameBuf)
		row := make([]complex128, bins)
		copy(row, out)
		if opts.Normalized {
			for k := range row {
				row[k] *= complex(scale, 0)
			}
		}
		spectrum[i] = row
	}

	return &STFTResult{Spectrum: spectrum, NumFrames: numFrames, NFFT: opts.NFFT}, nil
}

// padWaveform extends the signal by NFFT/2 on each side when centering
// is enabled.
func padWaveform(opts *STFTOptions, waveform []float64) []float64 {
	if !opts.Center {
		return waveform
	}
	pad := opts.NFFT / 2
	padded := make([]float64, 0, len(waveform)+2*pad)

	switch opts.PadMode {
	case PadReflect:
		for i := 0; i < pad; i++ {
			idx := pad - i
			if idx >= len(waveform) {
				idx = max(len(waveform)-1, 0)
			}
			padded = append(padded, at(waveform, idx))
		}
		padded = append(padded, waveform...)
		for i := 0; i < pad; i++ {
			idx := len(waveform) - 2 - i
			if idx < 0 || idx >= len(waveform) {
				idx = 0
			}
			padded = append(padded, at(waveform, idx))
		}
	case PadReplicate:
		first, last := 0.0, 0.0
		if len(waveform) > 0 {
			first, last = waveform[0], waveform[len(waveform)-1]
		}
		for i := 0; i < pad; i++ {
			padded = append(padded, first)
		}
		padded = append(padded, waveform...)
		for i := 0; i < pad; i++ {
			padded = append(padded, last)
		}
	default: // constant zero
		padded = append(padded, make([]float64, pad)...)
		padded = append(padded, waveform...)
		padded = append(padded, make([]float64, pad)...)
	}
	return padded
}

func at(waveform []float64, idx int) float64 {
	if idx < 0 || idx >= len(waveform) {
		return 0
	}
	return waveform[idx]
}
