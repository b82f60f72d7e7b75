package spectral

import (
	"fmt"
	"math"

	"github.com/audioforge/featbank/frame"
)

// ISTFTOptions configures the inverse short-time Fourier transform.
// The analysis parameters must match the STFT that produced the
// spectrogram for the reconstruction to be faithful.
type ISTFTOptions struct {
	NFFT          int              `json:"n_fft"`
	HopLength     int              `json:"hop_length"`
	WinLength     int              `json:"win_length"`
	WindowType    frame.WindowType `json:"window_type"`
	BlackmanCoeff float64          `json:"blackman_coeff"`
	Center        bool             `json:"center"`
	Normalized    bool             `json:"normalized"`
}

// DefaultISTFTOptions returns the counterpart of DefaultSTFTOptions.
func DefaultISTFTOptions() ISTFTOptions {
	return ISTFTOptions{
		NFFT:          400,
		HopLength:     160,
		WinLength:     400,
		WindowType:    frame.WindowPovey,
		BlackmanCoeff: 0.42,
		Center:        true,
		Normalized:    false,
	}
}

// ISTFTOptionsFromSTFT derives matching inverse options from the
// forward configuration.
func ISTFTOptionsFromSTFT(s *STFTOptions) ISTFTOptions {
	return ISTFTOptions{
		NFFT:          s.NFFT,
		HopLength:     s.HopLength,
		WinLength:     s.WinLength,
		WindowType:    s.WindowType,
		BlackmanCoeff: s.BlackmanCoeff,
		Center:        s.Center,
		Normalized:    s.Normalized,
	}
}

// ComputeISTFT reconstructs a waveform from a complex spectrogram by
// windowed overlap-add, normalizing by the accumulated window energy
// and trimming the centering padding.
func ComputeISTFT(opts *ISTFTOptions, stft *STFTResult) ([]float64, error) {
	if opts.NFFT <= 0 {
		return nil, fmt.Errorf("%w: n_fft=%d", ErrInvalidSTFT, opts.NFFT)
	}
	if stft.NumFrames == 0 {
		return []float64{}, nil
	}
	if stft.NFFT != opts.NFFT {
		return nil, fmt.Errorf("%w: spectrogram n_fft %d does not match options n_fft %d",
			ErrInvalidSTFT, stft.NFFT, opts.NFFT)
	}

	window, err := frame.NewWindowOfSize(opts.WindowType, opts.WinLength, opts.BlackmanCoeff)
	if err != nil {
		return nil, err
	}

	nFFT := opts.NFFT
	hop := opts.HopLength
	totalLen := nFFT + (stft.NumFrames-1)*hop
	bins := nFFT/2 + 1

	samples := make([]float64, totalLen)
	denom := make([]float64, totalLen)

	engine := NewFFT()
	row := make([]complex128, bins)
	winLen := min(opts.WinLength, nFFT)
	coeffs := window.Coefficients()

	preScale := 1.0
	if opts.Normalized {
		preScale = math.Sqrt(float64(nFFT))
	}

	for i := 0; i < stft.NumFrames; i++ {
		src := stft.Spectrum[i]
		if len(src) != bins {
			return nil, fmt.Errorf("%w: frame %d has %d bins, want %d",
				ErrInvalidSTFT, i, len(src), bins)
		}
		for k := range row {
			row[k] = src[k] * complex(preScale, 0)
		}

		frameBuf := engine.Inverse(row, nFFT)
		window.Apply(frameBuf[:winLen])

		start := i * hop
		for k := 0; k < nFFT; k++ {
			samples[start+k] += frameBuf[k]
		}
		for k := 0; k < winLen; k++ {
			denom[start+k] += coeffs[k] * coeffs[k]
		}
	}

	for i := range samples {
		if denom[i] > 1e-10 {
			samples[i] /= denom[i]
		}
	}

	if opts.Center {
		cut := nFFT / 2
		if totalLen > 2*cut {
			return samples[cut : totalLen-cut], nil
		}
		return []float64{}, nil
	}
	return samples, nil
}
