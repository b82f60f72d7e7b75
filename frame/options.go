package frame

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidOptions indicates an inconsistent or out-of-range frame
// configuration, detected before any audio is processed.
var ErrInvalidOptions = errors.New("invalid frame options")

// WindowType selects the shape of the analysis window.
type WindowType string

const (
	WindowHanning     WindowType = "hanning"
	WindowSine        WindowType = "sine"
	WindowHamming     WindowType = "hamming"
	WindowHann        WindowType = "hann"
	WindowPovey       WindowType = "povey"
	WindowRectangular WindowType = "rectangular"
	WindowBlackman    WindowType = "blackman"
)

// Options controls frame extraction: how raw samples are cut into
// frames and what per-frame conditioning is applied before the
// spectral transform.
type Options struct {
	SampleRate        float64    `json:"sample_rate"`           // Waveform sample rate in Hz (default: 16000)
	FrameShiftMs      float64    `json:"frame_shift_ms"`        // Frame shift in milliseconds (default: 10)
	FrameLengthMs     float64    `json:"frame_length_ms"`       // Frame length in milliseconds (default: 25)
	Dither            float64    `json:"dither"`                // Dithering amount; 0 disables (default: 3e-05)
	DitherSeed        uint64     `json:"dither_seed"`           // Base seed for deterministic dithering (default: 0)
	PreemphCoeff      float64    `json:"preemph_coeff"`         // Pre-emphasis coefficient; 0 disables (default: 0.97)
	RemoveDCOffset    bool       `json:"remove_dc_offset"`      // Subtract per-frame mean (default: true)
	WindowType        WindowType `json:"window_type"`           // Analysis window shape (default: povey)
	RoundToPowerOfTwo bool       `json:"round_to_power_of_two"` // Pad FFT input to next power of two (default: true)
	BlackmanCoeff     float64    `json:"blackman_coeff"`        // Blackman window constant (default: 0.42)
	SnipEdges         bool       `json:"snip_edges"`            // Confine frames to the signal (default: true)
}

// DefaultOptions returns the reference configuration: 16 kHz audio,
// 25 ms povey-windowed frames every 10 ms, light dithering,
// pre-emphasis 0.97, DC removal, power-of-two FFT padding and
// snip-edges segmentation.
func DefaultOptions() Options {
	return Options{
		SampleRate:        16000.0,
		FrameShiftMs:      10.0,
		FrameLengthMs:     25.0,
		Dither:            0.00003,
		PreemphCoeff:      0.97,
		RemoveDCOffset:    true,
		WindowType:        WindowPovey,
		RoundToPowerOfTwo: true,
		BlackmanCoeff:     0.42,
		SnipEdges:         true,
	}
}

// WindowShift returns the frame shift in samples.
func (o *Options) WindowShift() int {
	return int(o.SampleRate * 0.001 * o.FrameShiftMs)
}

// WindowSize returns the frame length in samples.
func (o *Options) WindowSize() int {
	return int(o.SampleRate * 0.001 * o.FrameLengthMs)
}

// PaddedWindowSize returns the FFT input length: the smallest power of
// two >= WindowSize when rounding is enabled, else WindowSize itself.
func (o *Options) PaddedWindowSize() int {
	size := o.WindowSize()
	if !o.RoundToPowerOfTwo || size <= 0 {
		return size
	}
	if size&(size-1) == 0 {
		return size
	}
	return 1 << bits.Len(uint(size))
}

// Validate checks the options for internal consistency.
func (o *Options) Validate() error {
	if o.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %v", ErrInvalidOptions, o.SampleRate)
	}
	if o.WindowSize() <= 0 {
		return fmt.Errorf("%w: frame length %vms yields zero samples at %vHz",
			ErrInvalidOptions, o.FrameLengthMs, o.SampleRate)
	}
	if o.WindowShift() <= 0 {
		return fmt.Errorf("%w: frame shift %vms yields zero samples at %vHz",
			ErrInvalidOptions, o.FrameShiftMs, o.SampleRate)
	}
	if o.Dither < 0 {
		return fmt.Errorf("%w: dither must be non-negative, got %v", ErrInvalidOptions, o.Dither)
	}
	if o.PreemphCoeff < 0 || o.PreemphCoeff > 1 {
		return fmt.Errorf("%w: pre-emphasis coefficient must be in [0, 1], got %v",
			ErrInvalidOptions, o.PreemphCoeff)
	}
	switch o.WindowType {
	case WindowHanning, WindowSine, WindowHamming, WindowHann,
		WindowPovey, WindowRectangular, WindowBlackman:
	default:
		return fmt.Errorf("%w: unknown window type %q", ErrInvalidOptions, o.WindowType)
	}
	return nil
}
