package frame

import (
	"fmt"
	"math"
)

// Window holds precomputed multiplicative coefficients for one window
// shape and length. Immutable once built; safe to share across frames
// and goroutines.
type Window struct {
	windowType WindowType
	data       []float64
}

// NewWindow builds the analysis window described by the options. The
// table has WindowSize entries; the zero padding out to the FFT length
// is done during extraction, not here.
func NewWindow(opts *Options) (*Window, error) {
	return NewWindowOfSize(opts.WindowType, opts.WindowSize(), opts.BlackmanCoeff)
}

// NewWindowOfSize builds a window of an explicit sample count. STFT and
// ISTFT use this to size the window by n_fft rather than milliseconds.
func NewWindowOfSize(windowType WindowType, size int, blackmanCoeff float64) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: window size must be positive, got %d", ErrInvalidOptions, size)
	}

	data := make([]float64, size)
	a := 2 * math.Pi / float64(size-1)
	// The hann shape divides by the full size, every other shape by size-1.
	aHann := 2 * math.Pi / float64(size)

	for i := range data {
		x := float64(i)
		switch windowType {
		case WindowHanning:
			data[i] = 0.5 - 0.5*math.Cos(a*x)
		case WindowSine:
			data[i] = math.Sin(0.5 * a * x)
		case WindowHamming:
			data[i] = 0.54 - 0.46*math.Cos(a*x)
		case WindowHann:
			data[i] = 0.5 - 0.5*math.Cos(aHann*x)
		case WindowPovey:
			data[i] = math.Pow(0.5-0.5*math.Cos(a*x), 0.85)
		case WindowRectangular:
			data[i] = 1.0
		case WindowBlackman:
			data[i] = blackmanCoeff - 0.5*math.Cos(a*x) +
				(0.5-blackmanCoeff)*math.Cos(2*a*x)
		default:
			return nil, fmt.Errorf("%w: unknown window type %q", ErrInvalidOptions, windowType)
		}
	}

	return &Window{windowType: windowType, data: data}, nil
}

// Apply multiplies the window into the signal in-place. Signals longer
// than the window are only scaled over the window's length.
func (w *Window) Apply(signal []float64) {
	n := min(len(signal), len(w.data))
	for i := 0; i < n; i++ {
		signal[i] *= w.data[i]
	}
}

// Size returns the number of window coefficients.
func (w *Window) Size() int {
	return len(w.data)
}

// Type returns the window shape.
func (w *Window) Type() WindowType {
	return w.windowType
}

// Coefficients returns the raw coefficient table. Callers must treat it
// as read-only.
func (w *Window) Coefficients() []float64 {
	return w.data
}
