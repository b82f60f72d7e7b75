package feature

import (
	"fmt"

	"github.com/audioforge/featbank/frame"
	"github.com/audioforge/featbank/logging"
	"github.com/audioforge/featbank/mel"
	"github.com/audioforge/featbank/spectral"
)

// WhisperOptions configures Whisper-style mel feature extraction. The
// frame parameters diverge from the Kaldi defaults to match the
// external reference exactly: hann window, no dithering, no
// pre-emphasis, no DC removal, no power-of-two rounding (400-sample
// FFT at 16 kHz) and snip-edges disabled.
type WhisperOptions struct {
	FrameOpts frame.Options `json:"frame_opts"`
	Dim       int           `json:"dim"` // Mel band count (default: 80)
}

// DefaultWhisperOptions returns the fixed Whisper front-end
// configuration.
func DefaultWhisperOptions() WhisperOptions {
	frameOpts := frame.DefaultOptions()
	frameOpts.Dither = 0.0
	frameOpts.PreemphCoeff = 0.0
	frameOpts.RemoveDCOffset = false
	frameOpts.WindowType = frame.WindowHann
	frameOpts.RoundToPowerOfTwo = false
	frameOpts.SnipEdges = false

	return WhisperOptions{
		FrameOpts: frameOpts,
		Dim:       80,
	}
}

// WhisperComputer projects frames onto a Slaney-scale, Slaney-normed
// mel filterbank. Output is the linear mel energies; log compression
// and spectrogram-level normalization are the caller's concern.
type WhisperComputer struct {
	opts     WhisperOptions
	fft      *spectral.FFT
	melBanks *mel.Banks
	powerBuf []float64
}

// NewWhisper creates a Whisper-mel computer.
func NewWhisper(opts WhisperOptions) (*WhisperComputer, error) {
	if err := opts.FrameOpts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if opts.Dim <= 0 {
		return nil, fmt.Errorf("%w: dim must be positive, got %d", ErrInvalidOptions, opts.Dim)
	}

	melOpts := mel.DefaultOptions()
	melOpts.NumBins = opts.Dim
	melOpts.LowFreq = 0.0
	melOpts.UseSlaneyScale = true
	melOpts.Norm = mel.NormSlaney

	melBanks, err := mel.NewBanks(&melOpts, &opts.FrameOpts, 1.0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	logging.Debug("whisper computer created", logging.Fields{
		"dim":         opts.Dim,
		"sample_rate": opts.FrameOpts.SampleRate,
		"n_fft":       opts.FrameOpts.PaddedWindowSize(),
	})

	return &WhisperComputer{
		opts:     opts,
		fft:      spectral.NewFFT(),
		melBanks: melBanks,
		powerBuf: make([]float64, opts.FrameOpts.PaddedWindowSize()/2+1),
	}, nil
}

// Options returns the configuration the computer was built with.
func (c *WhisperComputer) Options() WhisperOptions {
	return c.opts
}

// Dim returns the mel band count.
func (c *WhisperComputer) Dim() int {
	return c.opts.Dim
}

// FrameOptions returns the frame extraction parameters.
func (c *WhisperComputer) FrameOptions() *frame.Options {
	return &c.opts.FrameOpts
}

// NeedRawEnergy always reports false; the Whisper front end carries no
// energy term.
func (c *WhisperComputer) NeedRawEnergy() bool {
	return false
}

// Compute applies FFT, power spectrum and the mel projection.
func (c *WhisperComputer) Compute(rawLogEnergy, vtlnWarp float64, signalFrame, out []float64) error {
	if len(out) < c.Dim() {
		return fmt.Errorf("%w: output has %d slots, dim is %d", ErrInvalidOptions, len(out), c.Dim())
	}
	if len(signalFrame) < c.opts.FrameOpts.PaddedWindowSize() {
		return fmt.Errorf("%w: frame has %d samples, padded window is %d",
			ErrInvalidOptions, len(signalFrame), c.opts.FrameOpts.PaddedWindowSize())
	}

	bins := c.fft.Forward(signalFrame[:c.opts.FrameOpts.PaddedWindowSize()])
	spectral.PowerSpectrumInto(bins, c.powerBuf)
	return c.melBanks.Apply(c.powerBuf, out)
}
