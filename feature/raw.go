package feature

import (
	"fmt"

	"github.com/audioforge/featbank/frame"
)

// RawOptions configures the pass-through computer.
type RawOptions struct {
	FrameOpts frame.Options `json:"frame_opts"`
}

// DefaultRawOptions returns the default raw-frame configuration.
func DefaultRawOptions() RawOptions {
	return RawOptions{FrameOpts: frame.DefaultOptions()}
}

// RawComputer emits the processed padded frame itself as the feature
// vector, useful for models that consume conditioned waveforms
// directly.
type RawComputer struct {
	opts RawOptions
}

// NewRaw creates a raw-frame computer.
func NewRaw(opts RawOptions) (*RawComputer, error) {
	if err := opts.FrameOpts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return &RawComputer{opts: opts}, nil
}

// Dim returns the padded window size.
func (c *RawComputer) Dim() int {
	return c.opts.FrameOpts.PaddedWindowSize()
}

// FrameOptions returns the frame extraction parameters.
func (c *RawComputer) FrameOptions() *frame.Options {
	return &c.opts.FrameOpts
}

// NeedRawEnergy always reports false.
func (c *RawComputer) NeedRawEnergy() bool {
	return false
}

// Compute copies the processed frame into out.
func (c *RawComputer) Compute(rawLogEnergy, vtlnWarp float64, signalFrame, out []float64) error {
	dim := c.Dim()
	if len(out) < dim || len(signalFrame) < dim {
		return fmt.Errorf("%w: need %d samples and %d output slots, have %d and %d",
			ErrInvalidOptions, dim, dim, len(signalFrame), len(out))
	}
	copy(out[:dim], signalFrame[:dim])
	return nil
}
