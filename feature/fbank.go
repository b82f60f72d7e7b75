package feature

import (
	"fmt"
	"math"

	"github.com/audioforge/featbank/frame"
	"github.com/audioforge/featbank/logging"
	"github.com/audioforge/featbank/mel"
	"github.com/audioforge/featbank/spectral"
)

// FbankOptions configures log-mel-filterbank feature extraction.
type FbankOptions struct {
	FrameOpts frame.Options `json:"frame_opts"`
	MelOpts   mel.Options   `json:"mel_opts"`

	UseEnergy   bool    `json:"use_energy"`    // Prepend (or append) frame log-energy (default: true)
	RawEnergy   bool    `json:"raw_energy"`    // Energy before windowing rather than after (default: true)
	HtkCompat   bool    `json:"htk_compat"`    // Energy last instead of first (default: false)
	EnergyFloor float64 `json:"energy_floor"`  // Floor on the energy term; 0 disables (default: 0)
	UseLogFbank bool    `json:"use_log_fbank"` // Log-compress mel energies (default: true)
	UsePower    bool    `json:"use_power"`     // Power spectrum rather than magnitude (default: true)
}

// DefaultFbankOptions returns the reference FBANK configuration.
func DefaultFbankOptions() FbankOptions {
	return FbankOptions{
		FrameOpts:   frame.DefaultOptions(),
		MelOpts:     mel.DefaultOptions(),
		UseEnergy:   true,
		RawEnergy:   true,
		EnergyFloor: 0.0,
		UseLogFbank: true,
		UsePower:    true,
	}
}

// FbankComputer produces one log-mel-energy vector per frame. All owned
// tables are immutable after construction; powerBuf is per-instance
// scratch.
type FbankComputer struct {
	opts           FbankOptions
	fft            *spectral.FFT
	melBanks       *mel.Banks
	logEnergyFloor float64
	powerBuf       []float64
}

// NewFbank creates an FBANK computer with no VTLN warping.
func NewFbank(opts FbankOptions) (*FbankComputer, error) {
	return NewFbankWithWarp(opts, 1.0)
}

// NewFbankWithWarp creates an FBANK computer whose mel filterbank is
// built for the given VTLN warp factor.
func NewFbankWithWarp(opts FbankOptions, vtlnWarp float64) (*FbankComputer, error) {
	if err := opts.FrameOpts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	melBanks, err := mel.NewBanks(&opts.MelOpts, &opts.FrameOpts, vtlnWarp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	logEnergyFloor := -1e10
	if opts.EnergyFloor > 0 {
		logEnergyFloor = math.Log(opts.EnergyFloor)
	}

	logging.Debug("fbank computer created", logging.Fields{
		"num_bins":    opts.MelOpts.NumBins,
		"sample_rate": opts.FrameOpts.SampleRate,
		"padded_size": opts.FrameOpts.PaddedWindowSize(),
		"vtln_warp":   vtlnWarp,
	})

	return &FbankComputer{
		opts:           opts,
		fft:            spectral.NewFFT(),
		melBanks:       melBanks,
		logEnergyFloor: logEnergyFloor,
		powerBuf:       make([]float64, opts.FrameOpts.PaddedWindowSize()/2+1),
	}, nil
}

// Options returns the configuration the computer was built with.
func (c *FbankComputer) Options() FbankOptions {
	return c.opts
}

// MelBanks exposes the owned filterbank, read-only.
func (c *FbankComputer) MelBanks() *mel.Banks {
	return c.melBanks
}

// Dim returns NumBins plus one when the energy term is enabled.
func (c *FbankComputer) Dim() int {
	dim := c.opts.MelOpts.NumBins
	if c.opts.UseEnergy {
		dim++
	}
	return dim
}

// FrameOptions returns the frame extraction parameters.
func (c *FbankComputer) FrameOptions() *frame.Options {
	return &c.opts.FrameOpts
}

// NeedRawEnergy reports whether the pre-window log-energy is consumed.
func (c *FbankComputer) NeedRawEnergy() bool {
	return c.opts.UseEnergy && c.opts.RawEnergy
}

// Compute applies FFT, power (or magnitude) spectrum, mel projection
// and log compression, then places the energy term first (or last in
// HTK-compat layout).
func (c *FbankComputer) Compute(rawLogEnergy, vtlnWarp float64, signalFrame, out []float64) error {
	if len(out) < c.Dim() {
		return fmt.Errorf("%w: output has %d slots, dim is %d", ErrInvalidOptions, len(out), c.Dim())
	}
	if len(signalFrame) < c.opts.FrameOpts.PaddedWindowSize() {
		return fmt.Errorf("%w: frame has %d samples, padded window is %d",
			ErrInvalidOptions, len(signalFrame), c.opts.FrameOpts.PaddedWindowSize())
	}

	if c.opts.UseEnergy && !c.opts.RawEnergy {
		rawLogEnergy = logWithFloor(frameEnergy(signalFrame))
	}

	bins := c.fft.Forward(signalFrame[:c.opts.FrameOpts.PaddedWindowSize()])
	spectral.PowerSpectrumInto(bins, c.powerBuf)

	if !c.opts.UsePower {
		for i := range c.powerBuf {
			c.powerBuf[i] = math.Sqrt(c.powerBuf[i])
		}
	}

	melOffset := 0
	if c.opts.UseEnergy && !c.opts.HtkCompat {
		melOffset = 1
	}
	if err := c.melBanks.Apply(c.powerBuf, out[melOffset:]); err != nil {
		return err
	}

	if c.opts.UseLogFbank {
		numBins := c.opts.MelOpts.NumBins
		for i := melOffset; i < melOffset+numBins; i++ {
			out[i] = logWithFloor(out[i])
		}
	}

	if c.opts.UseEnergy {
		if c.opts.EnergyFloor > 0 && rawLogEnergy < c.logEnergyFloor {
			rawLogEnergy = c.logEnergyFloor
		}
		energyIndex := 0
		if c.opts.HtkCompat {
			energyIndex = c.opts.MelOpts.NumBins
		}
		out[energyIndex] = rawLogEnergy
	}

	return nil
}
