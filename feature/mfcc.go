package feature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/audioforge/featbank/frame"
	"github.com/audioforge/featbank/logging"
	"github.com/audioforge/featbank/mel"
	"github.com/audioforge/featbank/spectral"
)

// MfccOptions configures mel-frequency cepstral coefficient extraction.
type MfccOptions struct {
	FrameOpts frame.Options `json:"frame_opts"`
	MelOpts   mel.Options   `json:"mel_opts"`

	NumCeps        int     `json:"num_ceps"`        // Cepstral coefficients to keep, C0 included (default: 13)
	CepstralLifter float64 `json:"cepstral_lifter"` // Liftering constant; 0 disables (default: 22)
	UseEnergy      bool    `json:"use_energy"`      // Replace C0 with frame log-energy (default: true)
	RawEnergy      bool    `json:"raw_energy"`      // Energy before windowing rather than after (default: true)
	HtkCompat      bool    `json:"htk_compat"`      // Rotate C0/energy to the last slot (default: false)
	EnergyFloor    float64 `json:"energy_floor"`    // Floor on the energy term; 0 disables (default: 0)
}

// DefaultMfccOptions returns the reference MFCC configuration.
func DefaultMfccOptions() MfccOptions {
	return MfccOptions{
		FrameOpts:      frame.DefaultOptions(),
		MelOpts:        mel.DefaultOptions(),
		NumCeps:        13,
		CepstralLifter: 22.0,
		UseEnergy:      true,
		RawEnergy:      true,
		EnergyFloor:    0.0,
	}
}

// MfccComputer derives cepstral coefficients from log-mel energies via
// a DCT-II projection and sinusoidal liftering. The DCT and lifter
// tables are immutable after construction; powerBuf and melEnergies are
// per-instance scratch.
type MfccComputer struct {
	opts           MfccOptions
	fft            *spectral.FFT
	melBanks       *mel.Banks
	dctMatrix      [][]float64
	lifterCoeffs   []float64
	logEnergyFloor float64
	powerBuf       []float64
	melEnergies    []float64
}

// NewMfcc creates an MFCC computer with no VTLN warping.
func NewMfcc(opts MfccOptions) (*MfccComputer, error) {
	return NewMfccWithWarp(opts, 1.0)
}

// NewMfccWithWarp creates an MFCC computer whose mel filterbank is
// built for the given VTLN warp factor.
func NewMfccWithWarp(opts MfccOptions, vtlnWarp float64) (*MfccComputer, error) {
	if err := opts.FrameOpts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if opts.NumCeps <= 0 || opts.NumCeps > opts.MelOpts.NumBins {
		return nil, fmt.Errorf("%w: num_ceps %d must be in [1, %d]",
			ErrInvalidOptions, opts.NumCeps, opts.MelOpts.NumBins)
	}
	if opts.CepstralLifter < 0 {
		return nil, fmt.Errorf("%w: cepstral lifter must be non-negative, got %v",
			ErrInvalidOptions, opts.CepstralLifter)
	}

	melBanks, err := mel.NewBanks(&opts.MelOpts, &opts.FrameOpts, vtlnWarp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	numBins := opts.MelOpts.NumBins
	dctMatrix := makeDCTMatrix(opts.NumCeps, numBins)

	lifterCoeffs := make([]float64, opts.NumCeps)
	for i := range lifterCoeffs {
		lifterCoeffs[i] = 1.0
	}
	if opts.CepstralLifter != 0 {
		l := opts.CepstralLifter
		for i := range lifterCoeffs {
			lifterCoeffs[i] = 1.0 + 0.5*l*math.Sin(math.Pi*float64(i)/l)
		}
	}

	logEnergyFloor := -1e10
	if opts.EnergyFloor > 0 {
		logEnergyFloor = math.Log(opts.EnergyFloor)
	}

	logging.Debug("mfcc computer created", logging.Fields{
		"num_ceps":    opts.NumCeps,
		"num_bins":    numBins,
		"sample_rate": opts.FrameOpts.SampleRate,
		"vtln_warp":   vtlnWarp,
	})

	return &MfccComputer{
		opts:           opts,
		fft:            spectral.NewFFT(),
		melBanks:       melBanks,
		dctMatrix:      dctMatrix,
		lifterCoeffs:   lifterCoeffs,
		logEnergyFloor: logEnergyFloor,
		powerBuf:       make([]float64, opts.FrameOpts.PaddedWindowSize()/2+1),
		melEnergies:    make([]float64, numBins),
	}, nil
}

// makeDCTMatrix builds the orthonormal DCT-II projection: row 0 scaled
// by sqrt(1/bins), the rest by sqrt(2/bins).
func makeDCTMatrix(numCeps, numBins int) [][]float64 {
	matrix := make([][]float64, numCeps)
	kFactor := math.Sqrt(2.0 / float64(numBins))
	k0Factor := math.Sqrt(1.0 / float64(numBins))

	for i := 0; i < numCeps; i++ {
		row := make([]float64, numBins)
		for j := 0; j < numBins; j++ {
			if i == 0 {
				row[j] = k0Factor
			} else {
				row[j] = kFactor * math.Cos(math.Pi/float64(numBins)*(float64(j)+0.5)*float64(i))
			}
		}
		matrix[i] = row
	}
	return matrix
}

// Options returns the configuration the computer was built with.
func (c *MfccComputer) Options() MfccOptions {
	return c.opts
}

// Dim returns the number of cepstral coefficients.
func (c *MfccComputer) Dim() int {
	return c.opts.NumCeps
}

// FrameOptions returns the frame extraction parameters.
func (c *MfccComputer) FrameOptions() *frame.Options {
	return &c.opts.FrameOpts
}

// NeedRawEnergy reports whether the pre-window log-energy is consumed.
func (c *MfccComputer) NeedRawEnergy() bool {
	return c.opts.UseEnergy && c.opts.RawEnergy
}

// Compute applies FFT, power spectrum, mel projection, log, DCT-II and
// liftering, then handles the energy/C0 and HTK-compat layout rules.
func (c *MfccComputer) Compute(rawLogEnergy, vtlnWarp float64, signalFrame, out []float64) error {
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

	if err := c.melBanks.Apply(c.powerBuf, c.melEnergies); err != nil {
		return err
	}
	for i := range c.melEnergies {
		c.melEnergies[i] = logWithFloor(c.melEnergies[i])
	}

	for i := 0; i < c.opts.NumCeps; i++ {
		out[i] = floats.Dot(c.dctMatrix[i], c.melEnergies)
	}

	if c.opts.CepstralLifter != 0 {
		for i := 0; i < c.opts.NumCeps; i++ {
			out[i] *= c.lifterCoeffs[i]
		}
	}

	if c.opts.UseEnergy {
		if c.opts.EnergyFloor > 0 && rawLogEnergy < c.logEnergyFloor {
			rawLogEnergy = c.logEnergyFloor
		}
		out[0] = rawLogEnergy
	}

	if c.opts.HtkCompat {
		energy := out[0]
		if !c.opts.UseEnergy {
			// C0 is not a true log-energy; HTK expects it scaled.
			energy *= math.Sqrt2
		}
		copy(out[:c.opts.NumCeps-1], out[1:c.opts.NumCeps])
		out[c.opts.NumCeps-1] = energy
	}

	return nil
}
