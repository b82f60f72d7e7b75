// Package feature composes frame extraction, the FFT engine and the mel
// filterbank into per-frame feature computers: FBANK, MFCC, Whisper-mel
// and raw windowed frames.
package feature

import (
	"errors"
	"math"

	"github.com/audioforge/featbank/frame"
)

// ErrInvalidOptions indicates inconsistent computer configuration,
// detected at construction so misconfiguration surfaces before any
// audio is processed.
var ErrInvalidOptions = errors.New("invalid feature options")

// Computer turns one processed frame into one feature vector. A
// computer owns only immutable tables plus a private scratch buffer, so
// instances are cheap but a single instance must not run Compute
// concurrently; clone one per goroutine for parallel frame processing.
type Computer interface {
	// Dim returns the output vector length, including any energy/C0 slot.
	Dim() int

	// FrameOptions exposes the frame extraction parameters the computer
	// was built for.
	FrameOptions() *frame.Options

	// NeedRawEnergy reports whether Compute wants the pre-window
	// log-energy that ExtractWindow produces.
	NeedRawEnergy() bool

	// Compute writes the feature vector for one frame into out, which
	// must be Dim() long. signalFrame is the windowed, padded frame from
	// ExtractWindow; it is treated as read-only. vtlnWarp is accepted
	// for interface parity but warping is fixed at construction.
	Compute(rawLogEnergy, vtlnWarp float64, signalFrame, out []float64) error
}

// energyFloorValue is the floor applied before taking logs of spectral
// and mel energies.
const energyFloorValue = 1e-20

// logWithFloor returns ln(max(energy, 1e-20)) so silent bins never
// produce -inf.
func logWithFloor(energy float64) float64 {
	if energy < energyFloorValue {
		energy = energyFloorValue
	}
	return math.Log(energy)
}

// frameEnergy is the squared sum of the (windowed) frame, used when the
// energy term is requested after windowing rather than raw.
func frameEnergy(signalFrame []float64) float64 {
	energy := 0.0
	for _, s := range signalFrame {
		energy += s * s
	}
	return energy
}
