// Package online wraps a feature computer with cross-call state so
// audio can be pushed in arbitrary chunks and feature frames pulled as
// soon as their samples have arrived.
package online

import (
	"errors"
	"fmt"
	"math"

	"github.com/audioforge/featbank/feature"
	"github.com/audioforge/featbank/frame"
	"github.com/audioforge/featbank/logging"
)

// ErrStream indicates misuse of the streaming wrapper: a sample-rate
// mismatch, an out-of-range frame index, or input after InputFinished.
var ErrStream = errors.New("online stream error")

// State describes where the stream currently is.
type State int

const (
	// StateEmpty: no buffered samples and no unread frames.
	StateEmpty State = iota
	// StateAccumulating: samples buffered but no unread frame yet.
	StateAccumulating
	// StateReady: at least one completed frame has not been read.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Feature is the streaming wrapper around one feature computer. It owns
// an ordered buffer of unconsumed samples plus the count of samples
// already folded into emitted frames; samples no longer needed for the
// next frame's window overlap are dropped after each completed frame,
// bounding memory to O(frame length).
//
// A Feature is owned by one logical stream; it is not safe for
// concurrent use without external synchronization.
type Feature struct {
	computer       feature.Computer
	windowFunction *frame.Window
	logger         logging.Logger

	waveform       []float64
	waveformOffset int64
	inputFinished  bool

	features   [][]float64
	framesRead int
	windowBuf  []float64
}

// NewFeature creates a streaming wrapper over the given computer.
func NewFeature(computer feature.Computer) (*Feature, error) {
	opts := computer.FrameOptions()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	windowFunction, err := frame.NewWindow(opts)
	if err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component":   "online_feature",
		"sample_rate": opts.SampleRate,
		"dim":         computer.Dim(),
	})
	logger.Debug("stream created")

	return &Feature{
		computer:       computer,
		windowFunction: windowFunction,
		logger:         logger,
		windowBuf:      make([]float64, opts.PaddedWindowSize()),
	}, nil
}

// AcceptWaveform appends samples to the stream and computes every frame
// they complete. The sample rate must match the computer's
// configuration (within 1 Hz).
func (f *Feature) AcceptWaveform(sampleRate float64, samples []float64) error {
	opts := f.computer.FrameOptions()
	if math.Abs(sampleRate-opts.SampleRate) > 1.0 {
		return fmt.Errorf("%w: sample rate %v does not match configured %v",
			ErrStream, sampleRate, opts.SampleRate)
	}
	if f.inputFinished {
		return fmt.Errorf("%w: waveform after InputFinished", ErrStream)
	}
	f.waveform = append(f.waveform, samples...)
	return f.computeNew()
}

// InputFinished flags end-of-stream. With snip-edges disabled the
// trailing partial frames are flushed with mirror padding; with
// snip-edges enabled the final incomplete frame is discarded.
func (f *Feature) InputFinished() error {
	f.inputFinished = true
	err := f.computeNew()
	f.logger.Debug("input finished", logging.Fields{
		"frames": len(f.features),
	})
	return err
}

// NumFramesReady reports how many frames have been completed so far.
func (f *Feature) NumFramesReady() int {
	return len(f.features)
}

// IsLastFrame reports whether the given frame is the final one of the
// stream. Only true after InputFinished.
func (f *Feature) IsLastFrame(i int) bool {
	return f.inputFinished && i == len(f.features)-1
}

// GetFrame returns the feature vector of one completed frame. Frames
// are cached when computed, so repeated reads are idempotent. The
// returned slice is owned by the stream; callers must not modify it.
func (f *Feature) GetFrame(i int) ([]float64, error) {
	if i < 0 || i >= len(f.features) {
		return nil, fmt.Errorf("%w: frame %d not ready (have %d)", ErrStream, i, len(f.features))
	}
	if i+1 > f.framesRead {
		f.framesRead = i + 1
	}
	return f.features[i], nil
}

// State reports the stream's position in its lifecycle.
func (f *Feature) State() State {
	if len(f.features) > f.framesRead {
		return StateReady
	}
	if len(f.waveform) > 0 {
		return StateAccumulating
	}
	return StateEmpty
}

// computeNew advances the segmenter over the buffered samples, computes
// every newly completable frame, and drops samples no frame will need
// again.
func (f *Feature) computeNew() error {
	opts := f.computer.FrameOptions()
	totalSamples := f.waveformOffset + int64(len(f.waveform))
	prevFrames := len(f.features)
	newFrames := frame.NumFrames(int(totalSamples), opts, f.inputFinished)

	if newFrames <= prevFrames {
		return nil
	}

	dim := f.computer.Dim()
	for idx := prevFrames; idx < newFrames; idx++ {
		rawLogEnergy, err := frame.ExtractWindow(
			f.waveformOffset, f.waveform, idx, opts, f.windowFunction, f.windowBuf)
		if err != nil {
			return err
		}

		vec := make([]float64, dim)
		if err := f.computer.Compute(rawLogEnergy, 1.0, f.windowBuf, vec); err != nil {
			return err
		}
		f.features = append(f.features, vec)
	}

	// Drop samples that no future frame can reach.
	firstSampleNext := frame.FirstSampleOfFrame(newFrames, opts)
	discard := firstSampleNext - f.waveformOffset
	if discard > 0 && discard <= int64(len(f.waveform)) {
		n := copy(f.waveform, f.waveform[discard:])
		f.waveform = f.waveform[:n]
		f.waveformOffset += discard
	}

	return nil
}
