package frame

// NumFrames reports how many complete frames a buffer of numSamples
// yields under the segmentation policy.
//
// With snip-edges enabled every frame must fit inside the signal:
// max(0, (numSamples-frameLength)/frameShift + 1). With snip-edges
// disabled frames are centered on multiples of the shift and the count
// is numSamples/frameShift rounded to nearest; when flush is false the
// count is walked back until the last frame's end does not extend past
// the signal, so it can grow as more samples arrive.
func NumFrames(numSamples int, opts *Options, flush bool) int {
	frameShift := opts.WindowShift()
	frameLength := opts.WindowSize()

	if opts.SnipEdges {
		if numSamples < frameLength {
			return 0
		}
		return 1 + (numSamples-frameLength)/frameShift
	}

	numFrames := int((float64(numSamples) + float64(frameShift)/2.0) / float64(frameShift))
	if flush {
		return numFrames
	}

	for numFrames > 0 {
		endSample := FirstSampleOfFrame(numFrames-1, opts) + int64(frameLength)
		if endSample > int64(numSamples) {
			numFrames--
		} else {
			break
		}
	}
	return numFrames
}

// FirstSampleOfFrame returns the absolute index of the first sample of
// the given frame. With snip-edges disabled the value may be negative
// for the leading frames; those samples are filled by reflection.
func FirstSampleOfFrame(frame int, opts *Options) int64 {
	frameShift := int64(opts.WindowShift())
	if opts.SnipEdges {
		return int64(frame) * frameShift
	}
	midpoint := frameShift*int64(frame) + frameShift/2
	return midpoint - int64(opts.WindowSize())/2
}
