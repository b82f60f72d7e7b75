package mel

import "math"

// kaldiScale is the classic HTK-style formula on natural logs:
// mel = 1127 * ln(1 + hz/700).
type kaldiScale struct{}

func (kaldiScale) melOf(hz float64) float64 {
	return 1127.0 * math.Log(1.0+hz/700.0)
}

func (kaldiScale) hzOf(mel float64) float64 {
	return 700.0 * (math.Exp(mel/1127.0) - 1.0)
}

// slaneyScale is the Auditory Toolbox hybrid used by librosa and
// Whisper: linear below 1 kHz, logarithmic above.
type slaneyScale struct{}

const (
	slaneyFSp       = 200.0 / 3.0
	slaneyMinLogHz  = 1000.0
	slaneyMinLogMel = slaneyMinLogHz / slaneyFSp
)

var slaneyLogStep = math.Log(6.4) / 27.0

func (slaneyScale) melOf(hz float64) float64 {
	if hz < slaneyMinLogHz {
		return hz / slaneyFSp
	}
	return slaneyMinLogMel + math.Log(hz/slaneyMinLogHz)/slaneyLogStep
}

func (slaneyScale) hzOf(mel float64) float64 {
	if mel < slaneyMinLogMel {
		return mel * slaneyFSp
	}
	return slaneyMinLogHz * math.Exp(slaneyLogStep*(mel-slaneyMinLogMel))
}

// vtlnWarpFreq applies the Kaldi piecewise-linear vocal tract length
// normalization map to a frequency in Hz. Outside [lowFreq, highFreq]
// the frequency passes through unchanged.
func vtlnWarpFreq(vtlnLow, vtlnHigh, lowFreq, highFreq, vtlnWarp, freq float64) float64 {
	if freq < lowFreq || freq > highFreq {
		return freq
	}
	l := vtlnLow * math.Max(1.0, vtlnWarp)
	h := vtlnHigh * math.Min(1.0, vtlnWarp)
	scale := 1.0 / vtlnWarp
	fl := scale * l
	fh := scale * h

	switch {
	case freq < l:
		scaleLeft := (fl - lowFreq) / (l - lowFreq)
		return lowFreq + scaleLeft*(freq-lowFreq)
	case freq < h:
		return scale * freq
	default:
		scaleRight := (highFreq - fh) / (highFreq - h)
		return highFreq + scaleRight*(freq-highFreq)
	}
}

// vtlnWarpMel warps a mel-domain point by converting to Hz, warping and
// converting back, using the active scale's conversion pair.
func vtlnWarpMel(vtlnLow, vtlnHigh, lowFreq, highFreq, vtlnWarp, mel float64,
	melOf, hzOf func(float64) float64) float64 {
	freq := hzOf(mel)
	warped := vtlnWarpFreq(vtlnLow, vtlnHigh, lowFreq, highFreq, vtlnWarp, freq)
	return melOf(warped)
}
