// Package featbank extracts deterministic spectral features (FBANK,
// MFCC, Whisper-style mel, raw windowed frames) from audio waveforms,
// reproducing the Kaldi-lineage numerical behavior: dithering,
// pre-emphasis, Kaldi window shapes, snip-edges segmentation, mel
// filterbanks on the Kaldi or Slaney scale, and DCT-II cepstra with
// liftering.
//
// The root package offers the whole-utterance path; package online
// delivers the same vectors incrementally for streaming audio. Both
// run the identical per-frame pipeline, so chunking never changes the
// output.
package featbank
