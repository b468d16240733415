// SPDX-License-Identifier: EPL-2.0

// Package pcm provides the decoding pipeline that turns audio files into
// mono float32 samples.
//
// A Decoder produces a Stream of interleaved samples. Streams chain:
//
//	s, err := registry.Decode("wav", f)
//	if err != nil {
//	    return err
//	}
//	mono, err := pcm.Conform(s, 44100) // Resampler, then MonoMixer
//	if err != nil {
//	    return err
//	}
//	samples, err := pcm.ReadAll(mono, 4096)
//
// Resampler uses Catmull-Rom interpolation between source frames and a
// one-pole low-pass filter when downsampling. It passes samples through
// unchanged when the rates already match.
package pcm
