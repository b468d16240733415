// SPDX-License-Identifier: EPL-2.0

// Package audstream turns live or recorded audio into a stream of
// overlapping analysis windows.
//
// The work is split across subpackages:
//   - source: FileSource and MicrophoneSource, the windowing core
//   - driver: the audio backend abstraction, with miniaudio (default) and
//     PortAudio (build tag portaudio) implementations
//   - pcm, formats/...: decoding files into mono float32 samples
//   - analysis: waveform and spectrum views fed with windows
//   - consumer: the frame-timed poller that drains a source
//   - config, internal/app, cmd/audstream: configuration and the CLI
//
// # Supported Formats
//
// DecodeFile picks a decoder from the file extension:
//   - WAV (integer PCM 8/16/24/32-bit) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF (integer PCM 8/16/24/32-bit) via formats/aiff
//
// # Quick Start
//
//	samples, err := audstream.DecodeFile("song.mp3", 44100)
//	if err != nil {
//	    return err
//	}
//	// samples is mono float32 at 44.1 kHz
//
// source.NewFileSource uses DecodeFile unless another loader is supplied.
package audstream
