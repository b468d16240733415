// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic pcm.Stream implementations for tests.
package audiotest

import (
	"io"
	"math"
)

// Waveform returns the value of channel ch at frame i.
type Waveform func(i, ch int) float32

// Stream generates frames from a Waveform. It satisfies pcm.Stream.
type Stream struct {
	rate     int
	channels int
	frames   int
	pos      int
	wave     Waveform

	// Err, when set, is returned once pos reaches FailAt.
	Err    error
	FailAt int
	// Chunk caps the frames returned per read; zero means no cap.
	Chunk int

	closed int
}

// New returns a stream of frames frames at rate Hz.
func New(rate, channels, frames int, wave Waveform) *Stream {
	return &Stream{rate: rate, channels: channels, frames: frames, wave: wave}
}

// Constant repeats v on every channel.
func Constant(rate, channels, frames int, v float32) *Stream {
	return New(rate, channels, frames, func(int, int) float32 { return v })
}

// Ramp counts frames on every channel, offset by 1000 per channel.
func Ramp(rate, channels, frames int) *Stream {
	return New(rate, channels, frames, func(i, ch int) float32 {
		return float32(i + 1000*ch)
	})
}

// Sine is a full scale sine at freq Hz on every channel.
func Sine(rate, channels, frames int, freq float64) *Stream {
	return New(rate, channels, frames, func(i, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(rate)))
	})
}

func (s *Stream) SampleRate() int { return s.rate }
func (s *Stream) Channels() int   { return s.channels }

func (s *Stream) Close() error {
	s.closed++
	return nil
}

// Closed is the number of Close calls.
func (s *Stream) Closed() int { return s.closed }

func (s *Stream) ReadSamples(dst []float32) (int, error) {
	if s.Err != nil && s.pos >= s.FailAt {
		return 0, s.Err
	}
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.channels, s.frames-s.pos)
	if s.Chunk > 0 {
		n = min(n, s.Chunk)
	}
	if s.Err != nil {
		n = min(n, s.FailAt-s.pos)
	}

	for f := range n {
		for ch := range s.channels {
			dst[f*s.channels+ch] = s.wave(s.pos+f, ch)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}
