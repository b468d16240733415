// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio with jfreymuth/oggvorbis.
package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audstream/pcm"
)

// oggReader is the part of oggvorbis.Reader used by stream.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type stream struct {
	dec oggReader
}

func (s *stream) SampleRate() int { return s.dec.SampleRate() }
func (s *stream) Channels() int   { return s.dec.Channels() }
func (s *stream) Close() error    { return nil }

// ReadSamples reads whole frames only; the decoder fills interleaved values.
func (s *stream) ReadSamples(dst []float32) (int, error) {
	ch := max(s.dec.Channels(), 1)
	dst = dst[:len(dst)-len(dst)%ch]
	if len(dst) == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("decoding vorbis: %w", err)
	}
	return n, err
}

// Decoder builds streams with oggvorbis.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (pcm.Stream, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbis, err)
	}

	return &stream{dec: dec}, nil
}
