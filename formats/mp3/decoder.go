// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio with go-mp3.
//
// go-mp3 always produces 16-bit little-endian stereo, so streams from this
// package report two channels even for mono files.
package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audstream/pcm"
	"github.com/ik5/audstream/utils"
)

// frameReader is the part of gomp3.Decoder used by stream.
type frameReader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type stream struct {
	dec  frameReader
	buf  []byte
	tail int // bytes of an incomplete sample kept from the last read
}

func (s *stream) SampleRate() int { return s.dec.SampleRate() }
func (s *stream) Channels() int   { return 2 }
func (s *stream) Close() error    { return nil }

func (s *stream) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	need := 2 * len(dst)
	if cap(s.buf) < need {
		buf := make([]byte, need)
		copy(buf, s.buf[:s.tail])
		s.buf = buf
	}
	s.buf = s.buf[:need]

	n, err := s.dec.Read(s.buf[s.tail:])
	n += s.tail

	samples := n / 2
	for i := range samples {
		dst[i] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(s.buf[2*i:])))
	}

	s.tail = n % 2
	if s.tail == 1 {
		s.buf[0] = s.buf[n-1]
	}

	if err != nil && err != io.EOF {
		return samples, fmt.Errorf("decoding mp3: %w", err)
	}
	return samples, err
}

// Decoder builds streams with go-mp3.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (pcm.Stream, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMP3, err)
	}

	return &stream{dec: dec}, nil
}
