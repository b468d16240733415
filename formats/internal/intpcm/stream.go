// SPDX-License-Identifier: EPL-2.0

// Package intpcm adapts the integer buffers of the go-audio decoders to
// pcm.Stream.
package intpcm

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audstream/utils"
)

// Reader is the part of the go-audio wav and aiff decoders used here.
type Reader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Stream normalizes integer PCM to float32.
type Stream struct {
	r        Reader
	format   *goaudio.Format
	bitDepth int
	// bias is subtracted before scaling; unsigned 8-bit WAV uses 128.
	bias int
	buf  *goaudio.IntBuffer
	done bool
}

// New returns a Stream reading from r.
func New(r Reader, format *goaudio.Format, bitDepth, bias int) *Stream {
	return &Stream{r: r, format: format, bitDepth: bitDepth, bias: bias}
}

func (s *Stream) SampleRate() int { return s.format.SampleRate }
func (s *Stream) Channels() int   { return s.format.NumChannels }
func (s *Stream) Close() error    { return nil }

func (s *Stream) ReadSamples(dst []float32) (int, error) {
	if s.done {
		return 0, io.EOF
	}
	if len(dst) == 0 {
		return 0, nil
	}

	if s.buf == nil || cap(s.buf.Data) < len(dst) {
		s.buf = &goaudio.IntBuffer{
			Format:         s.format,
			Data:           make([]int, len(dst)),
			SourceBitDepth: s.bitDepth,
		}
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.r.PCMBuffer(s.buf)
	for i, v := range s.buf.Data[:n] {
		dst[i] = utils.IntToFloat32(v-s.bias, s.bitDepth)
	}

	switch {
	case err == io.EOF, err == nil && n < len(dst):
		// go-audio reports the end with a short read and no error.
		s.done = true
		return n, io.EOF
	case err != nil:
		return n, fmt.Errorf("reading pcm: %w", err)
	}

	return n, nil
}

// ReadSeeker returns r itself when it can seek and otherwise buffers it.
func ReadSeeker(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering input: %w", err)
	}

	return bytes.NewReader(data), nil
}
