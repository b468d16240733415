// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ik5/audstream/pcm"
)

type mockReader struct {
	rate     int
	channels int
	data     []float32
	pos      int
	err      error
	lastLen  int
}

func (m *mockReader) SampleRate() int { return m.rate }
func (m *mockReader) Channels() int   { return m.channels }

func (m *mockReader) Read(p []float32) (int, error) {
	m.lastLen = len(p)
	if m.err != nil {
		return 0, m.err
	}
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("OggS but not really")))
	if !errors.Is(err, ErrNotVorbis) {
		t.Errorf("Decode() error = %v, want ErrNotVorbis", err)
	}
}

func TestStream_ReadSamples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		data     []float32
	}{
		{name: "mono", channels: 1, data: []float32{0.1, 0.2, 0.3}},
		{name: "stereo", channels: 2, data: []float32{0.1, -0.1, 0.2, -0.2}},
		{name: "5.1", channels: 6, data: make([]float32, 18)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &stream{dec: &mockReader{rate: 48000, channels: tt.channels, data: tt.data}}
			if s.SampleRate() != 48000 || s.Channels() != tt.channels {
				t.Fatalf("SampleRate()=%d Channels()=%d", s.SampleRate(), s.Channels())
			}

			got, err := pcm.ReadAll(s, 7)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if len(got) != len(tt.data) {
				t.Fatalf("got %d samples, want %d", len(got), len(tt.data))
			}
			for i := range got {
				if got[i] != tt.data[i] {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.data[i])
				}
			}
		})
	}
}

func TestStream_TrimsPartialFrames(t *testing.T) {
	t.Parallel()

	m := &mockReader{rate: 44100, channels: 2, data: make([]float32, 10)}
	s := &stream{dec: m}

	if _, err := s.ReadSamples(make([]float32, 5)); err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if m.lastLen != 4 {
		t.Errorf("decoder asked for %d values, want 4", m.lastLen)
	}

	if n, err := s.ReadSamples(make([]float32, 1)); n != 0 || err != nil {
		t.Errorf("ReadSamples() with less than a frame = %d %v, want 0 nil", n, err)
	}
}

func TestStream_ReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("corrupt packet")
	s := &stream{dec: &mockReader{rate: 44100, channels: 1, err: boom}}

	if _, err := s.ReadSamples(make([]float32, 8)); !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}
