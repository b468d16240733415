// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audstream/pcm"
)

type chunk struct {
	id   string
	body []byte
}

// buildWAV assembles a RIFF/WAVE file from a fmt chunk, optional extra
// chunks and the data chunk.
func buildWAV(tag uint16, channels, rate, bits int, data []byte, extra ...chunk) []byte {
	fmtBody := new(bytes.Buffer)
	blockAlign := channels * bits / 8
	binary.Write(fmtBody, binary.LittleEndian, tag)
	binary.Write(fmtBody, binary.LittleEndian, uint16(channels))
	binary.Write(fmtBody, binary.LittleEndian, uint32(rate))
	binary.Write(fmtBody, binary.LittleEndian, uint32(rate*blockAlign))
	binary.Write(fmtBody, binary.LittleEndian, uint16(blockAlign))
	binary.Write(fmtBody, binary.LittleEndian, uint16(bits))

	chunks := append([]chunk{{"fmt ", fmtBody.Bytes()}}, extra...)
	chunks = append(chunks, chunk{"data", data})

	body := new(bytes.Buffer)
	body.WriteString("WAVE")
	for _, c := range chunks {
		body.WriteString(c.id)
		binary.Write(body, binary.LittleEndian, uint32(len(c.body)))
		body.Write(c.body)
		if len(c.body)%2 == 1 {
			body.WriteByte(0)
		}
	}

	out := new(bytes.Buffer)
	out.WriteString("RIFF")
	binary.Write(out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func le16(vs ...int16) []byte {
	out := make([]byte, 0, 2*len(vs))
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return out
}

func TestDecoder_Decode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		file     []byte
		rate     int
		channels int
		want     []float32
	}{
		{
			name:     "16-bit mono",
			file:     buildWAV(formatPCM, 1, 8000, 16, le16(0, 16384, -16384, -32768)),
			rate:     8000,
			channels: 1,
			want:     []float32{0, 0.5, -0.5, -1},
		},
		{
			name:     "16-bit stereo",
			file:     buildWAV(formatPCM, 2, 44100, 16, le16(8192, -8192, 16384, 0)),
			rate:     44100,
			channels: 2,
			want:     []float32{0.25, -0.25, 0.5, 0},
		},
		{
			name:     "8-bit unsigned",
			file:     buildWAV(formatPCM, 1, 11025, 8, []byte{128, 192, 0, 64}),
			rate:     11025,
			channels: 1,
			want:     []float32{0, 0.5, -1, -0.5},
		},
		{
			name:     "24-bit",
			file:     buildWAV(formatPCM, 1, 48000, 24, []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xc0}),
			rate:     48000,
			channels: 1,
			want:     []float32{0.5, -0.5},
		},
		{
			name: "list chunk before data",
			file: buildWAV(formatPCM, 1, 8000, 16, le16(16384),
				chunk{"LIST", []byte("INFOISFT\x03\x00\x00\x00abc")}),
			rate:     8000,
			channels: 1,
			want:     []float32{0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := Decoder{}.Decode(bytes.NewReader(tt.file))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			defer s.Close()

			if s.SampleRate() != tt.rate || s.Channels() != tt.channels {
				t.Fatalf("SampleRate()=%d Channels()=%d, want %d %d",
					s.SampleRate(), s.Channels(), tt.rate, tt.channels)
			}

			got, err := pcm.ReadAll(s, 3*tt.channels)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecoder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file []byte
		want error
	}{
		{name: "not riff", file: []byte("definitely not a wave file at all, just text"), want: ErrNotWavFile},
		{name: "empty", file: nil, want: ErrNotWavFile},
		{name: "ieee float", file: buildWAV(3, 1, 8000, 32, make([]byte, 8)), want: ErrUnsupportedEncoding},
		{name: "12-bit", file: buildWAV(formatPCM, 1, 8000, 12, make([]byte, 4)), want: ErrUnsupportedEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := (Decoder{}).Decode(bytes.NewReader(tt.file)); !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecoder_NonSeekableInput(t *testing.T) {
	t.Parallel()

	file := buildWAV(formatPCM, 1, 8000, 16, le16(16384, -16384))
	s, err := Decoder{}.Decode(io.MultiReader(bytes.NewReader(file)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	got, err := pcm.ReadAll(s, 16)
	if err != nil || len(got) != 2 || got[0] != 0.5 {
		t.Errorf("ReadAll() = %v %v, want [0.5 -0.5]", got, err)
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "capture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	in := []float32{0, 0.5, -0.5, 0.25, 1.5, -1}
	w := NewWriter(f, 16000)
	if err := w.Write(in[:3]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Write(in[3:]); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if w.Samples() != len(in) {
		t.Errorf("Samples() = %d, want %d", w.Samples(), len(in))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	s, err := Decoder{}.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if s.SampleRate() != 16000 || s.Channels() != 1 {
		t.Fatalf("SampleRate()=%d Channels()=%d, want 16000 1", s.SampleRate(), s.Channels())
	}

	got, err := pcm.ReadAll(s, 4)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("got %d samples, want %d", len(got), len(in))
	}

	for i, v := range in {
		want := float64(max(min(v, 1), -1))
		if math.Abs(float64(got[i])-want) > 1.0/16384 {
			t.Errorf("sample %d = %v, want %v", i, got[i], want)
		}
	}
}

func TestWriteWAV16_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := WriteWAV16(f, 8000, nil); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Errorf("header = %q, want RIFF....WAVE", data[:min(len(data), 12)])
	}
}

func BenchmarkDecoder_ReadAll(b *testing.B) {
	samples := make([]int16, 44100)
	for i := range samples {
		samples[i] = int16(10000 * math.Sin(float64(i)*0.05))
	}
	file := buildWAV(formatPCM, 1, 44100, 16, le16(samples...))

	b.SetBytes(int64(len(file)))
	b.ReportAllocs()
	for range b.N {
		s, err := Decoder{}.Decode(bytes.NewReader(file))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := pcm.ReadAll(s, 4096); err != nil {
			b.Fatal(err)
		}
	}
}
