// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audstream/utils"
)

// Writer encodes mono float32 samples as 16-bit PCM WAV. The header is
// patched with the final sizes on Close, so w must be seekable.
type Writer struct {
	enc *wav.Encoder
	buf *goaudio.IntBuffer
	n   int
}

// NewWriter starts a mono 16-bit WAV at sampleRate on w.
func NewWriter(w io.WriteSeeker, sampleRate int) *Writer {
	return &Writer{
		enc: wav.NewEncoder(w, sampleRate, 16, 1, formatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: 1},
			SourceBitDepth: 16,
		},
	}
}

// Write appends samples, clamped to [-1, 1].
func (w *Writer) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]

	for i, v := range samples {
		w.buf.Data[i] = int(utils.Float32ToInt16(v))
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	w.n += len(samples)

	return nil
}

// Samples is the number of samples written so far.
func (w *Writer) Samples() int { return w.n }

// Close finalizes the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.n == 0 {
		// The encoder writes its header lazily.
		w.buf.Data = w.buf.Data[:0]
		if err := w.enc.Write(w.buf); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}

// WriteWAV16 writes samples as a complete mono 16-bit WAV.
func WriteWAV16(w io.WriteSeeker, sampleRate int, samples []float32) error {
	ww := NewWriter(w, sampleRate)
	if err := ww.Write(samples); err != nil {
		return err
	}
	return ww.Close()
}
