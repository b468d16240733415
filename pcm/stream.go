// SPDX-License-Identifier: EPL-2.0

package pcm

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Stream is a pull-based source of interleaved float32 samples in [-1, 1].
type Stream interface {
	// SampleRate of the stream in Hz.
	SampleRate() int
	// Channels per frame.
	Channels() int
	// ReadSamples fills dst with interleaved samples and returns how many
	// values were written. io.EOF marks the end of the stream and may be
	// returned together with the last samples.
	ReadSamples(dst []float32) (int, error)
	// Close releases resources held by the stream.
	Close() error
}

// Decoder builds a Stream from encoded input.
type Decoder interface {
	Decode(r io.Reader) (Stream, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(r io.Reader) (Stream, error)

func (f DecoderFunc) Decode(r io.Reader) (Stream, error) { return f(r) }

// Registry maps format names, usually file extensions, to decoders.
// Names are case insensitive and a leading dot is ignored.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Decoder
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimPrefix(format, "."))
}

// Register binds d to every name in formats.
func (r *Registry) Register(d Decoder, formats ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range formats {
		r.codecs[normalizeFormat(f)] = d
	}
}

func (r *Registry) Lookup(format string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.codecs[normalizeFormat(format)]
	return d, ok
}

// Formats lists the registered names in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.codecs))
}

// Decode picks the decoder registered for format and runs it on src.
func (r *Registry) Decode(format string, src io.Reader) (Stream, error) {
	d, ok := r.Lookup(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	s, err := d.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", normalizeFormat(format), err)
	}

	return s, nil
}

// ReadAll drains s, bufSize samples at a time, and returns everything read.
// It does not close s.
func ReadAll(s Stream, bufSize int) ([]float32, error) {
	ch := max(s.Channels(), 1)
	bufSize = max(bufSize-bufSize%ch, ch)

	buf := make([]float32, bufSize)
	var out []float32
	stalls := 0

	for {
		n, err := s.ReadSamples(buf)
		out = append(out, buf[:n]...)

		switch {
		case err == io.EOF:
			return out, nil
		case err != nil:
			return out, err
		case n == 0:
			stalls++
			if stalls >= maxStalls {
				return out, io.ErrNoProgress
			}
		default:
			stalls = 0
		}
	}
}

// maxStalls bounds consecutive empty reads without error.
const maxStalls = 100
