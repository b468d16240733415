// SPDX-License-Identifier: EPL-2.0

package source

import (
	"sync/atomic"
)

// DefaultChunkSize is the number of samples per storage chunk of a growing
// SampleBuffer (about 1.5 seconds at 44.1 kHz).
const DefaultChunkSize = 1 << 16

// SampleBuffer is append-only mono sample storage for one writer and any
// number of readers.
//
// Samples live in fixed-size chunks. A full chunk is never copied or moved,
// so a reader that observed Len() == n may read [0, n) while the writer keeps
// appending.
type SampleBuffer struct {
	chunkSize int
	chunks    atomic.Pointer[[][]float32]
	length    atomic.Int64
}

// NewSampleBuffer returns an empty buffer. chunkSize <= 0 selects
// DefaultChunkSize.
func NewSampleBuffer(chunkSize int) *SampleBuffer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	b := &SampleBuffer{chunkSize: chunkSize}
	dir := make([][]float32, 0, 16)
	b.chunks.Store(&dir)

	return b
}

// NewSampleBufferFrom returns a buffer that takes ownership of samples as
// its only chunk. The caller must not modify samples afterwards.
func NewSampleBufferFrom(samples []float32) *SampleBuffer {
	if len(samples) == 0 {
		return NewSampleBuffer(0)
	}

	b := &SampleBuffer{chunkSize: len(samples)}
	dir := [][]float32{samples[:len(samples):len(samples)]}
	b.chunks.Store(&dir)
	b.length.Store(int64(len(samples)))

	return b
}

// Len is the number of samples published so far.
func (b *SampleBuffer) Len() int { return int(b.length.Load()) }

// Append copies samples to the end of the buffer. Only one goroutine may
// append at a time.
func (b *SampleBuffer) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}

	n := int(b.length.Load())
	for len(samples) > 0 {
		chunk := b.writable(n)
		off := n % b.chunkSize
		w := copy(chunk[off:], samples)
		samples = samples[w:]
		n += w
	}

	b.length.Store(int64(n))
}

// AppendStride appends in[offset], in[offset+stride], ... Only one goroutine
// may append at a time.
func (b *SampleBuffer) AppendStride(in []float32, offset, stride int) int {
	if stride <= 0 || offset < 0 || offset >= len(in) {
		return 0
	}

	start := int(b.length.Load())
	n := start
	var chunk []float32
	for i := offset; i < len(in); i += stride {
		off := n % b.chunkSize
		if chunk == nil || off == 0 {
			chunk = b.writable(n)
		}
		chunk[off] = in[i]
		n++
	}

	b.length.Store(int64(n))
	return n - start
}

// writable returns the chunk holding position n, adding it if needed.
func (b *SampleBuffer) writable(n int) []float32 {
	dir := *b.chunks.Load()
	idx := n / b.chunkSize
	if idx < len(dir) {
		return dir[idx]
	}

	chunk := make([]float32, b.chunkSize)
	// Readers hold their own slice header and never index past it, so
	// growing in place is safe.
	grown := append(dir, chunk)
	b.chunks.Store(&grown)

	return chunk
}

// CopyTo copies samples starting at from into dst and returns how many were
// copied. Only published samples are copied.
func (b *SampleBuffer) CopyTo(dst []float32, from int) int {
	n := int(b.length.Load())
	if from < 0 || from >= n || len(dst) == 0 {
		return 0
	}

	count := min(len(dst), n-from)
	dir := *b.chunks.Load()

	copied := 0
	for copied < count {
		pos := from + copied
		chunk := dir[pos/b.chunkSize]
		off := pos % b.chunkSize
		copied += copy(dst[copied:count], chunk[off:])
	}

	return copied
}

// Snapshot returns a copy of the first n published samples.
func (b *SampleBuffer) Snapshot(n int) []float32 {
	n = min(max(n, 0), b.Len())
	out := make([]float32, n)
	b.CopyTo(out, 0)
	return out
}
