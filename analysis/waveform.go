// SPDX-License-Identifier: EPL-2.0

package analysis

import (
	"math"
	"sync"
)

// Level summarizes the windows of one frame.
type Level struct {
	Peak float32
	RMS  float32
}

// Waveform keeps the last window of each frame and its level.
type Waveform struct {
	mu sync.RWMutex

	// pending state, written by Add
	last    []float32
	peak    float32
	sumSq   float64
	count   int
	windows int

	// published state, written by Update
	samples []float32
	level   Level
	frames  int
}

var _ Analyzer = (*Waveform)(nil)

// NewWaveform returns a Waveform for windows of size samples.
func NewWaveform(size int) (*Waveform, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return &Waveform{
		last:    make([]float32, size),
		samples: make([]float32, size),
	}, nil
}

func (w *Waveform) Add(window []float32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := copy(w.last, window)
	clear(w.last[n:])

	for _, v := range window {
		a := float32(math.Abs(float64(v)))
		if a > w.peak {
			w.peak = a
		}
		w.sumSq += float64(v) * float64(v)
	}
	w.count += len(window)
	w.windows++
}

// Update publishes the frame. A frame without windows keeps the previous
// picture.
func (w *Waveform) Update() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.frames++
	if w.windows == 0 {
		return
	}

	copy(w.samples, w.last)
	w.level = Level{
		Peak: w.peak,
		RMS:  float32(math.Sqrt(w.sumSq / float64(w.count))),
	}

	w.peak, w.sumSq, w.count, w.windows = 0, 0, 0, 0
}

// Level is the level of the last published frame.
func (w *Waveform) Level() Level {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.level
}

// Samples returns a copy of the last published window.
func (w *Waveform) Samples() []float32 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]float32, len(w.samples))
	copy(out, w.samples)
	return out
}

// Frames counts Update calls.
func (w *Waveform) Frames() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frames
}
