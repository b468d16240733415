// SPDX-License-Identifier: EPL-2.0

// Package analysis turns source windows into the data a visualizer draws:
// a waveform with peak and RMS levels, and a magnitude spectrum.
//
// Analyzers follow a per-frame cycle. The consumer calls Add for every
// window it pulled during a frame and Update once at the end of the frame,
// which publishes the new state. Readers may query an analyzer from any
// goroutine.
package analysis

import "errors"

var (
	ErrInvalidSize = errors.New("analysis: size must be positive")
	ErrShortBuffer = errors.New("analysis: destination buffer too small")
)

// Analyzer consumes windows.
type Analyzer interface {
	// Add accumulates one window. window is not retained.
	Add(window []float32)
	// Update publishes what was accumulated since the previous Update.
	Update()
}
