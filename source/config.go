// SPDX-License-Identifier: EPL-2.0

package source

import (
	"fmt"
)

// Config holds the fixed parameters shared by every source. It is copied
// into each source at construction and never changes afterwards.
type Config struct {
	// SampleRate in Hz of the mono signal stored by the source.
	SampleRate int
	// WindowSize is the number of samples in each window returned by Get.
	WindowSize int
	// HopSize is how far the read cursor advances per window.
	// Overlap between consecutive windows is WindowSize - HopSize.
	HopSize int
	// BufferSize is the number of frames per driver callback.
	BufferSize int
}

// DefaultConfig matches the visualizer defaults: 44.1 kHz, 2048 sample
// windows with 50% overlap, 1024 frame callbacks.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		WindowSize: 2048,
		HopSize:    1024,
		BufferSize: 1024,
	}
}

// Validate reports whether every field is usable.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.WindowSize <= 0:
		return fmt.Errorf("%w: window size %d", ErrInvalidConfig, c.WindowSize)
	case c.HopSize <= 0:
		return fmt.Errorf("%w: hop size %d", ErrInvalidConfig, c.HopSize)
	case c.HopSize > c.WindowSize:
		return fmt.Errorf("%w: hop size %d exceeds window size %d", ErrInvalidConfig, c.HopSize, c.WindowSize)
	case c.BufferSize <= 0:
		return fmt.Errorf("%w: buffer size %d", ErrInvalidConfig, c.BufferSize)
	}
	return nil
}

// Overlap is the number of samples shared by consecutive windows.
func (c Config) Overlap() int { return c.WindowSize - c.HopSize }
