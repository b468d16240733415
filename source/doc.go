// SPDX-License-Identifier: EPL-2.0

// Package source turns a driver-paced audio stream into overlapping analysis
// windows.
//
// Two variants implement AudioSource:
//   - FileSource decodes a file, plays it, and exposes samples as they are played.
//   - MicrophoneSource captures one channel of an input device.
//
// A driver callback is the producer: it appends samples (or advances the
// played position) and publishes a new total. A consumer, typically a frame
// timer, is the reader:
//
//	src, err := source.NewMicrophoneSource(cfg, drv, driver.DefaultDevice, 0)
//	if err != nil {
//	    // errors.Is(err, source.ErrDeviceUnavailable)
//	}
//	defer src.Release()
//
//	for range src.Available() {
//	    window, ok := src.Get()
//	    if !ok {
//	        break
//	    }
//	    analyze(window)
//	}
//
// Get never blocks. When fewer than WindowSize samples are ready it returns
// false and the consumer should simply try again on its next tick.
//
// # Concurrency
//
// The callback is the only writer of the sample buffer and of total; the
// consumer is the only writer of the read cursor. Both counters are atomic
// and only grow. Samples are stored in fixed chunks that are never moved, so
// reading published samples is safe while the callback appends.
package source
