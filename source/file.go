// SPDX-License-Identifier: EPL-2.0

package source

import (
	"fmt"

	"github.com/ik5/audstream"
	"github.com/ik5/audstream/driver"
)

// FileSource plays a decoded file and exposes what has been played.
//
// The whole file is decoded up front, but total only advances as the output
// callback hands buffers to the device, so windows follow what is audible.
type FileSource struct {
	core

	path string
}

var _ AudioSource = (*FileSource)(nil)

// NewFileSource decodes path at cfg.SampleRate and starts playing it.
//
// Decoding errors wrap ErrDecodeFailure; failing to open or start the output
// stream wraps ErrDeviceUnavailable.
func NewFileSource(cfg Config, drv driver.Driver, path string, opts ...Option) (*FileSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := collectOptions(opts)
	if o.loader == nil {
		o.loader = audstream.DecodeFile
	}

	samples, err := o.loader(path, cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailure, path, err)
	}

	f := &FileSource{path: path}
	f.init(KindFile, cfg, NewSampleBufferFrom(samples), o.logger)
	f.logger = f.logger.With().Str("path", path).Logger()

	if o.outputDevice != driver.DefaultDevice {
		devices, err := drv.Devices()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
		if _, err := driver.FindDevice(devices, o.outputDevice, driver.CanPlay); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
	}

	stream, err := drv.OpenOutput(driver.StreamConfig{
		Device:          o.outputDevice,
		Channels:        1,
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.BufferSize,
		OnError:         f.fail,
	}, f.fill)
	if err != nil {
		return nil, fmt.Errorf("%w: opening output on %s: %w", ErrDeviceUnavailable, drv.Name(), err)
	}
	f.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("%w: starting output on %s: %w", ErrDeviceUnavailable, drv.Name(), err)
	}

	f.logger.Info().
		Int("samples", f.data.Len()).
		Int("sample_rate", cfg.SampleRate).
		Msg("file playback started")

	return f, nil
}

// Path is the file being played.
func (f *FileSource) Path() string { return f.path }

// Len is the number of decoded samples.
func (f *FileSource) Len() int { return f.data.Len() }

// fill is the output callback. It plays the next buffer and publishes it.
func (f *FileSource) fill(out []float32) driver.Continuation {
	if f.complete.Load() {
		clear(out)
		return driver.Complete
	}

	start := int(f.total.Load())
	n := f.data.CopyTo(out, start)
	// The last buffer is short; pad it with silence rather than dropping it.
	clear(out[n:])

	end := start + n
	f.total.Store(int64(end))

	if end >= f.data.Len() {
		f.markComplete()
		return driver.Complete
	}

	return driver.Continue
}

// fail stops feeding windows after the driver reported an error.
func (f *FileSource) fail(err error) {
	f.recordFailure(err)
	f.markComplete()
}
