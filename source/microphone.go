// SPDX-License-Identifier: EPL-2.0

package source

import (
	"fmt"

	"github.com/ik5/audstream/driver"
)

// MicrophoneSource captures one channel of a live input device.
//
// It never completes. After a stream failure Err is non-nil and the source
// stays dead until the caller releases it and creates a new one.
type MicrophoneSource struct {
	core

	device  driver.DeviceInfo
	channel int
	// offset and stride pick the selected channel out of interleaved input.
	offset int
	stride int
}

var _ AudioSource = (*MicrophoneSource)(nil)

// NewMicrophoneSource opens device and captures the channel chosen by
// channel, an index into driver.ChannelOptions for that device.
//
// The stream is opened with two interleaved channels when the device has
// them; an even selector keeps the first channel of the pair and an odd one
// the second. Any failure wraps ErrDeviceUnavailable.
func NewMicrophoneSource(cfg Config, drv driver.Driver, device, channel int, opts ...Option) (*MicrophoneSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := collectOptions(opts)

	devices, err := drv.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: listing devices on %s: %w", ErrDeviceUnavailable, drv.Name(), err)
	}

	info, err := driver.FindDevice(devices, device, driver.CanCapture)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	options := driver.ChannelOptions(info)
	if channel < 0 || channel >= len(options) {
		return nil, fmt.Errorf("%w: channel %d not available on %q (%d options)",
			ErrDeviceUnavailable, channel, info.Name, len(options))
	}

	channels := min(info.MaxInputChannels, 2)

	m := &MicrophoneSource{
		device:  info,
		channel: channel,
		offset:  channel % channels,
		stride:  channels,
	}
	m.init(KindMicrophone, cfg, NewSampleBuffer(o.chunkSize), o.logger)
	m.logger = m.logger.With().
		Int("device_index", info.Index).
		Str("device", info.Name).
		Int("channel_index", channel).
		Logger()

	stream, err := drv.OpenInput(driver.StreamConfig{
		Device:          info.Index,
		Channels:        channels,
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.BufferSize,
		OnError:         m.recordFailure,
	}, m.ingest)
	if err != nil {
		return nil, fmt.Errorf("%w: opening input on %s: %w", ErrDeviceUnavailable, drv.Name(), err)
	}
	m.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("%w: starting input on %s: %w", ErrDeviceUnavailable, drv.Name(), err)
	}

	m.logger.Info().
		Int("stream_channels", channels).
		Str("selection", options[channel].Label).
		Msg("microphone capture started")

	return m, nil
}

// Device is the capture device.
func (m *MicrophoneSource) Device() driver.DeviceInfo { return m.device }

// Channel is the channel selector the source was opened with.
func (m *MicrophoneSource) Channel() int { return m.channel }

// Captured returns a copy of every ready sample.
func (m *MicrophoneSource) Captured() []float32 {
	return m.data.Snapshot(m.Total())
}

// ingest is the input callback.
func (m *MicrophoneSource) ingest(in []float32) driver.Continuation {
	n := m.data.AppendStride(in, m.offset, m.stride)
	m.total.Store(int64(m.data.Len()))

	m.logger.Trace().
		Int("captured", n).
		Int("total", m.data.Len()).
		Msg("microphone callback")

	return driver.Continue
}
