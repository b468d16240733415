//go:build portaudio
// +build portaudio

// SPDX-License-Identifier: EPL-2.0

package portaudio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/ik5/audstream/driver"
)

// Driver owns one PortAudio initialization.
type Driver struct {
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
}

var _ driver.Driver = (*Driver)(nil)

// New initializes PortAudio. Close terminates it.
func New(logger zerolog.Logger) (*Driver, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &Driver{logger: logger.With().Str("backend", Name).Logger()}, nil
}

func (d *Driver) Name() string { return Name }

// Devices reports every PortAudio device; the default input and output
// devices are both flagged as default.
func (d *Driver) Devices() ([]driver.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	defIn, _ := portaudio.DefaultInputDevice()
	defOut, _ := portaudio.DefaultOutputDevice()

	out := make([]driver.DeviceInfo, 0, len(devices))
	for _, dev := range devices {
		out = append(out, driver.DeviceInfo{
			Index:             dev.Index,
			Name:              dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			MaxOutputChannels: dev.MaxOutputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
			IsDefault:         dev == defIn || dev == defOut,
		})
	}
	return out, nil
}

func (d *Driver) device(index int, input bool) (*portaudio.DeviceInfo, error) {
	if index == driver.DefaultDevice {
		if input {
			return portaudio.DefaultInputDevice()
		}
		return portaudio.DefaultOutputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for _, dev := range devices {
		if dev.Index == index {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", driver.ErrDeviceNotFound, index)
}

func (d *Driver) OpenInput(cfg driver.StreamConfig, fn driver.InputFunc) (driver.Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dev, err := d.device(cfg.Device, true)
	if err != nil {
		return nil, err
	}

	s := &stream{}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}

	return d.open(s, cfg, params, func(in []float32) {
		if fn(in) == driver.Complete {
			s.Finish()
		}
	})
}

func (d *Driver) OpenOutput(cfg driver.StreamConfig, fn driver.OutputFunc) (driver.Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dev, err := d.device(cfg.Device, false)
	if err != nil {
		return nil, err
	}

	s := &stream{}
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Channels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}

	return d.open(s, cfg, params, func(out []float32) {
		if fn(out) == driver.Complete {
			s.Finish()
		}
	})
}

func (d *Driver) open(s *stream, cfg driver.StreamConfig, params portaudio.StreamParameters, callback func([]float32)) (driver.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, driver.ErrStreamClosed
	}

	s.Lifecycle = driver.NewLifecycle(s.start, s.stop, s.release, cfg.OnError)

	ps, err := portaudio.OpenStream(params, callback)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	s.pa = ps

	d.logger.Debug().
		Int("device", cfg.Device).
		Int("channels", cfg.Channels).
		Int("sample_rate", cfg.SampleRate).
		Msg("stream opened")

	return s, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

type stream struct {
	*driver.Lifecycle
	pa *portaudio.Stream
}

func (s *stream) start() error { return s.pa.Start() }
func (s *stream) stop() error  { return s.pa.Stop() }

func (s *stream) release() error {
	if s.pa == nil {
		return nil
	}
	return s.pa.Close()
}
