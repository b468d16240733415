// SPDX-License-Identifier: EPL-2.0

// Package miniaudio implements driver.Driver on top of malgo, the Go binding
// of miniaudio. It is the default backend.
package miniaudio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"

	"github.com/ik5/audstream/driver"
	"github.com/ik5/audstream/utils"
)

// Name identifies this backend in configuration.
const Name = "miniaudio"

// ErrDeviceStopped is reported when the device stops without being asked to,
// typically because it was unplugged.
var ErrDeviceStopped = errors.New("miniaudio: device stopped unexpectedly")

// malgo does not expose channel counts without probing every device; stereo
// is what miniaudio converts to for any hardware.
const reportedChannels = 2

type entry struct {
	info driver.DeviceInfo
	id   malgo.DeviceID
	kind malgo.DeviceType
}

// Driver is a malgo context plus the device table from the last Devices call.
type Driver struct {
	ctx    *malgo.AllocatedContext
	logger zerolog.Logger

	mu      sync.Mutex
	entries []entry
	closed  bool
}

var _ driver.Driver = (*Driver)(nil)

// New initializes a miniaudio context. miniaudio log lines go to logger at
// debug level.
func New(logger zerolog.Logger) (*Driver, error) {
	logger = logger.With().Str("backend", Name).Logger()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug().Msg(message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	return &Driver{ctx: ctx, logger: logger}, nil
}

func (d *Driver) Name() string { return Name }

// Devices lists capture devices followed by playback devices. Indexes are
// positions in that list and stay valid until the next call.
func (d *Driver) Devices() ([]driver.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, driver.ErrStreamClosed
	}
	if err := d.refreshLocked(); err != nil {
		return nil, err
	}

	out := make([]driver.DeviceInfo, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.info
	}
	return out, nil
}

func (d *Driver) refreshLocked() error {
	capture, err := d.ctx.Devices(malgo.Capture)
	if err != nil {
		return fmt.Errorf("failed to enumerate capture devices: %w", err)
	}
	playback, err := d.ctx.Devices(malgo.Playback)
	if err != nil {
		return fmt.Errorf("failed to enumerate playback devices: %w", err)
	}

	d.entries = d.entries[:0]
	add := func(kind malgo.DeviceType, infos []malgo.DeviceInfo) {
		for _, info := range infos {
			di := driver.DeviceInfo{
				Index:     len(d.entries),
				Name:      info.Name(),
				IsDefault: info.IsDefault > 0,
			}
			if kind == malgo.Capture {
				di.MaxInputChannels = reportedChannels
			} else {
				di.MaxOutputChannels = reportedChannels
			}
			d.entries = append(d.entries, entry{info: di, id: info.ID, kind: kind})
		}
	}
	add(malgo.Capture, capture)
	add(malgo.Playback, playback)

	return nil
}

func (d *Driver) lookup(index int, kind malgo.DeviceType) (*malgo.DeviceID, error) {
	if index == driver.DefaultDevice {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.entries) == 0 {
		if err := d.refreshLocked(); err != nil {
			return nil, err
		}
	}
	if index < 0 || index >= len(d.entries) {
		return nil, fmt.Errorf("%w: %d", driver.ErrDeviceNotFound, index)
	}
	if d.entries[index].kind != kind {
		return nil, fmt.Errorf("%w: %d", driver.ErrUnsupportedDevice, index)
	}

	id := d.entries[index].id
	return &id, nil
}

func (d *Driver) OpenInput(cfg driver.StreamConfig, fn driver.InputFunc) (driver.Stream, error) {
	return d.open(cfg, malgo.Capture, fn, nil)
}

func (d *Driver) OpenOutput(cfg driver.StreamConfig, fn driver.OutputFunc) (driver.Stream, error) {
	return d.open(cfg, malgo.Playback, nil, fn)
}

func (d *Driver) open(cfg driver.StreamConfig, kind malgo.DeviceType, in driver.InputFunc, out driver.OutputFunc) (driver.Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	id, err := d.lookup(cfg.Device, kind)
	if err != nil {
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(kind)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.FramesPerBuffer)
	if kind == malgo.Capture {
		deviceConfig.Capture.Format = malgo.FormatF32
		deviceConfig.Capture.Channels = uint32(cfg.Channels)
		if id != nil {
			deviceConfig.Capture.DeviceID = id.Pointer()
		}
	} else {
		deviceConfig.Playback.Format = malgo.FormatF32
		deviceConfig.Playback.Channels = uint32(cfg.Channels)
		if id != nil {
			deviceConfig.Playback.DeviceID = id.Pointer()
		}
	}

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, driver.ErrStreamClosed
	}

	s := newStream(cfg, in, out, d.logger)

	callbacks := malgo.DeviceCallbacks{
		Data: s.onData,
		Stop: s.onStop,
	}

	device, err := malgo.InitDevice(d.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize device: %w", err)
	}
	s.dev = device

	d.logger.Debug().
		Int("device", cfg.Device).
		Int("channels", cfg.Channels).
		Int("sample_rate", cfg.SampleRate).
		Int("frames_per_buffer", cfg.FramesPerBuffer).
		Bool("capture", kind == malgo.Capture).
		Msg("stream opened")

	return s, nil
}

// Close releases the context. Streams must be closed first.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if err := d.ctx.Uninit(); err != nil {
		d.ctx.Free()
		return fmt.Errorf("failed to uninit malgo context: %w", err)
	}
	d.ctx.Free()

	return nil
}

// stream adapts a malgo device to driver.Stream.
type stream struct {
	*driver.Lifecycle

	dev      *malgo.Device
	channels int
	in       driver.InputFunc
	out      driver.OutputFunc
	logger   zerolog.Logger

	// stopping is set while a requested stop is in progress so onStop can
	// tell it apart from a device failure.
	stopping atomic.Bool
	scratch  []float32
}

func newStream(cfg driver.StreamConfig, in driver.InputFunc, out driver.OutputFunc, logger zerolog.Logger) *stream {
	s := &stream{
		channels: cfg.Channels,
		in:       in,
		out:      out,
		logger:   logger,
		scratch:  make([]float32, cfg.FramesPerBuffer*cfg.Channels),
	}
	s.Lifecycle = driver.NewLifecycle(s.start, s.stop, s.release, cfg.OnError)
	return s
}

func (s *stream) start() error {
	s.stopping.Store(false)
	if err := s.dev.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

func (s *stream) stop() error {
	s.stopping.Store(true)
	if err := s.dev.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	return nil
}

func (s *stream) release() error {
	if s.dev != nil {
		s.dev.Uninit()
	}
	return nil
}

// buffer returns scratch sized for frames, growing it only when a backend
// hands over a larger period than configured.
func (s *stream) buffer(frames uint32) []float32 {
	n := int(frames) * s.channels
	if cap(s.scratch) < n {
		s.scratch = make([]float32, n)
	}
	return s.scratch[:n]
}

func (s *stream) onData(output, input []byte, frames uint32) {
	buf := s.buffer(frames)

	var c driver.Continuation
	if s.in != nil {
		n := utils.DecodeFloat32LE(buf, input)
		c = s.in(buf[:n])
	} else {
		c = s.out(buf)
		utils.EncodeFloat32LE(output, buf)
	}

	if c == driver.Complete {
		s.Finish()
	}
}

func (s *stream) onStop() {
	if s.stopping.Load() {
		return
	}
	s.logger.Warn().Msg("device stopped unexpectedly")
	s.Fail(ErrDeviceStopped)
}
