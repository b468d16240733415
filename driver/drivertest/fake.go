// SPDX-License-Identifier: EPL-2.0

// Package drivertest provides an in-memory driver.Driver whose callbacks are
// pumped by the test instead of an audio thread.
package drivertest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ik5/audstream/driver"
)

// ErrOpenRefused is returned by Open* when the fake is configured to refuse.
var ErrOpenRefused = errors.New("drivertest: open refused")

// Driver is a fake driver.Driver.
type Driver struct {
	mu      sync.Mutex
	devices []driver.DeviceInfo
	streams []*Stream
	closed  bool

	// RefuseOpen makes every Open* call fail.
	RefuseOpen bool
	// RefuseStart makes every Stream.Start call fail.
	RefuseStart bool
}

// New returns a fake driver exposing devices.
func New(devices ...driver.DeviceInfo) *Driver {
	return &Driver{devices: devices}
}

// StereoMic is a capture device with two inputs at index 0.
func StereoMic() driver.DeviceInfo {
	return driver.DeviceInfo{
		Index:             0,
		Name:              "Fake Stereo Mic",
		MaxInputChannels:  2,
		DefaultSampleRate: 44100,
		IsDefault:         true,
	}
}

// Speakers is a playback device at index 1.
func Speakers() driver.DeviceInfo {
	return driver.DeviceInfo{
		Index:             1,
		Name:              "Fake Speakers",
		MaxOutputChannels: 2,
		DefaultSampleRate: 44100,
		IsDefault:         true,
	}
}

func (d *Driver) Name() string { return "fake" }

func (d *Driver) Devices() ([]driver.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]driver.DeviceInfo, len(d.devices))
	copy(out, d.devices)
	return out, nil
}

func (d *Driver) OpenInput(cfg driver.StreamConfig, fn driver.InputFunc) (driver.Stream, error) {
	return d.open(cfg, fn, nil)
}

func (d *Driver) OpenOutput(cfg driver.StreamConfig, fn driver.OutputFunc) (driver.Stream, error) {
	return d.open(cfg, nil, fn)
}

func (d *Driver) open(cfg driver.StreamConfig, in driver.InputFunc, out driver.OutputFunc) (driver.Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, driver.ErrStreamClosed
	}
	if d.RefuseOpen {
		return nil, ErrOpenRefused
	}

	s := &Stream{
		Config:      cfg,
		in:          in,
		out:         out,
		refuseStart: d.RefuseStart,
	}
	s.Lifecycle = driver.NewLifecycle(s.doStart, s.doStop, s.doClose, cfg.OnError)
	d.streams = append(d.streams, s)

	return s, nil
}

// Streams returns every stream opened so far.
func (d *Driver) Streams() []*Stream {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*Stream, len(d.streams))
	copy(out, d.streams)
	return out
}

// Last returns the most recently opened stream, or nil.
func (d *Driver) Last() *Stream {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Stream is a fake driver.Stream. Tests drive it with Capture and Play.
type Stream struct {
	*driver.Lifecycle

	Config driver.StreamConfig

	in          driver.InputFunc
	out         driver.OutputFunc
	refuseStart bool

	mu       sync.Mutex
	starts   int
	stops    int
	closes   int
	isClosed bool
}

func (s *Stream) doStart() error {
	if s.refuseStart {
		return ErrOpenRefused
	}
	s.mu.Lock()
	s.starts++
	s.mu.Unlock()
	return nil
}

func (s *Stream) doStop() error {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	return nil
}

func (s *Stream) doClose() error {
	s.mu.Lock()
	s.closes++
	s.isClosed = true
	s.mu.Unlock()
	return nil
}

// Capture feeds one interleaved buffer to an input stream callback, the way a
// backend would, and returns the callback's answer.
func (s *Stream) Capture(in []float32) (driver.Continuation, error) {
	if s.in == nil {
		return driver.Complete, fmt.Errorf("drivertest: not an input stream")
	}
	if !s.Running() {
		return driver.Complete, fmt.Errorf("drivertest: stream not running")
	}

	c := s.in(in)
	if c == driver.Complete {
		s.Finish()
	}
	return c, nil
}

// Play asks an output stream callback for one buffer of FramesPerBuffer
// frames and returns it.
func (s *Stream) Play() ([]float32, driver.Continuation, error) {
	if s.out == nil {
		return nil, driver.Complete, fmt.Errorf("drivertest: not an output stream")
	}
	if !s.Running() {
		return nil, driver.Complete, fmt.Errorf("drivertest: stream not running")
	}

	buf := make([]float32, s.Config.FramesPerBuffer*s.Config.Channels)
	for i := range buf {
		// Poison so tests notice samples the callback did not write.
		buf[i] = -2
	}

	c := s.out(buf)
	if c == driver.Complete {
		s.Finish()
	}
	return buf, c, nil
}

// Counts returns how many times the backend start, stop and close hooks ran.
func (s *Stream) Counts() (starts, stops, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops, s.closes
}

// Closed reports whether the backend handle was released.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClosed
}
