// SPDX-License-Identifier: EPL-2.0

package source

import (
	"errors"
	"sync"
	"testing"

	"github.com/ik5/audstream/driver"
	"github.com/ik5/audstream/driver/drivertest"
)

func newTestMic(t *testing.T, cfg Config, dev driver.DeviceInfo, channel int) (*MicrophoneSource, *drivertest.Stream) {
	t.Helper()

	drv := drivertest.New(dev)
	src, err := NewMicrophoneSource(cfg, drv, driver.DefaultDevice, channel)
	if err != nil {
		t.Fatalf("NewMicrophoneSource() error = %v", err)
	}
	t.Cleanup(func() { _ = src.Release() })

	return src, drv.Last()
}

func capture(t *testing.T, s *drivertest.Stream, in []float32) {
	t.Helper()

	c, err := s.Capture(in)
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if c != driver.Continue {
		t.Fatalf("Capture() = %v, want continue", c)
	}
}

// interleave builds a stereo buffer whose left channel counts up from left
// and right channel counts up from right.
func interleave(left, right, frames int) []float32 {
	out := make([]float32, 2*frames)
	for i := range frames {
		out[2*i] = float32(left + i)
		out[2*i+1] = float32(right + i)
	}
	return out
}

func TestMicrophoneSource_SelectsChannel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		channel int
		base    int
	}{
		{name: "mono left", channel: 0, base: 0},
		{name: "mono right", channel: 1, base: 1000},
		{name: "stereo pair keeps left", channel: 2, base: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Config{SampleRate: 8000, WindowSize: 4, HopSize: 2, BufferSize: 8}
			src, stream := newTestMic(t, cfg, drivertest.StereoMic(), tt.channel)

			if stream.Config.Channels != 2 {
				t.Fatalf("stream channels = %d, want 2", stream.Config.Channels)
			}

			capture(t, stream, interleave(0, 1000, 8))

			if src.Total() != 8 {
				t.Fatalf("Total() = %d, want 8", src.Total())
			}
			got := src.Captured()
			for i, v := range got {
				if v != float32(tt.base+i) {
					t.Fatalf("sample %d = %v, want %v", i, v, float32(tt.base+i))
				}
			}
		})
	}
}

// TestMicrophoneSource_AccumulatesAcrossCallbacks feeds two 1024 frame stereo
// buffers and reads 1024/256 windows of the right channel.
func TestMicrophoneSource_AccumulatesAcrossCallbacks(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 8000, WindowSize: 1024, HopSize: 256, BufferSize: 1024}
	src, stream := newTestMic(t, cfg, drivertest.StereoMic(), 1)

	capture(t, stream, interleave(0, 10000, 1024))
	capture(t, stream, interleave(1024, 11024, 1024))

	if src.Total() != 2048 {
		t.Fatalf("Total() = %d, want 2048", src.Total())
	}
	if got := src.Available(); got != 4 {
		t.Fatalf("Available() = %d, want 4", got)
	}

	for i := range 4 {
		window, ok := src.Get()
		if !ok {
			t.Fatalf("Get() #%d = false, want window", i+1)
		}
		checkWindow(t, window, 10000+i*256)
	}

	// Windows ending exactly at total are still readable.
	if _, ok := src.Get(); !ok {
		t.Fatal("Get() at index 1024 = false, want window")
	}
	if _, ok := src.Get(); ok {
		t.Fatal("Get() past total returned a window")
	}
	if src.Complete() {
		t.Error("microphone reported complete")
	}
}

func TestMicrophoneSource_MonoDevice(t *testing.T) {
	t.Parallel()

	mono := driver.DeviceInfo{Index: 3, Name: "USB Mic", MaxInputChannels: 1, IsDefault: true}
	cfg := Config{SampleRate: 8000, WindowSize: 4, HopSize: 4, BufferSize: 8}
	src, stream := newTestMic(t, cfg, mono, 0)

	if stream.Config.Channels != 1 {
		t.Fatalf("stream channels = %d, want 1", stream.Config.Channels)
	}

	capture(t, stream, ramp(0, 8))
	checkWindow(t, src.Captured(), 0)
	if src.Total() != 8 {
		t.Errorf("Total() = %d, want 8", src.Total())
	}
}

func TestMicrophoneSource_DeviceUnavailable(t *testing.T) {
	t.Parallel()

	speakerOnly := drivertest.Speakers()
	speakerOnly.Index = 0

	tests := []struct {
		name    string
		devices []driver.DeviceInfo
		device  int
		channel int
		setup   func(*drivertest.Driver)
	}{
		{name: "no devices", device: driver.DefaultDevice},
		{name: "unknown index", devices: []driver.DeviceInfo{drivertest.StereoMic()}, device: 9},
		{name: "no inputs", devices: []driver.DeviceInfo{speakerOnly}, device: 0},
		{name: "channel out of range", devices: []driver.DeviceInfo{drivertest.StereoMic()}, device: 0, channel: 3},
		{name: "negative channel", devices: []driver.DeviceInfo{drivertest.StereoMic()}, device: 0, channel: -1},
		{
			name:    "open refused",
			devices: []driver.DeviceInfo{drivertest.StereoMic()},
			device:  0,
			setup:   func(d *drivertest.Driver) { d.RefuseOpen = true },
		},
		{
			name:    "start refused",
			devices: []driver.DeviceInfo{drivertest.StereoMic()},
			device:  0,
			setup:   func(d *drivertest.Driver) { d.RefuseStart = true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			drv := drivertest.New(tt.devices...)
			if tt.setup != nil {
				tt.setup(drv)
			}

			src, err := NewMicrophoneSource(DefaultConfig(), drv, tt.device, tt.channel)
			if !errors.Is(err, ErrDeviceUnavailable) {
				t.Fatalf("NewMicrophoneSource() error = %v, want ErrDeviceUnavailable", err)
			}
			if src != nil {
				t.Error("NewMicrophoneSource() returned a source with an error")
			}
			for _, s := range drv.Streams() {
				if !s.Closed() {
					t.Error("stream left open after failed construction")
				}
			}
		})
	}
}

func TestMicrophoneSource_FailureKeepsSourceDead(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 8000, WindowSize: 4, HopSize: 2, BufferSize: 4}
	src, stream := newTestMic(t, cfg, drivertest.StereoMic(), 0)

	capture(t, stream, interleave(0, 100, 4))
	stream.Fail(errors.New("overrun"))

	waitFor(t, "failure", func() bool { return src.Err() != nil })
	waitFor(t, "stream stop", func() bool { return !stream.Running() })

	if !errors.Is(src.Err(), ErrStreamFailed) {
		t.Errorf("Err() = %v, want ErrStreamFailed", src.Err())
	}
	if src.Complete() {
		t.Error("failed microphone reported complete")
	}
	if _, err := stream.Capture(interleave(0, 0, 4)); err == nil {
		t.Error("stopped stream still accepted a buffer")
	}

	// A second failure does not replace the first.
	first := src.Err()
	src.recordFailure(errors.New("later"))
	if src.Err() != first {
		t.Errorf("Err() changed to %v", src.Err())
	}
}

func TestMicrophoneSource_ConcurrentCaptureAndRead(t *testing.T) {
	t.Parallel()

	const (
		buffers = 200
		frames  = 64
	)

	cfg := Config{SampleRate: 8000, WindowSize: 32, HopSize: 16, BufferSize: frames}
	src, stream := newTestMic(t, cfg, drivertest.StereoMic(), 0)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range buffers {
			if _, err := stream.Capture(interleave(i*frames, 0, frames)); err != nil {
				t.Errorf("Capture() error = %v", err)
				return
			}
		}
	}()

	window := make([]float32, cfg.WindowSize)
	lastIndex := 0
	reads := 0
	want := (buffers*frames-cfg.WindowSize)/cfg.HopSize + 1

	for reads < want {
		start := src.Index()
		if start < lastIndex {
			t.Fatalf("Index() went back from %d to %d", lastIndex, start)
		}
		lastIndex = start

		if !src.GetInto(window) {
			continue
		}
		checkWindow(t, window, start)
		reads++
	}

	wg.Wait()

	if src.Index() > src.Total() {
		t.Errorf("Index() = %d beyond Total() = %d", src.Index(), src.Total())
	}
	if src.Available() != 0 {
		t.Errorf("Available() = %d after draining, want 0", src.Available())
	}
}

func BenchmarkMicrophoneSource_Ingest(b *testing.B) {
	drv := drivertest.New(drivertest.StereoMic())
	src, err := NewMicrophoneSource(DefaultConfig(), drv, 0, 1)
	if err != nil {
		b.Fatal(err)
	}
	defer src.Release()

	in := interleave(0, 0, 1024)

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		src.ingest(in)
	}
}
