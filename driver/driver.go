// SPDX-License-Identifier: EPL-2.0

package driver

// Continuation is returned by a stream callback to tell the driver whether it
// should keep invoking the callback.
type Continuation int

const (
	// Continue keeps the stream running.
	Continue Continuation = iota
	// Complete asks the driver to stop the stream after the current buffer.
	Complete
)

func (c Continuation) String() string {
	switch c {
	case Continue:
		return "continue"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// InputFunc receives interleaved float32 samples captured by the device.
// in is only valid for the duration of the call.
type InputFunc func(in []float32) Continuation

// OutputFunc fills out with interleaved float32 samples to be played.
// Every element of out must be written; samples left untouched are undefined.
type OutputFunc func(out []float32) Continuation

// DefaultDevice selects the backend's default device.
const DefaultDevice = -1

// StreamConfig describes a stream to open.
type StreamConfig struct {
	// Device is an index into Driver.Devices, or DefaultDevice.
	Device int
	// Channels is the number of interleaved channels.
	Channels int
	// SampleRate in Hz.
	SampleRate int
	// FramesPerBuffer is the number of frames handed to each callback.
	FramesPerBuffer int
	// OnError is invoked (off the callback) when the backend reports a stream
	// failure. It may be nil.
	OnError func(err error)
}

// Stream is an opened device stream.
//
// Stop blocks until the backend no longer invokes the callback. Both Stop and
// Close are safe to call more than once and from multiple goroutines, but must
// never be called from inside the stream callback.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Driver enumerates devices and opens streams on an audio backend.
type Driver interface {
	Name() string
	Devices() ([]DeviceInfo, error)
	OpenInput(cfg StreamConfig, fn InputFunc) (Stream, error)
	OpenOutput(cfg StreamConfig, fn OutputFunc) (Stream, error)
	Close() error
}
