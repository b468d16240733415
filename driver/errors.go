// SPDX-License-Identifier: EPL-2.0

package driver

import "errors"

var (
	ErrNoDevices         = errors.New("no audio devices found")
	ErrDeviceNotFound    = errors.New("audio device not found")
	ErrUnsupportedDevice = errors.New("audio device does not support the requested direction")
	ErrInvalidStream     = errors.New("invalid stream configuration")
	ErrStreamClosed      = errors.New("stream is closed")
	ErrNotAvailable      = errors.New("audio backend not available in this build")
)

// Validate checks that cfg can be handed to a backend.
func (cfg StreamConfig) Validate() error {
	switch {
	case cfg.Channels <= 0:
		return errors.Join(ErrInvalidStream, errors.New("channels must be positive"))
	case cfg.SampleRate <= 0:
		return errors.Join(ErrInvalidStream, errors.New("sample rate must be positive"))
	case cfg.FramesPerBuffer <= 0:
		return errors.Join(ErrInvalidStream, errors.New("frames per buffer must be positive"))
	}
	return nil
}
