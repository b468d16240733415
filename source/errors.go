// SPDX-License-Identifier: EPL-2.0

package source

import "errors"

var (
	// ErrDeviceUnavailable is returned when the requested device, channel or
	// stream cannot be opened. The source is not created.
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	// ErrDecodeFailure is returned when a file cannot be decoded or resampled.
	ErrDecodeFailure = errors.New("audio decode failure")
	// ErrInvalidConfig is returned for unusable Config values.
	ErrInvalidConfig = errors.New("invalid source config")
	// ErrStreamFailed is reported by Err after the driver signalled a failure.
	ErrStreamFailed = errors.New("audio stream failed")
)
