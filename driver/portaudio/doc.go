// SPDX-License-Identifier: EPL-2.0

// Package portaudio implements driver.Driver with PortAudio.
//
// The backend needs the PortAudio C library and is only compiled with the
// portaudio build tag:
//
//	go build -tags portaudio ./cmd/audstream
//
// Without the tag New returns driver.ErrNotAvailable.
package portaudio

// Name identifies this backend in configuration.
const Name = "portaudio"
