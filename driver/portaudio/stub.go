//go:build !portaudio
// +build !portaudio

// SPDX-License-Identifier: EPL-2.0

package portaudio

import (
	"github.com/rs/zerolog"

	"github.com/ik5/audstream/driver"
)

// Driver stub when portaudio is not compiled in.
type Driver struct{}

var _ driver.Driver = (*Driver)(nil)

// New reports driver.ErrNotAvailable: rebuild with -tags portaudio.
func New(zerolog.Logger) (*Driver, error) {
	return nil, driver.ErrNotAvailable
}

func (*Driver) Name() string { return Name }

func (*Driver) Devices() ([]driver.DeviceInfo, error) { return nil, driver.ErrNotAvailable }

func (*Driver) OpenInput(driver.StreamConfig, driver.InputFunc) (driver.Stream, error) {
	return nil, driver.ErrNotAvailable
}

func (*Driver) OpenOutput(driver.StreamConfig, driver.OutputFunc) (driver.Stream, error) {
	return nil, driver.ErrNotAvailable
}

func (*Driver) Close() error { return nil }
