// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ik5/audstream/driver"
	"github.com/ik5/audstream/driver/miniaudio"
	"github.com/ik5/audstream/driver/portaudio"
)

// openDriver initializes the named audio backend.
func openDriver(name string, logger zerolog.Logger) (driver.Driver, error) {
	switch name {
	case miniaudio.Name:
		drv, err := miniaudio.New(logger)
		if err != nil {
			return nil, err
		}
		return drv, nil
	case portaudio.Name:
		drv, err := portaudio.New(logger)
		if err != nil {
			return nil, fmt.Errorf("%s: %w (rebuild with -tags portaudio)", name, err)
		}
		return drv, nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", name)
	}
}

// listDevices prints every distinct device and, for capture devices, the
// channel selections that -channel accepts.
func listDevices(w io.Writer, drv driver.Driver) error {
	devices, err := drv.Devices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	devices = driver.UniqueDevices(devices)
	if len(devices) == 0 {
		return driver.ErrNoDevices
	}

	fmt.Fprintf(w, "Audio devices (%s):\n", drv.Name())
	for _, d := range devices {
		fmt.Fprintf(w, "  %s\n", d)
		for _, opt := range driver.ChannelOptions(d) {
			fmt.Fprintf(w, "      -channel %d: %s\n", opt.Selector, opt.Label)
		}
	}

	return nil
}
