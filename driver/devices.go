// SPDX-License-Identifier: EPL-2.0

package driver

import (
	"fmt"
)

// DeviceInfo describes a device as reported by a backend.
type DeviceInfo struct {
	Index             int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefault         bool
}

func (d DeviceInfo) String() string {
	marker := ""
	if d.IsDefault {
		marker = " [DEFAULT]"
	}
	return fmt.Sprintf("%d: %s%s (in: %d, out: %d)",
		d.Index, d.Name, marker, d.MaxInputChannels, d.MaxOutputChannels)
}

// ChannelOption is a selectable capture channel of a device.
type ChannelOption struct {
	Selector int
	Label    string
}

// UniqueDevices drops devices whose name was already seen, keeping the first.
// Backends often list the same hardware once per host API.
func UniqueDevices(devices []DeviceInfo) []DeviceInfo {
	seen := make(map[string]struct{}, len(devices))
	out := make([]DeviceInfo, 0, len(devices))

	for _, d := range devices {
		if _, ok := seen[d.Name]; ok {
			continue
		}
		seen[d.Name] = struct{}{}
		out = append(out, d)
	}

	return out
}

// InputDevices returns only devices that can capture.
func InputDevices(devices []DeviceInfo) []DeviceInfo {
	out := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			out = append(out, d)
		}
	}
	return out
}

// ChannelOptions lists the capture selections for a device: one mono entry
// per input channel followed by one entry per adjacent stereo pair.
func ChannelOptions(d DeviceInfo) []ChannelOption {
	n := d.MaxInputChannels
	if n <= 0 {
		return nil
	}

	opts := make([]ChannelOption, 0, n+n/2)
	for i := 1; i <= n; i++ {
		opts = append(opts, ChannelOption{
			Selector: len(opts),
			Label:    fmt.Sprintf("Channel %d (Mono)", i),
		})
	}
	for i := 1; i < n; i += 2 {
		opts = append(opts, ChannelOption{
			Selector: len(opts),
			Label:    fmt.Sprintf("Channels %d-%d (Stereo)", i, i+1),
		})
	}

	return opts
}

// FindDevice returns the device with the given index. DefaultDevice resolves
// to the first device flagged as default, falling back to the first device
// that satisfies want.
func FindDevice(devices []DeviceInfo, index int, want func(DeviceInfo) bool) (DeviceInfo, error) {
	if index == DefaultDevice {
		for _, d := range devices {
			if d.IsDefault && (want == nil || want(d)) {
				return d, nil
			}
		}
		for _, d := range devices {
			if want == nil || want(d) {
				return d, nil
			}
		}
		return DeviceInfo{}, ErrNoDevices
	}

	for _, d := range devices {
		if d.Index == index {
			if want != nil && !want(d) {
				return DeviceInfo{}, fmt.Errorf("%w: %d", ErrUnsupportedDevice, index)
			}
			return d, nil
		}
	}

	return DeviceInfo{}, fmt.Errorf("%w: %d", ErrDeviceNotFound, index)
}

// CanCapture reports whether d has input channels.
func CanCapture(d DeviceInfo) bool { return d.MaxInputChannels > 0 }

// CanPlay reports whether d has output channels.
func CanPlay(d DeviceInfo) bool { return d.MaxOutputChannels > 0 }
