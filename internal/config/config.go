// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ik5/audstream/consumer"
	"github.com/ik5/audstream/driver"
	"github.com/ik5/audstream/source"
)

var ErrInvalid = errors.New("invalid configuration")

// Backends lists the audio backend names accepted in audio.backend. The
// first one is the default.
var Backends = []string{"miniaudio", "portaudio"}

// Config represents the application configuration
type Config struct {
	Audio    AudioConfig    `yaml:"audio"`
	Consumer ConsumerConfig `yaml:"consumer"`
	Log      LogConfig      `yaml:"log"`
}

type AudioConfig struct {
	Backend    string `yaml:"backend"`
	SampleRate int    `yaml:"sample_rate"`
	WindowSize int    `yaml:"window_size"`
	HopSize    int    `yaml:"hop_size"`
	BufferSize int    `yaml:"buffer_size"`

	// Device is a capture device index, -1 for the default device.
	Device int `yaml:"device"`
	// Channel is an index into the device's channel options.
	Channel int `yaml:"channel"`
	// OutputDevice plays files, -1 for the default device.
	OutputDevice int `yaml:"output_device"`

	// File, when set, is played instead of capturing.
	File string `yaml:"file"`
	// Record, when set, receives the microphone capture as a WAV file.
	Record string `yaml:"record"`
}

type ConsumerConfig struct {
	FPS          int `yaml:"fps"`
	GetsPerFrame int `yaml:"gets_per_frame"`
	SpectrumBins int `yaml:"spectrum_bins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	src := source.DefaultConfig()

	cfg := &Config{}

	cfg.Audio.Backend = Backends[0]
	cfg.Audio.SampleRate = src.SampleRate
	cfg.Audio.WindowSize = src.WindowSize
	cfg.Audio.HopSize = src.HopSize
	cfg.Audio.BufferSize = src.BufferSize
	cfg.Audio.Device = driver.DefaultDevice
	cfg.Audio.OutputDevice = driver.DefaultDevice

	cfg.Consumer.FPS = consumer.DefaultFPS
	cfg.Consumer.GetsPerFrame = consumer.DefaultGetsPerFrame
	cfg.Consumer.SpectrumBins = 64

	cfg.Log.Level = "info"
	cfg.Log.Format = "console"

	return cfg
}

// Load reads a YAML file on top of the defaults. ${VAR} references are
// expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// UserConfigName is looked up in the home directory.
const UserConfigName = ".audstreamrc"

// SystemConfigPath is the machine wide configuration.
const SystemConfigPath = "/etc/audstream/config.yaml"

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.audstreamrc > /etc/audstream/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(homeDir, UserConfigName)
		if _, err := os.Stat(userConfigPath); err == nil {
			cfg, err := Load(userConfigPath)
			if err == nil {
				return cfg, nil
			}
		}
	}

	if _, err := os.Stat(SystemConfigPath); err == nil {
		cfg, err := Load(SystemConfigPath)
		if err == nil {
			return cfg, nil
		}
	}

	return DefaultConfig(), nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SourceConfig is the immutable source configuration described by c.
func (c *Config) SourceConfig() source.Config {
	return source.Config{
		SampleRate: c.Audio.SampleRate,
		WindowSize: c.Audio.WindowSize,
		HopSize:    c.Audio.HopSize,
		BufferSize: c.Audio.BufferSize,
	}
}

// ConsumerOptions are the poller options described by c.
func (c *Config) ConsumerOptions() consumer.Options {
	return consumer.Options{
		FPS:          c.Consumer.FPS,
		GetsPerFrame: c.Consumer.GetsPerFrame,
	}
}

// Validate reports every problem found in c.
func (c *Config) Validate() error {
	var errs []error

	if err := c.SourceConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	if !slices.Contains(Backends, c.Audio.Backend) {
		errs = append(errs, fmt.Errorf("%w: unknown backend %q", ErrInvalid, c.Audio.Backend))
	}

	if c.Audio.Device < driver.DefaultDevice {
		errs = append(errs, fmt.Errorf("%w: device %d", ErrInvalid, c.Audio.Device))
	}
	if c.Audio.OutputDevice < driver.DefaultDevice {
		errs = append(errs, fmt.Errorf("%w: output device %d", ErrInvalid, c.Audio.OutputDevice))
	}
	if c.Audio.Channel < 0 {
		errs = append(errs, fmt.Errorf("%w: channel %d", ErrInvalid, c.Audio.Channel))
	}

	if c.Consumer.FPS <= 0 {
		errs = append(errs, fmt.Errorf("%w: fps %d", ErrInvalid, c.Consumer.FPS))
	}
	if c.Consumer.GetsPerFrame <= 0 {
		errs = append(errs, fmt.Errorf("%w: gets per frame %d", ErrInvalid, c.Consumer.GetsPerFrame))
	}
	if c.Consumer.SpectrumBins <= 0 {
		errs = append(errs, fmt.Errorf("%w: spectrum bins %d", ErrInvalid, c.Consumer.SpectrumBins))
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format))
	}

	return errors.Join(errs...)
}
