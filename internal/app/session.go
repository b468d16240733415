// SPDX-License-Identifier: EPL-2.0

// Package app holds the active audio source and switches between a file, a
// microphone and no source at all.
package app

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ik5/audstream/driver"
	"github.com/ik5/audstream/formats/wav"
	"github.com/ik5/audstream/source"
)

// Session owns at most one source at a time. Replacing or clearing the
// source releases the previous one first.
type Session struct {
	drv    driver.Driver
	cfg    source.Config
	logger zerolog.Logger

	sourceOpts []source.Option
	recordPath string

	mu      sync.Mutex
	current source.AudioSource
}

// Option customizes a Session.
type Option func(*Session)

// WithLogger sets the logger handed to the session and its sources.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRecording writes every microphone capture to path as 16-bit mono WAV
// when its source is released. Each capture replaces the previous file.
func WithRecording(path string) Option {
	return func(s *Session) { s.recordPath = path }
}

// WithSourceOptions passes opts to every source the session creates.
func WithSourceOptions(opts ...source.Option) Option {
	return func(s *Session) { s.sourceOpts = append(s.sourceOpts, opts...) }
}

// NewSession returns an empty session.
func NewSession(drv driver.Driver, cfg source.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{drv: drv, cfg: cfg, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("backend", drv.Name()).Logger()

	return s, nil
}

func (s *Session) options() []source.Option {
	opts := make([]source.Option, 0, len(s.sourceOpts)+1)
	opts = append(opts, source.WithLogger(s.logger))
	return append(opts, s.sourceOpts...)
}

// UseFile replaces the active source with a playing file. On failure the
// session is left without a source.
func (s *Session) UseFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	releaseErr := s.releaseLocked()

	src, err := source.NewFileSource(s.cfg, s.drv, path, s.options()...)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to load audio file")
		return errors.Join(err, releaseErr)
	}
	s.current = src

	s.logger.Info().
		Str("path", path).
		Int("samples", src.Len()).
		Msg("file source active")

	return releaseErr
}

// UseMicrophone replaces the active source with a capture of channel on
// device. On failure the session is left without a source.
func (s *Session) UseMicrophone(device, channel int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	releaseErr := s.releaseLocked()

	src, err := source.NewMicrophoneSource(s.cfg, s.drv, device, channel, s.options()...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("device", device).
			Int("channel", channel).
			Msg("failed to open microphone")
		return errors.Join(err, releaseErr)
	}
	s.current = src

	return releaseErr
}

// Clear releases the active source, if any.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked()
}

// Close is Clear.
func (s *Session) Close() error { return s.Clear() }

// Current returns the active source or nil. A source whose stream failed is
// released and dropped here.
func (s *Session) Current() source.AudioSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	if err := s.current.Err(); err != nil {
		s.logger.Warn().
			Err(err).
			Str("source_id", s.current.ID().String()).
			Msg("dropping failed source")
		_ = s.releaseLocked()
		return nil
	}

	return s.current
}

func (s *Session) releaseLocked() error {
	if s.current == nil {
		return nil
	}

	src := s.current
	s.current = nil

	err := src.Release()
	if mic, ok := src.(*source.MicrophoneSource); ok && s.recordPath != "" {
		err = errors.Join(err, s.record(mic))
	}

	return err
}

func (s *Session) record(mic *source.MicrophoneSource) error {
	samples := mic.Captured()

	f, err := os.Create(s.recordPath)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}

	if err := wav.WriteWAV16(f, s.cfg.SampleRate, samples); err != nil {
		f.Close()
		return fmt.Errorf("failed to write recording: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close recording: %w", err)
	}

	s.logger.Info().
		Str("path", s.recordPath).
		Int("samples", len(samples)).
		Msg("capture recorded")

	return nil
}
