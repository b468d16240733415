// SPDX-License-Identifier: EPL-2.0

// Package consumer pulls windows out of the active source at a fixed frame
// rate and hands them to analyzers.
package consumer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/audstream/analysis"
	"github.com/ik5/audstream/source"
)

const (
	// DefaultFPS is the frame rate of the visualizer the poller feeds.
	DefaultFPS = 61
	// DefaultGetsPerFrame is how many windows are requested per frame.
	DefaultGetsPerFrame = 2
)

// ErrInvalidOptions is returned by New for a negative frame rate or get count.
var ErrInvalidOptions = errors.New("consumer: fps and gets per frame must be positive")

// Provider returns the source to poll, or nil when there is none. It is
// called once per frame so the active source may change between frames.
type Provider func() source.AudioSource

// Options tunes a Poller. Zero values select the defaults.
type Options struct {
	FPS          int
	GetsPerFrame int
}

func (o Options) withDefaults() Options {
	if o.FPS == 0 {
		o.FPS = DefaultFPS
	}
	if o.GetsPerFrame == 0 {
		o.GetsPerFrame = DefaultGetsPerFrame
	}
	return o
}

// Frame is what a single Step did.
type Frame struct {
	// Available is what the source reported before any Get.
	Available int
	// Windows is the number of successful Get calls.
	Windows int
	// Misses is the number of Get calls that found no window.
	Misses int
	// Idle is set when there was no source to poll.
	Idle bool
}

// Stats are running totals over every Step.
type Stats struct {
	Frames  int64
	Windows int64
	Misses  int64
}

// Poller runs the frame loop. Step and Run must not be used concurrently.
type Poller struct {
	provider  Provider
	analyzers []analysis.Analyzer
	opts      Options
	logger    zerolog.Logger

	window []float32

	frames  atomic.Int64
	windows atomic.Int64
	misses  atomic.Int64
}

// New returns a Poller that feeds every window it gets to analyzers.
func New(provider Provider, opts Options, logger zerolog.Logger, analyzers ...analysis.Analyzer) (*Poller, error) {
	opts = opts.withDefaults()
	if opts.FPS < 0 || opts.GetsPerFrame < 0 {
		return nil, ErrInvalidOptions
	}

	return &Poller{
		provider:  provider,
		analyzers: analyzers,
		opts:      opts,
		logger:    logger.With().Str("component", "poller").Logger(),
	}, nil
}

// Interval is the time between frames.
func (p *Poller) Interval() time.Duration {
	return time.Second / time.Duration(p.opts.FPS)
}

// Step runs one frame: it logs how many windows are available, makes
// exactly GetsPerFrame Get calls and updates every analyzer once.
func (p *Poller) Step() Frame {
	p.frames.Add(1)

	src := p.provider()
	if src == nil {
		return Frame{Idle: true}
	}

	size := src.Config().WindowSize
	if cap(p.window) < size {
		p.window = make([]float32, size)
	}
	window := p.window[:size]

	f := Frame{Available: src.Available()}
	p.logger.Debug().
		Str("source_id", src.ID().String()).
		Int("available", f.Available).
		Msg("available windows")

	for i := 0; i < p.opts.GetsPerFrame; i++ {
		if !src.GetInto(window) {
			f.Misses++
			p.logger.Debug().
				Str("source_id", src.ID().String()).
				Msg("no window data available from the source")
			continue
		}

		f.Windows++
		for _, a := range p.analyzers {
			a.Add(window)
		}
	}

	for _, a := range p.analyzers {
		a.Update()
	}

	p.windows.Add(int64(f.Windows))
	p.misses.Add(int64(f.Misses))

	return f
}

// Run calls Step every Interval until ctx is done and returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	p.logger.Info().
		Int("fps", p.opts.FPS).
		Int("gets_per_frame", p.opts.GetsPerFrame).
		Msg("poller started")

	for {
		select {
		case <-ctx.Done():
			s := p.Stats()
			p.logger.Info().
				Int64("frames", s.Frames).
				Int64("windows", s.Windows).
				Int64("misses", s.Misses).
				Msg("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.Step()
		}
	}
}

// Stats returns the running totals. Safe to call from any goroutine.
func (p *Poller) Stats() Stats {
	return Stats{
		Frames:  p.frames.Load(),
		Windows: p.windows.Load(),
		Misses:  p.misses.Load(),
	}
}
