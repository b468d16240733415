// SPDX-License-Identifier: EPL-2.0

package source

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ik5/audstream/driver"
)

// Kind identifies the concrete variant behind an AudioSource.
type Kind int

const (
	KindFile Kind = iota + 1
	KindMicrophone
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindMicrophone:
		return "microphone"
	default:
		return "unknown"
	}
}

// AudioSource is a stream of mono samples read as overlapping windows.
//
// A driver callback produces samples; a single consumer polls Available and
// Get. Neither Get nor Available ever blocks.
type AudioSource interface {
	ID() uuid.UUID
	Kind() Kind
	Config() Config

	// Get returns a copy of the next window and advances the read cursor by
	// HopSize. It returns false, leaving the cursor untouched, when fewer than
	// WindowSize samples are ready.
	Get() ([]float32, bool)
	// GetInto is Get writing into dst, which must hold WindowSize samples.
	GetInto(dst []float32) bool
	// Available is a lower bound on how many Get calls would succeed now.
	Available() int

	// Index is the read cursor.
	Index() int
	// Total is the number of samples ready to be read.
	Total() int
	// Complete reports that no more samples will ever become ready.
	Complete() bool
	// Err is non-nil once the underlying stream failed.
	Err() error

	// Release stops the stream and frees the device. It blocks until the
	// driver stopped invoking the callback and is safe to call repeatedly.
	// It must not be called from a driver callback.
	Release() error
}

// core holds the state and consumer side shared by every variant.
//
// The driver callback is the only writer of data and total; the consumer is
// the only writer of index. 0 <= index <= total <= data.Len() always holds.
type core struct {
	id     uuid.UUID
	kind   Kind
	cfg    Config
	logger zerolog.Logger

	data     *SampleBuffer
	index    atomic.Int64
	total    atomic.Int64
	complete atomic.Bool
	failure  atomic.Pointer[error]

	stream      driver.Stream
	releaseOnce sync.Once
	releaseErr  error
}

func (c *core) init(kind Kind, cfg Config, data *SampleBuffer, logger zerolog.Logger) {
	c.id = uuid.New()
	c.kind = kind
	c.cfg = cfg
	c.data = data
	c.logger = logger.With().
		Str("source_id", c.id.String()).
		Stringer("kind", kind).
		Logger()
}

func (c *core) ID() uuid.UUID  { return c.id }
func (c *core) Kind() Kind     { return c.kind }
func (c *core) Config() Config { return c.cfg }
func (c *core) Index() int     { return int(c.index.Load()) }
func (c *core) Total() int     { return int(c.total.Load()) }
func (c *core) Complete() bool { return c.complete.Load() }

func (c *core) Err() error {
	if p := c.failure.Load(); p != nil {
		return *p
	}
	return nil
}

func (c *core) Get() ([]float32, bool) {
	window := make([]float32, c.cfg.WindowSize)
	if !c.GetInto(window) {
		return nil, false
	}
	return window, true
}

func (c *core) GetInto(dst []float32) bool {
	size := int64(c.cfg.WindowSize)
	if int64(len(dst)) < size {
		return false
	}

	for {
		idx := c.index.Load()
		// total is read once; it only grows, so the check stays valid.
		if idx+size > c.total.Load() {
			return false
		}

		c.data.CopyTo(dst[:size], int(idx))
		if c.index.CompareAndSwap(idx, idx+int64(c.cfg.HopSize)) {
			return true
		}
	}
}

func (c *core) Available() int {
	idx := c.index.Load()
	total := c.total.Load()

	samples := total - idx - int64(c.cfg.WindowSize)
	if samples <= 0 {
		return 0
	}

	hop := int64(c.cfg.HopSize)
	return int((samples + hop - 1) / hop)
}

func (c *core) Release() error {
	c.releaseOnce.Do(func() {
		if c.stream == nil {
			return
		}
		if err := c.stream.Close(); err != nil {
			c.releaseErr = fmt.Errorf("releasing %s source: %w", c.kind, err)
			c.logger.Error().Err(err).Msg("release failed")
			return
		}
		c.logger.Debug().
			Int64("index", c.index.Load()).
			Int64("total", c.total.Load()).
			Msg("source released")
	})

	return c.releaseErr
}

// markComplete flips complete once.
func (c *core) markComplete() {
	if c.complete.CompareAndSwap(false, true) {
		c.logger.Info().Int64("total", c.total.Load()).Msg("source complete")
	}
}

// recordFailure keeps the first stream failure.
func (c *core) recordFailure(err error) {
	wrapped := fmt.Errorf("%w: %w", ErrStreamFailed, err)
	if c.failure.CompareAndSwap(nil, &wrapped) {
		c.logger.Error().Err(err).Msg("stream failed, stopping")
	}
}

// Loader decodes the file at path into mono samples at sampleRate.
type Loader func(path string, sampleRate int) ([]float32, error)

type options struct {
	logger       zerolog.Logger
	loader       Loader
	outputDevice int
	chunkSize    int
}

// Option customizes a source at construction.
type Option func(*options)

// WithLogger sets the logger used by the source.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLoader replaces the file loader of a FileSource.
func WithLoader(fn Loader) Option {
	return func(o *options) { o.loader = fn }
}

// WithOutputDevice selects the playback device of a FileSource.
func WithOutputDevice(index int) Option {
	return func(o *options) { o.outputDevice = index }
}

// WithChunkSize sets the storage chunk size of a MicrophoneSource.
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

func collectOptions(opts []Option) options {
	o := options{
		logger:       zerolog.Nop(),
		outputDevice: driver.DefaultDevice,
		chunkSize:    DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
