// SPDX-License-Identifier: EPL-2.0

package driver

import (
	"sync"
)

// Lifecycle implements Stream on top of backend start/stop/close functions.
//
// Callbacks never stop their own stream: they call Finish or Fail, and a
// watcher goroutine performs the stop. Close stops the stream, waits for the
// watcher to exit and only then releases the backend handle.
type Lifecycle struct {
	start   func() error
	stop    func() error
	release func() error
	onError func(error)

	mu      sync.Mutex
	running bool
	closed  bool

	finishOnce sync.Once
	done       chan struct{}
	failed     chan error
	quit       chan struct{}
	quitOnce   sync.Once
	wg         sync.WaitGroup
}

// NewLifecycle returns a Lifecycle. release may be nil. onError may be nil.
func NewLifecycle(start, stop, release func() error, onError func(error)) *Lifecycle {
	l := &Lifecycle{
		start:   start,
		stop:    stop,
		release: release,
		onError: onError,
		done:    make(chan struct{}),
		failed:  make(chan error, 1),
		quit:    make(chan struct{}),
	}

	l.wg.Add(1)
	go l.watch()

	return l
}

func (l *Lifecycle) watch() {
	defer l.wg.Done()

	select {
	case <-l.done:
		_ = l.Stop()
	case err := <-l.failed:
		_ = l.Stop()
		if l.onError != nil {
			l.onError(err)
		}
	case <-l.quit:
	}
}

// Finish requests an asynchronous stop. Safe to call from the callback.
func (l *Lifecycle) Finish() {
	l.finishOnce.Do(func() { close(l.done) })
}

// Fail reports a stream failure. Only the first failure is delivered.
// Safe to call from the callback.
func (l *Lifecycle) Fail(err error) {
	select {
	case l.failed <- err:
	default:
	}
}

// Running reports whether the stream was started and not stopped since.
func (l *Lifecycle) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Lifecycle) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrStreamClosed
	}
	if l.running {
		return nil
	}
	if err := l.start(); err != nil {
		return err
	}
	l.running = true

	return nil
}

func (l *Lifecycle) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return nil
	}
	l.running = false

	return l.stop()
}

func (l *Lifecycle) Close() error {
	stopErr := l.Stop()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.quitOnce.Do(func() { close(l.quit) })
	l.wg.Wait()

	if l.release != nil {
		if err := l.release(); err != nil {
			return err
		}
	}

	return stopErr
}
