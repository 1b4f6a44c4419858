// Package cancel provides a one-shot, process-wide stop request that a
// long-running sequential job can poll between units of work.
package cancel

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Signal is set at most once and never cleared. It is safe for concurrent use.
type Signal struct {
	set  atomic.Bool
	once sync.Once
	done chan struct{}
}

// New returns an unset Signal
func New() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Trigger sets the signal. Calls after the first have no effect.
func (s *Signal) Trigger() {
	s.once.Do(func() {
		s.set.Store(true)
		close(s.done)
	})
}

// Cancelled reports whether Trigger has been called
func (s *Signal) Cancelled() bool {
	return s.set.Load()
}

// Done returns a channel that is closed once the signal is set
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Context derives a context from parent that is cancelled when the signal fires.
// The returned CancelFunc must be called to release resources.
func (s *Signal) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Watch triggers the signal on the first OS signal received.
// SIGINT and SIGTERM are used when sigs is empty. Watching stops when ctx is done.
func (s *Signal) Watch(ctx context.Context, sigs ...os.Signal) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			s.Trigger()
		case <-ctx.Done():
		}
	}()
}
