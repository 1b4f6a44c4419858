package throttle

import (
	"context"
	"errors"
	"sync"
	"time"

	"gfmapdl/pkg/cancel"
	"gfmapdl/pkg/logger"
)

// ErrCancelled is returned by OnNetworkOp when a pause is interrupted
var ErrCancelled = errors.New("throttle: wait cancelled")

// Phase identifies the stage of a pause reported to a Hook
type Phase int

const (
	WaitStarted Phase = iota
	// WaitTick is sent after each slice of a pause that still has time left
	WaitTick
	WaitEnded
)

// Event describes a pause. Remaining is the time left in the pause.
type Event struct {
	Phase     Phase
	Requests  int
	Wait      time.Duration
	Remaining time.Duration
}

// Hook is notified when a pause starts, after each slice, and when it ends
type Hook func(Event)

// Sleeper blocks for d. It may return early when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration)

// Throttle counts network round-trips and pauses after every threshold of them.
// The counter is never reset.
type Throttle struct {
	threshold int
	wait      time.Duration
	slice     time.Duration
	sig       *cancel.Signal
	sleep     Sleeper
	hook      Hook
	log       logger.Logger

	mu    sync.Mutex
	count int
	waits int
}

// Option configures a Throttle
type Option func(*Throttle)

// WithSlice sets the granularity at which a pause polls for cancellation
func WithSlice(d time.Duration) Option {
	return func(t *Throttle) {
		if d > 0 {
			t.slice = d
		}
	}
}

// WithSleeper replaces the sleep function, mainly for tests
func WithSleeper(s Sleeper) Option {
	return func(t *Throttle) {
		if s != nil {
			t.sleep = s
		}
	}
}

// WithHook registers a callback for pause start and end
func WithHook(h Hook) Option {
	return func(t *Throttle) { t.hook = h }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(t *Throttle) {
		if l != nil {
			t.log = l
		}
	}
}

// New creates a Throttle that pauses for wait after every threshold requests.
// A threshold of zero or less disables pausing. sig may be nil.
func New(threshold int, wait time.Duration, sig *cancel.Signal, opts ...Option) *Throttle {
	t := &Throttle{
		threshold: threshold,
		wait:      wait,
		slice:     time.Second,
		sig:       sig,
		log:       logger.GetLogger(),
	}
	t.sleep = t.defaultSleep
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnNetworkOp records one round-trip and, when the count reaches a multiple
// of the threshold, blocks for the configured wait. It returns ErrCancelled
// if the signal or ctx fires during the pause.
func (t *Throttle) OnNetworkOp(ctx context.Context) error {
	t.mu.Lock()
	t.count++
	n := t.count
	due := t.threshold > 0 && t.wait > 0 && n%t.threshold == 0
	if due {
		t.waits++
	}
	t.mu.Unlock()

	if !due {
		return nil
	}

	logger.LogThrottle(t.log, n, t.wait)
	t.notify(Event{Phase: WaitStarted, Requests: n, Wait: t.wait, Remaining: t.wait})
	err := t.pause(ctx, n)
	t.notify(Event{Phase: WaitEnded, Requests: n, Wait: t.wait})
	return err
}

// Count returns the number of round-trips recorded so far
func (t *Throttle) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Waits returns the number of pauses started so far
func (t *Throttle) Waits() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waits
}

func (t *Throttle) pause(ctx context.Context, n int) error {
	remaining := t.wait
	for remaining > 0 {
		if t.stopped(ctx) {
			return ErrCancelled
		}
		step := t.slice
		if step > remaining {
			step = remaining
		}
		t.sleep(ctx, step)
		remaining -= step
		if remaining > 0 {
			t.notify(Event{Phase: WaitTick, Requests: n, Wait: t.wait, Remaining: remaining})
		}
	}
	if t.stopped(ctx) {
		return ErrCancelled
	}
	return nil
}

func (t *Throttle) stopped(ctx context.Context) bool {
	if t.sig != nil && t.sig.Cancelled() {
		return true
	}
	return ctx.Err() != nil
}

func (t *Throttle) notify(ev Event) {
	if t.hook != nil {
		t.hook(ev)
	}
}

func (t *Throttle) defaultSleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	var sigDone <-chan struct{}
	if t.sig != nil {
		sigDone = t.sig.Done()
	}

	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-sigDone:
	}
}
