package throttle

import (
	"context"
	"testing"
	"time"

	"gfmapdl/pkg/cancel"
	"gfmapdl/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSleeper struct {
	slices []time.Duration
	after  func(n int)
}

func (f *fakeSleeper) sleep(_ context.Context, d time.Duration) {
	f.slices = append(f.slices, d)
	if f.after != nil {
		f.after(len(f.slices))
	}
}

func (f *fakeSleeper) total() time.Duration {
	var sum time.Duration
	for _, d := range f.slices {
		sum += d
	}
	return sum
}

func TestPausesExactlyAtMultiplesOfThreshold(t *testing.T) {
	fs := &fakeSleeper{}
	th := New(3, 10*time.Second, cancel.New(), WithSleeper(fs.sleep), WithLogger(logger.NewNopLogger()))
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		require.NoError(t, th.OnNetworkOp(ctx))
	}
	assert.Empty(t, fs.slices, "no pause before the threshold")

	require.NoError(t, th.OnNetworkOp(ctx))
	assert.Equal(t, 10*time.Second, fs.total())
	assert.Len(t, fs.slices, 10)
	assert.Equal(t, 1, th.Waits())

	for i := 4; i <= 5; i++ {
		require.NoError(t, th.OnNetworkOp(ctx))
	}
	assert.Equal(t, 1, th.Waits(), "no pause between threshold+1 and 2*threshold-1")

	require.NoError(t, th.OnNetworkOp(ctx))
	assert.Equal(t, 2, th.Waits())
	assert.Equal(t, 6, th.Count())
}

func TestLastSliceIsShortened(t *testing.T) {
	fs := &fakeSleeper{}
	th := New(1, 2500*time.Millisecond, nil, WithSleeper(fs.sleep), WithSlice(time.Second))

	require.NoError(t, th.OnNetworkOp(context.Background()))
	assert.Equal(t, []time.Duration{time.Second, time.Second, 500 * time.Millisecond}, fs.slices)
}

func TestDisabledThresholdNeverPauses(t *testing.T) {
	for _, threshold := range []int{0, -5} {
		fs := &fakeSleeper{}
		th := New(threshold, time.Second, nil, WithSleeper(fs.sleep))
		for i := 0; i < 20; i++ {
			require.NoError(t, th.OnNetworkOp(context.Background()))
		}
		assert.Empty(t, fs.slices)
		assert.Equal(t, 20, th.Count())
		assert.Zero(t, th.Waits())
	}
}

func TestCancelMidWaitStopsWithinOneSlice(t *testing.T) {
	sig := cancel.New()
	fs := &fakeSleeper{}
	fs.after = func(n int) {
		if n == 2 {
			sig.Trigger()
		}
	}
	th := New(2, 30*time.Second, sig, WithSleeper(fs.sleep))

	require.NoError(t, th.OnNetworkOp(context.Background()))
	err := th.OnNetworkOp(context.Background())

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Len(t, fs.slices, 2, "no further slice after the signal")
}

func TestContextCancellationInterruptsPause(t *testing.T) {
	ctx, stop := context.WithCancel(context.Background())
	fs := &fakeSleeper{after: func(int) { stop() }}
	th := New(1, 5*time.Second, nil, WithSleeper(fs.sleep))

	assert.ErrorIs(t, th.OnNetworkOp(ctx), ErrCancelled)
	assert.Len(t, fs.slices, 1)
}

func TestAlreadyCancelledSignalSkipsSleeping(t *testing.T) {
	sig := cancel.New()
	sig.Trigger()
	fs := &fakeSleeper{}
	th := New(1, 5*time.Second, sig, WithSleeper(fs.sleep))

	assert.ErrorIs(t, th.OnNetworkOp(context.Background()), ErrCancelled)
	assert.Empty(t, fs.slices)
	assert.Equal(t, 1, th.Count())
}

func TestHookReceivesStartAndEnd(t *testing.T) {
	var events []Event
	fs := &fakeSleeper{}
	th := New(2, time.Second, nil,
		WithSleeper(fs.sleep),
		WithHook(func(ev Event) { events = append(events, ev) }),
	)

	for i := 0; i < 4; i++ {
		require.NoError(t, th.OnNetworkOp(context.Background()))
	}

	require.Len(t, events, 4)
	assert.Equal(t, Event{Phase: WaitStarted, Requests: 2, Wait: time.Second, Remaining: time.Second}, events[0])
	assert.Equal(t, Event{Phase: WaitEnded, Requests: 2, Wait: time.Second}, events[1])
	assert.Equal(t, 4, events[3].Requests)
}

func TestHookReceivesTicksDuringPause(t *testing.T) {
	var events []Event
	fs := &fakeSleeper{}
	th := New(1, 3*time.Second, nil,
		WithSleeper(fs.sleep),
		WithHook(func(ev Event) { events = append(events, ev) }),
	)

	require.NoError(t, th.OnNetworkOp(context.Background()))

	require.Len(t, events, 4)
	assert.Equal(t, WaitStarted, events[0].Phase)
	assert.Equal(t, 3*time.Second, events[0].Remaining)
	assert.Equal(t, Event{Phase: WaitTick, Requests: 1, Wait: 3 * time.Second, Remaining: 2 * time.Second}, events[1])
	assert.Equal(t, Event{Phase: WaitTick, Requests: 1, Wait: 3 * time.Second, Remaining: time.Second}, events[2])
	assert.Equal(t, WaitEnded, events[3].Phase)
	assert.Zero(t, events[3].Remaining)
}

func TestDefaultSleeperWakesOnSignal(t *testing.T) {
	sig := cancel.New()
	th := New(1, time.Minute, sig, WithSlice(10*time.Second))

	go func() {
		time.Sleep(50 * time.Millisecond)
		sig.Trigger()
	}()

	start := time.Now()
	err := th.OnNetworkOp(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
