// Package throttle inserts a cooldown after every N network requests.
//
// Every transport round-trip, successful or not, is reported with
// OnNetworkOp. When the running count reaches a multiple of the threshold the
// call blocks for the configured wait. The wait is split into slices so a
// cancellation request is noticed promptly; in that case ErrCancelled is
// returned and the caller is expected to stop.
//
//	sig := cancel.New()
//	th := throttle.New(150, 30*time.Second, sig)
//	...
//	if err := th.OnNetworkOp(ctx); errors.Is(err, throttle.ErrCancelled) {
//	    return err
//	}
package throttle
