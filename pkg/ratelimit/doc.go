// Package ratelimit paces outgoing requests.
//
// Pacer wraps golang.org/x/time/rate with a burst of one, so requests are
// spread evenly instead of being allowed in bursts. It is independent of the
// cooldown in package throttle: pacing spaces every request, while the
// throttle inserts a long pause after a fixed number of requests.
//
//	pacer := ratelimit.NewPacer(2) // at most two requests per second
//	if err := pacer.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
