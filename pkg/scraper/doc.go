// Package scraper coordinates a complete download run for one profile.
//
// A run fetches the maps listing, decides the save directory (the configured
// override or <base_directory>/<profile name>), creates it, switches the
// Referer to the listing page and hands every entry to the download pipeline.
// The listing fetch and every image fetch share a single throttle, so the
// cooldown cadence counts all requests made during the run.
//
// Usage:
//
//	sig := cancel.New()
//	sig.Watch(ctx)
//
//	s := scraper.New(cfg, scraper.WithSignal(sig), scraper.WithProgress(display))
//	report, err := s.Run(ctx, "someuser")
//	switch {
//	case errors.Is(err, downloader.ErrCancelled):
//	    // report is still valid
//	case err != nil:
//	    return err
//	}
package scraper
