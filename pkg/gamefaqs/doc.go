// Package gamefaqs implements the HTTP side of gfmapdl: a small client that
// sends browser-like headers and streams response bodies, and a parser for
// the "Maps and Charts" contributions listing of a profile.
//
// Every round-trip, including failed ones and retries, is reported to an
// optional NetworkObserver after it completes. The download throttle plugs in
// there, so the listing request counts toward its threshold like any image.
//
// Basic usage:
//
//	client := gamefaqs.NewClient(cfg.GameFAQs,
//	    gamefaqs.WithObserver(throttle),
//	    gamefaqs.WithLimiter(ratelimit.NewPacer(cfg.Download.RequestsPerSecond)),
//	)
//	manifest, err := client.FetchManifest(ctx, "someuser")
//	if errors.Is(err, gamefaqs.ErrNoMaps) {
//	    ...
//	}
//	client.SetReferer(manifest.MapsURL)
//	n, err := client.Fetch(ctx, imageURL, file)
//
// Listing structure:
//
// Each map is an <a class="link_color">. The game title is the first link in
// the surrounding div.content, and the console is the h3.title of the
// surrounding div.pod. The profile name is the last " - " separated part of
// the page title. All names are passed through package sanitize.
package gamefaqs
