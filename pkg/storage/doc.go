// Package storage provides the filesystem operations of a download run.
//
// Every operation goes through an afero.Fs, so tests run against an
// in-memory filesystem and the CLI against the OS. Downloads are written to
// "<target>.tmp" first and only renamed once the whole stream has arrived and
// its type is known. Nothing is ever deleted: a failed or interrupted stream
// leaves its temporary file behind, and an existing non-empty file is never
// replaced unless overwrite is requested.
//
// Usage:
//
//	store := storage.NewManager(afero.NewOsFs())
//	if _, err := store.EnsureDir("maps/someuser"); err != nil {
//	    return err
//	}
//	tmp, n, err := store.WriteTemp("maps/someuser/Game - PC - Map", func(w io.Writer) error {
//	    _, err := client.Fetch(ctx, url, w)
//	    return err
//	})
//	renamed, err := store.Finalize(tmp, "maps/someuser/Game - PC - Map.png", false)
package storage
