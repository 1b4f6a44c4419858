// Package logger provides the structured logging interface used across gfmapdl.
//
// It wraps zerolog with a small interface that carries fields between calls.
// Output goes to stderr through a colored console writer and, optionally, to
// a JSON log file. An empty level disables logging entirely, which is the
// default when the CLI is started without --verbose.
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	logger.WithField("profile", "someuser").Info("Fetching map listing")
//	logger.WithError(err).Error("Download failed")
//
// Components accept a Logger so tests can pass NewTestLogger and assert on
// the captured messages:
//
//	log := logger.NewTestLogger()
//	pipeline := downloader.New(client, storage.NewManager(fs), sig, downloader.Options{
//		SaveDir: "maps/someuser",
//		Logger:  log,
//	})
//	...
//	assert.True(t, log.HasMessage("Download completed"))
package logger
