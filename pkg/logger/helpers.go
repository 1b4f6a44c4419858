package logger

import (
	"time"
)

// LogRequest logs a completed HTTP round-trip
func LogRequest(log Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		log.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 500:
		log.ErrorWithFields("HTTP request server error", fields)
	default:
		log.WarnWithFields("HTTP request client error", fields)
	}
}

// LogDownload logs the outcome of a single map download
func LogDownload(log Logger, name, path string, bytes int64, err error) {
	log = log.WithFields(map[string]interface{}{
		"name":  name,
		"path":  path,
		"bytes": bytes,
	})

	if err != nil {
		log.WithError(err).Error("Download failed")
		return
	}
	log.Info("Download completed")
}

// LogThrottle logs the start of a cooldown pause
func LogThrottle(log Logger, requests int, wait time.Duration) {
	log.WithFields(map[string]interface{}{
		"requests": requests,
		"wait":     wait,
		"action":   "throttled",
	}).Info("Request threshold reached, pausing")
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
