// Package retry provides backoff and retry logic for transient transport failures.
//
// Only typed errors from gfmapdl/pkg/errors whose type is retryable (network,
// rate limit, server error) are retried by default. Every attempt is a full
// transport call, so callers that count requests see each retry.
//
// Basic usage:
//
//	cfg := retry.FromSettings(appConfig.Retry, logger.GetLogger())
//	err := retry.Do(ctx, func() error {
//		return fetchOnce(ctx, url)
//	}, cfg)
//
// A MaxAttempts of 1 disables retries, which is the default.
package retry
