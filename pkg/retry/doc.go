// Package retry provides backoff and retry logic for transient
// failures during media downloads.
//
// Structural page failures and auth failures are never retried; a
// page that is malformed now is malformed on the next look too, and
// login problems need the human. Network and server failures retry
// with exponential backoff and jitter.
//
// Basic usage:
//
//	err := retry.Do(func() error {
//		return client.Download(url)
//	}, nil)
//
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
package retry
