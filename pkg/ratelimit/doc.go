// Package ratelimit paces media downloads so the run stays polite to
// the platform's CDN.
//
// The token bucket allows a burst up to its capacity, then refills
// after a fixed period. Callers either poll with Allow or block with
// Wait before each request.
//
// Usage:
//
//	// 30 downloads per minute
//	limiter := ratelimit.NewTokenBucket(30, time.Minute)
//
//	limiter.Wait()
//	// proceed with download
package ratelimit
