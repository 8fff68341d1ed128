// Package ratelimit paces requests against the Instagram web API.
//
// The pipeline is strictly sequential, so the limiter's job is modest:
// keep API lookups under a requests-per-minute ceiling so a scheduled
// run never bursts. Media downloads are additionally separated by a
// politeness pause configured on the pipeline itself.
//
// All limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed
//   - Wait() - Block until a request is allowed
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// 60 requests per minute
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//
//	if !limiter.Allow() {
//	    limiter.Wait()
//	}
//	// Proceed with request
package ratelimit
