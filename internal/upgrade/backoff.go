package upgrade

import "time"

// backoffBase/backoffCap/backoffMaxAttempts define the exponential
// backoff schedule for failed/exhausted upgrade searches: 30m * 2^attempts,
// capped at 7 days. Hand-rolled rather than cenkalti/backoff or
// avast/retry-go (see DESIGN.md's dropped-dependency note) since the
// schedule needs to be computed ahead of time and stored as a
// next_search_at timestamp rather than driving a live retry loop.
const (
	backoffBase        = 30 * time.Minute
	backoffCap         = 7 * 24 * time.Hour
	backoffMaxAttempts = 10 // 30m * 2^10 already exceeds the cap
)

// nextBackoff returns how long to wait before the next search attempt,
// given the number of attempts already made.
func nextBackoff(attempts int) time.Duration {
	if attempts > backoffMaxAttempts {
		attempts = backoffMaxAttempts
	}
	d := backoffBase << attempts
	if d > backoffCap || d <= 0 {
		return backoffCap
	}
	return d
}
