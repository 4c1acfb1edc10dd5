package timeutil

import (
	"math"
	"math/rand"
	"time"
)

// DurationPtr is a helper function to create a pointer to a time.Duration
func DurationPtr(d time.Duration) *time.Duration {
	return &d
}

// ExponentialBackoffDelay computes the waiting time before the next retry
// attempt. The first attempt (attempt=1) waits the initial duration; every
// subsequent attempt multiplies it, capped at the configured maximum.
// Jitter, when non-zero, adds a random amount in [0, jitter) drawn from the
// provided rng so that callers stay seed-controlled.
func ExponentialBackoffDelay(
	attempt int,
	jitter time.Duration,
	rng rand.Rand,
	param BackoffParam,
) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	exponent := float64(attempt - 1)
	delay := float64(param.InitialDuration()) * math.Pow(param.Multiplier(), exponent)
	if max := float64(param.MaxDuration()); param.MaxDuration() > 0 && delay > max {
		delay = max
	}

	if jitter > 0 {
		delay += float64(rng.Int63n(int64(jitter)))
	}

	return time.Duration(delay)
}
