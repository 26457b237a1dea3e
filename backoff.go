package ratchet

import (
	"math"
	"time"
)

// NoDelay retries immediately. Equivalent to leaving Config.RetryDelay
// unset.
func NoDelay() func(attempt int) time.Duration {
	return func(int) time.Duration { return 0 }
}

// ConstantDelay waits the same duration before every retry attempt.
func ConstantDelay(d time.Duration) func(attempt int) time.Duration {
	return func(int) time.Duration { return d }
}

// ExponentialDelay grows the wait per attempt:
//
//   - initial is the delay before the first retry.
//   - multiplier > 1 grows the delay each attempt (default 2.0 if <= 0).
//   - max caps the delay; if <= 0, there is no cap.
//
// Example:
//
//	ExponentialDelay(100*time.Millisecond, 2.0, 2*time.Second)
func ExponentialDelay(initial time.Duration, multiplier float64, max time.Duration) func(attempt int) time.Duration {
	if multiplier <= 0 {
		multiplier = 2.0
	}
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		d := time.Duration(float64(initial) * math.Pow(multiplier, float64(attempt-1)))
		if max > 0 && d > max {
			d = max
		}
		return d
	}
}
