package realtime

import "time"

// -----------------------------------------------------------------------------

// BackoffDelay returns the reconnect delay after the given number of
// consecutive failures: base doubled per failure, capped. attempt is 1-based;
// values below 1 are clamped to 1.
func BackoffDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
