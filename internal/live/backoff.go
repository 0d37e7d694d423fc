package live

import "time"

// DefaultMaxDelay bounds reconnect delays when Backoff.MaxDelay is unset.
const DefaultMaxDelay = 5 * time.Minute

// Backoff yields reconnect delays that start at Initial and double on
// every attempt, up to MaxAttempts attempts. Delays stop growing at
// MaxDelay (DefaultMaxDelay when zero). A successful connection calls
// Reset.
type Backoff struct {
	Initial     time.Duration
	MaxDelay    time.Duration
	MaxAttempts int

	attempts int
}

// Next returns the delay before the next reconnect attempt. ok is false
// once MaxAttempts attempts have been handed out.
func (b *Backoff) Next() (delay time.Duration, ok bool) {
	if b.attempts >= b.MaxAttempts {
		return 0, false
	}
	limit := b.MaxDelay
	if limit <= 0 {
		limit = DefaultMaxDelay
	}
	delay = min(b.Initial, limit)
	for i := 0; i < b.attempts && delay < limit; i++ {
		if delay > limit/2 {
			delay = limit
			break
		}
		delay *= 2
	}
	b.attempts++
	return delay, true
}

// Attempts returns the number of delays handed out since the last Reset.
func (b *Backoff) Attempts() int { return b.attempts }

// Reset restarts the sequence at Initial.
func (b *Backoff) Reset() { b.attempts = 0 }
