package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_DoublesUntilCap(t *testing.T) {
	b := &Backoff{Initial: time.Second, MaxAttempts: 5}

	var got []time.Duration
	for {
		d, ok := b.Next()
		if !ok {
			break
		}
		got = append(got, d)
	}

	assert.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, got)
	assert.Equal(t, 5, b.Attempts())
}

func TestBackoff_ResetStartsOver(t *testing.T) {
	b := &Backoff{Initial: 10 * time.Millisecond, MaxAttempts: 3}
	b.Next()
	b.Next()

	b.Reset()
	d, ok := b.Next()
	assert.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, d)
}

func TestBackoff_ZeroAttemptsNeverRetries(t *testing.T) {
	b := &Backoff{Initial: time.Second}
	_, ok := b.Next()
	assert.False(t, ok)
}

func TestBackoff_DelayStopsAtMaxDelay(t *testing.T) {
	tests := []struct {
		name     string
		backoff  Backoff
		wantLast time.Duration
	}{
		{"explicit cap", Backoff{Initial: time.Second, MaxDelay: 10 * time.Second, MaxAttempts: 8}, 10 * time.Second},
		{"default cap", Backoff{Initial: time.Second, MaxAttempts: 40}, DefaultMaxDelay},
		{"initial above cap", Backoff{Initial: time.Hour, MaxDelay: time.Minute, MaxAttempts: 3}, time.Minute},
		{"near overflow", Backoff{Initial: time.Second, MaxDelay: time.Duration(1<<63 - 1), MaxAttempts: 70}, time.Duration(1<<63 - 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.backoff
			var prev, last time.Duration
			for i := 0; ; i++ {
				d, ok := b.Next()
				if !ok {
					break
				}
				assert.Positive(t, d, "attempt %d", i)
				assert.GreaterOrEqual(t, d, prev, "attempt %d", i)
				prev, last = d, d
			}
			assert.Equal(t, tt.wantLast, last)
		})
	}
}
