package outbox

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	maxBackoff := time.Minute
	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{attempts: 0, want: 0},
		{attempts: 1, want: time.Second},
		{attempts: 2, want: 2 * time.Second},
		{attempts: 3, want: 4 * time.Second},
		{attempts: 7, want: time.Minute},
		{attempts: 40, want: time.Minute},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, backoff(tc.attempts, maxBackoff), "attempts=%d", tc.attempts)
	}
}

func TestJitterDeterministic(t *testing.T) {
	t.Parallel()

	maxJitter := 200 * time.Millisecond
	got := jitter(rand.New(rand.NewSource(1)), maxJitter)
	assert.GreaterOrEqual(t, got, time.Duration(0))
	assert.LessOrEqual(t, got, maxJitter)
	assert.Equal(t, got, jitter(rand.New(rand.NewSource(1)), maxJitter))
	assert.Zero(t, jitter(nil, maxJitter))
}

func TestNextAttemptAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	opts := RelayOptions{MaxBackoff: time.Minute}
	assert.Equal(t, now.Add(4*time.Second), nextAttemptAt(now, 3, opts))

	opts.Rand = rand.New(rand.NewSource(7))
	opts.JitterMax = time.Second
	got := nextAttemptAt(now, 3, opts)
	assert.False(t, got.Before(now.Add(4*time.Second)))
	assert.False(t, got.After(now.Add(5*time.Second)))
}

func TestTruncateError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, truncateError(nil, 10))
	assert.Equal(t, "hello", truncateError(errors.New("hello world"), 5))
	// multi-byte rune must not be split
	assert.Equal(t, "ab", truncateString("abé", 3))
}

func TestRelayOptionsDefaults(t *testing.T) {
	t.Parallel()

	var o RelayOptions
	o.setDefaults()
	assert.Equal(t, time.Second, o.PollInterval)
	assert.Equal(t, 100, o.BatchSize)
	assert.Equal(t, 25, o.MaxAttempts)
	assert.Equal(t, 2048, o.LastErrorMaxBytes)
	assert.NotNil(t, o.Logger)
	assert.NotNil(t, o.Rand)
}
