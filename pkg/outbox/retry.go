package outbox

import (
	"math/rand"
	"time"
	"unicode/utf8"
)

// maxShift keeps time.Second<<n inside int64.
const maxShift = 32

// backoff doubles from one second per failed attempt and saturates at maxBackoff.
func backoff(attempts int, maxBackoff time.Duration) time.Duration {
	if attempts <= 0 {
		return 0
	}
	if attempts > maxShift {
		return maxBackoff
	}
	if d := time.Second << (attempts - 1); d < maxBackoff {
		return d
	}
	return maxBackoff
}

// jitter is uniform in [0, maxJitter]. A nil source disables it.
func jitter(r *rand.Rand, maxJitter time.Duration) time.Duration {
	if r == nil || maxJitter <= 0 {
		return 0
	}
	return time.Duration(r.Int63n(int64(maxJitter) + 1)) //nolint:gosec
}

// nextAttemptAt schedules the retry of a message that failed attempts times.
func nextAttemptAt(now time.Time, attempts int, opts RelayOptions) time.Time {
	return now.Add(backoff(attempts, opts.MaxBackoff) + jitter(opts.Rand, opts.JitterMax))
}

// truncateError renders err for the last_error column without splitting a rune.
func truncateError(err error, maxBytes int) string {
	if err == nil {
		return ""
	}
	return truncateString(err.Error(), maxBytes)
}

func truncateString(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
