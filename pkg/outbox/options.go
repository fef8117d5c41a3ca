package outbox

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

type RelayOptions struct {
	PollInterval      time.Duration
	BatchSize         int
	LockTTL           time.Duration
	MaxAttempts       int
	SingleActive      bool
	MaxBackoff        time.Duration
	JitterMax         time.Duration
	LastErrorMaxBytes int
	DispatchTimeout   time.Duration

	ObserveQueueDepthEvery time.Duration

	Logger *logrus.Entry
	Rand   *rand.Rand
}

func (o *RelayOptions) setDefaults() {
	o.PollInterval = durationOr(o.PollInterval, time.Second)
	o.LockTTL = durationOr(o.LockTTL, time.Minute)
	o.MaxBackoff = durationOr(o.MaxBackoff, time.Minute)
	o.JitterMax = durationOr(o.JitterMax, 200*time.Millisecond)
	o.DispatchTimeout = durationOr(o.DispatchTimeout, 30*time.Second)
	o.ObserveQueueDepthEvery = durationOr(o.ObserveQueueDepthEvery, 10*time.Second)
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 25
	}
	if o.LastErrorMaxBytes <= 0 {
		o.LastErrorMaxBytes = 2048
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
}

type CleanerOptions struct {
	Enabled   bool
	Interval  time.Duration
	Retention time.Duration
	// DeadRetention > 0 also purges dead rows older than it.
	DeadRetention         time.Duration
	DeadAttemptsThreshold int

	Logger *logrus.Entry
}

func (o *CleanerOptions) setDefaults() {
	o.Interval = durationOr(o.Interval, time.Minute)
	o.Retention = durationOr(o.Retention, 7*24*time.Hour)
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
