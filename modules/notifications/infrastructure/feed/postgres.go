package feed

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/pkg/configuration"
	"github.com/archmarket/platform/pkg/metrics"
)

// PostgresListener LISTENs on the channel the notifications trigger
// notifies and forwards hints to the broker. The connection is taken out
// of the pool for the listener's lifetime.
type PostgresListener struct {
	pool       *pgxpool.Pool
	channel    string
	broker     *Broker
	retryDelay time.Duration
	logger     *logrus.Logger
}

func NewPostgresListener(pool *pgxpool.Pool, channel string, broker *Broker, retryDelay time.Duration, logger *logrus.Logger) *PostgresListener {
	return &PostgresListener{
		pool:       pool,
		channel:    channel,
		broker:     broker,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

func (l *PostgresListener) Run(ctx context.Context) error {
	return runWithRetry(ctx, l.logger, configuration.FeedBackendPostgres, l.retryDelay, l.broker, l.listen)
}

func (l *PostgresListener) listen(ctx context.Context, connected func()) error {
	pc, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	conn := pc.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}
	connected()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.forward(n.Payload)
	}
}

func (l *PostgresListener) forward(payload string) {
	h, err := DecodeHint(payload)
	if err != nil {
		l.logger.WithError(err).WithField("backend", configuration.FeedBackendPostgres).Debug("feed: ignoring malformed hint")
		return
	}
	metrics.FeedHint(configuration.FeedBackendPostgres)
	l.broker.Publish(h)
}

// runWithRetry keeps listen running until ctx ends. Every successful
// reconnect after the first connection broadcasts a resync hint.
func runWithRetry(
	ctx context.Context,
	logger *logrus.Logger,
	backend string,
	retryDelay time.Duration,
	broker *Broker,
	listen func(ctx context.Context, connected func()) error,
) error {
	everConnected := false
	for {
		err := listen(ctx, func() {
			entry := logger.WithField("backend", backend)
			if everConnected {
				broker.Publish(Hint{Op: OpResync})
				entry.Info("feed: listener reconnected")
				return
			}
			everConnected = true
			entry.Info("feed: listener connected")
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.WithError(err).WithField("backend", backend).Warn("feed: listener dropped, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}
