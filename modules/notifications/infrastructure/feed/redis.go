package feed

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/pkg/configuration"
	"github.com/archmarket/platform/pkg/metrics"
)

var errSubscriptionClosed = errors.New("redis subscription closed")

// RedisListener subscribes to a pub/sub channel fed by RedisPublisher.
type RedisListener struct {
	client     *redis.Client
	channel    string
	broker     *Broker
	retryDelay time.Duration
	logger     *logrus.Logger
}

func NewRedisListener(client *redis.Client, channel string, broker *Broker, retryDelay time.Duration, logger *logrus.Logger) *RedisListener {
	return &RedisListener{
		client:     client,
		channel:    channel,
		broker:     broker,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

func (l *RedisListener) Run(ctx context.Context) error {
	return runWithRetry(ctx, l.logger, configuration.FeedBackendRedis, l.retryDelay, l.broker, l.listen)
}

// listen forwards hints until the subscription closes. go-redis re-subscribes
// on its own after a dropped connection; the fresh subscribe confirmation is
// reported as a reconnect so sessions resync what was published meanwhile.
func (l *RedisListener) listen(ctx context.Context, connected func()) error {
	sub := l.client.Subscribe(ctx, l.channel)
	defer sub.Close()

	// Receive waits for the subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	connected()

	ch := sub.ChannelWithSubscriptions()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errSubscriptionClosed
			}
			switch m := msg.(type) {
			case *redis.Subscription:
				if m.Kind == "subscribe" && m.Channel == l.channel {
					connected()
				}
			case *redis.Message:
				l.forward(m.Payload)
			}
		}
	}
}

func (l *RedisListener) forward(payload string) {
	h, err := DecodeHint(payload)
	if err != nil {
		l.logger.WithError(err).WithField("backend", configuration.FeedBackendRedis).Debug("feed: ignoring malformed hint")
		return
	}
	metrics.FeedHint(configuration.FeedBackendRedis)
	l.broker.Publish(h)
}

type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, h Hint) error {
	payload, err := EncodeHint(h)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}
