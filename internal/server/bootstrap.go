package server

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/modules"
	"github.com/archmarket/platform/modules/notifications/infrastructure/feed"
	"github.com/archmarket/platform/pkg/application"
	"github.com/archmarket/platform/pkg/configuration"
	"github.com/archmarket/platform/pkg/eventbus"
	"github.com/archmarket/platform/pkg/outbox"
)

// NewApplication connects to the database and registers the outbox schema
// followed by every built-in module.
func NewApplication(ctx context.Context, conf *configuration.Configuration) (application.Application, *pgxpool.Pool, error) {
	logger := conf.Logger()

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create pool")
	}
	table, err := outbox.ParseIdentifier(conf.Outbox.Table)
	if err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "invalid OUTBOX_TABLE")
	}
	publisher, err := outbox.NewPublisher(table)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Outbox:   publisher,
		Logger:   logger,
	})
	app.Migrations().RegisterSchema("outbox", outbox.SchemaFS, "schema")
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		pool.Close()
		return nil, nil, errors.Wrap(err, "failed to load modules")
	}
	return app, pool, nil
}

// StartBackground runs the outbox relay and cleaner plus the notification
// change feed listener until ctx ends.
func StartBackground(ctx context.Context, conf *configuration.Configuration, app application.Application) error {
	outboxLog := app.Logger().WithField("component", "outbox")
	table, err := outbox.ParseIdentifier(conf.Outbox.Table)
	if err != nil {
		return errors.Wrap(err, "invalid OUTBOX_TABLE")
	}

	if conf.Outbox.RelayEnabled {
		relay, err := outbox.NewRelay(app.DB(), table, app.OutboxDispatcher(), outbox.RelayOptions{
			PollInterval:      conf.Outbox.RelayPollInterval,
			BatchSize:         conf.Outbox.RelayBatchSize,
			LockTTL:           conf.Outbox.RelayLockTTL,
			MaxAttempts:       conf.Outbox.RelayMaxAttempts,
			SingleActive:      conf.Outbox.RelaySingleActive,
			LastErrorMaxBytes: conf.Outbox.LastErrorMaxBytes,
			DispatchTimeout:   conf.Outbox.RelayDispatchTimeout,
			Logger:            outboxLog.WithField("table", outbox.TableLabel(table)),
		})
		if err != nil {
			return errors.Wrap(err, "failed to create outbox relay")
		}
		go run(ctx, outboxLog, "outbox: relay stopped", relay.Run)
	}

	if conf.Outbox.CleanerEnabled {
		cleaner, err := outbox.NewCleaner(app.DB(), table, outbox.CleanerOptions{
			Enabled:               true,
			Interval:              conf.Outbox.CleanerInterval,
			Retention:             conf.Outbox.CleanerRetention,
			DeadRetention:         conf.Outbox.CleanerDeadRetention,
			DeadAttemptsThreshold: conf.Outbox.RelayMaxAttempts,
			Logger:                outboxLog.WithField("table", outbox.TableLabel(table)),
		})
		if err != nil {
			return errors.Wrap(err, "failed to create outbox cleaner")
		}
		go run(ctx, outboxLog, "outbox: cleaner stopped", cleaner.Run)
	}

	runner := app.Service(feed.Runner{}).(*feed.Runner)
	feedLog := app.Logger().WithFields(logrus.Fields{"component": "feed", "backend": runner.Backend()})
	go run(ctx, feedLog, "feed: listener stopped", runner.Run)
	return nil
}

func run(ctx context.Context, log *logrus.Entry, msg string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error(msg)
	}
}
