package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accessevents "github.com/archmarket/platform/modules/access/domain/events"
	"github.com/archmarket/platform/modules/notifications/infrastructure/persistence"
	"github.com/archmarket/platform/pkg/application"
	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/eventbus"
	"github.com/archmarket/platform/pkg/outbox"
	outboxbus "github.com/archmarket/platform/pkg/outbox/dispatchers/eventbus"
	"github.com/archmarket/platform/pkg/serrors"
)

// Relay dispatches run on a bare background context; the repository must
// still find the application pool.
func TestEventHandlers_RelayContextReachesDatabase(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), "host=127.0.0.1 port=1 user=market dbname=market sslmode=disable connect_timeout=1")
	require.NoError(t, err)
	defer pool.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	svc := NewNotificationService(persistence.NewNotificationRepository(), nil, 20, logger)
	app.EventPublisher().Subscribe(svc.OnAccessRequestSubmitted)
	outboxbus.Register[accessevents.RequestSubmittedV1](app.OutboxDispatcher(), accessevents.TopicRequestSubmittedV1)

	payload, err := json.Marshal(accessevents.RequestSubmittedV1{
		RequestID: uuid.New(), SpecifierID: uuid.New(), ProducerID: uuid.New(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = app.OutboxDispatcher().Dispatch(ctx, outbox.DispatchedMessage{
		Meta:    outbox.Meta{Topic: accessevents.TopicRequestSubmittedV1, EventID: uuid.New()},
		Payload: payload,
	})

	// Nothing listens on port 1, so the insert fails while connecting.
	require.ErrorIs(t, err, serrors.ErrTransientStore)
	assert.NotErrorIs(t, err, composables.ErrNoPool)
}
