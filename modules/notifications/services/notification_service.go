package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/modules/notifications/domain/aggregates/notification"
	"github.com/archmarket/platform/modules/notifications/infrastructure/feed"
	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/metrics"
	"github.com/archmarket/platform/pkg/serrors"
)

const (
	engine       = "notifications"
	maxFetchSize = 100
)

type NotificationService struct {
	repo     notification.Repository
	hints    feed.Publisher
	pageSize int
	logger   *logrus.Logger
}

// NewNotificationService builds the dispatcher. hints may be nil when the
// store itself reports changes (the Postgres trigger).
func NewNotificationService(
	repo notification.Repository,
	hints feed.Publisher,
	pageSize int,
	logger *logrus.Logger,
) *NotificationService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &NotificationService{
		repo:     repo,
		hints:    hints,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Fetch returns the newest notifications and the owner's unread count. A
// non-positive limit means the configured page size.
func (s *NotificationService) Fetch(ctx context.Context, ownerID uuid.UUID, limit int) (notification.Feed, error) {
	switch {
	case limit <= 0:
		limit = s.pageSize
	case limit > maxFetchSize:
		limit = maxFetchSize
	}
	f, err := s.repo.Fetch(ctx, ownerID, limit)
	if err != nil {
		return notification.Feed{}, serrors.Store(err)
	}
	return f, nil
}

// MarkRead is idempotent. A missing or already read notification is
// treated as success.
func (s *NotificationService) MarkRead(ctx context.Context, ownerID, id uuid.UUID) error {
	err := s.repo.MarkRead(ctx, ownerID, id)
	if errors.Is(err, serrors.ErrNotFound) {
		s.log(ctx, ownerID).WithField("notification_id", id).Debug("mark read: nothing to update")
		err = nil
	}
	s.record("mark_read", err)
	if err != nil {
		return serrors.Store(err)
	}
	s.notify(ctx, ownerID, feed.OpUpdate)
	return nil
}

// MarkAllRead flips every unread notification of the owner in one
// statement and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, ownerID)
	s.record("mark_all_read", err)
	if err != nil {
		return 0, serrors.Store(err)
	}
	if affected > 0 {
		s.notify(ctx, ownerID, feed.OpUpdate)
	}
	s.log(ctx, ownerID).WithField("affected", affected).Info("notifications marked read")
	return affected, nil
}

// Deliver stores n unless its source event was already delivered to the
// same owner.
func (s *NotificationService) Deliver(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	created, ok, err := s.repo.Create(ctx, n)
	s.record("deliver", err)
	if err != nil {
		return notification.Notification{}, serrors.Store(err)
	}
	entry := s.log(ctx, n.OwnerID()).WithFields(logrus.Fields{
		"kind":            n.Kind(),
		"source_event_id": n.SourceEventID(),
	})
	if !ok {
		entry.Debug("notification already delivered")
		return created, nil
	}
	s.notify(ctx, n.OwnerID(), feed.OpInsert)
	entry.WithField("notification_id", created.ID()).Info("notification delivered")
	return created, nil
}

func (s *NotificationService) notify(ctx context.Context, ownerID uuid.UUID, op feed.Op) {
	if s.hints == nil {
		return
	}
	if err := s.hints.Publish(ctx, feed.Hint{OwnerID: ownerID, Op: op}); err != nil {
		s.log(ctx, ownerID).WithError(err).Warn("failed to publish feed hint")
	}
}

func (s *NotificationService) record(operation string, err error) {
	result := "ok"
	if err != nil {
		if result = serrors.Code(serrors.Store(err)); result == "" {
			result = "INTERNAL"
		}
	}
	metrics.Transition(engine, operation, result)
}

func (s *NotificationService) log(ctx context.Context, ownerID uuid.UUID) *logrus.Entry {
	return composables.TryUseLogger(ctx, s.logger).WithField("owner_id", ownerID)
}
