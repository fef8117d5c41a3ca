package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pkgerrors "github.com/pkg/errors"

	"github.com/archmarket/platform/modules/notifications/domain/aggregates/notification"
	"github.com/archmarket/platform/pkg/composables"
)

const notificationColumns = `id, owner_id, kind, title, body, read, read_at, created_at, metadata, source_event_id`

// The unread count is a scalar subquery so items and count share one
// snapshot. An owner without rows has nothing unread either.
const fetchFeedQuery = `
	SELECT ` + notificationColumns + `,
	       (SELECT count(*) FROM notifications u WHERE u.owner_id = $1 AND NOT u.read) AS unread
	  FROM notifications
	 WHERE owner_id = $1
	 ORDER BY created_at DESC, id DESC
	 LIMIT $2`

type pgNotificationRepository struct{}

func NewNotificationRepository() notification.Repository {
	return &pgNotificationRepository{}
}

func (r *pgNotificationRepository) Fetch(ctx context.Context, ownerID uuid.UUID, limit int) (notification.Feed, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return notification.Feed{}, pkgerrors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, fetchFeedQuery, ownerID, limit)
	if err != nil {
		return notification.Feed{}, pkgerrors.Wrap(err, "failed to fetch notifications")
	}
	defer rows.Close()

	feed := notification.Feed{Items: make([]notification.Notification, 0, limit)}
	for rows.Next() {
		var unread int64
		n, err := scanNotification(rows, &unread)
		if err != nil {
			return notification.Feed{}, err
		}
		feed.Items = append(feed.Items, n)
		feed.UnreadCount = int(unread)
	}
	if err := rows.Err(); err != nil {
		return notification.Feed{}, pkgerrors.Wrap(err, "failed to iterate notifications")
	}
	return feed, nil
}

// MarkRead only touches unread rows, so repeated calls fire no change
// events. ErrNotFound covers both a missing and an already read row.
func (r *pgNotificationRepository) MarkRead(ctx context.Context, ownerID, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE notifications
		   SET read = true, read_at = COALESCE(read_at, now())
		 WHERE id = $1 AND owner_id = $2 AND NOT read
	`, id, ownerID)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to mark notification read")
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (r *pgNotificationRepository) MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to get transaction")
	}

	tag, err := tx.Exec(ctx, `
		UPDATE notifications
		   SET read = true, read_at = now()
		 WHERE owner_id = $1 AND NOT read
	`, ownerID)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to mark notifications read")
	}
	return tag.RowsAffected(), nil
}

func (r *pgNotificationRepository) Create(ctx context.Context, n notification.Notification) (notification.Notification, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return notification.Notification{}, false, pkgerrors.Wrap(err, "failed to get transaction")
	}

	metadata, err := json.Marshal(n.Metadata())
	if err != nil {
		return notification.Notification{}, false, pkgerrors.Wrap(err, "failed to encode notification metadata")
	}
	var source *uuid.UUID
	if n.SourceEventID() != uuid.Nil {
		id := n.SourceEventID()
		source = &id
	}

	created, err := scanNotification(tx.QueryRow(ctx, `
		INSERT INTO notifications (owner_id, kind, title, body, metadata, source_event_id)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		ON CONFLICT (source_event_id, owner_id) WHERE source_event_id IS NOT NULL DO NOTHING
		RETURNING `+notificationColumns,
		n.OwnerID(), string(n.Kind()), n.Title(), n.Body(), string(metadata), source,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return n, false, nil
		}
		return notification.Notification{}, false, pkgerrors.Wrap(err, "failed to insert notification")
	}
	return created, true, nil
}

func scanNotification(row pgx.Row, extra ...any) (notification.Notification, error) {
	var (
		id, ownerID       uuid.UUID
		kind, title, body string
		read              bool
		readAt            *time.Time
		createdAt         time.Time
		metadata          []byte
		source            *uuid.UUID
	)
	dest := append([]any{&id, &ownerID, &kind, &title, &body, &read, &readAt, &createdAt, &metadata, &source}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notification.Notification{}, err
		}
		return notification.Notification{}, pkgerrors.Wrap(err, "failed to scan notification")
	}

	meta := notification.Metadata{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &meta); err != nil {
			return notification.Notification{}, pkgerrors.Wrap(err, "failed to decode notification metadata")
		}
	}
	var readTime time.Time
	if readAt != nil {
		readTime = *readAt
	}
	var sourceID uuid.UUID
	if source != nil {
		sourceID = *source
	}
	return notification.Hydrate(id, ownerID, notification.Kind(kind), title, body, read, readTime, createdAt, meta, sourceID), nil
}
