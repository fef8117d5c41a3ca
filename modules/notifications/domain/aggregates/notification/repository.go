package notification

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Fetch returns up to limit notifications newest first plus the unread
	// count, read in a single statement.
	Fetch(ctx context.Context, ownerID uuid.UUID, limit int) (Feed, error)
	// MarkRead keeps the first read_at. It returns ErrNotFound when the owner
	// has no such notification.
	MarkRead(ctx context.Context, ownerID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error)
	// Create reports created=false when the (source event, owner) pair
	// already exists.
	Create(ctx context.Context, n Notification) (Notification, bool, error)
}
