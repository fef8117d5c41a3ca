package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/archmarket/platform/modules/notifications/domain/aggregates/notification"
)

type notificationResponse struct {
	ID        uuid.UUID             `json:"id"`
	Kind      string                `json:"kind"`
	Title     string                `json:"title"`
	Body      string                `json:"body"`
	Read      bool                  `json:"read"`
	ReadAt    *time.Time            `json:"read_at"`
	CreatedAt time.Time             `json:"created_at"`
	Metadata  notification.Metadata `json:"metadata"`
}

type feedResponse struct {
	Items       []notificationResponse `json:"items"`
	UnreadCount int                    `json:"unread_count"`
}

func toFeedResponse(f notification.Feed) feedResponse {
	items := make([]notificationResponse, 0, len(f.Items))
	for _, n := range f.Items {
		r := notificationResponse{
			ID:        n.ID(),
			Kind:      string(n.Kind()),
			Title:     n.Title(),
			Body:      n.Body(),
			Read:      n.Read(),
			CreatedAt: n.CreatedAt(),
			Metadata:  n.Metadata(),
		}
		if !n.ReadAt().IsZero() {
			at := n.ReadAt()
			r.ReadAt = &at
		}
		items = append(items, r)
	}
	return feedResponse{Items: items, UnreadCount: f.UnreadCount}
}
