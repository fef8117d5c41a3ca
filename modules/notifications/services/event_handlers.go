package services

import (
	"context"
	"fmt"

	accessevents "github.com/archmarket/platform/modules/access/domain/events"
	moderationevents "github.com/archmarket/platform/modules/moderation/domain/events"
	"github.com/archmarket/platform/modules/notifications/domain/aggregates/notification"
	"github.com/archmarket/platform/pkg/outbox"
)

// The handlers below are subscribed on the event bus fed by the outbox
// relay. A returned error makes the relay retry the message; redelivery is
// harmless because notifications are keyed by source event.

func (s *NotificationService) OnSuggestionResolved(ctx context.Context, meta *outbox.Meta, ev *moderationevents.SuggestionResolvedV1) error {
	metadata := notification.Metadata{
		"suggestion_id": ev.SuggestionID.String(),
		"kind":          ev.Kind,
		"status":        ev.Status,
	}
	if ev.EntityID != nil {
		metadata["entity_id"] = ev.EntityID.String()
	}
	n := notification.New(
		ev.SubmitterID,
		notification.KindSuggestionResolved,
		fmt.Sprintf("Your suggestion %q was %s", ev.Title, ev.Status),
		ev.AdminMessage,
		notification.WithMetadata(metadata),
		notification.WithSourceEvent(meta.EventID),
	)
	_, err := s.Deliver(ctx, n)
	return err
}

func (s *NotificationService) OnAccessRequestSubmitted(ctx context.Context, meta *outbox.Meta, ev *accessevents.RequestSubmittedV1) error {
	n := notification.New(
		ev.ProducerID,
		notification.KindAccessRequestSubmitted,
		"New catalog access request",
		ev.Message,
		notification.WithMetadata(notification.Metadata{
			"request_id":   ev.RequestID.String(),
			"specifier_id": ev.SpecifierID.String(),
		}),
		notification.WithSourceEvent(meta.EventID),
	)
	_, err := s.Deliver(ctx, n)
	return err
}

func (s *NotificationService) OnAccessRequestResolved(ctx context.Context, meta *outbox.Meta, ev *accessevents.RequestResolvedV1) error {
	n := notification.New(
		ev.SpecifierID,
		notification.KindAccessRequestResolved,
		fmt.Sprintf("Your catalog access request was %s", ev.Status),
		"",
		notification.WithMetadata(notification.Metadata{
			"request_id":  ev.RequestID.String(),
			"producer_id": ev.ProducerID.String(),
			"status":      ev.Status,
		}),
		notification.WithSourceEvent(meta.EventID),
	)
	_, err := s.Deliver(ctx, n)
	return err
}
