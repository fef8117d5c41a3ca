package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/archmarket/platform/pkg/repo"
)

// Publisher writes messages into the outbox using the caller's transaction,
// so the event commits or rolls back together with the state change.
type Publisher interface {
	Enqueue(ctx context.Context, tx repo.Tx, msg Message) (sequence int64, err error)
}

type publisher struct {
	table pgx.Identifier
	m     *metrics
}

func NewPublisher(table pgx.Identifier) (Publisher, error) {
	if len(table) == 0 {
		return nil, invalidConfig("table is required")
	}
	return &publisher{table: table, m: getMetrics()}, nil
}

func (p *publisher) Enqueue(ctx context.Context, tx repo.Tx, msg Message) (int64, error) {
	if msg.EventID == uuid.Nil {
		return 0, invalidConfig("event_id is required")
	}
	if msg.Topic == "" {
		return 0, invalidConfig("topic is required")
	}

	q := fmt.Sprintf(
		`INSERT INTO %s (actor_id, topic, payload, event_id, available_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (event_id) DO UPDATE SET event_id = EXCLUDED.event_id
		 RETURNING sequence`,
		p.table.Sanitize(),
	)

	var actor *uuid.UUID
	if msg.ActorID != uuid.Nil {
		actor = &msg.ActorID
	}
	var sequence int64
	if err := tx.QueryRow(ctx, q, actor, msg.Topic, msg.Payload, msg.EventID).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("outbox enqueue: %w", err)
	}

	p.m.enqueueTotal.WithLabelValues(TableLabel(p.table), msg.Topic).Inc()
	return sequence, nil
}

// NewMessage marshals payload and assigns a fresh event id.
func NewMessage(actorID uuid.UUID, topic string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("outbox: marshal %s: %w", topic, err)
	}
	return Message{
		ActorID: actorID,
		Topic:   topic,
		EventID: uuid.New(),
		Payload: raw,
	}, nil
}
