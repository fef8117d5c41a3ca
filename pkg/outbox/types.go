package outbox

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Message is a domain event waiting in the outbox table.
// ActorID is the identity whose action produced the event.
type Message struct {
	ActorID uuid.UUID
	Topic   string
	EventID uuid.UUID
	Payload json.RawMessage
}

// Meta travels with every dispatched message. Handlers use EventID as their
// idempotency key since delivery is at-least-once.
type Meta struct {
	Table    pgx.Identifier
	ActorID  uuid.UUID
	Topic    string
	EventID  uuid.UUID
	Sequence int64
	Attempts int
}

type DispatchedMessage struct {
	Meta    Meta
	Payload json.RawMessage
}

// Dispatcher delivers a claimed message. A non-nil error schedules a retry.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg DispatchedMessage) error
}
