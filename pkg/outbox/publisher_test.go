package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_RequiresTable(t *testing.T) {
	t.Parallel()

	_, err := NewPublisher(nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEnqueue_ValidatesMessage(t *testing.T) {
	t.Parallel()

	p, err := NewPublisher([]string{"public", "marketplace_outbox"})
	require.NoError(t, err)

	_, err = p.Enqueue(context.Background(), nil, Message{Topic: "t"})
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "event_id")

	_, err = p.Enqueue(context.Background(), nil, Message{EventID: uuid.New()})
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "topic")
}

func TestNewMessage(t *testing.T) {
	t.Parallel()

	actor := uuid.New()
	msg, err := NewMessage(actor, "access.request.submitted.v1", map[string]string{"status": "pending"})
	require.NoError(t, err)
	assert.Equal(t, actor, msg.ActorID)
	assert.NotEqual(t, uuid.Nil, msg.EventID)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, "pending", decoded["status"])

	_, err = NewMessage(actor, "t", make(chan int))
	require.Error(t, err)
}

func TestParseIdentifier(t *testing.T) {
	t.Parallel()

	id, err := ParseIdentifier(" public.marketplace_outbox ")
	require.NoError(t, err)
	assert.Equal(t, "public.marketplace_outbox", TableLabel(id))

	_, err = ParseIdentifier("a.b.c")
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = ParseIdentifier("bad-name")
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = ParseIdentifier("")
	require.ErrorIs(t, err, ErrInvalidConfig)
}
