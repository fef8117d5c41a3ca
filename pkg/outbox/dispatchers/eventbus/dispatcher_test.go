package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archmarket/platform/pkg/eventbus"
	"github.com/archmarket/platform/pkg/outbox"
)

type requestResolved struct {
	RequestID uuid.UUID `json:"request_id"`
	Status    string    `json:"status"`
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Parallel()

	bus := eventbus.NewEventPublisher(nil)
	d := New(bus)
	Register[requestResolved](d, "access.request.resolved.v1")

	var got *requestResolved
	var gotMeta *outbox.Meta
	bus.Subscribe(func(ctx context.Context, meta *outbox.Meta, ev *requestResolved) error {
		got, gotMeta = ev, meta
		return nil
	})

	id := uuid.New()
	payload, err := json.Marshal(requestResolved{RequestID: id, Status: "approved"})
	require.NoError(t, err)

	eventID := uuid.New()
	err = d.Dispatch(context.Background(), outbox.DispatchedMessage{
		Meta:    outbox.Meta{Topic: "access.request.resolved.v1", EventID: eventID},
		Payload: payload,
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.RequestID)
	assert.Equal(t, "approved", got.Status)
	assert.Equal(t, eventID, gotMeta.EventID)
}

type ctxKey struct{}

func TestDispatcher_WithContextDecoratesHandlerContext(t *testing.T) {
	t.Parallel()

	bus := eventbus.NewEventPublisher(nil)
	d := New(bus, WithContext(func(ctx context.Context) context.Context {
		return context.WithValue(ctx, ctxKey{}, "bound")
	}))
	Register[requestResolved](d, "t")

	var seen any
	bus.Subscribe(func(ctx context.Context, meta *outbox.Meta, ev *requestResolved) error {
		seen = ctx.Value(ctxKey{})
		return nil
	})

	err := d.Dispatch(context.Background(), outbox.DispatchedMessage{Meta: outbox.Meta{Topic: "t"}, Payload: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, "bound", seen)
}

func TestDispatcher_HandlerErrorIsReturned(t *testing.T) {
	t.Parallel()

	bus := eventbus.NewEventPublisher(nil)
	d := New(bus)
	Register[requestResolved](d, "t")
	boom := errors.New("store down")
	bus.Subscribe(func(ctx context.Context, meta *outbox.Meta, ev *requestResolved) error { return boom })

	err := d.Dispatch(context.Background(), outbox.DispatchedMessage{Meta: outbox.Meta{Topic: "t"}, Payload: []byte(`{}`)})
	require.ErrorIs(t, err, boom)
}

func TestDispatcher_UnknownTopicAndBadPayload(t *testing.T) {
	t.Parallel()

	d := New(eventbus.NewEventPublisher(nil))
	Register[requestResolved](d, "t")

	err := d.Dispatch(context.Background(), outbox.DispatchedMessage{Meta: outbox.Meta{Topic: "other"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown topic")

	err = d.Dispatch(context.Background(), outbox.DispatchedMessage{Meta: outbox.Meta{Topic: "t"}, Payload: []byte(`{`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	t.Parallel()

	d := New(eventbus.NewEventPublisher(nil))
	Register[requestResolved](d, "t")

	err := d.Dispatch(context.Background(), outbox.DispatchedMessage{Meta: outbox.Meta{Topic: "t"}, Payload: []byte(`{}`)})
	require.ErrorIs(t, err, eventbus.ErrNoSubscribers)
}
