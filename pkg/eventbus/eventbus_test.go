package eventbus

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archmarket/platform/pkg/logging"
)

type suggestionResolved struct {
	id string
}

type accessRequested struct {
	id string
}

func bufferedLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(level)
	return log, buf
}

func TestPublisher_Publish_NoMatchingSubscribers(t *testing.T) {
	t.Parallel()

	log, buf := bufferedLogger(logrus.WarnLevel)
	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *suggestionResolved) {
		t.Error("should not be called")
	})
	publisher.Publish(&accessRequested{id: "a1"})

	assert.Contains(t, buf.String(), "eventbus.Publish: no matching subscribers")
}

func TestPublisher_Subscribe(t *testing.T) {
	t.Parallel()

	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	var got string
	publisher.Subscribe(func(e *suggestionResolved) {
		got = e.id
	})
	publisher.Publish(&suggestionResolved{id: "s1"})

	assert.Equal(t, "s1", got)
	assert.Equal(t, 1, publisher.SubscribersCount())

	publisher.Clear()
	assert.Zero(t, publisher.SubscribersCount())
}

func TestPublisher_Unsubscribe(t *testing.T) {
	t.Parallel()

	publisher := NewEventPublisher(nil)
	calls := 0
	handler := func(e *suggestionResolved) { calls++ }
	publisher.Subscribe(handler)
	publisher.Publish(&suggestionResolved{})
	publisher.Unsubscribe(handler)
	publisher.Publish(&suggestionResolved{})

	assert.Equal(t, 1, calls)
}

func TestMatchSignature(t *testing.T) {
	t.Parallel()

	assert.True(t, MatchSignature(func(e *suggestionResolved) {}, []interface{}{&suggestionResolved{}}))
	assert.False(t, MatchSignature(func(e *suggestionResolved) {}, []interface{}{&accessRequested{}}))
	assert.False(t, MatchSignature(func(e *suggestionResolved) {}, []interface{}{}))
	assert.False(t, MatchSignature(func(e *suggestionResolved) {}, []interface{}{&suggestionResolved{}, &suggestionResolved{}}))
	assert.True(t, MatchSignature(func(ctx context.Context) {}, []interface{}{context.Background()}))
	assert.True(t, MatchSignature(func(e *suggestionResolved) {}, []interface{}{nil}))
	assert.False(t, MatchSignature("not a func", []interface{}{}))
}

func TestPublisher_PanicRecovery(t *testing.T) {
	t.Parallel()

	t.Run("panic is logged and other handlers still run", func(t *testing.T) {
		log, buf := bufferedLogger(logrus.WarnLevel)
		publisher := NewEventPublisher(log)

		first, third := false, false
		publisher.Subscribe(func(e *suggestionResolved) { first = true })
		publisher.Subscribe(func(e *suggestionResolved) { panic("handler 2 panic") })
		publisher.Subscribe(func(e *suggestionResolved) { third = true })

		publisher.Publish(&suggestionResolved{id: "s1"})

		assert.True(t, first)
		assert.True(t, third)
		assert.Contains(t, buf.String(), "panicked")
		assert.Contains(t, buf.String(), "handler 2 panic")
		assert.NotContains(t, buf.String(), "no matching subscribers")
	})

	t.Run("all handlers panicking counts as unhandled", func(t *testing.T) {
		log, buf := bufferedLogger(logrus.WarnLevel)
		publisher := NewEventPublisher(log)
		publisher.Subscribe(func(e *suggestionResolved) { panic("always panics") })

		publisher.Publish(&suggestionResolved{})

		assert.Contains(t, buf.String(), "no matching subscribers")
	})
}

func TestPublisher_PublishE(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNoSubscribers when none match", func(t *testing.T) {
		publisher := NewEventPublisher(logrus.New())
		require.ErrorIs(t, publisher.PublishE(&suggestionResolved{}), ErrNoSubscribers)
	})

	t.Run("joins errors from multiple handlers", func(t *testing.T) {
		publisher := NewEventPublisher(logrus.New())
		err1 := errors.New("err1")
		err2 := errors.New("err2")
		publisher.Subscribe(func(e *suggestionResolved) error { return err1 })
		publisher.Subscribe(func(e *suggestionResolved) error { return err2 })

		err := publisher.PublishE(&suggestionResolved{})
		require.ErrorIs(t, err, err1)
		require.ErrorIs(t, err, err2)
	})

	t.Run("panic is surfaced as error and other handlers still run", func(t *testing.T) {
		publisher := NewEventPublisher(nil)
		called := false
		publisher.Subscribe(func(e *suggestionResolved) error { panic("boom") })
		publisher.Subscribe(func(e *suggestionResolved) error { called = true; return nil })

		require.Error(t, publisher.PublishE(&suggestionResolved{}))
		assert.True(t, called)
	})

	t.Run("invalid handler return is surfaced", func(t *testing.T) {
		publisher := NewEventPublisher(nil)
		publisher.Subscribe(func(e *suggestionResolved) int { return 1 })

		require.ErrorIs(t, publisher.PublishE(&suggestionResolved{}), ErrInvalidHandlerReturn)
	})

	t.Run("nil result means success", func(t *testing.T) {
		publisher := NewEventPublisher(nil)
		publisher.Subscribe(func(e *suggestionResolved) error { return nil })

		require.NoError(t, publisher.PublishE(&suggestionResolved{}))
	})
}
