package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Hint) Hint {
	t.Helper()
	select {
	case h, ok := <-ch:
		require.True(t, ok, "channel closed")
		return h
	case <-time.After(time.Second):
		t.Fatal("no hint received")
		return Hint{}
	}
}

func assertEmpty(t *testing.T, ch <-chan Hint) {
	t.Helper()
	select {
	case h := <-ch:
		t.Fatalf("unexpected hint %+v", h)
	default:
	}
}

func TestBroker_ScopesHintsByOwner(t *testing.T) {
	b := NewBroker()
	alice, bob := uuid.New(), uuid.New()
	aliceCh, stopAlice := b.Subscribe(context.Background(), alice)
	defer stopAlice()
	bobCh, stopBob := b.Subscribe(context.Background(), bob)
	defer stopBob()

	b.Publish(Hint{OwnerID: alice, Op: OpInsert})

	assert.Equal(t, Hint{OwnerID: alice, Op: OpInsert}, receive(t, aliceCh))
	assertEmpty(t, bobCh)
}

func TestBroker_CoalescesPendingHints(t *testing.T) {
	b := NewBroker()
	owner := uuid.New()
	ch, stop := b.Subscribe(context.Background(), owner)
	defer stop()

	for i := 0; i < 10; i++ {
		b.Publish(Hint{OwnerID: owner, Op: OpUpdate})
	}

	receive(t, ch)
	assertEmpty(t, ch)
}

func TestBroker_ResyncReachesEveryone(t *testing.T) {
	b := NewBroker()
	ch1, stop1 := b.Subscribe(context.Background(), uuid.New())
	defer stop1()
	ch2, stop2 := b.Subscribe(context.Background(), uuid.New())
	defer stop2()

	b.Publish(Hint{Op: OpResync})

	assert.Equal(t, OpResync, receive(t, ch1).Op)
	assert.Equal(t, OpResync, receive(t, ch2).Op)
}

func TestBroker_StopOnContextEnd(t *testing.T) {
	b := NewBroker()
	owner := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	ch, stop := b.Subscribe(ctx, owner)
	require.Equal(t, 1, b.Subscribers(owner))

	cancel()
	require.Eventually(t, func() bool { return b.Subscribers(owner) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-ch
	assert.False(t, open)
	stop()
	b.Publish(Hint{OwnerID: owner, Op: OpInsert})
}

func TestDecodeHint(t *testing.T) {
	owner := uuid.New()

	h, err := DecodeHint(`{"owner_id":"` + owner.String() + `","op":"insert"}`)
	require.NoError(t, err)
	assert.Equal(t, Hint{OwnerID: owner, Op: OpInsert}, h)

	_, err = DecodeHint(`{"op":"insert"}`)
	require.Error(t, err)

	_, err = DecodeHint(`not json`)
	require.Error(t, err)
}
