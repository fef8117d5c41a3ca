package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/archmarket/platform/pkg/metrics"
)

type subscriber struct {
	ch   chan Hint
	once sync.Once
}

// Broker fans hints out to in-process subscribers. Each subscriber has a
// one slot buffer: a pending hint already means "re-fetch", so further
// hints are dropped until it is consumed.
type Broker struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[*subscriber]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[uuid.UUID]map[*subscriber]struct{})}
}

func (b *Broker) Subscribe(ctx context.Context, ownerID uuid.UUID) (<-chan Hint, func()) {
	s := &subscriber{ch: make(chan Hint, 1)}

	b.mu.Lock()
	owned, ok := b.subs[ownerID]
	if !ok {
		owned = make(map[*subscriber]struct{})
		b.subs[ownerID] = owned
	}
	owned[s] = struct{}{}
	b.mu.Unlock()
	metrics.FeedSubscribed()

	stop := func() {
		s.once.Do(func() {
			b.mu.Lock()
			delete(b.subs[ownerID], s)
			if len(b.subs[ownerID]) == 0 {
				delete(b.subs, ownerID)
			}
			close(s.ch)
			b.mu.Unlock()
			metrics.FeedUnsubscribed()
		})
	}
	context.AfterFunc(ctx, stop)
	return s.ch, stop
}

// Publish delivers h to the owner's subscribers. Resync hints go to
// everyone regardless of owner.
func (b *Broker) Publish(h Hint) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if h.Op == OpResync {
		for _, owned := range b.subs {
			for s := range owned {
				offer(s.ch, h)
			}
		}
		return
	}
	for s := range b.subs[h.OwnerID] {
		offer(s.ch, h)
	}
}

// Subscribers reports how many sessions are attached for ownerID.
func (b *Broker) Subscribers(ownerID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[ownerID])
}

func offer(ch chan Hint, h Hint) {
	select {
	case ch <- h:
	default:
	}
}
