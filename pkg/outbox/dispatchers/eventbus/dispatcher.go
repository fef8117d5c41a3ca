package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/archmarket/platform/pkg/eventbus"
	"github.com/archmarket/platform/pkg/outbox"
)

type decodeFunc func(payload json.RawMessage) (any, error)

// Dispatcher decodes outbox payloads into registered event types and
// publishes them on the bus as (meta, event) pairs. Handlers subscribe with
// func(ctx context.Context, meta *outbox.Meta, ev *T) error.
type Dispatcher struct {
	bus  eventbus.EventBusWithError
	bind func(context.Context) context.Context

	mu       sync.RWMutex
	decoders map[string]decodeFunc
}

type Option func(*Dispatcher)

// WithContext decorates the context handed to handlers, e.g. to attach the
// database pool their repositories resolve.
func WithContext(bind func(context.Context) context.Context) Option {
	return func(d *Dispatcher) {
		d.bind = bind
	}
}

func New(bus eventbus.EventBusWithError, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		bus:      bus,
		decoders: make(map[string]decodeFunc),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register binds topic to event type T.
func Register[T any](d *Dispatcher, topic string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.decoders[topic] = func(payload json.RawMessage) (any, error) {
		ev := new(T)
		if err := json.Unmarshal(payload, ev); err != nil {
			return nil, err
		}
		return ev, nil
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg outbox.DispatchedMessage) error {
	d.mu.RLock()
	decode, ok := d.decoders[msg.Meta.Topic]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("outbox dispatch: unknown topic %q", msg.Meta.Topic)
	}

	ev, err := decode(msg.Payload)
	if err != nil {
		return fmt.Errorf("outbox dispatch: decode %s: %w", msg.Meta.Topic, err)
	}
	if d.bind != nil {
		ctx = d.bind(ctx)
	}
	meta := msg.Meta
	return d.bus.PublishE(ctx, &meta, ev)
}
