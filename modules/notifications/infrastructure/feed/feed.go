// Package feed turns store change events on notifications into per-owner
// hints. A hint carries no data: receivers re-fetch the feed.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	// OpResync is sent to every subscriber after a listener reconnects,
	// since changes made while it was down were never seen.
	OpResync Op = "resync"
)

type Hint struct {
	OwnerID uuid.UUID `json:"owner_id"`
	Op      Op        `json:"op"`
}

// ChangeFeed hands out hint subscriptions scoped to one owner. The returned
// stop func is idempotent and is also called when ctx ends.
type ChangeFeed interface {
	Subscribe(ctx context.Context, ownerID uuid.UUID) (<-chan Hint, func())
}

// Publisher pushes hints for backends without a store-side trigger.
type Publisher interface {
	Publish(ctx context.Context, h Hint) error
}

func DecodeHint(payload string) (Hint, error) {
	var h Hint
	if err := json.Unmarshal([]byte(payload), &h); err != nil {
		return Hint{}, fmt.Errorf("decode hint: %w", err)
	}
	if h.OwnerID == uuid.Nil {
		return Hint{}, fmt.Errorf("decode hint: owner_id is missing")
	}
	return h, nil
}

func EncodeHint(h Hint) (string, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
