package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/archmarket/platform/pkg/constants"
)

var ErrNoActor = errors.New("no actor found in context")

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleProducer  Role = "producer"
	RoleSupplier  Role = "supplier"
	RoleSpecifier Role = "specifier"
)

// Actor is the authenticated identity supplied by the session capability.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, constants.ActorKey, actor)
}

func UseActor(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(constants.ActorKey).(Actor)
	if !ok || actor.ID == uuid.Nil {
		return Actor{}, ErrNoActor
	}
	return actor, nil
}
