package suggestion

import (
	"context"

	"github.com/google/uuid"
)

type Resolution struct {
	Status       Status
	AdminMessage string
	ResolvedBy   uuid.UUID
}

type Repository interface {
	// ListPending returns pending suggestions of kind, newest first.
	ListPending(ctx context.Context, kind Kind) ([]Suggestion, error)
	// ListPendingMaterialized returns pending suggestions that already own a
	// catalog row.
	ListPendingMaterialized(ctx context.Context, kind Kind) ([]Suggestion, error)
	GetByID(ctx context.Context, kind Kind, id uuid.UUID) (Suggestion, error)
	Create(ctx context.Context, s Suggestion) (Suggestion, error)
	// Resolve moves a pending suggestion to a terminal status. It returns
	// serrors.ErrInvalidStateTransition when the row is no longer pending.
	Resolve(ctx context.Context, kind Kind, id uuid.UUID, res Resolution) (Suggestion, error)
}
