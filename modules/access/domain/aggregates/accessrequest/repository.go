package accessrequest

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (AccessRequest, error)
	// HasActive reports whether a pending or approved request exists for the pair.
	HasActive(ctx context.Context, specifierID, producerID uuid.UUID) (bool, error)
	HasApproved(ctx context.Context, specifierID, producerID uuid.UUID) (bool, error)
	// Create returns serrors.ErrDuplicateRequest when an active request exists.
	Create(ctx context.Context, r AccessRequest) (AccessRequest, error)
	// Resolve moves a pending request of producerID to status. It returns
	// serrors.ErrInvalidStateTransition when the row is no longer pending.
	Resolve(ctx context.Context, producerID, id uuid.UUID, status Status) (AccessRequest, error)
	ListBySpecifier(ctx context.Context, specifierID uuid.UUID, producerIDs []uuid.UUID) ([]AccessRequest, error)
	// ListForProducer returns requests newest first with the requester profile.
	ListForProducer(ctx context.Context, producerID uuid.UUID) ([]WithRequester, error)
}
