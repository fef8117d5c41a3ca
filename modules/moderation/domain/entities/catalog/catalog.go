package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is a row of catalog_types or catalog_environments. SourceSuggestionID
// links rows created by approving a suggestion and is unique per table.
type Entry struct {
	ID                 uuid.UUID
	Name               string
	Description        string
	Active             bool
	SourceSuggestionID uuid.UUID
	CreatedAt          time.Time
}

type Repository interface {
	// CreateType inserts an active catalog type. When a row with the same
	// SourceSuggestionID exists it is returned instead and created is false.
	CreateType(ctx context.Context, e Entry) (out Entry, created bool, err error)
	CreateEnvironment(ctx context.Context, e Entry) (out Entry, created bool, err error)
	GetTypeBySuggestion(ctx context.Context, suggestionID uuid.UUID) (Entry, error)
	GetEnvironmentBySuggestion(ctx context.Context, suggestionID uuid.UUID) (Entry, error)
}
