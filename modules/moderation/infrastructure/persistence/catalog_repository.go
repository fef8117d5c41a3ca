package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pkgerrors "github.com/pkg/errors"

	"github.com/archmarket/platform/modules/moderation/domain/entities/catalog"
	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/serrors"
)

const catalogColumns = `id, name, description, active, source_suggestion_id, created_at`

type pgCatalogRepository struct{}

func NewCatalogRepository() catalog.Repository {
	return &pgCatalogRepository{}
}

func (r *pgCatalogRepository) CreateType(ctx context.Context, e catalog.Entry) (catalog.Entry, bool, error) {
	return r.create(ctx, "catalog_types", e)
}

func (r *pgCatalogRepository) CreateEnvironment(ctx context.Context, e catalog.Entry) (catalog.Entry, bool, error) {
	return r.create(ctx, "catalog_environments", e)
}

func (r *pgCatalogRepository) GetTypeBySuggestion(ctx context.Context, suggestionID uuid.UUID) (catalog.Entry, error) {
	return r.getBySuggestion(ctx, "catalog_types", suggestionID)
}

func (r *pgCatalogRepository) GetEnvironmentBySuggestion(ctx context.Context, suggestionID uuid.UUID) (catalog.Entry, error) {
	return r.getBySuggestion(ctx, "catalog_environments", suggestionID)
}

// create relies on the unique source_suggestion_id: a repeated approval hits
// the conflict branch and gets the existing row back. xmax = 0 only holds for
// freshly inserted tuples.
func (r *pgCatalogRepository) create(ctx context.Context, table string, e catalog.Entry) (catalog.Entry, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return catalog.Entry{}, false, pkgerrors.Wrap(err, "failed to get transaction")
	}

	var (
		out     catalog.Entry
		source  *uuid.UUID
		created bool
	)
	err = tx.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, description, active, source_suggestion_id)
		VALUES ($1, $2, true, $3)
		ON CONFLICT (source_suggestion_id) DO UPDATE SET source_suggestion_id = EXCLUDED.source_suggestion_id
		RETURNING %s, (xmax = 0) AS created
	`, table, catalogColumns), e.Name, e.Description, nullUUID(e.SourceSuggestionID)).Scan(
		&out.ID,
		&out.Name,
		&out.Description,
		&out.Active,
		&source,
		&out.CreatedAt,
		&created,
	)
	if err != nil {
		return catalog.Entry{}, false, pkgerrors.Wrapf(err, "failed to insert into %s", table)
	}
	out.SourceSuggestionID = derefUUID(source)
	return out, created, nil
}

func (r *pgCatalogRepository) getBySuggestion(ctx context.Context, table string, suggestionID uuid.UUID) (catalog.Entry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return catalog.Entry{}, pkgerrors.Wrap(err, "failed to get transaction")
	}

	var (
		out    catalog.Entry
		source *uuid.UUID
	)
	err = tx.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE source_suggestion_id = $1`, catalogColumns, table), suggestionID).Scan(
		&out.ID,
		&out.Name,
		&out.Description,
		&out.Active,
		&source,
		&out.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Entry{}, fmt.Errorf("%w: %s row for suggestion %s", serrors.ErrNotFound, table, suggestionID)
		}
		return catalog.Entry{}, pkgerrors.Wrapf(err, "failed to read %s", table)
	}
	out.SourceSuggestionID = derefUUID(source)
	return out, nil
}
