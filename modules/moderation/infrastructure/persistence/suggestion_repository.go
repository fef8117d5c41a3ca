package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"

	"github.com/archmarket/platform/modules/moderation/domain/aggregates/suggestion"
	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/serrors"
)

const pendingFilter = `(s.status IS NULL OR s.status = 'pending')`

const (
	typeColumns  = `s.id, s.submitter_id, s.name, s.description, s.status, s.admin_message, s.resolved_by, s.resolved_at, s.created_at`
	fieldColumns = `s.id, s.submitter_id, s.catalog_type_id, s.field_name, s.suggested_value, s.description, s.status, s.admin_message, s.resolved_by, s.resolved_at, s.created_at`
)

var ErrCatalogTypeNotFound = fmt.Errorf("%w: catalog type", serrors.ErrNotFound)

type kindTable struct {
	table   string
	columns string
	// target is the catalog table holding rows materialized from this kind.
	target string
}

var kindTables = map[suggestion.Kind]kindTable{
	suggestion.KindCatalogType:  {table: "suggestions_catalog_type", columns: typeColumns, target: "catalog_types"},
	suggestion.KindCatalogField: {table: "suggestions_catalog_field", columns: fieldColumns, target: "catalog_environments"},
}

func tableFor(kind suggestion.Kind) (kindTable, error) {
	kt, ok := kindTables[kind]
	if !ok {
		return kindTable{}, fmt.Errorf("%w: unknown kind %q", suggestion.ErrNotFound, kind)
	}
	return kt, nil
}

type pgSuggestionRepository struct{}

func NewSuggestionRepository() suggestion.Repository {
	return &pgSuggestionRepository{}
}

func (r *pgSuggestionRepository) ListPending(ctx context.Context, kind suggestion.Kind) ([]suggestion.Suggestion, error) {
	kt, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, kind, fmt.Sprintf(`
		SELECT %s
		FROM %s s
		WHERE %s
		ORDER BY s.created_at DESC, s.id
	`, kt.columns, kt.table, pendingFilter))
}

func (r *pgSuggestionRepository) ListPendingMaterialized(ctx context.Context, kind suggestion.Kind) ([]suggestion.Suggestion, error) {
	kt, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, kind, fmt.Sprintf(`
		SELECT %s
		FROM %s s
		JOIN %s c ON c.source_suggestion_id = s.id
		WHERE %s
		ORDER BY s.created_at ASC, s.id
	`, kt.columns, kt.table, kt.target, pendingFilter))
}

func (r *pgSuggestionRepository) list(ctx context.Context, kind suggestion.Kind, query string, args ...any) ([]suggestion.Suggestion, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query suggestions")
	}
	defer rows.Close()

	var out []suggestion.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(kind, rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to scan suggestion")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "error iterating suggestions")
	}
	return out, nil
}

func (r *pgSuggestionRepository) GetByID(ctx context.Context, kind suggestion.Kind, id uuid.UUID) (suggestion.Suggestion, error) {
	kt, err := tableFor(kind)
	if err != nil {
		return suggestion.Suggestion{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return suggestion.Suggestion{}, pkgerrors.Wrap(err, "failed to get transaction")
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s s WHERE s.id = $1`, kt.columns, kt.table), id)
	s, err := scanSuggestion(kind, row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return suggestion.Suggestion{}, suggestion.ErrNotFound
		}
		return suggestion.Suggestion{}, pkgerrors.Wrap(err, "failed to get suggestion")
	}
	return s, nil
}

func (r *pgSuggestionRepository) Create(ctx context.Context, s suggestion.Suggestion) (suggestion.Suggestion, error) {
	kt, err := tableFor(s.Kind())
	if err != nil {
		return suggestion.Suggestion{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return suggestion.Suggestion{}, pkgerrors.Wrap(err, "failed to get transaction")
	}

	var row pgx.Row
	switch s.Kind() {
	case suggestion.KindCatalogType:
		p := s.TypePayload()
		row = tx.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO suggestions_catalog_type AS s (submitter_id, name, description, status)
			VALUES ($1, $2, $3, 'pending')
			RETURNING %s
		`, kt.columns), s.SubmitterID(), p.Name, p.Description)
	default:
		p := s.FieldPayload()
		row = tx.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO suggestions_catalog_field AS s (submitter_id, catalog_type_id, field_name, suggested_value, description, status)
			VALUES ($1, $2, $3, $4, $5, 'pending')
			RETURNING %s
		`, kt.columns), s.SubmitterID(), p.CatalogTypeID, p.FieldName, p.SuggestedValue, p.Description)
	}

	created, err := scanSuggestion(s.Kind(), row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return suggestion.Suggestion{}, ErrCatalogTypeNotFound
		}
		return suggestion.Suggestion{}, pkgerrors.Wrap(err, "failed to create suggestion")
	}
	return created, nil
}

func (r *pgSuggestionRepository) Resolve(ctx context.Context, kind suggestion.Kind, id uuid.UUID, res suggestion.Resolution) (suggestion.Suggestion, error) {
	kt, err := tableFor(kind)
	if err != nil {
		return suggestion.Suggestion{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return suggestion.Suggestion{}, pkgerrors.Wrap(err, "failed to get transaction")
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`
		UPDATE %s AS s
		SET status = $2, admin_message = $3, resolved_by = $4, resolved_at = now()
		WHERE s.id = $1 AND %s
		RETURNING %s
	`, kt.table, pendingFilter, kt.columns), id, string(res.Status), res.AdminMessage, nullUUID(res.ResolvedBy))

	resolved, err := scanSuggestion(kind, row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return suggestion.Suggestion{}, fmt.Errorf("%w: suggestion %s is no longer pending", serrors.ErrInvalidStateTransition, id)
		}
		return suggestion.Suggestion{}, pkgerrors.Wrap(err, "failed to resolve suggestion")
	}
	return resolved, nil
}

func scanSuggestion(kind suggestion.Kind, row pgx.Row) (suggestion.Suggestion, error) {
	var (
		id           uuid.UUID
		submitterID  uuid.UUID
		typePayload  suggestion.TypePayload
		fieldPayload suggestion.FieldPayload
		status       *string
		adminMessage *string
		resolvedBy   *uuid.UUID
		resolvedAt   *time.Time
		createdAt    time.Time
	)

	var err error
	if kind == suggestion.KindCatalogType {
		err = row.Scan(
			&id,
			&submitterID,
			&typePayload.Name,
			&typePayload.Description,
			&status,
			&adminMessage,
			&resolvedBy,
			&resolvedAt,
			&createdAt,
		)
	} else {
		err = row.Scan(
			&id,
			&submitterID,
			&fieldPayload.CatalogTypeID,
			&fieldPayload.FieldName,
			&fieldPayload.SuggestedValue,
			&fieldPayload.Description,
			&status,
			&adminMessage,
			&resolvedBy,
			&resolvedAt,
			&createdAt,
		)
	}
	if err != nil {
		return suggestion.Suggestion{}, err
	}

	return suggestion.Hydrate(
		id,
		kind,
		submitterID,
		typePayload,
		fieldPayload,
		suggestion.ParseStatus(status),
		deref(adminMessage),
		derefUUID(resolvedBy),
		derefTime(resolvedAt),
		createdAt,
	), nil
}
