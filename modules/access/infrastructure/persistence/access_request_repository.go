package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	pkgerrors "github.com/pkg/errors"

	"github.com/archmarket/platform/modules/access/domain/aggregates/accessrequest"
	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/serrors"
)

const (
	requestColumns = `r.id, r.specifier_id, r.producer_id, r.status, r.message, r.created_at, r.resolved_at`
	activePairKey  = "access_requests_active_pair_key"
)

type pgAccessRequestRepository struct{}

func NewAccessRequestRepository() accessrequest.Repository {
	return &pgAccessRequestRepository{}
}

func (r *pgAccessRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (accessrequest.AccessRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return accessrequest.AccessRequest{}, pkgerrors.Wrap(err, "failed to get transaction")
	}

	out, err := scanRequest(tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM access_requests r WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accessrequest.AccessRequest{}, accessrequest.ErrNotFound
		}
		return accessrequest.AccessRequest{}, pkgerrors.Wrap(err, "failed to get access request")
	}
	return out, nil
}

func (r *pgAccessRequestRepository) HasActive(ctx context.Context, specifierID, producerID uuid.UUID) (bool, error) {
	return r.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM access_requests
			WHERE specifier_id = $1 AND producer_id = $2 AND status IN ('pending', 'approved')
		)
	`, specifierID, producerID)
}

func (r *pgAccessRequestRepository) HasApproved(ctx context.Context, specifierID, producerID uuid.UUID) (bool, error) {
	return r.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM access_requests
			WHERE specifier_id = $1 AND producer_id = $2 AND status = 'approved'
		)
	`, specifierID, producerID)
}

func (r *pgAccessRequestRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, pkgerrors.Wrap(err, "failed to get transaction")
	}
	var ok bool
	if err := tx.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, pkgerrors.Wrap(err, "failed to check access requests")
	}
	return ok, nil
}

func (r *pgAccessRequestRepository) Create(ctx context.Context, req accessrequest.AccessRequest) (accessrequest.AccessRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return accessrequest.AccessRequest{}, pkgerrors.Wrap(err, "failed to get transaction")
	}

	out, err := scanRequest(tx.QueryRow(ctx, `
		INSERT INTO access_requests AS r (specifier_id, producer_id, status, message)
		VALUES ($1, $2, 'pending', $3)
		RETURNING `+requestColumns,
		req.SpecifierID(), req.ProducerID(), req.Message(),
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activePairKey {
			return accessrequest.AccessRequest{}, fmt.Errorf("%w: specifier %s already has an active request for producer %s",
				serrors.ErrDuplicateRequest, req.SpecifierID(), req.ProducerID())
		}
		return accessrequest.AccessRequest{}, pkgerrors.Wrap(err, "failed to create access request")
	}
	return out, nil
}

func (r *pgAccessRequestRepository) Resolve(ctx context.Context, producerID, id uuid.UUID, status accessrequest.Status) (accessrequest.AccessRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return accessrequest.AccessRequest{}, pkgerrors.Wrap(err, "failed to get transaction")
	}

	out, err := scanRequest(tx.QueryRow(ctx, `
		UPDATE access_requests AS r
		SET status = $3, resolved_at = now()
		WHERE r.id = $1 AND r.producer_id = $2 AND r.status = 'pending'
		RETURNING `+requestColumns,
		id, producerID, string(status),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accessrequest.AccessRequest{}, fmt.Errorf("%w: access request %s is no longer pending", serrors.ErrInvalidStateTransition, id)
		}
		return accessrequest.AccessRequest{}, pkgerrors.Wrap(err, "failed to resolve access request")
	}
	return out, nil
}

func (r *pgAccessRequestRepository) ListBySpecifier(ctx context.Context, specifierID uuid.UUID, producerIDs []uuid.UUID) ([]accessrequest.AccessRequest, error) {
	if len(producerIDs) == 0 {
		return nil, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, `
		SELECT `+requestColumns+`
		FROM access_requests r
		WHERE r.specifier_id = $1 AND r.producer_id = ANY($2)
		ORDER BY r.created_at DESC
	`, specifierID, pgtype.FlatArray[uuid.UUID](producerIDs))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query access requests")
	}
	defer rows.Close()

	var out []accessrequest.AccessRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to scan access request")
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "error iterating access requests")
	}
	return out, nil
}

func (r *pgAccessRequestRepository) ListForProducer(ctx context.Context, producerID uuid.UUID) ([]accessrequest.WithRequester, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, `
		SELECT `+requestColumns+`,
			COALESCE(p.display_name, ''),
			COALESCE(p.company_name, ''),
			COALESCE(p.city, '')
		FROM access_requests r
		LEFT JOIN specifier_profiles p ON p.id = r.specifier_id
		WHERE r.producer_id = $1
		ORDER BY r.created_at DESC
	`, producerID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query incoming access requests")
	}
	defer rows.Close()

	var out []accessrequest.WithRequester
	for rows.Next() {
		var (
			id, specifierID, producer uuid.UUID
			status, message           string
			createdAt                 time.Time
			resolvedAt                *time.Time
			requester                 accessrequest.Requester
		)
		if err := rows.Scan(
			&id,
			&specifierID,
			&producer,
			&status,
			&message,
			&createdAt,
			&resolvedAt,
			&requester.DisplayName,
			&requester.CompanyName,
			&requester.City,
		); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to scan incoming access request")
		}
		requester.ID = specifierID
		out = append(out, accessrequest.WithRequester{
			Request:   hydrateRequest(id, specifierID, producer, status, message, createdAt, resolvedAt),
			Requester: requester,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "error iterating incoming access requests")
	}
	return out, nil
}

func scanRequest(row pgx.Row) (accessrequest.AccessRequest, error) {
	var (
		id, specifierID, producerID uuid.UUID
		status, message             string
		createdAt                   time.Time
		resolvedAt                  *time.Time
	)
	if err := row.Scan(&id, &specifierID, &producerID, &status, &message, &createdAt, &resolvedAt); err != nil {
		return accessrequest.AccessRequest{}, err
	}
	return hydrateRequest(id, specifierID, producerID, status, message, createdAt, resolvedAt), nil
}

func hydrateRequest(id, specifierID, producerID uuid.UUID, status, message string, createdAt time.Time, resolvedAt *time.Time) accessrequest.AccessRequest {
	var resolved time.Time
	if resolvedAt != nil {
		resolved = *resolvedAt
	}
	return accessrequest.Hydrate(id, specifierID, producerID, accessrequest.Status(status), message, createdAt, resolved)
}
