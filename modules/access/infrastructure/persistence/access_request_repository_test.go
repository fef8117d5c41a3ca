package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/archmarket/platform/modules/access/domain/aggregates/accessrequest"
	"github.com/archmarket/platform/pkg/constants"
	"github.com/archmarket/platform/pkg/repo/repotest"
	"github.com/archmarket/platform/pkg/serrors"
)

func withTx(tx *repotest.Tx) context.Context {
	return context.WithValue(context.Background(), constants.TxKey, tx)
}

func TestAccessRequestRepository_Create_MapsActivePairViolation(t *testing.T) {
	tx := &repotest.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "INSERT INTO access_requests")
			return repotest.Row{Err: &pgconn.PgError{Code: "23505", ConstraintName: "access_requests_active_pair_key"}}
		},
	}

	_, err := NewAccessRequestRepository().Create(withTx(tx), accessrequest.New(uuid.New(), uuid.New(), ""))
	require.ErrorIs(t, err, serrors.ErrDuplicateRequest)
}

func TestAccessRequestRepository_Resolve_GuardsOnPendingAndProducer(t *testing.T) {
	id, producer := uuid.New(), uuid.New()
	tx := &repotest.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "WHERE r.id = $1 AND r.producer_id = $2 AND r.status = 'pending'")
			require.Equal(t, []any{id, producer, "refused"}, args)
			return repotest.Row{Err: pgx.ErrNoRows}
		},
	}

	_, err := NewAccessRequestRepository().Resolve(withTx(tx), producer, id, accessrequest.StatusRefused)
	require.ErrorIs(t, err, serrors.ErrInvalidStateTransition)
}

func TestAccessRequestRepository_GetByID(t *testing.T) {
	id, specifier, producer := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()
	tx := &repotest.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return repotest.Row{Values: []any{id, specifier, producer, "approved", "please", now, now}}
		},
	}

	out, err := NewAccessRequestRepository().GetByID(withTx(tx), id)
	require.NoError(t, err)
	require.Equal(t, accessrequest.StatusApproved, out.Status())
	require.Equal(t, now, out.ResolvedAt())
	require.Equal(t, "please", out.Message())
}

func TestAccessRequestRepository_ListBySpecifier(t *testing.T) {
	specifier, producer := uuid.New(), uuid.New()
	tx := &repotest.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "r.producer_id = ANY($2)")
			require.Equal(t, pgtype.FlatArray[uuid.UUID]{producer}, args[1])
			return &repotest.Rows{Data: [][]any{
				{uuid.New(), specifier, producer, "pending", "", time.Now(), nil},
			}}, nil
		},
	}

	out, err := NewAccessRequestRepository().ListBySpecifier(withTx(tx), specifier, []uuid.UUID{producer})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.True(t, out[0].IsPending())

	out, err = NewAccessRequestRepository().ListBySpecifier(withTx(&repotest.Tx{}), specifier, nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestAccessRequestRepository_ListForProducer_ProjectsRequester(t *testing.T) {
	specifier, producer := uuid.New(), uuid.New()
	tx := &repotest.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "LEFT JOIN specifier_profiles p")
			require.Contains(t, sql, "ORDER BY r.created_at DESC")
			return &repotest.Rows{Data: [][]any{
				{uuid.New(), specifier, producer, "pending", "hello", time.Now(), nil, "Ada", "Studio A", "Lyon"},
			}}, nil
		},
	}

	out, err := NewAccessRequestRepository().ListForProducer(withTx(tx), producer)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, specifier, out[0].Requester.ID)
	require.Equal(t, "Studio A", out[0].Requester.CompanyName)
}

func TestProductRepository_ListByProducer(t *testing.T) {
	producer := uuid.New()
	tx := &repotest.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "FROM products")
			return &repotest.Rows{Data: [][]any{
				{uuid.New(), producer, "Slate", "SL-1", "", decimal.NewFromInt(30), "", time.Now()},
			}}, nil
		},
	}

	out, err := NewProductRepository().ListByProducer(withTx(tx), producer)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.True(t, decimal.NewFromInt(30).Equal(out[0].Price))
}
