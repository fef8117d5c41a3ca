package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/archmarket/platform/modules/fulfillment/domain/aggregates/order"
	"github.com/archmarket/platform/pkg/constants"
	"github.com/archmarket/platform/pkg/repo/repotest"
	"github.com/archmarket/platform/pkg/serrors"
)

func withTx(tx *repotest.Tx) context.Context {
	return context.WithValue(context.Background(), constants.TxKey, tx)
}

func TestOrderRepository_GetByID(t *testing.T) {
	id := uuid.New()
	received := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	created := received.Add(-time.Hour)
	tx := &repotest.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "FROM orders")
			require.Equal(t, []any{id}, args)
			return repotest.Row{Values: []any{id, "received", received, nil, nil, nil, nil, created}}
		},
	}

	o, err := NewOrderRepository().GetByID(withTx(tx), id)
	require.NoError(t, err)
	require.Equal(t, order.StatusReceived, o.Status)
	require.NotNil(t, o.ReceivedAt)
	require.True(t, received.Equal(*o.ReceivedAt))
	require.Nil(t, o.PaymentConfirmedAt)
	require.Equal(t, created, o.CreatedAt)
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	tx := &repotest.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return repotest.Row{Err: pgx.ErrNoRows}
		},
	}

	_, err := NewOrderRepository().GetByID(withTx(tx), uuid.New())
	require.ErrorIs(t, err, serrors.ErrNotFound)
	require.ErrorIs(t, err, order.ErrNotFound)
}
