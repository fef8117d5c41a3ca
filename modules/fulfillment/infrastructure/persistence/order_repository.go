package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pkgerrors "github.com/pkg/errors"

	"github.com/archmarket/platform/modules/fulfillment/domain/aggregates/order"
	"github.com/archmarket/platform/pkg/composables"
)

const selectOrderQuery = `
	SELECT id, status, received_at, payment_confirmed_at, manufacturing_done_at,
	       shipping_done_at, delivered_at, created_at
	  FROM orders
	 WHERE id = $1`

type pgOrderRepository struct{}

func NewOrderRepository() order.Repository {
	return &pgOrderRepository{}
}

func (r *pgOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (order.Order, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return order.Order{}, pkgerrors.Wrap(err, "failed to get transaction")
	}

	var (
		o      order.Order
		status string
	)
	err = tx.QueryRow(ctx, selectOrderQuery, id).Scan(
		&o.ID,
		&status,
		&o.ReceivedAt,
		&o.PaymentConfirmedAt,
		&o.ManufacturingDoneAt,
		&o.ShippingDoneAt,
		&o.DeliveredAt,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, fmt.Errorf("%w: %s", order.ErrNotFound, id)
		}
		return order.Order{}, pkgerrors.Wrap(err, "failed to get order")
	}
	o.Status = order.Status(status)
	return o, nil
}
