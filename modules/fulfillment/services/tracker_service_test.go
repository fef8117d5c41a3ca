package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archmarket/platform/modules/fulfillment/domain/aggregates/order"
	"github.com/archmarket/platform/pkg/serrors"
)

type fakeOrders struct {
	orders map[uuid.UUID]order.Order
	err    error
}

func (f *fakeOrders) GetByID(_ context.Context, id uuid.UUID) (order.Order, error) {
	if f.err != nil {
		return order.Order{}, f.err
	}
	o, ok := f.orders[id]
	if !ok {
		return order.Order{}, fmt.Errorf("%w: %s", order.ErrNotFound, id)
	}
	return o, nil
}

func newTracker(orders ...order.Order) (*TrackerService, *fakeOrders) {
	repo := &fakeOrders{orders: map[uuid.UUID]order.Order{}}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewTrackerService(repo, logger), repo
}

func TestTrackerService_Pipeline_ReceivedAndPaid(t *testing.T) {
	received := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	paid := received.Add(2 * time.Hour)
	o := order.Order{ID: uuid.New(), Status: order.StatusConfirmed, ReceivedAt: &received, PaymentConfirmedAt: &paid}
	svc, _ := newTracker(o)

	p, err := svc.Pipeline(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, p.Steps, 5)
	assert.True(t, p.Steps[0].Completed)
	assert.True(t, p.Steps[1].Completed)
	assert.True(t, p.Steps[2].Current)
	assert.False(t, p.Steps[3].Current)
	assert.False(t, p.Steps[4].Current)
	assert.InDelta(t, 0.5, p.Progress, 1e-9)
}

func TestTrackerService_Pipeline_Draft(t *testing.T) {
	o := order.Order{ID: uuid.New(), Status: order.StatusDraft}
	svc, _ := newTracker(o)

	p, err := svc.Pipeline(context.Background(), o.ID)
	require.NoError(t, err)
	assert.False(t, p.Visible())
}

func TestTrackerService_Pipeline_NotFound(t *testing.T) {
	svc, _ := newTracker()

	_, err := svc.Pipeline(context.Background(), uuid.New())
	require.ErrorIs(t, err, serrors.ErrNotFound)
}

func TestTrackerService_Pipeline_StoreFailureIsTransient(t *testing.T) {
	svc, repo := newTracker()
	repo.err = errors.New("connection reset by peer")

	_, err := svc.Pipeline(context.Background(), uuid.New())
	require.ErrorIs(t, err, serrors.ErrTransientStore)
}
