package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/archmarket/platform/modules/fulfillment/domain/aggregates/order"
	"github.com/archmarket/platform/pkg/composables"
	"github.com/archmarket/platform/pkg/metrics"
	"github.com/archmarket/platform/pkg/serrors"
)

const engine = "fulfillment"

type TrackerService struct {
	orders order.Repository
	logger *logrus.Logger
}

func NewTrackerService(orders order.Repository, logger *logrus.Logger) *TrackerService {
	return &TrackerService{
		orders: orders,
		logger: logger,
	}
}

// Pipeline loads the order and derives its display pipeline. Drafts yield an
// empty pipeline rather than an error.
func (s *TrackerService) Pipeline(ctx context.Context, orderID uuid.UUID) (order.Pipeline, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	result := "ok"
	if err != nil {
		err = serrors.Store(err)
		if result = serrors.Code(err); result == "" {
			result = "INTERNAL"
		}
	}
	metrics.Transition(engine, "pipeline", result)
	if err != nil {
		return order.Pipeline{}, err
	}

	p := order.DerivePipeline(o)
	composables.TryUseLogger(ctx, s.logger).WithFields(logrus.Fields{
		"order_id": o.ID,
		"status":   o.Status,
		"progress": p.Progress,
	}).Debug("order pipeline derived")
	return p, nil
}
