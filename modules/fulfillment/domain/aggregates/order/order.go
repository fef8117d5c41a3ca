package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/archmarket/platform/pkg/serrors"
)

type Status string

const (
	StatusDraft        Status = "draft"
	StatusSent         Status = "sent"
	StatusReceived     Status = "received"
	StatusConfirmed    Status = "confirmed"
	StatusInProduction Status = "in_production"
	StatusShipped      Status = "shipped"
	StatusDelivered    Status = "delivered"
	StatusCancelled    Status = "cancelled"
)

var ErrNotFound = fmt.Errorf("%w: order", serrors.ErrNotFound)

// Order carries the milestone timestamps external processes set
// independently. A nil milestone has not happened yet.
type Order struct {
	ID                  uuid.UUID
	Status              Status
	ReceivedAt          *time.Time
	PaymentConfirmedAt  *time.Time
	ManufacturingDoneAt *time.Time
	ShippingDoneAt      *time.Time
	DeliveredAt         *time.Time
	CreatedAt           time.Time
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Order, error)
}
