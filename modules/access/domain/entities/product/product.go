package product

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID                uuid.UUID
	ProducerID        uuid.UUID
	Name              string
	Reference         string
	Description       string
	Price             decimal.Decimal
	TechnicalSheetURL string
	CreatedAt         time.Time
}

// Entry is a product as a specifier sees it. Masked entries keep the name and
// identity but drop commercial detail.
type Entry struct {
	ID                uuid.UUID        `json:"id"`
	ProducerID        uuid.UUID        `json:"producer_id"`
	Name              string           `json:"name"`
	Reference         string           `json:"reference,omitempty"`
	Description       string           `json:"description,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	TechnicalSheetURL string           `json:"technical_sheet_url,omitempty"`
	Masked            bool             `json:"masked"`
}

// Gate renders products for a viewer. Without full access every entry is
// masked; products are never hidden.
func Gate(products []Product, fullAccess bool) []Entry {
	out := make([]Entry, 0, len(products))
	for _, p := range products {
		e := Entry{
			ID:         p.ID,
			ProducerID: p.ProducerID,
			Name:       p.Name,
			Masked:     !fullAccess,
		}
		if fullAccess {
			price := p.Price
			e.Reference = p.Reference
			e.Description = p.Description
			e.Price = &price
			e.TechnicalSheetURL = p.TechnicalSheetURL
		}
		out = append(out, e)
	}
	return out
}

type Repository interface {
	ListByProducer(ctx context.Context, producerID uuid.UUID) ([]Product, error)
}
