package persistence

import (
	"context"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/archmarket/platform/modules/access/domain/entities/product"
	"github.com/archmarket/platform/pkg/composables"
)

type pgProductRepository struct{}

func NewProductRepository() product.Repository {
	return &pgProductRepository{}
}

func (r *pgProductRepository) ListByProducer(ctx context.Context, producerID uuid.UUID) ([]product.Product, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, `
		SELECT id, producer_id, name, reference, description, price, technical_sheet_url, created_at
		FROM products
		WHERE producer_id = $1
		ORDER BY name, id
	`, producerID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to query products")
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(
			&p.ID,
			&p.ProducerID,
			&p.Name,
			&p.Reference,
			&p.Description,
			&p.Price,
			&p.TechnicalSheetURL,
			&p.CreatedAt,
		); err != nil {
			return nil, pkgerrors.Wrap(err, "failed to scan product")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "error iterating products")
	}
	return out, nil
}
