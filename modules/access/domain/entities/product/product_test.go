package product

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate(t *testing.T) {
	t.Parallel()

	products := []Product{{
		ID:                uuid.New(),
		ProducerID:        uuid.New(),
		Name:              "Oak panel",
		Reference:         "OAK-01",
		Description:       "Solid oak",
		Price:             decimal.RequireFromString("129.90"),
		TechnicalSheetURL: "https://example.test/oak.pdf",
	}}

	masked := Gate(products, false)
	require.Len(t, masked, 1)
	assert.True(t, masked[0].Masked)
	assert.Equal(t, "Oak panel", masked[0].Name)
	assert.Nil(t, masked[0].Price)
	assert.Empty(t, masked[0].Reference)
	assert.Empty(t, masked[0].Description)
	assert.Empty(t, masked[0].TechnicalSheetURL)

	full := Gate(products, true)
	require.Len(t, full, 1)
	assert.False(t, full[0].Masked)
	require.NotNil(t, full[0].Price)
	assert.Equal(t, "129.9", full[0].Price.String())
	assert.Equal(t, "OAK-01", full[0].Reference)
}

func TestGate_EmptyCatalog(t *testing.T) {
	t.Parallel()

	out := Gate(nil, true)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
