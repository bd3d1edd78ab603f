package usecase

import (
	"context"
	"testing"

	"fulfillment/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.product(t, "Pen", "2.50", 4)

	out, err := f.products.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pen", out.Name)
	assert.Equal(t, "2.5", out.Price.String())
	assert.False(t, out.IsInStock)
	assert.True(t, out.IsLowStock)

	f.editProduct(t, p.ID, func(p *model.Product) { p.IsActive = false })
	_, err = f.products.GetProduct(ctx, p.ID)
	requireKind(t, err, KindNotFound, CodeNotFound)

	_, err = f.products.GetProduct(ctx, 0)
	requireKind(t, err, KindValidation, CodeInvalidInput)
}

func TestListLowStock(t *testing.T) {
	f := newFixture(t)

	low := f.product(t, "Low", "1.00", 2)
	f.product(t, "Empty", "1.00", 0)
	f.product(t, "Edge", "1.00", testThreshold)
	f.product(t, "Plenty", "1.00", 50)

	out, err := f.products.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, low.ID, out[0].ID)
	assert.Equal(t, testThreshold, f.products.Threshold())
}
