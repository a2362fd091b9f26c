package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository/repotest"
)

func TestCatalogService_Lifecycle(t *testing.T) {
	products := repotest.NewProducts()
	publisher := &repotest.Publisher{}
	activity := &repotest.Activity{}
	svc := NewCatalogService(products, publisher, activity)
	ctx := context.Background()

	p, err := svc.Create(ctx, staff, ProductInput{Name: " Brioche ", Price: decimal.RequireFromString("3.10"), Stock: 12, Category: "Bread"})
	require.NoError(t, err)
	assert.Equal(t, "Brioche", p.Name)
	assert.True(t, p.Active)

	// Same stock: no inventory event.
	_, err = svc.Update(ctx, staff, p.ID, ProductInput{Name: "Brioche", Price: decimal.RequireFromString("3.30"), Stock: 12})
	require.NoError(t, err)
	assert.Len(t, publisher.Topics(), 1)

	updated, err := svc.Update(ctx, staff, p.ID, ProductInput{Name: "Brioche", Price: decimal.RequireFromString("3.30"), Stock: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Stock)
	require.Len(t, publisher.Events, 2)
	assert.Equal(t, 4, publisher.Events[1].Event.(entity.ProductStockUpdated).NewStock)

	require.NoError(t, svc.Delete(ctx, admin, p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, admin, p.ID), entity.ErrNotFound)

	assert.Equal(t, []string{"product.create", "product.update", "product.update", "product.delete"}, activity.Actions())
}

func TestCatalogService_Validation(t *testing.T) {
	svc := NewCatalogService(repotest.NewProducts(), &repotest.Publisher{}, &repotest.Activity{})

	_, err := svc.Create(context.Background(), staff, ProductInput{Price: decimal.NewFromInt(-1), Stock: -2})
	var v *entity.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, []string{"name", "price", "stock"}, v.Fields)
}

func TestCatalogService_SeedDemoOnlyWhenEmpty(t *testing.T) {
	products := repotest.NewProducts()
	svc := NewCatalogService(products, &repotest.Publisher{}, &repotest.Activity{})

	require.NoError(t, svc.SeedDemo(context.Background()))
	seeded := len(products.ByID)
	assert.NotZero(t, seeded)

	require.NoError(t, svc.SeedDemo(context.Background()))
	assert.Len(t, products.ByID, seeded)
}
