package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository/repotest"
)

func TestAlertService_Evaluate(t *testing.T) {
	alerts := &repotest.Alerts{}
	svc := NewAlertService(alerts, repotest.NewProducts(), &repotest.Activity{}, 10)
	ctx := context.Background()

	created, err := svc.Evaluate(ctx, entity.ProductStockUpdated{ProductID: "p1", Name: "Croissant", NewStock: 11})
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.Evaluate(ctx, entity.ProductStockUpdated{ProductID: "p1", Name: "Croissant", NewStock: 10})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Evaluate(ctx, entity.ProductStockUpdated{ProductID: "p1", Name: "Croissant", NewStock: 3})
	require.NoError(t, err)
	assert.False(t, created, "open alert already exists")

	require.Len(t, alerts.Alerts, 1)
	assert.Equal(t, 10, alerts.Alerts[0].Threshold)
	assert.Equal(t, 10, alerts.Alerts[0].Stock)
}

func TestAlertService_ResolveThenReopen(t *testing.T) {
	alerts := &repotest.Alerts{}
	activity := &repotest.Activity{}
	svc := NewAlertService(alerts, repotest.NewProducts(), activity, 5)
	ctx := context.Background()

	payload, err := json.Marshal(entity.ProductStockUpdated{ProductID: "p1", Name: "Cake", NewStock: 0})
	require.NoError(t, err)
	require.NoError(t, svc.HandleStockUpdated(ctx, payload))
	require.Len(t, alerts.Alerts, 1)

	resolved, err := svc.Resolve(ctx, staff, alerts.Alerts[0].ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, []string{"alert.resolve"}, activity.Actions())

	_, err = svc.Resolve(ctx, staff, alerts.Alerts[0].ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	require.NoError(t, svc.HandleStockUpdated(ctx, payload))
	assert.Len(t, alerts.Alerts, 2)

	open := false
	list, err := svc.List(ctx, &open)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAlertService_HandleStockUpdatedRejectsGarbage(t *testing.T) {
	svc := NewAlertService(&repotest.Alerts{}, repotest.NewProducts(), &repotest.Activity{}, 5)
	assert.Error(t, svc.HandleStockUpdated(context.Background(), []byte("{")))
}

func TestAlertService_Scan(t *testing.T) {
	alerts := &repotest.Alerts{}
	products := repotest.NewProducts(
		&entity.Product{ID: "p1", Name: "Cake", Stock: 2, Active: true},
		&entity.Product{ID: "p2", Name: "Croissant", Stock: 40, Active: true},
		&entity.Product{ID: "p3", Name: "Empanada", Stock: 0, Active: false},
		&entity.Product{ID: "p4", Name: "Baguette", Stock: 10, Active: true},
	)
	svc := NewAlertService(alerts, products, &repotest.Activity{}, 10)

	opened, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, opened)

	opened, err = svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, opened)
}
