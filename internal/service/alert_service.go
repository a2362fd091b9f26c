package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

// AlertService raises and resolves low-stock alerts.
type AlertService struct {
	alerts    repository.StockAlertRepository
	products  repository.ProductRepository
	activity  ActivityRecorder
	threshold int
	now       func() time.Time
}

func NewAlertService(alerts repository.StockAlertRepository, products repository.ProductRepository, activity ActivityRecorder, threshold int) *AlertService {
	return &AlertService{alerts: alerts, products: products, activity: activity, threshold: threshold, now: time.Now}
}

// Evaluate opens an alert when the reported stock is at or below the
// threshold and the product has no open alert. It reports whether one was
// opened.
func (s *AlertService) Evaluate(ctx context.Context, update entity.ProductStockUpdated) (bool, error) {
	if update.NewStock > s.threshold {
		return false, nil
	}
	created, err := s.alerts.CreateIfAbsent(ctx, &entity.StockAlert{
		ID:          uuid.New().String(),
		ProductID:   update.ProductID,
		ProductName: update.Name,
		Threshold:   s.threshold,
		Stock:       update.NewStock,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return false, err
	}
	if created {
		slog.Info("Stock alert opened", "product_id", update.ProductID, "stock", update.NewStock, "threshold", s.threshold)
	}
	return created, nil
}

// HandleStockUpdated is the broker callback for inventory events.
func (s *AlertService) HandleStockUpdated(ctx context.Context, payload []byte) error {
	var update entity.ProductStockUpdated
	if err := json.Unmarshal(payload, &update); err != nil {
		return fmt.Errorf("failed to unmarshal ProductStockUpdated: %w", err)
	}
	_, err := s.Evaluate(ctx, update)
	return err
}

// Scan evaluates every active product and returns how many alerts it opened.
func (s *AlertService) Scan(ctx context.Context) (int, error) {
	low, err := s.products.FindLowStock(ctx, s.threshold)
	if err != nil {
		return 0, err
	}
	opened := 0
	for _, p := range low {
		created, err := s.Evaluate(ctx, entity.ProductStockUpdated{ProductID: p.ID, Name: p.Name, NewStock: p.Stock})
		if err != nil {
			return opened, err
		}
		if created {
			opened++
		}
	}
	return opened, nil
}

func (s *AlertService) List(ctx context.Context, resolved *bool) ([]entity.StockAlert, error) {
	return s.alerts.FindAll(ctx, resolved)
}

func (s *AlertService) Resolve(ctx context.Context, caller *entity.Caller, id string) (*entity.StockAlert, error) {
	a, err := s.alerts.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, entity.ActivityEntry{UserID: userID(caller), Action: "alert.resolve", Module: "alerts", EntityID: a.ID, Detail: a.ProductName})
	return a, nil
}
