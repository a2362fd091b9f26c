package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/messaging"
	"github.com/MelannyAlzate/VinsBakery/internal/metrics"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

// OrderService orchestrates order placement and the order lifecycle.
type OrderService struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	publisher messaging.Publisher
	activity  ActivityRecorder
	discounts entity.DiscountPolicy
	now       func() time.Time

	placed   prometheus.Counter
	rejected prometheus.Counter
}

func NewOrderService(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	publisher messaging.Publisher,
	activity ActivityRecorder,
	discounts entity.DiscountPolicy,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		orders:    orders,
		customers: customers,
		publisher: publisher,
		activity:  activity,
		discounts: discounts,
		now:       time.Now,
		placed:    m.OrdersPlaced,
		rejected:  m.InsufficientStock,
	}
}

// PlaceOrder validates cmd, applies the customer's effective discount and
// stores the order with its stock decrements in one transaction. Activity and
// events are emitted only after the commit and never fail the call.
func (s *OrderService) PlaceOrder(ctx context.Context, caller *entity.Caller, cmd *entity.PlaceOrder) (*entity.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if caller.Role == entity.RoleCustomer && cmd.CustomerID != caller.CustomerID {
		return nil, forbidden("customers can only order for themselves")
	}

	customer, err := s.customers.FindByID(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}
	if caller.Role == entity.RoleCustomer && !customer.Approved() {
		return nil, entity.ErrCustomerNotApproved
	}

	now := s.now().UTC()
	draft := &entity.OrderDraft{
		ID:              uuid.New().String(),
		CustomerID:      customer.ID,
		Lines:           cmd.Lines,
		Notes:           cmd.Notes,
		DiscountPercent: s.discounts.Effective(customer.DiscountPercent, customer.BirthDate, now),
		CreatedAt:       now,
	}

	order, stock, err := s.orders.PlaceOrder(ctx, draft)
	if err != nil {
		var stockErr *entity.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.rejected.Inc()
			slog.Info("Order rejected", "customer_id", customer.ID, "product_id", stockErr.ProductID, "available", stockErr.Available, "requested", stockErr.Requested)
		}
		return nil, err
	}
	order.CustomerName = customer.Name
	order.CustomerTier = customer.Tier

	s.placed.Inc()
	slog.Info("Order placed", "order_id", order.ID, "customer_id", customer.ID, "items", len(order.Items), "total", entity.Display(order.Total))

	s.activity.Record(ctx, entity.ActivityEntry{
		UserID:   caller.UserID,
		Action:   "order.create",
		Module:   "orders",
		EntityID: order.ID,
		Detail:   fmt.Sprintf("%d items, total %s", len(order.Items), entity.Display(order.Total)),
	})

	placedEvent := entity.OrderPlaced{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Items:      order.Items,
		Total:      order.Total,
		PlacedAt:   order.CreatedAt,
	}
	publish(ctx, s.publisher, entity.TopicOrdersPlaced, order.ID, placedEvent)
	publishStock(ctx, s.publisher, stock)

	return order, nil
}

// ListOrders returns the latest orders. Customers only see their own.
func (s *OrderService) ListOrders(ctx context.Context, caller *entity.Caller, limit int) ([]entity.Order, error) {
	customerID := ""
	if caller.Role == entity.RoleCustomer {
		customerID = caller.CustomerID
		if customerID == "" {
			return []entity.Order{}, nil
		}
	}
	return s.orders.FindRecent(ctx, clampLimit(limit), customerID)
}

// GetOrder returns one order with its lines. Another customer's order looks
// like a missing one.
func (s *OrderService) GetOrder(ctx context.Context, caller *entity.Caller, id string) (*entity.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == entity.RoleCustomer && order.CustomerID != caller.CustomerID {
		return nil, entity.NotFound("order")
	}
	return order, nil
}

// UpdateStatus moves an order through its lifecycle.
func (s *OrderService) UpdateStatus(ctx context.Context, caller *entity.Caller, id string, status string) (*entity.Order, error) {
	next, err := entity.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	change, err := s.orders.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	slog.Info("Order status changed", "order_id", id, "from", change.From, "to", next)
	s.activity.Record(ctx, entity.ActivityEntry{
		UserID:   userID(caller),
		Action:   "order.status",
		Module:   "orders",
		EntityID: id,
		Detail:   fmt.Sprintf("%s -> %s", change.From, next),
	})

	event := entity.OrderStatusChanged{OrderID: id, From: change.From, To: next, ChangedAt: now}
	publish(ctx, s.publisher, entity.TopicOrderStatusChanged, id, event)
	for i := range change.Restocked {
		change.Restocked[i].UpdatedAt = now
	}
	publishStock(ctx, s.publisher, change.Restocked)

	return change.Order, nil
}
