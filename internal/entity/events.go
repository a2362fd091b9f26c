package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event represents a domain event.
type Event interface {
	EventType() string
}

// Topics the service publishes to.
const (
	TopicOrdersPlaced        = "orders.placed"
	TopicOrderStatusChanged  = "orders.status_changed"
	TopicInventoryStockLevel = "inventory.stock_updated"
)

// OrderPlaced is emitted after an order transaction commits.
type OrderPlaced struct {
	OrderID    string          `json:"order_id"`
	CustomerID string          `json:"customer_id"`
	Items      []OrderItem     `json:"items"`
	Total      decimal.Decimal `json:"total"`
	PlacedAt   time.Time       `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// OrderStatusChanged is emitted when an order moves through its lifecycle.
type OrderStatusChanged struct {
	OrderID   string      `json:"order_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedAt time.Time   `json:"changed_at"`
}

func (e OrderStatusChanged) EventType() string { return "OrderStatusChanged" }

// ProductStockUpdated is emitted when product stock changes.
type ProductStockUpdated struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	NewStock  int       `json:"new_stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e ProductStockUpdated) EventType() string { return "ProductStockUpdated" }
