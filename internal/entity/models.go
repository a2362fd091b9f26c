package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// ParseRole converts a stored or claimed role string into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleStaff, RoleCustomer:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Caller is the authenticated principal behind a request.
type Caller struct {
	UserID     string
	Role       Role
	CustomerID string // only set for customer-role users
}

// User is an account that can log into the API.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CustomerID   string    `json:"customer_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoyaltyTier classifies customers by lifetime purchases.
type LoyaltyTier string

const (
	TierBronze LoyaltyTier = "Bronze"
	TierSilver LoyaltyTier = "Silver"
	TierGold   LoyaltyTier = "Gold"
)

// ApprovalStatus tracks customer onboarding.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
)

// Customer is a bakery customer with loyalty data.
type Customer struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	Tier            LoyaltyTier     `json:"loyalty_tier"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	PurchaseCount   int             `json:"purchase_count"`
	AmountSpent     decimal.Decimal `json:"amount_spent"`
	BirthDate       *Date           `json:"birth_date,omitempty"`
	Approval        ApprovalStatus  `json:"approval_status"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Approved reports whether the customer finished onboarding.
func (c *Customer) Approved() bool {
	return c.Approval == ApprovalApproved
}

// Product represents a product in the catalog.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
}

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return st, nil
	}
	return "", &ValidationError{Fields: []string{"status"}, Msg: fmt.Sprintf("unknown order status %q", s)}
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is a line item within an order. Name and UnitPrice are snapshots
// taken when the order was placed.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order represents a customer order.
type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name,omitempty"`
	CustomerTier    LoyaltyTier     `json:"loyalty_tier,omitempty"`
	Items           []OrderItem     `json:"items,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	Notes           string          `json:"notes"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// StockAlert records that a product dropped to or below the low-stock threshold.
type StockAlert struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"product_id"`
	ProductName string     `json:"product_name"`
	Threshold   int        `json:"threshold"`
	Stock       int        `json:"stock"`
	Resolved    bool       `json:"resolved"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// ActivityEntry is one line of the audit trail.
type ActivityEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Module    string    `json:"module"`
	EntityID  string    `json:"entity_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats is the dashboard summary.
type Stats struct {
	Sales     decimal.Decimal `json:"sales"`
	Orders    int             `json:"orders"`
	Customers int             `json:"customers"`
	Products  int             `json:"products"`
}

// --- Commands ---

// OrderLine is one requested (product, quantity) pair. Name and UnitPrice are
// optional snapshot values supplied by the client.
type OrderLine struct {
	ProductID string           `json:"product_id"`
	Name      string           `json:"name"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Quantity  int              `json:"quantity"`
}

// MaxLineQuantity caps a single order line.
const MaxLineQuantity = 10000

// PlaceOrder is a command to create a new order.
type PlaceOrder struct {
	CustomerID string      `json:"customer_id"`
	Lines      []OrderLine `json:"lines"`
	Notes      string      `json:"notes"`
}

// Validate checks the command shape without touching the store.
func (c *PlaceOrder) Validate() error {
	var fields []string
	if c.CustomerID == "" {
		fields = append(fields, "customer_id")
	}
	if len(c.Lines) == 0 {
		fields = append(fields, "lines")
	}
	for i, l := range c.Lines {
		if l.ProductID == "" {
			fields = append(fields, fmt.Sprintf("lines[%d].product_id", i))
		}
		if l.Quantity <= 0 || l.Quantity > MaxLineQuantity {
			fields = append(fields, fmt.Sprintf("lines[%d].quantity", i))
		}
		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			fields = append(fields, fmt.Sprintf("lines[%d].unit_price", i))
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields, Msg: "invalid order request"}
	}
	return nil
}

// OrderDraft is a validated order ready to be persisted. The store fills in
// snapshot gaps and prices it inside the placement transaction.
type OrderDraft struct {
	ID              string
	CustomerID      string
	Lines           []OrderLine
	Notes           string
	DiscountPercent decimal.Decimal
	CreatedAt       time.Time
}

// StatusChange is the outcome of moving an order to a new status.
type StatusChange struct {
	Order     *Order
	From      OrderStatus
	Restocked []ProductStockUpdated
}
