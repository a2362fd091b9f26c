package repository

import (
	"context"

	"github.com/MelannyAlzate/VinsBakery/internal/access"
	"github.com/MelannyAlzate/VinsBakery/internal/entity"
)

// UserRepository handles persistence for login accounts.
type UserRepository interface {
	// Create fails with entity.ErrConflict when the email is taken.
	Create(ctx context.Context, u *entity.User) error
	// CreateWithCustomer stores a customer-role user and its profile atomically.
	CreateWithCustomer(ctx context.Context, u *entity.User, c *entity.Customer) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

// CustomerRepository handles persistence for Customers.
type CustomerRepository interface {
	FindAll(ctx context.Context) ([]entity.Customer, error)
	FindByID(ctx context.Context, id string) (*entity.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*entity.Customer, error)
	Create(ctx context.Context, c *entity.Customer) error
	Approve(ctx context.Context, id string) (*entity.Customer, error)
}

// ProductRepository handles persistence for Products.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	FindLowStock(ctx context.Context, threshold int) ([]entity.Product, error)
	Create(ctx context.Context, p *entity.Product) error
	Update(ctx context.Context, p *entity.Product) error
	Deactivate(ctx context.Context, id string) error
	// Seed inserts initial products if none exist.
	Seed(ctx context.Context, products []entity.Product) error
}

// OrderRepository handles persistence for Orders.
type OrderRepository interface {
	// PlaceOrder decrements stock, prices the draft and stores header and
	// lines in one transaction. It returns the new stock level of every
	// product touched.
	PlaceOrder(ctx context.Context, draft *entity.OrderDraft) (*entity.Order, []entity.ProductStockUpdated, error)
	// FindRecent lists newest orders first; a non-empty customerID filters.
	FindRecent(ctx context.Context, limit int, customerID string) ([]entity.Order, error)
	FindByID(ctx context.Context, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id string, next entity.OrderStatus) (*entity.StatusChange, error)
}

// StockAlertRepository handles persistence for low-stock alerts.
type StockAlertRepository interface {
	// CreateIfAbsent inserts the alert unless the product already has an
	// unresolved one. It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, a *entity.StockAlert) (bool, error)
	FindAll(ctx context.Context, resolved *bool) ([]entity.StockAlert, error)
	Resolve(ctx context.Context, id string) (*entity.StockAlert, error)
}

// PermissionRepository handles the role permission table.
type PermissionRepository interface {
	FindAll(ctx context.Context) ([]access.Permission, error)
	// Seed inserts perms if the table is empty.
	Seed(ctx context.Context, perms []access.Permission) error
}

// ActivityRepository handles the activity log.
type ActivityRepository interface {
	Append(ctx context.Context, e *entity.ActivityEntry) error
	FindRecent(ctx context.Context, limit int) ([]entity.ActivityEntry, error)
}

// StatsRepository computes dashboard figures.
type StatsRepository interface {
	Summary(ctx context.Context) (*entity.Stats, error)
}
