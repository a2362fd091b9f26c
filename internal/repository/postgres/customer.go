package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new CustomerRepository backed by Postgres.
func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = "id, name, phone, email, loyalty_tier, discount_percent, purchase_count, amount_spent, birth_date, approval_status, active, created_at"

func scanCustomer(row rowScanner) (*entity.Customer, error) {
	var (
		c     entity.Customer
		birth sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Tier, &c.DiscountPercent, &c.PurchaseCount, &c.AmountSpent, &birth, &c.Approval, &c.Active, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if birth.Valid {
		d := entity.NewDate(birth.Time.Year(), birth.Time.Month(), birth.Time.Day())
		c.BirthDate = &d
	}
	return &c, nil
}

func birthDateArg(d *entity.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func (r *customerRepository) FindAll(ctx context.Context) ([]entity.Customer, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+customerColumns+" FROM customers WHERE active ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *customerRepository) findOne(ctx context.Context, where string, arg any) (*entity.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customers WHERE active AND "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFound("customer")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return c, nil
}

func (r *customerRepository) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *customerRepository) FindByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	return r.findOne(ctx, "phone = $1", phone)
}

func (r *customerRepository) Create(ctx context.Context, c *entity.Customer) error {
	return insertCustomer(ctx, r.db, c)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertCustomer(ctx context.Context, db execer, c *entity.Customer) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO customers (id, name, phone, email, loyalty_tier, discount_percent, purchase_count, amount_spent, birth_date, approval_status, active, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
		c.ID, c.Name, c.Phone, c.Email, c.Tier, c.DiscountPercent, c.PurchaseCount, c.AmountSpent, birthDateArg(c.BirthDate), c.Approval, c.Active, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("phone already registered: %w", entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

func (r *customerRepository) Approve(ctx context.Context, id string) (*entity.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		"UPDATE customers SET approval_status = $1 WHERE id = $2 AND active RETURNING "+customerColumns,
		entity.ApprovalApproved, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFound("customer")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to approve customer: %w", err)
	}
	return c, nil
}
