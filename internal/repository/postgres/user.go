package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository backed by Postgres.
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func insertUser(ctx context.Context, db execer, u *entity.User) error {
	var customerID sql.NullString
	if u.CustomerID != "" {
		customerID = sql.NullString{String: u.CustomerID, Valid: true}
	}
	_, err := db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, role, customer_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, customerID, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("email already registered: %w", entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, u *entity.User) error {
	return insertUser(ctx, r.db, u)
}

func (r *userRepository) CreateWithCustomer(ctx context.Context, u *entity.User, c *entity.Customer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertCustomer(ctx, tx, c); err != nil {
		return err
	}
	u.CustomerID = c.ID
	if err := insertUser(ctx, tx, u); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var (
		u          entity.User
		customerID sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, role, customer_id, created_at FROM users WHERE email = $1",
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &customerID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.CustomerID = customerID.String
	return &u, nil
}
