package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

type stockAlertRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewStockAlertRepository creates a new StockAlertRepository backed by Postgres.
func NewStockAlertRepository(db *sql.DB) repository.StockAlertRepository {
	return &stockAlertRepository{db: db, now: time.Now}
}

const alertColumns = "id, product_id, product_name, threshold, stock, resolved, created_at, resolved_at"

func scanAlert(row rowScanner) (*entity.StockAlert, error) {
	var (
		a          entity.StockAlert
		resolvedAt sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.ProductID, &a.ProductName, &a.Threshold, &a.Stock, &a.Resolved, &a.CreatedAt, &resolvedAt); err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		a.ResolvedAt = &resolvedAt.Time
	}
	return &a, nil
}

func (r *stockAlertRepository) CreateIfAbsent(ctx context.Context, a *entity.StockAlert) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO stock_alerts (id, product_id, product_name, threshold, stock, resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT (product_id) WHERE NOT resolved DO NOTHING
		RETURNING id`,
		a.ID, a.ProductID, a.ProductName, a.Threshold, a.Stock, a.CreatedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil // an open alert already exists
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert stock alert: %w", err)
	}
	return true, nil
}

func (r *stockAlertRepository) FindAll(ctx context.Context, resolved *bool) ([]entity.StockAlert, error) {
	query := "SELECT " + alertColumns + " FROM stock_alerts"
	var args []any
	if resolved != nil {
		query += " WHERE resolved = $1"
		args = append(args, *resolved)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock alerts: %w", err)
	}
	defer rows.Close()

	var alerts []entity.StockAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (r *stockAlertRepository) Resolve(ctx context.Context, id string) (*entity.StockAlert, error) {
	a, err := scanAlert(r.db.QueryRowContext(ctx,
		"UPDATE stock_alerts SET resolved = TRUE, resolved_at = $1 WHERE id = $2 AND NOT resolved RETURNING "+alertColumns,
		r.now().UTC(), id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFound("stock alert")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve stock alert: %w", err)
	}
	return a, nil
}
