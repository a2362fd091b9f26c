package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository backed by Postgres.
func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Summary(ctx context.Context) (*entity.Stats, error) {
	var s entity.Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'cancelled'),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM customers WHERE active),
			(SELECT COUNT(*) FROM products WHERE active)`,
	).Scan(&s.Sales, &s.Orders, &s.Customers, &s.Products)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return &s, nil
}
