package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new ActivityRepository backed by Postgres.
func NewActivityRepository(db *sql.DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(ctx context.Context, e *entity.ActivityEntry) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO activity_log (id, user_id, action, module, entity_id, detail, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING",
		e.ID, e.UserID, e.Action, e.Module, e.EntityID, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}

func (r *activityRepository) FindRecent(ctx context.Context, limit int) ([]entity.ActivityEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, action, module, entity_id, detail, created_at FROM activity_log ORDER BY created_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var entries []entity.ActivityEntry
	for rows.Next() {
		var e entity.ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Module, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
