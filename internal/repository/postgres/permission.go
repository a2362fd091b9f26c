package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MelannyAlzate/VinsBakery/internal/access"
	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

type permissionRepository struct {
	db *sql.DB
}

// NewPermissionRepository creates a new PermissionRepository backed by Postgres.
func NewPermissionRepository(db *sql.DB) repository.PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) FindAll(ctx context.Context) ([]access.Permission, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT role, module, can_view, can_create, can_edit, can_delete FROM role_permissions ORDER BY role, module")
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	var perms []access.Permission
	for rows.Next() {
		var (
			p    access.Permission
			role string
		)
		if err := rows.Scan(&role, &p.Module, &p.View, &p.Create, &p.Edit, &p.Delete); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		p.Role = entity.Role(role)
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *permissionRepository) Seed(ctx context.Context, perms []access.Permission) error {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM role_permissions").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range perms {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO role_permissions (role, module, can_view, can_create, can_edit, can_delete) VALUES ($1, $2, $3, $4, $5, $6)",
			p.Role, p.Module, p.View, p.Create, p.Edit, p.Delete,
		)
		if err != nil {
			return fmt.Errorf("failed to seed permission %s/%s: %w", p.Role, p.Module, err)
		}
	}
	return tx.Commit()
}
