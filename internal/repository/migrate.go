package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/impulso-galeria/auth-service/internal/domain"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		customer_id     TEXT NOT NULL UNIQUE,
		email           TEXT NOT NULL,
		first_name      TEXT NOT NULL DEFAULT '',
		last_name       TEXT NOT NULL DEFAULT '',
		is_active       BOOLEAN NOT NULL DEFAULT true,
		public_profile  BOOLEAN NOT NULL DEFAULT false,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_login_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS permissions (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS role_permissions (
		role_id       BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
		permission_id BIGINT NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
		PRIMARY KEY (role_id, permission_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id     BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role_id     BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
		assigned_by TEXT NOT NULL DEFAULT '',
		assigned_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, role_id)
	)`,
}

// rolePermissionMatrix is the seeded grant matrix. Roles and permissions
// are static reference data, mutated only here.
var rolePermissionMatrix = map[string][]string{
	domain.RoleAdmin: {
		domain.PermManageUsers,
		domain.PermViewFinancialEntries,
		domain.PermManageAllBlogPosts,
		domain.PermViewProducts,
	},
	domain.RoleManager: {
		domain.PermManageUsers,
		domain.PermManageAllBlogPosts,
		domain.PermViewProducts,
	},
	domain.RoleArtist: {
		domain.PermManageOwnInventory,
		domain.PermManageOwnBlogPosts,
		domain.PermViewProducts,
	},
	domain.RoleEmployee: {
		domain.PermViewFinancialEntries,
		domain.PermViewProducts,
	},
	domain.RoleCustomer: {
		domain.PermViewOwnOrders,
		domain.PermViewProducts,
	},
}

// Migrate applies the schema and seeds the role/permission reference data.
// Idempotent: re-running is safe.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	seen := map[string]struct{}{}
	for role, perms := range rolePermissionMatrix {
		if _, err := db.Exec(ctx,
			`INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, role); err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
		for _, perm := range perms {
			if _, ok := seen[perm]; !ok {
				seen[perm] = struct{}{}
				if _, err := db.Exec(ctx,
					`INSERT INTO permissions (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, perm); err != nil {
					return fmt.Errorf("seed permission %s: %w", perm, err)
				}
			}
			if _, err := db.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id)
				SELECT r.id, p.id FROM roles r, permissions p
				WHERE r.name = $1 AND p.name = $2
				ON CONFLICT DO NOTHING`, role, perm); err != nil {
				return fmt.Errorf("seed grant %s/%s: %w", role, perm, err)
			}
		}
	}
	return nil
}
