package repository

import (
	"context"

	"github.com/impulso-galeria/auth-service/internal/domain"
)

// UserRepository persists application users keyed by the commerce
// platform's customer identifier.
type UserRepository interface {
	GetByCustomerID(ctx context.Context, customerID string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
	SetActive(ctx context.Context, userID int64, active bool) error
	List(ctx context.Context) ([]domain.User, error)
}

// RBACRepository reads and mutates role assignments. Permission reads are
// always live: callers rely on role changes taking effect on the next
// request without re-authentication.
type RBACRepository interface {
	RolesForUser(ctx context.Context, userID int64) ([]string, error)
	PermissionsForUser(ctx context.Context, userID int64) ([]string, error)
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)
	ListRoles(ctx context.Context) ([]domain.Role, error)
	AssignRole(ctx context.Context, userID, roleID int64, assignedBy string) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
}
