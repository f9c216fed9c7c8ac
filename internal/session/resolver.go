// Package session turns raw access tokens into resolved sessions.
//
// Role and permission sets are re-derived from the local role store on
// every resolution; provider tokens establish identity only. A role
// granted to a user takes effect on their next request without
// re-authentication.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/impulso-galeria/auth-service/internal/domain"
	"github.com/impulso-galeria/auth-service/internal/oauth"
	"github.com/impulso-galeria/auth-service/internal/repository"
)

// CartProvisioner ensures a user has an active cart after re-entry.
// Failures are logged and swallowed; they never fail the refresh itself.
type CartProvisioner interface {
	EnsureCart(ctx context.Context, customerID string) error
}

// Resolver resolves sessions from provider-issued credentials.
type Resolver struct {
	provider oauth.ProviderClient
	users    repository.UserRepository
	rbac     repository.RBACRepository
	cart     CartProvisioner
	logger   *zap.Logger
	tracer   trace.Tracer

	// refreshGroup collapses concurrent refreshes of the same refresh
	// token into a single in-flight provider call. Refresh tokens are
	// single-use: without this, the second of two concurrent requests
	// would consume an already-rotated token and fail spuriously.
	refreshGroup singleflight.Group
}

// NewResolver wires the session resolver.
func NewResolver(provider oauth.ProviderClient, users repository.UserRepository, rbac repository.RBACRepository, cart CartProvisioner, logger *zap.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		users:    users,
		rbac:     rbac,
		cart:     cart,
		logger:   logger,
		tracer:   otel.Tracer("internal/session"),
	}
}

// GetSessionByAccessToken validates the token with the provider and builds
// a Session from the local user and role store. An invalid, expired or
// revoked token resolves to (nil, nil): that is a normal outcome, never an
// error. Errors are reserved for provider or store failures.
func (r *Resolver) GetSessionByAccessToken(ctx context.Context, token string) (*domain.Session, error) {
	ctx, span := r.tracer.Start(ctx, "Resolver.GetSessionByAccessToken")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	intro, err := r.provider.Introspect(ctx, token)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("introspect access token: %w", err)
	}
	if !intro.Active || intro.Subject == "" {
		return nil, nil
	}

	user, err := r.users.GetByCustomerID(ctx, intro.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Token is live but no local user exists yet; provisioning
			// on first sight happens in the callback flow, not here.
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if !user.IsActive {
		return nil, nil
	}

	roles, permissions, err := r.loadGrants(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &domain.Session{
		User: user,
		Tokens: domain.TokenSet{
			AccessToken: token,
			ExpiresAt:   intro.ExpiresAt,
		},
		Roles:       roles,
		Permissions: permissions,
	}, nil
}

// HasPermission re-derives the user's permission set and tests membership.
// No caching: the answer always reflects current role assignments.
func (r *Resolver) HasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	perms, err := r.rbac.PermissionsForUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load permissions: %w", err)
	}
	for _, p := range perms {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

// RefreshSession rotates the refresh token with the provider and
// re-resolves the session from the new access token. Concurrent calls with
// the same refresh token share one provider round trip and one outcome.
// Returns ErrRefreshFailed when the provider rejects the token; the caller
// must redirect to a fresh login.
func (r *Resolver) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: empty refresh token", domain.ErrRefreshFailed)
	}

	result, err, _ := r.refreshGroup.Do(refreshToken, func() (any, error) {
		return r.doRefresh(ctx, refreshToken)
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(*domain.Session), nil
}

func (r *Resolver) doRefresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	ctx, span := r.tracer.Start(ctx, "Resolver.RefreshSession")
	defer span.End()

	tok, err := r.provider.Refresh(ctx, refreshToken)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrRefreshFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("refresh tokens: %w", err)
	}

	sess, err := r.GetSessionByAccessToken(ctx, tok.AccessToken)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	sess.Tokens.RefreshToken = tok.RefreshToken
	if exp := tok.ExpiresAt(time.Now()); tok.ExpiresIn > 0 {
		sess.Tokens.ExpiresAt = exp
	}

	if r.cart != nil {
		if err := r.cart.EnsureCart(ctx, sess.User.CustomerID); err != nil {
			r.logger.Warn("cart provisioning after refresh failed",
				zap.String("customer_id", sess.User.CustomerID),
				zap.Error(err),
			)
		}
	}

	return sess, nil
}

func (r *Resolver) loadGrants(ctx context.Context, userID int64) (roles, permissions []string, err error) {
	roles, err = r.rbac.RolesForUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load roles: %w", err)
	}
	permissions, err = r.rbac.PermissionsForUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load permissions: %w", err)
	}
	return roles, permissions, nil
}
