// Package authz is the single choke point every protected operation
// passes through.
package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/impulso-galeria/auth-service/internal/domain"
)

// SessionSource resolves an access token into a session. Satisfied by
// session.Resolver.
type SessionSource interface {
	GetSessionByAccessToken(ctx context.Context, token string) (*domain.Session, error)
}

// PermissionDeniedError reports which permissions were required but
// missing. The names are for server-side diagnostics only and must not be
// echoed to other users.
type PermissionDeniedError struct {
	Required []string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: requires one of [%s]", strings.Join(e.Required, ", "))
}

func (e *PermissionDeniedError) Unwrap() error { return domain.ErrPermissionDenied }

// Gate performs authentication and permission checks. It either returns a
// fully populated session or an error, never a partial result, and has no
// side effects beyond reading the credential.
type Gate struct {
	sessions SessionSource
}

// NewGate builds the authorization gate.
func NewGate(sessions SessionSource) *Gate {
	return &Gate{sessions: sessions}
}

// RequireAuth resolves the request credential into a session. A missing or
// invalid credential fails with ErrAuthenticationRequired; callers map it
// to 401. Expired and malformed tokens are indistinguishable from absent
// ones.
func (g *Gate) RequireAuth(ctx context.Context, accessToken string) (*domain.Session, error) {
	sess, err := g.sessions.GetSessionByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	return sess, nil
}

// RequirePermission authenticates, then checks that the session holds at
// least one of the given permissions (OR semantics: multiple roles may
// share an endpoint). Fails with PermissionDeniedError; callers map it to
// 403. Checks pass or fail atomically, there are no partial grants.
func (g *Gate) RequirePermission(ctx context.Context, accessToken string, permissions ...string) (*domain.Session, error) {
	sess, err := g.RequireAuth(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if len(permissions) == 0 {
		return sess, nil
	}
	if !sess.HasAnyPermission(permissions...) {
		return nil, &PermissionDeniedError{Required: permissions}
	}
	return sess, nil
}
