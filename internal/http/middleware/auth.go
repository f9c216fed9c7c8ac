package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impulso-galeria/auth-service/internal/authz"
	"github.com/impulso-galeria/auth-service/internal/domain"
)

// Cookie names used by the login and session flows.
const (
	CookieCodeVerifier = "oauth_code_verifier"
	CookieState        = "oauth_state"
	CookieNonce        = "oauth_nonce"
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
)

const sessionKey = "authSession"

// Auth adapts the authorization gate into gin middleware so no protected
// handler can skip the check.
type Auth struct {
	Gate   *authz.Gate
	Logger *zap.Logger
}

// RequireAuth resolves the request credential into a session or aborts
// with 401.
func (m *Auth) RequireAuth(c *gin.Context) {
	sess, ok := m.authenticate(c)
	if !ok {
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

// RequirePermission returns middleware that additionally checks the
// session holds at least one of the given permissions, aborting with 403
// otherwise.
func (m *Auth) RequirePermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := m.Gate.RequirePermission(c.Request.Context(), credentialFromRequest(c), permissions...)
		if err != nil {
			m.abortWithAuthError(c, err)
			return
		}
		attachRefreshToken(c, sess)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// GetSession returns the session attached by RequireAuth/RequirePermission.
func GetSession(c *gin.Context) (*domain.Session, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := value.(*domain.Session)
	return sess, ok
}

func (m *Auth) authenticate(c *gin.Context) (*domain.Session, bool) {
	sess, err := m.Gate.RequireAuth(c.Request.Context(), credentialFromRequest(c))
	if err != nil {
		m.abortWithAuthError(c, err)
		return nil, false
	}
	attachRefreshToken(c, sess)
	return sess, true
}

func (m *Auth) abortWithAuthError(c *gin.Context, err error) {
	var denied *authz.PermissionDeniedError
	switch {
	case errors.Is(err, domain.ErrAuthenticationRequired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":             "authentication_required",
			"error_description": "A valid credential is required.",
		})
	case errors.As(err, &denied):
		// Required permission names stay in the server log.
		m.log().Warn("permission denied",
			zap.String("path", c.FullPath()),
			zap.Strings("required", denied.Required),
		)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":             "permission_denied",
			"error_description": "Insufficient rights for this operation.",
		})
	default:
		m.log().Error("session resolution failure", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Internal server error.",
		})
	}
}

func (m *Auth) log() *zap.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return zap.L()
}

// credentialFromRequest prefers a bearer token, falling back to the
// session cookie set by the callback flow.
func credentialFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	token, err := c.Cookie(CookieAccessToken)
	if err != nil {
		return ""
	}
	return token
}

func attachRefreshToken(c *gin.Context, sess *domain.Session) {
	if refresh, err := c.Cookie(CookieRefreshToken); err == nil {
		sess.Tokens.RefreshToken = refresh
	}
}
