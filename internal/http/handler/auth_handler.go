package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/impulso-galeria/auth-service/internal/config"
	"github.com/impulso-galeria/auth-service/internal/domain"
	"github.com/impulso-galeria/auth-service/internal/http/middleware"
	"github.com/impulso-galeria/auth-service/internal/oauth"
	"github.com/impulso-galeria/auth-service/internal/repository"
	"github.com/impulso-galeria/auth-service/internal/session"
)

// AuthHandler drives the login, callback, refresh and logout flows.
type AuthHandler struct {
	Cfg      config.Config
	Provider oauth.ProviderClient
	Sessions *session.Resolver
	Users    repository.UserRepository
	RBAC     repository.RBACRepository
	Logger   *zap.Logger
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(cfg config.Config, provider oauth.ProviderClient, sessions *session.Resolver, users repository.UserRepository, rbac repository.RBACRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Provider: provider, Sessions: sessions, Users: users, RBAC: rbac, Logger: logger}
}

// Login initiates the authorization code + PKCE flow. Every attempt gets a
// brand-new verifier/state/nonce triple; the values live in short-lived
// cookies and are consumed exactly once at callback time.
func (h *AuthHandler) Login(c *gin.Context) {
	verifier, err := oauth.GenerateCodeVerifier()
	if err != nil {
		h.serverError(c, err)
		return
	}
	state, err := oauth.GenerateState()
	if err != nil {
		h.serverError(c, err)
		return
	}
	nonce, err := oauth.GenerateNonce()
	if err != nil {
		h.serverError(c, err)
		return
	}

	maxAge := int(h.Cfg.OAuthStateTTL.Seconds())
	h.setCookie(c, middleware.CookieCodeVerifier, verifier, maxAge)
	h.setCookie(c, middleware.CookieState, state, maxAge)
	h.setCookie(c, middleware.CookieNonce, nonce, maxAge)

	challenge := oauth.GenerateCodeChallenge(verifier)
	c.Redirect(http.StatusFound, oauth.BuildAuthorizationURL(h.Cfg, challenge, state, nonce))
}

// Callback consumes the provider redirect: it validates state and nonce
// against the login-initiation cookies, exchanges the code, provisions the
// local user on first sight and installs the credential cookies. Any
// mismatch fails closed; a fresh login is the only recovery.
func (h *AuthHandler) Callback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		h.failLogin(c, providerErr)
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	cookieState, stateErr := c.Cookie(middleware.CookieState)
	verifier, verifierErr := c.Cookie(middleware.CookieCodeVerifier)
	cookieNonce, _ := c.Cookie(middleware.CookieNonce)

	if code == "" || state == "" || stateErr != nil || verifierErr != nil || state != cookieState {
		h.failLogin(c, "invalid_state")
		return
	}

	tok, err := h.Provider.ExchangeCode(c.Request.Context(), code, verifier)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidGrant) {
			h.failLogin(c, "invalid_grant")
			return
		}
		h.Logger.Error("code exchange failed", zap.Error(err))
		h.failLogin(c, "server_error")
		return
	}

	if tok.IDToken != "" {
		nonce, err := oauth.IDTokenNonce(tok.IDToken)
		if err != nil || nonce == "" || nonce != cookieNonce {
			h.failLogin(c, "invalid_nonce")
			return
		}
	}

	intro, err := h.Provider.Introspect(c.Request.Context(), tok.AccessToken)
	if err != nil {
		h.Logger.Error("post-exchange introspection failed", zap.Error(err))
		h.failLogin(c, "server_error")
		return
	}
	if !intro.Active || intro.Subject == "" {
		h.failLogin(c, "invalid_token")
		return
	}

	if err := h.ensureUser(c, intro); err != nil {
		h.Logger.Error("user provisioning failed", zap.Error(err))
		h.failLogin(c, "server_error")
		return
	}

	h.clearTransientCookies(c)
	h.setSessionCookies(c, tok.AccessToken, tok.RefreshToken, tok.ExpiresAt(time.Now()))
	c.Redirect(http.StatusFound, "/")
}

// Refresh rotates the token pair from the refresh cookie. The resolver
// collapses concurrent refreshes of the same token into one provider call;
// a rejected refresh token clears the credential cookies so the client
// re-authenticates from scratch.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(middleware.CookieRefreshToken)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "authentication_required",
			"error_description": "No refresh token present.",
		})
		return
	}

	sess, err := h.Sessions.RefreshSession(c.Request.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrRefreshFailed) {
			h.clearSessionCookies(c)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "refresh_failed",
				"error_description": "Session expired, sign in again.",
			})
			return
		}
		h.serverError(c, err)
		return
	}
	if sess == nil {
		h.clearSessionCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "authentication_required",
			"error_description": "Session could not be restored.",
		})
		return
	}

	h.setSessionCookies(c, sess.Tokens.AccessToken, sess.Tokens.RefreshToken, sess.Tokens.ExpiresAt)
	c.JSON(http.StatusOK, newSessionView(sess))
}

// Logout clears the credential cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSessionCookies(c)
	h.clearTransientCookies(c)
	c.JSON(http.StatusOK, gin.H{"status": "signed_out"})
}

// Me returns the resolved session for the current request.
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "authentication_required",
			"error_description": "A valid credential is required.",
		})
		return
	}
	c.JSON(http.StatusOK, newSessionView(sess))
}

// ensureUser creates the local user row on first successful authentication
// and refreshes last-login on return visits. New users start with the
// customer role.
func (h *AuthHandler) ensureUser(c *gin.Context, intro *oauth.Introspection) error {
	ctx := c.Request.Context()

	user, err := h.Users.GetByCustomerID(ctx, intro.Subject)
	if err == nil {
		if err := h.Users.UpdateLastLogin(ctx, user.ID); err != nil {
			h.Logger.Warn("last login update failed", zap.Int64("user_id", user.ID), zap.Error(err))
		}
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	created, err := h.Users.Create(ctx, domain.User{
		CustomerID: intro.Subject,
		Email:      intro.Email,
		FirstName:  intro.FirstName,
		LastName:   intro.LastName,
		IsActive:   true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost a provisioning race with a concurrent first login.
			return nil
		}
		return err
	}

	role, err := h.RBAC.GetRoleByName(ctx, domain.RoleCustomer)
	if err != nil {
		h.Logger.Warn("customer role missing, user created without roles", zap.Error(err))
		return nil
	}
	if err := h.RBAC.AssignRole(ctx, created.ID, role.ID, "system"); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		h.Logger.Warn("default role assignment failed", zap.Int64("user_id", created.ID), zap.Error(err))
	}
	return nil
}

// failLogin invalidates the transient cookies and sends the user to the
// login page with an error code. Consumed state is never reusable.
func (h *AuthHandler) failLogin(c *gin.Context, code string) {
	h.clearTransientCookies(c)
	target := url.URL{Path: "/login"}
	q := target.Query()
	q.Set("error", code)
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}

func (h *AuthHandler) serverError(c *gin.Context, err error) {
	h.Logger.Error("auth handler failure", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":             "server_error",
		"error_description": "Internal server error.",
	})
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, accessToken, refreshToken string, expiresAt time.Time) {
	accessMaxAge := int(time.Until(expiresAt).Seconds())
	if accessMaxAge <= 0 {
		accessMaxAge = int(h.Cfg.AccessTokenTTL.Seconds())
	}
	h.setCookie(c, middleware.CookieAccessToken, accessToken, accessMaxAge)
	if refreshToken != "" {
		h.setCookie(c, middleware.CookieRefreshToken, refreshToken, int(h.Cfg.RefreshTokenTTL.Seconds()))
	}
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	h.setCookie(c, middleware.CookieAccessToken, "", -1)
	h.setCookie(c, middleware.CookieRefreshToken, "", -1)
}

func (h *AuthHandler) clearTransientCookies(c *gin.Context) {
	h.setCookie(c, middleware.CookieCodeVerifier, "", -1)
	h.setCookie(c, middleware.CookieState, "", -1)
	h.setCookie(c, middleware.CookieNonce, "", -1)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.Cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

type userView struct {
	ID            int64  `json:"id"`
	CustomerID    string `json:"customer_id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PublicProfile bool   `json:"public_profile"`
}

type sessionView struct {
	User        userView  `json:"user"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func newSessionView(sess *domain.Session) sessionView {
	return sessionView{
		User: userView{
			ID:            sess.User.ID,
			CustomerID:    sess.User.CustomerID,
			Email:         sess.User.Email,
			FirstName:     sess.User.FirstName,
			LastName:      sess.User.LastName,
			PublicProfile: sess.User.PublicProfile,
		},
		Roles:       sess.Roles,
		Permissions: sess.Permissions,
		ExpiresAt:   sess.Tokens.ExpiresAt,
	}
}
