package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/impulso-galeria/auth-service/internal/authz"
	"github.com/impulso-galeria/auth-service/internal/config"
	"github.com/impulso-galeria/auth-service/internal/domain"
	httptransport "github.com/impulso-galeria/auth-service/internal/http"
	"github.com/impulso-galeria/auth-service/internal/http/handler"
	"github.com/impulso-galeria/auth-service/internal/http/middleware"
	"github.com/impulso-galeria/auth-service/internal/oauth"
	"github.com/impulso-galeria/auth-service/internal/session"
)

type fakeProvider struct {
	mu          sync.Mutex
	tokens      map[string]*oauth.Introspection
	exchangeErr error
	refreshErr  error
	nextAccess  string
	nextRefresh string
	nextIDToken string
}

func (p *fakeProvider) ExchangeCode(ctx context.Context, code, verifier string) (*oauth.TokenResponse, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth.TokenResponse{
		AccessToken:  p.nextAccess,
		RefreshToken: p.nextRefresh,
		IDToken:      p.nextIDToken,
		ExpiresIn:    3600,
	}, nil
}

func (p *fakeProvider) Refresh(ctx context.Context, refreshToken string) (*oauth.TokenResponse, error) {
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return &oauth.TokenResponse{AccessToken: p.nextAccess, RefreshToken: p.nextRefresh, ExpiresIn: 3600}, nil
}

func (p *fakeProvider) Introspect(ctx context.Context, accessToken string) (*oauth.Introspection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	intro, ok := p.tokens[accessToken]
	if !ok {
		return &oauth.Introspection{Active: false}, nil
	}
	return intro, nil
}

func (p *fakeProvider) activate(token, subject string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[token] = &oauth.Introspection{
		Active:    true,
		Subject:   subject,
		Email:     subject + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]domain.User
}

func (m *fakeUserRepo) GetByCustomerID(ctx context.Context, customerID string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[customerID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (m *fakeUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (m *fakeUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.CustomerID]; ok {
		return domain.User{}, domain.ErrAlreadyExists
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.users[user.CustomerID] = user
	return user, nil
}

func (m *fakeUserRepo) UpdateLastLogin(ctx context.Context, userID int64) error { return nil }

func (m *fakeUserRepo) SetActive(ctx context.Context, userID int64, active bool) error { return nil }

func (m *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeRBACRepo struct {
	mu          sync.Mutex
	roles       map[string]domain.Role
	rolePerms   map[int64][]string
	assignments map[int64][]int64
}

func newFakeRBAC() *fakeRBACRepo {
	rbac := &fakeRBACRepo{
		roles:       map[string]domain.Role{},
		rolePerms:   map[int64][]string{},
		assignments: map[int64][]int64{},
	}
	rbac.defineRole(1, domain.RoleAdmin, domain.PermManageUsers, domain.PermManageAllBlogPosts, domain.PermViewFinancialEntries)
	rbac.defineRole(2, domain.RoleArtist, domain.PermManageOwnBlogPosts, domain.PermManageOwnInventory)
	rbac.defineRole(3, domain.RoleCustomer, domain.PermViewProducts, domain.PermViewOwnOrders)
	return rbac
}

func (m *fakeRBACRepo) defineRole(id int64, name string, permissions ...string) {
	m.roles[name] = domain.Role{ID: id, Name: name}
	m.rolePerms[id] = permissions
}

func (m *fakeRBACRepo) RolesForUser(ctx context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, roleID := range m.assignments[userID] {
		for _, role := range m.roles {
			if role.ID == roleID {
				names = append(names, role.Name)
			}
		}
	}
	return names, nil
}

func (m *fakeRBACRepo) PermissionsForUser(ctx context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	var perms []string
	for _, roleID := range m.assignments[userID] {
		for _, p := range m.rolePerms[roleID] {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			perms = append(perms, p)
		}
	}
	return perms, nil
}

func (m *fakeRBACRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[name]
	if !ok {
		return domain.Role{}, domain.ErrNotFound
	}
	return role, nil
}

func (m *fakeRBACRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

func (m *fakeRBACRepo) AssignRole(ctx context.Context, userID, roleID int64, assignedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.assignments[userID] {
		if existing == roleID {
			return domain.ErrAlreadyExists
		}
	}
	m.assignments[userID] = append(m.assignments[userID], roleID)
	return nil
}

func (m *fakeRBACRepo) RemoveRole(ctx context.Context, userID, roleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.assignments[userID] {
		if existing == roleID {
			m.assignments[userID] = append(m.assignments[userID][:i], m.assignments[userID][i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

type testEnv struct {
	provider *fakeProvider
	users    *fakeUserRepo
	rbac     *fakeRBACRepo
	router   *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Environment:          "test",
		ServiceName:          "impulso-auth",
		ShopID:               "12345",
		OAuthClientID:        "client-abc",
		RedirectURI:          "https://gallery.example/auth/callback",
		AccessTokenTTL:       time.Hour,
		RefreshTokenTTL:      30 * 24 * time.Hour,
		OAuthStateTTL:        600 * time.Second,
		CORSAllowedOrigins:   []string{"*"},
		CORSAllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Authorization", "Content-Type"},
		CORSAllowCredentials: true,
	}

	provider := &fakeProvider{tokens: map[string]*oauth.Introspection{}}
	users := &fakeUserRepo{users: map[string]domain.User{}}
	rbac := newFakeRBAC()
	logger := zap.NewNop()

	resolver := session.NewResolver(provider, users, rbac, nil, logger)
	gate := authz.NewGate(resolver)
	authMW := &middleware.Auth{Gate: gate, Logger: logger}
	authHandler := handler.NewAuthHandler(cfg, provider, resolver, users, rbac, logger)
	adminHandler := handler.NewAdminHandler(users, rbac, logger)

	return &testEnv{
		provider: provider,
		users:    users,
		rbac:     rbac,
		router:   httptransport.NewRouter(cfg, authHandler, adminHandler, authMW, nil),
	}
}

// seedUser provisions an active user with the given role and a live access
// token recognized by the fake provider.
func (e *testEnv) seedUser(t *testing.T, customerID, token, roleName string) domain.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), domain.User{
		CustomerID: customerID,
		Email:      customerID + "@example.com",
		IsActive:   true,
	})
	require.NoError(t, err)
	role, err := e.rbac.GetRoleByName(context.Background(), roleName)
	require.NoError(t, err)
	require.NoError(t, e.rbac.AssignRole(context.Background(), user.ID, role.ID, "system"))
	e.provider.activate(token, customerID)
	return user
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func cookieByName(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestMeWithoutCredential(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "authentication_required")
}

func TestMeWithSessionCookie(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "cust-1", "at-1", domain.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieAccessToken, Value: "at-1"})

	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "cust-1@example.com")
	require.Contains(t, w.Body.String(), domain.PermViewProducts)
}

func TestAdminRouteForbiddenForCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "cust-1", "at-1", domain.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer at-1")

	w := env.do(req)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "permission_denied")
	// Required permission names are never echoed to the client.
	require.NotContains(t, w.Body.String(), domain.PermManageUsers)
}

func TestAdminRouteAllowedForAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin-1", "at-admin", domain.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer at-admin")

	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "admin-1@example.com")
}

func TestRoleGrantOpensRouteWithoutNewLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "cust-1", "at-1", domain.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer at-1")
	require.Equal(t, http.StatusForbidden, env.do(req).Code)

	role, err := env.rbac.GetRoleByName(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, env.rbac.AssignRole(context.Background(), user.ID, role.ID, "owner@example.com"))

	req = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer at-1")
	require.Equal(t, http.StatusOK, env.do(req).Code)
}

func TestBlogScopeAnyOfPermission(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin-1", "at-admin", domain.RoleAdmin)
	env.seedUser(t, "artist-1", "at-artist", domain.RoleArtist)
	env.seedUser(t, "cust-1", "at-cust", domain.RoleCustomer)

	cases := []struct {
		token  string
		status int
		scope  string
	}{
		{"at-admin", http.StatusOK, `"scope":"all"`},
		{"at-artist", http.StatusOK, `"scope":"own"`},
		{"at-cust", http.StatusForbidden, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin/blog/scope", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		w := env.do(req)
		require.Equal(t, tc.status, w.Code, tc.token)
		if tc.scope != "" {
			require.Contains(t, w.Body.String(), tc.scope, tc.token)
		}
	}
}

func TestLoginRedirectsWithFreshPKCETriple(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusFound, w.Code)

	res := w.Result()
	verifier := cookieByName(res, middleware.CookieCodeVerifier)
	state := cookieByName(res, middleware.CookieState)
	nonce := cookieByName(res, middleware.CookieNonce)
	require.NotNil(t, verifier)
	require.NotNil(t, state)
	require.NotNil(t, nonce)
	require.Equal(t, 600, state.MaxAge)
	require.True(t, state.HttpOnly)

	location, err := url.Parse(res.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "shopify.com", location.Host)
	q := location.Query()
	require.Equal(t, state.Value, q.Get("state"))
	require.Equal(t, nonce.Value, q.Get("nonce"))
	require.Equal(t, oauth.GenerateCodeChallenge(verifier.Value), q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieState, Value: "genuine"})
	req.AddCookie(&http.Cookie{Name: middleware.CookieCodeVerifier, Value: "verifier-1"})

	w := env.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login?error=invalid_state", w.Header().Get("Location"))
}

func TestCallbackRejectsMissingCookies(t *testing.T) {
	env := newTestEnv(t)

	// Callback with no login-initiation cookies at all.
	w := env.do(httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=st", nil))
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login?error=invalid_state", w.Header().Get("Location"))
}

func TestCallbackProviderErrorRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil))
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login?error=access_denied", w.Header().Get("Location"))
}

func TestCallbackInvalidGrant(t *testing.T) {
	env := newTestEnv(t)
	env.provider.exchangeErr = domain.ErrInvalidGrant

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=stale&state=st", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieState, Value: "st"})
	req.AddCookie(&http.Cookie{Name: middleware.CookieCodeVerifier, Value: "verifier-1"})

	w := env.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login?error=invalid_grant", w.Header().Get("Location"))
}

// signedIDToken mints an HS256 id_token carrying the given nonce claim.
func signedIDToken(t *testing.T, nonce string) string {
	t.Helper()
	key := []byte("0123456789abcdef0123456789abcdef")
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: key}, nil)
	require.NoError(t, err)
	token, err := jwt.Signed(signer).Claims(map[string]any{"nonce": nonce}).Serialize()
	require.NoError(t, err)
	return token
}

func TestCallbackRejectsNonceMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.provider.nextAccess = "at-new"
	env.provider.nextRefresh = "rt-new"
	env.provider.nextIDToken = signedIDToken(t, "replayed-nonce")
	env.provider.activate("at-new", "cust-new")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=st", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieState, Value: "st"})
	req.AddCookie(&http.Cookie{Name: middleware.CookieCodeVerifier, Value: "verifier-1"})
	req.AddCookie(&http.Cookie{Name: middleware.CookieNonce, Value: "issued-nonce"})

	w := env.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login?error=invalid_nonce", w.Header().Get("Location"))

	// No session cookies on a failed callback, and no user provisioned.
	require.Nil(t, cookieByName(w.Result(), middleware.CookieAccessToken))
	_, err := env.users.GetByCustomerID(context.Background(), "cust-new")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCallbackRejectsUnparseableIDToken(t *testing.T) {
	env := newTestEnv(t)
	env.provider.nextAccess = "at-new"
	env.provider.nextIDToken = "not-a-jwt"
	env.provider.activate("at-new", "cust-new")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=st", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieState, Value: "st"})
	req.AddCookie(&http.Cookie{Name: middleware.CookieCodeVerifier, Value: "verifier-1"})
	req.AddCookie(&http.Cookie{Name: middleware.CookieNonce, Value: "issued-nonce"})

	w := env.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login?error=invalid_nonce", w.Header().Get("Location"))
}

func TestCallbackAcceptsMatchingNonce(t *testing.T) {
	env := newTestEnv(t)
	env.provider.nextAccess = "at-new"
	env.provider.nextRefresh = "rt-new"
	env.provider.nextIDToken = signedIDToken(t, "issued-nonce")
	env.provider.activate("at-new", "cust-new")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=st", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieState, Value: "st"})
	req.AddCookie(&http.Cookie{Name: middleware.CookieCodeVerifier, Value: "verifier-1"})
	req.AddCookie(&http.Cookie{Name: middleware.CookieNonce, Value: "issued-nonce"})

	w := env.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestCallbackProvisionsFirstTimeUser(t *testing.T) {
	env := newTestEnv(t)
	env.provider.nextAccess = "at-new"
	env.provider.nextRefresh = "rt-new"
	env.provider.activate("at-new", "cust-new")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=code-1&state=st", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieState, Value: "st"})
	req.AddCookie(&http.Cookie{Name: middleware.CookieCodeVerifier, Value: "verifier-1"})

	w := env.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	res := w.Result()
	access := cookieByName(res, middleware.CookieAccessToken)
	refresh := cookieByName(res, middleware.CookieRefreshToken)
	require.NotNil(t, access)
	require.Equal(t, "at-new", access.Value)
	require.NotNil(t, refresh)
	require.Equal(t, "rt-new", refresh.Value)

	// Transient login cookies are consumed.
	state := cookieByName(res, middleware.CookieState)
	require.NotNil(t, state)
	require.Less(t, state.MaxAge, 0)

	user, err := env.users.GetByCustomerID(context.Background(), "cust-new")
	require.NoError(t, err)
	require.True(t, user.IsActive)
	roles, err := env.rbac.RolesForUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleCustomer}, roles)
}

func TestRefreshRotatesCookies(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "cust-1", "at-2", domain.RoleCustomer)
	env.provider.nextAccess = "at-2"
	env.provider.nextRefresh = "rt-2"

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieRefreshToken, Value: "rt-1"})

	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	res := w.Result()
	access := cookieByName(res, middleware.CookieAccessToken)
	refresh := cookieByName(res, middleware.CookieRefreshToken)
	require.NotNil(t, access)
	require.Equal(t, "at-2", access.Value)
	require.NotNil(t, refresh)
	require.Equal(t, "rt-2", refresh.Value)
	require.Contains(t, w.Body.String(), "cust-1@example.com")
}

func TestRefreshWithoutCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "authentication_required")
}

func TestRefreshRejectedClearsSessionCookies(t *testing.T) {
	env := newTestEnv(t)
	env.provider.refreshErr = domain.ErrRefreshFailed

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieRefreshToken, Value: "consumed"})

	w := env.do(req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "refresh_failed")

	res := w.Result()
	for _, name := range []string{middleware.CookieAccessToken, middleware.CookieRefreshToken} {
		cleared := cookieByName(res, name)
		require.NotNil(t, cleared, name)
		require.Less(t, cleared.MaxAge, 0, name)
		require.Empty(t, cleared.Value, name)
	}
}

func TestLogoutClearsCookies(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	require.Equal(t, http.StatusOK, w.Code)

	res := w.Result()
	access := cookieByName(res, middleware.CookieAccessToken)
	require.NotNil(t, access)
	require.Less(t, access.MaxAge, 0)
}

func TestAssignAndRemoveRoleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "admin-1", "at-admin", domain.RoleAdmin)
	target := env.seedUser(t, "artist-1", "at-artist", domain.RoleCustomer)

	assign := func(role string) *httptest.ResponseRecorder {
		body := strings.NewReader(`{"role":"` + role + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/admin/users/"+itoa(target.ID)+"/roles", body)
		req.Header.Set("Authorization", "Bearer at-admin")
		req.Header.Set("Content-Type", "application/json")
		return env.do(req)
	}

	require.Equal(t, http.StatusCreated, assign(domain.RoleArtist).Code)
	require.Equal(t, http.StatusConflict, assign(domain.RoleArtist).Code)
	require.Equal(t, http.StatusNotFound, assign("no-such-role").Code)

	req := httptest.NewRequest(http.MethodDelete, "/admin/users/"+itoa(target.ID)+"/roles/"+domain.RoleArtist, nil)
	req.Header.Set("Authorization", "Bearer at-admin")
	require.Equal(t, http.StatusOK, env.do(req).Code)

	roles, err := env.rbac.RolesForUser(context.Background(), target.ID)
	require.NoError(t, err)
	require.Equal(t, []string{domain.RoleCustomer}, roles)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
