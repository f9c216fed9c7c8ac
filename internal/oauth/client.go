package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"go.uber.org/zap"

	"github.com/impulso-galeria/auth-service/internal/config"
	"github.com/impulso-galeria/auth-service/internal/domain"
)

// TokenResponse models the provider token endpoint output.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// ExpiresAt converts the relative lifetime into an absolute instant.
func (t *TokenResponse) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// Introspection is the provider's view of an access token. Inactive tokens
// (expired, revoked, malformed) are a normal outcome, not an error.
type Introspection struct {
	Active    bool
	Subject   string
	Email     string
	FirstName string
	LastName  string
	ExpiresAt time.Time
}

// ProviderClient talks to the commerce platform's identity endpoints.
type ProviderClient interface {
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Introspect(ctx context.Context, accessToken string) (*Introspection, error)
}

// BuildAuthorizationURL constructs the provider authorization URL from the
// shop identifier, client id, redirect URI and the PKCE/state/nonce values.
// Pure construction, no network call.
func BuildAuthorizationURL(cfg config.Config, codeChallenge, state, nonce string) string {
	u := url.URL{
		Scheme: "https",
		Host:   "shopify.com",
		Path:   fmt.Sprintf("/authentication/%s/oauth/authorize", cfg.ShopID),
	}
	q := u.Query()
	q.Set("client_id", cfg.OAuthClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", cfg.RedirectURI)
	q.Set("scope", "openid email customer-account-api:full")
	q.Set("state", state)
	q.Set("nonce", nonce)
	q.Set("code_challenge", codeChallenge)
	q.Set("code_challenge_method", "S256")
	u.RawQuery = q.Encode()
	return u.String()
}

// IDTokenNonce extracts the nonce claim from a provider id_token. The code
// exchange is already bound by PKCE; the nonce comparison only guards
// against id_token replay, so claims are read without signature
// verification here.
func IDTokenNonce(idToken string) (string, error) {
	tok, err := jwt.ParseSigned(idToken, []jose.SignatureAlgorithm{jose.RS256, jose.ES256, jose.HS256})
	if err != nil {
		return "", fmt.Errorf("parse id_token: %w", err)
	}
	var claims struct {
		Nonce string `json:"nonce"`
	}
	if err := tok.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return "", fmt.Errorf("read id_token claims: %w", err)
	}
	return claims.Nonce, nil
}

const defaultProviderBaseURL = "https://shopify.com"

// HTTPClient implements ProviderClient over the provider's HTTP API.
type HTTPClient struct {
	cfg     config.Config
	http    *http.Client
	logger  *zap.Logger
	baseURL string
}

var _ ProviderClient = (*HTTPClient)(nil)

// NewHTTPClient builds the provider client with a bounded request timeout.
func NewHTTPClient(cfg config.Config, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		baseURL: defaultProviderBaseURL,
	}
}

func (c *HTTPClient) tokenEndpoint() string {
	return fmt.Sprintf("%s/authentication/%s/oauth/token", c.baseURL, c.cfg.ShopID)
}

func (c *HTTPClient) introspectEndpoint() string {
	return fmt.Sprintf("%s/authentication/%s/oauth/introspect", c.baseURL, c.cfg.ShopID)
}

// setAPIVersion pins provider requests to the configured API version.
func (c *HTTPClient) setAPIVersion(req *http.Request) {
	if c.cfg.ProviderAPIVersion != "" {
		req.Header.Set("X-Api-Version", c.cfg.ProviderAPIVersion)
	}
}

// ExchangeCode trades an authorization code plus PKCE verifier for a token
// set. Expired or reused codes surface as ErrInvalidGrant.
func (c *HTTPClient) ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.cfg.OAuthClientID)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("code", code)
	form.Set("code_verifier", codeVerifier)
	if c.cfg.OAuthClientSecret != "" {
		form.Set("client_secret", c.cfg.OAuthClientSecret)
	}

	resp, err := c.postForm(ctx, c.tokenEndpoint(), form)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	if resp.errCode != "" {
		if resp.errCode == "invalid_grant" {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidGrant, resp.errDescription)
		}
		return nil, fmt.Errorf("exchange code: provider returned %s: %s", resp.errCode, resp.errDescription)
	}
	return resp.token, nil
}

// Refresh requests a new token pair. The provider rotates refresh tokens:
// on success the old one is superseded and must not be reused.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.cfg.OAuthClientID)
	form.Set("refresh_token", refreshToken)
	if c.cfg.OAuthClientSecret != "" {
		form.Set("client_secret", c.cfg.OAuthClientSecret)
	}

	resp, err := c.postForm(ctx, c.tokenEndpoint(), form)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if resp.errCode != "" {
		return nil, fmt.Errorf("%w: provider returned %s", domain.ErrRefreshFailed, resp.errCode)
	}
	return resp.token, nil
}

// Introspect asks the provider whether an access token is live and who it
// belongs to. Inactive is reported via the Active flag, never as an error.
func (c *HTTPClient) Introspect(ctx context.Context, accessToken string) (*Introspection, error) {
	form := url.Values{}
	form.Set("token", accessToken)
	form.Set("client_id", c.cfg.OAuthClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectEndpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setAPIVersion(req)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspect token: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read introspect response: %w", err)
	}
	if res.StatusCode >= 500 {
		return nil, fmt.Errorf("introspect token: provider status %d", res.StatusCode)
	}
	if res.StatusCode != http.StatusOK {
		// Malformed or rejected tokens resolve to "not a session".
		return &Introspection{Active: false}, nil
	}

	var payload struct {
		Active    bool   `json:"active"`
		Subject   string `json:"sub"`
		Email     string `json:"email"`
		GivenName string `json:"given_name"`
		Surname   string `json:"family_name"`
		Exp       int64  `json:"exp"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode introspect response: %w", err)
	}
	out := &Introspection{
		Active:    payload.Active,
		Subject:   payload.Subject,
		Email:     payload.Email,
		FirstName: payload.GivenName,
		LastName:  payload.Surname,
	}
	if payload.Exp > 0 {
		out.ExpiresAt = time.Unix(payload.Exp, 0)
	}
	if out.Active && !out.ExpiresAt.IsZero() && out.ExpiresAt.Before(time.Now()) {
		out.Active = false
	}
	return out, nil
}

type tokenResult struct {
	token          *TokenResponse
	errCode        string
	errDescription string
}

func (c *HTTPClient) postForm(ctx context.Context, endpoint string, form url.Values) (*tokenResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	c.setAPIVersion(req)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode >= 500 {
		c.logger.Error("provider token endpoint failure",
			zap.Int("status", res.StatusCode),
			zap.String("endpoint", endpoint),
		)
		return nil, fmt.Errorf("provider status %d", res.StatusCode)
	}

	if res.StatusCode != http.StatusOK {
		var oauthErr struct {
			Code        string `json:"error"`
			Description string `json:"error_description"`
		}
		if err := json.Unmarshal(body, &oauthErr); err != nil || oauthErr.Code == "" {
			return nil, fmt.Errorf("provider status %d", res.StatusCode)
		}
		return &tokenResult{errCode: oauthErr.Code, errDescription: oauthErr.Description}, nil
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, fmt.Errorf("provider returned empty access token")
	}
	return &tokenResult{token: &token}, nil
}
