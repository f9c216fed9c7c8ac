// Package cart ensures authenticated customers have an active cart on the
// commerce platform. It is a best-effort collaborator: callers log and
// swallow its failures.
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/impulso-galeria/auth-service/internal/config"
)

// Provisioner creates a cart for a customer when none exists.
type Provisioner struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewProvisioner builds the cart provisioner. When no cart API is
// configured it degrades to a no-op.
func NewProvisioner(cfg config.Config, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		baseURL: cfg.CartAPIBaseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

// EnsureCart asks the commerce platform for an active cart for the
// customer, creating one if absent.
func (p *Provisioner) EnsureCart(ctx context.Context, customerID string) error {
	if p.baseURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"customer_id": customerID})
	if err != nil {
		return fmt.Errorf("encode cart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/carts/ensure", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build cart request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("ensure cart: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("ensure cart: status %d", res.StatusCode)
	}

	p.logger.Debug("cart ensured", zap.String("customer_id", customerID))
	return nil
}
