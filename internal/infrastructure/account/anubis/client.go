package anubis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-roster/internal/domain/user"
	"github.com/riskibarqy/fantasy-roster/internal/platform/cache"
	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
	"github.com/riskibarqy/fantasy-roster/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-roster/internal/usecase"
)

const defaultPrincipalCacheTTL = 30 * time.Second

var errAnubisTransient = errors.New("anubis transient failure")

type Config struct {
	BaseURL        string
	IntrospectPath string
	AdminKey       string
	Circuit        resilience.CircuitBreakerConfig
	// PrincipalCacheTTL caches verified principals by token hash. Zero uses the default, negative disables it.
	PrincipalCacheTTL time.Duration
}

// Client resolves bearer tokens to principals through the anubis introspection endpoint.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	adminKey      string
	breaker       *resilience.CircuitBreaker
	principals    *cache.Store
	logger        *logging.Logger
}

func NewClient(httpClient *http.Client, cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	var principals *cache.Store
	switch {
	case cfg.PrincipalCacheTTL == 0:
		principals = cache.NewStore(defaultPrincipalCacheTTL)
	case cfg.PrincipalCacheTTL > 0:
		principals = cache.NewStore(cfg.PrincipalCacheTTL)
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey:      strings.TrimSpace(cfg.AdminKey),
		breaker:       resilience.NewCircuitBreakerFromConfig(cfg.Circuit),
		principals:    principals,
		logger:        logger,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	if c.principals == nil {
		return c.introspectGuarded(ctx, token)
	}

	v, err := c.principals.GetOrLoad(ctx, "principal:"+hashToken(token), func(ctx context.Context) (any, error) {
		return c.introspectGuarded(ctx, token)
	})
	if err != nil {
		return user.Principal{}, err
	}
	principal, _ := v.(user.Principal)
	return principal, nil
}

func (c *Client) introspectGuarded(ctx context.Context, token string) (user.Principal, error) {
	var principal user.Principal
	err := c.breaker.ExecuteClassified(func() error {
		var err error
		principal, err = c.introspect(ctx, token)
		return err
	}, isCircuitFailure)

	switch {
	case err == nil:
		return principal, nil
	case errors.Is(err, resilience.ErrCircuitOpen):
		return user.Principal{}, fmt.Errorf("%w: anubis circuit open", usecase.ErrDependencyUnavailable)
	case isCircuitFailure(err):
		return user.Principal{}, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
	default:
		return user.Principal{}, err
	}
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: request introspection: %v", errAnubisTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: read introspect response: %v", errAnubisTransient, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		c.logger.WarnContext(ctx, "anubis introspection unavailable", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("%w: status %d", errAnubisTransient, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "anubis introspection non-200", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("%w: introspection returned status %d", usecase.ErrUnauthorized, resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, fmt.Errorf("%w: unmarshal introspect response: %v", errAnubisTransient, err)
	}

	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, fmt.Errorf("%w: introspect response has empty user_id", usecase.ErrUnauthorized)
	}

	return user.Principal{
		UserID: decoded.UserID,
		Email:  decoded.Email,
	}, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
