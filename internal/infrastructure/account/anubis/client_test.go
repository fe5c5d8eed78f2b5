package anubis

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-roster/internal/platform/logging"
	"github.com/riskibarqy/fantasy-roster/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-roster/internal/usecase"
)

func newTestClient(srv *httptest.Server, cfg Config) *Client {
	cfg.BaseURL = srv.URL
	if cfg.IntrospectPath == "" {
		cfg.IntrospectPath = "/v1/auth/introspect"
	}
	return NewClient(srv.Client(), cfg, logging.NewNop())
}

func TestClientVerifyAccessToken_SendsAdminKeyAndParsesResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/auth/introspect" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-admin-key"); got != "admin-secret" {
			t.Errorf("unexpected x-admin-key: %s", got)
		}

		var req map[string]string
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if req["token"] != "token-abc" {
			t.Errorf("unexpected token value: %s", req["token"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"active":true,"user_id":"user-123","app_id":"app-001","roles":["viewer"]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, Config{AdminKey: "admin-secret", PrincipalCacheTTL: -1})

	principal, err := client.VerifyAccessToken(t.Context(), "token-abc")
	if err != nil {
		t.Fatalf("verify token failed: %v", err)
	}
	if principal.UserID != "user-123" || principal.Email != "" {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestClientVerifyAccessToken_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "inactive token", status: http.StatusOK, body: `{"active":false}`},
		{name: "empty user id", status: http.StatusOK, body: `{"active":true,"user_id":" "}`},
		{name: "denied", status: http.StatusUnauthorized, body: `{}`},
		{name: "bad request", status: http.StatusBadRequest, body: `{}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := newTestClient(srv, Config{PrincipalCacheTTL: -1})
			if _, err := client.VerifyAccessToken(t.Context(), "token-abc"); !errors.Is(err, usecase.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestClientVerifyAccessToken_EmptyTokenSkipsNetwork(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := newTestClient(srv, Config{})
	if _, err := client.VerifyAccessToken(t.Context(), "   "); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("empty token must not reach anubis")
	}
}

func TestClientVerifyAccessToken_CachesPrincipalByToken(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"active":true,"user_id":"user-1"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, Config{PrincipalCacheTTL: time.Minute})
	for i := 0; i < 3; i++ {
		if _, err := client.VerifyAccessToken(t.Context(), "token-abc"); err != nil {
			t.Fatalf("verify: %v", err)
		}
	}
	if _, err := client.VerifyAccessToken(t.Context(), "token-other"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected one introspection per distinct token, got %d", got)
	}
}

func TestClientVerifyAccessToken_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv, Config{
		PrincipalCacheTTL: -1,
		Circuit: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for i := 0; i < 3; i++ {
		if _, err := client.VerifyAccessToken(t.Context(), "token-abc"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("attempt %d: expected ErrDependencyUnavailable, got %v", i, err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected open circuit to stop the third call, got %d calls", got)
	}
}

func TestClientVerifyAccessToken_RejectionsDoNotOpenCircuit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(srv, Config{
		PrincipalCacheTTL: -1,
		Circuit:           resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	})
	for i := 0; i < 3; i++ {
		if _, err := client.VerifyAccessToken(t.Context(), "token-abc"); !errors.Is(err, usecase.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	}
	if calls.Load() != 3 {
		t.Fatalf("rejected tokens must not trip the breaker, calls=%d", calls.Load())
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{base: "https://anubis.example/", path: "v1/auth/introspect", want: "https://anubis.example/v1/auth/introspect"},
		{base: "https://anubis.example", path: "", want: "https://anubis.example"},
		{base: "https://anubis.example", path: "https://other.example/introspect", want: "https://other.example/introspect"},
	}
	for _, tc := range tests {
		if got := buildURL(tc.base, tc.path); got != tc.want {
			t.Fatalf("buildURL(%q,%q)=%q want %q", tc.base, tc.path, got, tc.want)
		}
	}
}
