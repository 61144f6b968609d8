package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fidus/MT5-Allocation-Backend/internal/api"
	"github.com/fidus/MT5-Allocation-Backend/internal/auth"
	"github.com/fidus/MT5-Allocation-Backend/internal/config"
	"github.com/fidus/MT5-Allocation-Backend/internal/testutil"
)

func setupRouter(t *testing.T) (http.Handler, *auth.Service) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	authService := auth.NewService("fidus-backoffice", []byte("test-secret"), time.Hour)

	cfg := &config.Config{
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}

	router := api.NewRouter(
		testutil.NewTestSystemService(t, db),
		testutil.NewTestPoolService(t, db),
		testutil.NewTestAllocationService(t, db),
		testutil.NewTestRosterService(t, db),
		authService,
		cfg,
	)
	return router, authService
}

// TestRouter_Authentication tests the auth boundary of the route tree.
//
// WHY: Health must stay probe-able without credentials, while every pool and
// roster route sits behind the admin token with 401/403 distinguishable.
func TestRouter_Authentication(t *testing.T) {
	router, authService := setupRouter(t)

	do := func(t *testing.T, path, token string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("health needs no token", func(t *testing.T) {
		rec := do(t, "/api/system/health", "")
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("pool routes reject anonymous callers", func(t *testing.T) {
		rec := do(t, "/api/pool/statistics", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
	})

	t.Run("roster routes reject viewer tokens", func(t *testing.T) {
		token, err := authService.IssueToken("viewer-1", auth.RoleViewer)
		if err != nil {
			t.Fatalf("IssueToken() returned unexpected error: %v", err)
		}

		rec := do(t, "/api/roster/mt5-accounts", token)
		if rec.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rec.Code)
		}
	})

	t.Run("admin tokens pass through", func(t *testing.T) {
		token, err := authService.IssueToken("admin-1", auth.RoleAdmin)
		if err != nil {
			t.Fatalf("IssueToken() returned unexpected error: %v", err)
		}

		rec := do(t, "/api/pool/statistics", token)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

// TestRouter_ParamValidation tests the URL parameter middleware wiring.
func TestRouter_ParamValidation(t *testing.T) {
	router, authService := setupRouter(t)

	token, err := authService.IssueToken("admin-1", auth.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken() returned unexpected error: %v", err)
	}

	t.Run("non-numeric account number is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/pool/accounts/abc/exclusivity-check", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed request UUID is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/pool/deallocation-requests/not-a-uuid/approve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("valid account number reaches the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/pool/accounts/886557/exclusivity-check", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		// Unknown accounts are available, not 404
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
