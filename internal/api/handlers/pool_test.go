package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fidus/MT5-Allocation-Backend/internal/api/handlers"
	"github.com/fidus/MT5-Allocation-Backend/internal/model"
	"github.com/fidus/MT5-Allocation-Backend/internal/testutil"
)

// TestPoolHandler_AddAccount tests the pool onboarding endpoint.
//
// WHY: The HTTP layer must map validation failures to 400 with field detail,
// duplicates to 409, and must never echo the investor credential back.
func TestPoolHandler_AddAccount(t *testing.T) {
	body := map[string]any{
		"accountNumber":    886557,
		"broker":           "multibank",
		"accountType":      "investment",
		"investorPassword": "readonly-secret",
		"server":           "MultiBank-Live",
		"notes":            "fresh slot from broker batch",
	}

	t.Run("creates an account with 201", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPoolHandler(testutil.NewTestPoolService(t, db))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/accounts", body, nil)
		rec := httptest.NewRecorder()

		// Execute
		handler.AddAccount(rec, req)

		// Assert
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var account model.PoolAccount
		testutil.DecodeJSON(t, rec, &account)
		if account.AccountNumber != 886557 {
			t.Errorf("Expected account 886557, got %d", account.AccountNumber)
		}
		if account.Status != model.StatusAvailable {
			t.Errorf("Expected available, got %q", account.Status)
		}

		// The credential must not appear anywhere in the response
		if containsCredential(rec, "readonly-secret") {
			t.Error("Response leaked the investor credential")
		}
	})

	t.Run("unknown broker is 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPoolHandler(testutil.NewTestPoolService(t, db))

		bad := map[string]any{"accountNumber": 886557, "broker": "icmarkets", "accountType": "investment"}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/accounts", bad, nil)
		rec := httptest.NewRecorder()

		handler.AddAccount(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("duplicate account number is 409", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPoolHandler(testutil.NewTestPoolService(t, db))
		testutil.NewPoolAccount(886557).Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/accounts", body, nil)
		rec := httptest.NewRecorder()

		handler.AddAccount(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d", rec.Code)
		}
	})

	t.Run("unknown body field is 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPoolHandler(testutil.NewTestPoolService(t, db))

		bad := map[string]any{"accountNumber": 886557, "broker": "multibank", "accountType": "investment", "tradingPassword": "nope"}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/accounts", bad, nil)
		rec := httptest.NewRecorder()

		handler.AddAccount(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for unknown field, got %d", rec.Code)
		}
	})
}

// TestPoolHandler_Allocate tests the allocation endpoint's error taxonomy.
//
// WHY: Clients branch on the difference between "no such account" (404) and
// "someone else holds it" (409).
func TestPoolHandler_Allocate(t *testing.T) {
	body := map[string]any{
		"clientId":     "550e8400-e29b-41d4-a716-446655440000",
		"investmentId": "550e8400-e29b-41d4-a716-446655440001",
		"amount":       100000,
		"notes":        "initial allocation for CORE subscription",
	}

	t.Run("allocates an available account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPoolHandler(testutil.NewTestPoolService(t, db))
		testutil.NewPoolAccount(886557).Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/accounts/886557/allocate",
			body, map[string]string{"number": "886557"})
		rec := httptest.NewRecorder()

		handler.Allocate(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var account model.PoolAccount
		testutil.DecodeJSON(t, rec, &account)
		if account.Status != model.StatusAllocated {
			t.Errorf("Expected allocated, got %q", account.Status)
		}
	})

	t.Run("unknown account is 404", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPoolHandler(testutil.NewTestPoolService(t, db))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/accounts/999999/allocate",
			body, map[string]string{"number": "999999"})
		rec := httptest.NewRecorder()

		handler.Allocate(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("taken account is 409", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPoolHandler(testutil.NewTestPoolService(t, db))
		testutil.NewPoolAccount(886557).AllocatedTo("client-9", "inv-9", 50000).Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/accounts/886557/allocate",
			body, map[string]string{"number": "886557"})
		rec := httptest.NewRecorder()

		handler.Allocate(rec, req)

		if rec.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d", rec.Code)
		}
	})

	t.Run("short notes are 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPoolHandler(testutil.NewTestPoolService(t, db))
		testutil.NewPoolAccount(886557).Build(t, db)

		short := map[string]any{
			"clientId":     "550e8400-e29b-41d4-a716-446655440000",
			"investmentId": "550e8400-e29b-41d4-a716-446655440001",
			"amount":       100000,
			"notes":        "ok",
		}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/accounts/886557/allocate",
			short, map[string]string{"number": "886557"})
		rec := httptest.NewRecorder()

		handler.Allocate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}

// TestPoolHandler_ExclusivityCheck tests the single-account advisory check.
//
// WHY: The check is read-only and must answer for accounts the pool has never
// seen, so an unknown number is a 200 "available", not a 404.
func TestPoolHandler_ExclusivityCheck(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewPoolHandler(testutil.NewTestPoolService(t, db))
	testutil.NewPoolAccount(886557).AllocatedTo("client-9", "inv-9", 50000).Build(t, db)

	t.Run("allocated account reports its holder", func(t *testing.T) {
		req := testutil.NewRequestWithURLParams(http.MethodGet,
			"/api/pool/accounts/886557/exclusivity-check",
			map[string]string{"number": "886557"})
		rec := httptest.NewRecorder()

		handler.ExclusivityCheck(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var check model.ExclusivityCheck
		testutil.DecodeJSON(t, rec, &check)
		if check.IsAvailable {
			t.Error("Expected isAvailable=false for an allocated account")
		}
		if check.CurrentAllocation == nil || check.CurrentAllocation.ClientID != "client-9" {
			t.Errorf("Expected holder client-9, got %+v", check.CurrentAllocation)
		}
	})

	t.Run("unknown account is available", func(t *testing.T) {
		req := testutil.NewRequestWithURLParams(http.MethodGet,
			"/api/pool/accounts/999999/exclusivity-check",
			map[string]string{"number": "999999"})
		rec := httptest.NewRecorder()

		handler.ExclusivityCheck(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var check model.ExclusivityCheck
		testutil.DecodeJSON(t, rec, &check)
		if !check.IsAvailable {
			t.Error("Expected isAvailable=true for an unknown account")
		}
	})
}

// TestAllocationHandler_CreateInvestment tests the just-in-time creation
// endpoint, in particular the 409 conflict listing.
func TestAllocationHandler_CreateInvestment(t *testing.T) {
	body := map[string]any{
		"clientId":        "550e8400-e29b-41d4-a716-446655440000",
		"fundCode":        "CORE",
		"principalAmount": 150000,
		"accounts": []map[string]any{
			{"accountNumber": 886557, "amount": 100000, "broker": "multibank", "server": "MultiBank-Live", "investorPassword": "ro-1"},
			{"accountNumber": 886558, "amount": 50000, "broker": "multibank", "server": "MultiBank-Live", "investorPassword": "ro-2"},
		},
	}

	t.Run("creates an investment with 200", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewAllocationHandler(testutil.NewTestAllocationService(t, db))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/create-investment-with-mt5", body, nil)
		rec := httptest.NewRecorder()

		handler.CreateInvestment(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var result model.CreationResult
		testutil.DecodeJSON(t, rec, &result)
		if !result.AllocationIsValid {
			t.Error("Expected allocationIsValid=true")
		}
		if len(result.InvestmentAccounts) != 2 {
			t.Errorf("Expected 2 accounts, got %d", len(result.InvestmentAccounts))
		}
	})

	t.Run("conflicts come back as 409 with details", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewAllocationHandler(testutil.NewTestAllocationService(t, db))
		testutil.NewPoolAccount(886557).AllocatedTo("client-9", "inv-9", 80000).Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/create-investment-with-mt5", body, nil)
		rec := httptest.NewRecorder()

		handler.CreateInvestment(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("Expected 409, got %d: %s", rec.Code, rec.Body.String())
		}

		var errResp struct {
			Details []model.AccountConflict `json:"details"`
		}
		testutil.DecodeJSON(t, rec, &errResp)
		if len(errResp.Details) != 1 {
			t.Errorf("Expected 1 conflict detail, got %d", len(errResp.Details))
		}
	})

	t.Run("bad fund code is 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewAllocationHandler(testutil.NewTestAllocationService(t, db))

		bad := map[string]any{
			"clientId":        "550e8400-e29b-41d4-a716-446655440000",
			"fundCode":        "SPICY",
			"principalAmount": 150000,
			"accounts":        []map[string]any{{"accountNumber": 886557, "amount": 150000}},
		}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/pool/create-investment-with-mt5", bad, nil)
		rec := httptest.NewRecorder()

		handler.CreateInvestment(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}

func containsCredential(rec *httptest.ResponseRecorder, credential string) bool {
	return strings.Contains(rec.Body.String(), credential)
}
