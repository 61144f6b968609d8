package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fidus/MT5-Allocation-Backend/internal/api/handlers"
	"github.com/fidus/MT5-Allocation-Backend/internal/model"
	"github.com/fidus/MT5-Allocation-Backend/internal/testutil"
)

// TestRosterHandler_AssignManager tests the assignment endpoint.
//
// WHY: Assignment endpoints must surface enum violations as field-level 400s
// and unknown accounts as 404s, and return the refreshed account on success.
func TestRosterHandler_AssignManager(t *testing.T) {
	t.Run("assigns and returns the updated account", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewRosterHandler(testutil.NewTestRosterService(t, db))
		testutil.NewTradingAccount(700101).WithBalance(320000).Build(t, db)

		body := map[string]any{"accountNumber": 700101, "manager": "CP Strategy"}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/roster/assign-to-manager", body, nil)
		rec := httptest.NewRecorder()

		// Execute
		handler.AssignManager(rec, req)

		// Assert
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var account model.TradingAccount
		testutil.DecodeJSON(t, rec, &account)
		if account.Manager == nil || *account.Manager != "CP Strategy" {
			t.Errorf("Expected manager CP Strategy, got %v", account.Manager)
		}
		if account.AllocatedCapital != 320000 {
			t.Errorf("Expected capital snapshot 320000, got %f", account.AllocatedCapital)
		}
	})

	t.Run("unknown manager is 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewRosterHandler(testutil.NewTestRosterService(t, db))
		testutil.NewTradingAccount(700101).Build(t, db)

		body := map[string]any{"accountNumber": 700101, "manager": "Nobody"}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/roster/assign-to-manager", body, nil)
		rec := httptest.NewRecorder()

		handler.AssignManager(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown account is 404", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewRosterHandler(testutil.NewTestRosterService(t, db))

		body := map[string]any{"accountNumber": 999999, "manager": "CP Strategy"}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/roster/assign-to-manager", body, nil)
		rec := httptest.NewRecorder()

		handler.AssignManager(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})
}

// TestRosterHandler_Accounts tests the roster listing envelope.
func TestRosterHandler_Accounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewRosterHandler(testutil.NewTestRosterService(t, db))

	testutil.NewTradingAccount(700101).Build(t, db)
	testutil.NewTradingAccount(700102).FullyAssigned().Build(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/roster/mt5-accounts", nil)
	rec := httptest.NewRecorder()

	handler.Accounts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var result struct {
		Accounts []model.TradingAccount `json:"accounts"`
		Total    int                    `json:"total"`
	}
	testutil.DecodeJSON(t, rec, &result)
	if result.Total != 2 || len(result.Accounts) != 2 {
		t.Errorf("Expected 2 accounts, got total=%d len=%d", result.Total, len(result.Accounts))
	}
}

// TestRosterHandler_ApplyAllocations tests the batch apply endpoint.
//
// WHY: The apply endpoint gates on the validation report: a blocked batch is
// a client error (400), a clean batch returns the recalculation summary.
func TestRosterHandler_ApplyAllocations(t *testing.T) {
	t.Run("applies a clean batch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewRosterHandler(testutil.NewTestRosterService(t, db))
		testutil.NewTradingAccount(700101).FullyAssigned().Build(t, db)

		req := httptest.NewRequest(http.MethodPost, "/api/roster/apply-allocations", nil)
		rec := httptest.NewRecorder()

		handler.ApplyAllocations(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var result model.ApplyResult
		testutil.DecodeJSON(t, rec, &result)
		if result.AccountsUpdated != 1 {
			t.Errorf("Expected 1 account updated, got %d", result.AccountsUpdated)
		}
		if len(result.Recalculations) != 5 {
			t.Errorf("Expected 5 recalculations, got %d", len(result.Recalculations))
		}
	})

	t.Run("blocked batch is 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewRosterHandler(testutil.NewTestRosterService(t, db))
		testutil.NewTradingAccount(700101).WithManager("UNO14").Build(t, db)

		req := httptest.NewRequest(http.MethodPost, "/api/roster/apply-allocations", nil)
		rec := httptest.NewRecorder()

		handler.ApplyAllocations(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

// TestRosterHandler_ValidateAllocations tests the precondition report shape.
func TestRosterHandler_ValidateAllocations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewRosterHandler(testutil.NewTestRosterService(t, db))

	testutil.NewTradingAccount(700101).FullyAssigned().Build(t, db)
	testutil.NewTradingAccount(700102).WithManager("UNO14").WithBroker("multibank").Build(t, db)

	req := httptest.NewRequest(http.MethodGet, "/api/roster/validate-allocations", nil)
	rec := httptest.NewRecorder()

	handler.ValidateAllocations(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var report model.AllocationValidation
	testutil.DecodeJSON(t, rec, &report)
	if report.CanApply {
		t.Error("Expected canApply=false")
	}
	if len(report.IncompleteAccounts) != 1 {
		t.Fatalf("Expected 1 incomplete account, got %d", len(report.IncompleteAccounts))
	}
	if got := report.IncompleteAccounts[0].Missing; len(got) != 2 {
		t.Errorf("Expected 2 missing fields, got %v", got)
	}
}

// TestRosterHandler_AllocationHistory tests the history endpoint's limit guard.
func TestRosterHandler_AllocationHistory(t *testing.T) {
	t.Run("rejects a non-positive limit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewRosterHandler(testutil.NewTestRosterService(t, db))

		req := httptest.NewRequest(http.MethodGet,
			"/api/roster/allocation-history?account=700101&limit=0", nil)
		rec := httptest.NewRecorder()

		handler.AllocationHistory(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns entries newest first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestRosterService(t, db)
		handler := handlers.NewRosterHandler(svc)
		testutil.NewTradingAccount(700101).Build(t, db)

		// Two mutations produce two entries
		body1 := map[string]any{"accountNumber": 700101, "broker": "multibank"}
		body2 := map[string]any{"accountNumber": 700101, "platform": "mt5"}
		for _, body := range []map[string]any{body1, body2} {
			rec := httptest.NewRecorder()
			if _, ok := body["broker"]; ok {
				handler.AssignBroker(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/roster/assign-to-broker", body, nil))
			} else {
				handler.AssignPlatform(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/roster/assign-to-platform", body, nil))
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("Assignment failed with %d: %s", rec.Code, rec.Body.String())
			}
		}

		req := httptest.NewRequest(http.MethodGet,
			"/api/roster/allocation-history?account=700101", nil)
		rec := httptest.NewRecorder()

		handler.AllocationHistory(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var entries []model.AllocationHistoryEntry
		testutil.DecodeJSON(t, rec, &entries)
		if len(entries) != 2 {
			t.Errorf("Expected 2 history entries, got %d", len(entries))
		}
	})
}
