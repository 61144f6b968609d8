package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fidus/MT5-Allocation-Backend/internal/api/request"
	"github.com/fidus/MT5-Allocation-Backend/internal/model"
	"github.com/fidus/MT5-Allocation-Backend/internal/service"
	"github.com/fidus/MT5-Allocation-Backend/internal/testutil"
)

func creationRequest() request.CreateInvestmentRequest {
	return request.CreateInvestmentRequest{
		ClientID:        "client-1",
		FundCode:        "CORE",
		PrincipalAmount: 150000,
		Accounts: []request.InvestmentAccount{
			{AccountNumber: 886557, Amount: 100000, Broker: "multibank", Server: "MultiBank-Live", InvestorPassword: "ro-1"},
			{AccountNumber: 886558, Amount: 50000, Broker: "multibank", Server: "MultiBank-Live", InvestorPassword: "ro-2"},
		},
	}
}

// TestAllocationService_CreateInvestmentWithAccounts tests just-in-time
// investment creation.
//
// WHY: This is the one user-facing operation that provisions pool accounts,
// allocates them and writes mapping rows in a single call. Sum-matching is
// advisory and conflicts must be reported all at once.
func TestAllocationService_CreateInvestmentWithAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("creates investment, accounts and mappings", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		// Execute
		result, err := svc.CreateInvestmentWithAccounts(ctx, creationRequest(), "admin-1")

		// Assert
		if err != nil {
			t.Fatalf("CreateInvestmentWithAccounts() returned unexpected error: %v", err)
		}
		if len(result.InvestmentAccounts) != 2 {
			t.Errorf("Expected 2 investment accounts, got %d", len(result.InvestmentAccounts))
		}
		if result.TotalAllocated != 150000 {
			t.Errorf("Expected 150000 allocated, got %f", result.TotalAllocated)
		}
		if !result.AllocationIsValid {
			t.Error("Expected allocation to be flagged valid")
		}
		for _, account := range result.InvestmentAccounts {
			if account.Status != model.StatusAllocated {
				t.Errorf("Account %d expected allocated, got %q", account.AccountNumber, account.Status)
			}
		}

		var mappings int
		if err := db.QueryRow(`SELECT COUNT(*) FROM investment_mapping WHERE investment_id = ?`, result.Investment.ID).Scan(&mappings); err != nil {
			t.Fatalf("Failed to count mappings: %v", err)
		}
		if mappings != 2 {
			t.Errorf("Expected 2 mapping rows, got %d", mappings)
		}
	})

	t.Run("sum mismatch still succeeds but is flagged", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		req := creationRequest()
		req.PrincipalAmount = 200000 // allocations only cover 150000

		result, err := svc.CreateInvestmentWithAccounts(ctx, req, "admin-1")
		if err != nil {
			t.Fatalf("CreateInvestmentWithAccounts() returned unexpected error: %v", err)
		}
		if result.AllocationIsValid {
			t.Error("Expected allocation to be flagged invalid on sum mismatch")
		}
		if result.TotalAllocated != 150000 {
			t.Errorf("Expected 150000 allocated, got %f", result.TotalAllocated)
		}
	})

	t.Run("cent-level rounding noise stays valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		req := creationRequest()
		req.PrincipalAmount = 150000.005

		result, err := svc.CreateInvestmentWithAccounts(ctx, req, "admin-1")
		if err != nil {
			t.Fatalf("CreateInvestmentWithAccounts() returned unexpected error: %v", err)
		}
		if !result.AllocationIsValid {
			t.Error("Expected sub-cent difference to pass sum matching")
		}
	})

	t.Run("reports every conflicting account at once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		// Both candidates already taken by another client
		testutil.NewPoolAccount(886557).AllocatedTo("client-9", "inv-9", 80000).Build(t, db)
		testutil.NewPoolAccount(886558).AllocatedTo("client-9", "inv-9", 20000).Build(t, db)

		_, err := svc.CreateInvestmentWithAccounts(ctx, creationRequest(), "admin-1")

		var conflictErr *service.ConflictError
		if !errors.As(err, &conflictErr) {
			t.Fatalf("Expected ConflictError, got %v", err)
		}
		if len(conflictErr.Conflicts) != 2 {
			t.Errorf("Expected 2 conflicts, got %d", len(conflictErr.Conflicts))
		}
		for _, conflict := range conflictErr.Conflicts {
			if conflict.ClientID != "client-9" {
				t.Errorf("Expected conflict to name client-9, got %q", conflict.ClientID)
			}
		}

		// Nothing may have been created
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM investment_mapping`).Scan(&count); err != nil {
			t.Fatalf("Failed to count mappings: %v", err)
		}
		if count != 0 {
			t.Errorf("Expected no mapping rows after conflict, got %d", count)
		}
	})

	t.Run("reuses an account already available in the pool", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		testutil.NewPoolAccount(886557).Build(t, db)

		result, err := svc.CreateInvestmentWithAccounts(ctx, creationRequest(), "admin-1")
		if err != nil {
			t.Fatalf("CreateInvestmentWithAccounts() returned unexpected error: %v", err)
		}
		if len(result.InvestmentAccounts) != 2 {
			t.Errorf("Expected 2 investment accounts, got %d", len(result.InvestmentAccounts))
		}

		// The pre-existing row was allocated, not duplicated
		var rows int
		if err := db.QueryRow(`SELECT COUNT(*) FROM mt5_pool_account WHERE account_number = 886557`).Scan(&rows); err != nil {
			t.Fatalf("Failed to count pool rows: %v", err)
		}
		if rows != 1 {
			t.Errorf("Expected 1 pool row for reused account, got %d", rows)
		}
	})

	t.Run("separation accounts carry no principal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		req := creationRequest()
		req.InterestSeparationAccount = &request.SeparationAccount{
			AccountNumber: 886601, Broker: "multibank", Server: "MultiBank-Live", InvestorPassword: "ro-3",
		}
		req.GainsSeparationAccount = &request.SeparationAccount{
			AccountNumber: 886602, Broker: "multibank", Server: "MultiBank-Live", InvestorPassword: "ro-4",
		}

		result, err := svc.CreateInvestmentWithAccounts(ctx, req, "admin-1")
		if err != nil {
			t.Fatalf("CreateInvestmentWithAccounts() returned unexpected error: %v", err)
		}
		if len(result.SeparationAccounts) != 2 {
			t.Fatalf("Expected 2 separation accounts, got %d", len(result.SeparationAccounts))
		}
		for _, account := range result.SeparationAccounts {
			if account.Allocation == nil {
				t.Fatalf("Separation account %d expected an allocation", account.AccountNumber)
			}
			if account.Allocation.Amount != 0 {
				t.Errorf("Separation account %d expected amount 0, got %f", account.AccountNumber, account.Allocation.Amount)
			}
		}

		// Separation accounts stay out of the sum-matching contract
		if !result.AllocationIsValid {
			t.Error("Expected separation accounts not to affect sum matching")
		}
		var mappings int
		if err := db.QueryRow(`SELECT COUNT(*) FROM investment_mapping`).Scan(&mappings); err != nil {
			t.Fatalf("Failed to count mappings: %v", err)
		}
		if mappings != 2 {
			t.Errorf("Expected mapping rows for investment accounts only, got %d", mappings)
		}
	})
}

// TestAllocationService_ValidateAvailability tests the batch pre-check.
func TestAllocationService_ValidateAvailability(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestAllocationService(t, db)

	testutil.NewPoolAccount(886557).Build(t, db)
	testutil.NewPoolAccount(886558).AllocatedTo("client-1", "inv-1", 100000).Build(t, db)

	checks, err := svc.ValidateAvailability([]int64{886557, 886558, 999999})
	if err != nil {
		t.Fatalf("ValidateAvailability() returned unexpected error: %v", err)
	}
	if len(checks) != 3 {
		t.Fatalf("Expected 3 checks, got %d", len(checks))
	}

	want := map[int64]bool{886557: true, 886558: false, 999999: true}
	for _, check := range checks {
		if check.IsAvailable != want[check.AccountNumber] {
			t.Errorf("Account %d: expected available=%v, got %v (%s)",
				check.AccountNumber, want[check.AccountNumber], check.IsAvailable, check.Reason)
		}
	}
}

// TestAllocationService_ValidateInvestmentMappings tests sum matching against
// recorded mappings.
//
// WHY: Reconciliation compares what the mappings say was allocated against
// the investment's declared principal, with a cent-level tolerance.
func TestAllocationService_ValidateInvestmentMappings(t *testing.T) {
	ctx := context.Background()

	t.Run("matching sum is valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		created, err := svc.CreateInvestmentWithAccounts(ctx, creationRequest(), "admin-1")
		if err != nil {
			t.Fatalf("CreateInvestmentWithAccounts() returned unexpected error: %v", err)
		}

		result, err := svc.ValidateInvestmentMappings(created.Investment.ID, 150000)
		if err != nil {
			t.Fatalf("ValidateInvestmentMappings() returned unexpected error: %v", err)
		}
		if !result.IsValid {
			t.Errorf("Expected valid, got difference %f", result.Difference)
		}
		if result.MappingsCount != 2 {
			t.Errorf("Expected 2 mappings, got %d", result.MappingsCount)
		}
	})

	t.Run("mismatch reports the signed difference", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		created, err := svc.CreateInvestmentWithAccounts(ctx, creationRequest(), "admin-1")
		if err != nil {
			t.Fatalf("CreateInvestmentWithAccounts() returned unexpected error: %v", err)
		}

		result, err := svc.ValidateInvestmentMappings(created.Investment.ID, 175000)
		if err != nil {
			t.Fatalf("ValidateInvestmentMappings() returned unexpected error: %v", err)
		}
		if result.IsValid {
			t.Error("Expected invalid on 25000 shortfall")
		}
		if result.Difference != -25000 {
			t.Errorf("Expected difference -25000, got %f", result.Difference)
		}
	})

	t.Run("unknown investment has zero mappings", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		result, err := svc.ValidateInvestmentMappings("no-such-investment", 0)
		if err != nil {
			t.Fatalf("ValidateInvestmentMappings() returned unexpected error: %v", err)
		}
		if result.MappingsCount != 0 {
			t.Errorf("Expected 0 mappings, got %d", result.MappingsCount)
		}
		if !result.IsValid {
			t.Error("Expected zero-against-zero to be valid")
		}
	})
}
