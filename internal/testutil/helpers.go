package testutil

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/fidus/MT5-Allocation-Backend/internal/repository"
	"github.com/fidus/MT5-Allocation-Backend/internal/secrets"
	"github.com/fidus/MT5-Allocation-Backend/internal/service"
)

// TestFernetKey is a fixed base64url-encoded 32-byte key for credential
// encryption in tests. Never use it outside tests.
const TestFernetKey = "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="

// NewTestEncryptor returns a credential encryptor keyed with TestFernetKey.
func NewTestEncryptor(t *testing.T) *secrets.Encryptor {
	t.Helper()

	enc, err := secrets.NewEncryptor(TestFernetKey)
	if err != nil {
		t.Fatalf("Failed to create test encryptor: %v", err)
	}
	return enc
}

func NewTestPoolService(t *testing.T, db *sql.DB) *service.PoolService {
	t.Helper()

	poolRepo := repository.NewPoolRepository(db)
	deallocationRepo := repository.NewDeallocationRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	return service.NewPoolService(
		poolRepo,
		deallocationRepo,
		historyRepo,
		NewTestEncryptor(t),
	)
}

func NewTestAllocationService(t *testing.T, db *sql.DB) *service.AllocationService {
	t.Helper()

	mappingRepo := repository.NewMappingRepository(db)

	return service.NewAllocationService(
		NewTestPoolService(t, db),
		mappingRepo,
	)
}

func NewTestRecalculationService(t *testing.T, db *sql.DB) *service.RecalculationService {
	t.Helper()

	reportRepo := repository.NewReportRepository(db)

	return service.NewRecalculationService(reportRepo)
}

func NewTestRosterService(t *testing.T, db *sql.DB) *service.RosterService {
	t.Helper()

	rosterRepo := repository.NewRosterRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	return service.NewRosterService(
		db,
		rosterRepo,
		historyRepo,
		NewTestRecalculationService(t, db),
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}
