package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// A second connection would see a different empty :memory: database,
	// so pin the pool to one.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		-- MT5 pool accounts
		CREATE TABLE mt5_pool_account (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			account_number INTEGER NOT NULL UNIQUE,
			broker VARCHAR(20) NOT NULL,
			account_type VARCHAR(20) NOT NULL,
			investor_password TEXT,
			server VARCHAR(50),
			status VARCHAR(25) NOT NULL DEFAULT 'available',
			notes TEXT,
			allocated_client_id VARCHAR(36),
			allocated_investment_id VARCHAR(36),
			allocated_amount FLOAT,
			allocated_by VARCHAR(36),
			allocated_at DATETIME,
			allocation_notes TEXT,
			created_by VARCHAR(36) NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX idx_pool_account_status ON mt5_pool_account(status);

		-- Two-person deallocation workflow
		CREATE TABLE deallocation_request (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			account_number INTEGER NOT NULL,
			requested_by VARCHAR(36) NOT NULL,
			reason TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending_approval',
			resolved_by VARCHAR(36),
			resolution_notes TEXT,
			requested_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			resolved_at DATETIME
		);

		CREATE INDEX idx_deallocation_request_status ON deallocation_request(status);

		-- Investment to MT5 account join
		CREATE TABLE investment_mapping (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			investment_id VARCHAR(36) NOT NULL,
			client_id VARCHAR(36) NOT NULL,
			fund_code VARCHAR(20) NOT NULL,
			mt5_account_number INTEGER NOT NULL,
			allocated_amount FLOAT NOT NULL,
			allocation_notes TEXT,
			created_by VARCHAR(36) NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX idx_investment_mapping_investment ON investment_mapping(investment_id);

		-- Fixed roster of live trading accounts
		CREATE TABLE trading_account (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			account_number INTEGER NOT NULL UNIQUE,
			balance FLOAT NOT NULL DEFAULT 0,
			allocated_capital FLOAT NOT NULL DEFAULT 0,
			manager VARCHAR(50),
			fund_type VARCHAR(20),
			broker VARCHAR(20),
			platform VARCHAR(10),
			status VARCHAR(15) NOT NULL DEFAULT 'unassigned',
			is_active BOOLEAN NOT NULL DEFAULT 0,
			last_allocation_update DATETIME,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		-- Secondary config collection mirroring the active flag
		CREATE TABLE trading_account_config (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			account_number INTEGER NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		-- Append-only log of assignment mutations
		CREATE TABLE allocation_history (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			account_number INTEGER NOT NULL,
			field VARCHAR(20) NOT NULL,
			old_value TEXT,
			new_value TEXT,
			actor VARCHAR(36) NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX idx_allocation_history_account ON allocation_history(account_number);

		-- Append-only audit trail
		CREATE TABLE audit_log (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			action VARCHAR(30) NOT NULL,
			actor VARCHAR(36) NOT NULL,
			details TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		-- Latest output of each recalculation job
		CREATE TABLE report_summary (
			job VARCHAR(20) NOT NULL PRIMARY KEY,
			payload TEXT NOT NULL,
			computed_at DATETIME NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}
