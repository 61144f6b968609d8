package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// MappingRepository provides data access for investment-to-MT5 mapping rows.
type MappingRepository struct {
	db *sql.DB
}

// NewMappingRepository creates a new MappingRepository with the provided database connection.
func NewMappingRepository(db *sql.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// MappingRow is one row to insert for an investment.
type MappingRow struct {
	ID               string
	MT5AccountNumber int64
	AllocatedAmount  float64
	AllocationNotes  string
}

// CreateMappingsForInvestment bulk-inserts one mapping row per MT5 account
// backing the investment. All rows are written inside a single transaction:
// either every account is mapped or none are.
func (r *MappingRepository) CreateMappingsForInvestment(ctx context.Context, investmentID, clientID, fundCode, adminID string, rows []MappingRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin mapping transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO investment_mapping
			(id, investment_id, client_id, fund_code, mt5_account_number,
			 allocated_amount, allocation_notes, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, query,
			row.ID,
			investmentID,
			clientID,
			fundCode,
			row.MT5AccountNumber,
			row.AllocatedAmount,
			row.AllocationNotes,
			adminID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert mapping for account %d: %w", row.MT5AccountNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mappings: %w", err)
	}

	return nil
}

// SumForInvestment returns the total mapped amount and row count for an investment.
func (r *MappingRepository) SumForInvestment(investmentID string) (float64, int, error) {
	var total sql.NullFloat64
	var count int

	err := r.db.QueryRow(`
		SELECT SUM(allocated_amount), COUNT(*)
		FROM investment_mapping
		WHERE investment_id = ?
	`, investmentID).Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum investment mappings: %w", err)
	}

	return total.Float64, count, nil
}
