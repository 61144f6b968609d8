package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fidus/MT5-Allocation-Backend/internal/apperrors"
	"github.com/fidus/MT5-Allocation-Backend/internal/model"
)

// RosterRepository provides data access for the fixed roster of assignable
// trading accounts and their mirrored config rows.
type RosterRepository struct {
	db *sql.DB
}

// NewRosterRepository creates a new RosterRepository with the provided database connection.
func NewRosterRepository(db *sql.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// assignmentColumns maps assignment types to their backing columns. Keeps the
// dynamic column name out of caller hands.
var assignmentColumns = map[string]string{
	model.AssignmentManager:  "manager",
	model.AssignmentFund:     "fund_type",
	model.AssignmentBroker:   "broker",
	model.AssignmentPlatform: "platform",
}

const rosterColumns = `
	id, account_number, balance, allocated_capital,
	manager, fund_type, broker, platform,
	status, is_active, last_allocation_update, updated_at
`

func scanTradingAccount(row rowScanner) (model.TradingAccount, error) {
	var a model.TradingAccount
	var manager, fundType, broker, platform sql.NullString
	var lastUpdate sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.AccountNumber,
		&a.Balance,
		&a.AllocatedCapital,
		&manager,
		&fundType,
		&broker,
		&platform,
		&a.Status,
		&a.IsActive,
		&lastUpdate,
		&a.UpdatedAt,
	)
	if err != nil {
		return model.TradingAccount{}, err
	}

	if manager.Valid {
		a.Manager = &manager.String
	}
	if fundType.Valid {
		a.FundType = &fundType.String
	}
	if broker.Valid {
		a.Broker = &broker.String
	}
	if platform.Valid {
		a.Platform = &platform.String
	}
	if lastUpdate.Valid {
		a.LastAllocationUpdate = &lastUpdate.Time
	}

	return a, nil
}

// GetAccounts retrieves the full fixed roster, ordered by account number.
func (r *RosterRepository) GetAccounts() ([]model.TradingAccount, error) {
	query := `SELECT ` + rosterColumns + ` FROM trading_account ORDER BY account_number`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trading accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.TradingAccount{}

	for rows.Next() {
		account, err := scanTradingAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trading account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trading accounts: %w", err)
	}

	return accounts, nil
}

// GetAccountByNumber retrieves a single roster account.
func (r *RosterRepository) GetAccountByNumber(accountNumber int64) (model.TradingAccount, error) {
	query := `SELECT ` + rosterColumns + ` FROM trading_account WHERE account_number = ?`

	account, err := scanTradingAccount(r.db.QueryRow(query, accountNumber))
	if err == sql.ErrNoRows {
		return model.TradingAccount{}, apperrors.ErrTradingAccountNotFound
	}
	if err != nil {
		return model.TradingAccount{}, fmt.Errorf("failed to query trading account: %w", err)
	}

	return account, nil
}

// SetAssignment writes a single assignment field and stamps the allocation
// update time. For manager assignments, allocatedCapital snapshots the
// account's current balance.
func (r *RosterRepository) SetAssignment(ctx context.Context, accountNumber int64, assignmentType, value string, allocatedCapital *float64) error {
	column, ok := assignmentColumns[assignmentType]
	if !ok {
		return apperrors.ErrInvalidAssignmentType
	}

	now := time.Now().UTC()
	query := fmt.Sprintf(`
		UPDATE trading_account
		SET %s = ?, last_allocation_update = ?, updated_at = ?
		WHERE account_number = ?
	`, column)
	args := []any{value, now, now, accountNumber}

	if allocatedCapital != nil {
		query = fmt.Sprintf(`
			UPDATE trading_account
			SET %s = ?, allocated_capital = ?, last_allocation_update = ?, updated_at = ?
			WHERE account_number = ?
		`, column)
		args = []any{value, *allocatedCapital, now, now, accountNumber}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set %s assignment: %w", assignmentType, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read assignment result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTradingAccountNotFound
	}

	return nil
}

// ClearAssignment nulls a single assignment field. Manager removal also
// zeroes allocated_capital.
func (r *RosterRepository) ClearAssignment(ctx context.Context, accountNumber int64, assignmentType string) error {
	column, ok := assignmentColumns[assignmentType]
	if !ok {
		return apperrors.ErrInvalidAssignmentType
	}

	now := time.Now().UTC()
	query := fmt.Sprintf(`
		UPDATE trading_account
		SET %s = NULL, last_allocation_update = ?, updated_at = ?
		WHERE account_number = ?
	`, column)
	args := []any{now, now, accountNumber}

	if assignmentType == model.AssignmentManager {
		query = `
			UPDATE trading_account
			SET manager = NULL, allocated_capital = 0, last_allocation_update = ?, updated_at = ?
			WHERE account_number = ?
		`
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to clear %s assignment: %w", assignmentType, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read removal result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTradingAccountNotFound
	}

	return nil
}

// MarkApplied promotes one pending account: status=assigned, active, stamped.
// Runs on the caller's transaction when one is open.
func (r *RosterRepository) MarkApplied(ctx context.Context, q DBTX, accountNumber int64) error {
	now := time.Now().UTC()

	result, err := q.ExecContext(ctx, `
		UPDATE trading_account
		SET status = ?, is_active = 1, last_allocation_update = ?, updated_at = ?
		WHERE account_number = ? AND status = ?
	`, model.RosterStatusAssigned, now, now, accountNumber, model.RosterStatusUnassigned)
	if err != nil {
		return fmt.Errorf("failed to mark account %d applied: %w", accountNumber, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read apply result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrTradingAccountNotFound
	}

	// Mirror the active flag into the config collection.
	_, err = q.ExecContext(ctx, `
		INSERT INTO trading_account_config (id, account_number, is_active, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(account_number) DO UPDATE SET is_active = 1, updated_at = excluded.updated_at
	`, fmt.Sprintf("cfg-%d", accountNumber), accountNumber, now)
	if err != nil {
		return fmt.Errorf("failed to mirror config for account %d: %w", accountNumber, err)
	}

	return nil
}
