package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fidus/MT5-Allocation-Backend/internal/apperrors"
	"github.com/fidus/MT5-Allocation-Backend/internal/model"
)

// PoolRepository is the single source of truth for MT5 pool account state.
// Exclusivity is enforced here, at the write layer: every status transition is
// a single conditional UPDATE guarded by the expected current status, so two
// concurrent callers can never both win the same account.
type PoolRepository struct {
	db *sql.DB
}

// NewPoolRepository creates a new PoolRepository with the provided database connection.
func NewPoolRepository(db *sql.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

const poolAccountColumns = `
	id, account_number, broker, account_type, server, status, notes,
	allocated_client_id, allocated_investment_id, allocated_amount,
	allocated_by, allocated_at, allocation_notes,
	created_by, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoolAccount(row rowScanner) (model.PoolAccount, error) {
	var a model.PoolAccount
	var server, notes sql.NullString
	var clientID, investmentID, allocatedBy, allocationNotes sql.NullString
	var amount sql.NullFloat64
	var allocatedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.AccountNumber,
		&a.Broker,
		&a.AccountType,
		&server,
		&a.Status,
		&notes,
		&clientID,
		&investmentID,
		&amount,
		&allocatedBy,
		&allocatedAt,
		&allocationNotes,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return model.PoolAccount{}, err
	}

	a.Server = server.String
	a.Notes = notes.String

	if clientID.Valid {
		a.Allocation = &model.Allocation{
			ClientID:     clientID.String,
			InvestmentID: investmentID.String,
			Amount:       amount.Float64,
			AllocatedBy:  allocatedBy.String,
			AllocatedAt:  allocatedAt.Time,
			Notes:        allocationNotes.String,
		}
	}

	return a, nil
}

// GetAccountByNumber retrieves a single pool account by its MT5 login.
func (r *PoolRepository) GetAccountByNumber(accountNumber int64) (model.PoolAccount, error) {
	query := `SELECT ` + poolAccountColumns + ` FROM mt5_pool_account WHERE account_number = ?`

	account, err := scanPoolAccount(r.db.QueryRow(query, accountNumber))
	if err == sql.ErrNoRows {
		return model.PoolAccount{}, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return model.PoolAccount{}, fmt.Errorf("failed to query pool account: %w", err)
	}

	return account, nil
}

// GetAvailableAccounts retrieves accounts with status=available, optionally
// filtered by account type and broker. Allocation fields are nulled out in
// the projection (an available account has none by invariant).
func (r *PoolRepository) GetAvailableAccounts(filter model.PoolAccountFilter) ([]model.PoolAccount, error) {
	query := `SELECT ` + poolAccountColumns + ` FROM mt5_pool_account WHERE status = ?`
	args := []any{model.StatusAvailable}

	if filter.AccountType != "" {
		query += " AND account_type = ?"
		args = append(args, filter.AccountType)
	}
	if filter.Broker != "" {
		query += " AND broker = ?"
		args = append(args, filter.Broker)
	}
	query += " ORDER BY account_number"

	return r.queryAccounts(query, args...)
}

// GetAllocatedAccounts retrieves accounts with status=allocated together with
// their allocation records, optionally scoped to one client.
func (r *PoolRepository) GetAllocatedAccounts(clientID string) ([]model.PoolAccount, error) {
	query := `SELECT ` + poolAccountColumns + ` FROM mt5_pool_account WHERE status = ?`
	args := []any{model.StatusAllocated}

	if clientID != "" {
		query += " AND allocated_client_id = ?"
		args = append(args, clientID)
	}
	query += " ORDER BY account_number"

	return r.queryAccounts(query, args...)
}

func (r *PoolRepository) queryAccounts(query string, args ...any) ([]model.PoolAccount, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pool accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.PoolAccount{}

	for rows.Next() {
		account, err := scanPoolAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pool account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pool accounts: %w", err)
	}

	return accounts, nil
}

// AddAccount inserts a new pool account with status=available.
// Returns ErrDuplicateAccount if the account number is already in the pool.
// The investor password arrives already encrypted and is stored as-is.
func (r *PoolRepository) AddAccount(ctx context.Context, account *model.PoolAccount, encryptedPassword string) error {
	query := `
		INSERT INTO mt5_pool_account
			(id, account_number, broker, account_type, investor_password, server,
			 status, notes, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var exists int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mt5_pool_account WHERE account_number = ?",
		account.AccountNumber,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate account: %w", err)
	}
	if exists > 0 {
		return apperrors.ErrDuplicateAccount
	}

	_, err = r.db.ExecContext(ctx, query,
		account.ID,
		account.AccountNumber,
		account.Broker,
		account.AccountType,
		encryptedPassword,
		account.Server,
		account.Status,
		account.Notes,
		account.CreatedBy,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		// The UNIQUE constraint still closes the pre-check race.
		return fmt.Errorf("failed to insert pool account: %w", err)
	}

	return nil
}

// AllocateAccount transitions an account from available to allocated in a
// single conditional write. Zero rows affected means the account either does
// not exist or lost the race to another allocation; the pre-flight
// exclusivity check is only an optimization, this is the real guard.
func (r *PoolRepository) AllocateAccount(ctx context.Context, accountNumber int64, alloc model.Allocation) error {
	query := `
		UPDATE mt5_pool_account
		SET status = ?,
			allocated_client_id = ?,
			allocated_investment_id = ?,
			allocated_amount = ?,
			allocated_by = ?,
			allocated_at = ?,
			allocation_notes = ?,
			updated_at = ?
		WHERE account_number = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		model.StatusAllocated,
		alloc.ClientID,
		alloc.InvestmentID,
		alloc.Amount,
		alloc.AllocatedBy,
		alloc.AllocatedAt,
		alloc.Notes,
		time.Now().UTC(),
		accountNumber,
		model.StatusAvailable,
	)
	if err != nil {
		return fmt.Errorf("failed to allocate pool account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read allocation result: %w", err)
	}
	if affected == 0 {
		return r.classifyConflict(ctx, accountNumber)
	}

	return nil
}

// classifyConflict distinguishes "unknown account" from "lost the race".
func (r *PoolRepository) classifyConflict(ctx context.Context, accountNumber int64) error {
	var exists int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mt5_pool_account WHERE account_number = ?",
		accountNumber,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to inspect pool account: %w", err)
	}
	if exists == 0 {
		return apperrors.ErrAccountNotFound
	}
	return apperrors.ErrAccountNotAvailable
}

// MarkPendingDeallocation flags an allocated account as pending-deallocation.
// The allocation fields remain in place until an approval clears them.
func (r *PoolRepository) MarkPendingDeallocation(ctx context.Context, accountNumber int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE mt5_pool_account
		SET status = ?, updated_at = ?
		WHERE account_number = ? AND status = ?
	`, model.StatusPendingDeallocation, time.Now().UTC(), accountNumber, model.StatusAllocated)
	if err != nil {
		return fmt.Errorf("failed to flag account pending deallocation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read deallocation flag result: %w", err)
	}
	if affected == 0 {
		if err := r.classifyConflict(ctx, accountNumber); err == apperrors.ErrAccountNotFound {
			return err
		}
		return apperrors.ErrAccountNotAllocated
	}

	return nil
}

// ClearAllocation returns a pending-deallocation account to available,
// clearing every allocation field.
func (r *PoolRepository) ClearAllocation(ctx context.Context, accountNumber int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE mt5_pool_account
		SET status = ?,
			allocated_client_id = NULL,
			allocated_investment_id = NULL,
			allocated_amount = NULL,
			allocated_by = NULL,
			allocated_at = NULL,
			allocation_notes = NULL,
			updated_at = ?
		WHERE account_number = ? AND status = ?
	`, model.StatusAvailable, time.Now().UTC(), accountNumber, model.StatusPendingDeallocation)
	if err != nil {
		return fmt.Errorf("failed to clear allocation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read clear result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrAccountNotAllocated
	}

	return nil
}

// RestoreAllocated moves a pending-deallocation account back to allocated
// after a rejected request, leaving its allocation untouched.
func (r *PoolRepository) RestoreAllocated(ctx context.Context, accountNumber int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE mt5_pool_account
		SET status = ?, updated_at = ?
		WHERE account_number = ? AND status = ?
	`, model.StatusAllocated, time.Now().UTC(), accountNumber, model.StatusPendingDeallocation)
	if err != nil {
		return fmt.Errorf("failed to restore allocation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read restore result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrAccountNotAllocated
	}

	return nil
}

// GetStatistics aggregates account counts per status.
func (r *PoolRepository) GetStatistics() (model.PoolStatistics, error) {
	rows, err := r.db.Query(`
		SELECT status, COUNT(*)
		FROM mt5_pool_account
		GROUP BY status
	`)
	if err != nil {
		return model.PoolStatistics{}, fmt.Errorf("failed to query pool statistics: %w", err)
	}
	defer rows.Close()

	var stats model.PoolStatistics

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return model.PoolStatistics{}, fmt.Errorf("failed to scan pool statistics: %w", err)
		}

		stats.TotalAccounts += count
		switch status {
		case model.StatusAvailable:
			stats.Available = count
		case model.StatusAllocated:
			stats.Allocated = count
		case model.StatusPendingDeallocation:
			stats.PendingDeallocation = count
		}
	}

	if err = rows.Err(); err != nil {
		return model.PoolStatistics{}, fmt.Errorf("error iterating pool statistics: %w", err)
	}

	return stats, nil
}
