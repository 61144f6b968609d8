package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fidus/MT5-Allocation-Backend/internal/model"
)

// HistoryRepository provides append-only access to the allocation history and
// audit log. Nothing here ever updates or deletes.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the provided database connection.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// InsertHistory appends one allocation-history entry, on the caller's
// transaction when one is open.
func (r *HistoryRepository) InsertHistory(ctx context.Context, q DBTX, accountNumber int64, field string, oldValue, newValue *string, actor string) error {
	if q == nil {
		q = r.db
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO allocation_history (id, account_number, field, old_value, new_value, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), accountNumber, field, oldValue, newValue, actor, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append allocation history: %w", err)
	}

	return nil
}

// ListHistory retrieves history entries, newest first, optionally scoped to
// one account. A zero limit means no limit.
func (r *HistoryRepository) ListHistory(accountNumber int64, limit int) ([]model.AllocationHistoryEntry, error) {
	query := `
		SELECT id, account_number, field, old_value, new_value, actor, created_at
		FROM allocation_history
	`
	var args []any

	if accountNumber > 0 {
		query += " WHERE account_number = ?"
		args = append(args, accountNumber)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation history: %w", err)
	}
	defer rows.Close()

	entries := []model.AllocationHistoryEntry{}

	for rows.Next() {
		var e model.AllocationHistoryEntry
		var oldValue, newValue sql.NullString

		err := rows.Scan(&e.ID, &e.AccountNumber, &e.Field, &oldValue, &newValue, &e.Actor, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation history: %w", err)
		}

		if oldValue.Valid {
			e.OldValue = &oldValue.String
		}
		if newValue.Valid {
			e.NewValue = &newValue.String
		}

		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation history: %w", err)
	}

	return entries, nil
}

// InsertAudit appends one audit-log entry with a JSON details payload.
func (r *HistoryRepository) InsertAudit(ctx context.Context, q DBTX, action, actor string, details any) error {
	if q == nil {
		q = r.db
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, actor, details, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.New().String(), action, actor, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}

	return nil
}
