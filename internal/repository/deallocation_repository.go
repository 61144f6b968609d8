package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fidus/MT5-Allocation-Backend/internal/apperrors"
	"github.com/fidus/MT5-Allocation-Backend/internal/model"
)

// DeallocationRepository provides data access for the two-person deallocation
// workflow. Resolution is a conditional write guarded by the pending status,
// so a request can only ever be resolved once.
type DeallocationRepository struct {
	db *sql.DB
}

// NewDeallocationRepository creates a new DeallocationRepository with the provided database connection.
func NewDeallocationRepository(db *sql.DB) *DeallocationRepository {
	return &DeallocationRepository{db: db}
}

const requestColumns = `
	id, account_number, requested_by, reason, status,
	resolved_by, resolution_notes, requested_at, resolved_at
`

func scanRequest(row rowScanner) (model.DeallocationRequest, error) {
	var req model.DeallocationRequest
	var resolvedBy, resolutionNotes sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(
		&req.ID,
		&req.AccountNumber,
		&req.RequestedBy,
		&req.Reason,
		&req.Status,
		&resolvedBy,
		&resolutionNotes,
		&req.RequestedAt,
		&resolvedAt,
	)
	if err != nil {
		return model.DeallocationRequest{}, err
	}

	if resolvedBy.Valid {
		req.ResolvedBy = &resolvedBy.String
	}
	if resolutionNotes.Valid {
		req.ResolutionNotes = &resolutionNotes.String
	}
	if resolvedAt.Valid {
		req.ResolvedAt = &resolvedAt.Time
	}

	return req, nil
}

// InsertRequest records a new pending deallocation request.
func (r *DeallocationRepository) InsertRequest(ctx context.Context, req *model.DeallocationRequest) error {
	query := `
		INSERT INTO deallocation_request
			(id, account_number, requested_by, reason, status, requested_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.AccountNumber,
		req.RequestedBy,
		req.Reason,
		req.Status,
		req.RequestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert deallocation request: %w", err)
	}

	return nil
}

// GetRequestByID retrieves a single deallocation request.
func (r *DeallocationRepository) GetRequestByID(requestID string) (model.DeallocationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM deallocation_request WHERE id = ?`

	req, err := scanRequest(r.db.QueryRow(query, requestID))
	if err == sql.ErrNoRows {
		return model.DeallocationRequest{}, apperrors.ErrRequestNotFound
	}
	if err != nil {
		return model.DeallocationRequest{}, fmt.Errorf("failed to query deallocation request: %w", err)
	}

	return req, nil
}

// GetPendingRequests retrieves all requests awaiting approval, oldest first.
func (r *DeallocationRepository) GetPendingRequests() ([]model.DeallocationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM deallocation_request
		WHERE status = ?
		ORDER BY requested_at
	`

	rows, err := r.db.Query(query, model.RequestStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending deallocation requests: %w", err)
	}
	defer rows.Close()

	requests := []model.DeallocationRequest{}

	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deallocation request: %w", err)
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deallocation requests: %w", err)
	}

	return requests, nil
}

// ResolveRequest marks a pending request approved or rejected. Zero rows
// affected means the request was already resolved (or never existed), so an
// approved request can never be replayed against the account.
func (r *DeallocationRepository) ResolveRequest(ctx context.Context, requestID, status, resolvedBy, notes string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE deallocation_request
		SET status = ?, resolved_by = ?, resolution_notes = ?, resolved_at = ?
		WHERE id = ? AND status = ?
	`, status, resolvedBy, notes, time.Now().UTC(), requestID, model.RequestStatusPending)
	if err != nil {
		return fmt.Errorf("failed to resolve deallocation request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read resolution result: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM deallocation_request WHERE id = ?", requestID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to inspect deallocation request: %w", err)
		}
		if exists == 0 {
			return apperrors.ErrRequestNotFound
		}
		return apperrors.ErrRequestNotPending
	}

	return nil
}
