package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ReportRepository reads the aggregates behind the recalculation jobs and
// persists their latest results.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new ReportRepository with the provided database connection.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FundTotal is an aggregate of mapped principal per fund bucket.
type FundTotal struct {
	FundCode    string  `json:"fundCode"`
	Total       float64 `json:"total"`
	Investments int     `json:"investments"`
}

// ManagerTotal is an aggregate of roster balances per manager.
type ManagerTotal struct {
	Manager          string  `json:"manager"`
	Accounts         int     `json:"accounts"`
	Balance          float64 `json:"balance"`
	AllocatedCapital float64 `json:"allocatedCapital"`
}

// CashflowByFund sums mapped investment amounts per fund bucket.
func (r *ReportRepository) CashflowByFund(ctx context.Context, q DBTX) ([]FundTotal, error) {
	if q == nil {
		q = r.db
	}

	rows, err := q.QueryContext(ctx, `
		SELECT fund_code, SUM(allocated_amount), COUNT(DISTINCT investment_id)
		FROM investment_mapping
		GROUP BY fund_code
		ORDER BY fund_code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cashflow totals: %w", err)
	}
	defer rows.Close()

	totals := []FundTotal{}

	for rows.Next() {
		var t FundTotal
		if err := rows.Scan(&t.FundCode, &t.Total, &t.Investments); err != nil {
			return nil, fmt.Errorf("failed to scan cashflow totals: %w", err)
		}
		totals = append(totals, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cashflow totals: %w", err)
	}

	return totals, nil
}

// TotalsByManager aggregates roster balances and allocated capital per manager.
// Unmanaged accounts are excluded.
func (r *ReportRepository) TotalsByManager(ctx context.Context, q DBTX) ([]ManagerTotal, error) {
	if q == nil {
		q = r.db
	}

	rows, err := q.QueryContext(ctx, `
		SELECT manager, COUNT(*), SUM(balance), SUM(allocated_capital)
		FROM trading_account
		WHERE manager IS NOT NULL
		GROUP BY manager
		ORDER BY manager
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query manager totals: %w", err)
	}
	defer rows.Close()

	totals := []ManagerTotal{}

	for rows.Next() {
		var t ManagerTotal
		if err := rows.Scan(&t.Manager, &t.Accounts, &t.Balance, &t.AllocatedCapital); err != nil {
			return nil, fmt.Errorf("failed to scan manager totals: %w", err)
		}
		totals = append(totals, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manager totals: %w", err)
	}

	return totals, nil
}

// DistributionByFund counts roster accounts and capital per fund bucket.
func (r *ReportRepository) DistributionByFund(ctx context.Context, q DBTX) ([]FundTotal, error) {
	if q == nil {
		q = r.db
	}

	rows, err := q.QueryContext(ctx, `
		SELECT fund_type, SUM(allocated_capital), COUNT(*)
		FROM trading_account
		WHERE fund_type IS NOT NULL
		GROUP BY fund_type
		ORDER BY fund_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund distribution: %w", err)
	}
	defer rows.Close()

	totals := []FundTotal{}

	for rows.Next() {
		var t FundTotal
		if err := rows.Scan(&t.FundCode, &t.Total, &t.Investments); err != nil {
			return nil, fmt.Errorf("failed to scan fund distribution: %w", err)
		}
		totals = append(totals, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund distribution: %w", err)
	}

	return totals, nil
}

// PoolStatusCounts returns pool account counts per status.
func (r *ReportRepository) PoolStatusCounts(ctx context.Context, q DBTX) (map[string]int, error) {
	if q == nil {
		q = r.db
	}

	rows, err := q.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM mt5_pool_account
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pool status counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan pool status counts: %w", err)
		}
		counts[status] = count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pool status counts: %w", err)
	}

	return counts, nil
}

// UpsertSummary stores the latest payload for a recalculation job.
func (r *ReportRepository) UpsertSummary(ctx context.Context, q DBTX, job string, payload any) error {
	if q == nil {
		q = r.db
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s summary: %w", job, err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO report_summary (job, payload, computed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(job) DO UPDATE SET payload = excluded.payload, computed_at = excluded.computed_at
	`, job, string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store %s summary: %w", job, err)
	}

	return nil
}

// GetSummary retrieves the latest stored payload for a job, unmarshalled into out.
func (r *ReportRepository) GetSummary(ctx context.Context, job string, out any) error {
	var payload string

	err := r.db.QueryRowContext(ctx,
		"SELECT payload FROM report_summary WHERE job = ?", job,
	).Scan(&payload)
	if err != nil {
		return fmt.Errorf("failed to load %s summary: %w", job, err)
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("failed to decode %s summary: %w", job, err)
	}

	return nil
}
