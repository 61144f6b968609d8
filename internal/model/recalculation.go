package model

// Recalculation job names, run after every applied batch and on the nightly
// refresh schedule.
const (
	RecalcCashflow     = "cashflow"
	RecalcCommissions  = "commissions"
	RecalcPerformance  = "performance"
	RecalcPnL          = "pnl"
	RecalcDistribution = "distribution"
)

// RecalculationResult reports one job's outcome.
type RecalculationResult struct {
	Job        string `json:"job"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// ApplyResult summarizes an applied allocation batch.
type ApplyResult struct {
	AccountsUpdated int                   `json:"accountsUpdated"`
	Recalculations  []RecalculationResult `json:"recalculations"`
	TotalDurationMs int64                 `json:"totalDurationMs"`
}
