package model

import "time"

// Pool account lifecycle statuses.
const (
	StatusAvailable           = "available"
	StatusAllocated           = "allocated"
	StatusPendingDeallocation = "pending_deallocation"
)

// Pool account types. Separation accounts track interest or gains flows for
// an investment without holding principal.
const (
	AccountTypeInvestment         = "investment"
	AccountTypeInterestSeparation = "interest_separation"
	AccountTypeGainsSeparation    = "gains_separation"
)

// PoolAccount represents one MT5 brokerage account slot in the pool.
// The investor password is write-only and intentionally has no field here;
// it never leaves the persistence layer in plain or encrypted form.
type PoolAccount struct {
	ID            string      `json:"id"`
	AccountNumber int64       `json:"accountNumber"`
	Broker        string      `json:"broker"`
	AccountType   string      `json:"accountType"`
	Server        string      `json:"server"`
	Status        string      `json:"status"`
	Notes         string      `json:"notes"`
	Allocation    *Allocation `json:"allocation,omitempty"` // nil unless allocated
	CreatedBy     string      `json:"createdBy"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Allocation holds the active client/investment reference of an allocated
// pool account. An account has at most one at a time.
type Allocation struct {
	ClientID     string    `json:"clientId"`
	InvestmentID string    `json:"investmentId"`
	Amount       float64   `json:"amount"`
	AllocatedBy  string    `json:"allocatedBy"`
	AllocatedAt  time.Time `json:"allocatedAt"`
	Notes        string    `json:"notes"`
}

// ExclusivityCheck is the result of the core allocation guard.
// IsAvailable is false whenever the account currently holds an allocation.
type ExclusivityCheck struct {
	AccountNumber     int64       `json:"accountNumber"`
	IsAvailable       bool        `json:"isAvailable"`
	Reason            string      `json:"reason"`
	CurrentAllocation *Allocation `json:"currentAllocation,omitempty"`
}

// PoolStatistics aggregates account counts per status.
// UtilizationRate is allocated/total*100, and 0 for an empty pool.
type PoolStatistics struct {
	TotalAccounts       int     `json:"totalAccounts"`
	Available           int     `json:"available"`
	Allocated           int     `json:"allocated"`
	PendingDeallocation int     `json:"pendingDeallocation"`
	UtilizationRate     float64 `json:"utilizationRate"`
}

// PoolAccountFilter narrows availability queries.
type PoolAccountFilter struct {
	AccountType string
	Broker      string
}
