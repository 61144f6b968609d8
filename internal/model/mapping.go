package model

import "time"

// SumTolerance is the cent-level epsilon used when comparing the sum of
// mapped amounts against an investment's principal.
const SumTolerance = 0.01

// InvestmentMapping joins one investment to one of the pool accounts backing it.
type InvestmentMapping struct {
	ID               string    `json:"id"`
	InvestmentID     string    `json:"investmentId"`
	ClientID         string    `json:"clientId"`
	FundCode         string    `json:"fundCode"`
	MT5AccountNumber int64     `json:"mt5AccountNumber"`
	AllocatedAmount  float64   `json:"allocatedAmount"`
	AllocationNotes  string    `json:"allocationNotes"`
	CreatedBy        string    `json:"createdBy"`
	CreatedAt        time.Time `json:"createdAt"`
}

// MappingValidation reports whether the mapped amounts of an investment sum
// to its declared principal. Advisory only: a false IsValid never blocks.
type MappingValidation struct {
	InvestmentID      string  `json:"investmentId"`
	IsValid           bool    `json:"isValid"`
	TotalMappedAmount float64 `json:"totalMappedAmount"`
	Difference        float64 `json:"difference"`
	MappingsCount     int     `json:"mappingsCount"`
}

// InvestmentSummary describes the investment created by a just-in-time
// allocation run.
type InvestmentSummary struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"clientId"`
	FundCode        string    `json:"fundCode"`
	PrincipalAmount float64   `json:"principalAmount"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreationResult is the outcome of creating an investment together with its
// freshly allocated MT5 accounts. AllocationIsValid is advisory: creation is
// reported as successful even when the allocated total misses the principal.
type CreationResult struct {
	Investment         InvestmentSummary `json:"investment"`
	InvestmentAccounts []PoolAccount     `json:"investmentAccounts"`
	SeparationAccounts []PoolAccount     `json:"separationAccounts"`
	TotalAllocated     float64           `json:"totalAllocated"`
	AllocationIsValid  bool              `json:"allocationIsValid"`
}

// AccountConflict describes one account that failed the exclusivity guard,
// including who currently holds it.
type AccountConflict struct {
	AccountNumber int64      `json:"accountNumber"`
	Reason        string     `json:"reason"`
	ClientID      string     `json:"clientId,omitempty"`
	InvestmentID  string     `json:"investmentId,omitempty"`
	Amount        float64    `json:"amount,omitempty"`
	AllocatedAt   *time.Time `json:"allocatedAt,omitempty"`
}
