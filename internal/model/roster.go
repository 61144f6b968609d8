package model

import "time"

// Roster account statuses. An account stays 'unassigned' until a batch apply
// promotes it, even once all four assignment fields are set.
const (
	RosterStatusUnassigned = "unassigned"
	RosterStatusAssigned   = "assigned"
)

// Assignment dimensions of a roster account.
const (
	AssignmentManager  = "manager"
	AssignmentFund     = "fund"
	AssignmentBroker   = "broker"
	AssignmentPlatform = "platform"
)

// TradingAccount is one of the fixed roster of live accounts under active
// management, needing four independent classification assignments.
type TradingAccount struct {
	ID                   string     `json:"id"`
	AccountNumber        int64      `json:"accountNumber"`
	Balance              float64    `json:"balance"`
	AllocatedCapital     float64    `json:"allocatedCapital"`
	Manager              *string    `json:"manager"`
	FundType             *string    `json:"fundType"`
	Broker               *string    `json:"broker"`
	Platform             *string    `json:"platform"`
	Status               string     `json:"status"`
	IsActive             bool       `json:"isActive"`
	LastAllocationUpdate *time.Time `json:"lastAllocationUpdate"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// FullyAssigned reports whether all four assignment fields are set.
func (a TradingAccount) FullyAssigned() bool {
	return a.Manager != nil && a.FundType != nil && a.Broker != nil && a.Platform != nil
}

// MissingAssignments lists the display names of unset assignment fields.
func (a TradingAccount) MissingAssignments() []string {
	var missing []string
	if a.Manager == nil {
		missing = append(missing, "Manager")
	}
	if a.FundType == nil {
		missing = append(missing, "Fund")
	}
	if a.Broker == nil {
		missing = append(missing, "Broker")
	}
	if a.Platform == nil {
		missing = append(missing, "Platform")
	}
	return missing
}

// IncompleteAccount identifies a roster account missing one or more of the
// four assignment fields.
type IncompleteAccount struct {
	AccountNumber int64    `json:"account"`
	Missing       []string `json:"missing"`
}

// FieldChange is the before/after diff stub of one pending assignment.
// Old is nil for fields that were never applied before.
type FieldChange struct {
	Field string  `json:"field"`
	Old   *string `json:"old"`
	New   string  `json:"new"`
}

// PendingChange describes a fully-assigned account waiting for batch commit.
type PendingChange struct {
	AccountNumber int64         `json:"accountNumber"`
	Changes       []FieldChange `json:"changes"`
}

// AllocationValidation is the read-only precondition check for apply.
type AllocationValidation struct {
	CanApply           bool                `json:"canApply"`
	Reason             *string             `json:"reason"`
	UnassignedAccounts []int64             `json:"unassignedAccounts"`
	IncompleteAccounts []IncompleteAccount `json:"incompleteAccounts"`
	PendingChanges     []PendingChange     `json:"pendingChanges"`
}

// GroupedAllocations presents the roster grouped by each assignment dimension.
// Accounts with the dimension unset are grouped under "unassigned".
type GroupedAllocations struct {
	ByManager  map[string][]TradingAccount `json:"byManager"`
	ByFund     map[string][]TradingAccount `json:"byFund"`
	ByBroker   map[string][]TradingAccount `json:"byBroker"`
	ByPlatform map[string][]TradingAccount `json:"byPlatform"`
}
