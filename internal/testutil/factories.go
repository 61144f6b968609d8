package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/fidus/MT5-Allocation-Backend/internal/model"
)

// PoolAccountBuilder provides a fluent interface for creating test pool accounts.
//
// Example usage:
//
//	// Simple creation with defaults (available account)
//	account := testutil.NewPoolAccount(886557).Build(t, db)
//
//	// Already-allocated account
//	account := testutil.NewPoolAccount(886602).
//	    AllocatedTo("client-1", "inv-1", 100000).
//	    Build(t, db)
type PoolAccountBuilder struct {
	ID            string
	AccountNumber int64
	Broker        string
	AccountType   string
	Server        string
	Status        string
	Notes         string
	Allocation    *model.Allocation
	CreatedBy     string
}

// NewPoolAccount creates a PoolAccountBuilder with sensible defaults.
func NewPoolAccount(accountNumber int64) *PoolAccountBuilder {
	return &PoolAccountBuilder{
		ID:            MakeID(),
		AccountNumber: accountNumber,
		Broker:        "multibank",
		AccountType:   "investment",
		Server:        "MultiBank-Live",
		Status:        model.StatusAvailable,
		Notes:         "test pool account",
		CreatedBy:     "admin-seed",
	}
}

// WithBroker sets a custom broker.
func (b *PoolAccountBuilder) WithBroker(broker string) *PoolAccountBuilder {
	b.Broker = broker
	return b
}

// WithAccountType sets a custom account type.
func (b *PoolAccountBuilder) WithAccountType(accountType string) *PoolAccountBuilder {
	b.AccountType = accountType
	return b
}

// WithStatus sets a custom status without touching allocation fields.
func (b *PoolAccountBuilder) WithStatus(status string) *PoolAccountBuilder {
	b.Status = status
	return b
}

// AllocatedTo marks the account as allocated to a client and investment.
func (b *PoolAccountBuilder) AllocatedTo(clientID, investmentID string, amount float64) *PoolAccountBuilder {
	b.Status = model.StatusAllocated
	b.Allocation = &model.Allocation{
		ClientID:     clientID,
		InvestmentID: investmentID,
		Amount:       amount,
		AllocatedBy:  "admin-alloc",
		AllocatedAt:  time.Now().UTC(),
		Notes:        "allocated by test factory",
	}
	return b
}

// PendingDeallocation marks an allocated account as awaiting approval.
func (b *PoolAccountBuilder) PendingDeallocation() *PoolAccountBuilder {
	b.Status = model.StatusPendingDeallocation
	return b
}

// Build inserts the pool account and returns it.
func (b *PoolAccountBuilder) Build(t *testing.T, db *sql.DB) model.PoolAccount {
	t.Helper()

	query := `
		INSERT INTO mt5_pool_account (
			id, account_number, broker, account_type, server, status, notes,
			allocated_client_id, allocated_investment_id, allocated_amount,
			allocated_by, allocated_at, allocation_notes, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var clientID, investmentID, allocatedBy, allocationNotes any
	var amount any
	var allocatedAt any
	if b.Allocation != nil {
		clientID = b.Allocation.ClientID
		investmentID = b.Allocation.InvestmentID
		amount = b.Allocation.Amount
		allocatedBy = b.Allocation.AllocatedBy
		allocatedAt = b.Allocation.AllocatedAt
		allocationNotes = b.Allocation.Notes
	}

	_, err := db.Exec(query,
		b.ID, b.AccountNumber, b.Broker, b.AccountType, b.Server, b.Status, b.Notes,
		clientID, investmentID, amount, allocatedBy, allocatedAt, allocationNotes, b.CreatedBy,
	)
	if err != nil {
		t.Fatalf("Failed to insert test pool account: %v", err)
	}

	return model.PoolAccount{
		ID:            b.ID,
		AccountNumber: b.AccountNumber,
		Broker:        b.Broker,
		AccountType:   b.AccountType,
		Server:        b.Server,
		Status:        b.Status,
		Notes:         b.Notes,
		Allocation:    b.Allocation,
		CreatedBy:     b.CreatedBy,
	}
}

// TradingAccountBuilder provides a fluent interface for creating roster accounts.
//
// Example usage:
//
//	// Unassigned roster slot
//	account := testutil.NewTradingAccount(700101).Build(t, db)
//
//	// Fully assigned, pending batch apply
//	account := testutil.NewTradingAccount(700102).FullyAssigned().Build(t, db)
type TradingAccountBuilder struct {
	ID               string
	AccountNumber    int64
	Balance          float64
	AllocatedCapital float64
	Manager          *string
	FundType         *string
	Broker           *string
	Platform         *string
	Status           string
	IsActive         bool
}

// NewTradingAccount creates a TradingAccountBuilder with sensible defaults.
func NewTradingAccount(accountNumber int64) *TradingAccountBuilder {
	return &TradingAccountBuilder{
		ID:            MakeID(),
		AccountNumber: accountNumber,
		Balance:       250000,
		Status:        model.RosterStatusUnassigned,
	}
}

// WithBalance sets a custom balance.
func (b *TradingAccountBuilder) WithBalance(balance float64) *TradingAccountBuilder {
	b.Balance = balance
	return b
}

// WithManager sets the manager assignment.
func (b *TradingAccountBuilder) WithManager(manager string) *TradingAccountBuilder {
	b.Manager = &manager
	return b
}

// WithFund sets the fund assignment.
func (b *TradingAccountBuilder) WithFund(fundType string) *TradingAccountBuilder {
	b.FundType = &fundType
	return b
}

// WithBroker sets the broker assignment.
func (b *TradingAccountBuilder) WithBroker(broker string) *TradingAccountBuilder {
	b.Broker = &broker
	return b
}

// WithPlatform sets the platform assignment.
func (b *TradingAccountBuilder) WithPlatform(platform string) *TradingAccountBuilder {
	b.Platform = &platform
	return b
}

// FullyAssigned sets all four assignment fields to valid values, leaving the
// status unassigned so the account shows up as a pending change.
func (b *TradingAccountBuilder) FullyAssigned() *TradingAccountBuilder {
	return b.WithManager("CP Strategy").WithFund("CORE").WithBroker("multibank").WithPlatform("mt5")
}

// Applied marks the account as already committed by a previous batch apply.
func (b *TradingAccountBuilder) Applied() *TradingAccountBuilder {
	b.Status = model.RosterStatusAssigned
	b.IsActive = true
	return b
}

// Build inserts the trading account and returns it.
func (b *TradingAccountBuilder) Build(t *testing.T, db *sql.DB) model.TradingAccount {
	t.Helper()

	query := `
		INSERT INTO trading_account (
			id, account_number, balance, allocated_capital,
			manager, fund_type, broker, platform, status, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.AccountNumber, b.Balance, b.AllocatedCapital,
		b.Manager, b.FundType, b.Broker, b.Platform, b.Status, b.IsActive,
	)
	if err != nil {
		t.Fatalf("Failed to insert test trading account: %v", err)
	}

	return model.TradingAccount{
		ID:               b.ID,
		AccountNumber:    b.AccountNumber,
		Balance:          b.Balance,
		AllocatedCapital: b.AllocatedCapital,
		Manager:          b.Manager,
		FundType:         b.FundType,
		Broker:           b.Broker,
		Platform:         b.Platform,
		Status:           b.Status,
		IsActive:         b.IsActive,
	}
}
