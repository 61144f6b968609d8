package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/fidus/MT5-Allocation-Backend/internal/apperrors"
	"github.com/fidus/MT5-Allocation-Backend/internal/model"
	"github.com/fidus/MT5-Allocation-Backend/internal/repository"
	"github.com/fidus/MT5-Allocation-Backend/internal/validation"
)

// RosterService handles the fixed roster of assignable trading accounts:
// the four independent assignment setters, the apply precondition check and
// the batch apply transaction with its recalculation fan-out.
type RosterService struct {
	db          *sql.DB
	rosterRepo  *repository.RosterRepository
	historyRepo *repository.HistoryRepository
	recalc      *RecalculationService
}

// NewRosterService creates a new RosterService with the provided dependencies.
func NewRosterService(
	db *sql.DB,
	rosterRepo *repository.RosterRepository,
	historyRepo *repository.HistoryRepository,
	recalc *RecalculationService,
) *RosterService {
	return &RosterService{
		db:          db,
		rosterRepo:  rosterRepo,
		historyRepo: historyRepo,
		recalc:      recalc,
	}
}

// GetAccounts retrieves the full fixed roster.
func (s *RosterService) GetAccounts() ([]model.TradingAccount, error) {
	return s.rosterRepo.GetAccounts()
}

// GetAccountByNumber retrieves a single roster account.
func (s *RosterService) GetAccountByNumber(accountNumber int64) (model.TradingAccount, error) {
	return s.rosterRepo.GetAccountByNumber(accountNumber)
}

// Assign writes one assignment field after validating the account exists and
// the value belongs to the dimension's fixed set. Manager assignment
// snapshots the account's balance into allocated_capital. Every mutation
// appends one history entry.
func (s *RosterService) Assign(ctx context.Context, accountNumber int64, assignmentType, value, adminID string) error {
	if err := validation.ValidateAssignment(accountNumber, assignmentType, value); err != nil {
		return err
	}

	account, err := s.rosterRepo.GetAccountByNumber(accountNumber)
	if err != nil {
		return err
	}

	var allocatedCapital *float64
	if assignmentType == model.AssignmentManager {
		balance := account.Balance
		allocatedCapital = &balance
	}

	if err := s.rosterRepo.SetAssignment(ctx, accountNumber, assignmentType, value, allocatedCapital); err != nil {
		return err
	}

	oldValue := s.currentAssignment(account, assignmentType)
	return s.historyRepo.InsertHistory(ctx, nil, accountNumber, assignmentType, oldValue, &value, adminID)
}

// RemoveAssignment clears exactly one of the four assignment fields.
// Manager removal reverts allocated_capital to zero.
func (s *RosterService) RemoveAssignment(ctx context.Context, accountNumber int64, assignmentType, adminID string) error {
	if err := validation.ValidateRemoveAssignment(accountNumber, assignmentType); err != nil {
		return err
	}

	account, err := s.rosterRepo.GetAccountByNumber(accountNumber)
	if err != nil {
		return err
	}

	if err := s.rosterRepo.ClearAssignment(ctx, accountNumber, assignmentType); err != nil {
		return err
	}

	oldValue := s.currentAssignment(account, assignmentType)
	return s.historyRepo.InsertHistory(ctx, nil, accountNumber, assignmentType, oldValue, nil, adminID)
}

func (s *RosterService) currentAssignment(account model.TradingAccount, assignmentType string) *string {
	switch assignmentType {
	case model.AssignmentManager:
		return account.Manager
	case model.AssignmentFund:
		return account.FundType
	case model.AssignmentBroker:
		return account.Broker
	case model.AssignmentPlatform:
		return account.Platform
	}
	return nil
}

// GetGroupedAllocations presents the roster grouped by each assignment
// dimension, with unset dimensions grouped under "unassigned".
func (s *RosterService) GetGroupedAllocations() (model.GroupedAllocations, error) {
	accounts, err := s.rosterRepo.GetAccounts()
	if err != nil {
		return model.GroupedAllocations{}, err
	}

	grouped := model.GroupedAllocations{
		ByManager:  map[string][]model.TradingAccount{},
		ByFund:     map[string][]model.TradingAccount{},
		ByBroker:   map[string][]model.TradingAccount{},
		ByPlatform: map[string][]model.TradingAccount{},
	}

	key := func(v *string) string {
		if v == nil {
			return "unassigned"
		}
		return *v
	}

	for _, account := range accounts {
		grouped.ByManager[key(account.Manager)] = append(grouped.ByManager[key(account.Manager)], account)
		grouped.ByFund[key(account.FundType)] = append(grouped.ByFund[key(account.FundType)], account)
		grouped.ByBroker[key(account.Broker)] = append(grouped.ByBroker[key(account.Broker)], account)
		grouped.ByPlatform[key(account.Platform)] = append(grouped.ByPlatform[key(account.Platform)], account)
	}

	return grouped, nil
}

// ValidateAllocations is the read-only precondition check for apply. It scans
// the fixed roster and reports:
//   - unassignedAccounts: accounts with no assignment work started at all
//   - incompleteAccounts: accounts missing some of the four fields
//   - pendingChanges: fully-assigned accounts still awaiting batch commit
//
// Apply is permitted only when the first two lists are empty.
func (s *RosterService) ValidateAllocations() (model.AllocationValidation, error) {
	accounts, err := s.rosterRepo.GetAccounts()
	if err != nil {
		return model.AllocationValidation{}, err
	}

	result := model.AllocationValidation{
		UnassignedAccounts: []int64{},
		IncompleteAccounts: []model.IncompleteAccount{},
		PendingChanges:     []model.PendingChange{},
	}

	for _, account := range accounts {
		missing := account.MissingAssignments()

		switch {
		case account.FullyAssigned() && account.Status == model.RosterStatusUnassigned:
			result.PendingChanges = append(result.PendingChanges, model.PendingChange{
				AccountNumber: account.AccountNumber,
				Changes: []model.FieldChange{
					{Field: "manager", Old: nil, New: *account.Manager},
					{Field: "fund", Old: nil, New: *account.FundType},
					{Field: "broker", Old: nil, New: *account.Broker},
					{Field: "platform", Old: nil, New: *account.Platform},
				},
			})
		case len(missing) == 4 && account.Status == model.RosterStatusUnassigned:
			result.UnassignedAccounts = append(result.UnassignedAccounts, account.AccountNumber)
		case len(missing) > 0:
			result.IncompleteAccounts = append(result.IncompleteAccounts, model.IncompleteAccount{
				AccountNumber: account.AccountNumber,
				Missing:       missing,
			})
		}
	}

	result.CanApply = len(result.UnassignedAccounts) == 0 && len(result.IncompleteAccounts) == 0

	switch {
	case len(result.UnassignedAccounts) > 0:
		reason := fmt.Sprintf("%d account(s) have no assignments", len(result.UnassignedAccounts))
		result.Reason = &reason
	case len(result.IncompleteAccounts) > 0:
		reason := fmt.Sprintf("%d account(s) are missing assignment fields", len(result.IncompleteAccounts))
		result.Reason = &reason
	case len(result.PendingChanges) == 0:
		reason := "no pending changes to apply"
		result.Reason = &reason
	}

	return result, nil
}

// ApplyAllocations commits every pending assignment batch: statuses flip to
// assigned, the active flag is mirrored, all recalculations run, and one
// audit entry plus per-account history entries are appended.
//
// The whole sequence runs inside a store transaction when the store can open
// one. When it cannot, the operation proceeds in degraded mode with a logged
// warning: the writes are applied as they happen and cannot be undone if a
// later step fails.
func (s *RosterService) ApplyAllocations(ctx context.Context, adminID string) (model.ApplyResult, error) {
	start := time.Now()

	check, err := s.ValidateAllocations()
	if err != nil {
		return model.ApplyResult{}, err
	}
	if !check.CanApply {
		reason := ""
		if check.Reason != nil {
			reason = *check.Reason
		}
		return model.ApplyResult{}, fmt.Errorf("%w: %s", apperrors.ErrCannotApply, reason)
	}
	if len(check.PendingChanges) == 0 {
		return model.ApplyResult{}, apperrors.ErrNoPendingChanges
	}

	var q repository.DBTX = s.db
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("WARNING: store does not support transactions, applying allocations without atomicity: %v", err)
	} else {
		defer tx.Rollback()
		q = tx
	}

	for _, pending := range check.PendingChanges {
		if err := s.rosterRepo.MarkApplied(ctx, q, pending.AccountNumber); err != nil {
			return model.ApplyResult{}, err
		}
	}

	results := s.recalc.RunWithin(ctx, q)
	if !AllSucceeded(results) {
		// Transaction rollback (when available) undoes the status flips.
		// In degraded mode they stay applied; the error is surfaced as
		// non-retryable without manual review.
		return model.ApplyResult{Recalculations: results}, apperrors.ErrRecalculationFailed
	}

	auditDetails := map[string]any{
		"accounts":       accountNumbers(check.PendingChanges),
		"pendingChanges": check.PendingChanges,
		"recalculations": results,
	}
	if err := s.historyRepo.InsertAudit(ctx, q, "apply_allocations", adminID, auditDetails); err != nil {
		return model.ApplyResult{}, err
	}

	oldStatus := model.RosterStatusUnassigned
	newStatus := model.RosterStatusAssigned
	for _, pending := range check.PendingChanges {
		if err := s.historyRepo.InsertHistory(ctx, q, pending.AccountNumber, "status", &oldStatus, &newStatus, adminID); err != nil {
			return model.ApplyResult{}, err
		}
	}

	if tx != nil {
		if err := tx.Commit(); err != nil {
			return model.ApplyResult{}, fmt.Errorf("failed to commit allocation batch: %w", err)
		}
	}

	return model.ApplyResult{
		AccountsUpdated: len(check.PendingChanges),
		Recalculations:  results,
		TotalDurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func accountNumbers(pending []model.PendingChange) []int64 {
	numbers := make([]int64, 0, len(pending))
	for _, p := range pending {
		numbers = append(numbers, p.AccountNumber)
	}
	return numbers
}

// GetAllocationHistory lists assignment history entries, optionally scoped to
// one account.
func (s *RosterService) GetAllocationHistory(accountNumber int64, limit int) ([]model.AllocationHistoryEntry, error) {
	return s.historyRepo.ListHistory(accountNumber, limit)
}
