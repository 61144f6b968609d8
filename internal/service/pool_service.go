package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fidus/MT5-Allocation-Backend/internal/apperrors"
	"github.com/fidus/MT5-Allocation-Backend/internal/api/request"
	"github.com/fidus/MT5-Allocation-Backend/internal/model"
	"github.com/fidus/MT5-Allocation-Backend/internal/repository"
	"github.com/fidus/MT5-Allocation-Backend/internal/secrets"
	"github.com/fidus/MT5-Allocation-Backend/internal/validation"
)

// PoolService handles pool-account business logic: the allocation state
// machine, the exclusivity guard and the two-person deallocation workflow.
type PoolService struct {
	poolRepo         *repository.PoolRepository
	deallocationRepo *repository.DeallocationRepository
	historyRepo      *repository.HistoryRepository
	encryptor        *secrets.Encryptor
}

// NewPoolService creates a new PoolService with the provided repository dependencies.
func NewPoolService(
	poolRepo *repository.PoolRepository,
	deallocationRepo *repository.DeallocationRepository,
	historyRepo *repository.HistoryRepository,
	encryptor *secrets.Encryptor,
) *PoolService {
	return &PoolService{
		poolRepo:         poolRepo,
		deallocationRepo: deallocationRepo,
		historyRepo:      historyRepo,
		encryptor:        encryptor,
	}
}

// GetAccountByNumber retrieves a single pool account.
func (s *PoolService) GetAccountByNumber(accountNumber int64) (model.PoolAccount, error) {
	return s.poolRepo.GetAccountByNumber(accountNumber)
}

// GetAvailableAccounts lists available accounts, optionally filtered by type and broker.
func (s *PoolService) GetAvailableAccounts(accountType, broker string) ([]model.PoolAccount, error) {
	return s.poolRepo.GetAvailableAccounts(model.PoolAccountFilter{
		AccountType: accountType,
		Broker:      broker,
	})
}

// GetAllocatedAccounts lists allocated accounts with their allocation records,
// optionally scoped to one client.
func (s *PoolService) GetAllocatedAccounts(clientID string) ([]model.PoolAccount, error) {
	return s.poolRepo.GetAllocatedAccounts(clientID)
}

// CheckAccountExclusivity is the fast-reject availability guard. An account
// unknown to the pool counts as available: just-in-time creation adds it on
// the fly. The authoritative check remains the conditional allocation write.
func (s *PoolService) CheckAccountExclusivity(accountNumber int64) (model.ExclusivityCheck, error) {
	account, err := s.poolRepo.GetAccountByNumber(accountNumber)
	if err == apperrors.ErrAccountNotFound {
		return model.ExclusivityCheck{
			AccountNumber: accountNumber,
			IsAvailable:   true,
			Reason:        "account not yet in pool",
		}, nil
	}
	if err != nil {
		return model.ExclusivityCheck{}, err
	}

	switch account.Status {
	case model.StatusAvailable:
		return model.ExclusivityCheck{
			AccountNumber: accountNumber,
			IsAvailable:   true,
			Reason:        "account is available",
		}, nil
	case model.StatusPendingDeallocation:
		return model.ExclusivityCheck{
			AccountNumber:     accountNumber,
			IsAvailable:       false,
			Reason:            "account has a pending deallocation request",
			CurrentAllocation: account.Allocation,
		}, nil
	default:
		reason := "account is already allocated"
		if account.Allocation != nil {
			reason = fmt.Sprintf("account is already allocated to client %s (investment %s)",
				account.Allocation.ClientID, account.Allocation.InvestmentID)
		}
		return model.ExclusivityCheck{
			AccountNumber:     accountNumber,
			IsAvailable:       false,
			Reason:            reason,
			CurrentAllocation: account.Allocation,
		}, nil
	}
}

// AddAccountToPool creates a new pool account with status=available.
// The investor password is encrypted before it touches the database.
func (s *PoolService) AddAccountToPool(ctx context.Context, req request.AddPoolAccountRequest, adminID string) (model.PoolAccount, error) {
	encrypted, err := s.encryptor.Encrypt(req.InvestorPassword)
	if err != nil {
		return model.PoolAccount{}, fmt.Errorf("failed to protect investor credential: %w", err)
	}

	now := time.Now().UTC()
	account := model.PoolAccount{
		ID:            uuid.New().String(),
		AccountNumber: req.AccountNumber,
		Broker:        req.Broker,
		AccountType:   req.AccountType,
		Server:        req.Server,
		Status:        model.StatusAvailable,
		Notes:         req.Notes,
		CreatedBy:     adminID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.poolRepo.AddAccount(ctx, &account, encrypted); err != nil {
		return model.PoolAccount{}, err
	}

	return account, nil
}

// AllocateAccountToClient transitions an account from available to allocated.
// The write itself is conditional on the available status, so concurrent
// callers racing for the same account see exactly one winner.
func (s *PoolService) AllocateAccountToClient(ctx context.Context, accountNumber int64, req request.AllocateAccountRequest, adminID string) (model.PoolAccount, error) {
	if len(strings.TrimSpace(req.Notes)) < validation.MinNotesLength {
		return model.PoolAccount{}, apperrors.ErrNotesTooShort
	}

	alloc := model.Allocation{
		ClientID:     req.ClientID,
		InvestmentID: req.InvestmentID,
		Amount:       req.Amount,
		AllocatedBy:  adminID,
		AllocatedAt:  time.Now().UTC(),
		Notes:        req.Notes,
	}

	if err := s.poolRepo.AllocateAccount(ctx, accountNumber, alloc); err != nil {
		return model.PoolAccount{}, err
	}

	return s.poolRepo.GetAccountByNumber(accountNumber)
}

// RequestDeallocation opens a two-person deallocation request. The reason
// must be non-trivial, and the account is flagged pending-deallocation so it
// cannot be re-allocated while the request is open.
func (s *PoolService) RequestDeallocation(ctx context.Context, accountNumber int64, adminID, reason string) (model.DeallocationRequest, error) {
	if len(strings.TrimSpace(reason)) < validation.MinNotesLength {
		return model.DeallocationRequest{}, apperrors.ErrNotesTooShort
	}

	if err := s.poolRepo.MarkPendingDeallocation(ctx, accountNumber); err != nil {
		return model.DeallocationRequest{}, err
	}

	req := model.DeallocationRequest{
		ID:            uuid.New().String(),
		AccountNumber: accountNumber,
		RequestedBy:   adminID,
		Reason:        reason,
		Status:        model.RequestStatusPending,
		RequestedAt:   time.Now().UTC(),
	}

	if err := s.deallocationRepo.InsertRequest(ctx, &req); err != nil {
		return model.DeallocationRequest{}, err
	}

	return req, nil
}

// GetPendingDeallocationRequests lists all requests awaiting approval.
func (s *PoolService) GetPendingDeallocationRequests() ([]model.DeallocationRequest, error) {
	return s.deallocationRepo.GetPendingRequests()
}

// ApproveDeallocation resolves a pending request, clears the account's
// allocation fields and returns it to available. The approver must be a
// different admin than the requester.
func (s *PoolService) ApproveDeallocation(ctx context.Context, requestID, approvingAdminID, notes string) (model.DeallocationRequest, error) {
	req, err := s.deallocationRepo.GetRequestByID(requestID)
	if err != nil {
		return model.DeallocationRequest{}, err
	}
	if req.RequestedBy == approvingAdminID {
		return model.DeallocationRequest{}, apperrors.ErrSameActorApproval
	}

	if err := s.deallocationRepo.ResolveRequest(ctx, requestID, model.RequestStatusApproved, approvingAdminID, notes); err != nil {
		return model.DeallocationRequest{}, err
	}

	if err := s.poolRepo.ClearAllocation(ctx, req.AccountNumber); err != nil {
		return model.DeallocationRequest{}, err
	}

	oldStatus := model.StatusAllocated
	newStatus := model.StatusAvailable
	if err := s.historyRepo.InsertHistory(ctx, nil, req.AccountNumber, "status", &oldStatus, &newStatus, approvingAdminID); err != nil {
		return model.DeallocationRequest{}, err
	}

	return s.deallocationRepo.GetRequestByID(requestID)
}

// RejectDeallocation resolves a pending request negatively: the account keeps
// its allocation and moves back from pending-deallocation to allocated.
func (s *PoolService) RejectDeallocation(ctx context.Context, requestID, resolvingAdminID, notes string) (model.DeallocationRequest, error) {
	req, err := s.deallocationRepo.GetRequestByID(requestID)
	if err != nil {
		return model.DeallocationRequest{}, err
	}

	if err := s.deallocationRepo.ResolveRequest(ctx, requestID, model.RequestStatusRejected, resolvingAdminID, notes); err != nil {
		return model.DeallocationRequest{}, err
	}

	if err := s.poolRepo.RestoreAllocated(ctx, req.AccountNumber); err != nil {
		return model.DeallocationRequest{}, err
	}

	return s.deallocationRepo.GetRequestByID(requestID)
}

// GetPoolStatistics aggregates counts per status. Utilization is
// allocated/total*100, reported as 0 for an empty pool.
func (s *PoolService) GetPoolStatistics() (model.PoolStatistics, error) {
	stats, err := s.poolRepo.GetStatistics()
	if err != nil {
		return model.PoolStatistics{}, err
	}

	if stats.TotalAccounts > 0 {
		stats.UtilizationRate = float64(stats.Allocated) / float64(stats.TotalAccounts) * 100
	}

	return stats, nil
}
