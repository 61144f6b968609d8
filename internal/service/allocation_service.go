package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fidus/MT5-Allocation-Backend/internal/apperrors"
	"github.com/fidus/MT5-Allocation-Backend/internal/api/request"
	"github.com/fidus/MT5-Allocation-Backend/internal/model"
	"github.com/fidus/MT5-Allocation-Backend/internal/repository"
	"github.com/fidus/MT5-Allocation-Backend/internal/validation"
)

func isDuplicateAccount(err error) bool {
	return errors.Is(err, apperrors.ErrDuplicateAccount)
}

// ConflictError reports every account that failed the exclusivity guard
// during a batch operation, so the caller sees all problem accounts at once
// instead of fixing them one request at a time.
type ConflictError struct {
	Conflicts []model.AccountConflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d account(s) failed the exclusivity check", len(e.Conflicts))
}

// AllocationService orchestrates just-in-time investment creation: candidate
// accounts are validated, created in the pool, allocated to the client, and
// tied to the investment through mapping rows.
type AllocationService struct {
	poolService *PoolService
	mappingRepo *repository.MappingRepository
}

// NewAllocationService creates a new AllocationService with the provided dependencies.
func NewAllocationService(
	poolService *PoolService,
	mappingRepo *repository.MappingRepository,
) *AllocationService {
	return &AllocationService{
		poolService: poolService,
		mappingRepo: mappingRepo,
	}
}

// ValidateAvailability runs the exclusivity guard over a set of candidate
// accounts without mutating anything.
func (s *AllocationService) ValidateAvailability(accountNumbers []int64) ([]model.ExclusivityCheck, error) {
	checks := make([]model.ExclusivityCheck, 0, len(accountNumbers))

	for _, number := range accountNumbers {
		check, err := s.poolService.CheckAccountExclusivity(number)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	return checks, nil
}

// CreateInvestmentWithAccounts creates an investment together with its
// freshly allocated MT5 accounts as a single user-facing operation.
//
// Every candidate account (investment and separation) is checked up front and
// all conflicts are collected before aborting, so a 409 lists every problem
// account. The per-account allocation writes are still conditional, closing
// the window between the batch check and the commit.
func (s *AllocationService) CreateInvestmentWithAccounts(ctx context.Context, req request.CreateInvestmentRequest, adminID string) (model.CreationResult, error) {
	conflicts, err := s.collectConflicts(req)
	if err != nil {
		return model.CreationResult{}, err
	}
	if len(conflicts) > 0 {
		return model.CreationResult{}, &ConflictError{Conflicts: conflicts}
	}

	investmentID := uuid.New().String()
	now := time.Now().UTC()

	investmentAccounts := make([]model.PoolAccount, 0, len(req.Accounts))
	var totalAllocated float64

	for _, candidate := range req.Accounts {
		account, err := s.provisionAndAllocate(ctx, poolCandidate{
			AccountNumber:    candidate.AccountNumber,
			Broker:           candidate.Broker,
			AccountType:      model.AccountTypeInvestment,
			Server:           candidate.Server,
			InvestorPassword: candidate.InvestorPassword,
			Notes:            candidate.Notes,
			Amount:           candidate.Amount,
		}, req.ClientID, investmentID, adminID)
		if err != nil {
			return model.CreationResult{}, fmt.Errorf("failed to allocate account %d: %w", candidate.AccountNumber, err)
		}
		investmentAccounts = append(investmentAccounts, account)
		totalAllocated += candidate.Amount
	}

	separationAccounts := []model.PoolAccount{}
	for accountType, sep := range map[string]*request.SeparationAccount{
		model.AccountTypeInterestSeparation: req.InterestSeparationAccount,
		model.AccountTypeGainsSeparation:    req.GainsSeparationAccount,
	} {
		if sep == nil {
			continue
		}
		// Separation accounts track flows, not principal: amount stays zero.
		account, err := s.provisionAndAllocate(ctx, poolCandidate{
			AccountNumber:    sep.AccountNumber,
			Broker:           sep.Broker,
			AccountType:      accountType,
			Server:           sep.Server,
			InvestorPassword: sep.InvestorPassword,
			Notes:            sep.Notes,
			Amount:           0,
		}, req.ClientID, investmentID, adminID)
		if err != nil {
			return model.CreationResult{}, fmt.Errorf("failed to allocate separation account %d: %w", sep.AccountNumber, err)
		}
		separationAccounts = append(separationAccounts, account)
	}

	// Mapping rows cover investment accounts only; separation accounts hold
	// no principal and stay out of the sum-matching contract.
	mappingRows := make([]repository.MappingRow, 0, len(req.Accounts))
	for _, candidate := range req.Accounts {
		mappingRows = append(mappingRows, repository.MappingRow{
			ID:               uuid.New().String(),
			MT5AccountNumber: candidate.AccountNumber,
			AllocatedAmount:  candidate.Amount,
			AllocationNotes:  candidate.Notes,
		})
	}
	if err := s.mappingRepo.CreateMappingsForInvestment(ctx, investmentID, req.ClientID, req.FundCode, adminID, mappingRows); err != nil {
		return model.CreationResult{}, err
	}

	// Advisory validity: creation still succeeds when the allocated total
	// misses the principal, so downstream reporting can surface the mismatch.
	allocationIsValid := math.Abs(totalAllocated-req.PrincipalAmount) < model.SumTolerance

	return model.CreationResult{
		Investment: model.InvestmentSummary{
			ID:              investmentID,
			ClientID:        req.ClientID,
			FundCode:        req.FundCode,
			PrincipalAmount: req.PrincipalAmount,
			CreatedBy:       adminID,
			CreatedAt:       now,
		},
		InvestmentAccounts: investmentAccounts,
		SeparationAccounts: separationAccounts,
		TotalAllocated:     totalAllocated,
		AllocationIsValid:  allocationIsValid,
	}, nil
}

func (s *AllocationService) collectConflicts(req request.CreateInvestmentRequest) ([]model.AccountConflict, error) {
	candidates := make([]int64, 0, len(req.Accounts)+2)
	for _, acct := range req.Accounts {
		candidates = append(candidates, acct.AccountNumber)
	}
	if req.InterestSeparationAccount != nil {
		candidates = append(candidates, req.InterestSeparationAccount.AccountNumber)
	}
	if req.GainsSeparationAccount != nil {
		candidates = append(candidates, req.GainsSeparationAccount.AccountNumber)
	}

	var conflicts []model.AccountConflict

	for _, number := range candidates {
		check, err := s.poolService.CheckAccountExclusivity(number)
		if err != nil {
			return nil, err
		}
		if check.IsAvailable {
			continue
		}

		conflict := model.AccountConflict{
			AccountNumber: number,
			Reason:        check.Reason,
		}
		if check.CurrentAllocation != nil {
			conflict.ClientID = check.CurrentAllocation.ClientID
			conflict.InvestmentID = check.CurrentAllocation.InvestmentID
			conflict.Amount = check.CurrentAllocation.Amount
			allocatedAt := check.CurrentAllocation.AllocatedAt
			conflict.AllocatedAt = &allocatedAt
		}
		conflicts = append(conflicts, conflict)
	}

	return conflicts, nil
}

type poolCandidate struct {
	AccountNumber    int64
	Broker           string
	AccountType      string
	Server           string
	InvestorPassword string
	Notes            string
	Amount           float64
}

// provisionAndAllocate adds a candidate to the pool (tolerating accounts that
// already exist as available) and allocates it to the client/investment.
func (s *AllocationService) provisionAndAllocate(ctx context.Context, candidate poolCandidate, clientID, investmentID, adminID string) (model.PoolAccount, error) {
	addReq := request.AddPoolAccountRequest{
		AccountNumber:    candidate.AccountNumber,
		Broker:           candidate.Broker,
		AccountType:      candidate.AccountType,
		InvestorPassword: candidate.InvestorPassword,
		Server:           candidate.Server,
		Notes:            candidate.Notes,
	}

	_, err := s.poolService.AddAccountToPool(ctx, addReq, adminID)
	if err != nil && !isDuplicateAccount(err) {
		return model.PoolAccount{}, err
	}

	// Caller notes shorter than the allocation guard allows are replaced by a
	// generated note rather than failing the whole creation.
	notes := candidate.Notes
	if len(strings.TrimSpace(notes)) < validation.MinNotesLength {
		notes = fmt.Sprintf("just-in-time allocation for investment %s", investmentID)
	}

	return s.poolService.AllocateAccountToClient(ctx, candidate.AccountNumber, request.AllocateAccountRequest{
		ClientID:     clientID,
		InvestmentID: investmentID,
		Amount:       candidate.Amount,
		Notes:        notes,
	}, adminID)
}

// ValidateInvestmentMappings compares the sum of mapped amounts for an
// investment against its declared total. Advisory: violations are flagged,
// never hard-rejected.
func (s *AllocationService) ValidateInvestmentMappings(investmentID string, totalInvestmentAmount float64) (model.MappingValidation, error) {
	total, count, err := s.mappingRepo.SumForInvestment(investmentID)
	if err != nil {
		return model.MappingValidation{}, err
	}

	difference := total - totalInvestmentAmount

	return model.MappingValidation{
		InvestmentID:      investmentID,
		IsValid:           math.Abs(difference) < model.SumTolerance,
		TotalMappedAmount: total,
		Difference:        difference,
		MappingsCount:     count,
	}, nil
}
