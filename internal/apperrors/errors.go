package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrAccountNotFound indicates that a pool account with the given number is not in the pool.
	ErrAccountNotFound = errors.New("account not found in pool")

	// ErrTradingAccountNotFound indicates that a roster account with the given number does not exist.
	ErrTradingAccountNotFound = errors.New("trading account not found")

	// ErrRequestNotFound indicates that a deallocation request with the given ID does not exist.
	ErrRequestNotFound = errors.New("deallocation request not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrAccountNotAvailable indicates an exclusivity violation: the account
	// already holds an allocation, or is pending deallocation.
	ErrAccountNotAvailable = errors.New("account is not available for allocation")

	// ErrDuplicateAccount indicates that an account with the same number already exists in the pool.
	ErrDuplicateAccount = errors.New("account number already exists in pool")

	// ErrAccountNotAllocated indicates a deallocation was requested for an account
	// that holds no allocation.
	ErrAccountNotAllocated = errors.New("account is not allocated")

	// ErrNotesTooShort indicates that allocation notes or a deallocation reason
	// is shorter than the 10-character minimum after trimming.
	ErrNotesTooShort = errors.New("notes must be at least 10 characters")

	// ErrRequestNotPending indicates a resolution attempt on a request that was
	// already approved or rejected.
	ErrRequestNotPending = errors.New("deallocation request is not pending")

	// ErrSameActorApproval indicates the requesting admin tried to approve their
	// own deallocation request.
	ErrSameActorApproval = errors.New("request cannot be approved by its requester")

	// ErrInvalidAssignmentType indicates an assignment type outside manager/fund/broker/platform.
	ErrInvalidAssignmentType = errors.New("invalid assignment type")

	// ErrInvalidAssignmentValue indicates an assignment value outside its fixed enumerated set.
	ErrInvalidAssignmentValue = errors.New("invalid assignment value")

	// ErrCannotApply indicates the apply precondition failed: at least one roster
	// account is unassigned or missing assignment fields.
	ErrCannotApply = errors.New("allocations cannot be applied")

	// ErrNoPendingChanges indicates an apply attempt with nothing to commit.
	ErrNoPendingChanges = errors.New("no pending allocation changes")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data.
var (
	ErrFailedToRetrieveAccounts   = errors.New("failed to retrieve accounts")
	ErrFailedToRetrieveRequests   = errors.New("failed to retrieve deallocation requests")
	ErrFailedToRetrieveStatistics = errors.New("failed to retrieve pool statistics")
	ErrFailedToRetrieveHistory    = errors.New("failed to retrieve allocation history")

	// ErrRecalculationFailed indicates that a recalculation job reported failure
	// inside apply. In non-transactional mode the status flips cannot be rolled
	// back, so this requires manual review before retrying.
	ErrRecalculationFailed = errors.New("recalculation failed")
)
