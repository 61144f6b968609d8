package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fidus/MT5-Allocation-Backend/internal/api/middleware"
	"github.com/fidus/MT5-Allocation-Backend/internal/api/request"
	"github.com/fidus/MT5-Allocation-Backend/internal/api/response"
	"github.com/fidus/MT5-Allocation-Backend/internal/apperrors"
	"github.com/fidus/MT5-Allocation-Backend/internal/service"
)

// RosterHandler handles HTTP requests for the fixed trading-account roster:
// the four assignment dimensions and the apply-allocations workflow.
type RosterHandler struct {
	rosterService *service.RosterService
}

// NewRosterHandler creates a new RosterHandler with the provided service dependency.
func NewRosterHandler(rosterService *service.RosterService) *RosterHandler {
	return &RosterHandler{
		rosterService: rosterService,
	}
}

// Accounts handles GET requests to list the full roster with current
// assignment state.
//
// Endpoint: GET /api/roster/mt5-accounts
// Response: 200 OK with {"accounts": [...], "total": n}
func (h *RosterHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.rosterService.GetAccounts()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"total":    len(accounts),
	})
}

// AssignManager handles POST requests to set an account's money manager.
//
// Endpoint: POST /api/roster/assign-to-manager
// Request Body: AssignManagerRequest
// Response: 200 OK with the updated account
// Error: 400 Bad Request if the manager is not in the fixed set
// Error: 404 Not Found if the account is not on the roster
func (h *RosterHandler) AssignManager(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.AssignManagerRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.assign(w, r, req.AccountNumber, "manager", req.Manager)
}

// AssignFund handles POST requests to set an account's fund type.
//
// Endpoint: POST /api/roster/assign-to-fund
// Request Body: AssignFundRequest
// Response: 200 OK with the updated account
// Error: 400 Bad Request if the fund type is not in the fixed set
// Error: 404 Not Found if the account is not on the roster
func (h *RosterHandler) AssignFund(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.AssignFundRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.assign(w, r, req.AccountNumber, "fund", req.FundType)
}

// AssignBroker handles POST requests to set an account's broker.
//
// Endpoint: POST /api/roster/assign-to-broker
// Request Body: AssignBrokerRequest
// Response: 200 OK with the updated account
// Error: 400 Bad Request if the broker is not in the fixed set
// Error: 404 Not Found if the account is not on the roster
func (h *RosterHandler) AssignBroker(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.AssignBrokerRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.assign(w, r, req.AccountNumber, "broker", req.Broker)
}

// AssignPlatform handles POST requests to set an account's trading platform.
//
// Endpoint: POST /api/roster/assign-to-platform
// Request Body: AssignPlatformRequest
// Response: 200 OK with the updated account
// Error: 400 Bad Request if the platform is not in the fixed set
// Error: 404 Not Found if the account is not on the roster
func (h *RosterHandler) AssignPlatform(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.AssignPlatformRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.assign(w, r, req.AccountNumber, "platform", req.Platform)
}

func (h *RosterHandler) assign(w http.ResponseWriter, r *http.Request, accountNumber int64, assignmentType, value string) {
	if err := h.rosterService.Assign(r.Context(), accountNumber, assignmentType, value, middleware.AdminID(r)); err != nil {
		respondServiceError(w, err)
		return
	}

	account, err := h.rosterService.GetAccountByNumber(accountNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, account)
}

// RemoveAssignment handles POST requests to clear one assignment dimension.
//
// Endpoint: POST /api/roster/remove-assignment
// Request Body: RemoveAssignmentRequest
// Response: 200 OK with the updated account
// Error: 400 Bad Request if the assignment type is unknown
// Error: 404 Not Found if the account is not on the roster
func (h *RosterHandler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.RemoveAssignmentRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.rosterService.RemoveAssignment(r.Context(), req.AccountNumber, req.AssignmentType, middleware.AdminID(r)); err != nil {
		respondServiceError(w, err)
		return
	}

	account, err := h.rosterService.GetAccountByNumber(req.AccountNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, account)
}

// Allocations handles GET requests for the roster grouped by manager, fund,
// broker and platform.
//
// Endpoint: GET /api/roster/allocations
// Response: 200 OK with GroupedAllocations
func (h *RosterHandler) Allocations(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.rosterService.GetGroupedAllocations()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, grouped)
}

// ValidateAllocations handles GET requests for the apply-precondition report:
// which accounts are unassigned, which are incomplete, and whether the
// pending changes can be applied.
//
// Endpoint: GET /api/roster/validate-allocations
// Response: 200 OK with AllocationValidation
func (h *RosterHandler) ValidateAllocations(w http.ResponseWriter, r *http.Request) {
	report, err := h.rosterService.ValidateAllocations()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, report)
}

// ApplyAllocations handles POST requests to commit every pending assignment
// and run the downstream recalculation jobs.
//
// Endpoint: POST /api/roster/apply-allocations
// Response: 200 OK with ApplyResult
// Error: 400 Bad Request if validation blocks applying or nothing is pending
// Error: 500 Internal Server Error with per-job details if a recalculation fails
func (h *RosterHandler) ApplyAllocations(w http.ResponseWriter, r *http.Request) {
	result, err := h.rosterService.ApplyAllocations(r.Context(), middleware.AdminID(r))
	if err != nil {
		if errors.Is(err, apperrors.ErrRecalculationFailed) {
			response.RespondError(w, http.StatusInternalServerError, err.Error(), result.Recalculations)
			return
		}
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// AllocationHistory handles GET requests for an account's assignment and
// status history, newest first.
//
// Endpoint: GET /api/roster/allocation-history
// Query Parameters: account (required), limit (optional, default 50)
// Response: 200 OK with array of AllocationHistoryEntry
// Error: 400 Bad Request if the account number is missing or malformed
func (h *RosterHandler) AllocationHistory(w http.ResponseWriter, r *http.Request) {
	accountNumber, err := strconv.ParseInt(r.URL.Query().Get("account"), 10, 64)
	if err != nil || accountNumber <= 0 {
		response.RespondError(w, http.StatusBadRequest, "account must be a positive integer", nil)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.RespondError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	entries, err := h.rosterService.GetAllocationHistory(accountNumber, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, entries)
}
