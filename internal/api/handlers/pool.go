package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fidus/MT5-Allocation-Backend/internal/api/middleware"
	"github.com/fidus/MT5-Allocation-Backend/internal/api/request"
	"github.com/fidus/MT5-Allocation-Backend/internal/api/response"
	"github.com/fidus/MT5-Allocation-Backend/internal/service"
	"github.com/fidus/MT5-Allocation-Backend/internal/validation"
)

// PoolHandler handles HTTP requests for the MT5 pool account endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the poolService.
type PoolHandler struct {
	poolService *service.PoolService
}

// NewPoolHandler creates a new PoolHandler with the provided service dependency.
func NewPoolHandler(poolService *service.PoolService) *PoolHandler {
	return &PoolHandler{
		poolService: poolService,
	}
}

// AvailableAccounts handles GET requests to list available pool accounts.
//
// Endpoint: GET /api/pool/accounts/available?account_type=&broker=
// Response: 200 OK with array of PoolAccount (allocation fields omitted)
// Error: 500 Internal Server Error if retrieval fails
func (h *PoolHandler) AvailableAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.poolService.GetAvailableAccounts(
		r.URL.Query().Get("account_type"),
		r.URL.Query().Get("broker"),
	)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, accounts)
}

// AllocatedAccounts handles GET requests to list allocated pool accounts
// with their allocation records.
//
// Endpoint: GET /api/pool/accounts/allocated?client_id=
// Response: 200 OK with array of PoolAccount
func (h *PoolHandler) AllocatedAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.poolService.GetAllocatedAccounts(r.URL.Query().Get("client_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, accounts)
}

// Statistics handles GET requests for aggregate pool counts and utilization.
//
// Endpoint: GET /api/pool/statistics
// Response: 200 OK with PoolStatistics
func (h *PoolHandler) Statistics(w http.ResponseWriter, _ *http.Request) {
	stats, err := h.poolService.GetPoolStatistics()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}

// AddAccount handles POST requests to add a new account to the pool.
//
// Endpoint: POST /api/pool/accounts
// Request Body: AddPoolAccountRequest
// Response: 201 Created with PoolAccount
// Error: 400 Bad Request if validation fails
// Error: 409 Conflict if the account number already exists in the pool
func (h *PoolHandler) AddAccount(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.AddPoolAccountRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateAddPoolAccount(req); err != nil {
		respondServiceError(w, err)
		return
	}

	account, err := h.poolService.AddAccountToPool(r.Context(), req, middleware.AdminID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, account)
}

// Allocate handles POST requests to allocate an available account to a
// client and investment.
//
// Endpoint: POST /api/pool/accounts/{number}/allocate
// Request Body: AllocateAccountRequest
// Response: 200 OK with the allocated PoolAccount
// Error: 400 Bad Request if validation fails or notes are too short
// Error: 404 Not Found if the account is not in the pool
// Error: 409 Conflict if the account is not available (exclusivity)
func (h *PoolHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.AllocateAccountRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateAllocateAccount(req); err != nil {
		respondServiceError(w, err)
		return
	}

	account, err := h.poolService.AllocateAccountToClient(r.Context(), accountNumberParam(r), req, middleware.AdminID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, account)
}

// ExclusivityCheck handles GET requests for the availability guard on a
// single account.
//
// Endpoint: GET /api/pool/accounts/{number}/exclusivity-check
// Response: 200 OK with ExclusivityCheck (also 200 for unknown accounts,
// which count as available for just-in-time creation)
func (h *PoolHandler) ExclusivityCheck(w http.ResponseWriter, r *http.Request) {
	check, err := h.poolService.CheckAccountExclusivity(accountNumberParam(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, check)
}

// RequestDeallocation handles POST requests to open a deallocation request.
//
// Endpoint: POST /api/pool/accounts/{number}/request-deallocation
// Request Body: RequestDeallocationRequest
// Response: 200 OK with the created DeallocationRequest
// Error: 400 Bad Request if the reason is shorter than 10 trimmed characters
// Error: 404 Not Found if the account is not in the pool
func (h *PoolHandler) RequestDeallocation(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.RequestDeallocationRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateRequestDeallocation(req); err != nil {
		respondServiceError(w, err)
		return
	}

	created, err := h.poolService.RequestDeallocation(r.Context(), accountNumberParam(r), middleware.AdminID(r), req.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, created)
}

// PendingDeallocations handles GET requests to list requests awaiting approval.
//
// Endpoint: GET /api/pool/deallocation-requests/pending
// Response: 200 OK with array of DeallocationRequest
func (h *PoolHandler) PendingDeallocations(w http.ResponseWriter, _ *http.Request) {
	requests, err := h.poolService.GetPendingDeallocationRequests()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, requests)
}

// ApproveDeallocation handles POST requests to approve a pending request,
// returning the account to the available pool.
//
// Endpoint: POST /api/pool/deallocation-requests/{uuid}/approve
// Request Body: ResolveDeallocationRequest
// Response: 200 OK with the resolved DeallocationRequest
// Error: 400 Bad Request if the request is not pending or the approver is the requester
// Error: 404 Not Found if the request does not exist
func (h *PoolHandler) ApproveDeallocation(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ResolveDeallocationRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resolved, err := h.poolService.ApproveDeallocation(r.Context(), chi.URLParam(r, "uuid"), middleware.AdminID(r), req.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, resolved)
}

// RejectDeallocation handles POST requests to reject a pending request,
// leaving the account allocated.
//
// Endpoint: POST /api/pool/deallocation-requests/{uuid}/reject
// Request Body: ResolveDeallocationRequest
// Response: 200 OK with the resolved DeallocationRequest
// Error: 400 Bad Request if the request is not pending
// Error: 404 Not Found if the request does not exist
func (h *PoolHandler) RejectDeallocation(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ResolveDeallocationRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	resolved, err := h.poolService.RejectDeallocation(r.Context(), chi.URLParam(r, "uuid"), middleware.AdminID(r), req.Notes)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, resolved)
}
