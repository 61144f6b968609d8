package handlers

import (
	"net/http"

	"github.com/fidus/MT5-Allocation-Backend/internal/api/middleware"
	"github.com/fidus/MT5-Allocation-Backend/internal/api/request"
	"github.com/fidus/MT5-Allocation-Backend/internal/api/response"
	"github.com/fidus/MT5-Allocation-Backend/internal/service"
	"github.com/fidus/MT5-Allocation-Backend/internal/validation"
)

// AllocationHandler handles HTTP requests for just-in-time investment
// creation and mapping validation.
type AllocationHandler struct {
	allocationService *service.AllocationService
}

// NewAllocationHandler creates a new AllocationHandler with the provided service dependency.
func NewAllocationHandler(allocationService *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
	}
}

// ValidateAvailability handles POST requests to run the exclusivity guard
// over a batch of candidate accounts without mutating anything.
//
// Endpoint: POST /api/pool/validate-account-availability
// Request Body: ValidateAvailabilityRequest
// Response: 200 OK with array of ExclusivityCheck
// Error: 400 Bad Request if accountNumbers is missing or empty
func (h *AllocationHandler) ValidateAvailability(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ValidateAvailabilityRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateAvailabilityRequest(req); err != nil {
		respondServiceError(w, err)
		return
	}

	checks, err := h.allocationService.ValidateAvailability(req.AccountNumbers)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, checks)
}

// CreateInvestment handles POST requests to create an investment together
// with its freshly allocated MT5 accounts.
//
// Endpoint: POST /api/pool/create-investment-with-mt5
// Request Body: CreateInvestmentRequest
// Response: 200 OK with CreationResult (success even when the advisory
// allocationIsValid flag is false)
// Error: 400 Bad Request if validation fails
// Error: 409 Conflict listing every account that failed the exclusivity check
// Error: 500 Internal Server Error on unexpected failure mid-creation
func (h *AllocationHandler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateInvestmentRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateInvestment(req); err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.allocationService.CreateInvestmentWithAccounts(r.Context(), req, middleware.AdminID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// ValidateMappings handles POST requests to compare an investment's mapped
// amounts against its declared total.
//
// Endpoint: POST /api/pool/validate-mappings
// Request Body: ValidateMappingsRequest
// Response: 200 OK with MappingValidation
// Error: 400 Bad Request if required fields are missing
func (h *AllocationHandler) ValidateMappings(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ValidateMappingsRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateValidateMappings(req); err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.allocationService.ValidateInvestmentMappings(req.InvestmentID, req.TotalAmount)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
