package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fidus/MT5-Allocation-Backend/internal/apperrors"
	"github.com/fidus/MT5-Allocation-Backend/internal/api/response"
	"github.com/fidus/MT5-Allocation-Backend/internal/service"
	"github.com/fidus/MT5-Allocation-Backend/internal/validation"
)

// parseJSON decodes a request body into the given request struct.
// Unknown fields are rejected so typos surface as 400s instead of silently
// dropped input.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		return req, fmt.Errorf("failed to decode request body: %w", err)
	}

	return req, nil
}

// accountNumberParam reads the {number} URL parameter. The account-number
// middleware has already validated it.
func accountNumberParam(r *http.Request) int64 {
	number, _ := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	return number
}

// respondServiceError maps service-layer errors onto the HTTP error taxonomy:
// validation and business-rule violations are 400, missing entities 404,
// exclusivity and duplicates 409, everything else a generic 500 with the
// detail kept to server-side logs via the response helper.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		response.RespondError(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
		return
	}

	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		response.RespondError(w, http.StatusConflict, conflictErr.Error(), conflictErr.Conflicts)
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound),
		errors.Is(err, apperrors.ErrTradingAccountNotFound),
		errors.Is(err, apperrors.ErrRequestNotFound):
		response.RespondError(w, http.StatusNotFound, err.Error(), nil)

	case errors.Is(err, apperrors.ErrAccountNotAvailable),
		errors.Is(err, apperrors.ErrDuplicateAccount):
		response.RespondError(w, http.StatusConflict, err.Error(), nil)

	case errors.Is(err, apperrors.ErrNotesTooShort),
		errors.Is(err, apperrors.ErrAccountNotAllocated),
		errors.Is(err, apperrors.ErrRequestNotPending),
		errors.Is(err, apperrors.ErrSameActorApproval),
		errors.Is(err, apperrors.ErrInvalidAssignmentType),
		errors.Is(err, apperrors.ErrInvalidAssignmentValue),
		errors.Is(err, apperrors.ErrCannotApply),
		errors.Is(err, apperrors.ErrNoPendingChanges):
		response.RespondError(w, http.StatusBadRequest, err.Error(), nil)

	default:
		response.RespondError(w, http.StatusInternalServerError, "internal server error", err.Error())
	}
}
