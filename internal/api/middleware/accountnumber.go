package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fidus/MT5-Allocation-Backend/internal/api/response"
	"github.com/fidus/MT5-Allocation-Backend/internal/validation"
)

// ValidateAccountNumberMiddleware validates that the {number} URL parameter
// is a positive integer MT5 login.
// Returns 400 Bad Request if the account number is missing or invalid.
//
// Example usage in router:
//
//	r.Route("/accounts/{number}", func(r chi.Router) {
//	    r.Use(middleware.ValidateAccountNumberMiddleware)
//	    r.Post("/allocate", handler.Allocate)
//	})
func ValidateAccountNumberMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "number")

		if raw == "" {
			response.RespondError(w, http.StatusBadRequest, "account number is required", "")
			return
		}

		number, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "account number must be an integer", err.Error())
			return
		}

		if err := validation.ValidateAccountNumber(number); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid account number", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ValidateUUIDMiddleware validates that the {uuid} URL parameter is present
// and is a valid UUID. Returns 400 Bad Request otherwise.
func ValidateUUIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "uuid")

		if id == "" {
			response.RespondError(w, http.StatusBadRequest, "valid UUID is required", "")
			return
		}

		if err := validation.ValidateUUID(id); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid UUID format", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
