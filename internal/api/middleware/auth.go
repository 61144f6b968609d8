// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fidus/MT5-Allocation-Backend/internal/api/response"
	"github.com/fidus/MT5-Allocation-Backend/internal/auth"
)

type ctxKey string

const adminIDKey ctxKey = "admin_id"

// RequireAdmin verifies the bearer token and the admin role claim.
// A missing, malformed or expired token yields 401; a valid token carrying a
// non-admin role yields 403. The two must stay distinguishable.
func RequireAdmin(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.RespondError(w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}

			claims, err := svc.ParseToken(parts[1])
			if err != nil {
				response.RespondError(w, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			if claims.Role != auth.RoleAdmin {
				response.RespondError(w, http.StatusForbidden, "admin role required", nil)
				return
			}

			ctx := context.WithValue(r.Context(), adminIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminID returns the authenticated admin's ID from the request context.
func AdminID(r *http.Request) string {
	if v, ok := r.Context().Value(adminIDKey).(string); ok {
		return v
	}
	return ""
}
