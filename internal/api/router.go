package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fidus/MT5-Allocation-Backend/internal/api/handlers"
	custommiddleware "github.com/fidus/MT5-Allocation-Backend/internal/api/middleware"
	"github.com/fidus/MT5-Allocation-Backend/internal/auth"
	"github.com/fidus/MT5-Allocation-Backend/internal/config"
	"github.com/fidus/MT5-Allocation-Backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	poolService *service.PoolService,
	allocationService *service.AllocationService,
	rosterService *service.RosterService,
	authService *auth.Service,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace, reachable without a token so load balancers can probe it
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
		})

		// Everything below requires an admin bearer token
		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RequireAdmin(authService))

			r.Route("/pool", func(r chi.Router) {
				poolHandler := handlers.NewPoolHandler(poolService)
				allocationHandler := handlers.NewAllocationHandler(allocationService)

				r.Get("/statistics", poolHandler.Statistics)
				r.Post("/validate-account-availability", allocationHandler.ValidateAvailability)
				r.Post("/validate-mappings", allocationHandler.ValidateMappings)
				r.Post("/create-investment-with-mt5", allocationHandler.CreateInvestment)
				r.Get("/deallocation-requests/pending", poolHandler.PendingDeallocations)

				r.Route("/accounts", func(r chi.Router) {
					r.Post("/", poolHandler.AddAccount)
					r.Get("/available", poolHandler.AvailableAccounts)
					r.Get("/allocated", poolHandler.AllocatedAccounts)

					r.Route("/{number}", func(r chi.Router) {
						r.Use(custommiddleware.ValidateAccountNumberMiddleware)
						r.Get("/exclusivity-check", poolHandler.ExclusivityCheck)
						r.Post("/allocate", poolHandler.Allocate)
						r.Post("/request-deallocation", poolHandler.RequestDeallocation)
					})
				})

				r.Route("/deallocation-requests/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Post("/approve", poolHandler.ApproveDeallocation)
					r.Post("/reject", poolHandler.RejectDeallocation)
				})
			})

			r.Route("/roster", func(r chi.Router) {
				rosterHandler := handlers.NewRosterHandler(rosterService)

				r.Get("/mt5-accounts", rosterHandler.Accounts)
				r.Post("/assign-to-manager", rosterHandler.AssignManager)
				r.Post("/assign-to-fund", rosterHandler.AssignFund)
				r.Post("/assign-to-broker", rosterHandler.AssignBroker)
				r.Post("/assign-to-platform", rosterHandler.AssignPlatform)
				r.Post("/remove-assignment", rosterHandler.RemoveAssignment)
				r.Get("/allocations", rosterHandler.Allocations)
				r.Get("/validate-allocations", rosterHandler.ValidateAllocations)
				r.Post("/apply-allocations", rosterHandler.ApplyAllocations)
				r.Get("/allocation-history", rosterHandler.AllocationHistory)
			})
		})
	})

	return r
}
