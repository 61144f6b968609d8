package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fidus/MT5-Allocation-Backend/internal/api"
	"github.com/fidus/MT5-Allocation-Backend/internal/auth"
	"github.com/fidus/MT5-Allocation-Backend/internal/config"
	"github.com/fidus/MT5-Allocation-Backend/internal/database"
	"github.com/fidus/MT5-Allocation-Backend/internal/repository"
	"github.com/fidus/MT5-Allocation-Backend/internal/secrets"
	"github.com/fidus/MT5-Allocation-Backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	encryptor, err := secrets.NewEncryptor(cfg.Secrets.FernetKey)
	if err != nil {
		log.Fatalf("Failed to initialize credential encryption: %v", err)
	}

	authService := auth.NewService(cfg.Auth.Issuer, []byte(cfg.Auth.Secret), cfg.Auth.TTL)

	// Create repositories
	poolRepo := repository.NewPoolRepository(db)
	deallocationRepo := repository.NewDeallocationRepository(db)
	mappingRepo := repository.NewMappingRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Create services
	systemService := service.NewSystemService(db)
	poolService := service.NewPoolService(
		poolRepo,
		deallocationRepo,
		historyRepo,
		encryptor,
	)
	allocationService := service.NewAllocationService(
		poolService,
		mappingRepo,
	)
	recalcService := service.NewRecalculationService(reportRepo)
	rosterService := service.NewRosterService(
		db,
		rosterRepo,
		historyRepo,
		recalcService,
	)

	// Nightly report refresh
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Scheduler.RecalcCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := recalcService.RefreshReports(ctx); err != nil {
			log.Printf("Scheduled report refresh failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid recalculation cron spec %q: %v", cfg.Scheduler.RecalcCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(systemService, poolService, allocationService, rosterService, authService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
