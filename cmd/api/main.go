package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/procurement-api/internal/config"
	"github.com/straye-as/procurement-api/internal/database"
	"github.com/straye-as/procurement-api/internal/http/handler"
	"github.com/straye-as/procurement-api/internal/http/middleware"
	"github.com/straye-as/procurement-api/internal/http/router"
	"github.com/straye-as/procurement-api/internal/logger"
	"github.com/straye-as/procurement-api/internal/repository"
	"github.com/straye-as/procurement-api/internal/service"
	"github.com/straye-as/procurement-api/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// In development secrets come from the environment,
	// in staging/production from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db)
	packageRepo := repository.NewBidPackageRepository(db)
	specItemRepo := repository.NewSpecItemRepository(db)
	batchRepo := repository.NewImportBatchRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	bidRepo := repository.NewBidRepository(db)
	lineRepo := repository.NewBidLineItemRepository(db)
	versionRepo := repository.NewSubmissionVersionRepository(db)
	eventRepo := repository.NewAwardEventRepository(db)
	comparisonRepo := repository.NewComparisonRepository(db)

	// Initialize services
	importService := service.NewImportService(projectRepo, packageRepo, specItemRepo, batchRepo, fileStorage, cfg.Import, log, db)
	packageService := service.NewPackageService(packageRepo, log)
	specItemService := service.NewSpecItemService(packageRepo, specItemRepo, log, db)
	inviteService := service.NewInviteService(packageRepo, inviteRepo, log)
	bidService := service.NewBidService(packageRepo, inviteRepo, bidRepo, lineRepo, specItemRepo, versionRepo, log, db)
	comparisonService := service.NewComparisonService(packageRepo, comparisonRepo, log)
	awardService := service.NewAwardService(packageRepo, bidRepo, lineRepo, versionRepo, eventRepo, log, db)

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	importHandler := handler.NewImportHandler(importService, cfg.Import.MaxUploadSizeMB, log)
	packageHandler := handler.NewPackageHandler(packageService, specItemService, log)
	inviteHandler := handler.NewInviteHandler(inviteService, log)
	dealerHandler := handler.NewDealerHandler(bidService, inviteService, log)
	bidHandler := handler.NewBidHandler(bidService, log)
	comparisonHandler := handler.NewComparisonHandler(comparisonService, log)
	awardHandler := handler.NewAwardHandler(awardService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		rateLimiter,
		importHandler,
		packageHandler,
		inviteHandler,
		dealerHandler,
		bidHandler,
		comparisonHandler,
		awardHandler,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      http.TimeoutHandler(rt.Setup(), cfg.Server.RequestTimeoutDuration(), "request timed out"),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("Error closing database connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
