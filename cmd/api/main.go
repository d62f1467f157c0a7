package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/toolbridge-io/toolbridge/internal/api/handlers"
	"github.com/toolbridge-io/toolbridge/internal/api/router"
	"github.com/toolbridge-io/toolbridge/internal/config"
	"github.com/toolbridge-io/toolbridge/internal/pkg/logger"
	"github.com/toolbridge-io/toolbridge/internal/pkg/validator"
	"github.com/toolbridge-io/toolbridge/internal/repository/postgres"
	"github.com/toolbridge-io/toolbridge/internal/services"
	"github.com/toolbridge-io/toolbridge/internal/suggest"
	"github.com/toolbridge-io/toolbridge/migrations"
)

// @title ToolBridge API
// @version 1.0
// @description Schema drift detection and maintenance proposal engine for integration tooling
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, migrations.GetFS()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	integrationRepo := postgres.NewIntegrationRepository(db)
	toolRepo := postgres.NewToolRepository(db)
	driftRepo := postgres.NewDriftRepository(db)
	proposalRepo := postgres.NewProposalRepository(db)
	jobRepo := postgres.NewJobRepository(db)

	// Description suggester
	var suggester suggest.Suggester
	if cfg.Suggest.Provider == "openai" {
		suggester = suggest.NewOpenAISuggester(cfg.Suggest.OpenAIAPIKey, cfg.Suggest.Model, cfg.Suggest.MaxTokens)
	} else {
		suggester = suggest.NewTemplateSuggester()
	}

	// Services
	integrationService := services.NewIntegrationService(integrationRepo, cfg.Auth.ConnectSessionTTL, log)
	toolService := services.NewToolService(toolRepo, log)
	driftService := services.NewDriftService(driftRepo, integrationRepo, toolRepo, nil, log)
	proposalService := services.NewProposalService(proposalRepo, driftRepo, integrationRepo, toolRepo, suggester, log)
	jobService := services.NewJobService(jobRepo, integrationRepo, driftService, log)

	// Handlers
	val := validator.New()
	h := &router.Handlers{
		Health:      handlers.NewHealthHandler(db.DB, log),
		Integration: handlers.NewIntegrationHandler(integrationService, log, val),
		Tool:        handlers.NewToolHandler(toolService, log, val),
		Drift:       handlers.NewDriftHandler(driftService, log),
		Maintenance: handlers.NewMaintenanceHandler(proposalService, log, val),
		Job:         handlers.NewJobHandler(jobService, log, val),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Scheduler.Enabled {
		if err := jobService.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer jobService.Stop()
	}

	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Info("Server stopped")
}
