package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"scholarly/feedback-app/internal/api"
	"scholarly/feedback-app/internal/bootstrap"
	"scholarly/feedback-app/internal/config"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/service"
	"scholarly/feedback-app/internal/storage"
)

// @title Scholarly Feedback API
// @version 1.0
// @description Essay and manuscript feedback marketplace: submissions, review, payment and feedback delivery.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: Invalid config: %v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("FATAL: Could not create logger: %v", err)
	}
	ctx := context.Background()
	logger.Info(ctx, "starting scholarly feedback server", "driver", cfg.Database.Driver, "address", cfg.Server.Address)

	// --- Database Connection ---
	startupCtx, cancelStartup := context.WithTimeout(ctx, time.Minute)
	backend, err := bootstrap.OpenBackend(startupCtx, cfg.Database, logger)
	cancelStartup()
	if err != nil {
		logger.Error(ctx, "could not open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := backend.Close(context.Background()); err != nil {
			logger.Error(ctx, "failed to close database", "error", err)
		}
	}()

	// --- Initialize Storage ---
	// Without a bucket the server still runs; file routes answer 503.
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3, logger)
		if err != nil {
			logger.Error(ctx, "failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn(ctx, "s3.bucket_name not set, file submissions are disabled")
	}

	// --- Initialize Services ---
	opts := []service.SubmissionOption{service.WithPendingLimit(cfg.Submissions.PendingLimit)}
	if fileStorage != nil {
		opts = append(opts, service.WithUploadCleanup(fileStorage))
	}
	submissionService := service.NewSubmissionService(backend.Tx, backend.Users, backend.Services, backend.Submissions, logger, opts...)

	services := api.Services{
		Auth:        service.NewAuthService(backend.Users, cfg.JWT.Secret, cfg.JWT.Expiration, logger),
		Catalog:     service.NewCatalogService(backend.Services, logger),
		Submissions: submissionService,
		Queries:     service.NewSubmissionQueries(backend.Submissions),
		Uploads:     service.NewUploadService(fileStorage, cfg.Uploads.MaxSizeBytes, cfg.S3.PresignExpiry, logger),
	}

	// --- Initialize Gin Engine ---
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, cfg.JWT.Secret, cfg.Submissions.PendingLimit, services, logger)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-serveErr:
		if ok {
			logger.Error(ctx, "server failed", "error", err)
			return
		}
	}
	logger.Info(ctx, "shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error(ctx, "server forced to shutdown", "error", err)
	}
	logger.Info(ctx, "server exiting")
}
