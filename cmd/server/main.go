package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cliniscribe/internal/config"
	"cliniscribe/internal/handler"
	"cliniscribe/internal/llm/claude"
	"cliniscribe/internal/logging"
	"cliniscribe/internal/repository/postgres"
	"cliniscribe/internal/router"
	"cliniscribe/internal/service"
	s3storage "cliniscribe/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Repositories
	docRepo := postgres.NewSourceDocumentRepo(db)
	jobRepo := postgres.NewExtractionJobRepo(db)
	letterRepo := postgres.NewLetterRepo(db)
	provRepo := postgres.NewProvenanceRepo(db)
	auditRepo := postgres.NewAuditRepo(db)

	// Storage and model client
	storage, err := s3storage.NewClient(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	model := claude.NewClient(&cfg.Model)

	// Services
	extractionSvc := service.NewExtractionService(jobRepo, docRepo, auditRepo, model, &cfg.Model, logger)
	documentSvc := service.NewDocumentService(docRepo, auditRepo, storage, &cfg.S3, logger)
	letterSvc := service.NewLetterService(letterRepo, docRepo, provRepo, auditRepo, storage, &cfg.S3, logger)

	// Handlers
	documentH := handler.NewDocumentHandler(documentSvc, extractionSvc)
	jobH := handler.NewExtractionJobHandler(extractionSvc)
	letterH := handler.NewLetterHandler(letterSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, logger, documentH, jobH, letterH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Queue worker runs in-process alongside the HTTP server. Claiming is
	// atomic at the store, so extra instances are safe.
	worker := service.NewExtractionQueueWorker(jobRepo, extractionSvc, service.QueueWorkerConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		Concurrency:  cfg.Queue.Concurrency,
	}, logger)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(ctx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	<-workerDone

	return nil
}
