package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cliniscribe/internal/port"
)

// QueueWorkerConfig holds settings for the extraction queue worker.
type QueueWorkerConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	Concurrency  int
}

// ExtractionQueueWorker polls for pending extraction jobs and dispatches
// them. Claiming is atomic at the store, so multiple worker instances can run
// side by side without double-processing.
type ExtractionQueueWorker struct {
	jobRepo port.ExtractionJobRepository
	svc     ExtractionService
	cfg     QueueWorkerConfig
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewExtractionQueueWorker creates a new queue worker.
func NewExtractionQueueWorker(jobRepo port.ExtractionJobRepository, svc ExtractionService, cfg QueueWorkerConfig, logger *zap.Logger) *ExtractionQueueWorker {
	return &ExtractionQueueWorker{
		jobRepo: jobRepo,
		svc:     svc,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start runs the polling loop until ctx is canceled, then blocks until all
// in-flight extractions have finished.
func (w *ExtractionQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	w.logger.Info("extraction queue worker started",
		zap.Duration("poll_interval", w.cfg.PollInterval),
		zap.Int("concurrency", w.cfg.Concurrency),
		zap.Int("max_attempts", w.cfg.MaxAttempts))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("extraction queue worker shutting down, draining in-flight jobs")
			w.wg.Wait()
			w.logger.Info("extraction queue worker stopped")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			jobs, err := w.jobRepo.ClaimPending(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				w.logger.Error("claiming pending jobs", zap.Error(err))
				continue
			}

			for i := range jobs {
				job := jobs[i] // copy for goroutine

				if w.cfg.MaxAttempts > 0 && job.Attempts > w.cfg.MaxAttempts {
					w.logger.Warn("job exceeded max attempts, not dispatching",
						zap.String("job_id", job.ID.String()),
						zap.Int("attempts", job.Attempts))
					continue
				}

				sem <- struct{}{}
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }()

					// A fresh context independent of the poll loop so a
					// claimed job completes even during shutdown.
					runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					w.logger.Info("dispatching extraction job",
						zap.String("job_id", job.ID.String()),
						zap.Int("attempt", job.Attempts))
					w.svc.Run(runCtx, &job)
				}()
			}
		}
	}
}
