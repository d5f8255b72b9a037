package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cliniscribe/internal/domain"
	"cliniscribe/internal/port"
)

type extractionJobRepo struct {
	db *sqlx.DB
}

// NewExtractionJobRepo creates a PostgreSQL-backed ExtractionJobRepository.
func NewExtractionJobRepo(db *sqlx.DB) port.ExtractionJobRepository {
	return &extractionJobRepo{db: db}
}

func (r *extractionJobRepo) Create(ctx context.Context, job *domain.ExtractionJob) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = domain.ExtractionStatusPending
	}

	query := `INSERT INTO extraction_jobs (
		id, document_id, document_type, status, attempts,
		model, structured_data, overall_confidence, confidence_level,
		completeness, error, started_at, completed_at,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12, $13,
		$14, $15
	)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.DocumentID, job.DocumentType, job.Status, job.Attempts,
		job.Model, job.StructuredData, job.OverallConfidence, job.ConfidenceLevel,
		job.Completeness, job.Error, job.StartedAt, job.CompletedAt,
		job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("extractionJobRepo.Create: %w", err)
	}
	return nil
}

func (r *extractionJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error) {
	var job domain.ExtractionJob
	err := r.db.GetContext(ctx, &job,
		"SELECT * FROM extraction_jobs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("extractionJobRepo.GetByID: %w", err)
	}
	return &job, nil
}

func (r *extractionJobRepo) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error) {
	var job domain.ExtractionJob
	err := r.db.GetContext(ctx, &job,
		`SELECT * FROM extraction_jobs WHERE document_id = $1
		 ORDER BY created_at DESC LIMIT 1`, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("extractionJobRepo.GetByDocumentID: %w", err)
	}
	return &job, nil
}

// Acquire is the optimistic lock for one extraction attempt: a single
// conditional UPDATE, so of any number of concurrent callers exactly one sees
// a row transition out of pending/failed.
func (r *extractionJobRepo) Acquire(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE extraction_jobs
		 SET status = $2, attempts = attempts + 1, started_at = $3, updated_at = $3
		 WHERE id = $1 AND status IN ($4, $5)`,
		id, domain.ExtractionStatusProcessing, now,
		domain.ExtractionStatusPending, domain.ExtractionStatusFailed)
	if err != nil {
		return false, fmt.Errorf("extractionJobRepo.Acquire: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("extractionJobRepo.Acquire rows: %w", err)
	}
	return n == 1, nil
}

// ClaimPending moves up to limit pending jobs to processing for the queue
// worker. SKIP LOCKED keeps multiple workers from claiming the same rows.
func (r *extractionJobRepo) ClaimPending(ctx context.Context, limit int) ([]domain.ExtractionJob, error) {
	now := time.Now().UTC()
	var jobs []domain.ExtractionJob
	err := r.db.SelectContext(ctx, &jobs,
		`UPDATE extraction_jobs
		 SET status = $1, attempts = attempts + 1, started_at = $2, updated_at = $2
		 WHERE id IN (
		     SELECT id FROM extraction_jobs
		     WHERE status = $3
		     ORDER BY created_at
		     LIMIT $4
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		domain.ExtractionStatusProcessing, now, domain.ExtractionStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("extractionJobRepo.ClaimPending: %w", err)
	}
	return jobs, nil
}

func (r *extractionJobRepo) Update(ctx context.Context, job *domain.ExtractionJob) error {
	job.UpdatedAt = time.Now().UTC()

	query := `UPDATE extraction_jobs SET
		status = $2, attempts = $3, model = $4, structured_data = $5,
		overall_confidence = $6, confidence_level = $7, completeness = $8,
		error = $9, started_at = $10, completed_at = $11, updated_at = $12
	WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		job.ID, job.Status, job.Attempts, job.Model, job.StructuredData,
		job.OverallConfidence, job.ConfidenceLevel, job.Completeness,
		job.Error, job.StartedAt, job.CompletedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("extractionJobRepo.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
