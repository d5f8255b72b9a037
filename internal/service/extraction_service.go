// Package service holds the application services: the extraction job
// coordinator, the queue worker, and the letter review workflow.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cliniscribe/internal/config"
	"cliniscribe/internal/domain"
	"cliniscribe/internal/extraction"
	"cliniscribe/internal/port"
)

// ExtractionService coordinates structured extraction of source documents.
type ExtractionService interface {
	// Enqueue creates a pending extraction job for a document.
	Enqueue(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error)
	GetJob(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error)
	GetJobByDocument(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error)
	// Extract runs one extraction attempt for a job, acquiring the job's
	// optimistic lock first. Losing the acquire race returns
	// domain.ErrExtractionInProgress; the caller polls instead of retrying.
	Extract(ctx context.Context, jobID uuid.UUID) error
	// Run performs the attempt for a job already moved to processing (the
	// queue worker claims jobs in batches, so the lock is already held).
	Run(ctx context.Context, job *domain.ExtractionJob)
	// IdentityHint runs the fast identity-only extraction for a document.
	IdentityHint(ctx context.Context, documentID uuid.UUID) (*domain.PatientIdentity, error)
}

type extractionService struct {
	jobRepo   port.ExtractionJobRepository
	docRepo   port.SourceDocumentRepository
	auditRepo port.AuditRepository
	model     port.ModelClient
	cfg       *config.ModelConfig
	logger    *zap.Logger
}

// NewExtractionService creates the extraction coordinator.
func NewExtractionService(
	jobRepo port.ExtractionJobRepository,
	docRepo port.SourceDocumentRepository,
	auditRepo port.AuditRepository,
	model port.ModelClient,
	cfg *config.ModelConfig,
	logger *zap.Logger,
) ExtractionService {
	return &extractionService{
		jobRepo:   jobRepo,
		docRepo:   docRepo,
		auditRepo: auditRepo,
		model:     model,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *extractionService) Enqueue(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !domain.KnownDocumentTypes[doc.DocumentType] {
		return nil, domain.ErrUnsupportedDocumentType
	}

	job := &domain.ExtractionJob{
		ID:           uuid.New(),
		DocumentID:   doc.ID,
		DocumentType: doc.DocumentType,
		Status:       domain.ExtractionStatusPending,
		Model:        s.cfg.DefaultModel,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating extraction job: %w", err)
	}

	s.audit(ctx, "extraction_job", job.ID, domain.AuditExtractionQueued, map[string]any{
		"document_id":   doc.ID,
		"document_type": doc.DocumentType,
	})
	return job, nil
}

func (s *extractionService) GetJob(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error) {
	return s.jobRepo.GetByID(ctx, id)
}

func (s *extractionService) GetJobByDocument(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error) {
	return s.jobRepo.GetByDocumentID(ctx, documentID)
}

func (s *extractionService) Extract(ctx context.Context, jobID uuid.UUID) error {
	acquired, err := s.jobRepo.Acquire(ctx, jobID)
	if err != nil {
		return fmt.Errorf("acquiring job %s: %w", jobID, err)
	}
	if !acquired {
		return domain.ErrExtractionInProgress
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	s.Run(ctx, job)
	return nil
}

// Run performs one attempt end to end. The job must already be in processing
// with its attempt counter incremented; Run terminates it into complete or
// failed.
func (s *extractionService) Run(ctx context.Context, job *domain.ExtractionJob) {
	s.audit(ctx, "extraction_job", job.ID, domain.AuditExtractionStarted, map[string]any{
		"attempt": job.Attempts,
	})

	doc, err := s.docRepo.GetByID(ctx, job.DocumentID)
	if err != nil {
		s.fail(ctx, job, fmt.Sprintf("loading document: %v", err))
		return
	}

	// Fail fast before any model call: an empty document wastes a paid
	// request and can never parse.
	if strings.TrimSpace(doc.ExtractedText) == "" {
		s.fail(ctx, job, domain.ErrNoExtractedContent.Error())
		return
	}
	if !domain.KnownDocumentTypes[job.DocumentType] {
		s.fail(ctx, job, domain.ErrUnsupportedDocumentType.Error())
		return
	}

	model := job.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	start := time.Now()
	out, err := s.model.GenerateText(ctx, port.GenerateInput{
		Prompt:      extraction.BuildPrompt(job.DocumentType, doc.ExtractedText),
		Model:       model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: 0, // deterministic extraction
	})
	if err != nil {
		s.fail(ctx, job, fmt.Sprintf("model invocation: %v", err))
		return
	}

	result, err := extraction.Parse(job.DocumentType, out.Content, extraction.Meta{
		Model:    model,
		Duration: time.Since(start),
	})
	if err != nil {
		s.fail(ctx, job, err.Error())
		return
	}

	structured, err := json.Marshal(result)
	if err != nil {
		s.fail(ctx, job, fmt.Sprintf("encoding result: %v", err))
		return
	}

	now := time.Now().UTC()
	job.Status = domain.ExtractionStatusComplete
	job.Model = model
	job.StructuredData = structured
	job.OverallConfidence = result.Overall.Value
	job.ConfidenceLevel = string(result.Overall.Level)
	job.Completeness = result.Completeness
	job.Error = ""
	job.CompletedAt = &now

	if err := s.jobRepo.Update(ctx, job); err != nil {
		s.logger.Error("saving extraction result",
			zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}

	// Audit metadata carries field names and scores only, never field values.
	s.audit(ctx, "extraction_job", job.ID, domain.AuditExtractionCompleted, map[string]any{
		"model":          model,
		"attempt":        job.Attempts,
		"confidence":     result.Overall.Value,
		"completeness":   result.Completeness,
		"fields_present": result.FieldsPresent,
	})

	s.logger.Info("extraction complete",
		zap.String("job_id", job.ID.String()),
		zap.String("document_type", string(job.DocumentType)),
		zap.Float64("confidence", result.Overall.Value),
		zap.Float64("completeness", result.Completeness))
}

// IdentityHint is the best-effort side pipeline: a fast identity-only
// extraction on a smaller model. It holds no job lock and its failures are
// absorbed by callers, never propagated into the main pipeline.
func (s *extractionService) IdentityHint(ctx context.Context, documentID uuid.UUID) (*domain.PatientIdentity, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return nil, domain.ErrNoExtractedContent
	}

	model := s.cfg.IdentityModel
	if model == "" {
		model = s.cfg.DefaultModel
	}

	out, err := s.model.GenerateText(ctx, port.GenerateInput{
		Prompt:      extraction.BuildIdentityPrompt(doc.ExtractedText),
		Model:       model,
		MaxTokens:   1024,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("identity extraction: %w", err)
	}

	res, err := extraction.ParseIdentity(out.Content)
	if err != nil {
		return nil, fmt.Errorf("identity extraction: %w", err)
	}
	identity := res.Identity()
	return &identity, nil
}

func (s *extractionService) fail(ctx context.Context, job *domain.ExtractionJob, reason string) {
	s.logger.Warn("extraction failed",
		zap.String("job_id", job.ID.String()), zap.String("reason", reason))

	job.Status = domain.ExtractionStatusFailed
	job.Error = reason
	if err := s.jobRepo.Update(ctx, job); err != nil {
		s.logger.Error("saving failed job",
			zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	s.audit(ctx, "extraction_job", job.ID, domain.AuditExtractionFailed, map[string]any{
		"error":   reason,
		"attempt": job.Attempts,
	})
}

// audit writes an append-only event. Failures are logged, never block
// business logic.
func (s *extractionService) audit(ctx context.Context, entityType string, entityID uuid.UUID, action domain.AuditAction, metadata map[string]any) {
	if s.auditRepo == nil {
		return
	}
	meta, _ := json.Marshal(metadata)
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Metadata:   meta,
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Warn("writing audit entry",
			zap.String("action", string(action)), zap.Error(err))
	}
}
