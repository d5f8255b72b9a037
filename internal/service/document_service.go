package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cliniscribe/internal/config"
	"cliniscribe/internal/domain"
	"cliniscribe/internal/port"
)

// IngestDocumentInput is the DTO for registering a piece of source material.
// Body optionally carries the raw file payload for archival; ExtractedText is
// the text content the extraction pipeline works from.
type IngestDocumentInput struct {
	DocumentType  domain.DocumentType
	FileName      string
	ContentType   string
	ExtractedText string
	Body          io.Reader
}

// DocumentService owns source material ingestion and retrieval.
type DocumentService interface {
	Ingest(ctx context.Context, input *IngestDocumentInput) (*domain.SourceDocument, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SourceDocument, error)
	List(ctx context.Context, offset, limit int) ([]domain.SourceDocument, int, error)
	// GetDownloadURL presigns a time-limited URL for the archived raw file.
	GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error)
}

type documentService struct {
	docRepo   port.SourceDocumentRepository
	auditRepo port.AuditRepository
	storage   port.ObjectStorage
	s3cfg     *config.S3Config
	logger    *zap.Logger
}

// NewDocumentService creates the document ingestion service.
func NewDocumentService(
	docRepo port.SourceDocumentRepository,
	auditRepo port.AuditRepository,
	storage port.ObjectStorage,
	s3cfg *config.S3Config,
	logger *zap.Logger,
) DocumentService {
	return &documentService{
		docRepo:   docRepo,
		auditRepo: auditRepo,
		storage:   storage,
		s3cfg:     s3cfg,
		logger:    logger,
	}
}

func (s *documentService) Ingest(ctx context.Context, input *IngestDocumentInput) (*domain.SourceDocument, error) {
	if !domain.KnownDocumentTypes[input.DocumentType] {
		return nil, domain.ErrUnsupportedDocumentType
	}
	if strings.TrimSpace(input.ExtractedText) == "" {
		return nil, domain.ErrNoExtractedContent
	}

	doc := &domain.SourceDocument{
		ID:            uuid.New(),
		DocumentType:  input.DocumentType,
		FileName:      input.FileName,
		ContentType:   input.ContentType,
		ExtractedText: input.ExtractedText,
	}

	if input.Body != nil && s.storage != nil && s.s3cfg != nil && s.s3cfg.SourceBucket != "" {
		key := fmt.Sprintf("sources/%s/%s", doc.ID, doc.FileName)
		_, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.s3cfg.SourceBucket,
			Key:         key,
			Body:        input.Body,
			ContentType: input.ContentType,
		})
		if err != nil {
			return nil, fmt.Errorf("archiving source file: %w", err)
		}
		doc.S3Bucket = s.s3cfg.SourceBucket
		doc.S3Key = key
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating source document: %w", err)
	}

	s.audit(ctx, doc.ID, map[string]any{
		"document_type": doc.DocumentType,
		"file_name":     doc.FileName,
	})
	return doc, nil
}

func (s *documentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.SourceDocument, error) {
	return s.docRepo.GetByID(ctx, id)
}

func (s *documentService) List(ctx context.Context, offset, limit int) ([]domain.SourceDocument, int, error) {
	return s.docRepo.List(ctx, offset, limit)
}

func (s *documentService) GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if doc.S3Key == "" {
		return "", domain.ErrNotFound
	}
	url, err := s.storage.GetPresignedURL(ctx, doc.S3Bucket, doc.S3Key, s.s3cfg.PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("presigning source file: %w", err)
	}
	return url, nil
}

func (s *documentService) audit(ctx context.Context, docID uuid.UUID, metadata map[string]any) {
	if s.auditRepo == nil {
		return
	}
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		EntityType: "source_document",
		EntityID:   docID,
		Action:     domain.AuditDocumentIngested,
	}
	if metadata != nil {
		meta, _ := json.Marshal(metadata)
		entry.Metadata = meta
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Warn("writing audit entry",
			zap.String("action", string(entry.Action)), zap.Error(err))
	}
}
