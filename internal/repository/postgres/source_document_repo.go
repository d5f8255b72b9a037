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

type sourceDocumentRepo struct {
	db *sqlx.DB
}

// NewSourceDocumentRepo creates a PostgreSQL-backed SourceDocumentRepository.
func NewSourceDocumentRepo(db *sqlx.DB) port.SourceDocumentRepository {
	return &sourceDocumentRepo{db: db}
}

func (r *sourceDocumentRepo) Create(ctx context.Context, doc *domain.SourceDocument) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query := `INSERT INTO source_documents (
		id, document_type, file_name, content_type,
		s3_bucket, s3_key, extracted_text,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7,
		$8, $9
	)`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.DocumentType, doc.FileName, doc.ContentType,
		doc.S3Bucket, doc.S3Key, doc.ExtractedText,
		doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sourceDocumentRepo.Create: %w", err)
	}
	return nil
}

func (r *sourceDocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SourceDocument, error) {
	var doc domain.SourceDocument
	err := r.db.GetContext(ctx, &doc,
		"SELECT * FROM source_documents WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("sourceDocumentRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *sourceDocumentRepo) List(ctx context.Context, offset, limit int) ([]domain.SourceDocument, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM source_documents")
	if err != nil {
		return nil, 0, fmt.Errorf("sourceDocumentRepo.List count: %w", err)
	}

	var docs []domain.SourceDocument
	err = r.db.SelectContext(ctx, &docs,
		`SELECT * FROM source_documents
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sourceDocumentRepo.List: %w", err)
	}
	return docs, total, nil
}

func (r *sourceDocumentRepo) Update(ctx context.Context, doc *domain.SourceDocument) error {
	doc.UpdatedAt = time.Now().UTC()

	query := `UPDATE source_documents SET
		document_type = $2, file_name = $3, content_type = $4,
		s3_bucket = $5, s3_key = $6, extracted_text = $7,
		updated_at = $8
	WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.DocumentType, doc.FileName, doc.ContentType,
		doc.S3Bucket, doc.S3Key, doc.ExtractedText,
		doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sourceDocumentRepo.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
