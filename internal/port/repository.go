package port

import (
	"context"

	"github.com/google/uuid"

	"cliniscribe/internal/domain"
)

// SourceDocumentRepository defines the contract for source document persistence.
type SourceDocumentRepository interface {
	Create(ctx context.Context, doc *domain.SourceDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SourceDocument, error)
	List(ctx context.Context, offset, limit int) ([]domain.SourceDocument, int, error)
	Update(ctx context.Context, doc *domain.SourceDocument) error
}

// ExtractionJobRepository defines the contract for extraction job persistence.
// Acquire is the optimistic lock: a single atomic conditional write, never a
// read followed by a separate write.
type ExtractionJobRepository interface {
	Create(ctx context.Context, job *domain.ExtractionJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error)
	GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*domain.ExtractionJob, error)
	// Acquire transitions the job to processing iff its status is pending or
	// failed, incrementing the attempt counter in the same write. Exactly one
	// concurrent caller succeeds; the rest get acquired=false.
	Acquire(ctx context.Context, id uuid.UUID) (acquired bool, err error)
	// ClaimPending atomically claims up to limit pending jobs for the queue
	// worker, moving each to processing.
	ClaimPending(ctx context.Context, limit int) ([]domain.ExtractionJob, error)
	Update(ctx context.Context, job *domain.ExtractionJob) error
}

// LetterRepository defines the contract for letter persistence.
type LetterRepository interface {
	Create(ctx context.Context, letter *domain.Letter) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Letter, error)
	List(ctx context.Context, offset, limit int) ([]domain.Letter, int, error)
	Update(ctx context.Context, letter *domain.Letter) error
}

// ProvenanceRepository stores the immutable approval artifact.
type ProvenanceRepository interface {
	Create(ctx context.Context, rec *domain.ProvenanceRecord) error
	GetByLetterID(ctx context.Context, letterID uuid.UUID) (*domain.ProvenanceRecord, error)
}

// AuditRepository is the append-only audit log. The core writes entries and
// never reads them back.
type AuditRepository interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
}
