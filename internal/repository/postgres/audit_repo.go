package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cliniscribe/internal/domain"
	"cliniscribe/internal/port"
)

type auditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a PostgreSQL-backed append-only AuditRepository.
func NewAuditRepo(db *sqlx.DB) port.AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, entity_type, entity_id, action, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action, entry.Metadata, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}
	return nil
}
