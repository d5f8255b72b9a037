package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cliniscribe/internal/domain"
	"cliniscribe/internal/port"
)

type provenanceRepo struct {
	db *sqlx.DB
}

// NewProvenanceRepo creates a PostgreSQL-backed ProvenanceRepository.
// Records are insert-only; there is no update path.
func NewProvenanceRepo(db *sqlx.DB) port.ProvenanceRepository {
	return &provenanceRepo{db: db}
}

type provenanceRow struct {
	ID          uuid.UUID    `db:"id"`
	LetterID    uuid.UUID    `db:"letter_id"`
	Record      []byte       `db:"record"`
	ContentHash string       `db:"content_hash"`
	CreatedAt   sql.NullTime `db:"created_at"`
}

func (r *provenanceRepo) Create(ctx context.Context, rec *domain.ProvenanceRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("provenanceRepo.Create marshal: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO provenance_records (id, letter_id, record, content_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.LetterID, body, rec.ContentHash, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("provenanceRepo.Create: %w", err)
	}
	return nil
}

func (r *provenanceRepo) GetByLetterID(ctx context.Context, letterID uuid.UUID) (*domain.ProvenanceRecord, error) {
	var row provenanceRow
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM provenance_records WHERE letter_id = $1", letterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("provenanceRepo.GetByLetterID: %w", err)
	}

	var rec domain.ProvenanceRecord
	if err := json.Unmarshal(row.Record, &rec); err != nil {
		return nil, fmt.Errorf("provenanceRepo.GetByLetterID unmarshal: %w", err)
	}
	return &rec, nil
}
