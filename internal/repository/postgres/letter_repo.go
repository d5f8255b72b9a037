package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cliniscribe/internal/domain"
	"cliniscribe/internal/port"
)

type letterRepo struct {
	db *sqlx.DB
}

// NewLetterRepo creates a PostgreSQL-backed LetterRepository.
func NewLetterRepo(db *sqlx.DB) port.LetterRepository {
	return &letterRepo{db: db}
}

// letterRow maps the letters table. The anchor/value/flag/edit collections
// live in JSONB columns and are converted at the repository boundary.
type letterRow struct {
	ID                uuid.UUID           `db:"id"`
	Title             string              `db:"title"`
	Content           string              `db:"content"`
	CleanContent      string              `db:"clean_content"`
	OriginalContent   string              `db:"original_content"`
	Status            domain.LetterStatus `db:"status"`
	GenerationModel   string              `db:"generation_model"`
	InputTokens       int                 `db:"input_tokens"`
	OutputTokens      int                 `db:"output_tokens"`
	GenerationMillis  int64               `db:"generation_millis"`
	TranscriptID      *uuid.UUID          `db:"transcript_id"`
	Anchors           []byte              `db:"anchors"`
	UnverifiedAnchors []byte              `db:"unverified_anchors"`
	Values            []byte              `db:"values"`
	Flags             []byte              `db:"flags"`
	Edits             []byte              `db:"edits"`
	ApprovedBy        string              `db:"approved_by"`
	ApprovedAt        *time.Time          `db:"approved_at"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

func toRow(l *domain.Letter) (*letterRow, error) {
	row := &letterRow{
		ID:               l.ID,
		Title:            l.Title,
		Content:          l.Content,
		CleanContent:     l.CleanContent,
		OriginalContent:  l.OriginalContent,
		Status:           l.Status,
		GenerationModel:  l.GenerationModel,
		InputTokens:      l.InputTokens,
		OutputTokens:     l.OutputTokens,
		GenerationMillis: l.GenerationMillis,
		TranscriptID:     l.TranscriptID,
		ApprovedBy:       l.ApprovedBy,
		ApprovedAt:       l.ApprovedAt,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
	for _, conv := range []struct {
		dst *[]byte
		src any
	}{
		{&row.Anchors, l.Anchors},
		{&row.UnverifiedAnchors, l.UnverifiedAnchors},
		{&row.Values, l.Values},
		{&row.Flags, l.Flags},
		{&row.Edits, l.Edits},
	} {
		b, err := json.Marshal(conv.src)
		if err != nil {
			return nil, fmt.Errorf("marshaling letter collection: %w", err)
		}
		*conv.dst = b
	}
	return row, nil
}

func fromRow(row *letterRow) (*domain.Letter, error) {
	l := &domain.Letter{
		ID:               row.ID,
		Title:            row.Title,
		Content:          row.Content,
		CleanContent:     row.CleanContent,
		OriginalContent:  row.OriginalContent,
		Status:           row.Status,
		GenerationModel:  row.GenerationModel,
		InputTokens:      row.InputTokens,
		OutputTokens:     row.OutputTokens,
		GenerationMillis: row.GenerationMillis,
		TranscriptID:     row.TranscriptID,
		ApprovedBy:       row.ApprovedBy,
		ApprovedAt:       row.ApprovedAt,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	for _, conv := range []struct {
		src []byte
		dst any
	}{
		{row.Anchors, &l.Anchors},
		{row.UnverifiedAnchors, &l.UnverifiedAnchors},
		{row.Values, &l.Values},
		{row.Flags, &l.Flags},
		{row.Edits, &l.Edits},
	} {
		if len(conv.src) == 0 {
			continue
		}
		if err := json.Unmarshal(conv.src, conv.dst); err != nil {
			return nil, fmt.Errorf("unmarshaling letter collection: %w", err)
		}
	}
	return l, nil
}

func (r *letterRepo) Create(ctx context.Context, letter *domain.Letter) error {
	now := time.Now().UTC()
	letter.CreatedAt = now
	letter.UpdatedAt = now

	row, err := toRow(letter)
	if err != nil {
		return fmt.Errorf("letterRepo.Create: %w", err)
	}

	query := `INSERT INTO letters (
		id, title, content, clean_content, original_content, status,
		generation_model, input_tokens, output_tokens, generation_millis,
		transcript_id, anchors, unverified_anchors, "values", flags, edits,
		approved_by, approved_at, created_at, updated_at
	) VALUES (
		:id, :title, :content, :clean_content, :original_content, :status,
		:generation_model, :input_tokens, :output_tokens, :generation_millis,
		:transcript_id, :anchors, :unverified_anchors, :values, :flags, :edits,
		:approved_by, :approved_at, :created_at, :updated_at
	)`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("letterRepo.Create: %w", err)
	}
	return nil
}

func (r *letterRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Letter, error) {
	var row letterRow
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM letters WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("letterRepo.GetByID: %w", err)
	}
	return fromRow(&row)
}

func (r *letterRepo) List(ctx context.Context, offset, limit int) ([]domain.Letter, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM letters")
	if err != nil {
		return nil, 0, fmt.Errorf("letterRepo.List count: %w", err)
	}

	var rows []letterRow
	err = r.db.SelectContext(ctx, &rows,
		`SELECT * FROM letters ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("letterRepo.List: %w", err)
	}

	letters := make([]domain.Letter, 0, len(rows))
	for i := range rows {
		l, err := fromRow(&rows[i])
		if err != nil {
			return nil, 0, fmt.Errorf("letterRepo.List: %w", err)
		}
		letters = append(letters, *l)
	}
	return letters, total, nil
}

func (r *letterRepo) Update(ctx context.Context, letter *domain.Letter) error {
	letter.UpdatedAt = time.Now().UTC()

	row, err := toRow(letter)
	if err != nil {
		return fmt.Errorf("letterRepo.Update: %w", err)
	}

	query := `UPDATE letters SET
		title = :title, content = :content, clean_content = :clean_content,
		original_content = :original_content, status = :status,
		generation_model = :generation_model, input_tokens = :input_tokens,
		output_tokens = :output_tokens, generation_millis = :generation_millis,
		transcript_id = :transcript_id, anchors = :anchors,
		unverified_anchors = :unverified_anchors, "values" = :values,
		flags = :flags, edits = :edits, approved_by = :approved_by,
		approved_at = :approved_at, updated_at = :updated_at
	WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("letterRepo.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
