package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SourceDocument represents a piece of ingested clinical source material
// (dictation transcript, scanned report, referral letter) with its extracted
// text content.
type SourceDocument struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	DocumentType  DocumentType `db:"document_type" json:"document_type"`
	FileName      string       `db:"file_name" json:"file_name"`
	ContentType   string       `db:"content_type" json:"content_type"`
	S3Bucket      string       `db:"s3_bucket" json:"s3_bucket"`
	S3Key         string       `db:"s3_key" json:"s3_key"`
	ExtractedText string       `db:"extracted_text" json:"extracted_text"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// ExtractionJob tracks one document's structured-extraction lifecycle.
// Status transitions are owned exclusively by the extraction service; the
// acquire step is a single conditional write so at most one attempt is active.
type ExtractionJob struct {
	ID                uuid.UUID        `db:"id" json:"id"`
	DocumentID        uuid.UUID        `db:"document_id" json:"document_id"`
	DocumentType      DocumentType     `db:"document_type" json:"document_type"`
	Status            ExtractionStatus `db:"status" json:"status"`
	Attempts          int              `db:"attempts" json:"attempts"`
	Model             string           `db:"model" json:"model"`
	StructuredData    json.RawMessage  `db:"structured_data" json:"structured_data"`
	OverallConfidence float64          `db:"overall_confidence" json:"overall_confidence"`
	ConfidenceLevel   string           `db:"confidence_level" json:"confidence_level"`
	Completeness      float64          `db:"completeness" json:"completeness"`
	Error             string           `db:"error" json:"error"`
	StartedAt         *time.Time       `db:"started_at" json:"started_at"`
	CompletedAt       *time.Time       `db:"completed_at" json:"completed_at"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// SourceAnchor links a span of letter text to a verbatim excerpt of source
// material. Anchors are immutable; they are discarded and regenerated whenever
// the letter text changes. Start/End are rune offsets into the cleaned
// (marker-stripped) letter text, End exclusive.
type SourceAnchor struct {
	ID         string     `json:"id"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
	SourceType SourceType `json:"source_type"`
	SourceID   string     `json:"source_id"`
	Excerpt    string     `json:"excerpt"`
	Confidence float64    `json:"confidence"`
}

// VerifiableValue is a clinical value lifted from a letter that a human may
// verify. Verified transitions false→true only, via an explicit verify action.
type VerifiableValue struct {
	ID             string `json:"id"`
	Category       string `json:"category"`
	Name           string `json:"name"`
	Value          string `json:"value"`
	Unit           string `json:"unit,omitempty"`
	SourceAnchorID string `json:"source_anchor_id,omitempty"`
	Verified       bool   `json:"verified"`
	Critical       bool   `json:"critical"`
}

// HallucinationFlag marks letter text suspected of having no source support.
// Dismissal requires a non-empty reason and is irreversible.
type HallucinationFlag struct {
	ID              string       `json:"id"`
	FlaggedText     string       `json:"flagged_text"`
	Severity        FlagSeverity `json:"severity"`
	Dismissed       bool         `json:"dismissed"`
	DismissedReason string       `json:"dismissed_reason,omitempty"`
}

// LetterEdit records one manual edit to a letter's content.
type LetterEdit struct {
	EditedBy     string    `json:"edited_by"`
	EditedAt     time.Time `json:"edited_at"`
	CharsAdded   int       `json:"chars_added"`
	CharsRemoved int       `json:"chars_removed"`
	Summary      string    `json:"summary,omitempty"`
}

// Letter is a generated clinical letter under review. The anchor, value, flag
// and edit collections are stored as JSONB alongside the letter row.
type Letter struct {
	ID                uuid.UUID           `db:"id" json:"id"`
	Title             string              `db:"title" json:"title"`
	Content           string              `db:"content" json:"content"`
	CleanContent      string              `db:"clean_content" json:"clean_content"`
	OriginalContent   string              `db:"original_content" json:"original_content"`
	Status            LetterStatus        `db:"status" json:"status"`
	GenerationModel   string              `db:"generation_model" json:"generation_model"`
	InputTokens       int                 `db:"input_tokens" json:"input_tokens"`
	OutputTokens      int                 `db:"output_tokens" json:"output_tokens"`
	GenerationMillis  int64               `db:"generation_millis" json:"generation_millis"`
	TranscriptID      *uuid.UUID          `db:"transcript_id" json:"transcript_id"`
	Anchors           []SourceAnchor      `json:"anchors"`
	UnverifiedAnchors []SourceAnchor      `json:"unverified_anchors"`
	Values            []VerifiableValue   `json:"values"`
	Flags             []HallucinationFlag `json:"flags"`
	Edits             []LetterEdit        `json:"edits"`
	ApprovedBy        string              `db:"approved_by" json:"approved_by"`
	ApprovedAt        *time.Time          `db:"approved_at" json:"approved_at"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at" json:"updated_at"`
}

// PatientIdentity is the best-effort identity hint lifted from a document by
// the fast identity extraction pipeline.
type PatientIdentity struct {
	Name        string  `json:"name,omitempty"`
	DateOfBirth string  `json:"date_of_birth,omitempty"`
	Identifier  string  `json:"identifier,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// PatientCandidate is an existing patient record an identity hint may match.
type PatientCandidate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"date_of_birth"`
	Identifier  string    `json:"identifier"`
}

// AuditEntry is one append-only audit event. The core writes entries and
// never reads them back.
type AuditEntry struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   uuid.UUID       `db:"entity_id" json:"entity_id"`
	Action     AuditAction     `db:"action" json:"action"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
