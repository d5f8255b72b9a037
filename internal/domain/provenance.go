package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceRef identifies one piece of source material a letter drew on.
type SourceRef struct {
	SourceID   string     `json:"source_id"`
	SourceType SourceType `json:"source_type"`
	Name       string     `json:"name"`
}

// DiffSummary summarizes how far the approved letter drifted from the
// generated draft.
type DiffSummary struct {
	CharsAdded     int     `json:"chars_added"`
	CharsRemoved   int     `json:"chars_removed"`
	PercentChanged float64 `json:"percent_changed"`
}

// ProvenanceRecord is the immutable audit artifact assembled once at approval
// time. ContentHash is the SHA-256 of the record's canonical serialization
// and is the only bit-exact artifact the system owns.
type ProvenanceRecord struct {
	ID                uuid.UUID           `db:"id" json:"id"`
	LetterID          uuid.UUID           `db:"letter_id" json:"letter_id"`
	GenerationModel   string              `json:"generation_model"`
	ExtractionModels  []string            `json:"extraction_models"`
	Sources           []SourceRef         `json:"sources"`
	Values            []VerifiableValue   `json:"values"`
	Flags             []HallucinationFlag `json:"flags"`
	Edits             []LetterEdit        `json:"edits"`
	Diff              DiffSummary         `json:"diff"`
	VerificationRate  float64             `json:"verification_rate"`
	SourceCoverage    float64             `json:"source_coverage"`
	HallucinationRisk float64             `json:"hallucination_risk"`
	InputTokens       int                 `json:"input_tokens"`
	OutputTokens      int                 `json:"output_tokens"`
	GenerationMillis  int64               `json:"generation_millis"`
	ReviewMillis      int64               `json:"review_millis"`
	ApprovedBy        string              `json:"approved_by"`
	ContentHash       string              `db:"content_hash" json:"content_hash"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
}
