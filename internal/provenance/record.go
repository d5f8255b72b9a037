package provenance

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"cliniscribe/internal/domain"
)

// BuildInput carries everything the recorder needs at approval time. The
// recorder only reads; it never mutates the letter or the review state.
type BuildInput struct {
	Letter           *domain.Letter
	ExtractionModels []string
	Sources          []domain.SourceRef
	Values           []domain.VerifiableValue
	Flags            []domain.HallucinationFlag
	Edits            []domain.LetterEdit
	VerificationRate float64
	SourceCoverage   float64
	ReviewMillis     int64
	ApprovedBy       string
	Now              time.Time
}

// Build assembles the provenance record for an approved letter and seals it
// with its content hash. The record is created once and never modified.
func Build(in BuildInput) (*domain.ProvenanceRecord, error) {
	if in.Letter == nil {
		return nil, fmt.Errorf("building provenance record: letter is nil")
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	models := make([]string, len(in.ExtractionModels))
	copy(models, in.ExtractionModels)
	sort.Strings(models)

	rec := &domain.ProvenanceRecord{
		ID:                uuid.New(),
		LetterID:          in.Letter.ID,
		GenerationModel:   in.Letter.GenerationModel,
		ExtractionModels:  models,
		Sources:           in.Sources,
		Values:            in.Values,
		Flags:             in.Flags,
		Edits:             in.Edits,
		Diff:              Diff(in.Letter.OriginalContent, in.Letter.CleanContent),
		VerificationRate:  in.VerificationRate,
		SourceCoverage:    in.SourceCoverage,
		HallucinationRisk: RiskScore(in.Flags, in.SourceCoverage),
		InputTokens:       in.Letter.InputTokens,
		OutputTokens:      in.Letter.OutputTokens,
		GenerationMillis:  in.Letter.GenerationMillis,
		ReviewMillis:      in.ReviewMillis,
		ApprovedBy:        in.ApprovedBy,
		CreatedAt:         now.UTC(),
	}

	hash, err := ContentHash(rec)
	if err != nil {
		return nil, err
	}
	rec.ContentHash = hash
	return rec, nil
}
