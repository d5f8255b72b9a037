package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cliniscribe/internal/anchor"
	"cliniscribe/internal/config"
	"cliniscribe/internal/domain"
	"cliniscribe/internal/port"
	"cliniscribe/internal/provenance"
	"cliniscribe/internal/sourcecheck"
	"cliniscribe/internal/verification"
)

// CreateLetterInput is the DTO for registering a generated letter draft.
// Content carries the raw model output including citation markers.
type CreateLetterInput struct {
	Title            string
	Content          string
	GenerationModel  string
	InputTokens      int
	OutputTokens     int
	GenerationMillis int64
	TranscriptID     *uuid.UUID
	DocumentIDs      []uuid.UUID
	UserInput        string
	Values           []domain.VerifiableValue
}

// EditLetterInput is the DTO for a manual edit to a letter draft.
type EditLetterInput struct {
	LetterID uuid.UUID
	Content  string
	EditedBy string
	Summary  string
}

// LetterService owns the letter review workflow: anchoring, source coverage,
// verification, dismissal, and approval into a provenance record.
type LetterService interface {
	Create(ctx context.Context, input *CreateLetterInput) (*domain.Letter, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Letter, error)
	List(ctx context.Context, offset, limit int) ([]domain.Letter, int, error)
	Edit(ctx context.Context, input *EditLetterInput) (*domain.Letter, error)
	SourceCheck(ctx context.Context, id uuid.UUID, threshold float64) (*sourcecheck.Report, error)
	VerifyValue(ctx context.Context, id uuid.UUID, valueID string) (*domain.Letter, error)
	VerifyAll(ctx context.Context, id uuid.UUID) (*domain.Letter, error)
	DismissFlag(ctx context.Context, id uuid.UUID, flagID, reason string) (*domain.Letter, error)
	Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*domain.ProvenanceRecord, error)
	GetProvenance(ctx context.Context, id uuid.UUID) (*domain.ProvenanceRecord, error)
	RenderProvenanceReport(ctx context.Context, id uuid.UUID) (string, error)
}

type letterService struct {
	letterRepo port.LetterRepository
	docRepo    port.SourceDocumentRepository
	provRepo   port.ProvenanceRepository
	auditRepo  port.AuditRepository
	storage    port.ObjectStorage
	s3cfg      *config.S3Config
	logger     *zap.Logger
}

// NewLetterService creates the letter review service.
func NewLetterService(
	letterRepo port.LetterRepository,
	docRepo port.SourceDocumentRepository,
	provRepo port.ProvenanceRepository,
	auditRepo port.AuditRepository,
	storage port.ObjectStorage,
	s3cfg *config.S3Config,
	logger *zap.Logger,
) LetterService {
	return &letterService{
		letterRepo: letterRepo,
		docRepo:    docRepo,
		provRepo:   provRepo,
		auditRepo:  auditRepo,
		storage:    storage,
		s3cfg:      s3cfg,
		logger:     logger,
	}
}

func (s *letterService) Create(ctx context.Context, input *CreateLetterInput) (*domain.Letter, error) {
	registry, err := s.buildRegistry(ctx, input.TranscriptID, input.DocumentIDs, input.UserInput)
	if err != nil {
		return nil, err
	}

	parsed := anchor.Parse(input.Content, registry)

	letter := &domain.Letter{
		ID:                uuid.New(),
		Title:             input.Title,
		Content:           input.Content,
		CleanContent:      parsed.CleanText,
		OriginalContent:   parsed.CleanText,
		Status:            domain.LetterStatusDraft,
		GenerationModel:   input.GenerationModel,
		InputTokens:       input.InputTokens,
		OutputTokens:      input.OutputTokens,
		GenerationMillis:  input.GenerationMillis,
		TranscriptID:      input.TranscriptID,
		Anchors:           parsed.Anchors,
		UnverifiedAnchors: parsed.Unverified,
		Values:            input.Values,
	}
	letter.Flags = buildFlags(letter.CleanContent, parsed)

	if err := s.letterRepo.Create(ctx, letter); err != nil {
		return nil, fmt.Errorf("creating letter: %w", err)
	}
	return letter, nil
}

func (s *letterService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Letter, error) {
	return s.letterRepo.GetByID(ctx, id)
}

func (s *letterService) List(ctx context.Context, offset, limit int) ([]domain.Letter, int, error) {
	return s.letterRepo.List(ctx, offset, limit)
}

// Edit replaces the letter content, records the edit, and regenerates anchors
// and flags: anchors are ranges into the text they were parsed from, so a
// content change invalidates all of them.
func (s *letterService) Edit(ctx context.Context, input *EditLetterInput) (*domain.Letter, error) {
	letter, err := s.letterRepo.GetByID(ctx, input.LetterID)
	if err != nil {
		return nil, err
	}
	if letter.Status == domain.LetterStatusApproved {
		return nil, domain.ErrLetterAlreadyApproved
	}

	registry, err := s.buildRegistry(ctx, letter.TranscriptID, s.documentIDsFromAnchors(letter), "")
	if err != nil {
		return nil, err
	}

	parsed := anchor.Parse(input.Content, registry)
	diff := provenance.Diff(letter.CleanContent, parsed.CleanText)

	letter.Content = input.Content
	letter.CleanContent = parsed.CleanText
	letter.Anchors = parsed.Anchors
	letter.UnverifiedAnchors = parsed.Unverified
	letter.Flags = reconcileFlags(letter.Flags, buildFlags(parsed.CleanText, parsed))
	letter.Status = domain.LetterStatusInReview
	letter.Edits = append(letter.Edits, domain.LetterEdit{
		EditedBy:     input.EditedBy,
		EditedAt:     time.Now().UTC(),
		CharsAdded:   diff.CharsAdded,
		CharsRemoved: diff.CharsRemoved,
		Summary:      input.Summary,
	})

	if err := s.letterRepo.Update(ctx, letter); err != nil {
		return nil, fmt.Errorf("saving edit: %w", err)
	}

	s.audit(ctx, letter.ID, domain.AuditLetterEdited, map[string]any{
		"edited_by":     input.EditedBy,
		"chars_added":   diff.CharsAdded,
		"chars_removed": diff.CharsRemoved,
	})
	return letter, nil
}

func (s *letterService) SourceCheck(ctx context.Context, id uuid.UUID, threshold float64) (*sourcecheck.Report, error) {
	letter, err := s.letterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sourcecheck.Check(letter.CleanContent, letter.Anchors, threshold), nil
}

func (s *letterService) VerifyValue(ctx context.Context, id uuid.UUID, valueID string) (*domain.Letter, error) {
	return s.withState(ctx, id, func(st *verification.State) error {
		if err := st.Verify(valueID); err != nil {
			return err
		}
		s.audit(ctx, id, domain.AuditValueVerified, map[string]any{"value_id": valueID})
		return nil
	})
}

func (s *letterService) VerifyAll(ctx context.Context, id uuid.UUID) (*domain.Letter, error) {
	return s.withState(ctx, id, func(st *verification.State) error {
		st.VerifyAll()
		s.audit(ctx, id, domain.AuditAllValuesVerified, nil)
		return nil
	})
}

func (s *letterService) DismissFlag(ctx context.Context, id uuid.UUID, flagID, reason string) (*domain.Letter, error) {
	return s.withState(ctx, id, func(st *verification.State) error {
		if err := st.Dismiss(flagID, reason); err != nil {
			return err
		}
		s.audit(ctx, id, domain.AuditFlagDismissed, map[string]any{"flag_id": flagID})
		return nil
	})
}

func (s *letterService) Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*domain.ProvenanceRecord, error) {
	letter, err := s.letterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if letter.Status == domain.LetterStatusApproved {
		return nil, domain.ErrLetterAlreadyApproved
	}

	st := verification.NewState(letter.Values, letter.Flags)
	if !st.CanApprove() {
		return nil, domain.ErrApprovalBlocked
	}

	coverage := sourcecheck.Check(letter.CleanContent, letter.Anchors, 0)

	now := time.Now().UTC()
	rec, err := provenance.Build(provenance.BuildInput{
		Letter:           letter,
		ExtractionModels: []string{letter.GenerationModel},
		Sources:          sourceRefs(letter),
		Values:           letter.Values,
		Flags:            letter.Flags,
		Edits:            letter.Edits,
		VerificationRate: st.VerificationRate(),
		SourceCoverage:   coverage.Coverage,
		ReviewMillis:     now.Sub(letter.CreatedAt).Milliseconds(),
		ApprovedBy:       approvedBy,
		Now:              now,
	})
	if err != nil {
		return nil, fmt.Errorf("building provenance record: %w", err)
	}

	if err := s.provRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("storing provenance record: %w", err)
	}

	letter.Status = domain.LetterStatusApproved
	letter.ApprovedBy = approvedBy
	letter.ApprovedAt = &now
	if err := s.letterRepo.Update(ctx, letter); err != nil {
		return nil, fmt.Errorf("approving letter: %w", err)
	}

	s.archiveReport(ctx, rec)

	s.audit(ctx, letter.ID, domain.AuditLetterApproved, map[string]any{
		"approved_by":  approvedBy,
		"content_hash": rec.ContentHash,
	})
	return rec, nil
}

func (s *letterService) GetProvenance(ctx context.Context, id uuid.UUID) (*domain.ProvenanceRecord, error) {
	return s.provRepo.GetByLetterID(ctx, id)
}

func (s *letterService) RenderProvenanceReport(ctx context.Context, id uuid.UUID) (string, error) {
	rec, err := s.provRepo.GetByLetterID(ctx, id)
	if err != nil {
		return "", err
	}
	return provenance.Render(rec), nil
}

// withState loads a letter, applies a verification-state mutation, and saves
// the result. Rejected mutations leave the letter untouched.
func (s *letterService) withState(ctx context.Context, id uuid.UUID, fn func(*verification.State) error) (*domain.Letter, error) {
	letter, err := s.letterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if letter.Status == domain.LetterStatusApproved {
		return nil, domain.ErrLetterAlreadyApproved
	}

	st := verification.NewState(letter.Values, letter.Flags)
	if err := fn(st); err != nil {
		return nil, err
	}

	letter.Values = st.Values()
	letter.Flags = st.Flags()
	letter.Status = domain.LetterStatusInReview
	if err := s.letterRepo.Update(ctx, letter); err != nil {
		return nil, fmt.Errorf("saving review state: %w", err)
	}
	return letter, nil
}

func (s *letterService) buildRegistry(ctx context.Context, transcriptID *uuid.UUID, documentIDs []uuid.UUID, userInput string) (*anchor.Registry, error) {
	var transcript *port.RegistrySource
	if transcriptID != nil {
		doc, err := s.docRepo.GetByID(ctx, *transcriptID)
		if err != nil {
			return nil, fmt.Errorf("loading transcript: %w", err)
		}
		transcript = &port.RegistrySource{ID: doc.ID.String(), Name: doc.FileName, Text: doc.ExtractedText}
	}

	var documents []port.RegistrySource
	for _, id := range documentIDs {
		doc, err := s.docRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading source document %s: %w", id, err)
		}
		documents = append(documents, port.RegistrySource{ID: doc.ID.String(), Name: doc.FileName, Text: doc.ExtractedText})
	}

	var user *port.RegistrySource
	if userInput != "" {
		user = &port.RegistrySource{ID: "user-input", Name: "Additional notes", Text: userInput}
	}

	return anchor.NewRegistry(transcript, documents, user), nil
}

// documentIDsFromAnchors recovers the document source IDs a letter cites so an
// edit can rebuild the same registry.
func (s *letterService) documentIDsFromAnchors(letter *domain.Letter) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, a := range letter.Anchors {
		if a.SourceType != domain.SourceTypeDocument {
			continue
		}
		id, err := uuid.Parse(a.SourceID)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// buildFlags derives hallucination flags from anchoring results: a marker
// claiming a source that does not exist is critical, an unsourced clinical
// statement is a warning.
func buildFlags(cleanText string, parsed *anchor.ParseResult) []domain.HallucinationFlag {
	var flags []domain.HallucinationFlag
	n := 0
	for _, a := range parsed.Unverified {
		n++
		flags = append(flags, domain.HallucinationFlag{
			ID:          fmt.Sprintf("flag-%d", n),
			FlaggedText: a.Excerpt,
			Severity:    domain.FlagSeverityCritical,
		})
	}
	report := sourcecheck.Check(cleanText, parsed.Anchors, 0)
	for _, st := range report.Unsourced {
		n++
		flags = append(flags, domain.HallucinationFlag{
			ID:          fmt.Sprintf("flag-%d", n),
			FlaggedText: st.Text,
			Severity:    domain.FlagSeverityWarning,
		})
	}
	return flags
}

// reconcileFlags carries dismissals forward across an edit for flags whose
// text is unchanged. Dismissal is irreversible, so a surviving flag keeps it.
func reconcileFlags(old, fresh []domain.HallucinationFlag) []domain.HallucinationFlag {
	dismissed := make(map[string]string)
	for _, f := range old {
		if f.Dismissed {
			dismissed[f.FlaggedText] = f.DismissedReason
		}
	}
	for i := range fresh {
		if reason, ok := dismissed[fresh[i].FlaggedText]; ok {
			fresh[i].Dismissed = true
			fresh[i].DismissedReason = reason
		}
	}
	return fresh
}

// sourceRefs lifts the distinct sources a letter cites out of its anchors.
func sourceRefs(letter *domain.Letter) []domain.SourceRef {
	seen := make(map[string]bool)
	var refs []domain.SourceRef
	for _, a := range letter.Anchors {
		if seen[a.SourceID] {
			continue
		}
		seen[a.SourceID] = true
		refs = append(refs, domain.SourceRef{
			SourceID:   a.SourceID,
			SourceType: a.SourceType,
			Name:       a.SourceID,
		})
	}
	return refs
}

// archiveReport uploads the rendered report to the archive bucket.
// Best effort: the provenance record is already durable in the store.
func (s *letterService) archiveReport(ctx context.Context, rec *domain.ProvenanceRecord) {
	if s.storage == nil || s.s3cfg == nil || s.s3cfg.ArchiveBucket == "" {
		return
	}
	report := provenance.Render(rec)
	key := fmt.Sprintf("provenance/%s/%s.txt", rec.LetterID, rec.ID)
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.ArchiveBucket,
		Key:         key,
		Body:        bytes.NewReader([]byte(report)),
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		s.logger.Warn("archiving provenance report",
			zap.String("letter_id", rec.LetterID.String()), zap.Error(err))
	}
}

func (s *letterService) audit(ctx context.Context, letterID uuid.UUID, action domain.AuditAction, metadata map[string]any) {
	if s.auditRepo == nil {
		return
	}
	meta, _ := json.Marshal(metadata)
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		EntityType: "letter",
		EntityID:   letterID,
		Action:     action,
		Metadata:   meta,
	}
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		s.logger.Warn("writing audit entry",
			zap.String("action", string(action)), zap.Error(err))
	}
}
