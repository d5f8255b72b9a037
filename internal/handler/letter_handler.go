package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cliniscribe/internal/domain"
	"cliniscribe/internal/export"
	"cliniscribe/internal/service"
	"cliniscribe/internal/sourcecheck"
)

// LetterHandler serves the letter review workflow: creation, editing, source
// checking, verification, approval, and the provenance artifacts.
type LetterHandler struct {
	letters service.LetterService
}

// NewLetterHandler creates a new LetterHandler.
func NewLetterHandler(letters service.LetterService) *LetterHandler {
	return &LetterHandler{letters: letters}
}

type createLetterRequest struct {
	Title            string                   `json:"title" binding:"required"`
	Content          string                   `json:"content" binding:"required"`
	GenerationModel  string                   `json:"generation_model"`
	InputTokens      int                      `json:"input_tokens"`
	OutputTokens     int                      `json:"output_tokens"`
	GenerationMillis int64                    `json:"generation_millis"`
	TranscriptID     *uuid.UUID               `json:"transcript_id"`
	DocumentIDs      []uuid.UUID              `json:"document_ids"`
	UserInput        string                   `json:"user_input"`
	Values           []domain.VerifiableValue `json:"values"`
}

// Create registers a generated letter draft. Content carries the raw model
// output including citation markers; anchors and flags are derived server-side.
func (h *LetterHandler) Create(c *gin.Context) {
	var req createLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	letter, err := h.letters.Create(c.Request.Context(), &service.CreateLetterInput{
		Title:            req.Title,
		Content:          req.Content,
		GenerationModel:  req.GenerationModel,
		InputTokens:      req.InputTokens,
		OutputTokens:     req.OutputTokens,
		GenerationMillis: req.GenerationMillis,
		TranscriptID:     req.TranscriptID,
		DocumentIDs:      req.DocumentIDs,
		UserInput:        req.UserInput,
		Values:           req.Values,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, letter)
}

// Get returns a letter by ID.
func (h *LetterHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	letter, err := h.letters.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, letter)
}

// List returns a page of letters.
func (h *LetterHandler) List(c *gin.Context) {
	offset, limit := paginationParams(c)
	letters, total, err := h.letters.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, letters, PagMeta{Total: total, Offset: offset, Limit: limit})
}

type editLetterRequest struct {
	Content  string `json:"content" binding:"required"`
	EditedBy string `json:"edited_by" binding:"required"`
	Summary  string `json:"summary"`
}

// Edit replaces the letter content. Anchors and flags are regenerated; the
// edit is recorded with its character delta.
func (h *LetterHandler) Edit(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req editLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	letter, err := h.letters.Edit(c.Request.Context(), &service.EditLetterInput{
		LetterID: id,
		Content:  req.Content,
		EditedBy: req.EditedBy,
		Summary:  req.Summary,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, letter)
}

// SourceCheck runs the clinical-statement coverage check against the letter's
// current anchors. An optional threshold query parameter overrides the
// default of 100.
func (h *LetterHandler) SourceCheck(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	threshold := sourcecheck.DefaultThreshold
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 100 {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "threshold must be a number in [0,100]")
			return
		}
		threshold = parsed
	}

	report, err := h.letters.SourceCheck(c.Request.Context(), id, threshold)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}

// VerifyValue marks one verifiable value as human-verified.
func (h *LetterHandler) VerifyValue(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	letter, err := h.letters.VerifyValue(c.Request.Context(), id, c.Param("valueId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, letter)
}

// VerifyAll marks every verifiable value as human-verified.
func (h *LetterHandler) VerifyAll(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	letter, err := h.letters.VerifyAll(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, letter)
}

type dismissFlagRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DismissFlag dismisses a hallucination flag with a reason. Dismissal is
// irreversible.
func (h *LetterHandler) DismissFlag(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dismissFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	letter, err := h.letters.DismissFlag(c.Request.Context(), id, c.Param("flagId"), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, letter)
}

type approveLetterRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required"`
}

// Approve approves the letter, sealing a provenance record. Unverified
// critical values or open critical flags block approval with 409.
func (h *LetterHandler) Approve(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req approveLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	rec, err := h.letters.Approve(c.Request.Context(), id, req.ApprovedBy)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, rec)
}

// GetProvenance returns the sealed provenance record for an approved letter.
func (h *LetterHandler) GetProvenance(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.letters.GetProvenance(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// ProvenanceReport renders the human-readable provenance report as plain text.
func (h *LetterHandler) ProvenanceReport(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	report, err := h.letters.RenderProvenanceReport(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="provenance_`+id.String()+`.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}

// ExportLedger streams the letter's verification ledger as CSV. The UTF-8 BOM
// keeps Excel on Windows from mangling the encoding.
func (h *LetterHandler) ExportLedger(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	letter, err := h.letters.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(letter.Title)+`"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	if _, err := c.Writer.Write(export.BOM); err != nil {
		return
	}
	w := export.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteLetter(letter); err != nil {
		return
	}
	w.Flush()
}
