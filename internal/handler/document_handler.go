package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cliniscribe/internal/domain"
	"cliniscribe/internal/service"
)

// DocumentHandler serves source document ingestion and the extraction job
// endpoints hanging off a document.
type DocumentHandler struct {
	docService service.DocumentService
	extraction service.ExtractionService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docService service.DocumentService, extraction service.ExtractionService) *DocumentHandler {
	return &DocumentHandler{docService: docService, extraction: extraction}
}

type createDocumentRequest struct {
	DocumentType  string `json:"document_type" binding:"required"`
	FileName      string `json:"file_name" binding:"required"`
	ContentType   string `json:"content_type"`
	ExtractedText string `json:"extracted_text" binding:"required"`
}

// Create registers a source document from JSON metadata and extracted text.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	doc, err := h.docService.Ingest(c.Request.Context(), &service.IngestDocumentInput{
		DocumentType:  domain.DocumentType(req.DocumentType),
		FileName:      req.FileName,
		ContentType:   req.ContentType,
		ExtractedText: req.ExtractedText,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, doc)
}

// Upload registers a source document from a multipart form carrying the raw
// file plus document_type and extracted_text fields. The raw file is archived
// to object storage.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file is required")
		return
	}
	docType := c.PostForm("document_type")
	extractedText := c.PostForm("extracted_text")

	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "unreadable file")
		return
	}
	defer file.Close()

	doc, err := h.docService.Ingest(c.Request.Context(), &service.IngestDocumentInput{
		DocumentType:  domain.DocumentType(docType),
		FileName:      fileHeader.Filename,
		ContentType:   fileHeader.Header.Get("Content-Type"),
		ExtractedText: extractedText,
		Body:          file,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, doc)
}

// Get returns a source document by ID.
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.docService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// List returns a page of source documents.
func (h *DocumentHandler) List(c *gin.Context) {
	offset, limit := paginationParams(c)
	docs, total, err := h.docService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// DownloadURL returns a presigned URL for the archived raw file.
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	url, err := h.docService.GetDownloadURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// EnqueueExtraction creates a pending extraction job for the document. The
// queue worker picks it up; the response is the job to poll.
func (h *DocumentHandler) EnqueueExtraction(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	job, err := h.extraction.Enqueue(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, job)
}

// GetExtractionJob returns the document's extraction job.
func (h *DocumentHandler) GetExtractionJob(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	job, err := h.extraction.GetJobByDocument(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, job)
}

type identityMatchRequest struct {
	Candidates []domain.PatientCandidate `json:"candidates"`
}

type identityMatchResponse struct {
	Identity *domain.PatientIdentity  `json:"identity"`
	Match    *domain.PatientCandidate `json:"match,omitempty"`
	Score    float64                  `json:"score,omitempty"`
}

// IdentityMatch runs the fast identity-only extraction on the document and,
// when the caller supplies candidate patient records, scores them against the
// hint. No match is returned below the threshold.
func (h *DocumentHandler) IdentityMatch(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req identityMatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	identity, err := h.extraction.IdentityHint(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	resp := identityMatchResponse{Identity: identity}
	if len(req.Candidates) > 0 {
		resp.Match, resp.Score = service.MatchPatient(identity, req.Candidates)
	}
	RespondOK(c, resp)
}

// parseUUIDParam parses a UUID path parameter, responding 400 on failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}

// paginationParams reads offset/limit query parameters with sane bounds.
func paginationParams(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
