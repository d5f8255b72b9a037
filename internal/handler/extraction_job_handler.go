package handler

import (
	"github.com/gin-gonic/gin"

	"cliniscribe/internal/service"
)

// ExtractionJobHandler serves extraction jobs addressed directly by job ID.
type ExtractionJobHandler struct {
	extraction service.ExtractionService
}

// NewExtractionJobHandler creates a new ExtractionJobHandler.
func NewExtractionJobHandler(extraction service.ExtractionService) *ExtractionJobHandler {
	return &ExtractionJobHandler{extraction: extraction}
}

// Get returns an extraction job by ID.
func (h *ExtractionJobHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	job, err := h.extraction.GetJob(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, job)
}

// Run triggers an extraction attempt synchronously. A concurrent attempt on
// the same job yields 409; the caller polls the job instead of retrying.
func (h *ExtractionJobHandler) Run(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.extraction.Extract(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	job, err := h.extraction.GetJob(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, job)
}
