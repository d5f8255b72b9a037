package domain

import "errors"

var (
	ErrNotFound                = errors.New("resource not found")
	ErrExtractionInProgress    = errors.New("extraction already in progress")
	ErrNoExtractedContent      = errors.New("no extracted text content")
	ErrUnsupportedDocumentType = errors.New("unsupported document type")
	ErrEmptyDismissReason      = errors.New("dismissal reason must not be empty")
	ErrValueNotFound           = errors.New("verifiable value not found")
	ErrFlagNotFound            = errors.New("hallucination flag not found")
	ErrApprovalBlocked         = errors.New("letter has unverified critical values or undismissed critical flags")
	ErrLetterAlreadyApproved   = errors.New("letter is already approved")
)
