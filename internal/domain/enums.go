package domain

// DocumentType identifies the kind of clinical source material a document holds.
type DocumentType string

const (
	DocTypeEcho      DocumentType = "echocardiogram"
	DocTypeAngiogram DocumentType = "angiogram"
	DocTypeLab       DocumentType = "lab_result"
	DocTypeReferral  DocumentType = "referral"
)

// KnownDocumentTypes lists every document type an extraction job may carry.
var KnownDocumentTypes = map[DocumentType]bool{
	DocTypeEcho:      true,
	DocTypeAngiogram: true,
	DocTypeLab:       true,
	DocTypeReferral:  true,
}

// ExtractionStatus represents the lifecycle of an extraction job.
type ExtractionStatus string

const (
	ExtractionStatusPending    ExtractionStatus = "pending"
	ExtractionStatusProcessing ExtractionStatus = "processing"
	ExtractionStatusComplete   ExtractionStatus = "complete"
	ExtractionStatusFailed     ExtractionStatus = "failed"
)

// LetterStatus represents the review lifecycle of a generated letter.
type LetterStatus string

const (
	LetterStatusDraft    LetterStatus = "draft"
	LetterStatusInReview LetterStatus = "in_review"
	LetterStatusApproved LetterStatus = "approved"
)

// SourceType identifies where an anchored excerpt came from.
type SourceType string

const (
	SourceTypeTranscript SourceType = "transcript"
	SourceTypeDocument   SourceType = "document"
	SourceTypeUserInput  SourceType = "user_input"
)

// FlagSeverity grades a hallucination flag.
type FlagSeverity string

const (
	FlagSeverityWarning  FlagSeverity = "warning"
	FlagSeverityCritical FlagSeverity = "critical"
)

// AuditAction labels entries in the append-only audit log.
type AuditAction string

const (
	AuditDocumentIngested    AuditAction = "document.ingested"
	AuditExtractionQueued    AuditAction = "extraction.queued"
	AuditExtractionStarted   AuditAction = "extraction.started"
	AuditExtractionCompleted AuditAction = "extraction.completed"
	AuditExtractionFailed    AuditAction = "extraction.failed"
	AuditLetterEdited        AuditAction = "letter.edited"
	AuditValueVerified       AuditAction = "letter.value_verified"
	AuditAllValuesVerified   AuditAction = "letter.all_values_verified"
	AuditFlagDismissed       AuditAction = "letter.flag_dismissed"
	AuditLetterApproved      AuditAction = "letter.approved"
)
