package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/fault"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// ErrorInfo records a processing failure on a document together with a
// user-facing message.
type ErrorInfo struct {
	ErrorType  string
	Message    string
	OccurredAt time.Time
}

// Document error type identifiers.
const (
	ErrorTypeAITimeout    = "AI_TIMEOUT"
	ErrorTypeAIRateLimit  = "AI_RATE_LIMIT"
	ErrorTypeFileTooLarge = "FILE_TOO_LARGE"
	ErrorTypeTooManyPages = "TOO_MANY_PAGES"
	ErrorTypeUnreadable   = "UNREADABLE_FILE"
	ErrorTypeExtraction   = "EXTRACTION_FAILED"
)

// IsRetryable reports whether re-processing the document may succeed
// without operator intervention.
func (e ErrorInfo) IsRetryable() bool {
	switch e.ErrorType {
	case ErrorTypeAITimeout, ErrorTypeAIRateLimit:
		return true
	default:
		return false
	}
}

// NewErrorInfo creates an ErrorInfo stamped with the current time.
func NewErrorInfo(errorType, message string) ErrorInfo {
	return ErrorInfo{ErrorType: errorType, Message: message, OccurredAt: time.Now()}
}

// Document is a PDF imported for processing. It tracks extraction status
// and links to the invoice its confirmation produced.
type Document struct {
	ID           uuid.UUID
	Filename     string
	FileHash     valueobject.FileHash
	DocumentType domain.DocumentType // empty until classified
	Status       domain.ProcessingStatus
	StoragePath  string
	ErrorInfo    *ErrorInfo
	CreatedAt    time.Time
	ProcessedAt  *time.Time
	InvoiceID    *uuid.UUID // set once confirmation produced an invoice
}

// NewDocument creates a pending document.
func NewDocument(filename string, fileHash valueobject.FileHash, storagePath string) *Document {
	return &Document{
		ID:          uuid.New(),
		Filename:    filename,
		FileHash:    fileHash,
		Status:      domain.ProcessingStatusPending,
		StoragePath: storagePath,
		CreatedAt:   time.Now(),
	}
}

// StartProcessing transitions the document to PROCESSING. Documents in
// PENDING or ERROR may always start; a PROCESSED document only when the
// caller explicitly allows reprocessing.
func (d *Document) StartProcessing(allowReprocess bool) error {
	switch d.Status {
	case domain.ProcessingStatusPending, domain.ProcessingStatusError:
	case domain.ProcessingStatusProcessed:
		if !allowReprocess {
			return fault.New(fault.KindInvalidInput,
				"cannot start processing document in %s status", d.Status)
		}
	default:
		return fault.New(fault.KindInvalidInput,
			"cannot start processing document in %s status", d.Status)
	}
	d.Status = domain.ProcessingStatusProcessing
	d.ErrorInfo = nil
	return nil
}

// MarkProcessed records a successful confirmation. invoiceID is nil for
// OTHER-type documents, which produce no invoice.
func (d *Document) MarkProcessed(documentType domain.DocumentType, invoiceID *uuid.UUID) {
	now := time.Now()
	d.Status = domain.ProcessingStatusProcessed
	d.DocumentType = documentType
	d.InvoiceID = invoiceID
	d.ProcessedAt = &now
	d.ErrorInfo = nil
}

// MarkError records a processing failure.
func (d *Document) MarkError(info ErrorInfo) {
	now := time.Now()
	d.Status = domain.ProcessingStatusError
	d.ErrorInfo = &info
	d.ProcessedAt = &now
}

// CanRetry reports whether the document is in a retryable error state.
func (d *Document) CanRetry() bool {
	if d.Status != domain.ProcessingStatusError {
		return false
	}
	if d.ErrorInfo == nil {
		return true
	}
	return d.ErrorInfo.IsRetryable()
}

// IsInvoice reports whether the document was classified as an invoice.
func (d *Document) IsInvoice() bool {
	return d.DocumentType == domain.DocumentTypeClientInvoice ||
		d.DocumentType == domain.DocumentTypeProviderInvoice
}
