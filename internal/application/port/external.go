package port

import "context"

// ExtractedCharge is one charge line produced by AI extraction, before
// user review.
type ExtractedCharge struct {
	BLReference string `json:"bl_reference,omitempty"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Container   string `json:"container,omitempty"`
}

// ExtractionResult is the raw field extraction from an invoice PDF. It
// is a preview for user review; nothing is persisted from it until the
// user confirms.
type ExtractionResult struct {
	DocumentType      string            `json:"document_type"`
	InvoiceNumber     string            `json:"invoice_number"`
	InvoiceDate       string            `json:"invoice_date"`
	IssuerName        string            `json:"issuer_name"`
	IssuerNIF         string            `json:"issuer_nif"`
	RecipientName     string            `json:"recipient_name"`
	RecipientNIF      string            `json:"recipient_nif"`
	ProviderType      string            `json:"provider_type,omitempty"`
	BLReferences      []string          `json:"bl_references"`
	Charges           []ExtractedCharge `json:"charges"`
	TaxAmount         string            `json:"tax_amount"`
	TotalAmount       string            `json:"total_amount"`
	Vessel            string            `json:"vessel,omitempty"`
	Containers        []string          `json:"containers,omitempty"`
	OverallConfidence string            `json:"overall_confidence"`
	ExtractionNotes   string            `json:"extraction_notes,omitempty"`

	AIModel string `json:"-"`
	RawJSON string `json:"-"`
}

// ExtractionError is a classified extraction failure. ErrorType matches
// the document error type constants so the failure lands on the
// document with the right retry semantics.
type ExtractionError struct {
	ErrorType string
	Message   string
}

func (e *ExtractionError) Error() string {
	return e.Message
}

// InvoiceExtractor extracts invoice fields from a PDF on disk. The
// implementation carries its own timeout and maps provider failures to
// *ExtractionError values.
type InvoiceExtractor interface {
	Extract(ctx context.Context, pdfPath string) (*ExtractionResult, error)
}
