package valueobject

import (
	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/domain"
)

// ClientInfo is a denormalized snapshot of client identity stored on a
// booking, so bookings render without a join to the client table.
type ClientInfo struct {
	ClientID uuid.UUID
	Name     string
	NIF      string
}

// Port is a shipping port with UN/LOCODE-style code and display name.
type Port struct {
	Code string // e.g. "ESVAL"
	Name string // e.g. "Valencia, Spain"
}

// String formats the port for display.
func (p Port) String() string {
	if p.Name == "" {
		return p.Code
	}
	return p.Code + " (" + p.Name + ")"
}

// FileHash identifies a document's content for duplicate detection.
type FileHash struct {
	Algorithm string // e.g. "sha256"
	Value     string
}

// DocumentReference links an invoice back to the source document it was
// extracted from.
type DocumentReference struct {
	DocumentID uuid.UUID
	Filename   string
	FileHash   FileHash
}

// ExtractionMetadata records how an invoice's data was produced, for
// audit and diagnostics.
type ExtractionMetadata struct {
	AIModel              string
	OverallConfidence    domain.ConfidenceLevel
	RawJSON              string
	ManuallyEditedFields []string
}
