// Package port defines the output contracts the application layer
// depends on. The core never touches a concrete storage technology or
// external API; it talks to these interfaces only.
package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/domain/entity"
)

// DocumentRepository defines persistence operations for Document.
// Lookup methods return (nil, nil) when no row matches.
type DocumentRepository interface {
	Save(ctx context.Context, document *entity.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)

	// FindByFileHash looks a document up by content hash, for duplicate
	// detection at import time.
	FindByFileHash(ctx context.Context, hash string) (*entity.Document, error)

	Update(ctx context.Context, document *entity.Document) error
	List(ctx context.Context, limit, offset int) ([]*entity.Document, error)
}

// BookingRepository defines persistence operations for the Booking
// aggregate. Save and Update persist the booking row and replace its
// charge lists atomically.
type BookingRepository interface {
	Save(ctx context.Context, booking *entity.Booking) error
	Update(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, blReference string) (*entity.Booking, error)

	// FindOrCreate returns the booking for a BL reference, creating and
	// persisting a fresh pending booking when none exists.
	FindOrCreate(ctx context.Context, blReference string) (*entity.Booking, error)

	// ListAll returns every booking with its charges loaded. Used by the
	// reprocessing cleanup to strip charges left by replaced invoices.
	ListAll(ctx context.Context) ([]*entity.Booking, error)
}

// InvoiceRepository defines persistence operations for both invoice
// kinds. Lookup methods return (nil, nil) when no row matches.
type InvoiceRepository interface {
	SaveClientInvoice(ctx context.Context, invoice *entity.ClientInvoice) error
	SaveProviderInvoice(ctx context.Context, invoice *entity.ProviderInvoice) error

	FindClientInvoice(ctx context.Context, invoiceNumber string, clientID uuid.UUID) (*entity.ClientInvoice, error)
	FindProviderInvoice(ctx context.Context, invoiceNumber string, providerID uuid.UUID) (*entity.ProviderInvoice, error)

	ListClientInvoices(ctx context.Context) ([]*entity.ClientInvoice, error)
	ListProviderInvoices(ctx context.Context) ([]*entity.ProviderInvoice, error)

	// DeleteBySourceDocument removes every invoice previously produced
	// from the given source document and returns the removed invoice
	// ids, so the caller can strip their booking charges.
	DeleteBySourceDocument(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error)
}

// ClientRepository defines persistence operations for Client. NIFs are
// stored normalized; FindByNIF expects a normalized value.
type ClientRepository interface {
	FindByNIF(ctx context.Context, nif string) (*entity.Client, error)
	Save(ctx context.Context, client *entity.Client) error
}

// ProviderRepository defines persistence operations for Provider.
type ProviderRepository interface {
	FindByNIF(ctx context.Context, nif string) (*entity.Provider, error)
	Save(ctx context.Context, provider *entity.Provider) error
}

// TransactionManager runs a function within a database transaction. A
// whole confirmation call executes inside one transaction so partial
// failures never leave bookings and invoices inconsistent.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
