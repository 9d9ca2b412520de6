package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// ClientInvoice is a revenue invoice the company issued to a client.
// The invoice number is unique per client.
type ClientInvoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	ClientID      uuid.UUID
	InvoiceDate   time.Time
	BLReference   string // primary booking this invoice belongs to
	TotalAmount   valueobject.Money
	TaxAmount     valueobject.Money
	Charges       []valueobject.BookingCharge

	SourceDocument     *valueobject.DocumentReference
	ExtractionMetadata *valueobject.ExtractionMetadata
}

// NewClientInvoice creates a client invoice with a fresh id.
func NewClientInvoice(
	invoiceNumber string,
	clientID uuid.UUID,
	invoiceDate time.Time,
	blReference string,
	totalAmount, taxAmount valueobject.Money,
) *ClientInvoice {
	return &ClientInvoice{
		ID:            uuid.New(),
		InvoiceNumber: invoiceNumber,
		ClientID:      clientID,
		InvoiceDate:   invoiceDate,
		BLReference:   blReference,
		TotalAmount:   totalAmount,
		TaxAmount:     taxAmount,
	}
}

// NetAmount is total minus tax.
func (i *ClientInvoice) NetAmount() valueobject.Money {
	return i.TotalAmount.Sub(i.TaxAmount)
}

// AddCharge appends a charge to the invoice's own copy of its lines.
func (i *ClientInvoice) AddCharge(charge valueobject.BookingCharge) {
	i.Charges = append(i.Charges, charge)
}

// ProviderInvoice is a cost invoice received from a provider. The
// invoice number is unique per provider, and a single invoice may carry
// charges for several bookings.
type ProviderInvoice struct {
	ID            uuid.UUID
	InvoiceNumber string
	ProviderID    uuid.UUID
	ProviderType  domain.ProviderType
	InvoiceDate   time.Time
	BLReferences  []string
	TotalAmount   valueobject.Money
	TaxAmount     valueobject.Money
	Charges       []valueobject.BookingCharge

	SourceDocument     *valueobject.DocumentReference
	ExtractionMetadata *valueobject.ExtractionMetadata
}

// NewProviderInvoice creates a provider invoice with a fresh id.
func NewProviderInvoice(
	invoiceNumber string,
	providerID uuid.UUID,
	providerType domain.ProviderType,
	invoiceDate time.Time,
	blReferences []string,
	totalAmount, taxAmount valueobject.Money,
) *ProviderInvoice {
	return &ProviderInvoice{
		ID:            uuid.New(),
		InvoiceNumber: invoiceNumber,
		ProviderID:    providerID,
		ProviderType:  providerType,
		InvoiceDate:   invoiceDate,
		BLReferences:  blReferences,
		TotalAmount:   totalAmount,
		TaxAmount:     taxAmount,
	}
}

// NetAmount is total minus tax.
func (i *ProviderInvoice) NetAmount() valueobject.Money {
	return i.TotalAmount.Sub(i.TaxAmount)
}

// IsMultiBooking reports whether the invoice spans more than one booking.
func (i *ProviderInvoice) IsMultiBooking() bool {
	return len(i.BLReferences) > 1
}

// AddCharge appends a charge to the invoice's own copy of its lines.
func (i *ProviderInvoice) AddCharge(charge valueobject.BookingCharge) {
	i.Charges = append(i.Charges, charge)
}

// ChargesForBooking returns the charges attributed to one BL reference.
func (i *ProviderInvoice) ChargesForBooking(blReference string) []valueobject.BookingCharge {
	var out []valueobject.BookingCharge
	for _, c := range i.Charges {
		if c.BookingID == blReference {
			out = append(out, c)
		}
	}
	return out
}

// TotalForBooking sums the charges attributed to one BL reference.
func (i *ProviderInvoice) TotalForBooking(blReference string) valueobject.Money {
	total := valueobject.Zero()
	for _, c := range i.Charges {
		if c.BookingID == blReference {
			total = total.Add(c.Amount)
		}
	}
	return total
}
