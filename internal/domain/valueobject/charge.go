package valueobject

import (
	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/domain"
)

// BookingCharge is a single charge line attributed to a booking from an
// invoice. The same logical charge is carried once on the invoice and
// once on the booking; the two copies are kept in sync by the
// confirmation workflow, not by shared references.
//
// A charge with a provider type is a cost (it came from a provider
// invoice); a charge without one is revenue.
type BookingCharge struct {
	BookingID      string // BL reference of the owning booking
	InvoiceID      uuid.UUID
	ChargeCategory domain.ChargeCategory
	ProviderType   domain.ProviderType // empty for revenue charges
	Container      string
	Description    string
	Amount         Money
}

// IsCost reports whether the charge originated from a provider invoice.
func (c BookingCharge) IsCost() bool {
	return c.ProviderType != ""
}

// IsRevenue reports whether the charge originated from a client invoice.
func (c BookingCharge) IsRevenue() bool {
	return c.ProviderType == ""
}
