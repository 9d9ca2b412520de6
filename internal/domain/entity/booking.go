// Package entity contains the aggregates of the freight ledger: bookings,
// invoices, parties and documents.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/fault"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// DefaultCommissionRate is the agent commission applied when no rate is
// configured.
var DefaultCommissionRate = decimal.NewFromFloat(0.50)

// Booking is the primary aggregate of the ledger. It groups the revenue
// charges billed to the client and the cost charges billed by providers
// for one shipment, identified by its Bill-of-Lading reference.
//
// All financial accessors are derived reads over the charge lists; there
// are no cached totals.
type Booking struct {
	BLReference string // business key, user editable
	UID         uuid.UUID
	CreatedAt   time.Time
	Client      *valueobject.ClientInfo
	POL         *valueobject.Port // port of loading
	POD         *valueobject.Port // port of discharge
	Vessel      string
	Containers  []string
	Status      domain.BookingStatus

	RevenueCharges []valueobject.BookingCharge
	CostCharges    []valueobject.BookingCharge
}

// NewBooking creates a pending booking for a BL reference.
func NewBooking(blReference string) *Booking {
	return &Booking{
		BLReference: blReference,
		UID:         uuid.New(),
		CreatedAt:   time.Now(),
		Status:      domain.BookingStatusPending,
	}
}

// TotalRevenue sums all revenue charges.
func (b *Booking) TotalRevenue() valueobject.Money {
	total := valueobject.Zero()
	for _, c := range b.RevenueCharges {
		total = total.Add(c.Amount)
	}
	return total
}

// TotalCosts sums all cost charges.
func (b *Booking) TotalCosts() valueobject.Money {
	total := valueobject.Zero()
	for _, c := range b.CostCharges {
		total = total.Add(c.Amount)
	}
	return total
}

// Margin is revenue minus costs. It may be negative.
func (b *Booking) Margin() valueobject.Money {
	return b.TotalRevenue().Sub(b.TotalCosts())
}

// MarginPercentage is margin over revenue times 100, or zero when the
// booking has no revenue.
func (b *Booking) MarginPercentage() decimal.Decimal {
	revenue := b.TotalRevenue()
	if revenue.IsZero() {
		return decimal.Zero.Round(2)
	}
	return b.Margin().Decimal().Div(revenue.Decimal()).Mul(decimal.NewFromInt(100))
}

// CalculateAgentCommission returns margin times the commission rate.
// The sign follows the margin: a loss produces a negative commission.
func (b *Booking) CalculateAgentCommission(rate decimal.Decimal) valueobject.Money {
	return b.Margin().MulRate(rate)
}

// AddRevenueCharge attaches a revenue charge. The charge's booking
// reference must match this booking.
func (b *Booking) AddRevenueCharge(charge valueobject.BookingCharge) error {
	if charge.BookingID != b.BLReference {
		return fault.New(fault.KindChargeMismatch,
			"charge booking reference %s does not match booking %s", charge.BookingID, b.BLReference)
	}
	b.RevenueCharges = append(b.RevenueCharges, charge)
	return nil
}

// AddCostCharge attaches a cost charge. The charge's booking reference
// must match this booking.
func (b *Booking) AddCostCharge(charge valueobject.BookingCharge) error {
	if charge.BookingID != b.BLReference {
		return fault.New(fault.KindChargeMismatch,
			"charge booking reference %s does not match booking %s", charge.BookingID, b.BLReference)
	}
	b.CostCharges = append(b.CostCharges, charge)
	return nil
}

// RemoveChargesForInvoice strips every charge, revenue or cost, that
// originated from the given invoice. It reports whether anything was
// removed so callers can skip no-op persistence. Used when a source
// document is reprocessed and its previous projection must be undone.
func (b *Booking) RemoveChargesForInvoice(invoiceID uuid.UUID) bool {
	changed := false

	keepRevenue := b.RevenueCharges[:0]
	for _, c := range b.RevenueCharges {
		if c.InvoiceID == invoiceID {
			changed = true
			continue
		}
		keepRevenue = append(keepRevenue, c)
	}
	b.RevenueCharges = keepRevenue

	keepCosts := b.CostCharges[:0]
	for _, c := range b.CostCharges {
		if c.InvoiceID == invoiceID {
			changed = true
			continue
		}
		keepCosts = append(keepCosts, c)
	}
	b.CostCharges = keepCosts

	return changed
}

// MarkComplete marks the booking as complete.
func (b *Booking) MarkComplete() {
	b.Status = domain.BookingStatusComplete
}

// RevertToPending reverts the booking to pending, e.g. when further
// invoices arrive for it.
func (b *Booking) RevertToPending() {
	b.Status = domain.BookingStatusPending
}

// IsComplete reports whether the booking is complete.
func (b *Booking) IsComplete() bool {
	return b.Status == domain.BookingStatusComplete
}

// HasRevenue reports whether any revenue charge is attached.
func (b *Booking) HasRevenue() bool {
	return len(b.RevenueCharges) > 0
}

// HasCosts reports whether any cost charge is attached.
func (b *Booking) HasCosts() bool {
	return len(b.CostCharges) > 0
}

// UpdateClient replaces the client snapshot.
func (b *Booking) UpdateClient(client valueobject.ClientInfo) {
	b.Client = &client
}

// UpdatePorts updates loading and discharge ports. Nil arguments leave
// the current value untouched.
func (b *Booking) UpdatePorts(pol, pod *valueobject.Port) {
	if pol != nil {
		b.POL = pol
	}
	if pod != nil {
		b.POD = pod
	}
}

// UpdateBLReference renames the booking's business key.
func (b *Booking) UpdateBLReference(newRef string) {
	b.BLReference = newRef
}
