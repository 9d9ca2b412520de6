package service

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/freightline/bookkeeper/internal/domain/fault"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// TaxAllocation is the tax share assigned to one booking of a
// multi-booking invoice.
type TaxAllocation struct {
	BLReference string
	BaseAmount  valueobject.Money // pre-tax charges for this booking
	TaxAmount   valueobject.Money
	Percentage  decimal.Decimal // share of total charges, 2 dp
}

// TaxAllocator distributes a provider invoice's tax proportionally
// across the bookings its charges reference.
//
// Bookings are processed in lexicographic BL order for reproducibility.
// Every booking except the last gets tax rounded from its proportional
// share; the last booking receives the exact remainder, so the
// allocations always sum to the invoice tax with no rounding drift.
type TaxAllocator struct{}

// NewTaxAllocator creates a TaxAllocator.
func NewTaxAllocator() *TaxAllocator {
	return &TaxAllocator{}
}

var hundred = decimal.NewFromInt(100)

// AllocateTax splits totalTax across the given BL reference -> pre-tax
// amount map. It fails when no bookings are given or the amounts sum to
// zero, since the proportion is undefined.
func (a *TaxAllocator) AllocateTax(
	bookingAmounts map[string]valueobject.Money,
	totalTax valueobject.Money,
) ([]TaxAllocation, error) {
	if len(bookingAmounts) == 0 {
		return nil, fault.New(fault.KindAllocation, "at least one booking amount is required")
	}

	totalCharges := valueobject.Zero()
	for _, amount := range bookingAmounts {
		totalCharges = totalCharges.Add(amount)
	}
	if totalCharges.IsZero() {
		return nil, fault.New(fault.KindAllocation, "total charges cannot be zero for tax allocation")
	}

	refs := make([]string, 0, len(bookingAmounts))
	for ref := range bookingAmounts {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	allocations := make([]TaxAllocation, 0, len(refs))
	allocated := valueobject.Zero()

	for i, ref := range refs {
		amount := bookingAmounts[ref]
		ratio := amount.Decimal().Div(totalCharges.Decimal())
		percentage := ratio.Mul(hundred).Round(2)

		var tax valueobject.Money
		if i == len(refs)-1 {
			// Remainder keeps the sum exact regardless of rounding.
			tax = totalTax.Sub(allocated)
		} else {
			tax = totalTax.MulRate(ratio)
			allocated = allocated.Add(tax)
		}

		allocations = append(allocations, TaxAllocation{
			BLReference: ref,
			BaseAmount:  amount,
			TaxAmount:   tax,
			Percentage:  percentage,
		})
	}

	return allocations, nil
}

// TotalPerBooking returns charges plus allocated tax per BL reference.
func (a *TaxAllocator) TotalPerBooking(allocations []TaxAllocation) map[string]valueobject.Money {
	totals := make(map[string]valueobject.Money, len(allocations))
	for _, alloc := range allocations {
		totals[alloc.BLReference] = alloc.BaseAmount.Add(alloc.TaxAmount)
	}
	return totals
}
