package service

import (
	"testing"

	"github.com/freightline/bookkeeper/internal/domain/fault"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

func money(t *testing.T, s string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyFromString(s)
	if err != nil {
		t.Fatalf("NewMoneyFromString(%q): %v", s, err)
	}
	return m
}

func TestAllocateTaxProportionalSplit(t *testing.T) {
	allocator := NewTaxAllocator()

	amounts := map[string]valueobject.Money{
		"BL-A": money(t, "400.00"),
		"BL-B": money(t, "600.00"),
	}

	allocations, err := allocator.AllocateTax(amounts, money(t, "210.00"))
	if err != nil {
		t.Fatalf("AllocateTax: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("got %d allocations, want 2", len(allocations))
	}

	// Lexicographic order: BL-A first.
	if allocations[0].BLReference != "BL-A" || allocations[1].BLReference != "BL-B" {
		t.Fatalf("allocations out of order: %s, %s",
			allocations[0].BLReference, allocations[1].BLReference)
	}
	if got := allocations[0].TaxAmount.String(); got != "84.00" {
		t.Errorf("BL-A tax = %s, want 84.00", got)
	}
	if got := allocations[1].TaxAmount.String(); got != "126.00" {
		t.Errorf("BL-B tax = %s, want 126.00", got)
	}
	if got := allocations[0].Percentage.String(); got != "40" {
		t.Errorf("BL-A percentage = %s, want 40", got)
	}
}

func TestAllocateTaxSumIsExact(t *testing.T) {
	allocator := NewTaxAllocator()

	// Thirds do not round cleanly; the last booking absorbs the remainder.
	amounts := map[string]valueobject.Money{
		"BL-A": money(t, "100.00"),
		"BL-B": money(t, "100.00"),
		"BL-C": money(t, "100.00"),
	}
	totalTax := money(t, "10.00")

	allocations, err := allocator.AllocateTax(amounts, totalTax)
	if err != nil {
		t.Fatalf("AllocateTax: %v", err)
	}

	sum := valueobject.Zero()
	for _, alloc := range allocations {
		sum = sum.Add(alloc.TaxAmount)
	}
	if !sum.Equal(totalTax) {
		t.Errorf("allocated tax sums to %s, want %s", sum, totalTax)
	}

	if got := allocations[0].TaxAmount.String(); got != "3.33" {
		t.Errorf("BL-A tax = %s, want 3.33", got)
	}
	if got := allocations[2].TaxAmount.String(); got != "3.34" {
		t.Errorf("BL-C tax = %s, want remainder 3.34", got)
	}
}

func TestAllocateTaxRejectsEmptyInput(t *testing.T) {
	allocator := NewTaxAllocator()

	_, err := allocator.AllocateTax(nil, money(t, "21.00"))
	if fault.KindOf(err) != fault.KindAllocation {
		t.Errorf("empty map: error kind = %s, want %s", fault.KindOf(err), fault.KindAllocation)
	}

	_, err = allocator.AllocateTax(map[string]valueobject.Money{
		"BL-A": valueobject.Zero(),
	}, money(t, "21.00"))
	if fault.KindOf(err) != fault.KindAllocation {
		t.Errorf("zero total: error kind = %s, want %s", fault.KindOf(err), fault.KindAllocation)
	}
}

func TestTotalPerBooking(t *testing.T) {
	allocator := NewTaxAllocator()

	allocations := []TaxAllocation{
		{BLReference: "BL-A", BaseAmount: money(t, "400.00"), TaxAmount: money(t, "84.00")},
		{BLReference: "BL-B", BaseAmount: money(t, "600.00"), TaxAmount: money(t, "126.00")},
	}

	totals := allocator.TotalPerBooking(allocations)
	if got := totals["BL-A"].String(); got != "484.00" {
		t.Errorf("BL-A total = %s, want 484.00", got)
	}
	if got := totals["BL-B"].String(); got != "726.00" {
		t.Errorf("BL-B total = %s, want 726.00", got)
	}
}
