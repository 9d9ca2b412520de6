package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/fault"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

func testCharge(bl string, invoiceID uuid.UUID, cents int64, providerType domain.ProviderType) valueobject.BookingCharge {
	return valueobject.BookingCharge{
		BookingID:      bl,
		InvoiceID:      invoiceID,
		ChargeCategory: domain.ChargeCategoryFreight,
		ProviderType:   providerType,
		Description:    "test charge",
		Amount:         valueobject.NewMoneyFromCents(cents),
	}
}

func TestBookingTotals(t *testing.T) {
	b := NewBooking("BL-001")
	inv := uuid.New()

	if err := b.AddRevenueCharge(testCharge("BL-001", inv, 100000, "")); err != nil {
		t.Fatalf("AddRevenueCharge: %v", err)
	}
	if err := b.AddRevenueCharge(testCharge("BL-001", inv, 25050, "")); err != nil {
		t.Fatalf("AddRevenueCharge: %v", err)
	}
	if err := b.AddCostCharge(testCharge("BL-001", inv, 80000, domain.ProviderTypeShipping)); err != nil {
		t.Fatalf("AddCostCharge: %v", err)
	}

	if got := b.TotalRevenue().String(); got != "1250.50" {
		t.Errorf("TotalRevenue = %s, want 1250.50", got)
	}
	if got := b.TotalCosts().String(); got != "800.00" {
		t.Errorf("TotalCosts = %s, want 800.00", got)
	}
	if got := b.Margin().String(); got != "450.50" {
		t.Errorf("Margin = %s, want 450.50", got)
	}
}

func TestBookingMarginCanBeNegative(t *testing.T) {
	b := NewBooking("BL-002")
	inv := uuid.New()

	_ = b.AddRevenueCharge(testCharge("BL-002", inv, 50000, ""))
	_ = b.AddCostCharge(testCharge("BL-002", inv, 70000, domain.ProviderTypeCarrier))

	if got := b.Margin().String(); got != "-200.00" {
		t.Errorf("Margin = %s, want -200.00", got)
	}

	commission := b.CalculateAgentCommission(decimal.NewFromFloat(0.50))
	if got := commission.String(); got != "-100.00" {
		t.Errorf("commission = %s, want -100.00", got)
	}
}

func TestBookingMarginPercentageZeroRevenue(t *testing.T) {
	b := NewBooking("BL-003")
	_ = b.AddCostCharge(testCharge("BL-003", uuid.New(), 10000, domain.ProviderTypeOther))

	if got := b.MarginPercentage(); !got.IsZero() {
		t.Errorf("MarginPercentage with no revenue = %s, want 0", got)
	}
}

func TestBookingRejectsChargeForOtherBooking(t *testing.T) {
	b := NewBooking("BL-004")
	charge := testCharge("BL-999", uuid.New(), 1000, "")

	err := b.AddRevenueCharge(charge)
	if err == nil {
		t.Fatal("expected error for mismatched booking reference")
	}
	if fault.KindOf(err) != fault.KindChargeMismatch {
		t.Errorf("error kind = %s, want %s", fault.KindOf(err), fault.KindChargeMismatch)
	}

	charge.ProviderType = domain.ProviderTypeShipping
	if err := b.AddCostCharge(charge); fault.KindOf(err) != fault.KindChargeMismatch {
		t.Errorf("AddCostCharge error kind = %s, want %s", fault.KindOf(err), fault.KindChargeMismatch)
	}
}

func TestBookingRemoveChargesForInvoice(t *testing.T) {
	b := NewBooking("BL-005")
	target := uuid.New()
	other := uuid.New()

	_ = b.AddRevenueCharge(testCharge("BL-005", target, 10000, ""))
	_ = b.AddRevenueCharge(testCharge("BL-005", other, 20000, ""))
	_ = b.AddCostCharge(testCharge("BL-005", target, 5000, domain.ProviderTypeShipping))
	_ = b.AddCostCharge(testCharge("BL-005", other, 7000, domain.ProviderTypeCarrier))

	if !b.RemoveChargesForInvoice(target) {
		t.Error("expected RemoveChargesForInvoice to report a change")
	}

	if len(b.RevenueCharges) != 1 || b.RevenueCharges[0].InvoiceID != other {
		t.Errorf("revenue charges after removal = %d, want only the other invoice's charge", len(b.RevenueCharges))
	}
	if len(b.CostCharges) != 1 || b.CostCharges[0].InvoiceID != other {
		t.Errorf("cost charges after removal = %d, want only the other invoice's charge", len(b.CostCharges))
	}

	if b.RemoveChargesForInvoice(target) {
		t.Error("second removal should be a no-op")
	}
}

func TestBookingStatusTransitions(t *testing.T) {
	b := NewBooking("BL-006")

	if b.Status != domain.BookingStatusPending {
		t.Errorf("new booking status = %s, want PENDING", b.Status)
	}
	if b.IsComplete() {
		t.Error("new booking should not be complete")
	}

	b.MarkComplete()
	if !b.IsComplete() {
		t.Error("expected complete after MarkComplete")
	}

	b.RevertToPending()
	if b.IsComplete() {
		t.Error("expected pending after RevertToPending")
	}
}

func TestBookingUpdatePorts(t *testing.T) {
	b := NewBooking("BL-007")
	pol := &valueobject.Port{Code: "ESVAL", Name: "Valencia"}
	b.UpdatePorts(pol, nil)

	if b.POL == nil || b.POL.Code != "ESVAL" {
		t.Error("POL not updated")
	}
	if b.POD != nil {
		t.Error("POD should stay nil when no argument given")
	}

	b.UpdatePorts(nil, &valueobject.Port{Code: "CNSHA"})
	if b.POL.Code != "ESVAL" {
		t.Error("nil POL argument must not clear the existing port")
	}
	if b.POD == nil || b.POD.Code != "CNSHA" {
		t.Error("POD not updated")
	}
}
