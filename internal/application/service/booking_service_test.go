package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/fault"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

func seedBooking(repo *mockBookingRepo, bl string, revenueCents, costCents int64) *entity.Booking {
	b := entity.NewBooking(bl)
	if revenueCents != 0 {
		_ = b.AddRevenueCharge(valueobject.BookingCharge{
			BookingID: bl, InvoiceID: uuid.New(),
			Amount: valueobject.NewMoneyFromCents(revenueCents),
		})
	}
	if costCents != 0 {
		_ = b.AddCostCharge(valueobject.BookingCharge{
			BookingID: bl, InvoiceID: uuid.New(),
			ProviderType: domain.ProviderTypeShipping,
			Amount:       valueobject.NewMoneyFromCents(costCents),
		})
	}
	repo.bookings[bl] = b
	return b
}

func TestListBookingsSummaries(t *testing.T) {
	repo := newMockBookingRepo()
	seedBooking(repo, "BL-001", 100000, 60000)
	seedBooking(repo, "BL-002", 0, 30000)

	svc := NewBookingService(repo, decimal.NewFromFloat(0.50), nopLogger{})

	summaries, err := svc.ListBookings(context.Background(), "")
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}

	byRef := make(map[string]BookingSummary)
	for _, s := range summaries {
		byRef[s.BLReference] = s
	}

	first := byRef["BL-001"]
	if got := first.Margin.String(); got != "400.00" {
		t.Errorf("BL-001 margin = %s, want 400.00", got)
	}
	if got := first.Commission.String(); got != "200.00" {
		t.Errorf("BL-001 commission = %s, want 200.00", got)
	}
	if got := first.MarginPercentage.String(); got != "40" {
		t.Errorf("BL-001 margin%% = %s, want 40", got)
	}

	// Cost-only booking: negative margin, zero percentage.
	second := byRef["BL-002"]
	if got := second.Margin.String(); got != "-300.00" {
		t.Errorf("BL-002 margin = %s, want -300.00", got)
	}
	if !second.MarginPercentage.IsZero() {
		t.Errorf("BL-002 margin%% = %s, want 0", second.MarginPercentage)
	}
}

func TestListBookingsStatusFilter(t *testing.T) {
	repo := newMockBookingRepo()
	seedBooking(repo, "BL-001", 10000, 0)
	done := seedBooking(repo, "BL-002", 10000, 0)
	done.MarkComplete()

	svc := NewBookingService(repo, decimal.Zero, nopLogger{})

	summaries, err := svc.ListBookings(context.Background(), domain.BookingStatusComplete)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(summaries) != 1 || summaries[0].BLReference != "BL-002" {
		t.Errorf("filtered summaries = %v, want only BL-002", summaries)
	}
}

func TestEditBookingRename(t *testing.T) {
	repo := newMockBookingRepo()
	seedBooking(repo, "BL-OLD", 10000, 0)

	svc := NewBookingService(repo, decimal.Zero, nopLogger{})

	booking, err := svc.EditBooking(context.Background(), EditBookingRequest{
		BLReference:    "BL-OLD",
		NewBLReference: "BL-NEW",
		Vessel:         "MSC Aurora",
	})
	if err != nil {
		t.Fatalf("EditBooking: %v", err)
	}
	if booking.BLReference != "BL-NEW" {
		t.Errorf("BLReference = %s, want BL-NEW", booking.BLReference)
	}
	if booking.Vessel != "MSC Aurora" {
		t.Errorf("Vessel = %s", booking.Vessel)
	}
}

func TestEditBookingRenameCollision(t *testing.T) {
	repo := newMockBookingRepo()
	seedBooking(repo, "BL-A", 0, 0)
	seedBooking(repo, "BL-B", 0, 0)

	svc := NewBookingService(repo, decimal.Zero, nopLogger{})

	_, err := svc.EditBooking(context.Background(), EditBookingRequest{
		BLReference:    "BL-A",
		NewBLReference: "BL-B",
	})
	if fault.KindOf(err) != fault.KindInvalidInput {
		t.Errorf("error kind = %s, want %s", fault.KindOf(err), fault.KindInvalidInput)
	}
}

func TestBookingStatusManagement(t *testing.T) {
	repo := newMockBookingRepo()
	seedBooking(repo, "BL-001", 0, 0)

	svc := NewBookingService(repo, decimal.Zero, nopLogger{})
	ctx := context.Background()

	if err := svc.MarkComplete(ctx, "BL-001"); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	if !repo.bookings["BL-001"].IsComplete() {
		t.Error("booking not complete after MarkComplete")
	}

	if err := svc.RevertToPending(ctx, "BL-001"); err != nil {
		t.Fatalf("RevertToPending: %v", err)
	}
	if repo.bookings["BL-001"].IsComplete() {
		t.Error("booking still complete after RevertToPending")
	}

	if err := svc.MarkComplete(ctx, "BL-MISSING"); fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("error kind = %s, want %s", fault.KindOf(err), fault.KindNotFound)
	}
}
