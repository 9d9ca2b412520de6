package service

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/fault"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// BookingSummary is a booking row with its computed financials.
type BookingSummary struct {
	BLReference      string
	ClientName       string
	Status           domain.BookingStatus
	Vessel           string
	TotalRevenue     valueobject.Money
	TotalCosts       valueobject.Money
	Margin           valueobject.Money
	MarginPercentage decimal.Decimal
	Commission       valueobject.Money
}

// EditBookingRequest carries user edits to a booking. Empty fields are
// left untouched; Containers replaces the whole list when non-nil.
type EditBookingRequest struct {
	BLReference    string // booking to edit
	NewBLReference string // rename business key
	POL            *PortInput
	POD            *PortInput
	Vessel         string
	Containers     []string
}

// BookingService exposes booking listing and management operations.
type BookingService interface {
	ListBookings(ctx context.Context, status domain.BookingStatus) ([]BookingSummary, error)
	GetBooking(ctx context.Context, blReference string) (*entity.Booking, error)
	EditBooking(ctx context.Context, req EditBookingRequest) (*entity.Booking, error)
	MarkComplete(ctx context.Context, blReference string) error
	RevertToPending(ctx context.Context, blReference string) error
}

type bookingServiceImpl struct {
	bookingRepo    port.BookingRepository
	commissionRate decimal.Decimal
	logger         Logger
}

// NewBookingService creates a BookingService. The commission rate is
// the configured agent rate used for summary rows.
func NewBookingService(bookingRepo port.BookingRepository, commissionRate decimal.Decimal, logger Logger) BookingService {
	if commissionRate.IsZero() {
		commissionRate = entity.DefaultCommissionRate
	}
	return &bookingServiceImpl{
		bookingRepo:    bookingRepo,
		commissionRate: commissionRate,
		logger:         logger,
	}
}

// ListBookings returns summaries for all bookings, newest first,
// optionally filtered by status.
func (s *bookingServiceImpl) ListBookings(ctx context.Context, status domain.BookingStatus) ([]BookingSummary, error) {
	bookings, err := s.bookingRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	summaries := make([]BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		if status != "" && b.Status != status {
			continue
		}
		clientName := ""
		if b.Client != nil {
			clientName = b.Client.Name
		}
		summaries = append(summaries, BookingSummary{
			BLReference:      b.BLReference,
			ClientName:       clientName,
			Status:           b.Status,
			Vessel:           b.Vessel,
			TotalRevenue:     b.TotalRevenue(),
			TotalCosts:       b.TotalCosts(),
			Margin:           b.Margin(),
			MarginPercentage: b.MarginPercentage().Round(2),
			Commission:       b.CalculateAgentCommission(s.commissionRate),
		})
	}
	return summaries, nil
}

// GetBooking loads one booking with its charges.
func (s *bookingServiceImpl) GetBooking(ctx context.Context, blReference string) (*entity.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, blReference)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fault.New(fault.KindNotFound, "booking not found: %s", blReference)
	}
	return booking, nil
}

// EditBooking applies user edits, including renaming the BL reference.
func (s *bookingServiceImpl) EditBooking(ctx context.Context, req EditBookingRequest) (*entity.Booking, error) {
	booking, err := s.GetBooking(ctx, req.BLReference)
	if err != nil {
		return nil, err
	}

	if newRef := strings.TrimSpace(req.NewBLReference); newRef != "" && newRef != booking.BLReference {
		existing, err := s.bookingRepo.FindByID(ctx, newRef)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fault.New(fault.KindInvalidInput, "booking %s already exists", newRef)
		}
		booking.UpdateBLReference(newRef)
	}

	var pol, pod *valueobject.Port
	if req.POL != nil && req.POL.Code != "" {
		pol = &valueobject.Port{Code: req.POL.Code, Name: req.POL.Name}
	}
	if req.POD != nil && req.POD.Code != "" {
		pod = &valueobject.Port{Code: req.POD.Code, Name: req.POD.Name}
	}
	booking.UpdatePorts(pol, pod)

	if req.Vessel != "" {
		booking.Vessel = req.Vessel
	}
	if req.Containers != nil {
		booking.Containers = req.Containers
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	s.logger.Info("Booking edited", "bl_reference", booking.BLReference)
	return booking, nil
}

// MarkComplete marks a booking complete.
func (s *bookingServiceImpl) MarkComplete(ctx context.Context, blReference string) error {
	booking, err := s.GetBooking(ctx, blReference)
	if err != nil {
		return err
	}
	booking.MarkComplete()
	return s.bookingRepo.Update(ctx, booking)
}

// RevertToPending reverts a booking to pending.
func (s *bookingServiceImpl) RevertToPending(ctx context.Context, blReference string) error {
	booking, err := s.GetBooking(ctx, blReference)
	if err != nil {
		return err
	}
	booking.RevertToPending()
	return s.bookingRepo.Update(ctx, booking)
}
