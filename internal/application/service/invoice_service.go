package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/fault"
	domainservice "github.com/freightline/bookkeeper/internal/domain/service"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// InvoiceListItem is a unified row over client and provider invoices.
type InvoiceListItem struct {
	ID            uuid.UUID
	InvoiceType   domain.DocumentType
	InvoiceNumber string
	InvoiceDate   time.Time
	BLReferences  []string
	TotalAmount   valueobject.Money
	TaxAmount     valueobject.Money
}

// InvoiceService exposes read operations over persisted invoices.
type InvoiceService interface {
	ListInvoices(ctx context.Context) ([]InvoiceListItem, error)

	// ProviderInvoiceTaxAllocation shows how a provider invoice's tax
	// splits across the bookings its charges reference.
	ProviderInvoiceTaxAllocation(ctx context.Context, invoiceID uuid.UUID) ([]domainservice.TaxAllocation, error)
}

type invoiceServiceImpl struct {
	invoiceRepo  port.InvoiceRepository
	taxAllocator *domainservice.TaxAllocator
	logger       Logger
}

// NewInvoiceService creates an InvoiceService.
func NewInvoiceService(invoiceRepo port.InvoiceRepository, logger Logger) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo:  invoiceRepo,
		taxAllocator: domainservice.NewTaxAllocator(),
		logger:       logger,
	}
}

// ListInvoices returns all invoices of both kinds, newest first.
func (s *invoiceServiceImpl) ListInvoices(ctx context.Context) ([]InvoiceListItem, error) {
	clientInvoices, err := s.invoiceRepo.ListClientInvoices(ctx)
	if err != nil {
		return nil, err
	}
	providerInvoices, err := s.invoiceRepo.ListProviderInvoices(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]InvoiceListItem, 0, len(clientInvoices)+len(providerInvoices))
	for _, inv := range clientInvoices {
		items = append(items, InvoiceListItem{
			ID:            inv.ID,
			InvoiceType:   domain.DocumentTypeClientInvoice,
			InvoiceNumber: inv.InvoiceNumber,
			InvoiceDate:   inv.InvoiceDate,
			BLReferences:  []string{inv.BLReference},
			TotalAmount:   inv.TotalAmount,
			TaxAmount:     inv.TaxAmount,
		})
	}
	for _, inv := range providerInvoices {
		items = append(items, InvoiceListItem{
			ID:            inv.ID,
			InvoiceType:   domain.DocumentTypeProviderInvoice,
			InvoiceNumber: inv.InvoiceNumber,
			InvoiceDate:   inv.InvoiceDate,
			BLReferences:  inv.BLReferences,
			TotalAmount:   inv.TotalAmount,
			TaxAmount:     inv.TaxAmount,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].InvoiceDate.After(items[j].InvoiceDate)
	})
	return items, nil
}

// ProviderInvoiceTaxAllocation loads the invoice and distributes its
// tax proportionally over per-booking charge totals.
func (s *invoiceServiceImpl) ProviderInvoiceTaxAllocation(ctx context.Context, invoiceID uuid.UUID) ([]domainservice.TaxAllocation, error) {
	invoices, err := s.invoiceRepo.ListProviderInvoices(ctx)
	if err != nil {
		return nil, err
	}

	var invoice *entity.ProviderInvoice
	for _, inv := range invoices {
		if inv.ID == invoiceID {
			invoice = inv
			break
		}
	}
	if invoice == nil {
		return nil, fault.New(fault.KindNotFound, "provider invoice not found: %s", invoiceID)
	}

	amounts := make(map[string]valueobject.Money, len(invoice.BLReferences))
	for _, ref := range invoice.BLReferences {
		amounts[ref] = invoice.TotalForBooking(ref)
	}
	return s.taxAllocator.AllocateTax(amounts, invoice.TaxAmount)
}
