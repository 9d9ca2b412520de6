package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/fault"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// ChargeInput is one reviewed charge line from the extraction preview.
type ChargeInput struct {
	BLReference string // optional; falls back to the invoice's primary reference
	Description string
	Category    string
	Amount      string
	Container   string
}

// PortInput carries a reviewed port override.
type PortInput struct {
	Code string
	Name string
}

// ShippingDetails carries the reviewed shipping overrides applied to
// every booking the invoice touches.
type ShippingDetails struct {
	POL        *PortInput
	POD        *PortInput
	Vessel     string
	Containers []string
}

// ConfirmRequest is a reviewed extraction payload for one source
// document, ready to be persisted.
type ConfirmRequest struct {
	DocumentID   uuid.UUID
	DocumentType string

	AIModel              string
	RawJSON              string
	OverallConfidence    string
	ManuallyEditedFields []string

	InvoiceNumber string
	InvoiceDate   string // ISO date, e.g. 2026-03-14
	IssuerName    string
	IssuerNIF     string
	RecipientName string
	RecipientNIF  string
	ProviderType  string

	BLReferences []string
	Charges      []ChargeInput
	TaxAmount    string // empty means zero
	TotalAmount  string // empty means derive from charges + tax

	ShippingDetails *ShippingDetails
}

// ConfirmResponse reports what a confirmation persisted.
type ConfirmResponse struct {
	DocumentID   uuid.UUID
	InvoiceID    *uuid.UUID // nil for OTHER documents
	DocumentType domain.DocumentType
	Status       domain.ProcessingStatus
	BookingIDs   []string // sorted BL references the invoice touched
}

// ConfirmService turns reviewed extraction data into persisted,
// mutually consistent ledger state.
type ConfirmService interface {
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error)
}

type confirmServiceImpl struct {
	documentRepo port.DocumentRepository
	bookingRepo  port.BookingRepository
	invoiceRepo  port.InvoiceRepository
	clientRepo   port.ClientRepository
	providerRepo port.ProviderRepository
	txManager    port.TransactionManager
	logger       Logger
}

// NewConfirmService creates a ConfirmService.
func NewConfirmService(
	documentRepo port.DocumentRepository,
	bookingRepo port.BookingRepository,
	invoiceRepo port.InvoiceRepository,
	clientRepo port.ClientRepository,
	providerRepo port.ProviderRepository,
	txManager port.TransactionManager,
	logger Logger,
) ConfirmService {
	return &confirmServiceImpl{
		documentRepo: documentRepo,
		bookingRepo:  bookingRepo,
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		providerRepo: providerRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// Confirm runs the whole confirmation inside one transaction: cleanup of
// any prior projection for the document, party resolution, invoice
// construction, charge attribution to bookings, and the document status
// update either all apply or none do.
func (s *confirmServiceImpl) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	var resp *ConfirmResponse
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		resp, err = s.confirm(txCtx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *confirmServiceImpl) confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fault.New(fault.KindNotFound, "document not found: %s", req.DocumentID)
	}

	// A reconfirmed document must replace exactly what it contributed
	// before, without disturbing charges from other documents.
	if err := s.cleanupExistingProjection(ctx, document.ID); err != nil {
		return nil, err
	}

	documentType, ok := domain.ParseDocumentType(req.DocumentType)
	if !ok {
		return nil, fault.New(fault.KindInvalidInput, "invalid document type: %s", req.DocumentType)
	}

	// Non-invoice documents are closed without invoice persistence.
	if documentType == domain.DocumentTypeOther {
		document.MarkProcessed(domain.DocumentTypeOther, nil)
		if err := s.documentRepo.Update(ctx, document); err != nil {
			return nil, err
		}
		return &ConfirmResponse{
			DocumentID:   document.ID,
			InvoiceID:    nil,
			DocumentType: documentType,
			Status:       document.Status,
			BookingIDs:   []string{},
		}, nil
	}

	if req.InvoiceNumber == "" {
		return nil, fault.New(fault.KindMissingRequiredField, "invoice number is required")
	}
	if req.InvoiceDate == "" {
		return nil, fault.New(fault.KindMissingRequiredField, "invoice date is required")
	}
	if len(req.Charges) == 0 {
		return nil, fault.New(fault.KindMissingRequiredField, "at least one charge is required")
	}

	invoiceDate, err := time.Parse("2006-01-02", req.InvoiceDate)
	if err != nil {
		return nil, fault.New(fault.KindInvalidInput, "invalid invoice date: %s", req.InvoiceDate)
	}

	blReferences := dedupeReferences(req.BLReferences)
	if len(blReferences) == 0 {
		blReferences = referencesFromCharges(req.Charges)
	}
	if len(blReferences) == 0 {
		return nil, fault.New(fault.KindNoBookingReference, "at least one BL reference is required")
	}

	sourceDocument := &valueobject.DocumentReference{
		DocumentID: document.ID,
		Filename:   document.Filename,
		FileHash:   document.FileHash,
	}
	metadata := &valueobject.ExtractionMetadata{
		AIModel:              req.AIModel,
		OverallConfidence:    domain.ParseConfidenceLevel(req.OverallConfidence),
		RawJSON:              req.RawJSON,
		ManuallyEditedFields: req.ManuallyEditedFields,
	}

	var invoiceID uuid.UUID
	var bookingIDs []string
	if documentType == domain.DocumentTypeClientInvoice {
		invoiceID, bookingIDs, err = s.persistClientInvoice(ctx, req, invoiceDate, blReferences, sourceDocument, metadata)
	} else {
		invoiceID, bookingIDs, err = s.persistProviderInvoice(ctx, req, invoiceDate, blReferences, sourceDocument, metadata)
	}
	if err != nil {
		return nil, err
	}

	document.MarkProcessed(documentType, &invoiceID)
	if err := s.documentRepo.Update(ctx, document); err != nil {
		return nil, err
	}

	s.logger.Info("Confirmed invoice",
		"document_id", document.ID,
		"invoice_id", invoiceID,
		"document_type", documentType,
		"bookings", bookingIDs)

	return &ConfirmResponse{
		DocumentID:   document.ID,
		InvoiceID:    &invoiceID,
		DocumentType: documentType,
		Status:       document.Status,
		BookingIDs:   bookingIDs,
	}, nil
}

// cleanupExistingProjection deletes any invoices previously produced
// from this document and strips their charges from every booking,
// persisting only bookings that actually changed.
func (s *confirmServiceImpl) cleanupExistingProjection(ctx context.Context, documentID uuid.UUID) error {
	removedIDs, err := s.invoiceRepo.DeleteBySourceDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if len(removedIDs) == 0 {
		return nil
	}

	s.logger.Info("Replacing prior projection for document",
		"document_id", documentID,
		"removed_invoices", len(removedIDs))

	bookings, err := s.bookingRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, booking := range bookings {
		changed := false
		for _, invoiceID := range removedIDs {
			if booking.RemoveChargesForInvoice(invoiceID) {
				changed = true
			}
		}
		if changed {
			if err := s.bookingRepo.Update(ctx, booking); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *confirmServiceImpl) persistClientInvoice(
	ctx context.Context,
	req ConfirmRequest,
	invoiceDate time.Time,
	blReferences []string,
	sourceDocument *valueobject.DocumentReference,
	metadata *valueobject.ExtractionMetadata,
) (uuid.UUID, []string, error) {
	clientNIF := strings.TrimSpace(req.RecipientNIF)
	if clientNIF == "" {
		return uuid.Nil, nil, fault.New(fault.KindMissingIdentity,
			"recipient NIF is required for a client invoice")
	}

	client, err := s.clientRepo.FindByNIF(ctx, entity.NormalizeNIF(clientNIF))
	if err != nil {
		return uuid.Nil, nil, err
	}
	if client == nil {
		client, err = entity.NewClient(clientNIF, req.RecipientName)
		if err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.clientRepo.Save(ctx, client); err != nil {
			return uuid.Nil, nil, err
		}
	}

	existing, err := s.invoiceRepo.FindClientInvoice(ctx, req.InvoiceNumber, client.ID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if existing != nil {
		return uuid.Nil, nil, fault.New(fault.KindDuplicateInvoice,
			"client invoice %s already exists for client %s", req.InvoiceNumber, client.Name)
	}

	taxAmount, totalAmount, err := resolveTotals(req)
	if err != nil {
		return uuid.Nil, nil, err
	}

	primaryRef := blReferences[0]
	invoice := entity.NewClientInvoice(
		req.InvoiceNumber, client.ID, invoiceDate, primaryRef, totalAmount, taxAmount)
	invoice.SourceDocument = sourceDocument
	invoice.ExtractionMetadata = metadata

	touched := make(map[string]bool)
	for _, input := range req.Charges {
		bookingID := chargeBookingID(input, primaryRef)
		touched[bookingID] = true

		amount, err := parseAmount(input.Amount)
		if err != nil {
			return uuid.Nil, nil, err
		}
		invoice.AddCharge(valueobject.BookingCharge{
			BookingID:      bookingID,
			InvoiceID:      invoice.ID,
			ChargeCategory: domain.ParseChargeCategory(input.Category),
			Container:      input.Container,
			Description:    input.Description,
			Amount:         amount,
		})
	}

	bookingIDs := sortedKeys(touched)
	for _, bookingID := range bookingIDs {
		booking, err := s.bookingRepo.FindOrCreate(ctx, bookingID)
		if err != nil {
			return uuid.Nil, nil, err
		}
		booking.UpdateClient(valueobject.ClientInfo{
			ClientID: client.ID,
			Name:     client.Name,
			NIF:      client.NIF,
		})
		applyShippingDetails(booking, req.ShippingDetails)

		for _, charge := range invoice.Charges {
			if charge.BookingID != bookingID {
				continue
			}
			if err := booking.AddRevenueCharge(charge); err != nil {
				return uuid.Nil, nil, err
			}
		}
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return uuid.Nil, nil, err
		}
	}

	if err := s.invoiceRepo.SaveClientInvoice(ctx, invoice); err != nil {
		return uuid.Nil, nil, err
	}
	return invoice.ID, bookingIDs, nil
}

func (s *confirmServiceImpl) persistProviderInvoice(
	ctx context.Context,
	req ConfirmRequest,
	invoiceDate time.Time,
	blReferences []string,
	sourceDocument *valueobject.DocumentReference,
	metadata *valueobject.ExtractionMetadata,
) (uuid.UUID, []string, error) {
	providerNIF := strings.TrimSpace(req.IssuerNIF)
	if providerNIF == "" {
		return uuid.Nil, nil, fault.New(fault.KindMissingIdentity,
			"issuer NIF is required for a provider invoice")
	}

	providerType := domain.ParseProviderType(req.ProviderType)

	provider, err := s.providerRepo.FindByNIF(ctx, entity.NormalizeNIF(providerNIF))
	if err != nil {
		return uuid.Nil, nil, err
	}
	if provider == nil {
		provider, err = entity.NewProvider(providerNIF, providerType, req.IssuerName)
		if err != nil {
			return uuid.Nil, nil, err
		}
		if err := s.providerRepo.Save(ctx, provider); err != nil {
			return uuid.Nil, nil, err
		}
	}

	existing, err := s.invoiceRepo.FindProviderInvoice(ctx, req.InvoiceNumber, provider.ID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if existing != nil {
		return uuid.Nil, nil, fault.New(fault.KindDuplicateInvoice,
			"provider invoice %s already exists for provider %s", req.InvoiceNumber, provider.Name)
	}

	taxAmount, totalAmount, err := resolveTotals(req)
	if err != nil {
		return uuid.Nil, nil, err
	}

	invoice := entity.NewProviderInvoice(
		req.InvoiceNumber, provider.ID, provider.ProviderType, invoiceDate,
		blReferences, totalAmount, taxAmount)
	invoice.SourceDocument = sourceDocument
	invoice.ExtractionMetadata = metadata

	primaryRef := blReferences[0]
	touched := make(map[string]bool)
	for _, input := range req.Charges {
		bookingID := chargeBookingID(input, primaryRef)
		touched[bookingID] = true

		amount, err := parseAmount(input.Amount)
		if err != nil {
			return uuid.Nil, nil, err
		}
		invoice.AddCharge(valueobject.BookingCharge{
			BookingID:      bookingID,
			InvoiceID:      invoice.ID,
			ChargeCategory: domain.ParseChargeCategory(input.Category),
			ProviderType:   provider.ProviderType,
			Container:      input.Container,
			Description:    input.Description,
			Amount:         amount,
		})
	}

	bookingIDs := sortedKeys(touched)
	for _, bookingID := range bookingIDs {
		booking, err := s.bookingRepo.FindOrCreate(ctx, bookingID)
		if err != nil {
			return uuid.Nil, nil, err
		}
		applyShippingDetails(booking, req.ShippingDetails)

		for _, charge := range invoice.Charges {
			if charge.BookingID != bookingID {
				continue
			}
			if err := booking.AddCostCharge(charge); err != nil {
				return uuid.Nil, nil, err
			}
		}
		if err := s.bookingRepo.Update(ctx, booking); err != nil {
			return uuid.Nil, nil, err
		}
	}

	if err := s.invoiceRepo.SaveProviderInvoice(ctx, invoice); err != nil {
		return uuid.Nil, nil, err
	}
	return invoice.ID, bookingIDs, nil
}

// resolveTotals parses the reviewed totals. An explicit total wins;
// otherwise the total is the charge sum plus tax.
func resolveTotals(req ConfirmRequest) (tax, total valueobject.Money, err error) {
	tax = valueobject.Zero()
	if req.TaxAmount != "" {
		tax, err = valueobject.NewMoneyFromString(req.TaxAmount)
		if err != nil {
			return valueobject.Zero(), valueobject.Zero(),
				fault.New(fault.KindInvalidInput, "invalid tax amount: %s", req.TaxAmount)
		}
	}

	if req.TotalAmount != "" {
		total, err = valueobject.NewMoneyFromString(req.TotalAmount)
		if err != nil {
			return valueobject.Zero(), valueobject.Zero(),
				fault.New(fault.KindInvalidInput, "invalid total amount: %s", req.TotalAmount)
		}
		return tax, total, nil
	}

	chargesTotal := valueobject.Zero()
	for _, input := range req.Charges {
		amount, err := parseAmount(input.Amount)
		if err != nil {
			return valueobject.Zero(), valueobject.Zero(), err
		}
		chargesTotal = chargesTotal.Add(amount)
	}
	return tax, chargesTotal.Add(tax), nil
}

func parseAmount(raw string) (valueobject.Money, error) {
	if raw == "" {
		return valueobject.Zero(), nil
	}
	amount, err := valueobject.NewMoneyFromString(raw)
	if err != nil {
		return valueobject.Zero(), fault.New(fault.KindInvalidInput, "invalid charge amount: %s", raw)
	}
	return amount, nil
}

func chargeBookingID(input ChargeInput, primaryRef string) string {
	if ref := strings.TrimSpace(input.BLReference); ref != "" {
		return ref
	}
	return primaryRef
}

// dedupeReferences trims and deduplicates BL references, keeping first
// occurrence order.
func dedupeReferences(refs []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}

func referencesFromCharges(charges []ChargeInput) []string {
	var refs []string
	for _, c := range charges {
		refs = append(refs, c.BLReference)
	}
	return dedupeReferences(refs)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func applyShippingDetails(booking *entity.Booking, details *ShippingDetails) {
	if details == nil {
		return
	}
	var pol, pod *valueobject.Port
	if details.POL != nil && details.POL.Code != "" {
		pol = &valueobject.Port{Code: details.POL.Code, Name: details.POL.Name}
	}
	if details.POD != nil && details.POD.Code != "" {
		pod = &valueobject.Port{Code: details.POD.Code, Name: details.POD.Name}
	}
	if pol != nil || pod != nil {
		booking.UpdatePorts(pol, pod)
	}
	if details.Vessel != "" {
		booking.Vessel = details.Vessel
	}
	if len(details.Containers) > 0 {
		containers := make([]string, 0, len(details.Containers))
		for _, c := range details.Containers {
			if c != "" {
				containers = append(containers, c)
			}
		}
		booking.Containers = containers
	}
}
