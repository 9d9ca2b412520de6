package http

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/application/service"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/fault"
)

// Handlers contains all HTTP request handlers.
type Handlers struct {
	documentService service.DocumentService
	confirmService  service.ConfirmService
	bookingService  service.BookingService
	invoiceService  service.InvoiceService
	reportService   service.ReportService
	logger          Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	documentService service.DocumentService,
	confirmService service.ConfirmService,
	bookingService service.BookingService,
	invoiceService service.InvoiceService,
	reportService service.ReportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		documentService: documentService,
		confirmService:  confirmService,
		bookingService:  bookingService,
		invoiceService:  invoiceService,
		reportService:   reportService,
		logger:          logger,
	}
}

// Response represents a standard JSON response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// statusForError maps domain fault kinds to HTTP status codes.
func statusForError(err error) int {
	switch fault.KindOf(err) {
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindDuplicateInvoice:
		return http.StatusConflict
	case fault.KindMissingRequiredField, fault.KindMissingIdentity,
		fault.KindNoBookingReference, fault.KindInvalidInput,
		fault.KindUnclassifiable, fault.KindChargeMismatch, fault.KindAllocation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func (h *Handlers) ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	h.ok(c, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DocumentResponse represents a document in API responses.
type DocumentResponse struct {
	ID           string  `json:"id"`
	Filename     string  `json:"filename"`
	DocumentType string  `json:"document_type,omitempty"`
	Status       string  `json:"status"`
	ErrorType    string  `json:"error_type,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Retryable    bool    `json:"retryable"`
	CreatedAt    string  `json:"created_at"`
	ProcessedAt  *string `json:"processed_at,omitempty"`
	InvoiceID    *string `json:"invoice_id,omitempty"`
}

func toDocumentResponse(d *entity.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:           d.ID.String(),
		Filename:     d.Filename,
		DocumentType: string(d.DocumentType),
		Status:       string(d.Status),
		Retryable:    d.CanRetry(),
		CreatedAt:    d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if d.ErrorInfo != nil {
		resp.ErrorType = d.ErrorInfo.ErrorType
		resp.ErrorMessage = d.ErrorInfo.Message
	}
	if d.ProcessedAt != nil {
		t := d.ProcessedAt.UTC().Format(time.RFC3339)
		resp.ProcessedAt = &t
	}
	if d.InvoiceID != nil {
		id := d.InvoiceID.String()
		resp.InvoiceID = &id
	}
	return resp
}

// ImportDocument handles POST /api/documents. The PDF arrives as a
// multipart form file under "file".
func (h *Handlers) ImportDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "cannot read file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "cannot read file"})
		return
	}

	document, err := h.documentService.ImportDocument(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: toDocumentResponse(document)})
}

// ListDocuments handles GET /api/documents.
func (h *Handlers) ListDocuments(c *gin.Context) {
	var req struct {
		Limit  int `form:"limit,default=50"`
		Offset int `form:"offset"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	documents, err := h.documentService.ListDocuments(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]DocumentResponse, 0, len(documents))
	for _, d := range documents {
		out = append(out, toDocumentResponse(d))
	}
	h.ok(c, out)
}

// GetDocument handles GET /api/documents/:id.
func (h *Handlers) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid document id"})
		return
	}

	document, err := h.documentService.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, toDocumentResponse(document))
}

// ProcessDocument handles POST /api/documents/:id/process. It runs AI
// extraction and returns the preview for user review.
func (h *Handlers) ProcessDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid document id"})
		return
	}

	var req struct {
		AllowReprocess bool `json:"allow_reprocess"`
	}
	// Body is optional; an empty body means a first-time run.
	_ = c.ShouldBindJSON(&req)

	result, err := h.documentService.ProcessDocument(c.Request.Context(), id, req.AllowReprocess)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{
		"document_id": result.DocumentID.String(),
		"extraction":  result.Extraction,
	})
}

// ChargeRequest is one reviewed charge line in a confirmation payload.
type ChargeRequest struct {
	BLReference string `json:"bl_reference"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Container   string `json:"container"`
}

// PortRequest carries a port override.
type PortRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ConfirmDocumentRequest is the reviewed extraction payload.
type ConfirmDocumentRequest struct {
	DocumentType         string          `json:"document_type" binding:"required"`
	AIModel              string          `json:"ai_model"`
	RawJSON              string          `json:"raw_json"`
	OverallConfidence    string          `json:"overall_confidence"`
	ManuallyEditedFields []string        `json:"manually_edited_fields"`
	InvoiceNumber        string          `json:"invoice_number"`
	InvoiceDate          string          `json:"invoice_date"`
	IssuerName           string          `json:"issuer_name"`
	IssuerNIF            string          `json:"issuer_nif"`
	RecipientName        string          `json:"recipient_name"`
	RecipientNIF         string          `json:"recipient_nif"`
	ProviderType         string          `json:"provider_type"`
	BLReferences         []string        `json:"bl_references"`
	Charges              []ChargeRequest `json:"charges"`
	TaxAmount            string          `json:"tax_amount"`
	TotalAmount          string          `json:"total_amount"`
	Vessel               string          `json:"vessel"`
	Containers           []string        `json:"containers"`
	POL                  *PortRequest    `json:"pol"`
	POD                  *PortRequest    `json:"pod"`
}

// ConfirmDocument handles POST /api/documents/:id/confirm.
func (h *Handlers) ConfirmDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid document id"})
		return
	}

	var req ConfirmDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	charges := make([]service.ChargeInput, 0, len(req.Charges))
	for _, ch := range req.Charges {
		charges = append(charges, service.ChargeInput{
			BLReference: ch.BLReference,
			Description: ch.Description,
			Category:    ch.Category,
			Amount:      ch.Amount,
			Container:   ch.Container,
		})
	}

	var shipping *service.ShippingDetails
	if req.Vessel != "" || len(req.Containers) > 0 || req.POL != nil || req.POD != nil {
		shipping = &service.ShippingDetails{
			Vessel:     req.Vessel,
			Containers: req.Containers,
		}
		if req.POL != nil {
			shipping.POL = &service.PortInput{Code: req.POL.Code, Name: req.POL.Name}
		}
		if req.POD != nil {
			shipping.POD = &service.PortInput{Code: req.POD.Code, Name: req.POD.Name}
		}
	}

	resp, err := h.confirmService.Confirm(c.Request.Context(), service.ConfirmRequest{
		DocumentID:           id,
		DocumentType:         req.DocumentType,
		AIModel:              req.AIModel,
		RawJSON:              req.RawJSON,
		OverallConfidence:    req.OverallConfidence,
		ManuallyEditedFields: req.ManuallyEditedFields,
		InvoiceNumber:        req.InvoiceNumber,
		InvoiceDate:          req.InvoiceDate,
		IssuerName:           req.IssuerName,
		IssuerNIF:            req.IssuerNIF,
		RecipientName:        req.RecipientName,
		RecipientNIF:         req.RecipientNIF,
		ProviderType:         req.ProviderType,
		BLReferences:         req.BLReferences,
		Charges:              charges,
		TaxAmount:            req.TaxAmount,
		TotalAmount:          req.TotalAmount,
		ShippingDetails:      shipping,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	out := gin.H{
		"document_id":   resp.DocumentID.String(),
		"document_type": string(resp.DocumentType),
		"status":        string(resp.Status),
		"booking_ids":   resp.BookingIDs,
	}
	if resp.InvoiceID != nil {
		out["invoice_id"] = resp.InvoiceID.String()
	}
	h.ok(c, out)
}

// BookingSummaryResponse represents a booking row in API responses.
type BookingSummaryResponse struct {
	BLReference      string `json:"bl_reference"`
	ClientName       string `json:"client_name,omitempty"`
	Status           string `json:"status"`
	Vessel           string `json:"vessel,omitempty"`
	TotalRevenue     string `json:"total_revenue"`
	TotalCosts       string `json:"total_costs"`
	Margin           string `json:"margin"`
	MarginPercentage string `json:"margin_percentage"`
	Commission       string `json:"commission"`
}

// ListBookings handles GET /api/bookings.
func (h *Handlers) ListBookings(c *gin.Context) {
	status := domain.BookingStatus(c.Query("status"))

	summaries, err := h.bookingService.ListBookings(c.Request.Context(), status)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]BookingSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, BookingSummaryResponse{
			BLReference:      s.BLReference,
			ClientName:       s.ClientName,
			Status:           string(s.Status),
			Vessel:           s.Vessel,
			TotalRevenue:     s.TotalRevenue.String(),
			TotalCosts:       s.TotalCosts.String(),
			Margin:           s.Margin.String(),
			MarginPercentage: s.MarginPercentage.String(),
			Commission:       s.Commission.String(),
		})
	}
	h.ok(c, out)
}

// chargeJSON renders one booking charge.
type chargeJSON struct {
	InvoiceID    string `json:"invoice_id"`
	Category     string `json:"category"`
	ProviderType string `json:"provider_type,omitempty"`
	Container    string `json:"container,omitempty"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
}

// GetBooking handles GET /api/bookings/:bl.
func (h *Handlers) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("bl"))
	if err != nil {
		h.fail(c, err)
		return
	}

	revenue := make([]chargeJSON, 0, len(booking.RevenueCharges))
	for _, ch := range booking.RevenueCharges {
		revenue = append(revenue, chargeJSON{
			InvoiceID:   ch.InvoiceID.String(),
			Category:    string(ch.ChargeCategory),
			Container:   ch.Container,
			Description: ch.Description,
			Amount:      ch.Amount.String(),
		})
	}
	costs := make([]chargeJSON, 0, len(booking.CostCharges))
	for _, ch := range booking.CostCharges {
		costs = append(costs, chargeJSON{
			InvoiceID:    ch.InvoiceID.String(),
			Category:     string(ch.ChargeCategory),
			ProviderType: string(ch.ProviderType),
			Container:    ch.Container,
			Description:  ch.Description,
			Amount:       ch.Amount.String(),
		})
	}

	out := gin.H{
		"bl_reference":    booking.BLReference,
		"status":          string(booking.Status),
		"vessel":          booking.Vessel,
		"containers":      booking.Containers,
		"revenue_charges": revenue,
		"cost_charges":    costs,
		"total_revenue":   booking.TotalRevenue().String(),
		"total_costs":     booking.TotalCosts().String(),
		"margin":          booking.Margin().String(),
		"created_at":      booking.CreatedAt.UTC().Format(time.RFC3339),
	}
	if booking.Client != nil {
		out["client"] = gin.H{
			"id":   booking.Client.ClientID.String(),
			"name": booking.Client.Name,
			"nif":  booking.Client.NIF,
		}
	}
	if booking.POL != nil {
		out["pol"] = gin.H{"code": booking.POL.Code, "name": booking.POL.Name}
	}
	if booking.POD != nil {
		out["pod"] = gin.H{"code": booking.POD.Code, "name": booking.POD.Name}
	}
	h.ok(c, out)
}

// EditBookingRequest is the booking edit payload.
type EditBookingRequest struct {
	NewBLReference string       `json:"new_bl_reference"`
	POL            *PortRequest `json:"pol"`
	POD            *PortRequest `json:"pod"`
	Vessel         string       `json:"vessel"`
	Containers     []string     `json:"containers"`
}

// EditBooking handles PUT /api/bookings/:bl.
func (h *Handlers) EditBooking(c *gin.Context) {
	var req EditBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	edit := service.EditBookingRequest{
		BLReference:    c.Param("bl"),
		NewBLReference: req.NewBLReference,
		Vessel:         req.Vessel,
		Containers:     req.Containers,
	}
	if req.POL != nil {
		edit.POL = &service.PortInput{Code: req.POL.Code, Name: req.POL.Name}
	}
	if req.POD != nil {
		edit.POD = &service.PortInput{Code: req.POD.Code, Name: req.POD.Name}
	}

	booking, err := h.bookingService.EditBooking(c.Request.Context(), edit)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"bl_reference": booking.BLReference})
}

// CompleteBooking handles POST /api/bookings/:bl/complete.
func (h *Handlers) CompleteBooking(c *gin.Context) {
	if err := h.bookingService.MarkComplete(c.Request.Context(), c.Param("bl")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"bl_reference": c.Param("bl"), "status": string(domain.BookingStatusComplete)})
}

// ReopenBooking handles POST /api/bookings/:bl/reopen.
func (h *Handlers) ReopenBooking(c *gin.Context) {
	if err := h.bookingService.RevertToPending(c.Request.Context(), c.Param("bl")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"bl_reference": c.Param("bl"), "status": string(domain.BookingStatusPending)})
}

// ListInvoices handles GET /api/invoices.
func (h *Handlers) ListInvoices(c *gin.Context) {
	items, err := h.invoiceService.ListInvoices(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, gin.H{
			"id":             item.ID.String(),
			"invoice_type":   string(item.InvoiceType),
			"invoice_number": item.InvoiceNumber,
			"invoice_date":   item.InvoiceDate.UTC().Format("2006-01-02"),
			"bl_references":  item.BLReferences,
			"total_amount":   item.TotalAmount.String(),
			"tax_amount":     item.TaxAmount.String(),
		})
	}
	h.ok(c, out)
}

// InvoiceTaxAllocation handles GET /api/invoices/:id/tax-allocation.
func (h *Handlers) InvoiceTaxAllocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid invoice id"})
		return
	}

	allocations, err := h.invoiceService.ProviderInvoiceTaxAllocation(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, gin.H{
			"bl_reference": a.BLReference,
			"base_amount":  a.BaseAmount.String(),
			"tax_amount":   a.TaxAmount.String(),
			"percentage":   a.Percentage.String(),
		})
	}
	h.ok(c, out)
}

// CommissionReport handles GET /api/reports/commission.
func (h *Handlers) CommissionReport(c *gin.Context) {
	report, err := h.reportService.GenerateCommissionReport(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	rows := make([]gin.H, 0, len(report.Rows))
	for _, r := range report.Rows {
		rows = append(rows, gin.H{
			"bl_reference": r.BLReference,
			"client_name":  r.ClientName,
			"revenue":      r.Revenue.String(),
			"costs":        r.Costs.String(),
			"margin":       r.Margin.String(),
			"commission":   r.Commission.String(),
		})
	}
	h.ok(c, gin.H{
		"rows":             rows,
		"total_revenue":    report.TotalRevenue.String(),
		"total_costs":      report.TotalCosts.String(),
		"total_margin":     report.TotalMargin.String(),
		"total_commission": report.TotalCommission.String(),
		"commission_rate":  report.CommissionRate.String(),
	})
}

// ExportCommissionReport handles POST /api/reports/commission/export.
func (h *Handlers) ExportCommissionReport(c *gin.Context) {
	path, err := h.reportService.ExportCommissionReport(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"path": path})
}
