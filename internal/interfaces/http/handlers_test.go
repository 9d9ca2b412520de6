package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightline/bookkeeper/internal/application/service"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/fault"
	domainservice "github.com/freightline/bookkeeper/internal/domain/service"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

type testLogger struct{}

func (testLogger) Info(msg string, keysAndValues ...interface{})  {}
func (testLogger) Error(msg string, keysAndValues ...interface{}) {}

type stubDocumentService struct {
	importFunc  func(ctx context.Context, filename string, content []byte) (*entity.Document, error)
	getFunc     func(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	processFunc func(ctx context.Context, id uuid.UUID, allowReprocess bool) (*service.ProcessResult, error)
}

func (s *stubDocumentService) ImportDocument(ctx context.Context, filename string, content []byte) (*entity.Document, error) {
	if s.importFunc != nil {
		return s.importFunc(ctx, filename, content)
	}
	return nil, fault.New(fault.KindInvalidInput, "not stubbed")
}

func (s *stubDocumentService) ListDocuments(ctx context.Context, limit, offset int) ([]*entity.Document, error) {
	return nil, nil
}

func (s *stubDocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, id)
	}
	return nil, fault.New(fault.KindNotFound, "document not found: %s", id)
}

func (s *stubDocumentService) ProcessDocument(ctx context.Context, id uuid.UUID, allowReprocess bool) (*service.ProcessResult, error) {
	if s.processFunc != nil {
		return s.processFunc(ctx, id, allowReprocess)
	}
	return nil, fault.New(fault.KindNotFound, "document not found: %s", id)
}

type stubConfirmService struct {
	confirmFunc func(ctx context.Context, req service.ConfirmRequest) (*service.ConfirmResponse, error)
	lastRequest *service.ConfirmRequest
}

func (s *stubConfirmService) Confirm(ctx context.Context, req service.ConfirmRequest) (*service.ConfirmResponse, error) {
	s.lastRequest = &req
	if s.confirmFunc != nil {
		return s.confirmFunc(ctx, req)
	}
	invoiceID := uuid.New()
	return &service.ConfirmResponse{
		DocumentID:   req.DocumentID,
		InvoiceID:    &invoiceID,
		DocumentType: domain.DocumentTypeClientInvoice,
		Status:       domain.ProcessingStatusProcessed,
		BookingIDs:   []string{"BL-001"},
	}, nil
}

type stubBookingService struct {
	listFunc func(ctx context.Context, status domain.BookingStatus) ([]service.BookingSummary, error)
	getFunc  func(ctx context.Context, blReference string) (*entity.Booking, error)
}

func (s *stubBookingService) ListBookings(ctx context.Context, status domain.BookingStatus) ([]service.BookingSummary, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, status)
	}
	return nil, nil
}

func (s *stubBookingService) GetBooking(ctx context.Context, blReference string) (*entity.Booking, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, blReference)
	}
	return nil, fault.New(fault.KindNotFound, "booking not found: %s", blReference)
}

func (s *stubBookingService) EditBooking(ctx context.Context, req service.EditBookingRequest) (*entity.Booking, error) {
	return nil, fault.New(fault.KindNotFound, "booking not found: %s", req.BLReference)
}

func (s *stubBookingService) MarkComplete(ctx context.Context, blReference string) error {
	return nil
}

func (s *stubBookingService) RevertToPending(ctx context.Context, blReference string) error {
	return nil
}

type stubInvoiceService struct {
	allocationFunc func(ctx context.Context, invoiceID uuid.UUID) ([]domainservice.TaxAllocation, error)
}

func (s *stubInvoiceService) ListInvoices(ctx context.Context) ([]service.InvoiceListItem, error) {
	return nil, nil
}

func (s *stubInvoiceService) ProviderInvoiceTaxAllocation(ctx context.Context, invoiceID uuid.UUID) ([]domainservice.TaxAllocation, error) {
	if s.allocationFunc != nil {
		return s.allocationFunc(ctx, invoiceID)
	}
	return nil, fault.New(fault.KindNotFound, "provider invoice not found: %s", invoiceID)
}

type stubReportService struct{}

func (stubReportService) GenerateCommissionReport(ctx context.Context) (*service.CommissionReport, error) {
	return &service.CommissionReport{
		TotalRevenue:    valueobject.Zero(),
		TotalCosts:      valueobject.Zero(),
		TotalMargin:     valueobject.Zero(),
		TotalCommission: valueobject.Zero(),
		CommissionRate:  decimal.NewFromFloat(0.50),
	}, nil
}

func (stubReportService) ExportCommissionReport(ctx context.Context) (string, error) {
	return "data/reports/commission.xlsx", nil
}

type serverFixture struct {
	server   *Server
	document *stubDocumentService
	confirm  *stubConfirmService
	booking  *stubBookingService
	invoice  *stubInvoiceService
}

func newServerFixture() *serverFixture {
	f := &serverFixture{
		document: &stubDocumentService{},
		confirm:  &stubConfirmService{},
		booking:  &stubBookingService{},
		invoice:  &stubInvoiceService{},
	}
	f.server = NewServer(ServerConfig{Host: "127.0.0.1", Port: 0},
		f.document, f.confirm, f.booking, f.invoice, stubReportService{}, testLogger{})
	return f
}

func (f *serverFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	f := newServerFixture()

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestGetDocumentInvalidID(t *testing.T) {
	f := newServerFixture()

	w := f.do(t, http.MethodGet, "/api/documents/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decodeResponse(t, w).Success)
}

func TestGetDocumentNotFound(t *testing.T) {
	f := newServerFixture()

	w := f.do(t, http.MethodGet, "/api/documents/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDocumentRendersErrorState(t *testing.T) {
	f := newServerFixture()

	doc := entity.NewDocument("slow.pdf",
		valueobject.FileHash{Algorithm: "sha256", Value: "ff"}, "slow.pdf")
	doc.MarkError(entity.NewErrorInfo(entity.ErrorTypeAITimeout, "timed out"))
	f.document.getFunc = func(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
		return doc, nil
	}

	w := f.do(t, http.MethodGet, "/api/documents/"+doc.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data DocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ERROR", resp.Data.Status)
	assert.Equal(t, entity.ErrorTypeAITimeout, resp.Data.ErrorType)
	assert.True(t, resp.Data.Retryable)
}

func TestConfirmDocumentMapsRequest(t *testing.T) {
	f := newServerFixture()
	docID := uuid.New()

	w := f.do(t, http.MethodPost, "/api/documents/"+docID.String()+"/confirm", map[string]interface{}{
		"document_type":  "CLIENT_INVOICE",
		"invoice_number": "FAC-001",
		"invoice_date":   "2026-03-14",
		"recipient_nif":  "A11111111",
		"bl_references":  []string{"BL-001"},
		"charges": []map[string]string{
			{"description": "Freight", "category": "FREIGHT", "amount": "800.00"},
		},
		"tax_amount": "168.00",
		"vessel":     "MSC Aurora",
		"pol":        map[string]string{"code": "ESVAL", "name": "Valencia"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	req := f.confirm.lastRequest
	require.NotNil(t, req)
	assert.Equal(t, docID, req.DocumentID)
	assert.Equal(t, "CLIENT_INVOICE", req.DocumentType)
	assert.Len(t, req.Charges, 1)
	require.NotNil(t, req.ShippingDetails)
	assert.Equal(t, "MSC Aurora", req.ShippingDetails.Vessel)
	require.NotNil(t, req.ShippingDetails.POL)
	assert.Equal(t, "ESVAL", req.ShippingDetails.POL.Code)
}

func TestConfirmDocumentRequiresDocumentType(t *testing.T) {
	f := newServerFixture()

	w := f.do(t, http.MethodPost, "/api/documents/"+uuid.NewString()+"/confirm",
		map[string]interface{}{"invoice_number": "FAC-001"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmDocumentDuplicateConflict(t *testing.T) {
	f := newServerFixture()
	f.confirm.confirmFunc = func(ctx context.Context, req service.ConfirmRequest) (*service.ConfirmResponse, error) {
		return nil, fault.New(fault.KindDuplicateInvoice, "already recorded")
	}

	w := f.do(t, http.MethodPost, "/api/documents/"+uuid.NewString()+"/confirm",
		map[string]interface{}{"document_type": "CLIENT_INVOICE"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListBookingsRendersMoney(t *testing.T) {
	f := newServerFixture()
	f.booking.listFunc = func(ctx context.Context, status domain.BookingStatus) ([]service.BookingSummary, error) {
		return []service.BookingSummary{{
			BLReference:      "BL-001",
			ClientName:       "Acme",
			Status:           domain.BookingStatusPending,
			TotalRevenue:     valueobject.NewMoneyFromCents(100000),
			TotalCosts:       valueobject.NewMoneyFromCents(60000),
			Margin:           valueobject.NewMoneyFromCents(40000),
			MarginPercentage: decimal.NewFromInt(40),
			Commission:       valueobject.NewMoneyFromCents(20000),
		}}, nil
	}

	w := f.do(t, http.MethodGet, "/api/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []BookingSummaryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "1000.00", resp.Data[0].TotalRevenue)
	assert.Equal(t, "400.00", resp.Data[0].Margin)
	assert.Equal(t, "200.00", resp.Data[0].Commission)
}

func TestInvoiceTaxAllocationEndpoint(t *testing.T) {
	f := newServerFixture()
	f.invoice.allocationFunc = func(ctx context.Context, invoiceID uuid.UUID) ([]domainservice.TaxAllocation, error) {
		return []domainservice.TaxAllocation{{
			BLReference: "BL-A",
			BaseAmount:  valueobject.NewMoneyFromCents(40000),
			TaxAmount:   valueobject.NewMoneyFromCents(8400),
			Percentage:  decimal.NewFromInt(40),
		}}, nil
	}

	w := f.do(t, http.MethodGet, "/api/invoices/"+uuid.NewString()+"/tax-allocation", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "84.00", resp.Data[0]["tax_amount"])
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		kind fault.Kind
		want int
	}{
		{fault.KindNotFound, http.StatusNotFound},
		{fault.KindDuplicateInvoice, http.StatusConflict},
		{fault.KindMissingRequiredField, http.StatusBadRequest},
		{fault.KindMissingIdentity, http.StatusBadRequest},
		{fault.KindNoBookingReference, http.StatusBadRequest},
		{fault.KindUnclassifiable, http.StatusBadRequest},
		{fault.KindAllocation, http.StatusBadRequest},
		{fault.KindInvalidInput, http.StatusBadRequest},
	}

	for _, tt := range tests {
		err := fault.New(tt.kind, "boom")
		assert.Equal(t, tt.want, statusForError(err), "kind %s", tt.kind)
	}

	assert.Equal(t, http.StatusInternalServerError,
		statusForError(context.DeadlineExceeded))
}
