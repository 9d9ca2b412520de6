package service

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/fault"
	domainservice "github.com/freightline/bookkeeper/internal/domain/service"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

type mockExtractor struct {
	extractFunc func(ctx context.Context, pdfPath string) (*port.ExtractionResult, error)
}

func (m *mockExtractor) Extract(ctx context.Context, pdfPath string) (*port.ExtractionResult, error) {
	if m.extractFunc != nil {
		return m.extractFunc(ctx, pdfPath)
	}
	return &port.ExtractionResult{}, nil
}

func docHash(value string) valueobject.FileHash {
	return valueobject.FileHash{Algorithm: "sha256", Value: value}
}

type documentFixture struct {
	documentRepo *mockDocumentRepo
	extractor    *mockExtractor
	service      DocumentService
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()

	classifier, err := domainservice.NewInvoiceClassifier("B12345678")
	if err != nil {
		t.Fatalf("NewInvoiceClassifier: %v", err)
	}

	f := &documentFixture{
		documentRepo: newMockDocumentRepo(),
		extractor:    &mockExtractor{},
	}
	f.service = NewDocumentService(
		f.documentRepo, f.extractor, classifier, t.TempDir(), nopLogger{})
	return f
}

func TestImportDocument(t *testing.T) {
	f := newDocumentFixture(t)

	doc, err := f.service.ImportDocument(context.Background(), "invoice.pdf", []byte("%PDF-1.4 test"))
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}

	if doc.Status != domain.ProcessingStatusPending {
		t.Errorf("status = %s, want PENDING", doc.Status)
	}
	if doc.FileHash.Algorithm != "sha256" || doc.FileHash.Value == "" {
		t.Error("file hash not recorded")
	}
	if _, err := os.Stat(doc.StoragePath); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
	if f.documentRepo.documents[doc.ID] == nil {
		t.Error("document not persisted")
	}
}

func TestImportDocumentRejectsEmptyContent(t *testing.T) {
	f := newDocumentFixture(t)

	_, err := f.service.ImportDocument(context.Background(), "empty.pdf", nil)
	if fault.KindOf(err) != fault.KindInvalidInput {
		t.Errorf("error kind = %s, want %s", fault.KindOf(err), fault.KindInvalidInput)
	}
}

func TestImportDocumentRejectsDuplicateContent(t *testing.T) {
	f := newDocumentFixture(t)

	content := []byte("%PDF-1.4 same bytes")
	if _, err := f.service.ImportDocument(context.Background(), "a.pdf", content); err != nil {
		t.Fatalf("first import: %v", err)
	}

	// A second upload of identical bytes, even under a new name, is
	// rejected.
	_, err := f.service.ImportDocument(context.Background(), "b.pdf", content)
	if fault.KindOf(err) != fault.KindInvalidInput {
		t.Errorf("error kind = %s, want %s", fault.KindOf(err), fault.KindInvalidInput)
	}
}

func TestProcessDocumentClassifierOverridesModel(t *testing.T) {
	f := newDocumentFixture(t)

	doc := entity.NewDocument("invoice.pdf",
		docHash("h1"), "nonexistent.pdf")
	f.documentRepo.documents[doc.ID] = doc

	f.extractor.extractFunc = func(ctx context.Context, pdfPath string) (*port.ExtractionResult, error) {
		return &port.ExtractionResult{
			DocumentType: "PROVIDER_INVOICE", // model guess, wrong
			IssuerNIF:    "B12345678",        // we issued it
			RecipientNIF: "A11111111",
		}, nil
	}

	result, err := f.service.ProcessDocument(context.Background(), doc.ID, false)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if result.Extraction.DocumentType != "CLIENT_INVOICE" {
		t.Errorf("document type = %s, want classifier's CLIENT_INVOICE", result.Extraction.DocumentType)
	}
	if doc.Status != domain.ProcessingStatusProcessing {
		t.Errorf("status = %s, want PROCESSING until confirmation", doc.Status)
	}
}

func TestProcessDocumentUnclassifiableDefaultsToOther(t *testing.T) {
	f := newDocumentFixture(t)

	doc := entity.NewDocument("scan.pdf", docHash("h2"), "scan.pdf")
	f.documentRepo.documents[doc.ID] = doc

	f.extractor.extractFunc = func(ctx context.Context, pdfPath string) (*port.ExtractionResult, error) {
		return &port.ExtractionResult{
			IssuerNIF:    "A11111111",
			RecipientNIF: "A22222222",
		}, nil
	}

	result, err := f.service.ProcessDocument(context.Background(), doc.ID, false)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if result.Extraction.DocumentType != "OTHER" {
		t.Errorf("document type = %s, want OTHER", result.Extraction.DocumentType)
	}
	if result.Extraction.ExtractionNotes == "" {
		t.Error("expected the classification failure noted for the reviewer")
	}
}

func TestProcessDocumentRecordsTypedError(t *testing.T) {
	f := newDocumentFixture(t)

	doc := entity.NewDocument("slow.pdf", docHash("h3"), "slow.pdf")
	f.documentRepo.documents[doc.ID] = doc

	f.extractor.extractFunc = func(ctx context.Context, pdfPath string) (*port.ExtractionResult, error) {
		return nil, &port.ExtractionError{
			ErrorType: entity.ErrorTypeAITimeout,
			Message:   "extraction timed out",
		}
	}

	_, err := f.service.ProcessDocument(context.Background(), doc.ID, false)
	if err == nil {
		t.Fatal("expected extraction error")
	}

	if doc.Status != domain.ProcessingStatusError {
		t.Errorf("status = %s, want ERROR", doc.Status)
	}
	if doc.ErrorInfo == nil || doc.ErrorInfo.ErrorType != entity.ErrorTypeAITimeout {
		t.Error("typed error not recorded on the document")
	}
	if !doc.CanRetry() {
		t.Error("timeout must leave the document retryable")
	}
}

func TestProcessDocumentReprocessGuard(t *testing.T) {
	f := newDocumentFixture(t)

	doc := entity.NewDocument("done.pdf", docHash("h4"), "done.pdf")
	invoiceID := uuid.New()
	doc.MarkProcessed(domain.DocumentTypeClientInvoice, &invoiceID)
	f.documentRepo.documents[doc.ID] = doc

	if _, err := f.service.ProcessDocument(context.Background(), doc.ID, false); fault.KindOf(err) != fault.KindInvalidInput {
		t.Errorf("error kind = %s, want %s", fault.KindOf(err), fault.KindInvalidInput)
	}

	f.extractor.extractFunc = func(ctx context.Context, pdfPath string) (*port.ExtractionResult, error) {
		return &port.ExtractionResult{IssuerNIF: "B12345678", RecipientNIF: "A11111111"}, nil
	}
	if _, err := f.service.ProcessDocument(context.Background(), doc.ID, true); err != nil {
		t.Errorf("reprocess with flag: %v", err)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	f := newDocumentFixture(t)

	_, err := f.service.GetDocument(context.Background(), uuid.New())
	if fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("error kind = %s, want %s", fault.KindOf(err), fault.KindNotFound)
	}
}
