package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/fault"
	domainservice "github.com/freightline/bookkeeper/internal/domain/service"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// ProcessResult is the extraction preview returned for user review.
// Nothing is persisted from it until the user confirms.
type ProcessResult struct {
	DocumentID uuid.UUID
	Extraction *port.ExtractionResult
}

// DocumentService exposes the document lifecycle: import, listing, and
// the extraction step that produces a reviewable payload for
// confirmation.
type DocumentService interface {
	ImportDocument(ctx context.Context, filename string, content []byte) (*entity.Document, error)
	ListDocuments(ctx context.Context, limit, offset int) ([]*entity.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	ProcessDocument(ctx context.Context, id uuid.UUID, allowReprocess bool) (*ProcessResult, error)
}

type documentServiceImpl struct {
	documentRepo port.DocumentRepository
	extractor    port.InvoiceExtractor
	classifier   *domainservice.InvoiceClassifier
	documentsDir string
	logger       Logger
}

// NewDocumentService creates a DocumentService. documentsDir is where
// imported PDFs are stored.
func NewDocumentService(
	documentRepo port.DocumentRepository,
	extractor port.InvoiceExtractor,
	classifier *domainservice.InvoiceClassifier,
	documentsDir string,
	logger Logger,
) DocumentService {
	return &documentServiceImpl{
		documentRepo: documentRepo,
		extractor:    extractor,
		classifier:   classifier,
		documentsDir: documentsDir,
		logger:       logger,
	}
}

// ImportDocument stores an uploaded PDF and registers it as a pending
// document. Re-uploading identical content is rejected with a pointer
// at the existing document.
func (s *documentServiceImpl) ImportDocument(ctx context.Context, filename string, content []byte) (*entity.Document, error) {
	if len(content) == 0 {
		return nil, fault.New(fault.KindInvalidInput, "document content is empty")
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	existing, err := s.documentRepo.FindByFileHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fault.New(fault.KindInvalidInput,
			"identical document already imported as %s", existing.ID)
	}

	fileHash := valueobject.FileHash{Algorithm: "sha256", Value: hash}
	document := entity.NewDocument(filename, fileHash, "")
	document.StoragePath = filepath.Join(s.documentsDir, document.ID.String()+".pdf")

	if err := os.MkdirAll(s.documentsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory: %w", err)
	}
	if err := os.WriteFile(document.StoragePath, content, 0644); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	if err := s.documentRepo.Save(ctx, document); err != nil {
		return nil, err
	}

	s.logger.Info("Document imported",
		"document_id", document.ID,
		"filename", filename,
		"size", len(content))
	return document, nil
}

// ListDocuments returns imported documents, newest first.
func (s *documentServiceImpl) ListDocuments(ctx context.Context, limit, offset int) ([]*entity.Document, error) {
	return s.documentRepo.List(ctx, limit, offset)
}

// GetDocument loads one document.
func (s *documentServiceImpl) GetDocument(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	document, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fault.New(fault.KindNotFound, "document not found: %s", id)
	}
	return document, nil
}

// ProcessDocument runs AI extraction on a document's PDF and returns the
// preview for user review. The document moves to PROCESSING while the
// extraction runs; a failure records a typed error on the document, a
// success leaves it in PROCESSING until confirmation closes it.
func (s *documentServiceImpl) ProcessDocument(ctx context.Context, id uuid.UUID, allowReprocess bool) (*ProcessResult, error) {
	document, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := document.StartProcessing(allowReprocess); err != nil {
		return nil, err
	}
	if err := s.documentRepo.Update(ctx, document); err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(ctx, document.StoragePath)
	if err != nil {
		errorType := entity.ErrorTypeExtraction
		var extractionErr *port.ExtractionError
		if errors.As(err, &extractionErr) {
			errorType = extractionErr.ErrorType
		}
		document.MarkError(entity.NewErrorInfo(errorType, err.Error()))
		if updateErr := s.documentRepo.Update(ctx, document); updateErr != nil {
			s.logger.Error("Failed to record extraction error",
				"document_id", id, "error", updateErr)
		}
		return nil, err
	}

	// NIF-based classification is authoritative over whatever the model
	// guessed; the model's answer stands only when neither party is us.
	if docType, err := s.classifier.Classify(result.IssuerNIF, result.RecipientNIF); err == nil {
		result.DocumentType = string(docType)
	} else if result.DocumentType == "" {
		result.DocumentType = string(domain.DocumentTypeOther)
		result.ExtractionNotes = strings.TrimSpace(result.ExtractionNotes + " " + err.Error())
	}

	s.logger.Info("Document extracted",
		"document_id", id,
		"document_type", result.DocumentType,
		"charges", len(result.Charges))

	return &ProcessResult{DocumentID: document.ID, Extraction: result}, nil
}
