package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
)

// DocumentRepository implements port.DocumentRepository.
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{db: db, logger: logger}
}

const documentColumns = `id, filename, hash_algorithm, file_hash, document_type, status,
	storage_path, error_type, error_message, error_occurred_at, created_at, processed_at, invoice_id`

// Save inserts a document record.
func (r *DocumentRepository) Save(ctx context.Context, document *entity.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	errType, errMessage, errOccurredAt := errorInfoColumns(document.ErrorInfo)
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		document.ID.String(),
		document.Filename,
		document.FileHash.Algorithm,
		document.FileHash.Value,
		string(document.DocumentType),
		string(document.Status),
		document.StoragePath,
		errType,
		errMessage,
		errOccurredAt,
		document.CreatedAt,
		document.ProcessedAt,
		uuidPtrString(document.InvoiceID),
	)
	if err != nil {
		r.logger.Error("Failed to save document", zap.String("id", document.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// FindByID retrieves a document by ID.
func (r *DocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id.String())
	document, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document by ID", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return document, nil
}

// FindByFileHash retrieves a document by content hash.
func (r *DocumentRepository) FindByFileHash(ctx context.Context, hash string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE file_hash = ? LIMIT 1`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, hash)
	document, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document by hash", zap.String("hash", hash), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return document, nil
}

// Update rewrites a document's mutable state.
func (r *DocumentRepository) Update(ctx context.Context, document *entity.Document) error {
	query := `
		UPDATE documents
		SET filename = ?, document_type = ?, status = ?, storage_path = ?,
			error_type = ?, error_message = ?, error_occurred_at = ?,
			processed_at = ?, invoice_id = ?
		WHERE id = ?
	`

	errType, errMessage, errOccurredAt := errorInfoColumns(document.ErrorInfo)
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		document.Filename,
		string(document.DocumentType),
		string(document.Status),
		document.StoragePath,
		errType,
		errMessage,
		errOccurredAt,
		document.ProcessedAt,
		uuidPtrString(document.InvoiceID),
		document.ID.String(),
	)
	if err != nil {
		r.logger.Error("Failed to update document", zap.String("id", document.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// List retrieves documents ordered newest first.
func (r *DocumentRepository) List(ctx context.Context, limit, offset int) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var documents []*entity.Document
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, document)
	}
	return documents, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan code.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*entity.Document, error) {
	var document entity.Document
	var id, documentType, status string
	var errType, errMessage, invoiceID sql.NullString
	var errOccurredAt, processedAt sql.NullTime

	err := row.Scan(
		&id,
		&document.Filename,
		&document.FileHash.Algorithm,
		&document.FileHash.Value,
		&documentType,
		&status,
		&document.StoragePath,
		&errType,
		&errMessage,
		&errOccurredAt,
		&document.CreatedAt,
		&processedAt,
		&invoiceID,
	)
	if err != nil {
		return nil, err
	}

	if document.ID, err = parseUUID(id); err != nil {
		return nil, err
	}
	document.DocumentType = domain.DocumentType(documentType)
	document.Status = domain.ProcessingStatus(status)

	if errType.Valid && errType.String != "" {
		info := entity.ErrorInfo{ErrorType: errType.String, Message: errMessage.String}
		if errOccurredAt.Valid {
			info.OccurredAt = errOccurredAt.Time
		}
		document.ErrorInfo = &info
	}
	if processedAt.Valid {
		document.ProcessedAt = &processedAt.Time
	}
	if invoiceID.Valid && invoiceID.String != "" {
		parsed, err := parseUUID(invoiceID.String)
		if err != nil {
			return nil, err
		}
		document.InvoiceID = &parsed
	}
	return &document, nil
}

func errorInfoColumns(info *entity.ErrorInfo) (errType, errMessage interface{}, occurredAt interface{}) {
	if info == nil {
		return nil, nil, nil
	}
	return info.ErrorType, info.Message, info.OccurredAt
}

func uuidPtrString(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

// Verify interface compliance
var _ port.DocumentRepository = (*DocumentRepository)(nil)
