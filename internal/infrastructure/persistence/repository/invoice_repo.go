package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freightline/bookkeeper/internal/application/port"
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/valueobject"
)

// InvoiceRepository implements port.InvoiceRepository over the two
// invoice tables plus the shared invoice_charges table.
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{db: db, logger: logger}
}

// SaveClientInvoice inserts a client invoice and its charge lines.
func (r *InvoiceRepository) SaveClientInvoice(ctx context.Context, invoice *entity.ClientInvoice) error {
	query := `
		INSERT INTO client_invoices (
			id, invoice_number, client_id, invoice_date, bl_reference,
			total_amount, tax_amount, source_document_id, source_filename,
			source_hash_algorithm, source_hash, ai_model, overall_confidence,
			raw_extraction, manually_edited_fields
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	src := sourceColumns(invoice.SourceDocument)
	meta, editedFields, err := metadataColumns(invoice.ExtractionMetadata)
	if err != nil {
		return err
	}

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		invoice.ID.String(),
		invoice.InvoiceNumber,
		invoice.ClientID.String(),
		invoice.InvoiceDate,
		invoice.BLReference,
		invoice.TotalAmount.String(),
		invoice.TaxAmount.String(),
		src.documentID,
		src.filename,
		src.hashAlgorithm,
		src.hash,
		meta.aiModel,
		meta.confidence,
		meta.rawJSON,
		editedFields,
	)
	if err != nil {
		r.logger.Error("Failed to save client invoice",
			zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
		return fmt.Errorf("failed to save client invoice: %w", err)
	}

	return r.saveCharges(ctx, invoice.ID, invoice.Charges)
}

// SaveProviderInvoice inserts a provider invoice and its charge lines.
func (r *InvoiceRepository) SaveProviderInvoice(ctx context.Context, invoice *entity.ProviderInvoice) error {
	query := `
		INSERT INTO provider_invoices (
			id, invoice_number, provider_id, provider_type, invoice_date,
			bl_references, total_amount, tax_amount, source_document_id,
			source_filename, source_hash_algorithm, source_hash, ai_model,
			overall_confidence, raw_extraction, manually_edited_fields
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	blRefs, err := json.Marshal(invoice.BLReferences)
	if err != nil {
		return fmt.Errorf("failed to marshal bl references: %w", err)
	}
	src := sourceColumns(invoice.SourceDocument)
	meta, editedFields, err := metadataColumns(invoice.ExtractionMetadata)
	if err != nil {
		return err
	}

	_, err = getExecutor(ctx, r.db).ExecContext(ctx, query,
		invoice.ID.String(),
		invoice.InvoiceNumber,
		invoice.ProviderID.String(),
		string(invoice.ProviderType),
		invoice.InvoiceDate,
		string(blRefs),
		invoice.TotalAmount.String(),
		invoice.TaxAmount.String(),
		src.documentID,
		src.filename,
		src.hashAlgorithm,
		src.hash,
		meta.aiModel,
		meta.confidence,
		meta.rawJSON,
		editedFields,
	)
	if err != nil {
		r.logger.Error("Failed to save provider invoice",
			zap.String("invoice_number", invoice.InvoiceNumber), zap.Error(err))
		return fmt.Errorf("failed to save provider invoice: %w", err)
	}

	return r.saveCharges(ctx, invoice.ID, invoice.Charges)
}

const clientInvoiceColumns = `id, invoice_number, client_id, invoice_date, bl_reference,
	total_amount, tax_amount, source_document_id, source_filename,
	source_hash_algorithm, source_hash, ai_model, overall_confidence,
	raw_extraction, manually_edited_fields`

// FindClientInvoice retrieves a client invoice by number and client.
func (r *InvoiceRepository) FindClientInvoice(ctx context.Context, invoiceNumber string, clientID uuid.UUID) (*entity.ClientInvoice, error) {
	query := `SELECT ` + clientInvoiceColumns + ` FROM client_invoices WHERE invoice_number = ? AND client_id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, invoiceNumber, clientID.String())
	invoice, err := scanClientInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get client invoice",
			zap.String("invoice_number", invoiceNumber), zap.Error(err))
		return nil, fmt.Errorf("failed to get client invoice: %w", err)
	}

	if invoice.Charges, err = r.loadCharges(ctx, invoice.ID); err != nil {
		return nil, err
	}
	return invoice, nil
}

const providerInvoiceColumns = `id, invoice_number, provider_id, provider_type, invoice_date,
	bl_references, total_amount, tax_amount, source_document_id,
	source_filename, source_hash_algorithm, source_hash, ai_model,
	overall_confidence, raw_extraction, manually_edited_fields`

// FindProviderInvoice retrieves a provider invoice by number and provider.
func (r *InvoiceRepository) FindProviderInvoice(ctx context.Context, invoiceNumber string, providerID uuid.UUID) (*entity.ProviderInvoice, error) {
	query := `SELECT ` + providerInvoiceColumns + ` FROM provider_invoices WHERE invoice_number = ? AND provider_id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, invoiceNumber, providerID.String())
	invoice, err := scanProviderInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get provider invoice",
			zap.String("invoice_number", invoiceNumber), zap.Error(err))
		return nil, fmt.Errorf("failed to get provider invoice: %w", err)
	}

	if invoice.Charges, err = r.loadCharges(ctx, invoice.ID); err != nil {
		return nil, err
	}
	return invoice, nil
}

// ListClientInvoices retrieves all client invoices with charges loaded.
func (r *InvoiceRepository) ListClientInvoices(ctx context.Context) ([]*entity.ClientInvoice, error) {
	query := `SELECT ` + clientInvoiceColumns + ` FROM client_invoices ORDER BY invoice_date DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list client invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list client invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.ClientInvoice
	for rows.Next() {
		invoice, err := scanClientInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, invoice := range invoices {
		if invoice.Charges, err = r.loadCharges(ctx, invoice.ID); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// ListProviderInvoices retrieves all provider invoices with charges loaded.
func (r *InvoiceRepository) ListProviderInvoices(ctx context.Context) ([]*entity.ProviderInvoice, error) {
	query := `SELECT ` + providerInvoiceColumns + ` FROM provider_invoices ORDER BY invoice_date DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list provider invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list provider invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.ProviderInvoice
	for rows.Next() {
		invoice, err := scanProviderInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, invoice := range invoices {
		if invoice.Charges, err = r.loadCharges(ctx, invoice.ID); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// DeleteBySourceDocument removes every invoice produced from a source
// document, both kinds, together with their charge lines. The removed
// invoice ids come back so the caller can strip booking charges.
func (r *InvoiceRepository) DeleteBySourceDocument(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error) {
	exec := getExecutor(ctx, r.db)

	var removed []uuid.UUID
	for _, table := range []string{"client_invoices", "provider_invoices"} {
		rows, err := exec.QueryContext(ctx,
			`SELECT id FROM `+table+` WHERE source_document_id = ?`, documentID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to find invoices for document: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan invoice id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, id := range ids {
			if _, err := exec.ExecContext(ctx,
				`DELETE FROM invoice_charges WHERE invoice_id = ?`, id); err != nil {
				return nil, fmt.Errorf("failed to delete invoice charges: %w", err)
			}
			if _, err := exec.ExecContext(ctx,
				`DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
				return nil, fmt.Errorf("failed to delete invoice: %w", err)
			}
			parsed, err := parseUUID(id)
			if err != nil {
				return nil, err
			}
			removed = append(removed, parsed)
		}
	}

	if len(removed) > 0 {
		r.logger.Info("Removed invoices for reprocessed document",
			zap.String("document_id", documentID.String()), zap.Int("count", len(removed)))
	}
	return removed, nil
}

// saveCharges inserts the invoice's own charge lines.
func (r *InvoiceRepository) saveCharges(ctx context.Context, invoiceID uuid.UUID, charges []valueobject.BookingCharge) error {
	insert := `
		INSERT INTO invoice_charges (
			invoice_id, bl_reference, charge_category, provider_type,
			container, description, amount
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	exec := getExecutor(ctx, r.db)
	for _, c := range charges {
		if _, err := exec.ExecContext(ctx, insert,
			invoiceID.String(),
			c.BookingID,
			string(c.ChargeCategory),
			string(c.ProviderType),
			c.Container,
			c.Description,
			c.Amount.String(),
		); err != nil {
			return fmt.Errorf("failed to save invoice charge: %w", err)
		}
	}
	return nil
}

// loadCharges reads the charge lines of one invoice.
func (r *InvoiceRepository) loadCharges(ctx context.Context, invoiceID uuid.UUID) ([]valueobject.BookingCharge, error) {
	query := `
		SELECT bl_reference, charge_category, provider_type, container, description, amount
		FROM invoice_charges
		WHERE invoice_id = ?
		ORDER BY id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, invoiceID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice charges: %w", err)
	}
	defer rows.Close()

	var charges []valueobject.BookingCharge
	for rows.Next() {
		var c valueobject.BookingCharge
		var category, providerType, amount string
		if err := rows.Scan(
			&c.BookingID, &category, &providerType, &c.Container, &c.Description, &amount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice charge: %w", err)
		}
		c.InvoiceID = invoiceID
		c.ChargeCategory = domain.ChargeCategory(category)
		c.ProviderType = domain.ProviderType(providerType)
		if c.Amount, err = valueobject.NewMoneyFromString(amount); err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

// sourceCols carries the nullable source document columns.
type sourceCols struct {
	documentID, filename, hashAlgorithm, hash interface{}
}

func sourceColumns(ref *valueobject.DocumentReference) sourceCols {
	if ref == nil {
		return sourceCols{}
	}
	return sourceCols{
		documentID:    ref.DocumentID.String(),
		filename:      ref.Filename,
		hashAlgorithm: ref.FileHash.Algorithm,
		hash:          ref.FileHash.Value,
	}
}

// metaCols carries the nullable extraction metadata columns.
type metaCols struct {
	aiModel, confidence, rawJSON interface{}
}

func metadataColumns(meta *valueobject.ExtractionMetadata) (metaCols, string, error) {
	if meta == nil {
		return metaCols{}, "[]", nil
	}
	edited := meta.ManuallyEditedFields
	if edited == nil {
		edited = []string{}
	}
	fields, err := json.Marshal(edited)
	if err != nil {
		return metaCols{}, "", fmt.Errorf("failed to marshal edited fields: %w", err)
	}
	return metaCols{
		aiModel:    meta.AIModel,
		confidence: string(meta.OverallConfidence),
		rawJSON:    meta.RawJSON,
	}, string(fields), nil
}

func scanClientInvoice(row scanner) (*entity.ClientInvoice, error) {
	var invoice entity.ClientInvoice
	var id, clientID, totalAmount, taxAmount string
	var srcDocID, srcFilename, srcHashAlg, srcHash sql.NullString
	var aiModel, confidence, rawJSON sql.NullString
	var editedFields string

	err := row.Scan(
		&id,
		&invoice.InvoiceNumber,
		&clientID,
		&invoice.InvoiceDate,
		&invoice.BLReference,
		&totalAmount,
		&taxAmount,
		&srcDocID,
		&srcFilename,
		&srcHashAlg,
		&srcHash,
		&aiModel,
		&confidence,
		&rawJSON,
		&editedFields,
	)
	if err != nil {
		return nil, err
	}

	if invoice.ID, err = parseUUID(id); err != nil {
		return nil, err
	}
	if invoice.ClientID, err = parseUUID(clientID); err != nil {
		return nil, err
	}
	if invoice.TotalAmount, err = valueobject.NewMoneyFromString(totalAmount); err != nil {
		return nil, err
	}
	if invoice.TaxAmount, err = valueobject.NewMoneyFromString(taxAmount); err != nil {
		return nil, err
	}
	if invoice.SourceDocument, err = scanSource(srcDocID, srcFilename, srcHashAlg, srcHash); err != nil {
		return nil, err
	}
	if invoice.ExtractionMetadata, err = scanMetadata(aiModel, confidence, rawJSON, editedFields); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func scanProviderInvoice(row scanner) (*entity.ProviderInvoice, error) {
	var invoice entity.ProviderInvoice
	var id, providerID, providerType, blRefs, totalAmount, taxAmount string
	var srcDocID, srcFilename, srcHashAlg, srcHash sql.NullString
	var aiModel, confidence, rawJSON sql.NullString
	var editedFields string

	err := row.Scan(
		&id,
		&invoice.InvoiceNumber,
		&providerID,
		&providerType,
		&invoice.InvoiceDate,
		&blRefs,
		&totalAmount,
		&taxAmount,
		&srcDocID,
		&srcFilename,
		&srcHashAlg,
		&srcHash,
		&aiModel,
		&confidence,
		&rawJSON,
		&editedFields,
	)
	if err != nil {
		return nil, err
	}

	if invoice.ID, err = parseUUID(id); err != nil {
		return nil, err
	}
	if invoice.ProviderID, err = parseUUID(providerID); err != nil {
		return nil, err
	}
	invoice.ProviderType = domain.ProviderType(providerType)
	if blRefs != "" {
		if err := json.Unmarshal([]byte(blRefs), &invoice.BLReferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bl references: %w", err)
		}
	}
	if invoice.TotalAmount, err = valueobject.NewMoneyFromString(totalAmount); err != nil {
		return nil, err
	}
	if invoice.TaxAmount, err = valueobject.NewMoneyFromString(taxAmount); err != nil {
		return nil, err
	}
	if invoice.SourceDocument, err = scanSource(srcDocID, srcFilename, srcHashAlg, srcHash); err != nil {
		return nil, err
	}
	if invoice.ExtractionMetadata, err = scanMetadata(aiModel, confidence, rawJSON, editedFields); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func scanSource(docID, filename, hashAlg, hash sql.NullString) (*valueobject.DocumentReference, error) {
	if !docID.Valid || docID.String == "" {
		return nil, nil
	}
	id, err := parseUUID(docID.String)
	if err != nil {
		return nil, err
	}
	return &valueobject.DocumentReference{
		DocumentID: id,
		Filename:   filename.String,
		FileHash: valueobject.FileHash{
			Algorithm: hashAlg.String,
			Value:     hash.String,
		},
	}, nil
}

func scanMetadata(aiModel, confidence, rawJSON sql.NullString, editedFields string) (*valueobject.ExtractionMetadata, error) {
	if !aiModel.Valid || aiModel.String == "" {
		return nil, nil
	}
	meta := &valueobject.ExtractionMetadata{
		AIModel:           aiModel.String,
		OverallConfidence: domain.ConfidenceLevel(confidence.String),
		RawJSON:           rawJSON.String,
	}
	if editedFields != "" && editedFields != "[]" {
		if err := json.Unmarshal([]byte(editedFields), &meta.ManuallyEditedFields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal edited fields: %w", err)
		}
	}
	return meta, nil
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
