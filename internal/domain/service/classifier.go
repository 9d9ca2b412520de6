// Package service holds the stateless domain services of the ledger:
// invoice classification and proportional tax allocation.
package service

import (
	"github.com/freightline/bookkeeper/internal/domain"
	"github.com/freightline/bookkeeper/internal/domain/entity"
	"github.com/freightline/bookkeeper/internal/domain/fault"
)

// InvoiceClassifier decides whether an extracted invoice is revenue or
// cost by comparing the company's NIF against the invoice parties:
//
//   - company is the issuer    -> CLIENT_INVOICE (we billed them)
//   - company is the recipient -> PROVIDER_INVOICE (they billed us)
//
// Matching neither side is a data or extraction error, never a valid
// business state.
type InvoiceClassifier struct {
	companyNIF string
}

// NewInvoiceClassifier creates a classifier for the given company NIF.
// The NIF must be non-empty after normalization.
func NewInvoiceClassifier(companyNIF string) (*InvoiceClassifier, error) {
	normalized := entity.NormalizeNIF(companyNIF)
	if normalized == "" {
		return nil, fault.New(fault.KindMissingIdentity,
			"company NIF is required for invoice classification")
	}
	return &InvoiceClassifier{companyNIF: normalized}, nil
}

// Classify returns the document type for an (issuer, recipient) NIF
// pair. Both inputs are normalized before comparison.
func (c *InvoiceClassifier) Classify(issuerNIF, recipientNIF string) (domain.DocumentType, error) {
	issuer := entity.NormalizeNIF(issuerNIF)
	recipient := entity.NormalizeNIF(recipientNIF)

	if issuer == c.companyNIF {
		return domain.DocumentTypeClientInvoice, nil
	}
	if recipient == c.companyNIF {
		return domain.DocumentTypeProviderInvoice, nil
	}
	return "", fault.New(fault.KindUnclassifiable,
		"cannot classify invoice: company NIF %s matches neither issuer (%s) nor recipient (%s)",
		c.companyNIF, issuer, recipient)
}

// IsRevenue reports whether the pair classifies as a client invoice.
func (c *InvoiceClassifier) IsRevenue(issuerNIF, recipientNIF string) (bool, error) {
	docType, err := c.Classify(issuerNIF, recipientNIF)
	if err != nil {
		return false, err
	}
	return docType == domain.DocumentTypeClientInvoice, nil
}

// IsCost reports whether the pair classifies as a provider invoice.
func (c *InvoiceClassifier) IsCost(issuerNIF, recipientNIF string) (bool, error) {
	docType, err := c.Classify(issuerNIF, recipientNIF)
	if err != nil {
		return false, err
	}
	return docType == domain.DocumentTypeProviderInvoice, nil
}
