package domain

import "strings"

// BookingStatus is the lifecycle status of a booking.
type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "PENDING"
	BookingStatusComplete BookingStatus = "COMPLETE"
)

// ProcessingStatus is the lifecycle status of an imported document.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "PENDING"
	ProcessingStatusProcessing ProcessingStatus = "PROCESSING"
	ProcessingStatusProcessed  ProcessingStatus = "PROCESSED"
	ProcessingStatusError      ProcessingStatus = "ERROR"
)

// DocumentType is the classification of an extracted document.
type DocumentType string

const (
	DocumentTypeClientInvoice   DocumentType = "CLIENT_INVOICE"
	DocumentTypeProviderInvoice DocumentType = "PROVIDER_INVOICE"
	DocumentTypeOther           DocumentType = "OTHER"
)

// ParseDocumentType parses a document type string. Unlike charge
// categories and provider types there is no lenient default here: an
// unknown document type is a caller error.
func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(strings.ToUpper(strings.TrimSpace(s))) {
	case DocumentTypeClientInvoice:
		return DocumentTypeClientInvoice, true
	case DocumentTypeProviderInvoice:
		return DocumentTypeProviderInvoice, true
	case DocumentTypeOther:
		return DocumentTypeOther, true
	default:
		return "", false
	}
}

// ProviderType identifies the kind of service provider behind a cost
// charge. An empty ProviderType on a charge means the charge is revenue.
type ProviderType string

const (
	ProviderTypeShipping   ProviderType = "SHIPPING"
	ProviderTypeCarrier    ProviderType = "CARRIER"
	ProviderTypeInspection ProviderType = "INSPECTION"
	ProviderTypeOther      ProviderType = "OTHER"
)

// ParseProviderType maps a raw extracted value to a ProviderType.
// Unrecognized or missing values default to OTHER; upstream extraction
// is lossy and an unknown vendor kind is not a processing failure.
func ParseProviderType(s string) ProviderType {
	switch ProviderType(strings.ToUpper(strings.TrimSpace(s))) {
	case ProviderTypeShipping:
		return ProviderTypeShipping
	case ProviderTypeCarrier:
		return ProviderTypeCarrier
	case ProviderTypeInspection:
		return ProviderTypeInspection
	default:
		return ProviderTypeOther
	}
}

// ChargeCategory describes the service behind a charge line.
type ChargeCategory string

const (
	ChargeCategoryFreight       ChargeCategory = "FREIGHT"
	ChargeCategoryHandling      ChargeCategory = "HANDLING"
	ChargeCategoryDocumentation ChargeCategory = "DOCUMENTATION"
	ChargeCategoryTransport     ChargeCategory = "TRANSPORT"
	ChargeCategoryInspection    ChargeCategory = "INSPECTION"
	ChargeCategoryInsurance     ChargeCategory = "INSURANCE"
	ChargeCategoryOther         ChargeCategory = "OTHER"
)

// ParseChargeCategory maps a raw extracted value to a ChargeCategory,
// defaulting unrecognized values to OTHER.
func ParseChargeCategory(s string) ChargeCategory {
	switch ChargeCategory(strings.ToUpper(strings.TrimSpace(s))) {
	case ChargeCategoryFreight:
		return ChargeCategoryFreight
	case ChargeCategoryHandling:
		return ChargeCategoryHandling
	case ChargeCategoryDocumentation:
		return ChargeCategoryDocumentation
	case ChargeCategoryTransport:
		return ChargeCategoryTransport
	case ChargeCategoryInspection:
		return ChargeCategoryInspection
	case ChargeCategoryInsurance:
		return ChargeCategoryInsurance
	default:
		return ChargeCategoryOther
	}
}

// ConfidenceLevel is the AI extraction confidence reported with a
// reviewed payload.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// ParseConfidenceLevel maps a raw value to a ConfidenceLevel, defaulting
// to LOW for anything unrecognized.
func ParseConfidenceLevel(s string) ConfidenceLevel {
	switch ConfidenceLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
