// Package fault defines the typed validation failures raised by the
// reconciliation core. Every failure is synchronous and caller
// recoverable; callers branch on the kind with KindOf or errors.As
// instead of matching message strings.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind string

const (
	// KindNotFound means a referenced entity does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindMissingRequiredField means a mandatory invoice field is absent.
	KindMissingRequiredField Kind = "MISSING_REQUIRED_FIELD"
	// KindMissingIdentity means the party tax id needed to resolve the
	// counterparty is absent.
	KindMissingIdentity Kind = "MISSING_IDENTITY"
	// KindNoBookingReference means neither explicit BL references nor
	// per-charge tags resolve to any booking.
	KindNoBookingReference Kind = "NO_BOOKING_REFERENCE"
	// KindDuplicateInvoice means the (invoice number, party) pair is
	// already recorded.
	KindDuplicateInvoice Kind = "DUPLICATE_INVOICE"
	// KindUnclassifiable means the company NIF matches neither issuer
	// nor recipient.
	KindUnclassifiable Kind = "UNCLASSIFIABLE_INVOICE"
	// KindAllocation means the tax allocator was called with empty or
	// zero-sum booking amounts.
	KindAllocation Kind = "ALLOCATION_ERROR"
	// KindChargeMismatch means a charge's booking reference disagrees
	// with the booking it is being attached to. This is a programmer
	// error, not a data error.
	KindChargeMismatch Kind = "CHARGE_MISMATCH"
	// KindInvalidInput covers malformed request values (bad document
	// type, unparseable date or amount).
	KindInvalidInput Kind = "INVALID_INPUT"
)

// Error is a kind-bearing domain failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a fault with the given kind and formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err if it is (or wraps) a fault, or ""
// otherwise.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
