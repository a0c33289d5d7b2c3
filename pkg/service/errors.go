package service

import (
	"errors"
	"fmt"
)

// Kind classifies every business-rule violation the workflow can report.
// Infrastructure failures are KindFatal; they abort the operation with
// compensation already applied.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
	KindInvalidTransition  Kind = "invalid_transition"
	KindInvalidAddress     Kind = "invalid_address"
	KindInvalidQuantity    Kind = "invalid_quantity"
	KindInvalidStatus      Kind = "invalid_status"
	KindEmptyCart          Kind = "empty_cart"
	KindProductUnavailable Kind = "product_unavailable"
	KindInsufficientStock  Kind = "insufficient_stock"
	KindMixedSellers       Kind = "mixed_sellers"
	KindSelfPurchase       Kind = "self_purchase"
	KindAlreadyDelivered   Kind = "already_delivered"
	KindOrderNotDelivered  Kind = "order_not_delivered"
	KindProductNotInOrder  Kind = "product_not_in_order"
	KindDuplicateReview    Kind = "duplicate_review"
	KindFatal              Kind = "fatal"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a business error of the given kind.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Fatal wraps an unexpected infrastructure error.
func Fatal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindFatal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, or KindFatal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
