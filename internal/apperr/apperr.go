// Package apperr defines the failure kinds a checkout can end with.
//
// Every kind is a sentinel error. Callers create a concrete failure with New,
// which keeps the customer-facing reason and still matches the kind through
// errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrBusinessNotFound = fmt.Errorf("business %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)

	ErrOrderingDisabled        = errors.New("ordering disabled")
	ErrPaymentMethodNotAllowed = errors.New("payment method not allowed")
	ErrDeliveryTypeNotAllowed  = errors.New("delivery type not allowed")
	ErrOutOfStock              = errors.New("out of stock")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrBelowMinimumQuantity    = errors.New("below minimum quantity")
	ErrBelowMinimumOrder       = errors.New("below minimum order")
	ErrInvalidSelection        = errors.New("invalid selection")

	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponNotYetActive  = errors.New("coupon not yet active")
	ErrCouponExpired       = errors.New("coupon expired")
	ErrCouponExhausted     = errors.New("coupon exhausted")
	ErrCouponMinimumNotMet = errors.New("coupon minimum not met")
)

// Error is a rule violation with a reason that is safe to show to customers.
type Error struct {
	kind   error
	reason string
}

// New builds an Error of the given kind. The reason is formatted with fmt.Sprintf.
func New(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, reason: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.reason
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Kind returns the sentinel the error was created with.
func (e *Error) Kind() error {
	return e.kind
}

// Reason extracts the customer-facing reason from err. The second result is
// false when err is not (and does not wrap) an *Error.
func Reason(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.reason, true
	}
	return "", false
}
