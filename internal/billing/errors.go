package billing

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
)

var (
	// ErrStripe marks every failure reported by the payment provider.
	ErrStripe = errors.New("stripe request failed")
	// ErrInvalidSignature is returned for webhook payloads that fail
	// signature verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent is returned when a verified event body cannot be decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// StripeError carries the provider's error code and message. It matches
// ErrStripe with errors.Is.
type StripeError struct {
	Code       string
	Message    string
	HTTPStatus int
}

func (e *StripeError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("stripe: %s", e.Message)
	}
	return fmt.Sprintf("stripe: %s (%s)", e.Message, e.Code)
}

func (e *StripeError) Is(target error) bool {
	return target == ErrStripe
}

// IsClientError reports whether Stripe rejected the request itself (4xx)
// rather than failing to process it.
func (e *StripeError) IsClientError() bool {
	return e.HTTPStatus >= 400 && e.HTTPStatus < 500
}

func wrapStripeError(err error) error {
	if err == nil {
		return nil
	}
	var se *stripe.Error
	if errors.As(err, &se) {
		return &StripeError{Code: string(se.Code), Message: se.Msg, HTTPStatus: se.HTTPStatusCode}
	}
	return &StripeError{Message: err.Error()}
}
