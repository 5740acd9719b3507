package stripe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	stripeapi "github.com/stripe/stripe-go/v82"
)

// Code is a closed set of payment error categories. Every error observed at
// the Stripe boundary is mapped to exactly one Code by FromStripeError, so
// downstream classification switches on variants instead of poking at the
// vendor's loosely-typed code strings.
type Code string

const (
	// User-correctable card failures. The system must not retry these;
	// the end user is expected to fix the input and start a fresh attempt.
	CodeCardDeclined           Code = "card_declined"
	CodeInsufficientFunds      Code = "insufficient_funds"
	CodeExpiredCard            Code = "expired_card"
	CodeInvalidNumber          Code = "invalid_number"
	CodeInvalidCVC             Code = "invalid_cvc"
	CodeInvalidExpiry          Code = "invalid_expiry"
	CodeProcessingError        Code = "processing_error"
	CodeAuthenticationRequired Code = "authentication_required"

	// Transient upstream failures, safe to retry.
	CodeRateLimited   Code = "rate_limited"
	CodeAPIConnection Code = "api_connection"
	CodeAPIError      Code = "api_error"
	CodeTimeout       Code = "timeout"

	// Caller or configuration faults, never retried.
	CodeInvalidRequest       Code = "invalid_request"
	CodeAuthenticationFailed Code = "authentication_failed"
	CodeWebhookValidation    Code = "webhook_validation"
	CodeInvalidEvent         Code = "invalid_event"

	CodeUnknown Code = "unknown"
)

// PaymentError is the tagged error produced at the Stripe boundary.
type PaymentError struct {
	Code       Code
	Message    string
	HTTPStatus int // upstream HTTP status, 0 when not applicable
	Err        error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment error [%s]: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("payment error [%s]: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError with the given category, message
// and underlying error.
func NewPaymentError(code Code, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// FromStripeError maps any error coming back from the Stripe SDK (or the
// transport underneath it) into a PaymentError. Already-mapped errors pass
// through untouched. Unrecognized shapes map to CodeUnknown; the function is
// total and never returns nil for a non-nil input.
func FromStripeError(err error) *PaymentError {
	if err == nil {
		return nil
	}
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe
	}

	var se *stripeapi.Error
	if errors.As(err, &se) {
		return &PaymentError{
			Code:       codeFromStripe(se),
			Message:    se.Msg,
			HTTPStatus: se.HTTPStatusCode,
			Err:        err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewPaymentError(CodeTimeout, "request to payment provider timed out", err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return NewPaymentError(CodeTimeout, "request to payment provider timed out", err)
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return NewPaymentError(CodeAPIConnection, "could not reach payment provider", err)
	}

	return NewPaymentError(CodeUnknown, "unexpected payment provider error", err)
}

// codeFromStripe maps the vendor error taxonomy (type + code + decline code +
// HTTP status) to our closed category set.
func codeFromStripe(se *stripeapi.Error) Code {
	switch se.Type {
	case stripeapi.ErrorTypeCard:
		switch se.Code {
		case stripeapi.ErrorCodeCardDeclined:
			if string(se.DeclineCode) == "insufficient_funds" {
				return CodeInsufficientFunds
			}
			return CodeCardDeclined
		case stripeapi.ErrorCodeExpiredCard:
			return CodeExpiredCard
		case stripeapi.ErrorCodeIncorrectNumber, stripeapi.ErrorCodeInvalidNumber:
			return CodeInvalidNumber
		case stripeapi.ErrorCodeIncorrectCVC, stripeapi.ErrorCodeInvalidCVC:
			return CodeInvalidCVC
		case stripeapi.ErrorCodeInvalidExpiryMonth, stripeapi.ErrorCodeInvalidExpiryYear:
			return CodeInvalidExpiry
		case stripeapi.ErrorCodeAuthenticationRequired:
			return CodeAuthenticationRequired
		case stripeapi.ErrorCodeProcessingError:
			return CodeProcessingError
		default:
			return CodeCardDeclined
		}
	case stripeapi.ErrorTypeInvalidRequest:
		if se.Code == stripeapi.ErrorCodeRateLimit || se.HTTPStatusCode == 429 {
			return CodeRateLimited
		}
		if se.HTTPStatusCode == 401 || se.HTTPStatusCode == 403 {
			return CodeAuthenticationFailed
		}
		return CodeInvalidRequest
	case stripeapi.ErrorTypeIdempotency:
		return CodeInvalidRequest
	case stripeapi.ErrorTypeAPI:
		if se.HTTPStatusCode == 429 {
			return CodeRateLimited
		}
		return CodeAPIError
	default:
		return CodeUnknown
	}
}

// retryableCodes are the categories worth another attempt without user
// involvement. CodeAuthenticationRequired appears both here and in
// userActionCodes: a 3-D Secure challenge can be retried, but only after the
// user completes it. The two predicates are deliberately not exclusive.
var retryableCodes = map[Code]bool{
	CodeRateLimited:            true,
	CodeAPIConnection:          true,
	CodeAPIError:               true,
	CodeTimeout:                true,
	CodeAuthenticationRequired: true,
}

// retryableStatuses is the HTTP status set treated as transient regardless of
// the mapped category.
var retryableStatuses = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

var userActionCodes = map[Code]bool{
	CodeCardDeclined:           true,
	CodeInsufficientFunds:      true,
	CodeExpiredCard:            true,
	CodeInvalidNumber:          true,
	CodeInvalidCVC:             true,
	CodeInvalidExpiry:          true,
	CodeAuthenticationRequired: true,
}

// IsRetryable reports whether reattempting the same operation unchanged has a
// reasonable chance of succeeding. Nil errors are not retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	pe := FromStripeError(err)
	if retryableCodes[pe.Code] {
		return true
	}
	return retryableStatuses[pe.HTTPStatus]
}

// RequiresUserAction reports whether the failure can only be resolved by the
// end user correcting their input (new card, completed authentication, ...).
// It is informative alongside IsRetryable, not exclusive of it.
func RequiresUserAction(err error) bool {
	if err == nil {
		return false
	}
	return userActionCodes[FromStripeError(err).Code]
}

// CodeOf returns the category an arbitrary error maps to. Nil errors map to
// CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	return FromStripeError(err).Code
}
