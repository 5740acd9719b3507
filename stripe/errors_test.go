package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v82"
)

func TestFromStripeErrorCardCodes(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name        string
		code        stripeapi.ErrorCode
		declineCode stripeapi.DeclineCode
		want        Code
	}{
		{"declined", stripeapi.ErrorCodeCardDeclined, "", CodeCardDeclined},
		{"insufficient funds", stripeapi.ErrorCodeCardDeclined, "insufficient_funds", CodeInsufficientFunds},
		{"expired", stripeapi.ErrorCodeExpiredCard, "", CodeExpiredCard},
		{"incorrect number", stripeapi.ErrorCodeIncorrectNumber, "", CodeInvalidNumber},
		{"invalid number", stripeapi.ErrorCodeInvalidNumber, "", CodeInvalidNumber},
		{"incorrect cvc", stripeapi.ErrorCodeIncorrectCVC, "", CodeInvalidCVC},
		{"invalid expiry month", stripeapi.ErrorCodeInvalidExpiryMonth, "", CodeInvalidExpiry},
		{"invalid expiry year", stripeapi.ErrorCodeInvalidExpiryYear, "", CodeInvalidExpiry},
		{"authentication required", stripeapi.ErrorCodeAuthenticationRequired, "", CodeAuthenticationRequired},
		{"processing error", stripeapi.ErrorCodeProcessingError, "", CodeProcessingError},
	}
	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			err := &stripeapi.Error{
				Type:        stripeapi.ErrorTypeCard,
				Code:        tc.code,
				DeclineCode: tc.declineCode,
			}
			pe := FromStripeError(err)
			c.Assert(pe.Code, qt.Equals, tc.want)
		})
	}
}

func TestFromStripeErrorTransportShapes(t *testing.T) {
	c := qt.New(t)

	c.Assert(FromStripeError(nil), qt.IsNil)

	pe := FromStripeError(context.DeadlineExceeded)
	c.Assert(pe.Code, qt.Equals, CodeTimeout)

	pe = FromStripeError(&url.Error{Op: "Post", URL: "https://api.stripe.com", Err: errors.New("refused")})
	c.Assert(pe.Code, qt.Equals, CodeAPIConnection)

	pe = FromStripeError(errors.New("something odd"))
	c.Assert(pe.Code, qt.Equals, CodeUnknown)

	// Already-mapped errors pass through untouched, even when wrapped.
	orig := NewPaymentError(CodeCardDeclined, "declined", nil)
	wrapped := fmt.Errorf("create intent: %w", orig)
	c.Assert(FromStripeError(wrapped), qt.Equals, orig)
}

func TestFromStripeErrorAPIAndRequestTypes(t *testing.T) {
	c := qt.New(t)

	pe := FromStripeError(&stripeapi.Error{Type: stripeapi.ErrorTypeAPI, HTTPStatusCode: 500})
	c.Assert(pe.Code, qt.Equals, CodeAPIError)
	c.Assert(pe.HTTPStatus, qt.Equals, 500)

	pe = FromStripeError(&stripeapi.Error{Type: stripeapi.ErrorTypeAPI, HTTPStatusCode: 429})
	c.Assert(pe.Code, qt.Equals, CodeRateLimited)

	pe = FromStripeError(&stripeapi.Error{
		Type: stripeapi.ErrorTypeInvalidRequest,
		Code: stripeapi.ErrorCodeRateLimit,
	})
	c.Assert(pe.Code, qt.Equals, CodeRateLimited)

	pe = FromStripeError(&stripeapi.Error{Type: stripeapi.ErrorTypeInvalidRequest, HTTPStatusCode: 401})
	c.Assert(pe.Code, qt.Equals, CodeAuthenticationFailed)

	pe = FromStripeError(&stripeapi.Error{Type: stripeapi.ErrorTypeInvalidRequest, HTTPStatusCode: 400})
	c.Assert(pe.Code, qt.Equals, CodeInvalidRequest)

	pe = FromStripeError(&stripeapi.Error{Type: stripeapi.ErrorTypeIdempotency})
	c.Assert(pe.Code, qt.Equals, CodeInvalidRequest)
}

func TestIsRetryable(t *testing.T) {
	c := qt.New(t)

	c.Assert(IsRetryable(nil), qt.IsFalse)

	retryable := []Code{CodeRateLimited, CodeAPIConnection, CodeAPIError, CodeTimeout, CodeAuthenticationRequired}
	for _, code := range retryable {
		c.Assert(IsRetryable(NewPaymentError(code, "x", nil)), qt.IsTrue,
			qt.Commentf("code %s", code))
	}

	notRetryable := []Code{
		CodeCardDeclined, CodeInsufficientFunds, CodeExpiredCard,
		CodeInvalidNumber, CodeInvalidCVC, CodeInvalidExpiry,
		CodeInvalidRequest, CodeAuthenticationFailed, CodeUnknown,
	}
	for _, code := range notRetryable {
		c.Assert(IsRetryable(NewPaymentError(code, "x", nil)), qt.IsFalse,
			qt.Commentf("code %s", code))
	}
}

func TestIsRetryableHTTPStatuses(t *testing.T) {
	c := qt.New(t)

	for _, status := range []int{408, 429, 500, 502, 503, 504} {
		err := &PaymentError{Code: CodeUnknown, HTTPStatus: status}
		c.Assert(IsRetryable(err), qt.IsTrue, qt.Commentf("status %d", status))
	}
	for _, status := range []int{400, 401, 402, 403, 404, 409, 422} {
		err := &PaymentError{Code: CodeUnknown, HTTPStatus: status}
		c.Assert(IsRetryable(err), qt.IsFalse, qt.Commentf("status %d", status))
	}
}

func TestRequiresUserAction(t *testing.T) {
	c := qt.New(t)

	c.Assert(RequiresUserAction(nil), qt.IsFalse)

	userAction := []Code{
		CodeCardDeclined, CodeInsufficientFunds, CodeExpiredCard,
		CodeInvalidNumber, CodeInvalidCVC, CodeInvalidExpiry,
		CodeAuthenticationRequired,
	}
	for _, code := range userAction {
		c.Assert(RequiresUserAction(NewPaymentError(code, "x", nil)), qt.IsTrue,
			qt.Commentf("code %s", code))
	}

	for _, code := range []Code{CodeRateLimited, CodeAPIError, CodeTimeout, CodeInvalidRequest, CodeUnknown} {
		c.Assert(RequiresUserAction(NewPaymentError(code, "x", nil)), qt.IsFalse,
			qt.Commentf("code %s", code))
	}
}

// A 3-D Secure challenge is both retryable and user-actionable: the predicates
// overlap on purpose.
func TestAuthenticationRequiredIsBoth(t *testing.T) {
	c := qt.New(t)

	err := NewPaymentError(CodeAuthenticationRequired, "3DS required", nil)
	c.Assert(IsRetryable(err), qt.IsTrue)
	c.Assert(RequiresUserAction(err), qt.IsTrue)
}

func TestPaymentErrorUnwrap(t *testing.T) {
	c := qt.New(t)

	inner := errors.New("boom")
	pe := NewPaymentError(CodeAPIError, "upstream", inner)
	c.Assert(errors.Is(pe, inner), qt.IsTrue)
	c.Assert(pe.Error(), qt.Contains, "api_error")
	c.Assert(pe.Error(), qt.Contains, "boom")
}
