// Package errors provides custom error types and definitions for the application.
//
//nolint:lll
package errors

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the client's fault,
// and they return HTTP Status 400, 401, 402, 404 or 429, whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// If you notice there's a gap, that code was used in the past for some error (not anymore) and shouldn't be reused.
// There's no correlation between Code and HTTP Status.
var (
	// Authentication errors (401)
	ErrUnauthorized = Error{Code: 40001, HTTPstatus: http.StatusUnauthorized, Err: fmt.Errorf("authentication required"), LogLevel: "info"}

	// Validation errors (400)
	ErrMalformedBody     = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid JSON request body")}
	ErrInvalidAmount     = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("payment amount must be a positive integer of minor currency units")}
	ErrInvalidCurrency   = Error{Code: 40004, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid ISO 4217 currency code")}
	ErrMalformedURLParam = Error{Code: 40005, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("invalid URL parameter")}
	ErrInvalidPriceID    = Error{Code: 40006, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("subscription price identifier is required")}

	// Payment errors (402)
	ErrPaymentDeclined = Error{Code: 40201, HTTPstatus: http.StatusPaymentRequired, Err: fmt.Errorf("payment was declined"), LogLevel: "info"}

	// Not found errors (404)
	ErrCustomerNotFound      = Error{Code: 40007, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("customer not found")}
	ErrPaymentIntentNotFound = Error{Code: 40008, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("payment intent not found")}
	ErrSubscriptionNotFound  = Error{Code: 40009, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("subscription not found")}

	// Conflict errors (409)
	ErrDuplicateConflict = Error{Code: 40901, HTTPstatus: http.StatusConflict, Err: fmt.Errorf("resource already exists")}

	// Rate limit errors (429)
	ErrTooManyRequests = Error{Code: 42901, HTTPstatus: http.StatusTooManyRequests, Err: fmt.Errorf("too many requests, slow down"), LogLevel: "info"}

	// Server errors (500) - These should be used sparingly and only for true internal errors
	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: failed to process response"), LogLevel: "error"}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: operation failed"), LogLevel: "error"}
	ErrStripeError                = Error{Code: 50003, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: payment processing failed"), LogLevel: "error"}
	ErrStripeWebhookError         = Error{Code: 50004, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: stripe webhook failed"), LogLevel: "error"}
	ErrInternalStorageError       = Error{Code: 50005, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("server error: storage operation failed"), LogLevel: "error"}
)
