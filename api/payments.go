package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/floatpay/payments-backend/api/apicommon"
	"github.com/floatpay/payments-backend/db"
	"github.com/floatpay/payments-backend/errors"
)

// validCurrencies is the set of ISO 4217 codes accepted for charges.
var validCurrencies = map[string]bool{
	"usd": true,
	"eur": true,
	"gbp": true,
	"chf": true,
}

// createPaymentIntentHandler handles requests to create a new payment intent
// for the authenticated customer.
func (a *API) createPaymentIntentHandler(w http.ResponseWriter, r *http.Request) {
	customer, ok := a.requestCustomer(w, r)
	if !ok {
		return
	}
	req := &apicommon.PaymentIntentRequest{}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if req.AmountCents <= 0 {
		errors.ErrInvalidAmount.Withf("amount must be positive, got %d", req.AmountCents).Write(w)
		return
	}
	if req.Currency != "" && !validCurrencies[req.Currency] {
		errors.ErrInvalidCurrency.Withf("unsupported currency %q", req.Currency).Write(w)
		return
	}

	result, err := a.stripe.CreatePaymentIntent(r.Context(), customer,
		req.AmountCents, req.Currency, req.Description, req.IdempotencyKey)
	if err != nil {
		a.writePaymentError(w, err)
		return
	}

	apicommon.HTTPWriteJSON(w, &apicommon.PaymentIntentResponse{
		IntentID:     result.Record.ID,
		ClientSecret: result.ClientSecret,
		Status:       result.Record.Status,
		AmountCents:  result.Record.AmountCents,
		Currency:     result.Record.Currency,
	})
}

// paymentIntentInfoHandler returns the current status of a payment intent of
// the authenticated customer.
func (a *API) paymentIntentInfoHandler(w http.ResponseWriter, r *http.Request) {
	customer, ok := a.requestCustomer(w, r)
	if !ok {
		return
	}
	intentID := chi.URLParam(r, "intentID")
	if intentID == "" {
		errors.ErrMalformedURLParam.Withf("intentID is required").Write(w)
		return
	}

	record, err := a.stripe.PaymentIntent(r.Context(), intentID)
	if err != nil {
		if err == db.ErrNotFound {
			errors.ErrPaymentIntentNotFound.Write(w)
			return
		}
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	// a customer can only see its own payments
	if record.CustomerID != customer.ID {
		errors.ErrPaymentIntentNotFound.Write(w)
		return
	}

	apicommon.HTTPWriteJSON(w, &apicommon.PaymentIntentResponse{
		IntentID:    record.ID,
		Status:      record.Status,
		AmountCents: record.AmountCents,
		Currency:    record.Currency,
	})
}

// paymentsListHandler returns the payment records of the authenticated
// customer, newest first.
func (a *API) paymentsListHandler(w http.ResponseWriter, r *http.Request) {
	customer, ok := a.requestCustomer(w, r)
	if !ok {
		return
	}
	records, err := a.db.PaymentsByCustomer(customer.ID)
	if err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}

	response := &apicommon.PaymentListResponse{
		Payments: []*apicommon.PaymentIntentResponse{},
	}
	for _, record := range records {
		response.Payments = append(response.Payments, &apicommon.PaymentIntentResponse{
			IntentID:    record.ID,
			Status:      record.Status,
			AmountCents: record.AmountCents,
			Currency:    record.Currency,
		})
	}
	apicommon.HTTPWriteJSON(w, response)
}
