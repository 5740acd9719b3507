package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/floatpay/payments-backend/api/apicommon"
	"github.com/floatpay/payments-backend/db"
	"github.com/floatpay/payments-backend/errors"
	"github.com/floatpay/payments-backend/stripe"
)

// createSubscriptionHandler handles requests to create a new subscription for
// the authenticated customer.
func (a *API) createSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	customer, ok := a.requestCustomer(w, r)
	if !ok {
		return
	}
	req := &apicommon.SubscriptionRequest{}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}
	if req.PriceID == "" {
		errors.ErrInvalidPriceID.Withf("priceId is required").Write(w)
		return
	}

	result, err := a.stripe.CreateSubscription(r.Context(), customer, req.PriceID, req.Quantity)
	if err != nil {
		a.writePaymentError(w, err)
		return
	}

	response := apicommon.SubscriptionResponseFromRecord(result.Record)
	response.ClientSecret = result.ClientSecret
	apicommon.HTTPWriteJSON(w, response)
}

// subscriptionInfoHandler returns a subscription of the authenticated
// customer.
func (a *API) subscriptionInfoHandler(w http.ResponseWriter, r *http.Request) {
	_, record, ok := a.subscriptionFromRequest(w, r)
	if !ok {
		return
	}
	apicommon.HTTPWriteJSON(w, apicommon.SubscriptionResponseFromRecord(record))
}

// subscriptionsListHandler returns the subscriptions of the authenticated
// customer, newest first.
func (a *API) subscriptionsListHandler(w http.ResponseWriter, r *http.Request) {
	customer, ok := a.requestCustomer(w, r)
	if !ok {
		return
	}
	records, err := a.stripe.CustomerSubscriptions(customer.ID)
	if err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}

	response := &apicommon.SubscriptionListResponse{
		Subscriptions: []*apicommon.SubscriptionResponse{},
	}
	for _, record := range records {
		response.Subscriptions = append(response.Subscriptions, apicommon.SubscriptionResponseFromRecord(record))
	}
	apicommon.HTTPWriteJSON(w, response)
}

// updateSubscriptionHandler applies changes to a subscription of the
// authenticated customer.
func (a *API) updateSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	_, record, ok := a.subscriptionFromRequest(w, r)
	if !ok {
		return
	}
	req := &apicommon.SubscriptionUpdateRequest{}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		errors.ErrMalformedBody.Write(w)
		return
	}

	updated, err := a.stripe.UpdateSubscription(r.Context(), record.ID, &stripe.SubscriptionUpdateParams{
		PriceID:           req.PriceID,
		Quantity:          req.Quantity,
		CancelAtPeriodEnd: req.CancelAtPeriodEnd,
	})
	if err != nil {
		a.writePaymentError(w, err)
		return
	}
	apicommon.HTTPWriteJSON(w, apicommon.SubscriptionResponseFromRecord(updated))
}

// cancelSubscriptionHandler cancels a subscription of the authenticated
// customer immediately.
func (a *API) cancelSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	_, record, ok := a.subscriptionFromRequest(w, r)
	if !ok {
		return
	}
	updated, err := a.stripe.CancelSubscription(r.Context(), record.ID)
	if err != nil {
		a.writePaymentError(w, err)
		return
	}
	apicommon.HTTPWriteJSON(w, apicommon.SubscriptionResponseFromRecord(updated))
}

// subscriptionFromRequest resolves the subscription named in the URL and
// checks it belongs to the authenticated customer. On failure it writes the
// error response and returns false.
func (a *API) subscriptionFromRequest(w http.ResponseWriter, r *http.Request) (*db.Customer, *db.Subscription, bool) {
	customer, ok := a.requestCustomer(w, r)
	if !ok {
		return nil, nil, false
	}
	subscriptionID := chi.URLParam(r, "subscriptionID")
	if subscriptionID == "" {
		errors.ErrMalformedURLParam.Withf("subscriptionID is required").Write(w)
		return nil, nil, false
	}
	record, err := a.stripe.Subscription(subscriptionID)
	if err != nil {
		if err == db.ErrNotFound {
			errors.ErrSubscriptionNotFound.Write(w)
			return nil, nil, false
		}
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return nil, nil, false
	}
	// a customer can only see its own subscriptions
	if record.CustomerID != customer.ID {
		errors.ErrSubscriptionNotFound.Write(w)
		return nil, nil, false
	}
	return customer, record, true
}
