package api

import (
	"context"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/floatpay/payments-backend/api/apicommon"
	"github.com/floatpay/payments-backend/db"
	"github.com/floatpay/payments-backend/errors"
	"github.com/floatpay/payments-backend/stripe"
)

// buildLoginResponse creates a JWT token for the given customer identifier.
// The token is signed with the API secret, following the JWT specification.
// The token is valid for the period specified on jwtExpiration constant.
func (a *API) buildLoginResponse(id string) (*apicommon.LoginResponse, error) {
	j := jwt.New()
	if err := j.Set("userId", id); err != nil {
		return nil, err
	}
	if err := j.Set(jwt.ExpirationKey, time.Now().Add(jwtExpiration).UnixNano()); err != nil {
		return nil, err
	}
	lr := apicommon.LoginResponse{}
	lr.Expirity = time.Now().Add(jwtExpiration)
	jmap, err := j.AsMap(context.Background())
	if err != nil {
		return nil, err
	}
	_, lr.Token, _ = a.auth.Encode(jmap)
	return &lr, nil
}

// requestCustomer resolves the customer record for the authenticated request,
// creating it on first use. On failure it writes the error response and
// returns false.
func (a *API) requestCustomer(w http.ResponseWriter, r *http.Request) (*db.Customer, bool) {
	email, ok := apicommon.CustomerEmailFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return nil, false
	}
	customer, err := a.stripe.EnsureCustomer(r.Context(), email, "")
	if err != nil {
		a.writePaymentError(w, err)
		return nil, false
	}
	return customer, true
}

// writePaymentError maps a payment failure to the API error taxonomy. Errors
// the end user can fix carry the friendly message and remediation steps in
// the error data.
func (a *API) writePaymentError(w http.ResponseWriter, err error) {
	if stripe.RequiresUserAction(err) {
		errors.ErrPaymentDeclined.WithErr(err).WithData(&apicommon.PaymentFailure{
			Code:        string(stripe.CodeOf(err)),
			Message:     stripe.FriendlyMessage(err),
			Suggestions: stripe.Suggestions(err),
		}).Write(w)
		return
	}
	switch stripe.CodeOf(err) {
	case stripe.CodeRateLimited:
		errors.ErrTooManyRequests.WithErr(err).Write(w)
	case stripe.CodeInvalidRequest:
		errors.ErrMalformedBody.WithErr(err).Write(w)
	default:
		errors.ErrStripeError.WithErr(err).Write(w)
	}
}
