package api

import (
	"net/http"

	"github.com/floatpay/payments-backend/api/apicommon"
	"github.com/floatpay/payments-backend/errors"
)

// refreshTokenHandler refreshes the JWT token for an authenticated caller.
func (a *API) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	// get the customer email from the request context
	email, ok := apicommon.CustomerEmailFromContext(r.Context())
	if !ok {
		errors.ErrUnauthorized.Write(w)
		return
	}
	// generate a new token with the customer email as the subject
	res, err := a.buildLoginResponse(email)
	if err != nil {
		errors.ErrGenericInternalServerError.Write(w)
		return
	}
	// send the token back to the caller
	apicommon.HTTPWriteJSON(w, res)
}
