package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/floatpay/payments-backend/api/apicommon"
	"github.com/floatpay/payments-backend/errors"
)

// authenticator is a middleware that authenticates the caller. It decodes the
// customer identifier (its email) from the JWT token, adds it to the request
// context and passes it to the next handler. The customer record itself is
// resolved lazily by the handlers, since a first-time caller has no record
// yet.
func (a *API) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			errors.ErrUnauthorized.Write(w)
			return
		}
		if token == nil || jwt.Validate(token, jwt.WithRequiredClaim("userId")) != nil {
			errors.ErrUnauthorized.Withf("userId claim not found in JWT token").Write(w)
			return
		}
		email, ok := claims["userId"].(string)
		if !ok || email == "" {
			errors.ErrUnauthorized.Withf("invalid userId claim in JWT token").Write(w)
			return
		}
		// add the customer email to the context
		ctx := context.WithValue(r.Context(), apicommon.CustomerMetadataKey, email)
		// token is authenticated, pass it through with the new context
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
