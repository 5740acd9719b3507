package api

import (
	"io"
	"net/http"

	"go.vocdoni.io/dvote/log"

	"github.com/floatpay/payments-backend/stripe"
)

// handleWebhook handles the incoming webhook event from Stripe. It verifies
// the Stripe signature and processes payment intent and subscription
// lifecycle events. Stripe retries deliveries that do not get a 2xx answer,
// so validation failures return 4xx (retrying cannot help) while processing
// failures return 5xx (a retry may succeed).
func (a *API) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if a.stripe == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Errorf("stripe webhook: error reading request body: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signatureHeader := r.Header.Get("Stripe-Signature")
	if signatureHeader == "" {
		log.Warnw("stripe webhook: missing signature header")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := a.stripe.HandleWebhookEvent(payload, signatureHeader); err != nil {
		switch stripe.CodeOf(err) {
		case stripe.CodeWebhookValidation, stripe.CodeInvalidEvent:
			log.Warnw("stripe webhook: invalid event", "error", err)
			w.WriteHeader(http.StatusBadRequest)
		default:
			log.Errorw(err, "stripe webhook: event processing failed")
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}
