package api

import "time"

const (
	jwtExpiration = 360 * time.Hour // 15 days

	// maxWebhookBodyBytes bounds the webhook payload size accepted from
	// Stripe.
	maxWebhookBodyBytes = int64(65536)

	// maxRequestBodyBytes bounds the JSON body size accepted on API
	// endpoints.
	maxRequestBodyBytes = int64(1 << 20)
)
