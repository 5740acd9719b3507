package api

const (
	// auth routes

	// POST /auth/refresh to refresh the JWT token
	authRefreshTokenEndpoint = "/auth/refresh"

	// payment routes

	// POST /payments/intent to create a payment intent
	paymentIntentEndpoint = "/payments/intent"
	// GET /payments/intent/{intentID} to get a payment intent status
	paymentIntentInfoEndpoint = "/payments/intent/{intentID}"
	// GET /payments to list the customer's payments
	paymentsEndpoint = "/payments"
	// POST /payments/webhook to receive Stripe webhook events
	paymentsWebhookEndpoint = "/payments/webhook"

	// subscription routes

	// POST /subscriptions to create a subscription
	// GET /subscriptions to list the customer's subscriptions
	subscriptionsEndpoint = "/subscriptions"
	// GET /subscriptions/{subscriptionID} to get a subscription
	// PUT /subscriptions/{subscriptionID} to update a subscription
	// DELETE /subscriptions/{subscriptionID} to cancel a subscription
	subscriptionEndpoint = "/subscriptions/{subscriptionID}"
)
