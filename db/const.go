package db

import "time"

const defaultTimeout = 10 * time.Second

// webhookEventTTL bounds how long processed webhook event IDs are kept for
// idempotency checks. Stripe retries failed deliveries for up to three days.
const webhookEventTTL = 72 * time.Hour
