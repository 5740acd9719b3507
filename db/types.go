package db

import "time"

// Customer mirrors a Stripe customer. The ID is the Stripe customer ID.
type Customer struct {
	ID        string    `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// PaymentRecord mirrors a Stripe payment intent. The ID is the Stripe payment
// intent ID; Status tracks the intent's lifecycle as reported by webhooks.
type PaymentRecord struct {
	ID          string    `json:"id" bson:"_id"`
	CustomerID  string    `json:"customerId" bson:"customerId"`
	AmountCents int64     `json:"amountCents" bson:"amountCents"`
	Currency    string    `json:"currency" bson:"currency"`
	Status      string    `json:"status" bson:"status"`
	Description string    `json:"description" bson:"description"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Subscription mirrors a Stripe subscription. The ID is the Stripe
// subscription ID.
type Subscription struct {
	ID                 string    `json:"id" bson:"_id"`
	CustomerID         string    `json:"customerId" bson:"customerId"`
	PriceID            string    `json:"priceId" bson:"priceId"`
	Quantity           int64     `json:"quantity" bson:"quantity"`
	Status             string    `json:"status" bson:"status"`
	CancelAtPeriodEnd  bool      `json:"cancelAtPeriodEnd" bson:"cancelAtPeriodEnd"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart" bson:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd" bson:"currentPeriodEnd"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt" bson:"updatedAt"`
}

// WebhookEvent records a processed Stripe webhook event for idempotency. The
// ID is the Stripe event ID. Documents expire via a TTL index on ProcessedAt.
type WebhookEvent struct {
	ID          string    `json:"id" bson:"_id"`
	Type        string    `json:"type" bson:"type"`
	ProcessedAt time.Time `json:"processedAt" bson:"processedAt"`
}
