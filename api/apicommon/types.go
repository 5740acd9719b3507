package apicommon

import (
	"time"

	"github.com/floatpay/payments-backend/db"
)

// LoginResponse is the response of the refresh endpoint, containing a fresh
// JWT token and its expiration time.
type LoginResponse struct {
	// JWT authentication token
	Token string `json:"token"`

	// Token expiration time
	Expirity time.Time `json:"expirity"`
}

// PaymentIntentRequest is the request to create a payment intent.
type PaymentIntentRequest struct {
	// Amount to charge, in the smallest currency unit (cents)
	AmountCents int64 `json:"amountCents"`

	// ISO 4217 currency code, defaults to the configured currency
	Currency string `json:"currency,omitempty"`

	// Free-form description attached to the charge
	Description string `json:"description,omitempty"`

	// Optional idempotency key forwarded to Stripe, so clients can safely
	// resubmit the same request. Generated server-side when empty.
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// PaymentIntentResponse is returned after creating a payment intent. The
// client secret is consumed by the frontend to confirm the payment.
type PaymentIntentResponse struct {
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret,omitempty"`
	Status       string `json:"status"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
}

// PaymentFailure carries user-facing remediation info attached to payment
// error responses.
type PaymentFailure struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

// SubscriptionRequest is the request to create a subscription.
type SubscriptionRequest struct {
	PriceID  string `json:"priceId"`
	Quantity int64  `json:"quantity,omitempty"`
}

// SubscriptionUpdateRequest is the request to update a subscription. Nil
// fields are left unchanged.
type SubscriptionUpdateRequest struct {
	PriceID           string `json:"priceId,omitempty"`
	Quantity          int64  `json:"quantity,omitempty"`
	CancelAtPeriodEnd *bool  `json:"cancelAtPeriodEnd,omitempty"`
}

// SubscriptionResponse is the public view of a stored subscription.
type SubscriptionResponse struct {
	SubscriptionID     string    `json:"subscriptionId"`
	PriceID            string    `json:"priceId"`
	Quantity           int64     `json:"quantity"`
	Status             string    `json:"status"`
	CancelAtPeriodEnd  bool      `json:"cancelAtPeriodEnd"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd"`
	ClientSecret       string    `json:"clientSecret,omitempty"`
}

// SubscriptionResponseFromRecord builds the public view of a stored
// subscription.
func SubscriptionResponseFromRecord(record *db.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		SubscriptionID:     record.ID,
		PriceID:            record.PriceID,
		Quantity:           record.Quantity,
		Status:             record.Status,
		CancelAtPeriodEnd:  record.CancelAtPeriodEnd,
		CurrentPeriodStart: record.CurrentPeriodStart,
		CurrentPeriodEnd:   record.CurrentPeriodEnd,
	}
}

// SubscriptionListResponse wraps the subscriptions of a customer.
type SubscriptionListResponse struct {
	Subscriptions []*SubscriptionResponse `json:"subscriptions"`
}

// PaymentListResponse wraps the payment records of a customer.
type PaymentListResponse struct {
	Payments []*PaymentIntentResponse `json:"payments"`
}
