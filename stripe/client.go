// Package stripe provides integration with the Stripe payment service,
// handling payment intents, subscriptions, and webhook events. All card
// collection, tokenization and 3-D Secure happens inside Stripe's hosted
// surfaces; this package only ever sees opaque identifiers.
package stripe

import (
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v82"
	stripecustomer "github.com/stripe/stripe-go/v82/customer"
	stripepaymentintent "github.com/stripe/stripe-go/v82/paymentintent"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

// Client wraps the Stripe API client with error mapping into the closed
// PaymentError taxonomy.
type Client struct {
	config *Config
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config *Config) *Client {
	stripeapi.Key = config.APIKey

	return &Client{config: config}
}

// ValidateWebhookEvent validates and parses a webhook event. Signature
// verification is delegated entirely to the vendor SDK.
func (c *Client) ValidateWebhookEvent(payload []byte, signatureHeader string) (*stripeapi.Event, error) {
	event, err := stripewebhook.ConstructEvent(payload, signatureHeader, c.config.WebhookSecret)
	if err != nil {
		return nil, NewPaymentError(CodeWebhookValidation, "webhook signature validation failed", err)
	}
	return &event, nil
}

// PaymentIntentParams holds parameters for creating a payment intent.
type PaymentIntentParams struct {
	AmountCents    int64
	Currency       string
	CustomerID     string
	Description    string
	ReceiptEmail   string
	IdempotencyKey string
}

// CreatePaymentIntent creates a payment intent for the given amount. The
// client secret of the returned intent is handed to the frontend, which
// collects card details through Stripe's embedded payment element; the card
// data never touches this service.
func (*Client) CreatePaymentIntent(params *PaymentIntentParams) (*stripeapi.PaymentIntent, error) {
	piParams := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(params.AmountCents),
		Currency: stripeapi.String(params.Currency),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	if params.CustomerID != "" {
		piParams.Customer = stripeapi.String(params.CustomerID)
	}
	if params.Description != "" {
		piParams.Description = stripeapi.String(params.Description)
	}
	if params.ReceiptEmail != "" {
		piParams.ReceiptEmail = stripeapi.String(params.ReceiptEmail)
	}
	if params.IdempotencyKey != "" {
		piParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	intent, err := stripepaymentintent.New(piParams)
	if err != nil {
		return nil, FromStripeError(err)
	}
	return intent, nil
}

// GetPaymentIntent retrieves a payment intent by ID
func (*Client) GetPaymentIntent(intentID string) (*stripeapi.PaymentIntent, error) {
	intent, err := stripepaymentintent.Get(intentID, nil)
	if err != nil {
		return nil, FromStripeError(err)
	}
	return intent, nil
}

// CreateCustomer creates a Stripe customer for the given email
func (*Client) CreateCustomer(email, name string) (*stripeapi.Customer, error) {
	params := &stripeapi.CustomerParams{
		Email: stripeapi.String(email),
	}
	if name != "" {
		params.Name = stripeapi.String(name)
	}
	customer, err := stripecustomer.New(params)
	if err != nil {
		return nil, FromStripeError(err)
	}
	return customer, nil
}

// GetCustomerByEmail retrieves a customer by email address
func (*Client) GetCustomerByEmail(email string) (*stripeapi.Customer, error) {
	params := &stripeapi.CustomerListParams{
		Email: stripeapi.String(email),
	}

	customers := stripecustomer.List(params)
	if !customers.Next() {
		if err := customers.Err(); err != nil {
			return nil, FromStripeError(err)
		}
		return nil, NewPaymentError(CodeInvalidRequest,
			fmt.Sprintf("customer with email %s not found", email), nil)
	}

	return customers.Customer(), nil
}

// SubscriptionParams holds parameters for creating a subscription.
type SubscriptionParams struct {
	CustomerID     string
	PriceID        string
	Quantity       int64
	IdempotencyKey string
}

// CreateSubscription creates a subscription in default_incomplete mode: the
// first invoice's confirmation secret is expanded so the frontend can confirm
// the initial payment with the returned client secret.
func (*Client) CreateSubscription(params *SubscriptionParams) (*stripeapi.Subscription, error) {
	quantity := params.Quantity
	if quantity < 1 {
		quantity = 1
	}
	subParams := &stripeapi.SubscriptionParams{
		Customer: stripeapi.String(params.CustomerID),
		Items: []*stripeapi.SubscriptionItemsParams{
			{
				Price:    stripeapi.String(params.PriceID),
				Quantity: stripeapi.Int64(quantity),
			},
		},
		PaymentBehavior: stripeapi.String("default_incomplete"),
	}
	subParams.AddExpand("latest_invoice.confirmation_secret")
	if params.IdempotencyKey != "" {
		subParams.SetIdempotencyKey(params.IdempotencyKey)
	}

	subscription, err := stripesub.New(subParams)
	if err != nil {
		return nil, FromStripeError(err)
	}
	return subscription, nil
}

// GetSubscription retrieves a subscription by ID
func (*Client) GetSubscription(subscriptionID string) (*stripeapi.Subscription, error) {
	subscription, err := stripesub.Get(subscriptionID, nil)
	if err != nil {
		return nil, FromStripeError(err)
	}
	return subscription, nil
}

// SubscriptionUpdateParams holds the mutable fields of a subscription.
type SubscriptionUpdateParams struct {
	PriceID           string
	Quantity          int64
	CancelAtPeriodEnd *bool
}

// UpdateSubscription changes the price and/or quantity of the single item of
// an existing subscription, and optionally flips cancel-at-period-end.
func (c *Client) UpdateSubscription(subscriptionID string, params *SubscriptionUpdateParams) (*stripeapi.Subscription, error) {
	current, err := c.GetSubscription(subscriptionID)
	if err != nil {
		return nil, err
	}
	if len(current.Items.Data) == 0 {
		return nil, NewPaymentError(CodeInvalidEvent, "subscription has no items", nil)
	}

	updateParams := &stripeapi.SubscriptionParams{}
	item := &stripeapi.SubscriptionItemsParams{
		ID: stripeapi.String(current.Items.Data[0].ID),
	}
	if params.PriceID != "" {
		item.Price = stripeapi.String(params.PriceID)
	}
	if params.Quantity > 0 {
		item.Quantity = stripeapi.Int64(params.Quantity)
	}
	updateParams.Items = []*stripeapi.SubscriptionItemsParams{item}
	if params.CancelAtPeriodEnd != nil {
		updateParams.CancelAtPeriodEnd = stripeapi.Bool(*params.CancelAtPeriodEnd)
	}

	subscription, err := stripesub.Update(subscriptionID, updateParams)
	if err != nil {
		return nil, FromStripeError(err)
	}
	return subscription, nil
}

// CancelSubscription cancels a subscription immediately
func (*Client) CancelSubscription(subscriptionID string) (*stripeapi.Subscription, error) {
	subscription, err := stripesub.Cancel(subscriptionID, nil)
	if err != nil {
		return nil, FromStripeError(err)
	}
	return subscription, nil
}
