package stripe

import (
	"context"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v82"
	"go.vocdoni.io/dvote/log"
	"go.vocdoni.io/dvote/util"

	"github.com/floatpay/payments-backend/db"
	"github.com/floatpay/payments-backend/internal/retry"
)

// Service provides the main business logic for Stripe operations. Calls that
// hit the Stripe API run under a bounded retry policy for transient failures;
// user-correctable card errors fail fast and surface to the caller.
type Service struct {
	client      *Client
	db          *db.MongoStorage
	events      EventStore
	lockManager *LockManager
	config      *Config
	retryOpts   retry.Options
}

// NewService creates a new Stripe service
func NewService(config *Config, database *db.MongoStorage, events EventStore) (*Service, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	if events == nil {
		events = NewMemoryEventStore(0)
	}

	return &Service{
		client:      NewClient(config),
		db:          database,
		events:      events,
		lockManager: NewLockManager(),
		config:      config,
		retryOpts: retry.Options{
			MaxAttempts:  retry.DefaultMaxAttempts,
			InitialDelay: retry.DefaultInitialDelay,
			MaxDelay:     retry.DefaultMaxDelay,
			Multiplier:   retry.DefaultMultiplier,
			Retryable:    IsRetryable,
			OnRetry: func(attempt int, err error) {
				log.Warnw("retrying stripe operation",
					"attempt", attempt, "code", CodeOf(err), "error", err)
			},
		},
	}, nil
}

// EnsureCustomer returns the stored customer for the given email, creating it
// in Stripe and in the database on first use.
func (s *Service) EnsureCustomer(ctx context.Context, email, name string) (*db.Customer, error) {
	existing, err := s.db.CustomerByEmail(email)
	if err == nil {
		return existing, nil
	}
	if err != db.ErrNotFound {
		return nil, fmt.Errorf("failed to look up customer %s: %w", email, err)
	}

	stripeCustomer, err := retry.Do(ctx, func() (*stripeapi.Customer, error) {
		return s.client.CreateCustomer(email, name)
	}, s.retryOpts)
	if err != nil {
		return nil, err
	}

	customer := &db.Customer{
		ID:        stripeCustomer.ID,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.db.SetCustomer(customer); err != nil {
		return nil, fmt.Errorf("failed to store customer %s: %w", stripeCustomer.ID, err)
	}

	log.Infow("stripe customer created", "customer", stripeCustomer.ID, "email", email)
	return customer, nil
}

// PaymentIntentResult is returned by CreatePaymentIntent. The client secret is
// handed to the frontend to confirm the payment through Stripe's hosted
// element.
type PaymentIntentResult struct {
	Record       *db.PaymentRecord
	ClientSecret string
}

// CreatePaymentIntent creates a payment intent for the given customer and
// mirrors it into storage. The Stripe call is retried on transient failures
// under a single idempotency key, so a retry after an ambiguous network error
// cannot double-charge. If the caller provides no idempotency key, one is
// generated for the call.
func (s *Service) CreatePaymentIntent(
	ctx context.Context, customer *db.Customer, amountCents int64,
	currency, description, idempotencyKey string,
) (*PaymentIntentResult, error) {
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	if idempotencyKey == "" {
		idempotencyKey = util.RandomHex(16)
	}

	params := &PaymentIntentParams{
		AmountCents:    amountCents,
		Currency:       currency,
		CustomerID:     customer.ID,
		Description:    description,
		ReceiptEmail:   customer.Email,
		IdempotencyKey: idempotencyKey,
	}

	intent, err := retry.Do(ctx, func() (*stripeapi.PaymentIntent, error) {
		return s.client.CreatePaymentIntent(params)
	}, s.retryOpts)
	if err != nil {
		return nil, err
	}

	record := &db.PaymentRecord{
		ID:          intent.ID,
		CustomerID:  customer.ID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      string(intent.Status),
		Description: description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.db.SetPayment(record); err != nil {
		return nil, fmt.Errorf("failed to store payment %s: %w", intent.ID, err)
	}

	log.Infow("payment intent created",
		"intent", intent.ID, "customer", customer.ID,
		"amount", amountCents, "currency", currency)
	return &PaymentIntentResult{Record: record, ClientSecret: intent.ClientSecret}, nil
}

// PaymentIntent returns the stored record for a payment intent, refreshed with
// the current status from Stripe when reachable.
func (s *Service) PaymentIntent(ctx context.Context, intentID string) (*db.PaymentRecord, error) {
	record, err := s.db.Payment(intentID)
	if err != nil {
		return nil, err
	}

	intent, err := retry.Do(ctx, func() (*stripeapi.PaymentIntent, error) {
		return s.client.GetPaymentIntent(intentID)
	}, s.retryOpts)
	if err != nil {
		log.Warnw("could not refresh payment intent status",
			"intent", intentID, "error", err)
		return record, nil
	}

	if string(intent.Status) != record.Status {
		record.Status = string(intent.Status)
		record.UpdatedAt = time.Now()
		if err := s.db.SetPayment(record); err != nil {
			return nil, fmt.Errorf("failed to update payment %s: %w", intentID, err)
		}
	}
	return record, nil
}

// SubscriptionResult is returned by CreateSubscription. The client secret
// belongs to the payment intent of the first invoice.
type SubscriptionResult struct {
	Record       *db.Subscription
	ClientSecret string
}

// CreateSubscription creates a subscription for the given customer and mirrors
// it into storage. The subscription starts incomplete until the frontend
// confirms the first invoice's payment with the returned client secret.
func (s *Service) CreateSubscription(
	ctx context.Context, customer *db.Customer, priceID string, quantity int64,
) (*SubscriptionResult, error) {
	params := &SubscriptionParams{
		CustomerID:     customer.ID,
		PriceID:        priceID,
		Quantity:       quantity,
		IdempotencyKey: util.RandomHex(16),
	}

	subscription, err := retry.Do(ctx, func() (*stripeapi.Subscription, error) {
		return s.client.CreateSubscription(params)
	}, s.retryOpts)
	if err != nil {
		return nil, err
	}

	record := subscriptionRecord(subscription, customer.ID)
	if err := s.db.SetSubscription(record); err != nil {
		return nil, fmt.Errorf("failed to store subscription %s: %w", subscription.ID, err)
	}

	clientSecret := ""
	if subscription.LatestInvoice != nil && subscription.LatestInvoice.ConfirmationSecret != nil {
		clientSecret = subscription.LatestInvoice.ConfirmationSecret.ClientSecret
	}

	log.Infow("subscription created",
		"subscription", subscription.ID, "customer", customer.ID, "price", priceID)
	return &SubscriptionResult{Record: record, ClientSecret: clientSecret}, nil
}

// Subscription returns the stored record for a subscription.
func (s *Service) Subscription(subscriptionID string) (*db.Subscription, error) {
	return s.db.Subscription(subscriptionID)
}

// CustomerSubscriptions returns all stored subscriptions of a customer.
func (s *Service) CustomerSubscriptions(customerID string) ([]*db.Subscription, error) {
	return s.db.SubscriptionsByCustomer(customerID)
}

// UpdateSubscription applies the given changes to a subscription in Stripe and
// updates the stored mirror.
func (s *Service) UpdateSubscription(
	ctx context.Context, subscriptionID string, params *SubscriptionUpdateParams,
) (*db.Subscription, error) {
	record, err := s.db.Subscription(subscriptionID)
	if err != nil {
		return nil, err
	}

	subscription, err := retry.Do(ctx, func() (*stripeapi.Subscription, error) {
		return s.client.UpdateSubscription(subscriptionID, params)
	}, s.retryOpts)
	if err != nil {
		return nil, err
	}

	updated := subscriptionRecord(subscription, record.CustomerID)
	updated.CreatedAt = record.CreatedAt
	if err := s.db.SetSubscription(updated); err != nil {
		return nil, fmt.Errorf("failed to update subscription %s: %w", subscriptionID, err)
	}

	log.Infow("subscription updated", "subscription", subscriptionID)
	return updated, nil
}

// CancelSubscription cancels a subscription immediately and updates the stored
// mirror.
func (s *Service) CancelSubscription(ctx context.Context, subscriptionID string) (*db.Subscription, error) {
	record, err := s.db.Subscription(subscriptionID)
	if err != nil {
		return nil, err
	}

	subscription, err := retry.Do(ctx, func() (*stripeapi.Subscription, error) {
		return s.client.CancelSubscription(subscriptionID)
	}, s.retryOpts)
	if err != nil {
		return nil, err
	}

	updated := subscriptionRecord(subscription, record.CustomerID)
	updated.CreatedAt = record.CreatedAt
	if err := s.db.SetSubscription(updated); err != nil {
		return nil, fmt.Errorf("failed to update subscription %s: %w", subscriptionID, err)
	}

	log.Infow("subscription canceled", "subscription", subscriptionID)
	return updated, nil
}

// subscriptionRecord builds the storage mirror of a Stripe subscription.
func subscriptionRecord(subscription *stripeapi.Subscription, customerID string) *db.Subscription {
	record := &db.Subscription{
		ID:         subscription.ID,
		CustomerID: customerID,
		Status:     string(subscription.Status),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if subscription.CancelAtPeriodEnd {
		record.CancelAtPeriodEnd = true
	}
	if subscription.Items != nil && len(subscription.Items.Data) > 0 {
		item := subscription.Items.Data[0]
		if item.Price != nil {
			record.PriceID = item.Price.ID
		}
		record.Quantity = item.Quantity
		record.CurrentPeriodStart = time.Unix(item.CurrentPeriodStart, 0)
		record.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0)
	}
	return record
}
