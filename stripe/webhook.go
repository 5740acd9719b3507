package stripe

import (
	"encoding/json"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v82"
	"go.vocdoni.io/dvote/log"

	"github.com/floatpay/payments-backend/db"
)

// PaymentIntentInfo represents the payment intent fields extracted from a
// webhook event that are relevant for the application.
type PaymentIntentInfo struct {
	ID          string
	CustomerID  string
	Status      stripeapi.PaymentIntentStatus
	AmountCents int64
	Currency    string
}

// SubscriptionInfo represents the subscription fields extracted from a
// webhook event that are relevant for the application.
type SubscriptionInfo struct {
	ID                 string
	CustomerID         string
	Status             stripeapi.SubscriptionStatus
	PriceID            string
	Quantity           int64
	CancelAtPeriodEnd  bool
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

// HandleWebhookEvent processes a webhook event with idempotency
func (s *Service) HandleWebhookEvent(payload []byte, signatureHeader string) error {
	// Validate and parse the event
	event, err := s.client.ValidateWebhookEvent(payload, signatureHeader)
	if err != nil {
		return err
	}

	// Check if event was already processed (idempotency)
	if s.events.EventExists(event.ID) {
		log.Debugf("stripe webhook: event %s already processed, skipping", event.ID)
		return nil
	}

	// Process the event based on its type
	if err := s.HandleEvent(event); err != nil {
		return err
	}

	// Mark event as processed if successful
	if err := s.events.MarkProcessed(event.ID, string(event.Type)); err != nil {
		log.Warnw("failed to mark webhook event as processed",
			"event", event.ID, "error", err)
	}

	return nil
}

func (s *Service) HandleEvent(event *stripeapi.Event) error {
	switch event.Type {
	case stripeapi.EventTypePaymentIntentSucceeded,
		stripeapi.EventTypePaymentIntentPaymentFailed,
		stripeapi.EventTypePaymentIntentCanceled:
		return s.handlePaymentIntent(event)
	case stripeapi.EventTypeCustomerSubscriptionCreated,
		stripeapi.EventTypeCustomerSubscriptionUpdated,
		stripeapi.EventTypeCustomerSubscriptionDeleted:
		return s.handleSubscription(event)
	default:
		log.Debugf("stripe webhook: received unhandled event type %s (id %s)", event.Type, event.ID)
		return nil
	}
}

// handlePaymentIntent processes a payment intent status change event
func (s *Service) handlePaymentIntent(event *stripeapi.Event) error {
	intentInfo, err := parsePaymentIntentFromEvent(event)
	if err != nil {
		return fmt.Errorf("failed to parse payment intent from event: %w", err)
	}

	// Use per-customer locking
	unlock := s.lockManager.LockCustomer(intentInfo.CustomerID)
	defer unlock()

	record, err := s.db.Payment(intentInfo.ID)
	if err == db.ErrNotFound {
		// Intent created outside this service (dashboard, another
		// integration). Mirror it so later events have a record.
		record = &db.PaymentRecord{
			ID:          intentInfo.ID,
			CustomerID:  intentInfo.CustomerID,
			AmountCents: intentInfo.AmountCents,
			Currency:    intentInfo.Currency,
			CreatedAt:   time.Now(),
		}
	} else if err != nil {
		return fmt.Errorf("failed to load payment %s: %v", intentInfo.ID, err)
	}

	record.Status = string(intentInfo.Status)
	record.UpdatedAt = time.Now()
	if err := s.db.SetPayment(record); err != nil {
		return fmt.Errorf("failed to save payment %s (status=%s): %v",
			intentInfo.ID, intentInfo.Status, err)
	}

	log.Infow("stripe webhook: payment intent updated",
		"intent", intentInfo.ID, "customer", intentInfo.CustomerID,
		"status", intentInfo.Status)
	return nil
}

// handleSubscription processes a subscription lifecycle event
func (s *Service) handleSubscription(event *stripeapi.Event) error {
	subscriptionInfo, err := parseSubscriptionFromEvent(event)
	if err != nil {
		return fmt.Errorf("failed to parse subscription from event: %w", err)
	}

	// Use per-customer locking
	unlock := s.lockManager.LockCustomer(subscriptionInfo.CustomerID)
	defer unlock()

	record, err := s.db.Subscription(subscriptionInfo.ID)
	if err == db.ErrNotFound {
		record = &db.Subscription{
			ID:         subscriptionInfo.ID,
			CustomerID: subscriptionInfo.CustomerID,
			CreatedAt:  time.Now(),
		}
	} else if err != nil {
		return fmt.Errorf("failed to load subscription %s: %v", subscriptionInfo.ID, err)
	}

	record.Status = string(subscriptionInfo.Status)
	record.PriceID = subscriptionInfo.PriceID
	record.Quantity = subscriptionInfo.Quantity
	record.CancelAtPeriodEnd = subscriptionInfo.CancelAtPeriodEnd
	record.CurrentPeriodStart = subscriptionInfo.CurrentPeriodStart
	record.CurrentPeriodEnd = subscriptionInfo.CurrentPeriodEnd
	record.UpdatedAt = time.Now()

	if event.Type == stripeapi.EventTypeCustomerSubscriptionDeleted {
		record.Status = string(stripeapi.SubscriptionStatusCanceled)
	}

	if err := s.db.SetSubscription(record); err != nil {
		return fmt.Errorf("failed to save subscription %s (status=%s) for customer %s: %v",
			subscriptionInfo.ID, record.Status, subscriptionInfo.CustomerID, err)
	}

	log.Infow("stripe webhook: subscription updated",
		"subscription", subscriptionInfo.ID, "customer", subscriptionInfo.CustomerID,
		"status", record.Status)
	return nil
}

// parsePaymentIntentFromEvent extracts payment intent information from a webhook event
func parsePaymentIntentFromEvent(event *stripeapi.Event) (*PaymentIntentInfo, error) {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent from event: %v", err)
	}

	if intent.ID == "" {
		return nil, fmt.Errorf("payment intent missing id")
	}
	customerID := ""
	if intent.Customer != nil {
		customerID = intent.Customer.ID
	}
	if customerID == "" {
		return nil, fmt.Errorf("payment intent %s missing customer", intent.ID)
	}

	return &PaymentIntentInfo{
		ID:          intent.ID,
		CustomerID:  customerID,
		Status:      intent.Status,
		AmountCents: intent.Amount,
		Currency:    string(intent.Currency),
	}, nil
}

// parseSubscriptionFromEvent extracts subscription information from a webhook event
func parseSubscriptionFromEvent(event *stripeapi.Event) (*SubscriptionInfo, error) {
	var subscription stripeapi.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return nil, fmt.Errorf("failed to parse subscription from event: %v", err)
	}

	if subscription.Customer == nil || subscription.Customer.ID == "" {
		return nil, fmt.Errorf("subscription missing customer")
	}
	if subscription.Items == nil || len(subscription.Items.Data) == 0 {
		return nil, fmt.Errorf("subscription has no items")
	}
	item := subscription.Items.Data[0]

	subscriptionInfo := &SubscriptionInfo{
		ID:                 subscription.ID,
		CustomerID:         subscription.Customer.ID,
		Status:             subscription.Status,
		Quantity:           item.Quantity,
		CancelAtPeriodEnd:  subscription.CancelAtPeriodEnd,
		CurrentPeriodStart: time.Unix(item.CurrentPeriodStart, 0),
		CurrentPeriodEnd:   time.Unix(item.CurrentPeriodEnd, 0),
	}
	if item.Price != nil {
		subscriptionInfo.PriceID = item.Price.ID
	}

	return subscriptionInfo, nil
}
