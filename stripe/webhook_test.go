package stripe

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v82"
	"go.vocdoni.io/dvote/log"

	"github.com/floatpay/payments-backend/db"
	"github.com/floatpay/payments-backend/test"
)

func TestMain(m *testing.M) {
	log.Init("debug", "stdout", nil)
	m.Run()
}

func paymentIntentEvent(c *qt.C, eventType stripeapi.EventType, intent map[string]any) *stripeapi.Event {
	raw, err := json.Marshal(intent)
	c.Assert(err, qt.IsNil)
	return &stripeapi.Event{
		ID:   "evt_" + string(eventType),
		Type: eventType,
		Data: &stripeapi.EventData{Raw: raw},
	}
}

func TestPaymentIntentEventUpdatesRecord(t *testing.T) {
	c := qt.New(t)

	ctx := context.Background()
	dbContainer, err := test.StartMongoContainer(ctx)
	c.Assert(err, qt.IsNil)
	defer func() {
		c.Assert(dbContainer.Terminate(ctx), qt.IsNil)
	}()

	mongoURI, err := dbContainer.ConnectionString(ctx)
	c.Assert(err, qt.IsNil)

	testDB, err := db.New(mongoURI, test.RandomDatabaseName())
	c.Assert(err, qt.IsNil)
	defer testDB.Close()

	c.Assert(testDB.SetPayment(&db.PaymentRecord{
		ID:          "pi_1",
		CustomerID:  "cus_1",
		AmountCents: 1999,
		Currency:    "usd",
		Status:      "requires_payment_method",
		CreatedAt:   time.Now(),
	}), qt.IsNil)

	service := &Service{
		client:      nil,
		db:          testDB,
		events:      NewMemoryEventStore(0),
		lockManager: NewLockManager(),
		config:      &Config{},
	}

	event := paymentIntentEvent(c, stripeapi.EventTypePaymentIntentSucceeded, map[string]any{
		"id":       "pi_1",
		"status":   "succeeded",
		"amount":   1999,
		"currency": "usd",
		"customer": map[string]any{"id": "cus_1"},
	})
	c.Assert(service.HandleEvent(event), qt.IsNil)

	record, err := testDB.Payment("pi_1")
	c.Assert(err, qt.IsNil)
	c.Assert(record.Status, qt.Equals, "succeeded")
	c.Assert(record.AmountCents, qt.Equals, int64(1999))
}

func TestPaymentIntentEventMirrorsUnknownIntent(t *testing.T) {
	c := qt.New(t)

	ctx := context.Background()
	dbContainer, err := test.StartMongoContainer(ctx)
	c.Assert(err, qt.IsNil)
	defer func() {
		c.Assert(dbContainer.Terminate(ctx), qt.IsNil)
	}()

	mongoURI, err := dbContainer.ConnectionString(ctx)
	c.Assert(err, qt.IsNil)

	testDB, err := db.New(mongoURI, test.RandomDatabaseName())
	c.Assert(err, qt.IsNil)
	defer testDB.Close()

	service := &Service{
		client:      nil,
		db:          testDB,
		events:      NewMemoryEventStore(0),
		lockManager: NewLockManager(),
		config:      &Config{},
	}

	event := paymentIntentEvent(c, stripeapi.EventTypePaymentIntentPaymentFailed, map[string]any{
		"id":       "pi_unseen",
		"status":   "requires_payment_method",
		"amount":   500,
		"currency": "eur",
		"customer": map[string]any{"id": "cus_2"},
	})
	c.Assert(service.HandleEvent(event), qt.IsNil)

	record, err := testDB.Payment("pi_unseen")
	c.Assert(err, qt.IsNil)
	c.Assert(record.CustomerID, qt.Equals, "cus_2")
	c.Assert(record.Status, qt.Equals, "requires_payment_method")
	c.Assert(record.Currency, qt.Equals, "eur")
}

func TestSubscriptionEventSavesMirror(t *testing.T) {
	c := qt.New(t)

	ctx := context.Background()
	dbContainer, err := test.StartMongoContainer(ctx)
	c.Assert(err, qt.IsNil)
	defer func() {
		c.Assert(dbContainer.Terminate(ctx), qt.IsNil)
	}()

	mongoURI, err := dbContainer.ConnectionString(ctx)
	c.Assert(err, qt.IsNil)

	testDB, err := db.New(mongoURI, test.RandomDatabaseName())
	c.Assert(err, qt.IsNil)
	defer testDB.Close()

	service := &Service{
		client:      nil,
		db:          testDB,
		events:      NewMemoryEventStore(0),
		lockManager: NewLockManager(),
		config:      &Config{},
	}

	start := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	raw, err := json.Marshal(map[string]any{
		"id":       "sub_1",
		"status":   "active",
		"customer": map[string]any{"id": "cus_1"},
		"items": map[string]any{
			"data": []map[string]any{{
				"id":                   "si_1",
				"quantity":             2,
				"current_period_start": start.Unix(),
				"current_period_end":   end.Unix(),
				"price":                map[string]any{"id": "price_monthly"},
			}},
		},
	})
	c.Assert(err, qt.IsNil)

	event := &stripeapi.Event{
		ID:   "evt_sub_created",
		Type: stripeapi.EventTypeCustomerSubscriptionCreated,
		Data: &stripeapi.EventData{Raw: raw},
	}
	c.Assert(service.HandleEvent(event), qt.IsNil)

	record, err := testDB.Subscription("sub_1")
	c.Assert(err, qt.IsNil)
	c.Assert(record.CustomerID, qt.Equals, "cus_1")
	c.Assert(record.Status, qt.Equals, "active")
	c.Assert(record.PriceID, qt.Equals, "price_monthly")
	c.Assert(record.Quantity, qt.Equals, int64(2))
	c.Assert(record.CurrentPeriodStart.Unix(), qt.Equals, start.Unix())

	// A deletion event forces the canceled status regardless of payload.
	event = &stripeapi.Event{
		ID:   "evt_sub_deleted",
		Type: stripeapi.EventTypeCustomerSubscriptionDeleted,
		Data: &stripeapi.EventData{Raw: raw},
	}
	c.Assert(service.HandleEvent(event), qt.IsNil)

	record, err = testDB.Subscription("sub_1")
	c.Assert(err, qt.IsNil)
	c.Assert(record.Status, qt.Equals, "canceled")
}

func TestMemoryEventStore(t *testing.T) {
	c := qt.New(t)

	store := NewMemoryEventStore(time.Hour)
	c.Assert(store.EventExists("evt_1"), qt.IsFalse)
	c.Assert(store.MarkProcessed("evt_1", "payment_intent.succeeded"), qt.IsNil)
	c.Assert(store.EventExists("evt_1"), qt.IsTrue)
	c.Assert(store.Size(), qt.Equals, 1)
}

func TestLockManagerSerializesPerCustomer(t *testing.T) {
	c := qt.New(t)

	lm := NewLockManager()
	unlock := lm.LockCustomer("cus_1")

	acquired := make(chan struct{})
	go func() {
		second := lm.LockCustomer("cus_1")
		close(acquired)
		second()
	}()

	select {
	case <-acquired:
		c.Fatal("second lock acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		c.Fatal("second lock never acquired after release")
	}

	// An uncontended lock can be cleaned up and reacquired.
	lm.CleanupLocks()
	done := lm.LockCustomer("cus_1")
	done()
}
