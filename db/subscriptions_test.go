package db

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestSubscriptions(t *testing.T) {
	c := qt.New(t)
	defer func() {
		c.Assert(testDB.Reset(), qt.IsNil)
	}()

	_, err := testDB.Subscription(testSubID)
	c.Assert(err, qt.Equals, ErrNotFound)

	c.Assert(testDB.SetSubscription(&Subscription{ID: testSubID}), qt.Equals, ErrInvalidData)

	start := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	subscription := &Subscription{
		ID:                 testSubID,
		CustomerID:         testCustomerID,
		PriceID:            testPriceID,
		Quantity:           1,
		Status:             "active",
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   start.AddDate(0, 1, 0),
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	c.Assert(testDB.SetSubscription(subscription), qt.IsNil)

	stored, err := testDB.Subscription(testSubID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.PriceID, qt.Equals, testPriceID)
	c.Assert(stored.Status, qt.Equals, "active")
	c.Assert(stored.CurrentPeriodStart.Unix(), qt.Equals, start.Unix())

	subscription.Status = "canceled"
	subscription.CancelAtPeriodEnd = true
	c.Assert(testDB.SetSubscription(subscription), qt.IsNil)
	stored, err = testDB.Subscription(testSubID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Status, qt.Equals, "canceled")
	c.Assert(stored.CancelAtPeriodEnd, qt.IsTrue)

	byCustomer, err := testDB.SubscriptionsByCustomer(testCustomerID)
	c.Assert(err, qt.IsNil)
	c.Assert(byCustomer, qt.HasLen, 1)

	c.Assert(testDB.DelSubscription(testSubID), qt.IsNil)
	_, err = testDB.Subscription(testSubID)
	c.Assert(err, qt.Equals, ErrNotFound)
}
