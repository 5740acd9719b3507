package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.vocdoni.io/dvote/log"
)

// Subscription method returns the subscription with the given Stripe
// subscription ID. If the subscription doesn't exist, it returns ErrNotFound.
func (ms *MongoStorage) Subscription(id string) (*Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result := ms.subscriptions.FindOne(ctx, bson.M{"_id": id})
	subscription := &Subscription{}
	if err := result.Decode(subscription); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return subscription, nil
}

// SubscriptionsByCustomer method returns all subscriptions of the given
// customer, newest first.
func (ms *MongoStorage) SubscriptionsByCustomer(customerID string) ([]*Subscription, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := ms.subscriptions.Find(ctx, bson.M{"customerId": customerID}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Warnw("failed to close subscriptions cursor", "error", err)
		}
	}()

	var subscriptions []*Subscription
	if err := cursor.All(ctx, &subscriptions); err != nil {
		return nil, err
	}
	return subscriptions, nil
}

// SetSubscription method creates or updates the subscription in the database.
func (ms *MongoStorage) SetSubscription(subscription *Subscription) error {
	if subscription.ID == "" || subscription.CustomerID == "" {
		return ErrInvalidData
	}
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := ms.subscriptions.ReplaceOne(
		ctx, bson.M{"_id": subscription.ID}, subscription, opts,
	); err != nil {
		return err
	}
	return nil
}

// DelSubscription method removes the subscription with the given Stripe
// subscription ID.
func (ms *MongoStorage) DelSubscription(id string) error {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := ms.subscriptions.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
