package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.vocdoni.io/dvote/log"
)

// initCollections creates the collections in the MongoDB database if they
// don't exist.
func (ms *MongoStorage) initCollections(database string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// get the current collections names to create only the missing ones
	currentCollections, err := ms.collectionNames(ctx, database)
	if err != nil {
		return err
	}
	// aux method to get a collection if it exists, or create it if it doesn't
	getCollection := func(name string) (*mongo.Collection, error) {
		alreadyCreated := false
		for _, c := range currentCollections {
			if c == name {
				alreadyCreated = true
				break
			}
		}
		if !alreadyCreated {
			if err := ms.client.Database(database).CreateCollection(ctx, name); err != nil {
				return nil, err
			}
		}
		return ms.client.Database(database).Collection(name), nil
	}
	// customers collection
	if ms.customers, err = getCollection("customers"); err != nil {
		return err
	}
	// payments collection
	if ms.payments, err = getCollection("payments"); err != nil {
		return err
	}
	// subscriptions collection
	if ms.subscriptions, err = getCollection("subscriptions"); err != nil {
		return err
	}
	// webhookEvents collection
	if ms.webhookEvents, err = getCollection("webhookEvents"); err != nil {
		return err
	}
	return nil
}

// collectionNames returns the names of the collections in the given database.
func (ms *MongoStorage) collectionNames(ctx context.Context, database string) ([]string, error) {
	collectionsCursor, err := ms.client.Database(database).ListCollections(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := collectionsCursor.Close(ctx); err != nil {
			log.Warnw("failed to close collections cursor", "error", err)
		}
	}()
	collections := []bson.D{}
	if err := collectionsCursor.All(ctx, &collections); err != nil {
		return nil, err
	}
	names := []string{}
	for _, col := range collections {
		for _, v := range col {
			if v.Key == "name" {
				names = append(names, v.Value.(string))
			}
		}
	}
	return names, nil
}

// createIndexes creates the indexes for the collections in the MongoDB
// database. Add more indexes here as needed.
func (ms *MongoStorage) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	// create an index for the 'email' field on customers (must be unique)
	customerEmailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}}, // 1 for ascending order
		Options: options.Index().SetUnique(true),
	}
	if _, err := ms.customers.Indexes().CreateOne(ctx, customerEmailIndex); err != nil {
		return fmt.Errorf("failed to create index on email for customers: %w", err)
	}
	// create an index for the 'customerId' field on payments
	paymentCustomerIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "customerId", Value: 1}}, // 1 for ascending order
	}
	if _, err := ms.payments.Indexes().CreateOne(ctx, paymentCustomerIndex); err != nil {
		return fmt.Errorf("failed to create index on customerId for payments: %w", err)
	}
	// create an index for the 'customerId' field on subscriptions
	subscriptionCustomerIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "customerId", Value: 1}}, // 1 for ascending order
	}
	if _, err := ms.subscriptions.Indexes().CreateOne(ctx, subscriptionCustomerIndex); err != nil {
		return fmt.Errorf("failed to create index on customerId for subscriptions: %w", err)
	}
	// expire processed webhook events once Stripe's redelivery window has passed
	webhookEventTTLIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "processedAt", Value: 1}}, // 1 for ascending order
		Options: options.Index().SetExpireAfterSeconds(int32(webhookEventTTL.Seconds())),
	}
	if _, err := ms.webhookEvents.Indexes().CreateOne(ctx, webhookEventTTLIndex); err != nil {
		return fmt.Errorf("failed to create TTL index on processedAt for webhookEvents: %w", err)
	}
	return nil
}
