package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Customer method returns the customer with the given Stripe customer ID. If
// the customer doesn't exist, it returns ErrNotFound.
func (ms *MongoStorage) Customer(id string) (*Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result := ms.customers.FindOne(ctx, bson.M{"_id": id})
	customer := &Customer{}
	if err := result.Decode(customer); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return customer, nil
}

// CustomerByEmail method returns the customer with the given email. If the
// customer doesn't exist, it returns ErrNotFound.
func (ms *MongoStorage) CustomerByEmail(email string) (*Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result := ms.customers.FindOne(ctx, bson.M{"email": email})
	customer := &Customer{}
	if err := result.Decode(customer); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return customer, nil
}

// SetCustomer method creates or updates the customer in the database.
func (ms *MongoStorage) SetCustomer(customer *Customer) error {
	if customer.ID == "" || customer.Email == "" {
		return ErrInvalidData
	}
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := ms.customers.ReplaceOne(ctx, bson.M{"_id": customer.ID}, customer, opts); err != nil {
		return err
	}
	return nil
}

// DelCustomer method removes the customer with the given Stripe customer ID.
func (ms *MongoStorage) DelCustomer(id string) error {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := ms.customers.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
