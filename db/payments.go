package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.vocdoni.io/dvote/log"
)

// Payment method returns the payment record with the given Stripe payment
// intent ID. If the record doesn't exist, it returns ErrNotFound.
func (ms *MongoStorage) Payment(id string) (*PaymentRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result := ms.payments.FindOne(ctx, bson.M{"_id": id})
	payment := &PaymentRecord{}
	if err := result.Decode(payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return payment, nil
}

// PaymentsByCustomer method returns all payment records of the given customer,
// newest first.
func (ms *MongoStorage) PaymentsByCustomer(customerID string) ([]*PaymentRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := ms.payments.Find(ctx, bson.M{"customerId": customerID}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Warnw("failed to close payments cursor", "error", err)
		}
	}()

	var payments []*PaymentRecord
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// SetPayment method creates or updates the payment record in the database.
func (ms *MongoStorage) SetPayment(payment *PaymentRecord) error {
	if payment.ID == "" || payment.CustomerID == "" {
		return ErrInvalidData
	}
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := ms.payments.ReplaceOne(ctx, bson.M{"_id": payment.ID}, payment, opts); err != nil {
		return err
	}
	return nil
}
