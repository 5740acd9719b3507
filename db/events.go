package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HasWebhookEvent method reports whether the given Stripe event ID was already
// processed.
func (ms *MongoStorage) HasWebhookEvent(id string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	count, err := ms.webhookEvents.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetWebhookEvent method records the given Stripe event ID as processed.
// Recording the same event twice is not an error.
func (ms *MongoStorage) SetWebhookEvent(id, eventType string) error {
	if id == "" {
		return ErrInvalidData
	}
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	event := &WebhookEvent{
		ID:          id,
		Type:        eventType,
		ProcessedAt: time.Now(),
	}
	opts := options.Replace().SetUpsert(true)
	_, err := ms.webhookEvents.ReplaceOne(ctx, bson.M{"_id": id}, event, opts)
	return err
}
