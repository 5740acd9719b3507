// Package test provides testing utilities for the payments-backend service,
// including test containers for MongoDB and Redis.
package test

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.vocdoni.io/dvote/util"
)

// StartMongoContainer starts a MongoDB container for testing. It returns the
// container and any error encountered during startup.
func StartMongoContainer(ctx context.Context) (*mongodb.MongoDBContainer, error) {
	return mongodb.Run(ctx, "mongo:7")
}

// RandomDatabaseName returns a random database name, so parallel test
// packages sharing a container never collide.
func RandomDatabaseName() string {
	return fmt.Sprintf("payments_test_%s", util.RandomHex(8))
}
