package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoConnectTimeout = 10 * time.Second

// ConnectMongo establishes a connection to MongoDB and returns a handle to the
// named database.
func ConnectMongo(url, database string) (*mongo.Database, error) {
	if url == "" {
		return nil, fmt.Errorf("mongo url must not be empty")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database name must not be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("unable to reach mongo: %w", err)
	}

	return client.Database(database), nil
}
