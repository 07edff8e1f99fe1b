package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureMongoIndexes creates the uniqueness and lookup indexes the document
// adapter relies on. Runs once at process start; creation is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("students").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "admission_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create student indexes: %w", err)
	}

	_, err = db.Collection("books").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sbin", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "stamp", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create book indexes: %w", err)
	}

	_, err = db.Collection("borrows").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "book_id", Value: 1}, {Key: "returned", Value: 1}}},
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "returned", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create borrow indexes: %w", err)
	}

	return nil
}
