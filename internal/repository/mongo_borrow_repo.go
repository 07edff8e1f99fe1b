package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/biblioflow/biblioflow-api/internal/models"
)

type mongoBorrowRepository struct {
	collection *mongo.Collection
}

// NewMongoBorrowRepository constructs the document-store borrow repository.
func NewMongoBorrowRepository(db *mongo.Database) BorrowRepository {
	return &mongoBorrowRepository{collection: db.Collection("borrows")}
}

func (r *mongoBorrowRepository) Create(ctx context.Context, borrow *models.Borrow) error {
	if borrow.ID == "" {
		borrow.ID = uuid.NewString()
	}

	if _, err := r.collection.InsertOne(ctx, borrow); err != nil {
		return translateMongoError(err)
	}

	return nil
}

func (r *mongoBorrowRepository) ActiveByBook(ctx context.Context, bookID string) (models.Borrow, error) {
	var borrow models.Borrow
	err := r.collection.FindOne(ctx, bson.M{"book_id": bookID, "returned": false}).Decode(&borrow)
	if err != nil {
		return models.Borrow{}, translateMongoError(err)
	}

	return borrow, nil
}

func (r *mongoBorrowRepository) HasActiveForBook(ctx context.Context, bookID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"book_id": bookID, "returned": false}, options.Count().SetLimit(1))
	if err != nil {
		return false, translateMongoError(err)
	}

	return count > 0, nil
}

func (r *mongoBorrowRepository) HasActiveForStudent(ctx context.Context, studentID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"student_id": studentID, "returned": false}, options.Count().SetLimit(1))
	if err != nil {
		return false, translateMongoError(err)
	}

	return count > 0, nil
}

func (r *mongoBorrowRepository) MarkReturned(ctx context.Context, id string, at time.Time) (models.Borrow, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"returned": true, "return_date": at}}

	// Only an open borrow can be closed; a concurrent return loses the race here.
	var borrow models.Borrow
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "returned": false}, update, opts).Decode(&borrow); err != nil {
		return models.Borrow{}, translateMongoError(err)
	}

	return borrow, nil
}

func (r *mongoBorrowRepository) List(ctx context.Context, filter BorrowFilter) ([]models.Borrow, error) {
	query := bson.M{}
	if filter.ActiveOnly {
		query["returned"] = false
	}

	opts := options.Find().SetSort(bson.D{{Key: "borrow_date", Value: -1}})
	if filter.Limit > 0 {
		opts = opts.SetLimit(int64(filter.Limit))
	}
	if filter.Skip > 0 {
		opts = opts.SetSkip(int64(filter.Skip))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, translateMongoError(err)
	}

	var borrows []models.Borrow
	if err := cursor.All(ctx, &borrows); err != nil {
		return nil, translateMongoError(err)
	}

	return borrows, nil
}
