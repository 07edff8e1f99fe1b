package repository

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/biblioflow/biblioflow-api/internal/models"
)

type mongoBookRepository struct {
	collection *mongo.Collection
}

// NewMongoBookRepository constructs the document-store book repository.
func NewMongoBookRepository(db *mongo.Database) BookRepository {
	return &mongoBookRepository{collection: db.Collection("books")}
}

func (r *mongoBookRepository) Create(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}

	if _, err := r.collection.InsertOne(ctx, book); err != nil {
		return translateMongoError(err)
	}

	return nil
}

func (r *mongoBookRepository) GetByID(ctx context.Context, id string) (models.Book, error) {
	var book models.Book
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&book); err != nil {
		return models.Book{}, translateMongoError(err)
	}

	return book, nil
}

func (r *mongoBookRepository) GetByCode(ctx context.Context, code string) (models.Book, error) {
	filter := bson.M{"$or": []bson.M{{"sbin": code}, {"stamp": code}}}

	var book models.Book
	if err := r.collection.FindOne(ctx, filter).Decode(&book); err != nil {
		return models.Book{}, translateMongoError(err)
	}

	return book, nil
}

func (r *mongoBookRepository) List(ctx context.Context, filter ListFilter) ([]models.Book, error) {
	query := bson.M{}
	if filter.Query != "" {
		pattern := primitive.Regex{Pattern: filter.Query, Options: "i"}
		query = bson.M{"$or": []bson.M{
			{"title": pattern},
			{"author": pattern},
			{"sbin": pattern},
			{"stamp": pattern},
		}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
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

	var books []models.Book
	if err := cursor.All(ctx, &books); err != nil {
		return nil, translateMongoError(err)
	}

	return books, nil
}

func (r *mongoBookRepository) Update(ctx context.Context, id string, update BookUpdate) (models.Book, error) {
	set := bson.M{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Author != nil {
		set["author"] = *update.Author
	}
	if update.SBIN != nil {
		set["sbin"] = *update.SBIN
	}
	if update.Stamp != nil {
		set["stamp"] = *update.Stamp
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var book models.Book
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&book)
	if err != nil {
		return models.Book{}, translateMongoError(err)
	}

	return book, nil
}

func (r *mongoBookRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongoError(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *mongoBookRepository) SetAvailability(ctx context.Context, id string, expected, next bool) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "available": expected},
		bson.M{"$set": bson.M{"available": next}},
	)
	if err != nil {
		return false, translateMongoError(err)
	}

	return result.MatchedCount == 1, nil
}
