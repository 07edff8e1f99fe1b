package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/biblioflow/biblioflow-api/internal/models"
)

type mongoStudentRepository struct {
	collection *mongo.Collection
}

// NewMongoStudentRepository constructs the document-store student repository.
func NewMongoStudentRepository(db *mongo.Database) StudentRepository {
	return &mongoStudentRepository{collection: db.Collection("students")}
}

func (r *mongoStudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}

	if _, err := r.collection.InsertOne(ctx, student); err != nil {
		return translateMongoError(err)
	}

	return nil
}

func (r *mongoStudentRepository) GetByID(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&student); err != nil {
		return models.Student{}, translateMongoError(err)
	}

	return student, nil
}

func (r *mongoStudentRepository) List(ctx context.Context, filter ListFilter) ([]models.Student, error) {
	query := bson.M{}
	if filter.Query != "" {
		pattern := primitive.Regex{Pattern: filter.Query, Options: "i"}
		query = bson.M{"$or": []bson.M{
			{"name": pattern},
			{"admission_number": pattern},
			{"class_name": pattern},
		}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
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

	var students []models.Student
	if err := cursor.All(ctx, &students); err != nil {
		return nil, translateMongoError(err)
	}

	return students, nil
}

func (r *mongoStudentRepository) Update(ctx context.Context, id string, update StudentUpdate) (models.Student, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.AdmissionNumber != nil {
		set["admission_number"] = *update.AdmissionNumber
	}
	if update.ClassName != nil {
		set["class_name"] = *update.ClassName
	}
	if update.Section != nil {
		set["section"] = *update.Section
	}
	if update.Contact != nil {
		set["contact"] = *update.Contact
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var student models.Student
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&student)
	if err != nil {
		return models.Student{}, translateMongoError(err)
	}

	return student, nil
}

func (r *mongoStudentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongoError(err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *mongoStudentRepository) IncrementWarnings(ctx context.Context, id string) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"warnings": 1}})
	if err != nil {
		return translateMongoError(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func translateMongoError(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicateKey
	default:
		return err
	}
}
