package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biblioflow/biblioflow-api/internal/models"
)

type gormBorrowRepository struct {
	db *gorm.DB
}

// NewGormBorrowRepository constructs the relational borrow repository.
func NewGormBorrowRepository(db *gorm.DB) BorrowRepository {
	return &gormBorrowRepository{db: db}
}

func (r *gormBorrowRepository) Create(ctx context.Context, borrow *models.Borrow) error {
	if borrow.ID == "" {
		borrow.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(borrow).Error; err != nil {
		return translateGormError(err)
	}

	return nil
}

func (r *gormBorrowRepository) ActiveByBook(ctx context.Context, bookID string) (models.Borrow, error) {
	var borrow models.Borrow
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND returned = ?", bookID, false).
		First(&borrow).Error
	if err != nil {
		return models.Borrow{}, translateGormError(err)
	}

	return borrow, nil
}

func (r *gormBorrowRepository) HasActiveForBook(ctx context.Context, bookID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Borrow{}).
		Where("book_id = ? AND returned = ?", bookID, false).
		Count(&count).Error
	if err != nil {
		return false, translateGormError(err)
	}

	return count > 0, nil
}

func (r *gormBorrowRepository) HasActiveForStudent(ctx context.Context, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Borrow{}).
		Where("student_id = ? AND returned = ?", studentID, false).
		Count(&count).Error
	if err != nil {
		return false, translateGormError(err)
	}

	return count > 0, nil
}

func (r *gormBorrowRepository) MarkReturned(ctx context.Context, id string, at time.Time) (models.Borrow, error) {
	// Only an open borrow can be closed; a concurrent return loses the race here.
	tx := r.db.WithContext(ctx).Model(&models.Borrow{}).
		Where("id = ? AND returned = ?", id, false).
		Updates(map[string]interface{}{"returned": true, "return_date": at})
	if tx.Error != nil {
		return models.Borrow{}, translateGormError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return models.Borrow{}, ErrNotFound
	}

	var borrow models.Borrow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&borrow).Error; err != nil {
		return models.Borrow{}, translateGormError(err)
	}

	return borrow, nil
}

func (r *gormBorrowRepository) List(ctx context.Context, filter BorrowFilter) ([]models.Borrow, error) {
	query := r.db.WithContext(ctx).Model(&models.Borrow{})

	if filter.ActiveOnly {
		query = query.Where("returned = ?", false)
	}

	query = query.Order("borrow_date DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}

	var borrows []models.Borrow
	if err := query.Find(&borrows).Error; err != nil {
		return nil, translateGormError(err)
	}

	return borrows, nil
}
