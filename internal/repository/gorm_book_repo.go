package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biblioflow/biblioflow-api/internal/models"
)

type gormBookRepository struct {
	db *gorm.DB
}

// NewGormBookRepository constructs the relational book repository.
func NewGormBookRepository(db *gorm.DB) BookRepository {
	return &gormBookRepository{db: db}
}

func (r *gormBookRepository) Create(ctx context.Context, book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return translateGormError(err)
	}

	return nil
}

func (r *gormBookRepository) GetByID(ctx context.Context, id string) (models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		return models.Book{}, translateGormError(err)
	}

	return book, nil
}

func (r *gormBookRepository) GetByCode(ctx context.Context, code string) (models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).Where("sbin = ? OR stamp = ?", code, code).First(&book).Error; err != nil {
		return models.Book{}, translateGormError(err)
	}

	return book, nil
}

func (r *gormBookRepository) List(ctx context.Context, filter ListFilter) ([]models.Book, error) {
	query := r.db.WithContext(ctx).Model(&models.Book{})

	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(sbin) LIKE ? OR LOWER(stamp) LIKE ?", like, like, like, like)
	}

	query = query.Order("title")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}

	var books []models.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, translateGormError(err)
	}

	return books, nil
}

func (r *gormBookRepository) Update(ctx context.Context, id string, update BookUpdate) (models.Book, error) {
	updates := map[string]interface{}{}
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Author != nil {
		updates["author"] = *update.Author
	}
	if update.SBIN != nil {
		updates["sbin"] = *update.SBIN
	}
	if update.Stamp != nil {
		updates["stamp"] = *update.Stamp
	}

	if len(updates) > 0 {
		tx := r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(updates)
		if tx.Error != nil {
			return models.Book{}, translateGormError(tx.Error)
		}
		if tx.RowsAffected == 0 {
			return models.Book{}, ErrNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *gormBookRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{})
	if tx.Error != nil {
		return translateGormError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *gormBookRepository) SetAvailability(ctx context.Context, id string, expected, next bool) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND available = ?", id, expected).
		Update("available", next)
	if tx.Error != nil {
		return false, translateGormError(tx.Error)
	}

	return tx.RowsAffected == 1, nil
}
