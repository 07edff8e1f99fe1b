package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biblioflow/biblioflow-api/internal/models"
)

type gormStudentRepository struct {
	db *gorm.DB
}

// NewGormStudentRepository constructs the relational student repository.
func NewGormStudentRepository(db *gorm.DB) StudentRepository {
	return &gormStudentRepository{db: db}
}

func (r *gormStudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		return translateGormError(err)
	}

	return nil
}

func (r *gormStudentRepository) GetByID(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&student).Error; err != nil {
		return models.Student{}, translateGormError(err)
	}

	return student, nil
}

func (r *gormStudentRepository) List(ctx context.Context, filter ListFilter) ([]models.Student, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if filter.Query != "" {
		like := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(admission_number) LIKE ? OR LOWER(class_name) LIKE ?", like, like, like)
	}

	query = query.Order("name")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		return nil, translateGormError(err)
	}

	return students, nil
}

func (r *gormStudentRepository) Update(ctx context.Context, id string, update StudentUpdate) (models.Student, error) {
	updates := map[string]interface{}{}
	if update.Name != nil {
		updates["name"] = *update.Name
	}
	if update.AdmissionNumber != nil {
		updates["admission_number"] = *update.AdmissionNumber
	}
	if update.ClassName != nil {
		updates["class_name"] = *update.ClassName
	}
	if update.Section != nil {
		updates["section"] = *update.Section
	}
	if update.Contact != nil {
		updates["contact"] = *update.Contact
	}

	if len(updates) > 0 {
		tx := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Updates(updates)
		if tx.Error != nil {
			return models.Student{}, translateGormError(tx.Error)
		}
		if tx.RowsAffected == 0 {
			return models.Student{}, ErrNotFound
		}
	}

	return r.GetByID(ctx, id)
}

func (r *gormStudentRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Student{})
	if tx.Error != nil {
		return translateGormError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *gormStudentRepository) IncrementWarnings(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", id).
		UpdateColumn("warnings", gorm.Expr("warnings + ?", 1))
	if tx.Error != nil {
		return translateGormError(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func translateGormError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}
