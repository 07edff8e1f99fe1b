package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/biblioflow/biblioflow-api/internal/dto"
	"github.com/biblioflow/biblioflow-api/internal/models"
	"github.com/biblioflow/biblioflow-api/internal/repository"
)

// ErrStudentNotFound indicates the requested student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrDuplicateAdmission indicates the admission number is already registered.
var ErrDuplicateAdmission = errors.New("admission number already exists")

// ErrStudentHasActiveBorrow indicates the student still holds a checked-out book.
var ErrStudentHasActiveBorrow = errors.New("student has active borrow")

const suggestLimit = 10

// StudentService exposes student registry use cases.
type StudentService interface {
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	List(ctx context.Context, query string, limit, skip int) ([]dto.StudentResponse, error)
	Get(ctx context.Context, id string) (dto.StudentResponse, error)
	Update(ctx context.Context, id string, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, id string) error
	Suggest(ctx context.Context, query string) ([]dto.StudentResponse, error)
}

type studentService struct {
	students  repository.StudentRepository
	borrows   repository.BorrowRepository
	validator *validator.Validate
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewStudentService builds a student service. The cache client may be nil.
func NewStudentService(students repository.StudentRepository, borrows repository.BorrowRepository, validate *validator.Validate, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) StudentService {
	return &studentService{
		students:  students,
		borrows:   borrows,
		validator: validate,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger.With().Str("component", "student_service").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		Name:            payload.Name,
		AdmissionNumber: payload.AdmissionNumber,
		ClassName:       payload.ClassName,
		Section:         payload.Section,
		Contact:         payload.Contact,
		CreatedAt:       s.now(),
	}

	if err := s.students.Create(ctx, &student); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return dto.StudentResponse{}, ErrDuplicateAdmission
		}
		return dto.StudentResponse{}, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.Info().Str("student_id", student.ID).Msg("student registered")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, query string, limit, skip int) ([]dto.StudentResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	students, err := s.students.List(ctx, repository.ListFilter{Query: query, Limit: limit, Skip: skip})
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) Get(ctx context.Context, id string) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, fmt.Errorf("failed to get student: %w", err)
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id string, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	update := repository.StudentUpdate{
		Name:            payload.Name,
		AdmissionNumber: payload.AdmissionNumber,
		ClassName:       payload.ClassName,
		Section:         payload.Section,
		Contact:         payload.Contact,
	}

	student, err := s.students.Update(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return dto.StudentResponse{}, ErrStudentNotFound
		case errors.Is(err, repository.ErrDuplicateKey):
			return dto.StudentResponse{}, ErrDuplicateAdmission
		default:
			return dto.StudentResponse{}, fmt.Errorf("failed to update student: %w", err)
		}
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	active, err := s.borrows.HasActiveForStudent(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check active borrows: %w", err)
	}
	if active {
		return ErrStudentHasActiveBorrow
	}

	if err := s.students.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to delete student: %w", err)
	}

	s.logger.Info().Str("student_id", id).Msg("student deleted")
	return nil
}

func (s *studentService) Suggest(ctx context.Context, query string) ([]dto.StudentResponse, error) {
	cacheKey := fmt.Sprintf("suggest:students:%s", strings.ToLower(strings.TrimSpace(query)))

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response []dto.StudentResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("query", query).Msg("student suggestion cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read student suggestion cache")
		}
	}

	response, err := s.List(ctx, query, suggestLimit, 0)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store student suggestion cache")
			}
		}
	}

	return response, nil
}
