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

// ErrBookNotFound indicates the requested book does not exist.
var ErrBookNotFound = errors.New("book not found")

// ErrDuplicateBookCode indicates the SBIN or stamp code is already catalogued.
var ErrDuplicateBookCode = errors.New("duplicate sbin or stamp code")

// ErrBookCodeRequired indicates neither circulation code was provided.
var ErrBookCodeRequired = errors.New("provide at least an sbin or stamp code")

// ErrBookOnLoan indicates the book is currently checked out.
var ErrBookOnLoan = errors.New("book is currently borrowed")

// BookService exposes catalogue use cases.
type BookService interface {
	Create(ctx context.Context, payload dto.BookCreateRequest) (dto.BookResponse, error)
	List(ctx context.Context, query string, limit, skip int) ([]dto.BookResponse, error)
	Get(ctx context.Context, id string) (dto.BookResponse, error)
	GetByCode(ctx context.Context, code string) (dto.BookResponse, error)
	Update(ctx context.Context, id string, payload dto.BookUpdateRequest) (dto.BookResponse, error)
	Delete(ctx context.Context, id string) error
	Suggest(ctx context.Context, query string) ([]dto.BookResponse, error)
}

type bookService struct {
	books     repository.BookRepository
	borrows   repository.BorrowRepository
	validator *validator.Validate
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewBookService builds a book service. The cache client may be nil.
func NewBookService(books repository.BookRepository, borrows repository.BorrowRepository, validate *validator.Validate, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) BookService {
	return &bookService{
		books:     books,
		borrows:   borrows,
		validator: validate,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger.With().Str("component", "book_service").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookService) Create(ctx context.Context, payload dto.BookCreateRequest) (dto.BookResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BookResponse{}, err
	}

	book := models.Book{
		Title:     payload.Title,
		Author:    payload.Author,
		SBIN:      normalizeCode(payload.SBIN),
		Stamp:     normalizeCode(payload.Stamp),
		Available: true,
		CreatedAt: s.now(),
	}

	if !book.HasCode() {
		return dto.BookResponse{}, ErrBookCodeRequired
	}

	if err := s.books.Create(ctx, &book); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return dto.BookResponse{}, ErrDuplicateBookCode
		}
		return dto.BookResponse{}, fmt.Errorf("failed to create book: %w", err)
	}

	s.logger.Info().Str("book_id", book.ID).Msg("book catalogued")

	return dto.NewBookResponse(book), nil
}

func (s *bookService) List(ctx context.Context, query string, limit, skip int) ([]dto.BookResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	books, err := s.books.List(ctx, repository.ListFilter{Query: query, Limit: limit, Skip: skip})
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	return dto.NewBookResponseSlice(books), nil
}

func (s *bookService) Get(ctx context.Context, id string) (dto.BookResponse, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.BookResponse{}, ErrBookNotFound
		}
		return dto.BookResponse{}, fmt.Errorf("failed to get book: %w", err)
	}

	return dto.NewBookResponse(book), nil
}

func (s *bookService) GetByCode(ctx context.Context, code string) (dto.BookResponse, error) {
	book, err := s.books.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.BookResponse{}, ErrBookNotFound
		}
		return dto.BookResponse{}, fmt.Errorf("failed to get book by code: %w", err)
	}

	return dto.NewBookResponse(book), nil
}

func (s *bookService) Update(ctx context.Context, id string, payload dto.BookUpdateRequest) (dto.BookResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BookResponse{}, err
	}

	update := repository.BookUpdate{
		Title:  payload.Title,
		Author: payload.Author,
		SBIN:   payload.SBIN,
		Stamp:  payload.Stamp,
	}

	book, err := s.books.Update(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return dto.BookResponse{}, ErrBookNotFound
		case errors.Is(err, repository.ErrDuplicateKey):
			return dto.BookResponse{}, ErrDuplicateBookCode
		default:
			return dto.BookResponse{}, fmt.Errorf("failed to update book: %w", err)
		}
	}

	return dto.NewBookResponse(book), nil
}

func (s *bookService) Delete(ctx context.Context, id string) error {
	active, err := s.borrows.HasActiveForBook(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check active borrows: %w", err)
	}
	if active {
		return ErrBookOnLoan
	}

	if err := s.books.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("failed to delete book: %w", err)
	}

	s.logger.Info().Str("book_id", id).Msg("book deleted")
	return nil
}

func (s *bookService) Suggest(ctx context.Context, query string) ([]dto.BookResponse, error) {
	cacheKey := fmt.Sprintf("suggest:books:%s", strings.ToLower(strings.TrimSpace(query)))

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response []dto.BookResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("query", query).Msg("book suggestion cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read book suggestion cache")
		}
	}

	response, err := s.List(ctx, query, suggestLimit, 0)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store book suggestion cache")
			}
		}
	}

	return response, nil
}

// normalizeCode maps empty or whitespace-only codes to absent so sparse
// uniqueness never compares empty strings.
func normalizeCode(code *string) *string {
	if code == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*code)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
