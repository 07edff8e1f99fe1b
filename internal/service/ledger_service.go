package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/biblioflow/biblioflow-api/internal/dto"
	"github.com/biblioflow/biblioflow-api/internal/models"
	"github.com/biblioflow/biblioflow-api/internal/observability"
	"github.com/biblioflow/biblioflow-api/internal/repository"
)

// ErrBookNotAvailable indicates the book is already checked out.
var ErrBookNotAvailable = errors.New("book is not available")

// ErrNoActiveBorrow indicates no open checkout exists for the book.
var ErrNoActiveBorrow = errors.New("no active borrow for this book")

const (
	defaultListLimit = 50
	maxListLimit     = 100

	dayDuration = 24 * time.Hour
)

// LoanEventRecorder receives circulation events as they happen.
type LoanEventRecorder interface {
	Record(ctx context.Context, event dto.LoanEvent)
}

// LedgerService orchestrates the borrow/return lifecycle and its consistency
// rules. The due-date and overdue policy is a pure function of the borrow date
// and the clock, so behavior is identical regardless of the storage backend.
type LedgerService interface {
	Borrow(ctx context.Context, payload dto.BorrowRequest) (dto.BorrowResponse, error)
	Return(ctx context.Context, payload dto.ReturnRequest) (dto.BorrowResponse, error)
	ListBorrows(ctx context.Context, query dto.BorrowListRequest) ([]dto.BorrowResponse, error)
}

type ledgerService struct {
	students  repository.StudentRepository
	books     repository.BookRepository
	borrows   repository.BorrowRepository
	validator *validator.Validate
	feed      LoanEventRecorder
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewLedgerService builds the lending ledger. The feed recorder may be nil.
func NewLedgerService(students repository.StudentRepository, books repository.BookRepository, borrows repository.BorrowRepository, validate *validator.Validate, feed LoanEventRecorder, logger zerolog.Logger) LedgerService {
	return &ledgerService{
		students:  students,
		books:     books,
		borrows:   borrows,
		validator: validate,
		feed:      feed,
		logger:    logger.With().Str("component", "ledger_service").Logger(),
		tracer:    otel.Tracer("github.com/biblioflow/biblioflow-api/internal/service/ledger"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *ledgerService) Borrow(ctx context.Context, payload dto.BorrowRequest) (dto.BorrowResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BorrowResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "ledger.borrow", trace.WithAttributes(
		attribute.String("book.code", payload.BookCode),
	))
	defer span.End()

	student, err := s.students.GetByID(spanCtx, payload.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.BorrowResponse{}, ErrStudentNotFound
		}
		span.RecordError(err)
		return dto.BorrowResponse{}, fmt.Errorf("failed to resolve student: %w", err)
	}

	book, err := s.books.GetByCode(spanCtx, payload.BookCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.BorrowResponse{}, ErrBookNotFound
		}
		span.RecordError(err)
		return dto.BorrowResponse{}, fmt.Errorf("failed to resolve book: %w", err)
	}

	// Atomic check-and-flip: of any number of concurrent borrows for the same
	// book, exactly one observes the flip.
	flipped, err := s.books.SetAvailability(spanCtx, book.ID, true, false)
	if err != nil {
		span.RecordError(err)
		return dto.BorrowResponse{}, fmt.Errorf("failed to update book availability: %w", err)
	}
	if !flipped {
		observability.BorrowConflictsTotal().Inc()
		return dto.BorrowResponse{}, ErrBookNotAvailable
	}

	now := s.now()
	due := now.Add(models.LoanPeriod)
	borrow := models.Borrow{
		StudentID:  student.ID,
		BookID:     book.ID,
		BorrowDate: now,
		DueDate:    &due,
	}

	if err := s.borrows.Create(spanCtx, &borrow); err != nil {
		span.RecordError(err)
		// The flip already happened; undo it so the book is not stuck
		// unavailable with no owning borrow.
		if _, rollbackErr := s.books.SetAvailability(spanCtx, book.ID, false, true); rollbackErr != nil {
			s.logger.Error().Err(err).AnErr("rollback_error", rollbackErr).
				Str("book_id", book.ID).
				Msg("borrow insert failed and availability rollback failed")
			return dto.BorrowResponse{}, fmt.Errorf("failed to persist borrow: %w (availability rollback failed: %v)", err, rollbackErr)
		}
		return dto.BorrowResponse{}, fmt.Errorf("failed to persist borrow: %w", err)
	}

	observability.BorrowsTotal().Inc()
	s.record(spanCtx, dto.LoanEvent{
		Type:       dto.LoanEventBorrowed,
		BorrowID:   borrow.ID,
		StudentID:  student.ID,
		BookID:     book.ID,
		BookTitle:  book.Title,
		OccurredAt: now,
	})

	s.logger.Info().
		Str("borrow_id", borrow.ID).
		Str("student_id", student.ID).
		Str("book_id", book.ID).
		Msg("book borrowed")

	return dto.NewBorrowResponse(borrow), nil
}

func (s *ledgerService) Return(ctx context.Context, payload dto.ReturnRequest) (dto.BorrowResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BorrowResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "ledger.return", trace.WithAttributes(
		attribute.String("book.code", payload.BookCode),
	))
	defer span.End()

	book, err := s.books.GetByCode(spanCtx, payload.BookCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.BorrowResponse{}, ErrBookNotFound
		}
		span.RecordError(err)
		return dto.BorrowResponse{}, fmt.Errorf("failed to resolve book: %w", err)
	}

	open, err := s.borrows.ActiveByBook(spanCtx, book.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.BorrowResponse{}, ErrNoActiveBorrow
		}
		span.RecordError(err)
		return dto.BorrowResponse{}, fmt.Errorf("failed to find open borrow: %w", err)
	}

	now := s.now()
	returned, err := s.borrows.MarkReturned(spanCtx, open.ID, now)
	if err != nil {
		// Another return closed the borrow between the lookup and the update.
		if errors.Is(err, repository.ErrNotFound) {
			return dto.BorrowResponse{}, ErrNoActiveBorrow
		}
		span.RecordError(err)
		return dto.BorrowResponse{}, fmt.Errorf("failed to mark borrow returned: %w", err)
	}

	if _, err := s.books.SetAvailability(spanCtx, book.ID, false, true); err != nil {
		span.RecordError(err)
		return dto.BorrowResponse{}, fmt.Errorf("failed to restore book availability: %w", err)
	}

	if lateOnReturn(returned.BorrowDate, now) {
		if err := s.students.IncrementWarnings(spanCtx, returned.StudentID); err != nil {
			s.logger.Error().Err(err).Str("student_id", returned.StudentID).
				Msg("failed to increment overdue warnings")
		} else {
			observability.OverdueWarningsTotal().Inc()
		}
	}

	observability.ReturnsTotal().Inc()
	s.record(spanCtx, dto.LoanEvent{
		Type:       dto.LoanEventReturned,
		BorrowID:   returned.ID,
		StudentID:  returned.StudentID,
		BookID:     book.ID,
		BookTitle:  book.Title,
		OccurredAt: now,
	})

	s.logger.Info().
		Str("borrow_id", returned.ID).
		Str("book_id", book.ID).
		Msg("book returned")

	return dto.NewBorrowResponse(returned), nil
}

func (s *ledgerService) ListBorrows(ctx context.Context, query dto.BorrowListRequest) ([]dto.BorrowResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	skip := query.Skip
	if skip < 0 {
		skip = 0
	}

	borrows, err := s.borrows.List(ctx, repository.BorrowFilter{
		ActiveOnly: query.Active,
		Limit:      limit,
		Skip:       skip,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list borrows: %w", err)
	}

	return dto.NewBorrowResponseSlice(borrows), nil
}

func (s *ledgerService) record(ctx context.Context, event dto.LoanEvent) {
	if s.feed == nil {
		return
	}
	s.feed.Record(ctx, event)
}

// lateOnReturn reports whether a return incurs an overdue warning. The policy
// counts elapsed whole days; returning on the seventh day is not late, only
// strictly more than seven full days is.
func lateOnReturn(borrowDate, returnedAt time.Time) bool {
	elapsedDays := int(returnedAt.Sub(borrowDate) / dayDuration)
	return elapsedDays > int(models.LoanPeriod/dayDuration)
}
