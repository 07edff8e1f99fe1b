package repository

import (
	"context"
	"errors"
	"time"

	"github.com/biblioflow/biblioflow-api/internal/models"
)

// Storage-agnostic failure kinds. Both adapters translate their driver errors
// into these before anything above the repository layer sees them.
var (
	// ErrNotFound indicates the requested id or code does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey indicates a unique-constraint violation on insert or update.
	ErrDuplicateKey = errors.New("duplicate key")
)

// StudentUpdate names the student fields a partial update may touch.
// Nil fields are left untouched.
type StudentUpdate struct {
	Name            *string
	AdmissionNumber *string
	ClassName       *string
	Section         *string
	Contact         *string
}

// BookUpdate names the book fields a partial update may touch.
type BookUpdate struct {
	Title  *string
	Author *string
	SBIN   *string
	Stamp  *string
}

// ListFilter carries the common substring search and window parameters.
// Matching is case-insensitive across the entity's searchable fields.
type ListFilter struct {
	Query string
	Limit int
	Skip  int
}

// BorrowFilter selects borrow records for listing.
type BorrowFilter struct {
	ActiveOnly bool
	Limit      int
	Skip       int
}

// StudentRepository provides durable access to student records.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id string) (models.Student, error)
	List(ctx context.Context, filter ListFilter) ([]models.Student, error)
	Update(ctx context.Context, id string, update StudentUpdate) (models.Student, error)
	Delete(ctx context.Context, id string) error
	IncrementWarnings(ctx context.Context, id string) error
}

// BookRepository provides durable access to book records.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id string) (models.Book, error)
	// GetByCode resolves a book by either of its circulation codes.
	GetByCode(ctx context.Context, code string) (models.Book, error)
	List(ctx context.Context, filter ListFilter) ([]models.Book, error)
	Update(ctx context.Context, id string, update BookUpdate) (models.Book, error)
	Delete(ctx context.Context, id string) error
	// SetAvailability flips the availability flag only when it currently holds
	// the expected value, as a single atomic conditional update. It reports
	// whether the flip happened. Concurrent borrows of the same book are
	// serialized by this primitive.
	SetAvailability(ctx context.Context, id string, expected, next bool) (bool, error)
}

// BorrowRepository provides durable access to checkout records.
type BorrowRepository interface {
	Create(ctx context.Context, borrow *models.Borrow) error
	// ActiveByBook returns the single open borrow for a book, or ErrNotFound.
	ActiveByBook(ctx context.Context, bookID string) (models.Borrow, error)
	HasActiveForBook(ctx context.Context, bookID string) (bool, error)
	HasActiveForStudent(ctx context.Context, studentID string) (bool, error)
	// MarkReturned closes an open borrow. ErrNotFound when the id is unknown
	// or the borrow is already closed.
	MarkReturned(ctx context.Context, id string, at time.Time) (models.Borrow, error)
	List(ctx context.Context, filter BorrowFilter) ([]models.Borrow, error)
}
