package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/biblioflow/biblioflow-api/internal/models"
	"github.com/biblioflow/biblioflow-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type memoryStudentRepo struct {
	mu       sync.Mutex
	students map[string]models.Student
}

func newMemoryStudentRepo() *memoryStudentRepo {
	return &memoryStudentRepo{students: make(map[string]models.Student)}
}

func (m *memoryStudentRepo) Create(ctx context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.students {
		if existing.AdmissionNumber == student.AdmissionNumber {
			return repository.ErrDuplicateKey
		}
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	m.students[student.ID] = *student
	return nil
}

func (m *memoryStudentRepo) GetByID(ctx context.Context, id string) (models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	student, ok := m.students[id]
	if !ok {
		return models.Student{}, repository.ErrNotFound
	}
	return student, nil
}

func (m *memoryStudentRepo) List(ctx context.Context, filter repository.ListFilter) ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.Student
	query := strings.ToLower(filter.Query)
	for _, student := range m.students {
		if query == "" ||
			strings.Contains(strings.ToLower(student.Name), query) ||
			strings.Contains(strings.ToLower(student.AdmissionNumber), query) {
			matched = append(matched, student)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return window(matched, filter.Limit, filter.Skip), nil
}

func (m *memoryStudentRepo) Update(ctx context.Context, id string, update repository.StudentUpdate) (models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	student, ok := m.students[id]
	if !ok {
		return models.Student{}, repository.ErrNotFound
	}
	if update.Name != nil {
		student.Name = *update.Name
	}
	if update.AdmissionNumber != nil {
		for otherID, other := range m.students {
			if otherID != id && other.AdmissionNumber == *update.AdmissionNumber {
				return models.Student{}, repository.ErrDuplicateKey
			}
		}
		student.AdmissionNumber = *update.AdmissionNumber
	}
	if update.ClassName != nil {
		student.ClassName = *update.ClassName
	}
	if update.Section != nil {
		student.Section = *update.Section
	}
	if update.Contact != nil {
		student.Contact = *update.Contact
	}
	m.students[id] = student
	return student, nil
}

func (m *memoryStudentRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.students, id)
	return nil
}

func (m *memoryStudentRepo) IncrementWarnings(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	student, ok := m.students[id]
	if !ok {
		return repository.ErrNotFound
	}
	student.Warnings++
	m.students[id] = student
	return nil
}

type memoryBookRepo struct {
	mu    sync.Mutex
	books map[string]models.Book
}

func newMemoryBookRepo() *memoryBookRepo {
	return &memoryBookRepo{books: make(map[string]models.Book)}
}

func (m *memoryBookRepo) Create(ctx context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.books {
		if codesCollide(existing.SBIN, book.SBIN) || codesCollide(existing.Stamp, book.Stamp) {
			return repository.ErrDuplicateKey
		}
	}
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	m.books[book.ID] = *book
	return nil
}

func (m *memoryBookRepo) GetByID(ctx context.Context, id string) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[id]
	if !ok {
		return models.Book{}, repository.ErrNotFound
	}
	return book, nil
}

func (m *memoryBookRepo) GetByCode(ctx context.Context, code string) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, book := range m.books {
		if (book.SBIN != nil && *book.SBIN == code) || (book.Stamp != nil && *book.Stamp == code) {
			return book, nil
		}
	}
	return models.Book{}, repository.ErrNotFound
}

func (m *memoryBookRepo) List(ctx context.Context, filter repository.ListFilter) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.Book
	query := strings.ToLower(filter.Query)
	for _, book := range m.books {
		if query == "" ||
			strings.Contains(strings.ToLower(book.Title), query) ||
			strings.Contains(strings.ToLower(book.Author), query) {
			matched = append(matched, book)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return window(matched, filter.Limit, filter.Skip), nil
}

func (m *memoryBookRepo) Update(ctx context.Context, id string, update repository.BookUpdate) (models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[id]
	if !ok {
		return models.Book{}, repository.ErrNotFound
	}
	if update.Title != nil {
		book.Title = *update.Title
	}
	if update.Author != nil {
		book.Author = *update.Author
	}
	if update.SBIN != nil {
		book.SBIN = update.SBIN
	}
	if update.Stamp != nil {
		book.Stamp = update.Stamp
	}
	m.books[id] = book
	return book, nil
}

func (m *memoryBookRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *memoryBookRepo) SetAvailability(ctx context.Context, id string, expected, next bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if book.Available != expected {
		return false, nil
	}
	book.Available = next
	m.books[id] = book
	return true, nil
}

type memoryBorrowRepo struct {
	mu      sync.Mutex
	borrows []models.Borrow

	createErr error
}

func newMemoryBorrowRepo() *memoryBorrowRepo {
	return &memoryBorrowRepo{}
}

func (m *memoryBorrowRepo) Create(ctx context.Context, borrow *models.Borrow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if borrow.ID == "" {
		borrow.ID = uuid.NewString()
	}
	m.borrows = append(m.borrows, *borrow)
	return nil
}

func (m *memoryBorrowRepo) ActiveByBook(ctx context.Context, bookID string) (models.Borrow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, borrow := range m.borrows {
		if borrow.BookID == bookID && !borrow.Returned {
			return borrow, nil
		}
	}
	return models.Borrow{}, repository.ErrNotFound
}

func (m *memoryBorrowRepo) HasActiveForBook(ctx context.Context, bookID string) (bool, error) {
	_, err := m.ActiveByBook(ctx, bookID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memoryBorrowRepo) HasActiveForStudent(ctx context.Context, studentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, borrow := range m.borrows {
		if borrow.StudentID == studentID && !borrow.Returned {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryBorrowRepo) MarkReturned(ctx context.Context, id string, at time.Time) (models.Borrow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, borrow := range m.borrows {
		if borrow.ID == id && !borrow.Returned {
			returnedAt := at
			m.borrows[i].Returned = true
			m.borrows[i].ReturnDate = &returnedAt
			return m.borrows[i], nil
		}
	}
	return models.Borrow{}, repository.ErrNotFound
}

func (m *memoryBorrowRepo) List(ctx context.Context, filter repository.BorrowFilter) ([]models.Borrow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.Borrow
	for _, borrow := range m.borrows {
		if filter.ActiveOnly && borrow.Returned {
			continue
		}
		matched = append(matched, borrow)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].BorrowDate.After(matched[j].BorrowDate)
	})
	return window(matched, filter.Limit, filter.Skip), nil
}

func window[T any](items []T, limit, skip int) []T {
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return append([]T(nil), items...)
}

func codesCollide(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}
