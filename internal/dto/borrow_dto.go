package dto

import (
	"time"

	"github.com/biblioflow/biblioflow-api/internal/models"
)

// BorrowRequest describes the payload for checking out a book.
type BorrowRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	BookCode  string `json:"book_code" validate:"required,max=100"`
}

// ReturnRequest describes the payload for returning a book.
type ReturnRequest struct {
	BookCode string `json:"book_code" validate:"required,max=100"`
}

// BorrowListRequest carries the query parameters for listing checkout records.
type BorrowListRequest struct {
	Active bool
	Limit  int
	Skip   int
}

// BorrowResponse is the serialized representation of a checkout record.
// DueDate is always populated: records that predate due-date tracking are
// backfilled from the borrow date on the way out.
type BorrowResponse struct {
	ID         string     `json:"id"`
	StudentID  string     `json:"student_id"`
	BookID     string     `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Returned   bool       `json:"returned"`
}

// NewBorrowResponse converts a model into a DTO, backfilling the due date for
// legacy records.
func NewBorrowResponse(model models.Borrow) BorrowResponse {
	return BorrowResponse{
		ID:         model.ID,
		StudentID:  model.StudentID,
		BookID:     model.BookID,
		BorrowDate: model.BorrowDate,
		DueDate:    model.EffectiveDueDate(),
		ReturnDate: model.ReturnDate,
		Returned:   model.Returned,
	}
}

// NewBorrowResponseSlice converts a slice of models into DTOs.
func NewBorrowResponseSlice(borrows []models.Borrow) []BorrowResponse {
	responses := make([]BorrowResponse, 0, len(borrows))
	for _, borrow := range borrows {
		responses = append(responses, NewBorrowResponse(borrow))
	}

	return responses
}
