package dto

import "time"

// Circulation event kinds.
const (
	LoanEventBorrowed = "borrowed"
	LoanEventReturned = "returned"
)

// LoanEvent is a single circulation-desk event streamed to feed subscribers.
type LoanEvent struct {
	Type       string    `json:"type"`
	BorrowID   string    `json:"borrow_id"`
	StudentID  string    `json:"student_id"`
	BookID     string    `json:"book_id"`
	BookTitle  string    `json:"book_title"`
	OccurredAt time.Time `json:"occurred_at"`
}
