package models

import "time"

// LoanPeriod is the fixed checkout duration. The due date of every borrow is
// derivable as borrow_date + LoanPeriod.
const LoanPeriod = 7 * 24 * time.Hour

// Borrow is a single checkout record. It is created by a borrow operation and
// mutated exactly once, by the matching return. Legacy rows may lack a stored
// due date; readers backfill it from the borrow date instead of treating it as
// unknown.
type Borrow struct {
	ID         string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	StudentID  string     `gorm:"size:36;not null;index:idx_borrows_student_open,priority:1" bson:"student_id" json:"student_id"`
	BookID     string     `gorm:"size:36;not null;index:idx_borrows_book_open,priority:1" bson:"book_id" json:"book_id"`
	BorrowDate time.Time  `gorm:"not null" bson:"borrow_date" json:"borrow_date"`
	DueDate    *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`
	ReturnDate *time.Time `bson:"return_date,omitempty" json:"return_date,omitempty"`
	Returned   bool       `gorm:"not null;default:false;index:idx_borrows_book_open,priority:2;index:idx_borrows_student_open,priority:2" bson:"returned" json:"returned"`
}

// EffectiveDueDate returns the stored due date, or the backfilled
// borrow_date + LoanPeriod when the record predates due-date tracking.
func (b Borrow) EffectiveDueDate() time.Time {
	if b.DueDate != nil {
		return *b.DueDate
	}
	return b.BorrowDate.Add(LoanPeriod)
}
