package models

import "time"

// LibraryRecord tracks a student's outstanding library obligations.
type LibraryRecord struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"studentId"`
	BooksIssued  int        `db:"books_issued" json:"booksIssued"`
	BooksOverdue int        `db:"books_overdue" json:"booksOverdue"`
	FineAmount   int64      `db:"fine_amount" json:"fineAmount"`
	ClearedAt    *time.Time `db:"cleared_at" json:"clearedAt,omitempty"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// HasDues reports whether the record blocks exam registration.
func (r LibraryRecord) HasDues() bool {
	return r.BooksOverdue > 0 || r.FineAmount > 0
}
