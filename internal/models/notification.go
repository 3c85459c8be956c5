package models

import "time"

// ExamType distinguishes regular exams from supplementary ones.
type ExamType string

const (
	ExamTypeRegular       ExamType = "regular"
	ExamTypeSupplementary ExamType = "supplementary"
)

// ExamNotification announces an exam registration window.
type ExamNotification struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Year          int       `db:"year" json:"year"`
	Semester      int       `db:"semester" json:"semester"`
	TargetBatches []string  `db:"-" json:"targetBatches"`
	ExamType      ExamType  `db:"exam_type" json:"examType"`
	ExamFeeAmount int64     `db:"exam_fee_amount" json:"examFeeAmount"`
	LateFee       int64     `db:"late_fee" json:"lateFee"`
	StartDate     time.Time `db:"start_date" json:"startDate"`
	EndDate       time.Time `db:"end_date" json:"endDate"`
	Description   string    `db:"description" json:"description,omitempty"`
	IsActive      bool      `db:"is_active" json:"isActive"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// TotalAmount is the exam fee plus the late fee once one applies.
func (n ExamNotification) TotalAmount() int64 {
	total := n.ExamFeeAmount
	if n.LateFee > 0 {
		total += n.LateFee
	}
	return total
}

// Targets reports whether the notification applies to a batch.
// An empty target list means the notification applies to all batches.
func (n ExamNotification) Targets(batch string) bool {
	if len(n.TargetBatches) == 0 {
		return true
	}
	for _, b := range n.TargetBatches {
		if b == batch {
			return true
		}
	}
	return false
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	Year       int
	Semester   int
	Batch      string
	ExamType   ExamType
	ActiveOnly bool
	Page       int
	PageSize   int
}

// NotificationExtension carries the only fields an extension may change.
type NotificationExtension struct {
	EndDate  time.Time `json:"endDate" validate:"required"`
	LateFee  int64     `json:"lateFee" validate:"gte=0"`
	IsActive *bool     `json:"isActive,omitempty"`
}
