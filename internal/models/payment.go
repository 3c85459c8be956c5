package models

import "time"

// PaymentMode is how a payment was collected.
type PaymentMode string

const (
	PaymentModeCash    PaymentMode = "cash"
	PaymentModeOnline  PaymentMode = "online"
	PaymentModeCheque  PaymentMode = "cheque"
	PaymentModeChallan PaymentMode = "challan"
)

// PaymentStatus tracks the lifecycle of a collected payment.
// Only completed payments are consulted when evaluating eligibility.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is a monetary receipt against a student's dues. A payment links
// to either a fee type bucket or a specific exam notification.
type Payment struct {
	ID                 string        `db:"id" json:"id"`
	StudentID          string        `db:"student_id" json:"studentId"`
	FeeType            FeeType       `db:"fee_type" json:"feeType,omitempty"`
	ExamNotificationID *string       `db:"exam_notification_id" json:"examNotificationId,omitempty"`
	Year               int           `db:"year" json:"year"`
	Amount             int64         `db:"amount" json:"amount"`
	Mode               PaymentMode   `db:"mode" json:"mode"`
	Reference          string        `db:"reference" json:"reference,omitempty"`
	Status             PaymentStatus `db:"status" json:"status"`
	RecordedBy         string        `db:"recorded_by" json:"recordedBy"`
	RecordedAt         time.Time     `db:"recorded_at" json:"recordedAt"`
	CompletedAt        *time.Time    `db:"completed_at" json:"completedAt,omitempty"`
	Description        string        `db:"description" json:"description,omitempty"`
}

// CoversNotification reports whether this payment settles the given
// exam notification.
func (p Payment) CoversNotification(notificationID string) bool {
	return p.Status == PaymentStatusCompleted &&
		p.ExamNotificationID != nil && *p.ExamNotificationID == notificationID
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	StudentID string
	FeeType   FeeType
	Status    PaymentStatus
	From      time.Time
	To        time.Time
	Page      int
	PageSize  int
}
