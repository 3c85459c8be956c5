package models

import (
	"sort"
	"time"
)

// FeeType identifies the category a fee record belongs to.
type FeeType string

const (
	FeeTypeCollege   FeeType = "college"
	FeeTypeTransport FeeType = "transport"
	FeeTypeHostel    FeeType = "hostel"
	FeeTypePlacement FeeType = "placement"
	FeeTypeExam      FeeType = "exam"
)

// ValidFeeType reports whether t is a known fee type.
func ValidFeeType(t FeeType) bool {
	switch t {
	case FeeTypeCollege, FeeTypeTransport, FeeTypeHostel, FeeTypePlacement, FeeTypeExam:
		return true
	}
	return false
}

// FeeStatus is derived from a record's paid and due amounts.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPartial FeeStatus = "partial"
	FeeStatusPaid    FeeStatus = "paid"
)

// FeeRecord is one semester's dues for one fee type. Amounts are whole rupees.
type FeeRecord struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"studentId"`
	FeeType    FeeType   `db:"fee_type" json:"feeType"`
	Year       int       `db:"year" json:"year"`
	Semester   int       `db:"semester" json:"semester"`
	DueAmount  int64     `db:"due_amount" json:"dueAmount"`
	PaidAmount int64     `db:"paid_amount" json:"paidAmount"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Outstanding returns the unpaid balance, never negative.
func (r FeeRecord) Outstanding() int64 {
	if out := r.DueAmount - r.PaidAmount; out > 0 {
		return out
	}
	return 0
}

// Status derives the record state from its amounts.
func (r FeeRecord) Status() FeeStatus {
	switch {
	case r.PaidAmount >= r.DueAmount:
		return FeeStatusPaid
	case r.PaidAmount > 0:
		return FeeStatusPartial
	default:
		return FeeStatusPending
	}
}

// FeeLedger is the complete set of fee records for one student.
type FeeLedger struct {
	StudentID string      `json:"studentId"`
	Records   []FeeRecord `json:"records"`
}

// Sorted returns records ordered year descending, semester descending,
// which is the order ledgers are displayed in.
func (l FeeLedger) Sorted() []FeeRecord {
	out := make([]FeeRecord, len(l.Records))
	copy(out, l.Records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Semester > out[j].Semester
	})
	return out
}

// Clone deep-copies the ledger so callers can mutate safely.
func (l FeeLedger) Clone() FeeLedger {
	records := make([]FeeRecord, len(l.Records))
	copy(records, l.Records)
	return FeeLedger{StudentID: l.StudentID, Records: records}
}

// OutstandingFor sums unpaid balances for a fee type across the given year.
func (l FeeLedger) OutstandingFor(feeType FeeType, year int) int64 {
	var total int64
	for _, r := range l.Records {
		if r.FeeType == feeType && r.Year == year {
			total += r.Outstanding()
		}
	}
	return total
}

// SemestersForYear maps an academic year to its odd and even semesters.
func SemestersForYear(year int) (odd, even int) {
	return year*2 - 1, year * 2
}
