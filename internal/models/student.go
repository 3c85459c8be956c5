package models

import "time"

// Quota under which a student was admitted.
type Quota string

const (
	QuotaGovernment Quota = "government"
	QuotaManagement Quota = "management"
	QuotaNRI        Quota = "nri"
)

// EntryType distinguishes regular from lateral-entry admissions.
type EntryType string

const (
	EntryRegular EntryType = "regular"
	EntryLateral EntryType = "lateral"
)

// Departments offered by the college.
var Departments = []string{"CSE", "ECE", "AIML", "CSM", "CAD", "EEE", "CIVIL", "MECH"}

// ValidDepartment reports whether dept is one of the offered departments.
func ValidDepartment(dept string) bool {
	for _, d := range Departments {
		if d == dept {
			return true
		}
	}
	return false
}

// Student is the core student master record.
type Student struct {
	ID               string    `db:"id" json:"id"`
	USN              string    `db:"usn" json:"usn"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	Phone            string    `db:"phone" json:"phone"`
	Department       string    `db:"department" json:"department"`
	Batch            string    `db:"batch" json:"batch"`
	CurrentYear      int       `db:"current_year" json:"currentYear"`
	Quota            Quota     `db:"quota" json:"quota"`
	Entry            EntryType `db:"entry" json:"entry"`
	AnnualCollegeFee int64     `db:"annual_college_fee" json:"annualCollegeFee"`
	TransportOpted   bool      `db:"transport_opted" json:"transportOpted"`
	TransportRoute   string    `db:"transport_route" json:"transportRoute,omitempty"`
	HostelOpted      bool      `db:"hostel_opted" json:"hostelOpted"`
	PlacementOpted   bool      `db:"placement_opted" json:"placementOpted"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// StudentDetail bundles a student with their full fee ledger.
type StudentDetail struct {
	Student Student   `json:"student"`
	Ledger  FeeLedger `json:"ledger"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	Query      string
	Department string
	Batch      string
	Year       int
	Quota      Quota
	Page       int
	PageSize   int
}

// StudentLedger pairs a student with their ledger for batch evaluations.
type StudentLedger struct {
	Student Student
	Ledger  FeeLedger
}
