package models

import "time"

// Reason codes explaining why exam registration is blocked.
const (
	ReasonOutOfWindow        = "OUT_OF_WINDOW"
	ReasonNotStarted         = "NOT_STARTED"
	ReasonExpired            = "EXPIRED"
	ReasonAlreadyPaid        = "ALREADY_PAID"
	ReasonLibraryDues        = "LIBRARY_DUES"
	ReasonFeeThresholdNotMet = "FEE_THRESHOLD_NOT_MET"
)

// EligibilitySnapshot is the fee-clearance verdict derived from a ledger.
// It is recomputed on demand and never persisted.
type EligibilitySnapshot struct {
	IsEligible         bool      `json:"isEligible"`
	EligibleForOddSem  bool      `json:"eligibleForOddSem"`
	EligibleForEvenSem bool      `json:"eligibleForEvenSem"`
	Reasons            []string  `json:"reasons"`
	ComputedAt         time.Time `json:"computedAt"`
}

// RegistrationDecision is the outcome of a full exam registration check,
// combining the payment state, the notification window and fee clearance.
type RegistrationDecision struct {
	Allowed       bool   `json:"allowed"`
	ReasonCode    string `json:"reasonCode,omitempty"`
	PayableAmount int64  `json:"payableAmount"`
}

// PromotionReport partitions a roster into promotable and blocked students.
type PromotionReport struct {
	Eligible []Student `json:"eligible"`
	Blocked  []Student `json:"blocked"`
}

// PromotionRow summarizes one student's standing in a promotion run.
type PromotionRow struct {
	StudentID      string `json:"studentId"`
	USN            string `json:"usn"`
	Name           string `json:"name"`
	Eligible       bool   `json:"eligible"`
	OutstandingDue int64  `json:"outstandingDue"`
}

// BulkAssignResult reports the outcome of assigning a fee to one student.
type BulkAssignResult struct {
	StudentID string `json:"studentId"`
	Assigned  bool   `json:"assigned"`
	Error     string `json:"error,omitempty"`
}
