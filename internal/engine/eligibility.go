package engine

import (
	"fmt"
	"time"

	"github.com/campusops/fee-api/internal/models"
)

// ComputeAcademicEligibility derives the fee-clearance snapshot from a
// ledger. Only college fee records count. A student is fully eligible when
// every college record is settled. Odd-semester registration tolerates half
// payment on odd-semester records; even-semester registration requires full
// settlement across the board since an even semester implies the odd one
// before it.
func ComputeAcademicEligibility(ledger models.FeeLedger) models.EligibilitySnapshot {
	snap := models.EligibilitySnapshot{
		IsEligible:         true,
		EligibleForOddSem:  true,
		EligibleForEvenSem: true,
		Reasons:            []string{},
		ComputedAt:         time.Now().UTC(),
	}

	for _, r := range ledger.Sorted() {
		if r.FeeType != models.FeeTypeCollege {
			continue
		}
		if r.Status() != models.FeeStatusPaid {
			snap.IsEligible = false
			snap.EligibleForEvenSem = false
			snap.Reasons = append(snap.Reasons,
				fmt.Sprintf("Year %d Semester %d college fee pending: ₹%d due", r.Year, r.Semester, r.Outstanding()))
		}
		// Half payment, checked without floating point.
		if r.Semester%2 == 1 && 2*r.PaidAmount < r.DueAmount {
			snap.EligibleForOddSem = false
		}
	}
	return snap
}

// CanRegisterForExam decides whether a student may register for an exam
// notification. Checks run in a fixed order and the first failure wins:
// registration window, prior payment, library dues, then the parity
// threshold for the notification's semester.
func CanRegisterForExam(
	student models.Student,
	ledger models.FeeLedger,
	notification models.ExamNotification,
	payments []models.Payment,
	libraryHasDues bool,
	now time.Time,
) models.RegistrationDecision {
	decision := models.RegistrationDecision{PayableAmount: notification.TotalAmount()}

	switch {
	case !notification.IsActive:
		decision.ReasonCode = models.ReasonOutOfWindow
		return decision
	case now.Before(notification.StartDate):
		decision.ReasonCode = models.ReasonNotStarted
		return decision
	case now.After(notification.EndDate):
		decision.ReasonCode = models.ReasonExpired
		return decision
	}

	for _, p := range payments {
		if p.CoversNotification(notification.ID) {
			decision.ReasonCode = models.ReasonAlreadyPaid
			return decision
		}
	}

	if libraryHasDues {
		decision.ReasonCode = models.ReasonLibraryDues
		return decision
	}

	snap := ComputeAcademicEligibility(ledger)
	if notification.Semester%2 == 1 {
		if !snap.EligibleForOddSem {
			decision.ReasonCode = models.ReasonFeeThresholdNotMet
			return decision
		}
	} else if !snap.EligibleForEvenSem {
		decision.ReasonCode = models.ReasonFeeThresholdNotMet
		return decision
	}

	decision.Allowed = true
	return decision
}
