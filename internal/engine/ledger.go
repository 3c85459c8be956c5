// Package engine holds the fee-clearance rule sets. Every function here is
// a pure computation over caller-supplied ledger snapshots: inputs are never
// mutated, results are returned as new values, and persistence is left to
// the service layer committing the outcome.
package engine

import (
	"fmt"
	"sort"

	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

// ApplyConcession reduces the outstanding due of a fee record by amount.
// When several semesters of the same year and fee type carry outstanding
// dues, the earliest semester is targeted so the outcome does not depend
// on record order.
func ApplyConcession(ledger models.FeeLedger, year int, feeType models.FeeType, amount int64) (models.FeeLedger, error) {
	if amount <= 0 {
		return models.FeeLedger{}, appErrors.Clone(appErrors.ErrValidation, "concession amount must be positive")
	}

	out := ledger.Clone()
	idx := -1
	for i, r := range out.Records {
		if r.Year != year || r.FeeType != feeType || r.Outstanding() <= 0 {
			continue
		}
		if idx == -1 || r.Semester < out.Records[idx].Semester {
			idx = i
		}
	}
	if idx == -1 {
		return models.FeeLedger{}, appErrors.Clone(appErrors.ErrNotFound,
			fmt.Sprintf("no outstanding %s fee record for year %d", feeType, year))
	}

	target := &out.Records[idx]
	if amount > target.Outstanding() {
		return models.FeeLedger{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("concession %d exceeds outstanding due of %d", amount, target.Outstanding()))
	}

	target.DueAmount -= amount
	return out, nil
}

// MarkFullyPaid satisfies every record in the (year, feeType) bucket by
// raising paid to due. Applying it to an already settled bucket is a no-op.
func MarkFullyPaid(ledger models.FeeLedger, year int, feeType models.FeeType) (models.FeeLedger, error) {
	out := ledger.Clone()
	found := false
	for i := range out.Records {
		r := &out.Records[i]
		if r.Year != year || r.FeeType != feeType {
			continue
		}
		found = true
		if r.PaidAmount < r.DueAmount {
			r.PaidAmount = r.DueAmount
		}
	}
	if !found {
		return models.FeeLedger{}, appErrors.Clone(appErrors.ErrState,
			fmt.Sprintf("no %s fee record exists for year %d", feeType, year))
	}
	return out, nil
}

// AssignFee creates or overwrites the record keyed by (year, semester,
// feeType) with a new due amount. When the new due undercuts a prior
// payment the paid amount is clamped down to it.
func AssignFee(ledger models.FeeLedger, year, semester int, feeType models.FeeType, dueAmount int64) (models.FeeLedger, error) {
	if err := validateAssignment(year, semester, feeType, dueAmount); err != nil {
		return models.FeeLedger{}, err
	}

	out := ledger.Clone()
	for i := range out.Records {
		r := &out.Records[i]
		if r.Year != year || r.Semester != semester || r.FeeType != feeType {
			continue
		}
		r.DueAmount = dueAmount
		if r.PaidAmount > dueAmount {
			r.PaidAmount = dueAmount
		}
		return out, nil
	}

	out.Records = append(out.Records, models.FeeRecord{
		StudentID: out.StudentID,
		FeeType:   feeType,
		Year:      year,
		Semester:  semester,
		DueAmount: dueAmount,
	})
	return out, nil
}

// BulkAssign applies the due amount to both semesters of the year for every
// ledger in the cohort. Each student's ledger either takes both assignments
// or is left untouched, and one student's failure never blocks the rest.
// Results are ordered by student ID.
func BulkAssign(ledgers map[string]models.FeeLedger, year int, feeType models.FeeType, dueAmount int64) (map[string]models.FeeLedger, []models.BulkAssignResult) {
	updated := make(map[string]models.FeeLedger, len(ledgers))
	results := make([]models.BulkAssignResult, 0, len(ledgers))

	ids := make([]string, 0, len(ledgers))
	for id := range ledgers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	odd, even := models.SemestersForYear(year)
	for _, id := range ids {
		ledger := ledgers[id]
		next, err := AssignFee(ledger, year, odd, feeType, dueAmount)
		if err == nil {
			next, err = AssignFee(next, year, even, feeType, dueAmount)
		}
		if err != nil {
			results = append(results, models.BulkAssignResult{StudentID: id, Error: err.Error()})
			continue
		}
		updated[id] = next
		results = append(results, models.BulkAssignResult{StudentID: id, Assigned: true})
	}
	return updated, results
}

func validateAssignment(year, semester int, feeType models.FeeType, dueAmount int64) error {
	if year < 1 || year > 4 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("year %d out of range", year))
	}
	odd, even := models.SemestersForYear(year)
	if semester != odd && semester != even {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("semester %d does not belong to year %d", semester, year))
	}
	if !models.ValidFeeType(feeType) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown fee type %q", feeType))
	}
	if dueAmount < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "due amount cannot be negative")
	}
	return nil
}
