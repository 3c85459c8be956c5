package engine

import "github.com/campusops/fee-api/internal/models"

// ComputePromotable partitions a roster by college-fee clearance for the
// year being promoted out of. Transport, hostel and other dues never block
// promotion. Classification only; the caller performs the actual year
// increment and next-year fee provisioning.
func ComputePromotable(roster []models.StudentLedger, fromYear int) models.PromotionReport {
	report := models.PromotionReport{
		Eligible: []models.Student{},
		Blocked:  []models.Student{},
	}
	for _, entry := range roster {
		if entry.Ledger.OutstandingFor(models.FeeTypeCollege, fromYear) <= 0 {
			report.Eligible = append(report.Eligible, entry.Student)
		} else {
			report.Blocked = append(report.Blocked, entry.Student)
		}
	}
	return report
}

// PromotionRows flattens a roster into per-student summary rows for
// reporting, preserving roster order.
func PromotionRows(roster []models.StudentLedger, fromYear int) []models.PromotionRow {
	rows := make([]models.PromotionRow, 0, len(roster))
	for _, entry := range roster {
		due := entry.Ledger.OutstandingFor(models.FeeTypeCollege, fromYear)
		rows = append(rows, models.PromotionRow{
			StudentID:      entry.Student.ID,
			USN:            entry.Student.USN,
			Name:           entry.Student.Name,
			Eligible:       due <= 0,
			OutstandingDue: due,
		})
	}
	return rows
}
