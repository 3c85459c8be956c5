package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/fee-api/internal/models"
)

func rosterEntry(id string, records ...models.FeeRecord) models.StudentLedger {
	return models.StudentLedger{
		Student: models.Student{ID: id, USN: id, Name: "Student " + id},
		Ledger:  models.FeeLedger{StudentID: id, Records: records},
	}
}

func TestComputePromotable(t *testing.T) {
	t.Run("zero college due promotes, one rupee blocks", func(t *testing.T) {
		roster := []models.StudentLedger{
			rosterEntry("clear",
				models.FeeRecord{FeeType: models.FeeTypeCollege, Year: 2, Semester: 3, DueAmount: 50000, PaidAmount: 50000},
				models.FeeRecord{FeeType: models.FeeTypeCollege, Year: 2, Semester: 4, DueAmount: 50000, PaidAmount: 50000},
			),
			rosterEntry("blocked",
				models.FeeRecord{FeeType: models.FeeTypeCollege, Year: 2, Semester: 3, DueAmount: 50000, PaidAmount: 49999},
			),
		}

		report := ComputePromotable(roster, 2)

		require.Len(t, report.Eligible, 1)
		require.Len(t, report.Blocked, 1)
		assert.Equal(t, "clear", report.Eligible[0].ID)
		assert.Equal(t, "blocked", report.Blocked[0].ID)
	})

	t.Run("other fee types never block promotion", func(t *testing.T) {
		roster := []models.StudentLedger{
			rosterEntry("hostel-due",
				models.FeeRecord{FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 50000, PaidAmount: 50000},
				models.FeeRecord{FeeType: models.FeeTypeHostel, Year: 1, Semester: 1, DueAmount: 30000, PaidAmount: 0},
				models.FeeRecord{FeeType: models.FeeTypeTransport, Year: 1, Semester: 2, DueAmount: 8000, PaidAmount: 0},
			),
		}

		report := ComputePromotable(roster, 1)
		assert.Len(t, report.Eligible, 1)
		assert.Empty(t, report.Blocked)
	})

	t.Run("other years never block promotion", func(t *testing.T) {
		roster := []models.StudentLedger{
			rosterEntry("prior-year-due",
				models.FeeRecord{FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 50000, PaidAmount: 0},
				models.FeeRecord{FeeType: models.FeeTypeCollege, Year: 2, Semester: 3, DueAmount: 50000, PaidAmount: 50000},
			),
		}

		report := ComputePromotable(roster, 2)
		assert.Len(t, report.Eligible, 1)
	})

	t.Run("student with no records for the year promotes", func(t *testing.T) {
		roster := []models.StudentLedger{rosterEntry("fresh")}

		report := ComputePromotable(roster, 3)
		assert.Len(t, report.Eligible, 1)
	})
}

func TestPromotionRows(t *testing.T) {
	roster := []models.StudentLedger{
		rosterEntry("a",
			models.FeeRecord{FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 50000, PaidAmount: 30000},
			models.FeeRecord{FeeType: models.FeeTypeCollege, Year: 1, Semester: 2, DueAmount: 50000, PaidAmount: 0},
		),
		rosterEntry("b",
			models.FeeRecord{FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 50000, PaidAmount: 50000},
		),
	}

	rows := PromotionRows(roster, 1)

	require.Len(t, rows, 2)
	assert.False(t, rows[0].Eligible)
	assert.Equal(t, int64(70000), rows[0].OutstandingDue)
	assert.True(t, rows[1].Eligible)
	assert.Equal(t, int64(0), rows[1].OutstandingDue)
}
