package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

func collegeLedger(records ...models.FeeRecord) models.FeeLedger {
	return models.FeeLedger{StudentID: "stu-1", Records: records}
}

func record(year, sem int, due, paid int64) models.FeeRecord {
	return models.FeeRecord{
		StudentID:  "stu-1",
		FeeType:    models.FeeTypeCollege,
		Year:       year,
		Semester:   sem,
		DueAmount:  due,
		PaidAmount: paid,
	}
}

func assertInvariant(t *testing.T, ledger models.FeeLedger) {
	t.Helper()
	for _, r := range ledger.Records {
		assert.GreaterOrEqual(t, r.PaidAmount, int64(0))
		assert.LessOrEqual(t, r.PaidAmount, r.DueAmount)
	}
}

func TestApplyConcession(t *testing.T) {
	t.Run("reduces due on the targeted record", func(t *testing.T) {
		ledger := collegeLedger(record(1, 1, 50000, 20000))

		got, err := ApplyConcession(ledger, 1, models.FeeTypeCollege, 10000)
		require.NoError(t, err)

		assert.Equal(t, int64(40000), got.Records[0].DueAmount)
		assert.Equal(t, int64(20000), got.Records[0].PaidAmount)
		assertInvariant(t, got)

		// input snapshot untouched
		assert.Equal(t, int64(50000), ledger.Records[0].DueAmount)
	})

	t.Run("targets the earliest outstanding semester", func(t *testing.T) {
		ledger := collegeLedger(
			record(1, 2, 50000, 0),
			record(1, 1, 50000, 50000),
		)

		got, err := ApplyConcession(ledger, 1, models.FeeTypeCollege, 5000)
		require.NoError(t, err)

		// semester 1 is settled, semester 2 takes the concession
		assert.Equal(t, int64(45000), got.Records[0].DueAmount)
		assert.Equal(t, 2, got.Records[0].Semester)
	})

	t.Run("prefers the lower semester when both are outstanding", func(t *testing.T) {
		ledger := collegeLedger(
			record(2, 4, 50000, 0),
			record(2, 3, 50000, 0),
		)

		got, err := ApplyConcession(ledger, 2, models.FeeTypeCollege, 5000)
		require.NoError(t, err)

		assert.Equal(t, 3, got.Records[1].Semester)
		assert.Equal(t, int64(45000), got.Records[1].DueAmount)
		assert.Equal(t, int64(50000), got.Records[0].DueAmount)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		ledger := collegeLedger(record(1, 1, 50000, 0))

		_, err := ApplyConcession(ledger, 1, models.FeeTypeCollege, 0)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

		_, err = ApplyConcession(ledger, 1, models.FeeTypeCollege, -100)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	})

	t.Run("rejects amounts exceeding the outstanding due", func(t *testing.T) {
		ledger := collegeLedger(record(1, 1, 50000, 0))

		_, err := ApplyConcession(ledger, 1, models.FeeTypeCollege, 60000)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	})

	t.Run("not found when no outstanding record matches", func(t *testing.T) {
		ledger := collegeLedger(record(1, 1, 50000, 50000))

		_, err := ApplyConcession(ledger, 1, models.FeeTypeCollege, 1000)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

		_, err = ApplyConcession(ledger, 2, models.FeeTypeTransport, 1000)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	})
}

func TestMarkFullyPaid(t *testing.T) {
	t.Run("settles every record in the bucket", func(t *testing.T) {
		ledger := collegeLedger(
			record(1, 1, 50000, 25000),
			record(1, 2, 50000, 0),
		)

		got, err := MarkFullyPaid(ledger, 1, models.FeeTypeCollege)
		require.NoError(t, err)

		for _, r := range got.Records {
			assert.Equal(t, models.FeeStatusPaid, r.Status())
		}
		assertInvariant(t, got)
	})

	t.Run("is idempotent", func(t *testing.T) {
		ledger := collegeLedger(record(1, 1, 50000, 10000))

		once, err := MarkFullyPaid(ledger, 1, models.FeeTypeCollege)
		require.NoError(t, err)
		twice, err := MarkFullyPaid(once, 1, models.FeeTypeCollege)
		require.NoError(t, err)

		assert.Equal(t, once, twice)
	})

	t.Run("errors when the bucket has no records", func(t *testing.T) {
		ledger := collegeLedger(record(1, 1, 50000, 0))

		_, err := MarkFullyPaid(ledger, 3, models.FeeTypeCollege)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrState))
	})
}

func TestAssignFee(t *testing.T) {
	t.Run("creates a record when none exists", func(t *testing.T) {
		got, err := AssignFee(collegeLedger(), 2, 3, models.FeeTypeCollege, 45000)
		require.NoError(t, err)

		require.Len(t, got.Records, 1)
		assert.Equal(t, int64(45000), got.Records[0].DueAmount)
		assert.Equal(t, int64(0), got.Records[0].PaidAmount)
		assert.Equal(t, "stu-1", got.Records[0].StudentID)
	})

	t.Run("overwrites an existing due", func(t *testing.T) {
		ledger := collegeLedger(record(1, 1, 50000, 10000))

		got, err := AssignFee(ledger, 1, 1, models.FeeTypeCollege, 60000)
		require.NoError(t, err)

		require.Len(t, got.Records, 1)
		assert.Equal(t, int64(60000), got.Records[0].DueAmount)
		assert.Equal(t, int64(10000), got.Records[0].PaidAmount)
	})

	t.Run("clamps paid when the due drops below it", func(t *testing.T) {
		ledger := collegeLedger(record(1, 1, 50000, 40000))

		got, err := AssignFee(ledger, 1, 1, models.FeeTypeCollege, 30000)
		require.NoError(t, err)

		assert.Equal(t, int64(30000), got.Records[0].DueAmount)
		assert.Equal(t, int64(30000), got.Records[0].PaidAmount)
		assertInvariant(t, got)
	})

	t.Run("validates its inputs", func(t *testing.T) {
		cases := []struct {
			name     string
			year     int
			semester int
			feeType  models.FeeType
			due      int64
		}{
			{"year too low", 0, 1, models.FeeTypeCollege, 1000},
			{"year too high", 5, 9, models.FeeTypeCollege, 1000},
			{"semester of another year", 2, 1, models.FeeTypeCollege, 1000},
			{"unknown fee type", 1, 1, models.FeeType("parking"), 1000},
			{"negative due", 1, 1, models.FeeTypeCollege, -1},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := AssignFee(collegeLedger(), tc.year, tc.semester, tc.feeType, tc.due)
				require.Error(t, err)
				assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
			})
		}
	})
}

func TestBulkAssign(t *testing.T) {
	t.Run("assigns both semesters per student", func(t *testing.T) {
		ledgers := map[string]models.FeeLedger{
			"stu-a": {StudentID: "stu-a"},
			"stu-b": {StudentID: "stu-b", Records: []models.FeeRecord{
				{StudentID: "stu-b", FeeType: models.FeeTypeCollege, Year: 2, Semester: 3, DueAmount: 10000, PaidAmount: 10000},
			}},
		}

		updated, results := BulkAssign(ledgers, 2, models.FeeTypeCollege, 40000)

		require.Len(t, results, 2)
		assert.Equal(t, "stu-a", results[0].StudentID)
		assert.Equal(t, "stu-b", results[1].StudentID)
		for _, res := range results {
			assert.True(t, res.Assigned)
			assert.Empty(t, res.Error)
		}

		for id, ledger := range updated {
			assert.Equal(t, int64(40000), ledger.Records[0].DueAmount, id)
			assert.Equal(t, int64(40000), ledger.Records[1].DueAmount, id)
			assertInvariant(t, ledger)
		}
		// stu-b's prior payment survives but is clamped to the new due
		assert.Equal(t, int64(10000), updated["stu-b"].Records[0].PaidAmount)
	})

	t.Run("one failure does not block the cohort", func(t *testing.T) {
		ledgers := map[string]models.FeeLedger{
			"stu-a": {StudentID: "stu-a"},
			"stu-b": {StudentID: "stu-b"},
		}

		updated, results := BulkAssign(ledgers, 9, models.FeeTypeCollege, 40000)
		assert.Empty(t, updated)
		require.Len(t, results, 2)
		for _, res := range results {
			assert.False(t, res.Assigned)
			assert.NotEmpty(t, res.Error)
		}
	})

	t.Run("input ledgers are never mutated", func(t *testing.T) {
		ledgers := map[string]models.FeeLedger{
			"stu-a": {StudentID: "stu-a", Records: []models.FeeRecord{
				{StudentID: "stu-a", FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 5000},
			}},
		}

		_, _ = BulkAssign(ledgers, 1, models.FeeTypeCollege, 90000)
		assert.Equal(t, int64(5000), ledgers["stu-a"].Records[0].DueAmount)
	})
}
