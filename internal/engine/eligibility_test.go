package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/fee-api/internal/models"
)

func TestComputeAcademicEligibility(t *testing.T) {
	t.Run("fully settled ledger is eligible with no reasons", func(t *testing.T) {
		ledger := collegeLedger(
			record(1, 1, 50000, 50000),
			record(1, 2, 50000, 50000),
		)

		snap := ComputeAcademicEligibility(ledger)

		assert.True(t, snap.IsEligible)
		assert.True(t, snap.EligibleForOddSem)
		assert.True(t, snap.EligibleForEvenSem)
		assert.Empty(t, snap.Reasons)
	})

	t.Run("half paid odd semester clears the odd threshold exactly", func(t *testing.T) {
		snap := ComputeAcademicEligibility(collegeLedger(record(1, 1, 50000, 25000)))
		assert.True(t, snap.EligibleForOddSem)
		assert.False(t, snap.EligibleForEvenSem)
		assert.False(t, snap.IsEligible)
	})

	t.Run("one rupee under half fails the odd threshold", func(t *testing.T) {
		snap := ComputeAcademicEligibility(collegeLedger(record(1, 1, 50000, 24999)))
		assert.False(t, snap.EligibleForOddSem)
	})

	t.Run("paid odd semester with unpaid even semester", func(t *testing.T) {
		ledger := collegeLedger(
			record(1, 1, 50000, 50000),
			record(1, 2, 50000, 0),
		)

		snap := ComputeAcademicEligibility(ledger)

		assert.True(t, snap.EligibleForOddSem)
		assert.False(t, snap.EligibleForEvenSem)
		assert.False(t, snap.IsEligible)
		require.Len(t, snap.Reasons, 1)
		assert.Equal(t, "Year 1 Semester 2 college fee pending: ₹50000 due", snap.Reasons[0])
	})

	t.Run("non-college records never count", func(t *testing.T) {
		ledger := models.FeeLedger{StudentID: "stu-1", Records: []models.FeeRecord{
			{StudentID: "stu-1", FeeType: models.FeeTypeTransport, Year: 1, Semester: 1, DueAmount: 8000},
			{StudentID: "stu-1", FeeType: models.FeeTypeHostel, Year: 1, Semester: 1, DueAmount: 30000},
		}}

		snap := ComputeAcademicEligibility(ledger)
		assert.True(t, snap.IsEligible)
		assert.Empty(t, snap.Reasons)
	})

	t.Run("one reason per failing record", func(t *testing.T) {
		ledger := collegeLedger(
			record(1, 1, 50000, 0),
			record(1, 2, 50000, 0),
			record(2, 3, 45000, 45000),
		)

		snap := ComputeAcademicEligibility(ledger)
		assert.Len(t, snap.Reasons, 2)
	})
}

func TestCanRegisterForExam(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	notification := func() models.ExamNotification {
		return models.ExamNotification{
			ID:            "notif-1",
			Year:          2,
			Semester:      3,
			ExamFeeAmount: 500,
			LateFee:       100,
			StartDate:     now.AddDate(0, 0, -1),
			EndDate:       now.AddDate(0, 0, 5),
			IsActive:      true,
		}
	}
	student := models.Student{ID: "stu-1", USN: "1XX22CS001", Batch: "2022-2026"}
	halfPaid := collegeLedger(record(2, 3, 50000, 25000))

	t.Run("allowed with late fee folded in", func(t *testing.T) {
		got := CanRegisterForExam(student, halfPaid, notification(), nil, false, now)

		assert.True(t, got.Allowed)
		assert.Empty(t, got.ReasonCode)
		assert.Equal(t, int64(600), got.PayableAmount)
	})

	t.Run("no late fee when none is set", func(t *testing.T) {
		n := notification()
		n.LateFee = 0

		got := CanRegisterForExam(student, halfPaid, n, nil, false, now)
		assert.Equal(t, int64(500), got.PayableAmount)
	})

	t.Run("inactive notification", func(t *testing.T) {
		n := notification()
		n.IsActive = false

		got := CanRegisterForExam(student, halfPaid, n, nil, false, now)
		assert.False(t, got.Allowed)
		assert.Equal(t, models.ReasonOutOfWindow, got.ReasonCode)
	})

	t.Run("window not yet open", func(t *testing.T) {
		n := notification()
		n.StartDate = now.AddDate(0, 0, 2)

		got := CanRegisterForExam(student, halfPaid, n, nil, false, now)
		assert.Equal(t, models.ReasonNotStarted, got.ReasonCode)
	})

	t.Run("window expired", func(t *testing.T) {
		n := notification()
		n.EndDate = now.AddDate(0, 0, -1)

		got := CanRegisterForExam(student, halfPaid, n, nil, false, now)
		assert.Equal(t, models.ReasonExpired, got.ReasonCode)
	})

	t.Run("already paid wins over library dues", func(t *testing.T) {
		notifID := "notif-1"
		payments := []models.Payment{{
			StudentID:          "stu-1",
			ExamNotificationID: &notifID,
			Status:             models.PaymentStatusCompleted,
		}}

		got := CanRegisterForExam(student, halfPaid, notification(), payments, true, now)
		assert.Equal(t, models.ReasonAlreadyPaid, got.ReasonCode)
	})

	t.Run("pending payments do not count as paid", func(t *testing.T) {
		notifID := "notif-1"
		payments := []models.Payment{{
			StudentID:          "stu-1",
			ExamNotificationID: &notifID,
			Status:             models.PaymentStatusPending,
		}}

		got := CanRegisterForExam(student, halfPaid, notification(), payments, false, now)
		assert.True(t, got.Allowed)
	})

	t.Run("library dues block registration", func(t *testing.T) {
		got := CanRegisterForExam(student, halfPaid, notification(), nil, true, now)
		assert.Equal(t, models.ReasonLibraryDues, got.ReasonCode)
	})

	t.Run("odd semester under half payment is blocked", func(t *testing.T) {
		ledger := collegeLedger(record(2, 3, 50000, 20000))

		got := CanRegisterForExam(student, ledger, notification(), nil, false, now)
		assert.Equal(t, models.ReasonFeeThresholdNotMet, got.ReasonCode)
	})

	t.Run("even semester requires full settlement", func(t *testing.T) {
		n := notification()
		n.Semester = 4
		ledger := collegeLedger(
			record(2, 3, 50000, 50000),
			record(2, 4, 50000, 40000),
		)

		got := CanRegisterForExam(student, ledger, n, nil, false, now)
		assert.Equal(t, models.ReasonFeeThresholdNotMet, got.ReasonCode)

		settled, err := MarkFullyPaid(ledger, 2, models.FeeTypeCollege)
		require.NoError(t, err)
		got = CanRegisterForExam(student, settled, n, nil, false, now)
		assert.True(t, got.Allowed)
	})
}
