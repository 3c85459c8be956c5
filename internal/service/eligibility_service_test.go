package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

type stubLedgerReader struct {
	ledger models.FeeLedger
}

func (s *stubLedgerReader) GetLedger(ctx context.Context, studentID string) (models.FeeLedger, error) {
	return s.ledger, nil
}

type stubNotificationReader struct {
	notification *models.ExamNotification
	err          error
}

func (s *stubNotificationReader) FindByID(ctx context.Context, id string) (*models.ExamNotification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.notification, nil
}

type stubPaymentReader struct {
	payments []models.Payment
}

func (s *stubPaymentReader) ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	return s.payments, nil
}

type stubLibraryChecker struct {
	hasDues bool
}

func (s *stubLibraryChecker) HasDues(ctx context.Context, studentID string) (bool, error) {
	return s.hasDues, nil
}

func eligibilityFixture(t *testing.T, ledger models.FeeLedger, n *models.ExamNotification, payments []models.Payment, libraryDues bool) *EligibilityService {
	t.Helper()
	students := &stubStudentReader{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", USN: "1XX23CS001", Batch: "2023-2027", CurrentYear: 2, Active: true},
	}}
	svc := NewEligibilityService(students,
		&stubLedgerReader{ledger: ledger},
		&stubNotificationReader{notification: n},
		&stubPaymentReader{payments: payments},
		&stubLibraryChecker{hasDues: libraryDues},
		nil)
	svc.now = func() time.Time { return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func activeNotification() *models.ExamNotification {
	return &models.ExamNotification{
		ID:            "notif-1",
		Year:          2,
		Semester:      3,
		TargetBatches: []string{"2023-2027"},
		ExamFeeAmount: 500,
		LateFee:       100,
		StartDate:     time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
	}
}

func TestEligibilityServiceSnapshot(t *testing.T) {
	ledger := models.FeeLedger{StudentID: "stu-1", Records: []models.FeeRecord{
		{FeeType: models.FeeTypeCollege, Year: 2, Semester: 3, DueAmount: 50000, PaidAmount: 25000},
	}}
	svc := eligibilityFixture(t, ledger, activeNotification(), nil, false)

	snap, err := svc.Snapshot(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, snap.EligibleForOddSem)
	assert.False(t, snap.EligibleForEvenSem)
	assert.False(t, snap.IsEligible)
}

func TestEligibilityServiceSnapshotUnknownStudent(t *testing.T) {
	svc := eligibilityFixture(t, models.FeeLedger{}, activeNotification(), nil, false)
	svc.students = &stubStudentReader{findErr: sql.ErrNoRows}

	_, err := svc.Snapshot(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestEligibilityServiceCheckRegistrationAllowed(t *testing.T) {
	ledger := models.FeeLedger{StudentID: "stu-1", Records: []models.FeeRecord{
		{FeeType: models.FeeTypeCollege, Year: 2, Semester: 3, DueAmount: 50000, PaidAmount: 25000},
	}}
	svc := eligibilityFixture(t, ledger, activeNotification(), nil, false)

	decision, err := svc.CheckRegistration(context.Background(), "stu-1", "notif-1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, int64(600), decision.PayableAmount)
}

func TestEligibilityServiceCheckRegistrationWrongBatch(t *testing.T) {
	n := activeNotification()
	n.TargetBatches = []string{"2022-2026"}
	svc := eligibilityFixture(t, models.FeeLedger{}, n, nil, false)

	_, err := svc.CheckRegistration(context.Background(), "stu-1", "notif-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestEligibilityServiceCheckRegistrationLibraryDues(t *testing.T) {
	ledger := models.FeeLedger{StudentID: "stu-1", Records: []models.FeeRecord{
		{FeeType: models.FeeTypeCollege, Year: 2, Semester: 3, DueAmount: 50000, PaidAmount: 50000},
	}}
	svc := eligibilityFixture(t, ledger, activeNotification(), nil, true)

	decision, err := svc.CheckRegistration(context.Background(), "stu-1", "notif-1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.ReasonLibraryDues, decision.ReasonCode)
}

func TestEligibilityServiceCheckRegistrationMissingNotification(t *testing.T) {
	svc := eligibilityFixture(t, models.FeeLedger{}, nil, nil, false)
	svc.notifications = &stubNotificationReader{err: sql.ErrNoRows}

	_, err := svc.CheckRegistration(context.Background(), "stu-1", "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
