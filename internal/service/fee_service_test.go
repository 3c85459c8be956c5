package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

type stubLedgerStore struct {
	ledgers map[string]models.FeeLedger
	mutErr  error
}

func (s *stubLedgerStore) GetLedger(ctx context.Context, studentID string) (models.FeeLedger, error) {
	return s.ledgers[studentID], nil
}

func (s *stubLedgerStore) Mutate(ctx context.Context, studentID string, fn func(models.FeeLedger) (models.FeeLedger, error)) (models.FeeLedger, error) {
	if s.mutErr != nil {
		return models.FeeLedger{}, s.mutErr
	}
	next, err := fn(s.ledgers[studentID])
	if err != nil {
		return models.FeeLedger{}, err
	}
	s.ledgers[studentID] = next
	return next, nil
}

type stubStudentReader struct {
	students map[string]*models.Student
	cohort   []models.Student
	findErr  error
}

func (s *stubStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.students[id], nil
}

func (s *stubStudentReader) ListCohort(ctx context.Context, department, batch string, year int, quota models.Quota) ([]models.Student, error) {
	return s.cohort, nil
}

func TestFeeServiceApplyConcession(t *testing.T) {
	store := &stubLedgerStore{ledgers: map[string]models.FeeLedger{
		"stu-1": {StudentID: "stu-1", Records: []models.FeeRecord{
			{StudentID: "stu-1", FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 50000, PaidAmount: 0},
		}},
	}}
	svc := NewFeeService(store, &stubStudentReader{}, nil, nil, nil)

	ledger, err := svc.ApplyConcession(context.Background(), ConcessionRequest{
		StudentID: "stu-1",
		Year:      1,
		FeeType:   models.FeeTypeCollege,
		Amount:    10000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(40000), ledger.Records[0].DueAmount)
	assert.Equal(t, int64(40000), store.ledgers["stu-1"].Records[0].DueAmount)
}

func TestFeeServiceApplyConcessionRejectsExcess(t *testing.T) {
	store := &stubLedgerStore{ledgers: map[string]models.FeeLedger{
		"stu-1": {StudentID: "stu-1", Records: []models.FeeRecord{
			{StudentID: "stu-1", FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 50000, PaidAmount: 0},
		}},
	}}
	svc := NewFeeService(store, &stubStudentReader{}, nil, nil, nil)

	_, err := svc.ApplyConcession(context.Background(), ConcessionRequest{
		StudentID: "stu-1",
		Year:      1,
		FeeType:   models.FeeTypeCollege,
		Amount:    60000,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	// nothing committed
	assert.Equal(t, int64(50000), store.ledgers["stu-1"].Records[0].DueAmount)
}

func TestFeeServiceApplyConcessionValidatesPayload(t *testing.T) {
	svc := NewFeeService(&stubLedgerStore{}, &stubStudentReader{}, nil, nil, nil)

	_, err := svc.ApplyConcession(context.Background(), ConcessionRequest{StudentID: "", Year: 1, FeeType: models.FeeTypeCollege, Amount: 100})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestFeeServiceMarkFullyPaid(t *testing.T) {
	store := &stubLedgerStore{ledgers: map[string]models.FeeLedger{
		"stu-1": {StudentID: "stu-1", Records: []models.FeeRecord{
			{StudentID: "stu-1", FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 50000, PaidAmount: 20000},
			{StudentID: "stu-1", FeeType: models.FeeTypeCollege, Year: 1, Semester: 2, DueAmount: 50000, PaidAmount: 0},
		}},
	}}
	svc := NewFeeService(store, &stubStudentReader{}, nil, nil, nil)

	ledger, err := svc.MarkFullyPaid(context.Background(), MarkPaidRequest{
		StudentID: "stu-1",
		Year:      1,
		FeeType:   models.FeeTypeCollege,
	})
	require.NoError(t, err)
	for _, r := range ledger.Records {
		assert.Equal(t, models.FeeStatusPaid, r.Status())
	}
}

func TestFeeServiceRolloutGovernmentFees(t *testing.T) {
	store := &stubLedgerStore{ledgers: map[string]models.FeeLedger{
		"stu-a": {StudentID: "stu-a"},
		"stu-b": {StudentID: "stu-b"},
	}}
	students := &stubStudentReader{cohort: []models.Student{
		{ID: "stu-a", Quota: models.QuotaGovernment},
		{ID: "stu-b", Quota: models.QuotaGovernment},
	}}
	svc := NewFeeService(store, students, nil, nil, nil)

	result, err := svc.RolloutGovernmentFees(context.Background(), GovFeeRolloutRequest{Year: 2, Amount: 35000})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Assigned)
	assert.Equal(t, 0, result.Failed)

	for id, ledger := range store.ledgers {
		require.Len(t, ledger.Records, 2, id)
		assert.Equal(t, 3, ledger.Records[0].Semester)
		assert.Equal(t, 4, ledger.Records[1].Semester)
		assert.Equal(t, int64(35000), ledger.Records[0].DueAmount)
	}
}
