package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

type stubStudentStore struct {
	created []*models.Student
	byID    map[string]*models.Student
}

func (s *stubStudentStore) Create(ctx context.Context, student *models.Student) error {
	student.ID = "stu-" + student.USN
	s.created = append(s.created, student)
	return nil
}

func (s *stubStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return s.byID[id], nil
}

func (s *stubStudentStore) FindByUSN(ctx context.Context, usn string) (*models.Student, error) {
	for _, st := range s.created {
		if st.USN == usn {
			return st, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubStudentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return nil, 0, nil
}

func (s *stubStudentStore) Update(ctx context.Context, student *models.Student) error {
	return nil
}

func (s *stubStudentStore) Deactivate(ctx context.Context, id string) error {
	return nil
}

type stubUserStore struct {
	created     []*models.User
	failCreates int
}

func (s *stubUserStore) Create(ctx context.Context, user *models.User) error {
	if s.failCreates > 0 {
		s.failCreates--
		return errors.New("connection reset")
	}
	user.ID = "usr-1"
	s.created = append(s.created, user)
	return nil
}

func (s *stubUserStore) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	for _, u := range s.created {
		if u.StudentID != nil && *u.StudentID == studentID {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return nil
}

func admissionRequest() CreateStudentRequest {
	return CreateStudentRequest{
		USN:              "1ab23cs001",
		Name:             "Asha Rao",
		Email:            "asha@example.com",
		Department:       "CSE",
		Batch:            "2024-2028",
		Quota:            models.QuotaManagement,
		Entry:            models.EntryRegular,
		AnnualCollegeFee: 100000,
		InitialPassword:  "welcome123",
	}
}

func TestStudentServiceCreateProvisionsOpeningFees(t *testing.T) {
	students := &stubStudentStore{}
	users := &stubUserStore{}
	ledgers := &stubLedgerStore{ledgers: map[string]models.FeeLedger{}}
	svc := NewStudentService(students, users, ledgers, nil, nil)

	student, err := svc.Create(context.Background(), admissionRequest())
	require.NoError(t, err)
	assert.Equal(t, "1AB23CS001", student.USN)
	assert.Equal(t, 1, student.CurrentYear)

	ledger := ledgers.ledgers[student.ID]
	require.Len(t, ledger.Records, 2)
	var total int64
	for _, r := range ledger.Records {
		assert.Equal(t, models.FeeTypeCollege, r.FeeType)
		total += r.DueAmount
	}
	assert.Equal(t, int64(100000), total)

	require.Len(t, users.created, 1)
	account := users.created[0]
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.Equal(t, student.USN, account.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("welcome123")))
}

func TestStudentServiceCreateGovernmentQuotaOpensWithZeroCollegeDues(t *testing.T) {
	students := &stubStudentStore{}
	ledgers := &stubLedgerStore{ledgers: map[string]models.FeeLedger{}}
	svc := NewStudentService(students, &stubUserStore{}, ledgers, nil, nil)

	req := admissionRequest()
	req.Quota = models.QuotaGovernment
	student, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	ledger := ledgers.ledgers[student.ID]
	require.Len(t, ledger.Records, 2)
	for _, r := range ledger.Records {
		assert.Equal(t, int64(0), r.DueAmount)
	}
}

func TestStudentServiceCreateLateralEntryStartsYearTwo(t *testing.T) {
	students := &stubStudentStore{}
	ledgers := &stubLedgerStore{ledgers: map[string]models.FeeLedger{}}
	svc := NewStudentService(students, &stubUserStore{}, ledgers, nil, nil)

	req := admissionRequest()
	req.Entry = models.EntryLateral
	student, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, student.CurrentYear)

	ledger := ledgers.ledgers[student.ID]
	require.Len(t, ledger.Records, 2)
	assert.Equal(t, 2, ledger.Records[0].Year)
}

func TestStudentServiceCreateRejectsTransportWithHostel(t *testing.T) {
	svc := NewStudentService(&stubStudentStore{}, &stubUserStore{}, &stubLedgerStore{}, nil, nil)

	req := admissionRequest()
	req.TransportOpted = true
	req.TransportRoute = "Route 7"
	req.HostelOpted = true
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestStudentServiceCreateRejectsDuplicateUSN(t *testing.T) {
	students := &stubStudentStore{}
	ledgers := &stubLedgerStore{ledgers: map[string]models.FeeLedger{}}
	svc := NewStudentService(students, &stubUserStore{}, ledgers, nil, nil)

	_, err := svc.Create(context.Background(), admissionRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), admissionRequest())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Len(t, students.created, 1)
}

func TestStudentServiceCreateResumesAfterAccountFailure(t *testing.T) {
	students := &stubStudentStore{}
	users := &stubUserStore{failCreates: 1}
	ledgers := &stubLedgerStore{ledgers: map[string]models.FeeLedger{}}
	svc := NewStudentService(students, users, ledgers, nil, nil)

	_, err := svc.Create(context.Background(), admissionRequest())
	require.Error(t, err)
	require.Len(t, students.created, 1)
	assert.Empty(t, users.created)

	// The second attempt picks up the stranded row instead of reporting
	// a conflict, and does not duplicate the student or their dues.
	student, err := svc.Create(context.Background(), admissionRequest())
	require.NoError(t, err)
	assert.Len(t, students.created, 1)
	require.Len(t, users.created, 1)

	ledger := ledgers.ledgers[student.ID]
	require.Len(t, ledger.Records, 2)
	var total int64
	for _, r := range ledger.Records {
		total += r.DueAmount
	}
	assert.Equal(t, int64(100000), total)
}
