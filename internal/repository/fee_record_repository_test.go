package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

func newFeeRecordRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func feeRecordRows(records ...models.FeeRecord) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "student_id", "fee_type", "year", "semester", "due_amount", "paid_amount", "created_at", "updated_at"})
	for _, r := range records {
		rows.AddRow(r.ID, r.StudentID, r.FeeType, r.Year, r.Semester, r.DueAmount, r.PaidAmount, time.Now(), time.Now())
	}
	return rows
}

func TestFeeRecordRepositoryGetLedger(t *testing.T) {
	db, mock, cleanup := newFeeRecordRepoMock(t)
	defer cleanup()
	repo := NewFeeRecordRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM fee_records WHERE student_id = \$1 ORDER BY year DESC, semester DESC`).
		WithArgs("stu-1").
		WillReturnRows(feeRecordRows(
			models.FeeRecord{ID: "fee-1", StudentID: "stu-1", FeeType: models.FeeTypeCollege, Year: 1, Semester: 2, DueAmount: 50000, PaidAmount: 0},
			models.FeeRecord{ID: "fee-2", StudentID: "stu-1", FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 50000, PaidAmount: 50000},
		))

	ledger, err := repo.GetLedger(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, ledger.Records, 2)
	require.Equal(t, "stu-1", ledger.StudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRecordRepositoryMutateCommits(t *testing.T) {
	db, mock, cleanup := newFeeRecordRepoMock(t)
	defer cleanup()
	repo := NewFeeRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM fee_records WHERE student_id = \$1 ORDER BY year DESC, semester DESC FOR UPDATE`).
		WithArgs("stu-1").
		WillReturnRows(feeRecordRows(
			models.FeeRecord{ID: "fee-1", StudentID: "stu-1", FeeType: models.FeeTypeCollege, Year: 1, Semester: 1, DueAmount: 50000, PaidAmount: 0},
		))
	mock.ExpectExec(`INSERT INTO fee_records .+ ON CONFLICT .+ DO UPDATE SET .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ledger, err := repo.Mutate(context.Background(), "stu-1", func(l models.FeeLedger) (models.FeeLedger, error) {
		l.Records[0].PaidAmount = l.Records[0].DueAmount
		return l, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(50000), ledger.Records[0].PaidAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRecordRepositoryMutateRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newFeeRecordRepoMock(t)
	defer cleanup()
	repo := NewFeeRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM fee_records WHERE student_id = \$1 ORDER BY year DESC, semester DESC FOR UPDATE`).
		WithArgs("stu-1").
		WillReturnRows(feeRecordRows())
	mock.ExpectRollback()

	_, err := repo.Mutate(context.Background(), "stu-1", func(l models.FeeLedger) (models.FeeLedger, error) {
		return models.FeeLedger{}, appErrors.Clone(appErrors.ErrValidation, "bad amount")
	})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRecordRepositoryMutateAssignsIDsToNewRecords(t *testing.T) {
	db, mock, cleanup := newFeeRecordRepoMock(t)
	defer cleanup()
	repo := NewFeeRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FOR UPDATE`).
		WithArgs("stu-1").
		WillReturnRows(feeRecordRows())
	mock.ExpectExec(`INSERT INTO fee_records .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ledger, err := repo.Mutate(context.Background(), "stu-1", func(l models.FeeLedger) (models.FeeLedger, error) {
		l.Records = append(l.Records, models.FeeRecord{
			StudentID: "stu-1",
			FeeType:   models.FeeTypeCollege,
			Year:      1,
			Semester:  1,
			DueAmount: 45000,
		})
		return l, nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, ledger.Records[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
