package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/campusops/fee-api/internal/models"
)

func newNotificationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExamNotificationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewExamNotificationRepository(db)

	mock.ExpectExec(`INSERT INTO exam_notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n := &models.ExamNotification{
		Title:         "III Semester Regular Examinations",
		Year:          2,
		Semester:      3,
		TargetBatches: []string{"2023-2027"},
		ExamType:      models.ExamTypeRegular,
		ExamFeeAmount: 500,
		StartDate:     time.Now(),
		EndDate:       time.Now().AddDate(0, 0, 10),
		IsActive:      true,
	}
	require.NoError(t, repo.Create(context.Background(), n))
	require.NotEmpty(t, n.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamNotificationRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewExamNotificationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "title", "year", "semester", "target_batches", "exam_type", "exam_fee_amount",
		"late_fee", "start_date", "end_date", "description", "is_active", "created_at", "updated_at",
	}).AddRow("notif-1", "III Semester Regular Examinations", 2, 3, pq.StringArray{"2023-2027"},
		models.ExamTypeRegular, int64(500), int64(0), now, now.AddDate(0, 0, 10), "", true, now, now)

	mock.ExpectQuery(`SELECT .+ FROM exam_notifications WHERE id = \$1`).
		WithArgs("notif-1").
		WillReturnRows(rows)

	n, err := repo.FindByID(context.Background(), "notif-1")
	require.NoError(t, err)
	require.Equal(t, []string{"2023-2027"}, n.TargetBatches)
	require.Equal(t, int64(500), n.ExamFeeAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamNotificationRepositoryExtend(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewExamNotificationRepository(db)

	mock.ExpectExec(`UPDATE exam_notifications SET end_date = \$2, late_fee = \$3, updated_at = \$4 WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Extend(context.Background(), "notif-1", time.Now().AddDate(0, 0, 5), 100, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExamNotificationRepositoryExtendMissingRow(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewExamNotificationRepository(db)

	mock.ExpectExec(`UPDATE exam_notifications SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Extend(context.Background(), "missing", time.Now(), 0, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
