package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campusops/fee-api/internal/models"
)

func newPaymentRepoMock(t *testing.T) (*PaymentRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPaymentRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestPaymentRepositorySetStatusCompletes(t *testing.T) {
	repo, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE payments SET status = \$2, completed_at = \$3 WHERE id = \$1 AND status = \$4`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetStatus(context.Background(), "pay-1", models.PaymentStatusPending, models.PaymentStatusCompleted)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositorySetStatusLostTransition(t *testing.T) {
	repo, mock, cleanup := newPaymentRepoMock(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE payments SET status = \$2, completed_at = \$3 WHERE id = \$1 AND status = \$4`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), "pay-1", models.PaymentStatusPending, models.PaymentStatusCompleted)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
