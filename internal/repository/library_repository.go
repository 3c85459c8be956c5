package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/fee-api/internal/models"
)

// LibraryRepository reads library clearance state for students.
type LibraryRepository struct {
	db *sqlx.DB
}

// NewLibraryRepository constructs a LibraryRepository.
func NewLibraryRepository(db *sqlx.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// FindByStudent fetches a student's library record if one exists.
func (r *LibraryRepository) FindByStudent(ctx context.Context, studentID string) (*models.LibraryRecord, error) {
	const query = `SELECT id, student_id, books_issued, books_overdue, fine_amount, cleared_at, updated_at
        FROM library_records WHERE student_id = $1`
	var record models.LibraryRecord
	if err := r.db.GetContext(ctx, &record, query, studentID); err != nil {
		return nil, err
	}
	return &record, nil
}

// HasDues reports whether a student has outstanding library obligations.
// A student without a library record has no dues.
func (r *LibraryRepository) HasDues(ctx context.Context, studentID string) (bool, error) {
	record, err := r.FindByStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check library dues: %w", err)
	}
	return record.HasDues(), nil
}
