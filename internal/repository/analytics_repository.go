package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/fee-api/internal/models"
)

// AnalyticsRepository computes collection aggregates straight in SQL.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs an AnalyticsRepository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// CollectionByFeeType aggregates dues and collections per fee type.
func (r *AnalyticsRepository) CollectionByFeeType(ctx context.Context) ([]models.CollectionSummary, error) {
	const query = `SELECT fee_type,
        COALESCE(SUM(due_amount), 0) AS total_due,
        COALESCE(SUM(paid_amount), 0) AS total_paid,
        COALESCE(SUM(due_amount - paid_amount), 0) AS outstanding,
        COUNT(DISTINCT student_id) AS students
        FROM fee_records GROUP BY fee_type ORDER BY fee_type`
	var summaries []models.CollectionSummary
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("collection by fee type: %w", err)
	}
	return summaries, nil
}

// CollectionByDepartment aggregates dues and collections per department.
func (r *AnalyticsRepository) CollectionByDepartment(ctx context.Context) ([]models.DepartmentCollection, error) {
	const query = `SELECT s.department,
        COALESCE(SUM(f.due_amount), 0) AS total_due,
        COALESCE(SUM(f.paid_amount), 0) AS total_paid,
        COALESCE(SUM(f.due_amount - f.paid_amount), 0) AS outstanding
        FROM fee_records f JOIN students s ON s.id = f.student_id
        GROUP BY s.department ORDER BY s.department`
	var collections []models.DepartmentCollection
	if err := r.db.SelectContext(ctx, &collections, query); err != nil {
		return nil, fmt.Errorf("collection by department: %w", err)
	}
	return collections, nil
}

// StudentCounts returns total and active student counts.
func (r *AnalyticsRepository) StudentCounts(ctx context.Context) (total, active int, err error) {
	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE active) FROM students`
	row := r.db.QueryRowContext(ctx, query)
	if err := row.Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("student counts: %w", err)
	}
	return total, active, nil
}

// Defaulters lists students carrying outstanding dues, largest first.
// Filters are optional; zero values are ignored.
func (r *AnalyticsRepository) Defaulters(ctx context.Context, department string, year int, feeType models.FeeType) ([]models.DefaulterRow, error) {
	args := []interface{}{}
	conditions := []string{"f.due_amount > f.paid_amount", "s.active = true"}

	if department != "" {
		conditions = append(conditions, fmt.Sprintf("s.department = $%d", len(args)+1))
		args = append(args, department)
	}
	if year > 0 {
		conditions = append(conditions, fmt.Sprintf("f.year = $%d", len(args)+1))
		args = append(args, year)
	}
	if feeType != "" {
		conditions = append(conditions, fmt.Sprintf("f.fee_type = $%d", len(args)+1))
		args = append(args, feeType)
	}

	query := fmt.Sprintf(`SELECT s.usn, s.name, s.department, s.batch, f.year, f.fee_type,
        SUM(f.due_amount - f.paid_amount) AS outstanding
        FROM fee_records f JOIN students s ON s.id = f.student_id
        WHERE %s
        GROUP BY s.usn, s.name, s.department, s.batch, f.year, f.fee_type
        ORDER BY outstanding DESC, s.usn ASC`, strings.Join(conditions, " AND "))

	var rows []models.DefaulterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list defaulters: %w", err)
	}
	return rows, nil
}
