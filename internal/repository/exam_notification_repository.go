package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campusops/fee-api/internal/models"
)

// ExamNotificationRepository manages persistence for exam notifications.
type ExamNotificationRepository struct {
	db *sqlx.DB
}

// NewExamNotificationRepository constructs an ExamNotificationRepository.
func NewExamNotificationRepository(db *sqlx.DB) *ExamNotificationRepository {
	return &ExamNotificationRepository{db: db}
}

type examNotificationRow struct {
	models.ExamNotification
	Batches pq.StringArray `db:"target_batches"`
}

func (row examNotificationRow) toModel() models.ExamNotification {
	n := row.ExamNotification
	n.TargetBatches = []string(row.Batches)
	return n
}

// Create inserts a new notification.
func (r *ExamNotificationRepository) Create(ctx context.Context, n *models.ExamNotification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	const query = `INSERT INTO exam_notifications
        (id, title, year, semester, target_batches, exam_type, exam_fee_amount, late_fee, start_date, end_date, description, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.Title, n.Year, n.Semester, pq.StringArray(n.TargetBatches), n.ExamType,
		n.ExamFeeAmount, n.LateFee, n.StartDate, n.EndDate, n.Description, n.IsActive,
		n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// FindByID fetches a notification by ID.
func (r *ExamNotificationRepository) FindByID(ctx context.Context, id string) (*models.ExamNotification, error) {
	const query = `SELECT id, title, year, semester, target_batches, exam_type, exam_fee_amount, late_fee,
        start_date, end_date, description, is_active, created_at, updated_at
        FROM exam_notifications WHERE id = $1`
	var row examNotificationRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	n := row.toModel()
	return &n, nil
}

// List returns notifications matching the filter, newest first.
func (r *ExamNotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.ExamNotification, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.ExamType != "" {
		conditions = append(conditions, fmt.Sprintf("exam_type = $%d", len(args)+1))
		args = append(args, filter.ExamType)
	}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("(cardinality(target_batches) = 0 OR $%d = ANY(target_batches))", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = true")
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, title, year, semester, target_batches, exam_type, exam_fee_amount, late_fee,
        start_date, end_date, description, is_active, created_at, updated_at
        FROM exam_notifications WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, offset)

	var rows []examNotificationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM exam_notifications WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	notifications := make([]models.ExamNotification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, row.toModel())
	}
	return notifications, total, nil
}

// Extend updates the only mutable fields of a notification.
func (r *ExamNotificationRepository) Extend(ctx context.Context, id string, endDate time.Time, lateFee int64, isActive *bool) error {
	args := []interface{}{id, endDate, lateFee, time.Now().UTC()}
	query := `UPDATE exam_notifications SET end_date = $2, late_fee = $3, updated_at = $4`
	if isActive != nil {
		query += fmt.Sprintf(", is_active = $%d", len(args)+1)
		args = append(args, *isActive)
	}
	query += " WHERE id = $1"

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("extend notification: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("extend notification: no row for id %s", id)
	}
	return nil
}

// Delete removes a notification.
func (r *ExamNotificationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exam_notifications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
