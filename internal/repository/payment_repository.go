package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/fee-api/internal/models"
)

const paymentColumns = `id, student_id, fee_type, exam_notification_id, year, amount, mode, reference, status, recorded_by, recorded_at, completed_at, description`

// PaymentRepository manages persistence for payment receipts.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, student_id, fee_type, exam_notification_id, year, amount, mode, reference, status, recorded_by, recorded_at, completed_at, description)
        VALUES (:id, :student_id, :fee_type, :exam_notification_id, :year, :amount, :mode, :reference, :status, :recorded_by, :recorded_at, :completed_at, :description)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByID fetches a payment by ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	var p models.Payment
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByStudent returns a student's payments, newest first.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE student_id = $1 ORDER BY recorded_at DESC`, paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// List returns payments matching the filter, newest first.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.FeeType != "" {
		conditions = append(conditions, fmt.Sprintf("fee_type = $%d", len(args)+1))
		args = append(args, filter.FeeType)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("recorded_at >= $%d", len(args)+1))
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("recorded_at <= $%d", len(args)+1))
		args = append(args, filter.To)
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

	query := fmt.Sprintf(`SELECT %s FROM payments WHERE %s ORDER BY recorded_at DESC LIMIT %d OFFSET %d`,
		paymentColumns, where, size, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payments WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// SetStatus transitions a payment and stamps completion when applicable.
// The update only lands while the row is still in the expected state, so
// losing the transition to a concurrent caller surfaces as sql.ErrNoRows.
func (r *PaymentRepository) SetStatus(ctx context.Context, id string, from, to models.PaymentStatus) error {
	var completedAt *time.Time
	if to == models.PaymentStatusCompleted {
		now := time.Now().UTC()
		completedAt = &now
	}
	const query = `UPDATE payments SET status = $2, completed_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, to, completedAt, from)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
