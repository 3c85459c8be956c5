package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/fee-api/internal/models"
)

// StudentRepository manages persistence for student master records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("s.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("s.batch = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.Year > 0 {
		conditions = append(conditions, fmt.Sprintf("s.current_year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Quota != "" {
		conditions = append(conditions, fmt.Sprintf("s.quota = $%d", len(args)+1))
		args = append(args, filter.Quota)
	}
	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.name) LIKE $%d OR LOWER(s.usn) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.usn, s.name, s.email, s.phone, s.department, s.batch, s.current_year,
        s.quota, s.entry, s.annual_college_fee, s.transport_opted, s.transport_route, s.hostel_opted,
        s.placement_opted, s.active, s.created_at, s.updated_at
        %s ORDER BY s.usn ASC LIMIT %d OFFSET %d`, base, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, usn, name, email, phone, department, batch, current_year, quota, entry,
        annual_college_fee, transport_opted, transport_route, hostel_opted, placement_opted,
        active, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUSN fetches a student by enrollment number.
func (r *StudentRepository) FindByUSN(ctx context.Context, usn string) (*models.Student, error) {
	const query = `SELECT id, usn, name, email, phone, department, batch, current_year, quota, entry,
        annual_college_fee, transport_opted, transport_route, hostel_opted, placement_opted,
        active, created_at, updated_at
        FROM students WHERE usn = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, usn); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, usn, name, email, phone, department, batch, current_year, quota, entry,
        annual_college_fee, transport_opted, transport_route, hostel_opted, placement_opted, active, created_at, updated_at)
        VALUES (:id, :usn, :name, :email, :phone, :department, :batch, :current_year, :quota, :entry,
        :annual_college_fee, :transport_opted, :transport_route, :hostel_opted, :placement_opted, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, email = :email, phone = :phone, department = :department,
        batch = :batch, current_year = :current_year, quota = :quota, entry = :entry,
        annual_college_fee = :annual_college_fee, transport_opted = :transport_opted, transport_route = :transport_route,
        hostel_opted = :hostel_opted, placement_opted = :placement_opted, active = :active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// SetYear moves a student to a new academic year.
func (r *StudentRepository) SetYear(ctx context.Context, id string, year int) error {
	const query = `UPDATE students SET current_year = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, year, time.Now().UTC()); err != nil {
		return fmt.Errorf("set student year: %w", err)
	}
	return nil
}

// Deactivate marks a student as inactive.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE students SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}

// ListCohort returns every active student in a department, batch and year
// combination. Empty filter values are ignored.
func (r *StudentRepository) ListCohort(ctx context.Context, department, batch string, year int, quota models.Quota) ([]models.Student, error) {
	args := []interface{}{}
	conditions := []string{"active = true"}

	if department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, department)
	}
	if batch != "" {
		conditions = append(conditions, fmt.Sprintf("batch = $%d", len(args)+1))
		args = append(args, batch)
	}
	if year > 0 {
		conditions = append(conditions, fmt.Sprintf("current_year = $%d", len(args)+1))
		args = append(args, year)
	}
	if quota != "" {
		conditions = append(conditions, fmt.Sprintf("quota = $%d", len(args)+1))
		args = append(args, quota)
	}

	query := fmt.Sprintf(`SELECT id, usn, name, email, phone, department, batch, current_year, quota, entry,
        annual_college_fee, transport_opted, transport_route, hostel_opted, placement_opted, active, created_at, updated_at
        FROM students WHERE %s ORDER BY usn ASC`, strings.Join(conditions, " AND "))

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list cohort: %w", err)
	}
	return students, nil
}
