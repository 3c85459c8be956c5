package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusops/fee-api/internal/engine"
	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

type studentStore interface {
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUSN(ctx context.Context, usn string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

type userStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByStudentID(ctx context.Context, studentID string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// CreateStudentRequest registers a new student with their opening dues.
type CreateStudentRequest struct {
	USN              string           `json:"usn" validate:"required"`
	Name             string           `json:"name" validate:"required"`
	Email            string           `json:"email" validate:"required,email"`
	Phone            string           `json:"phone"`
	Department       string           `json:"department" validate:"required"`
	Batch            string           `json:"batch" validate:"required"`
	Quota            models.Quota     `json:"quota" validate:"required,oneof=government management nri"`
	Entry            models.EntryType `json:"entry" validate:"required,oneof=regular lateral"`
	AnnualCollegeFee int64            `json:"annualCollegeFee" validate:"required,gte=0"`
	TransportOpted   bool             `json:"transportOpted"`
	TransportRoute   string           `json:"transportRoute"`
	TransportFee     int64            `json:"transportFee" validate:"gte=0"`
	HostelOpted      bool             `json:"hostelOpted"`
	HostelFee        int64            `json:"hostelFee" validate:"gte=0"`
	PlacementOpted   bool             `json:"placementOpted"`
	InitialPassword  string           `json:"initialPassword" validate:"required,min=8"`
}

// UpdateStudentRequest edits mutable master-record fields.
type UpdateStudentRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone"`
	TransportOpted bool   `json:"transportOpted"`
	TransportRoute string `json:"transportRoute"`
	HostelOpted    bool   `json:"hostelOpted"`
	PlacementOpted bool   `json:"placementOpted"`
}

// StudentService manages student registration and master-record upkeep.
type StudentService struct {
	students  studentStore
	users     userStore
	ledgers   ledgerStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(students studentStore, users userStore, ledgers ledgerStore, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, users: users, ledgers: ledgers, validator: validate, logger: logger}
}

// Create registers a student: master record, opening fee records, then
// the portal login last. Fee assignment overwrites per bucket and the
// login marks completion, so an interrupted registration is retried with
// the same USN rather than abandoned. Lateral-entry students start in
// year 2, everyone else in year 1.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if !models.ValidDepartment(req.Department) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown department")
	}
	if req.TransportOpted && req.HostelOpted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "transport and hostel cannot both be opted")
	}
	if req.TransportOpted && strings.TrimSpace(req.TransportRoute) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "transport route is required when transport is opted")
	}

	usn := strings.ToUpper(strings.TrimSpace(req.USN))
	student, err := s.resumableStudent(ctx, usn)
	if err != nil {
		return nil, err
	}
	if student == nil {
		year := 1
		if req.Entry == models.EntryLateral {
			year = 2
		}
		student = &models.Student{
			USN:              usn,
			Name:             req.Name,
			Email:            req.Email,
			Phone:            req.Phone,
			Department:       req.Department,
			Batch:            req.Batch,
			CurrentYear:      year,
			Quota:            req.Quota,
			Entry:            req.Entry,
			AnnualCollegeFee: req.AnnualCollegeFee,
			TransportOpted:   req.TransportOpted,
			TransportRoute:   req.TransportRoute,
			HostelOpted:      req.HostelOpted,
			PlacementOpted:   req.PlacementOpted,
			Active:           true,
		}
		if err := s.students.Create(ctx, student); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
		}
	}

	if err := s.provisionOpeningFees(ctx, student, req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.InitialPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Username:     student.USN,
		Email:        student.Email,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		StudentID:    &student.ID,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student account")
	}

	s.logger.Sugar().Infow("student registered",
		"student_id", student.ID, "usn", student.USN, "department", student.Department, "quota", student.Quota)
	return student, nil
}

// resumableStudent decides what an existing USN means for registration.
// A student row with a portal login is a finished registration and a
// genuine conflict. A row without one is the leftover of an interrupted
// Create, so the caller picks up where the earlier attempt stopped
// rather than stranding the row.
func (s *StudentService) resumableStudent(ctx context.Context, usn string) (*models.Student, error) {
	existing, err := s.students.FindByUSN(ctx, usn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check usn")
	}
	if existing == nil {
		return nil, nil
	}
	user, err := s.users.FindByStudentID(ctx, existing.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student account")
	}
	if user != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this USN already exists")
	}
	return existing, nil
}

// provisionOpeningFees seeds the first-year ledger. Government-quota
// students open with zero college dues until the government fee
// structure is rolled out.
func (s *StudentService) provisionOpeningFees(ctx context.Context, student *models.Student, req CreateStudentRequest) error {
	year := student.CurrentYear
	odd, even := models.SemestersForYear(year)
	collegeFee := req.AnnualCollegeFee
	if req.Quota == models.QuotaGovernment {
		collegeFee = 0
	}
	perSemester := collegeFee / 2

	_, err := s.ledgers.Mutate(ctx, student.ID, func(l models.FeeLedger) (models.FeeLedger, error) {
		next, err := engine.AssignFee(l, year, odd, models.FeeTypeCollege, perSemester)
		if err != nil {
			return models.FeeLedger{}, err
		}
		next, err = engine.AssignFee(next, year, even, models.FeeTypeCollege, collegeFee-perSemester)
		if err != nil {
			return models.FeeLedger{}, err
		}
		if req.TransportOpted && req.TransportFee > 0 {
			if next, err = engine.AssignFee(next, year, odd, models.FeeTypeTransport, req.TransportFee); err != nil {
				return models.FeeLedger{}, err
			}
		}
		if req.HostelOpted && req.HostelFee > 0 {
			if next, err = engine.AssignFee(next, year, odd, models.FeeTypeHostel, req.HostelFee); err != nil {
				return models.FeeLedger{}, err
			}
		}
		return next, nil
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision opening fees")
	}
	return nil
}

// Get fetches a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// GetByUSN fetches a student by enrollment number.
func (s *StudentService) GetByUSN(ctx context.Context, usn string) (*models.Student, error) {
	student, err := s.students.FindByUSN(ctx, strings.ToUpper(strings.TrimSpace(usn)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, total, nil
}

// Update edits a student's mutable fields.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if req.TransportOpted && req.HostelOpted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "transport and hostel cannot both be opted")
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student.Name = req.Name
	student.Email = req.Email
	student.Phone = req.Phone
	student.TransportOpted = req.TransportOpted
	student.TransportRoute = req.TransportRoute
	student.HostelOpted = req.HostelOpted
	student.PlacementOpted = req.PlacementOpted

	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Deactivate retires a student record.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.students.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	return nil
}

// ResetPassword replaces a student account's password.
func (s *StudentService) ResetPassword(ctx context.Context, studentID, newPassword string) error {
	if len(newPassword) < 8 {
		return appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters")
	}
	user, err := s.users.FindByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student account")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset password")
	}
	s.logger.Sugar().Infow("student password reset", "student_id", studentID)
	return nil
}
