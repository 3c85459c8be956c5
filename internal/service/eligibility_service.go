package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/fee-api/internal/engine"
	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

type ledgerReader interface {
	GetLedger(ctx context.Context, studentID string) (models.FeeLedger, error)
}

type notificationReader interface {
	FindByID(ctx context.Context, id string) (*models.ExamNotification, error)
}

type paymentReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error)
}

type libraryChecker interface {
	HasDues(ctx context.Context, studentID string) (bool, error)
}

// EligibilityService evaluates fee clearance and exam registration checks.
// Verdicts are always computed fresh from the current ledger, never cached.
type EligibilityService struct {
	students      studentReader
	ledgers       ledgerReader
	notifications notificationReader
	payments      paymentReader
	library       libraryChecker
	logger        *zap.Logger
	now           func() time.Time
}

// NewEligibilityService constructs EligibilityService.
func NewEligibilityService(students studentReader, ledgers ledgerReader, notifications notificationReader, payments paymentReader, library libraryChecker, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		students:      students,
		ledgers:       ledgers,
		notifications: notifications,
		payments:      payments,
		library:       library,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Snapshot computes the academic fee-clearance snapshot for a student.
func (s *EligibilityService) Snapshot(ctx context.Context, studentID string) (*models.EligibilitySnapshot, error) {
	if _, err := s.findStudent(ctx, studentID); err != nil {
		return nil, err
	}
	ledger, err := s.ledgers.GetLedger(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}
	snap := engine.ComputeAcademicEligibility(ledger)
	return &snap, nil
}

// CheckRegistration decides whether a student may register for an exam
// notification right now.
func (s *EligibilityService) CheckRegistration(ctx context.Context, studentID, notificationID string) (*models.RegistrationDecision, error) {
	student, err := s.findStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	notification, err := s.notifications.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if !notification.Targets(student.Batch) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "notification does not target this student's batch")
	}

	ledger, err := s.ledgers.GetLedger(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}
	payments, err := s.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	hasDues, err := s.library.HasDues(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check library dues")
	}

	decision := engine.CanRegisterForExam(*student, ledger, *notification, payments, hasDues, s.now())
	s.logger.Sugar().Debugw("registration check",
		"student_id", studentID, "notification_id", notificationID,
		"allowed", decision.Allowed, "reason", decision.ReasonCode)
	return &decision, nil
}

func (s *EligibilityService) findStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}
