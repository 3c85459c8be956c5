package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/fee-api/internal/engine"
	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

type ledgerStore interface {
	GetLedger(ctx context.Context, studentID string) (models.FeeLedger, error)
	Mutate(ctx context.Context, studentID string, fn func(models.FeeLedger) (models.FeeLedger, error)) (models.FeeLedger, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListCohort(ctx context.Context, department, batch string, year int, quota models.Quota) ([]models.Student, error)
}

type analyticsInvalidator interface {
	InvalidateAnalytics(ctx context.Context)
}

// ConcessionRequest grants a fee reduction to one student.
type ConcessionRequest struct {
	StudentID string         `json:"studentId" validate:"required"`
	Year      int            `json:"year" validate:"required,min=1,max=4"`
	FeeType   models.FeeType `json:"feeType" validate:"required"`
	Amount    int64          `json:"amount" validate:"required,gt=0"`
}

// MarkPaidRequest settles a fee bucket for one student.
type MarkPaidRequest struct {
	StudentID string         `json:"studentId" validate:"required"`
	Year      int            `json:"year" validate:"required,min=1,max=4"`
	FeeType   models.FeeType `json:"feeType" validate:"required"`
}

// AssignFeeRequest sets the due for one (year, semester, feeType) slot.
type AssignFeeRequest struct {
	StudentID string         `json:"studentId" validate:"required"`
	Year      int            `json:"year" validate:"required,min=1,max=4"`
	Semester  int            `json:"semester" validate:"required,min=1,max=8"`
	FeeType   models.FeeType `json:"feeType" validate:"required"`
	DueAmount int64          `json:"dueAmount" validate:"gte=0"`
}

// GovFeeRolloutRequest applies a government fee structure to a cohort.
type GovFeeRolloutRequest struct {
	Year       int    `json:"year" validate:"required,min=1,max=4"`
	Amount     int64  `json:"amount" validate:"required,gte=0"`
	Department string `json:"department,omitempty"`
	Batch      string `json:"batch,omitempty"`
}

// GovFeeRolloutResult aggregates the per-student rollout outcome.
type GovFeeRolloutResult struct {
	Total    int                       `json:"total"`
	Assigned int                       `json:"assigned"`
	Failed   int                       `json:"failed"`
	Results  []models.BulkAssignResult `json:"results"`
}

// FeeService orchestrates ledger reads and mutations.
type FeeService struct {
	ledgers   ledgerStore
	students  studentReader
	analytics analyticsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs FeeService.
func NewFeeService(ledgers ledgerStore, students studentReader, analytics analyticsInvalidator, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{
		ledgers:   ledgers,
		students:  students,
		analytics: analytics,
		validator: validate,
		logger:    logger,
	}
}

// GetLedger returns a student's ledger in display order.
func (s *FeeService) GetLedger(ctx context.Context, studentID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	ledger, err := s.ledgers.GetLedger(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}
	ledger.Records = ledger.Sorted()
	return &models.StudentDetail{Student: *student, Ledger: ledger}, nil
}

// ApplyConcession reduces an outstanding due inside one locked mutation.
func (s *FeeService) ApplyConcession(ctx context.Context, req ConcessionRequest) (models.FeeLedger, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.FeeLedger{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid concession payload")
	}
	ledger, err := s.ledgers.Mutate(ctx, req.StudentID, func(l models.FeeLedger) (models.FeeLedger, error) {
		return engine.ApplyConcession(l, req.Year, req.FeeType, req.Amount)
	})
	if err != nil {
		return models.FeeLedger{}, err
	}
	s.logger.Sugar().Infow("concession applied",
		"student_id", req.StudentID, "year", req.Year, "fee_type", req.FeeType, "amount", req.Amount)
	s.invalidate(ctx)
	return ledger, nil
}

// MarkFullyPaid settles every record in the requested bucket.
func (s *FeeService) MarkFullyPaid(ctx context.Context, req MarkPaidRequest) (models.FeeLedger, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.FeeLedger{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark-paid payload")
	}
	ledger, err := s.ledgers.Mutate(ctx, req.StudentID, func(l models.FeeLedger) (models.FeeLedger, error) {
		return engine.MarkFullyPaid(l, req.Year, req.FeeType)
	})
	if err != nil {
		return models.FeeLedger{}, err
	}
	s.logger.Sugar().Infow("fee bucket marked paid",
		"student_id", req.StudentID, "year", req.Year, "fee_type", req.FeeType)
	s.invalidate(ctx)
	return ledger, nil
}

// AssignFee sets the due amount for a single record.
func (s *FeeService) AssignFee(ctx context.Context, req AssignFeeRequest) (models.FeeLedger, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.FeeLedger{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	ledger, err := s.ledgers.Mutate(ctx, req.StudentID, func(l models.FeeLedger) (models.FeeLedger, error) {
		return engine.AssignFee(l, req.Year, req.Semester, req.FeeType, req.DueAmount)
	})
	if err != nil {
		return models.FeeLedger{}, err
	}
	s.invalidate(ctx)
	return ledger, nil
}

// RolloutGovernmentFees assigns the configured college fee to both semesters
// of the year for every active government-quota student in the cohort. Each
// student commits independently; one failure never aborts the rest.
func (s *FeeService) RolloutGovernmentFees(ctx context.Context, req GovFeeRolloutRequest) (*GovFeeRolloutResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rollout payload")
	}

	cohort, err := s.students.ListCohort(ctx, req.Department, req.Batch, req.Year, models.QuotaGovernment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort")
	}

	odd, even := models.SemestersForYear(req.Year)
	result := &GovFeeRolloutResult{Total: len(cohort), Results: make([]models.BulkAssignResult, 0, len(cohort))}
	for _, student := range cohort {
		_, err := s.ledgers.Mutate(ctx, student.ID, func(l models.FeeLedger) (models.FeeLedger, error) {
			next, err := engine.AssignFee(l, req.Year, odd, models.FeeTypeCollege, req.Amount)
			if err != nil {
				return models.FeeLedger{}, err
			}
			return engine.AssignFee(next, req.Year, even, models.FeeTypeCollege, req.Amount)
		})
		if err != nil {
			result.Failed++
			result.Results = append(result.Results, models.BulkAssignResult{StudentID: student.ID, Error: err.Error()})
			s.logger.Sugar().Warnw("rollout skipped student", "student_id", student.ID, "error", err)
			continue
		}
		result.Assigned++
		result.Results = append(result.Results, models.BulkAssignResult{StudentID: student.ID, Assigned: true})
	}

	s.logger.Sugar().Infow("government fee rollout finished",
		"year", req.Year, "amount", req.Amount, "total", result.Total, "assigned", result.Assigned, "failed", result.Failed)
	s.invalidate(ctx)
	return result, nil
}

func (s *FeeService) invalidate(ctx context.Context) {
	if s.analytics != nil {
		s.analytics.InvalidateAnalytics(ctx)
	}
}
