package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/fee-api/internal/engine"
	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

type cohortLedgerStore interface {
	GetLedgers(ctx context.Context, studentIDs []string) (map[string]models.FeeLedger, error)
	Mutate(ctx context.Context, studentID string, fn func(models.FeeLedger) (models.FeeLedger, error)) (models.FeeLedger, error)
}

type promotionStudentStore interface {
	ListCohort(ctx context.Context, department, batch string, year int, quota models.Quota) ([]models.Student, error)
	SetYear(ctx context.Context, id string, year int) error
}

// PromotionRequest scopes a promotion run to a cohort.
type PromotionRequest struct {
	Department string `json:"department,omitempty"`
	Batch      string `json:"batch,omitempty"`
	FromYear   int    `json:"fromYear" validate:"required,min=1,max=4"`
}

// PromotionOutcome is the result of an executed promotion run.
type PromotionOutcome struct {
	FromYear int                   `json:"fromYear"`
	ToYear   int                   `json:"toYear"`
	Promoted []models.PromotionRow `json:"promoted"`
	Blocked  []models.PromotionRow `json:"blocked"`
	Failed   []models.PromotionRow `json:"failed,omitempty"`
}

// PromotionService classifies and executes year promotions for a cohort.
type PromotionService struct {
	students  promotionStudentStore
	ledgers   cohortLedgerStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPromotionService constructs PromotionService.
func NewPromotionService(students promotionStudentStore, ledgers cohortLedgerStore, validate *validator.Validate, logger *zap.Logger) *PromotionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotionService{students: students, ledgers: ledgers, validator: validate, logger: logger}
}

// Preview classifies the cohort without changing anything.
func (s *PromotionService) Preview(ctx context.Context, req PromotionRequest) ([]models.PromotionRow, error) {
	roster, err := s.loadRoster(ctx, req)
	if err != nil {
		return nil, err
	}
	return engine.PromotionRows(roster, req.FromYear), nil
}

// Execute promotes every fee-clear student one year up and provisions their
// next-year college fee records, splitting the annual fee across the two
// semesters. Blocked students are reported, not touched. Final-year
// students cannot be promoted further.
func (s *PromotionService) Execute(ctx context.Context, req PromotionRequest) (*PromotionOutcome, error) {
	if req.FromYear >= 4 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "final-year students cannot be promoted")
	}
	roster, err := s.loadRoster(ctx, req)
	if err != nil {
		return nil, err
	}

	report := engine.ComputePromotable(roster, req.FromYear)
	rows := make(map[string]models.PromotionRow, len(roster))
	for _, row := range engine.PromotionRows(roster, req.FromYear) {
		rows[row.StudentID] = row
	}

	toYear := req.FromYear + 1
	odd, even := models.SemestersForYear(toYear)
	outcome := &PromotionOutcome{FromYear: req.FromYear, ToYear: toYear}

	for _, student := range report.Eligible {
		perSemester := student.AnnualCollegeFee / 2
		_, err := s.ledgers.Mutate(ctx, student.ID, func(l models.FeeLedger) (models.FeeLedger, error) {
			next, err := engine.AssignFee(l, toYear, odd, models.FeeTypeCollege, perSemester)
			if err != nil {
				return models.FeeLedger{}, err
			}
			return engine.AssignFee(next, toYear, even, models.FeeTypeCollege, student.AnnualCollegeFee-perSemester)
		})
		if err == nil {
			err = s.students.SetYear(ctx, student.ID, toYear)
		}
		if err != nil {
			s.logger.Sugar().Errorw("promotion failed for student", "student_id", student.ID, "error", err)
			outcome.Failed = append(outcome.Failed, rows[student.ID])
			continue
		}
		outcome.Promoted = append(outcome.Promoted, rows[student.ID])
	}
	for _, student := range report.Blocked {
		outcome.Blocked = append(outcome.Blocked, rows[student.ID])
	}

	s.logger.Sugar().Infow("promotion run finished",
		"from_year", req.FromYear, "promoted", len(outcome.Promoted),
		"blocked", len(outcome.Blocked), "failed", len(outcome.Failed))
	return outcome, nil
}

func (s *PromotionService) loadRoster(ctx context.Context, req PromotionRequest) ([]models.StudentLedger, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid promotion payload")
	}

	cohort, err := s.students.ListCohort(ctx, req.Department, req.Batch, req.FromYear, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort")
	}

	ids := make([]string, 0, len(cohort))
	for _, student := range cohort {
		ids = append(ids, student.ID)
	}
	ledgers, err := s.ledgers.GetLedgers(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledgers")
	}

	roster := make([]models.StudentLedger, 0, len(cohort))
	for _, student := range cohort {
		roster = append(roster, models.StudentLedger{Student: student, Ledger: ledgers[student.ID]})
	}
	return roster, nil
}
