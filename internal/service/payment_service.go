package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

type paymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
	SetStatus(ctx context.Context, id string, from, to models.PaymentStatus) error
}

// RecordPaymentRequest registers a payment awaiting gateway confirmation.
type RecordPaymentRequest struct {
	StudentID          string             `json:"studentId" validate:"required"`
	FeeType            models.FeeType     `json:"feeType,omitempty"`
	ExamNotificationID string             `json:"examNotificationId,omitempty"`
	Year               int                `json:"year" validate:"omitempty,min=1,max=4"`
	Amount             int64              `json:"amount" validate:"required,gt=0"`
	Mode               models.PaymentMode `json:"mode" validate:"required,oneof=cash online cheque challan"`
	Reference          string             `json:"reference"`
	Description        string             `json:"description"`
}

// PaymentService records receipts and applies completed ones to ledgers.
type PaymentService struct {
	payments  paymentStore
	ledgers   ledgerStore
	students  studentReader
	analytics analyticsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(payments paymentStore, ledgers ledgerStore, students studentReader, analytics analyticsInvalidator, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payments:  payments,
		ledgers:   ledgers,
		students:  students,
		analytics: analytics,
		validator: validate,
		logger:    logger,
	}
}

// Record registers a pending payment. The receipt targets either a fee
// type bucket or a specific exam notification, never both.
func (s *PaymentService) Record(ctx context.Context, recordedBy string, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if (req.FeeType == "") == (req.ExamNotificationID == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of feeType or examNotificationId must be set")
	}
	if req.FeeType != "" && !models.ValidFeeType(req.FeeType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown fee type")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	payment := &models.Payment{
		StudentID:   req.StudentID,
		FeeType:     req.FeeType,
		Year:        req.Year,
		Amount:      req.Amount,
		Mode:        req.Mode,
		Reference:   req.Reference,
		Status:      models.PaymentStatusPending,
		RecordedBy:  recordedBy,
		Description: req.Description,
	}
	if req.ExamNotificationID != "" {
		id := req.ExamNotificationID
		payment.ExamNotificationID = &id
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	return payment, nil
}

// Complete confirms a pending payment and, for fee-type payments, applies
// the amount to the student's ledger starting at the oldest outstanding
// record of that type. Overshoot beyond the total due is rejected.
func (s *PaymentService) Complete(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrState, "payment is not pending")
	}

	// Claim the payment before touching the ledger. The transition is
	// guarded on the pending state, so a retry or a concurrent Complete
	// loses the claim here instead of crediting the same receipt twice.
	if err := s.payments.SetStatus(ctx, id, models.PaymentStatusPending, models.PaymentStatusCompleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrState, "payment is not pending")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete payment")
	}

	if payment.ExamNotificationID == nil {
		_, err = s.ledgers.Mutate(ctx, payment.StudentID, func(l models.FeeLedger) (models.FeeLedger, error) {
			return applyPaymentToLedger(l, payment.FeeType, payment.Year, payment.Amount)
		})
		if err != nil {
			if revertErr := s.payments.SetStatus(ctx, id, models.PaymentStatusCompleted, models.PaymentStatusPending); revertErr != nil {
				s.logger.Sugar().Errorw("payment stuck completed after ledger failure",
					"payment_id", id, "error", revertErr)
			}
			return nil, err
		}
	}
	payment.Status = models.PaymentStatusCompleted

	s.logger.Sugar().Infow("payment completed",
		"payment_id", id, "student_id", payment.StudentID, "amount", payment.Amount)
	if s.analytics != nil {
		s.analytics.InvalidateAnalytics(ctx)
	}
	return payment, nil
}

// Fail marks a pending payment as failed without touching the ledger.
func (s *PaymentService) Fail(ctx context.Context, id string) error {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.Status != models.PaymentStatusPending {
		return appErrors.Clone(appErrors.ErrState, "payment is not pending")
	}
	if err := s.payments.SetStatus(ctx, id, models.PaymentStatusPending, models.PaymentStatusFailed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrState, "payment is not pending")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}
	return nil
}

// ListByStudent returns a student's payment history.
func (s *PaymentService) ListByStudent(ctx context.Context, studentID string) ([]models.Payment, error) {
	payments, err := s.payments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// List returns payments matching the filter.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, total, nil
}

// applyPaymentToLedger spreads an amount across the outstanding records of
// one fee type, oldest semester first. A year of 0 means all years.
func applyPaymentToLedger(ledger models.FeeLedger, feeType models.FeeType, year int, amount int64) (models.FeeLedger, error) {
	out := ledger.Clone()

	idxs := make([]int, 0, len(out.Records))
	var outstanding int64
	for i, r := range out.Records {
		if r.FeeType != feeType || (year > 0 && r.Year != year) {
			continue
		}
		if r.Outstanding() > 0 {
			idxs = append(idxs, i)
			outstanding += r.Outstanding()
		}
	}
	if len(idxs) == 0 {
		return models.FeeLedger{}, appErrors.Clone(appErrors.ErrNotFound, "no outstanding record for this fee type")
	}
	if amount > outstanding {
		return models.FeeLedger{}, appErrors.Clone(appErrors.ErrValidation, "payment exceeds total outstanding due")
	}

	sort.SliceStable(idxs, func(a, b int) bool {
		ra, rb := out.Records[idxs[a]], out.Records[idxs[b]]
		if ra.Year != rb.Year {
			return ra.Year < rb.Year
		}
		return ra.Semester < rb.Semester
	})

	remaining := amount
	for _, i := range idxs {
		if remaining == 0 {
			break
		}
		rec := &out.Records[i]
		applied := rec.Outstanding()
		if applied > remaining {
			applied = remaining
		}
		rec.PaidAmount += applied
		remaining -= applied
	}
	return out, nil
}
