package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.ExamNotification) error
	FindByID(ctx context.Context, id string) (*models.ExamNotification, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.ExamNotification, int, error)
	Extend(ctx context.Context, id string, endDate time.Time, lateFee int64, isActive *bool) error
	Delete(ctx context.Context, id string) error
}

// CreateNotificationRequest opens a new exam registration window. Title,
// year, semester, batches and base fee are fixed once created.
type CreateNotificationRequest struct {
	Title         string          `json:"title" validate:"required"`
	Year          int             `json:"year" validate:"required,min=1,max=4"`
	Semester      int             `json:"semester" validate:"required,min=1,max=8"`
	TargetBatches []string        `json:"targetBatches"`
	ExamType      models.ExamType `json:"examType" validate:"required,oneof=regular supplementary"`
	ExamFeeAmount int64           `json:"examFeeAmount" validate:"required,gt=0"`
	LateFee       int64           `json:"lateFee" validate:"gte=0"`
	StartDate     time.Time       `json:"startDate" validate:"required"`
	EndDate       time.Time       `json:"endDate" validate:"required"`
	Description   string          `json:"description"`
}

// NotificationService manages exam notification lifecycles.
type NotificationService struct {
	notifications notificationStore
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(notifications notificationStore, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{notifications: notifications, validator: validate, logger: logger}
}

// Create validates and persists a new notification.
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*models.ExamNotification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}
	odd, even := models.SemestersForYear(req.Year)
	if req.Semester != odd && req.Semester != even {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester does not belong to the given year")
	}

	n := &models.ExamNotification{
		Title:         req.Title,
		Year:          req.Year,
		Semester:      req.Semester,
		TargetBatches: req.TargetBatches,
		ExamType:      req.ExamType,
		ExamFeeAmount: req.ExamFeeAmount,
		LateFee:       req.LateFee,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Description:   req.Description,
		IsActive:      true,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	s.logger.Sugar().Infow("exam notification created",
		"notification_id", n.ID, "year", n.Year, "semester", n.Semester, "exam_type", n.ExamType)
	return n, nil
}

// Get fetches one notification.
func (s *NotificationService) Get(ctx context.Context, id string) (*models.ExamNotification, error) {
	n, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	return n, nil
}

// List returns notifications matching the filter.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.ExamNotification, int, error) {
	notifications, total, err := s.notifications.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, total, nil
}

// Extend moves the end date, adjusts the late fee, or toggles activity.
// All other fields are immutable after creation.
func (s *NotificationService) Extend(ctx context.Context, id string, req models.NotificationExtension) (*models.ExamNotification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extension payload")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.EndDate.Before(current.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}

	if err := s.notifications.Extend(ctx, id, req.EndDate, req.LateFee, req.IsActive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to extend notification")
	}
	s.logger.Sugar().Infow("exam notification extended",
		"notification_id", id, "end_date", req.EndDate, "late_fee", req.LateFee)
	return s.Get(ctx, id)
}

// Delete removes a notification entirely.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	s.logger.Sugar().Infow("exam notification deleted", "notification_id", id)
	return nil
}
