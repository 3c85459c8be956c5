package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/fee-api/internal/models"
	appErrors "github.com/campusops/fee-api/pkg/errors"
)

const dashboardCacheKey = "analytics:dashboard"

type analyticsStore interface {
	CollectionByFeeType(ctx context.Context) ([]models.CollectionSummary, error)
	CollectionByDepartment(ctx context.Context) ([]models.DepartmentCollection, error)
	StudentCounts(ctx context.Context) (total, active int, err error)
	Defaulters(ctx context.Context, department string, year int, feeType models.FeeType) ([]models.DefaulterRow, error)
}

// AnalyticsService serves collection aggregates with a short-lived cache.
type AnalyticsService struct {
	repo   analyticsStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewAnalyticsService constructs AnalyticsService.
func NewAnalyticsService(repo analyticsStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *AnalyticsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Dashboard returns the headline stats, served from cache when warm.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	byFeeType, err := s.repo.CollectionByFeeType(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate collections")
	}
	byDepartment, err := s.repo.CollectionByDepartment(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate departments")
	}
	total, active, err := s.repo.StudentCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	stats := &models.DashboardStats{
		TotalStudents:  total,
		ActiveStudents: active,
		ByFeeType:      byFeeType,
		ByDepartment:   byDepartment,
		GeneratedAt:    time.Now().UTC(),
	}
	for _, summary := range byFeeType {
		stats.TotalCollected += summary.TotalPaid
		stats.TotalOutstanding += summary.Outstanding
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, stats, s.ttl); err != nil {
		s.logger.Sugar().Warnw("failed to cache dashboard stats", "error", err)
	}
	return stats, nil
}

// Defaulters lists students with outstanding dues.
func (s *AnalyticsService) Defaulters(ctx context.Context, department string, year int, feeType models.FeeType) ([]models.DefaulterRow, error) {
	rows, err := s.repo.Defaulters(ctx, department, year, feeType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list defaulters")
	}
	return rows, nil
}

// InvalidateAnalytics drops cached aggregates after a ledger mutation.
func (s *AnalyticsService) InvalidateAnalytics(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "analytics:*"); err != nil {
		s.logger.Sugar().Warnw("failed to invalidate analytics cache", "error", err)
	}
}
