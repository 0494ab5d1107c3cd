package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// overviewCacheKey is the single cache slot for the dashboard aggregate.
const overviewCacheKey = "dashboard:overview"

// overviewCacheTTL keeps the dashboard snappy without going stale for long.
const overviewCacheTTL = 60 * time.Second

// DashboardService serves the admin overview, caching the aggregate for a
// short window since it is expensive to compute and refreshed often.
type DashboardService struct {
	dashboardRepo ports.DashboardRepository
	cache         ports.OverviewCache
	logger        *slog.Logger
	clock         func() time.Time
}

var _ ports.DashboardService = (*DashboardService)(nil)

// NewDashboardService creates a new dashboard service. The cache may be
// nil, in which case every call hits the database.
func NewDashboardService(dashboardRepo ports.DashboardRepository, cache ports.OverviewCache, logger *slog.Logger, clock func() time.Time) ports.DashboardService {
	if clock == nil {
		clock = time.Now
	}
	return &DashboardService{
		dashboardRepo: dashboardRepo,
		cache:         cache,
		logger:        logger,
		clock:         clock,
	}
}

// Overview returns the dashboard aggregate, serving a cached copy when one
// is fresh. Cache failures degrade to a direct read.
func (s *DashboardService) Overview(ctx context.Context) (*domain.DashboardOverview, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, overviewCacheKey)
		if err != nil {
			s.logger.WarnContext(ctx, "dashboard cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	overview, err := s.dashboardRepo.Overview(ctx, s.clock().UTC())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, overviewCacheKey, overview, overviewCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "dashboard cache write failed", "error", err)
		}
	}

	return overview, nil
}
