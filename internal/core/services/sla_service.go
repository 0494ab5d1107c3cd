package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// SLAService manages the singleton SLA policy and derives ticket deadlines
// from it. The policy is read fresh on every computation so admin updates
// take effect immediately.
type SLAService struct {
	policyRepo ports.SLAPolicyRepository
	logger     *slog.Logger
	clock      func() time.Time
}

var _ ports.SLAService = (*SLAService)(nil)

// NewSLAService creates a new SLA service.
func NewSLAService(policyRepo ports.SLAPolicyRepository, logger *slog.Logger, clock func() time.Time) ports.SLAService {
	if clock == nil {
		clock = time.Now
	}
	return &SLAService{
		policyRepo: policyRepo,
		logger:     logger,
		clock:      clock,
	}
}

// Policy returns the current SLA policy, creating the default record on
// first access.
func (s *SLAService) Policy(ctx context.Context) (domain.SLAPolicy, error) {
	return s.policyRepo.GetOrCreate(ctx)
}

// UpdatePolicy merges the patch into the stored policy. Only provided
// fields change; each provided value must be a positive hour count.
func (s *SLAService) UpdatePolicy(ctx context.Context, patch domain.SLAPolicyPatch) (domain.SLAPolicy, error) {
	for field, value := range map[string]*int{
		"low":      patch.Low,
		"medium":   patch.Medium,
		"high":     patch.High,
		"critical": patch.Critical,
	} {
		if value != nil && *value <= 0 {
			errs := apperrors.NewValidationErrors()
			errs.Add(field, "Hours must be a positive integer")
			return domain.SLAPolicy{}, errs
		}
	}

	current, err := s.policyRepo.GetOrCreate(ctx)
	if err != nil {
		return domain.SLAPolicy{}, err
	}

	updated, err := s.policyRepo.Update(ctx, current.Apply(patch))
	if err != nil {
		return domain.SLAPolicy{}, err
	}

	s.logger.InfoContext(ctx, "sla policy updated",
		"low", updated.Low,
		"medium", updated.Medium,
		"high", updated.High,
		"critical", updated.Critical,
	)
	return updated, nil
}

// DueDateFor computes the SLA deadline for a ticket of the given priority
// created now.
func (s *SLAService) DueDateFor(ctx context.Context, priority domain.TicketPriority) (time.Time, error) {
	policy, err := s.policyRepo.GetOrCreate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return domain.ComputeDueDate(priority, policy, s.clock().UTC()), nil
}
