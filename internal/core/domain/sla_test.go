package domain_test

import (
	"testing"
	"time"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDueDate(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	policy := domain.DefaultSLAPolicy()

	tests := []struct {
		name     string
		priority domain.TicketPriority
		want     time.Time
	}{
		{"critical gets 4 hours", domain.PriorityCritical, now.Add(4 * time.Hour)},
		{"high gets 8 hours", domain.PriorityHigh, now.Add(8 * time.Hour)},
		{"medium gets 24 hours", domain.PriorityMedium, now.Add(24 * time.Hour)},
		{"low gets 48 hours", domain.PriorityLow, now.Add(48 * time.Hour)},
		{"unknown priority falls back to 24 hours", domain.TicketPriority("Urgent"), now.Add(24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ComputeDueDate(tt.priority, policy, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeDueDate_CustomPolicy(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	policy := domain.SLAPolicy{Low: 72, Medium: 36, High: 12, Critical: 2}

	assert.Equal(t, now.Add(2*time.Hour), domain.ComputeDueDate(domain.PriorityCritical, policy, now))
	assert.Equal(t, now.Add(72*time.Hour), domain.ComputeDueDate(domain.PriorityLow, policy, now))
}

func TestSLAPolicy_HoursFor(t *testing.T) {
	policy := domain.DefaultSLAPolicy()

	assert.Equal(t, 48, policy.HoursFor(domain.PriorityLow))
	assert.Equal(t, 24, policy.HoursFor(domain.PriorityMedium))
	assert.Equal(t, 8, policy.HoursFor(domain.PriorityHigh))
	assert.Equal(t, 4, policy.HoursFor(domain.PriorityCritical))
	assert.Equal(t, domain.FallbackHours, policy.HoursFor(domain.TicketPriority("bogus")))
}

func TestSLAPolicy_Apply(t *testing.T) {
	policy := domain.DefaultSLAPolicy()

	t.Run("partial patch only changes named fields", func(t *testing.T) {
		high := 6
		merged := policy.Apply(domain.SLAPolicyPatch{High: &high})

		assert.Equal(t, 6, merged.High)
		assert.Equal(t, policy.Low, merged.Low)
		assert.Equal(t, policy.Medium, merged.Medium)
		assert.Equal(t, policy.Critical, merged.Critical)
	})

	t.Run("empty patch is a no-op", func(t *testing.T) {
		merged := policy.Apply(domain.SLAPolicyPatch{})
		require.Equal(t, policy, merged)
	})

	t.Run("full patch replaces every field", func(t *testing.T) {
		low, medium, high, critical := 96, 48, 16, 8
		merged := policy.Apply(domain.SLAPolicyPatch{
			Low:      &low,
			Medium:   &medium,
			High:     &high,
			Critical: &critical,
		})

		assert.Equal(t, domain.SLAPolicy{Low: 96, Medium: 48, High: 16, Critical: 8}, merged)
	})
}
