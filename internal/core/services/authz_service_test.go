package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/services"
)

func TestAuthorizationService_Can(t *testing.T) {
	svc := services.NewAuthorizationService()

	tests := []struct {
		name       string
		role       domain.Role
		permission string
		want       bool
	}{
		{"users can create tickets", domain.RoleUser, services.PermTicketsCreate, true},
		{"users cannot update tickets", domain.RoleUser, services.PermTicketsUpdate, false},
		{"users cannot read all tickets", domain.RoleUser, services.PermTicketsReadAll, false},
		{"agents can update tickets", domain.RoleAgent, services.PermTicketsUpdate, true},
		{"agents can export", domain.RoleAgent, services.PermTicketsExport, true},
		{"agents cannot delete", domain.RoleAgent, services.PermTicketsDelete, false},
		{"agents cannot manage sla", domain.RoleAgent, services.PermSLAManage, false},
		{"admins can delete", domain.RoleAdmin, services.PermTicketsDelete, true},
		{"admins can manage sla", domain.RoleAdmin, services.PermSLAManage, true},
		{"admins can view the dashboard", domain.RoleAdmin, services.PermDashboardView, true},
		{"unknown role has nothing", domain.Role("superuser"), services.PermTicketsRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Can(tt.role, tt.permission))
		})
	}
}

func TestAuthorizationService_Permissions(t *testing.T) {
	svc := services.NewAuthorizationService()

	t.Run("agent permissions include ticket management", func(t *testing.T) {
		perms := svc.Permissions(domain.RoleAgent)
		assert.Contains(t, perms, services.PermTicketsUpdate)
		assert.NotContains(t, perms, services.PermTicketsDelete)
	})

	t.Run("unknown role yields nothing", func(t *testing.T) {
		assert.Empty(t, svc.Permissions(domain.Role("superuser")))
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		perms := svc.Permissions(domain.RoleUser)
		if len(perms) > 0 {
			perms[0] = "tampered"
		}
		assert.NotContains(t, svc.Permissions(domain.RoleUser), "tampered")
	})
}
