package services

import (
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// Permission strings checked throughout the service layer.
const (
	PermTicketsCreate    = "tickets:create"
	PermTicketsRead      = "tickets:read"
	PermTicketsReadAll   = "tickets:read:all"
	PermTicketsUpdate    = "tickets:update"
	PermTicketsUpdateAll = "tickets:update:all"
	PermTicketsAssign    = "tickets:assign"
	PermTicketsDelete    = "tickets:delete"
	PermTicketsExport    = "tickets:export"
	PermCommentsCreate   = "comments:create"
	PermSLAManage        = "sla:manage"
	PermTaxonomyManage   = "taxonomy:manage"
	PermDashboardView    = "dashboard:view"
)

// rolePermissions is the static capability map. Roles are additive:
// agents hold everything users do, admins hold everything agents do.
var rolePermissions = map[domain.Role][]string{
	domain.RoleUser: {
		PermTicketsCreate,
		PermTicketsRead,
		PermCommentsCreate,
	},
	domain.RoleAgent: {
		PermTicketsCreate,
		PermTicketsRead,
		PermTicketsReadAll,
		PermTicketsUpdate,
		PermTicketsUpdateAll,
		PermTicketsAssign,
		PermTicketsExport,
		PermCommentsCreate,
	},
	domain.RoleAdmin: {
		PermTicketsCreate,
		PermTicketsRead,
		PermTicketsReadAll,
		PermTicketsUpdate,
		PermTicketsUpdateAll,
		PermTicketsAssign,
		PermTicketsDelete,
		PermTicketsExport,
		PermCommentsCreate,
		PermSLAManage,
		PermTaxonomyManage,
		PermDashboardView,
	},
}

// AuthorizationService answers permission checks from the static role map.
type AuthorizationService struct{}

var _ ports.AuthorizationService = (*AuthorizationService)(nil)

// NewAuthorizationService creates a new authorization service.
func NewAuthorizationService() ports.AuthorizationService {
	return &AuthorizationService{}
}

// Can reports whether the role holds the given permission.
func (s *AuthorizationService) Can(role domain.Role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// Permissions returns the full permission list for a role.
func (s *AuthorizationService) Permissions(role domain.Role) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
