package auth

import "github.com/ayo6706/mobile-money-ledger/internal/domain"

// Role sets used by the HTTP routes and the engines.
var (
	TransferRoles = []domain.Role{domain.RoleClient, domain.RoleAgent}
	AdminRoles    = []domain.Role{domain.RoleAdmin}
	AnyRole       = []domain.Role{domain.RoleClient, domain.RoleAgent, domain.RoleAdmin}
)

// Authorize returns domain.ErrForbidden unless role is one of allowed.
// Roles outside the closed set are never authorized.
func Authorize(role domain.Role, allowed ...domain.Role) error {
	switch role {
	case domain.RoleClient, domain.RoleAgent, domain.RoleAdmin:
	default:
		return domain.ErrForbidden
	}
	for _, r := range allowed {
		if r == role {
			return nil
		}
	}
	return domain.ErrForbidden
}
