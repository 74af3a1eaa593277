package rbac

import (
	"context"
)

// RoleLookup resolves the role of an active user.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID int64) (Role, error)
}

// Service resolves effective permissions for users.
type Service struct {
	lookup RoleLookup
}

// NewService constructs a Service backed by the provided role lookup.
func NewService(lookup RoleLookup) *Service {
	return &Service{lookup: lookup}
}

// EffectivePermissions returns the permission names granted to a user
// through their role.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	role, err := s.lookup.RoleOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Permissions(role), nil
}
