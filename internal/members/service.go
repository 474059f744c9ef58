// Package members manages the profiles of a school after provisioning: role
// changes and deactivation. Profiles are never created here; that is
// provisioning's job alone.
package members

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/access"
	"github.com/classdesk/classdesk/internal/domain"
	"github.com/classdesk/classdesk/internal/session"
)

type Service struct {
	profiles domain.ProfileRepository
}

func NewService(profiles domain.ProfileRepository) *Service {
	return &Service{profiles: profiles}
}

// List returns all profiles of the caller's school.
func (s *Service) List(ctx context.Context, caller *session.Context) ([]*domain.Profile, error) {
	err := access.Authorize(caller, caller.TenantID, access.ClassProfiles)
	if err != nil {
		return nil, fmt.Errorf("members.List: %w", err)
	}

	profiles, err := s.profiles.ListByTenant(ctx, caller.TenantID)
	if err != nil {
		return nil, fmt.Errorf("members.List: %w", err)
	}

	return profiles, nil
}

// ChangeRole moves a member to a new role. Only owners may do this, and an
// owner cannot drop its own owner role while being the school's last active
// owner: that would strand the tenant without an administrator.
func (s *Service) ChangeRole(ctx context.Context, caller *session.Context, memberID uuid.UUID, role domain.Role) error {
	err := access.Authorize(caller, caller.TenantID, access.ClassMemberAdmin)
	if err != nil {
		return fmt.Errorf("members.ChangeRole: %w", err)
	}

	if !role.Valid() {
		return fmt.Errorf("members.ChangeRole: role %q: %w", role, domain.ErrUnauthorizedRoleTransition)
	}

	if caller.IdentityID == memberID && role != domain.RoleOwner {
		err = s.ensureNotLastOwner(ctx, caller.TenantID)
		if err != nil {
			return fmt.Errorf("members.ChangeRole: %w", err)
		}
	}

	err = s.profiles.UpdateRole(ctx, caller.TenantID, memberID, role)
	if err != nil {
		return fmt.Errorf("members.ChangeRole: %w", err)
	}

	return nil
}

// Deactivate turns a member's access off. The profile row is retained for
// audit; there is no reactivation-to-absent transition, and the last active
// owner cannot deactivate itself.
func (s *Service) Deactivate(ctx context.Context, caller *session.Context, memberID uuid.UUID) error {
	err := access.Authorize(caller, caller.TenantID, access.ClassMemberAdmin)
	if err != nil {
		return fmt.Errorf("members.Deactivate: %w", err)
	}

	if caller.IdentityID == memberID {
		err = s.ensureNotLastOwner(ctx, caller.TenantID)
		if err != nil {
			return fmt.Errorf("members.Deactivate: %w", err)
		}
	}

	err = s.profiles.Deactivate(ctx, caller.TenantID, memberID)
	if err != nil {
		return fmt.Errorf("members.Deactivate: %w", err)
	}

	return nil
}

func (s *Service) ensureNotLastOwner(ctx context.Context, tenantID uuid.UUID) error {
	owners, err := s.profiles.CountActiveByRole(ctx, tenantID, domain.RoleOwner)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return domain.ErrUnauthorizedRoleTransition
	}

	return nil
}
