package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of per-tenant roles a profile can hold.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleManager      Role = "manager"
	RoleReceptionist Role = "receptionist"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleReceptionist:
		return true
	}
	return false
}

// CanInvite reports whether a profile with this role may issue or revoke
// invitations for its tenant.
func (r Role) CanInvite() bool {
	return r == RoleOwner || r == RoleManager
}

// Profile binds one external identity to one tenant with a role. There is at
// most one profile per identity; the identity id is the primary key. A
// profile is never created directly by an end user, only by provisioning.
type Profile struct {
	IdentityID  uuid.UUID
	TenantID    uuid.UUID
	Email       string
	DisplayName string
	Phone       string
	Role        Role
	Active      bool
	// InvitedBy is a weak reference to the issuing profile; it records the
	// relation only and never blocks deletion of the inviter.
	InvitedBy *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProfileRepository interface {
	// CreateFirstOwner inserts the owner profile only while its tenant has no
	// profiles at all, in one atomic statement. Returns false with a nil
	// error when nothing was written, either because the identity already
	// holds a profile (redelivered provisioning events must be a no-op) or
	// because the tenant is already bootstrapped; callers disambiguate via
	// GetByIdentityID.
	CreateFirstOwner(ctx context.Context, p *Profile) (created bool, err error)

	// GetByIdentityID is the direct, unscoped lookup used to establish the
	// session context. It is deliberately not tenant-filtered; filtering it
	// through the tenant-scoping rules it feeds would make session
	// resolution circular.
	GetByIdentityID(ctx context.Context, identityID uuid.UUID) (*Profile, error)

	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Profile, error)
	ExistsActiveByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
	CountActiveByRole(ctx context.Context, tenantID uuid.UUID, role Role) (int, error)
	UpdateRole(ctx context.Context, tenantID, identityID uuid.UUID, role Role) error
	// Deactivate flips the active flag off. The row is retained for audit;
	// there is no way back to "absent".
	Deactivate(ctx context.Context, tenantID, identityID uuid.UUID) error
}
