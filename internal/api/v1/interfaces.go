package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/domain"
	"github.com/classdesk/classdesk/internal/provision"
	"github.com/classdesk/classdesk/internal/session"
)

// DataStore is the subset of the storage layer the HTTP handlers need.
// *postgres.Store satisfies it; tests substitute func-field mocks.
type DataStore interface {
	Tenants() domain.TenantRepository
	Profiles() domain.ProfileRepository
	Invitations() domain.InvitationRepository
	Students() domain.StudentRepository
	Payments() domain.PaymentRepository
}

// ProvisionService is the client-facing provisioning fallback.
type ProvisionService interface {
	EnsureProfile(ctx context.Context, identityID, tenantID uuid.UUID, email, displayName, phone string) (provision.EnsureResult, error)
}

// InviteService issues, lists, looks up and revokes staff invitations.
type InviteService interface {
	Create(ctx context.Context, issuer *session.Context, email string, role domain.Role) (*domain.Invitation, error)
	Lookup(ctx context.Context, token, email string) (*domain.Invitation, error)
	ListPending(ctx context.Context, issuer *session.Context) ([]*domain.Invitation, error)
	Revoke(ctx context.Context, issuer *session.Context, id uuid.UUID) error
}

// MemberService manages the roster of profiles inside a school.
type MemberService interface {
	List(ctx context.Context, caller *session.Context) ([]*domain.Profile, error)
	ChangeRole(ctx context.Context, caller *session.Context, memberID uuid.UUID, role domain.Role) error
	Deactivate(ctx context.Context, caller *session.Context, memberID uuid.UUID) error
}
