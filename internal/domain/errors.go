package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound = errors.New("domain: not found")
	ErrConflict = errors.New("domain: conflict")

	// ErrTenantNotFound is returned when a referenced school does not exist.
	ErrTenantNotFound = errors.New("domain: tenant not found")

	// Invitation lifecycle errors. These are surfaced directly to the caller
	// issuing the invitation action; the specific reason is actionable.
	ErrInvitationNotFound        = errors.New("domain: invitation not found")
	ErrInvitationExpired         = errors.New("domain: invitation expired")
	ErrInvitationAlreadyAccepted = errors.New("domain: invitation already accepted")

	// ErrUnauthorizedRoleTransition is returned when a role change would leave
	// a school without an active owner, or the caller may not perform it.
	ErrUnauthorizedRoleTransition = errors.New("domain: unauthorized role transition")

	// ErrTenantVisibilityTimeout is returned when the owner-signup path gave up
	// waiting for the school row to become visible.
	ErrTenantVisibilityTimeout = errors.New("domain: tenant not yet visible")

	// ErrTenantAlreadyProvisioned is returned when owner provisioning targets
	// a school that already has profiles. The unauthenticated bootstrap write
	// covers the first profile only; everyone after that comes in through an
	// invitation.
	ErrTenantAlreadyProvisioned = errors.New("domain: tenant already provisioned")

	// ErrAccessDenied is the uniform denial for tenant/role check failures.
	// Callers must not be able to distinguish it from a missing entity.
	ErrAccessDenied = errors.New("domain: access denied")
)
