// Package provision turns identity lifecycle events into profiles. The
// handler runs at-least-once (the event source may redeliver), so every side
// effect is a conditional write: a second delivery of the same event is a
// no-op, never a duplicate profile or a double-accepted invitation.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/classdesk/classdesk/internal/domain"
)

// EnsureResult is the outcome of the client-facing provisioning fallback.
type EnsureResult string

const (
	EnsureCreated       EnsureResult = "created"
	EnsureAlreadyExists EnsureResult = "already_exists"
	EnsureFailed        EnsureResult = "failed"
)

type Handler struct {
	tenants     domain.TenantRepository
	profiles    domain.ProfileRepository
	invitations domain.InvitationRepository

	// requireVerified defers invitation-path provisioning until the identity
	// verifies its email. Owner signups always provision immediately.
	requireVerified bool

	// visibilityWait bounds the retry loop that waits for a freshly created
	// school row to become visible when "create tenant" and "create identity"
	// arrive as two separate client calls.
	visibilityWait time.Duration

	now func() time.Time
}

func NewHandler(tenants domain.TenantRepository, profiles domain.ProfileRepository, invitations domain.InvitationRepository, requireVerified bool, visibilityWait time.Duration) *Handler {
	return &Handler{
		tenants:         tenants,
		profiles:        profiles,
		invitations:     invitations,
		requireVerified: requireVerified,
		visibilityWait:  visibilityWait,
		now:             time.Now,
	}
}

// HandleIdentityEvent provisions at most one profile for the event's
// identity. The returned error is for out-of-band reporting only: the event
// is considered consumed either way, and identity creation itself never
// fails on a provisioning hiccup. A profile-less identity simply has no
// access until provisioning is retried via EnsureProfile.
func (h *Handler) HandleIdentityEvent(ctx context.Context, evt IdentityEvent) error {
	switch {
	case evt.Metadata.IsOwnerSignup:
		return h.provisionOwner(ctx, evt)
	case evt.Metadata.InvitationToken != "":
		return h.provisionInvited(ctx, evt)
	default:
		log.Debug().
			Stringer("identity_id", evt.IdentityID).
			Msg("provision: event carries no signup metadata, ignoring")
		return nil
	}
}

// provisionOwner creates the owner profile for a freshly created school.
// It runs regardless of verification state: the owner needs immediate access
// to configure the tenant it just paid for.
func (h *Handler) provisionOwner(ctx context.Context, evt IdentityEvent) error {
	tenantID := evt.Metadata.TenantID
	if tenantID == uuid.Nil {
		return fmt.Errorf("provision.provisionOwner: owner signup without tenant id: %w", domain.ErrTenantNotFound)
	}

	result, err := h.ensureOwner(ctx, evt.IdentityID, tenantID, evt.Email, evt.Metadata.DisplayName, evt.Metadata.Phone)
	if err != nil {
		return fmt.Errorf("provision.provisionOwner: %w", err)
	}

	if result == EnsureCreated {
		log.Info().
			Stringer("identity_id", evt.IdentityID).
			Stringer("tenant_id", tenantID).
			Msg("provision: owner profile created")
	}

	return nil
}

// provisionInvited consumes an invitation token. Provisioning is strictly
// deferred until the email is verified (when policy requires it); the
// verification update event re-invokes this path.
func (h *Handler) provisionInvited(ctx context.Context, evt IdentityEvent) error {
	if h.requireVerified && !evt.Verified {
		log.Debug().
			Stringer("identity_id", evt.IdentityID).
			Msg("provision: invited identity not yet verified, deferring")
		return nil
	}

	// Redelivery guard: an identity that already holds a profile is done,
	// whatever state its invitation is in.
	_, err := h.profiles.GetByIdentityID(ctx, evt.IdentityID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("provision.provisionInvited: %w", err)
	}

	inv, err := h.invitations.GetByToken(ctx, evt.Metadata.InvitationToken)
	if err != nil {
		log.Warn().
			Stringer("identity_id", evt.IdentityID).
			Msg("provision: no invitation for token, identity stays profile-less")
		return fmt.Errorf("provision.provisionInvited: %w", err)
	}

	// The token must have been issued for this email.
	if !strings.EqualFold(inv.Email, evt.Email) {
		log.Warn().
			Stringer("identity_id", evt.IdentityID).
			Stringer("invitation_id", inv.ID).
			Msg("provision: invitation email mismatch")
		return fmt.Errorf("provision.provisionInvited: email mismatch: %w", domain.ErrInvitationNotFound)
	}

	if inv.AcceptedAt != nil {
		return fmt.Errorf("provision.provisionInvited: %w", domain.ErrInvitationAlreadyAccepted)
	}
	if !h.now().Before(inv.ExpiresAt) {
		return fmt.Errorf("provision.provisionInvited: %w", domain.ErrInvitationExpired)
	}

	now := h.now()
	err = h.invitations.AcceptAndCreateProfile(ctx, inv.ID, &domain.Profile{
		IdentityID:  evt.IdentityID,
		TenantID:    inv.TenantID,
		Email:       evt.Email,
		DisplayName: displayNameOr(evt.Metadata.DisplayName, evt.Email),
		Phone:       evt.Metadata.Phone,
		Role:        inv.Role,
		Active:      true,
		InvitedBy:   &inv.InvitedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("provision.provisionInvited: %w", err)
	}

	log.Info().
		Stringer("identity_id", evt.IdentityID).
		Stringer("tenant_id", inv.TenantID).
		Str("role", string(inv.Role)).
		Msg("provision: invitation accepted, profile created")

	return nil
}

// EnsureProfile is the client-facing fallback for when the event-driven path
// has not completed. It provisions the owner profile for a tenant the caller
// just created, with the same idempotency as the event path.
func (h *Handler) EnsureProfile(ctx context.Context, identityID, tenantID uuid.UUID, email, displayName, phone string) (EnsureResult, error) {
	result, err := h.ensureOwner(ctx, identityID, tenantID, email, displayName, phone)
	if err != nil {
		return result, fmt.Errorf("provision.EnsureProfile: %w", err)
	}

	return result, nil
}

// ensureOwner writes the first owner profile for tenantID. The write is
// conditional on the tenant having no profiles yet: owner provisioning is a
// bootstrap-only path, never a way into an established school. The caller
// carries no session here, so this guard is the only thing standing between
// an arbitrary school_id and an owner profile in it.
func (h *Handler) ensureOwner(ctx context.Context, identityID, tenantID uuid.UUID, email, displayName, phone string) (EnsureResult, error) {
	err := h.waitForTenant(ctx, tenantID)
	if err != nil {
		return EnsureFailed, err
	}

	now := h.now()
	created, err := h.profiles.CreateFirstOwner(ctx, &domain.Profile{
		IdentityID:  identityID,
		TenantID:    tenantID,
		Email:       email,
		DisplayName: displayNameOr(displayName, email),
		Phone:       phone,
		Role:        domain.RoleOwner,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return EnsureFailed, err
	}
	if created {
		return EnsureCreated, nil
	}

	// Nothing written: either this identity already holds a profile
	// (redelivery or a retried client call) or another identity bootstrapped
	// the tenant first.
	_, err = h.profiles.GetByIdentityID(ctx, identityID)
	if err == nil {
		return EnsureAlreadyExists, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return EnsureFailed, err
	}

	log.Warn().
		Stringer("identity_id", identityID).
		Stringer("tenant_id", tenantID).
		Msg("provision: owner provisioning refused, school already has members")

	return EnsureFailed, domain.ErrTenantAlreadyProvisioned
}

// waitForTenant retries the school existence check with capped exponential
// backoff, covering the visibility gap when the tenant row was committed by
// a separate client call moments ago. Gives up with
// ErrTenantVisibilityTimeout once the bound is exceeded.
func (h *Handler) waitForTenant(ctx context.Context, tenantID uuid.UUID) error {
	op := func() error {
		_, err := h.tenants.GetByID(ctx, tenantID)
		if errors.Is(err, domain.ErrTenantNotFound) {
			return err // retryable: the row may not be visible yet
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = h.visibilityWait

	err := backoff.Retry(op, backoff.WithContext(bo, ctx))
	if errors.Is(err, domain.ErrTenantNotFound) {
		return domain.ErrTenantVisibilityTimeout
	}
	return err
}

func displayNameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
